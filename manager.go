// Package gitrepoanalyzer is a bulk repository analysis library: given a
// set of remote repository URLs and credentials for a GitHub-v3-compatible
// forge, it clones repositories concurrently into transient workspaces,
// extracts local version-control metadata, and fetches remote
// collaboration metadata. Grounded on original_source's GitHubProvider
// (the RepoManager analogue) and structured the way the teacher wires its
// application-layer service (internal/application's orchestration over
// infrastructure/domain packages).
package gitrepoanalyzer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/italoag/gitrepoanalyzer/internal/apierrors"
	"github.com/italoag/gitrepoanalyzer/internal/clonetask"
	"github.com/italoag/gitrepoanalyzer/internal/fanout"
	"github.com/italoag/gitrepoanalyzer/internal/gitcli"
	"github.com/italoag/gitrepoanalyzer/internal/githubapi"
	"github.com/italoag/gitrepoanalyzer/internal/shared"
	"github.com/italoag/gitrepoanalyzer/internal/taskstatus"
	"github.com/italoag/gitrepoanalyzer/internal/urlparse"
	"github.com/italoag/gitrepoanalyzer/internal/workerpool"
	"github.com/italoag/gitrepoanalyzer/internal/workspace"
)

// Outcome is the external name for a bulk fan-out's per-URL result, so
// callers never need to import internal/fanout directly.
type Outcome[T any] = fanout.Result[T]

// vcsRunner is the subset of *gitcli.Runner the manager depends on,
// extracted so tests can substitute a fake without a real git binary on
// PATH — the same testability seam internal/githubapi uses for its HTTP
// dependencies.
type vcsRunner interface {
	Clone(ctx context.Context, authenticatedURL, dest string) ([]byte, error)
	Log(ctx context.Context, repoPath string) ([]byte, error)
	Branches(ctx context.Context, repoPath string) ([]byte, error)
	Blame(ctx context.Context, absoluteFilePath string) ([]byte, error)
}

// RepoManager is the root facade wiring every component of the package map
// into the nine core operations of spec.md §4.I.
type RepoManager struct {
	cfg    Config
	urls   []string
	clones *clonetask.Registry
	tasks  *taskstatus.Registry
	alloc  *workspace.Allocator
	runner vcsRunner
	client *githubapi.ClientManager
	pool   *workerpool.Pool
	logger shared.Logger
	wg     sync.WaitGroup
}

// processClients and processTasks are shared by every RepoManager in the
// process: the GitHub client is first-writer-wins across managers, and
// clone bookkeeping from all managers lands in one task registry.
var (
	processClients = githubapi.NewClientManager()
	processTasks   = taskstatus.NewRegistry()
)

// New builds a RepoManager over urls, pre-populating the clone registry
// with Queued entries, matching spec.md §6's inbound construction contract.
func New(urls []string, user, token string) (*RepoManager, error) {
	return NewWithConfig(urls, Config{Username: user, Token: token})
}

// NewWithConfig is New with full control over pool sizing, retries, paging,
// the git binary, and the logger — the path tests use to inject fakes.
func NewWithConfig(urls []string, cfg Config) (*RepoManager, error) {
	cfg.setDefaults()

	runner, err := gitcli.NewRunner(cfg.GitPath)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.InitFailure, "failed to resolve git binary", err)
	}

	pool, err := workerpool.New(workerpool.Config{MaxWorkers: cfg.MaxWorkers, Logger: cfg.Logger})
	if err != nil {
		return nil, apierrors.Wrap(apierrors.InitFailure, "failed to create worker pool", err)
	}

	clones := clonetask.NewRegistry()
	for _, u := range urls {
		clones.InsertIfAbsent(u)
	}

	return &RepoManager{
		cfg:    cfg,
		urls:   urls,
		clones: clones,
		tasks:  processTasks,
		alloc:  workspace.NewAllocator(),
		runner: runner,
		client: processClients,
		pool:   pool,
		logger: cfg.Logger,
	}, nil
}

// githubClient returns the process-wide client, initializing it on first
// use with this manager's credentials (first-writer-wins per spec.md §4.F).
func (m *RepoManager) githubClient() *githubapi.RateLimitedClient {
	return m.client.GetOrInit(m.cfg.Token, m.cfg.MaxConcurrentRequests, m.logger)
}

// Clone is an idempotent no-op if url is already Completed; otherwise it
// schedules asynchronous clone work and returns immediately, per spec.md
// §4.I. The clone never surfaces its error through this call — failures
// are written into the registry entry.
func (m *RepoManager) Clone(ctx context.Context, url string) error {
	m.clones.InsertIfAbsent(url)
	if _, err := m.clones.PathIfCompleted(url); err == nil {
		return nil
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.runClone(ctx, url)
	}()
	return nil
}

// CloneAll invokes Clone for every configured URL and returns once
// scheduling is done, per spec.md §4.I.
func (m *RepoManager) CloneAll(ctx context.Context) error {
	for _, url := range m.urls {
		if err := m.Clone(ctx, url); err != nil {
			return err
		}
	}
	return nil
}

// FetchCloneTasks returns a snapshot of the clone registry's external
// boundary shape (spec.md §6).
func (m *RepoManager) FetchCloneTasks() map[string]clonetask.View {
	return m.clones.Views()
}

func (m *RepoManager) runClone(ctx context.Context, url string) {
	taskID := m.tasks.NewID("clone", url, "clone")
	m.tasks.Register(taskID, "clone", url, time.Now())

	slug, ok := urlparse.Slug(url)
	if !ok {
		slug = url
	}

	dir, err := m.alloc.Allocate(slug)
	if err != nil {
		reason := fmt.Sprintf("failed to allocate workspace: %v", err)
		_ = m.clones.MarkFailed(url, reason)
		m.tasks.SetFailed(taskID, reason, time.Now())
		m.logger.Error("clone workspace allocation failed", shared.StringField("url", url), shared.ErrorField(err))
		return
	}

	if err := m.clones.MarkCloning(url, dir); err != nil {
		m.logger.Error("clone registry transition rejected", shared.StringField("url", url), shared.ErrorField(err))
		return
	}
	m.tasks.SetInProgress(taskID, 0, time.Now())

	authURL := authenticatedURL(url, m.cfg.Username, m.cfg.Token)

	_, err = workerpool.Submit(ctx, m.pool, func() ([]byte, error) {
		return m.runner.Clone(ctx, authURL, dir)
	})
	if err != nil {
		reason := err.Error()
		_ = m.clones.MarkFailed(url, reason)
		m.tasks.SetFailed(taskID, reason, time.Now())
		m.logger.Error("clone failed", shared.StringField("url", url), shared.ErrorField(err))
		return
	}

	_ = m.clones.MarkCompleted(url)
	m.tasks.SetCompleted(taskID, time.Now())
	m.logger.Info("clone completed", shared.StringField("url", url), shared.StringField("path", dir))
}

// authenticatedURL rewrites an https GitHub URL to embed user:token@ in the
// authority, matching original_source/src/github/repo.rs:clone_repo
// exactly. SSH-form URLs are passed through unchanged.
func authenticatedURL(url, user, token string) string {
	const httpsPrefix = "https://github.com/"
	if !strings.HasPrefix(url, httpsPrefix) {
		return url
	}
	rest := strings.TrimPrefix(url, httpsPrefix)
	return fmt.Sprintf("https://%s:%s@github.com/%s", user, token, rest)
}

// Wait blocks until every scheduled clone goroutine has finished. It exists
// for tests and for embedders that want a synchronization point before
// calling FetchCloneTasks; spec.md's core operations never call it
// themselves since clone() must never block.
func (m *RepoManager) Wait() {
	m.wg.Wait()
}

// Close releases the blocking pool. Embedders should call it once the
// manager is no longer needed.
func (m *RepoManager) Close() {
	m.pool.Release()
}
