package gitrepoanalyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/italoag/gitrepoanalyzer/internal/apierrors"
	"github.com/italoag/gitrepoanalyzer/internal/clonetask"
	"github.com/italoag/gitrepoanalyzer/internal/githubapi"
	"github.com/italoag/gitrepoanalyzer/internal/shared"
	"github.com/italoag/gitrepoanalyzer/internal/taskstatus"
	"github.com/italoag/gitrepoanalyzer/internal/workerpool"
	"github.com/italoag/gitrepoanalyzer/internal/workspace"
)

// fakeRunner substitutes for *gitcli.Runner in tests so no real git binary
// or subprocess is required.
type fakeRunner struct {
	cloneFn    func(ctx context.Context, url, dest string) ([]byte, error)
	logOutput  []byte
	logErr     error
	branchOut  []byte
	branchErr  error
	blameFn    func(ctx context.Context, path string) ([]byte, error)
}

func (f *fakeRunner) Clone(ctx context.Context, authenticatedURL, dest string) ([]byte, error) {
	if f.cloneFn != nil {
		return f.cloneFn(ctx, authenticatedURL, dest)
	}
	return nil, nil
}

func (f *fakeRunner) Log(ctx context.Context, repoPath string) ([]byte, error) {
	return f.logOutput, f.logErr
}

func (f *fakeRunner) Branches(ctx context.Context, repoPath string) ([]byte, error) {
	return f.branchOut, f.branchErr
}

func (f *fakeRunner) Blame(ctx context.Context, absoluteFilePath string) ([]byte, error) {
	if f.blameFn != nil {
		return f.blameFn(ctx, absoluteFilePath)
	}
	return nil, nil
}

func newTestManager(t *testing.T, urls []string, runner vcsRunner) *RepoManager {
	t.Helper()
	pool, err := workerpool.New(workerpool.Config{MaxWorkers: 2, Logger: shared.NewNoOpLogger()})
	require.NoError(t, err)

	clones := clonetask.NewRegistry()
	for _, u := range urls {
		clones.InsertIfAbsent(u)
	}

	cfg := Config{Username: "user", Token: "tok"}
	cfg.setDefaults()

	return &RepoManager{
		cfg:    cfg,
		urls:   urls,
		clones: clones,
		tasks:  taskstatus.NewRegistry(),
		alloc:  workspace.NewAllocator(),
		runner: runner,
		client: githubapi.NewClientManager(),
		pool:   pool,
		logger: shared.NewNoOpLogger(),
	}
}

func TestNewWithConfig_PrepopulatesRegistryQueued(t *testing.T) {
	m, err := NewWithConfig([]string{"https://github.com/acme/widgets"}, Config{Username: "u", Token: "t", MaxWorkers: 1})
	require.NoError(t, err)
	defer m.Close()

	views := m.FetchCloneTasks()
	require.Contains(t, views, "https://github.com/acme/widgets")
	assert.Equal(t, "queued", views["https://github.com/acme/widgets"].StatusType)
}

func TestClone_IdempotentNoOpWhenCompleted(t *testing.T) {
	url := "https://github.com/acme/widgets"
	m := newTestManager(t, []string{url}, &fakeRunner{})
	defer m.pool.Release()

	require.NoError(t, m.clones.MarkCloning(url, "/tmp/x"))
	require.NoError(t, m.clones.MarkCompleted(url))

	require.NoError(t, m.Clone(context.Background(), url))
	m.Wait()

	views := m.FetchCloneTasks()
	assert.Equal(t, "completed", views[url].StatusType)
}

func TestClone_TransitionsToCompletedOnSuccess(t *testing.T) {
	url := "https://github.com/acme/widgets"
	m := newTestManager(t, []string{url}, &fakeRunner{})
	defer m.pool.Release()

	require.NoError(t, m.Clone(context.Background(), url))
	m.Wait()

	views := m.FetchCloneTasks()
	view := views[url]
	assert.Equal(t, "completed", view.StatusType)
	require.NotNil(t, view.TempDir)
	assert.Contains(t, *view.TempDir, "gitrepoanalyzer-")
}

func TestClone_MarksFailedOnSubprocessError(t *testing.T) {
	url := "https://github.com/acme/widgets"
	runner := &fakeRunner{cloneFn: func(ctx context.Context, url, dest string) ([]byte, error) {
		return nil, errors.New("exit status 128")
	}}
	m := newTestManager(t, []string{url}, runner)
	defer m.pool.Release()

	require.NoError(t, m.Clone(context.Background(), url))
	m.Wait()

	views := m.FetchCloneTasks()
	view := views[url]
	assert.Equal(t, "failed", view.StatusType)
	require.NotNil(t, view.Error)
	assert.Contains(t, *view.Error, "exit status 128")
}

func TestAnalyzeCommits_RequiresCompleted(t *testing.T) {
	url := "https://github.com/acme/widgets"
	m := newTestManager(t, []string{url}, &fakeRunner{})
	defer m.pool.Release()

	_, err := m.AnalyzeCommits(context.Background(), url)
	require.Error(t, err)
	var apiErr *apierrors.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierrors.StateViolation, apiErr.Kind)
}

func TestAnalyzeCommits_ParsesLogOutput(t *testing.T) {
	url := "https://github.com/acme/widgets"
	runner := &fakeRunner{logOutput: []byte("aaa|A|a@x|100|A|a@x|100|m|bbb ccc\n1\t2\tx.c\n")}
	m := newTestManager(t, []string{url}, runner)
	defer m.pool.Release()

	require.NoError(t, m.clones.MarkCloning(url, "/tmp/repo"))
	require.NoError(t, m.clones.MarkCompleted(url))

	commits, err := m.AnalyzeCommits(context.Background(), url)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "aaa", commits[0].SHA)
	assert.True(t, commits[0].IsMerge)
	assert.Equal(t, uint64(1), commits[0].Additions)
	assert.Equal(t, uint64(2), commits[0].Deletions)
}

func TestAnalyzeBranches_PerURLStateViolation(t *testing.T) {
	completedURL := "https://github.com/acme/widgets"
	queuedURL := "https://github.com/acme/other"
	runner := &fakeRunner{branchOut: []byte("refs/heads/main|abc|msg|A|a@x|100|*\n")}
	m := newTestManager(t, []string{completedURL, queuedURL}, runner)
	defer m.pool.Release()

	require.NoError(t, m.clones.MarkCloning(completedURL, "/tmp/repo"))
	require.NoError(t, m.clones.MarkCompleted(completedURL))

	results := m.AnalyzeBranches(context.Background(), []string{completedURL, queuedURL})

	require.NoError(t, results[completedURL].Err)
	require.Len(t, results[completedURL].Value, 1)
	assert.Equal(t, "main", results[completedURL].Value[0].Name)

	require.Error(t, results[queuedURL].Err)
	var apiErr *apierrors.Error
	require.True(t, errors.As(results[queuedURL].Err, &apiErr))
	assert.Equal(t, apierrors.StateViolation, apiErr.Kind)
}

func TestBulkBlame_RequiresRepoCompleted(t *testing.T) {
	url := "https://github.com/acme/widgets"
	m := newTestManager(t, []string{url}, &fakeRunner{})
	defer m.pool.Release()

	_, err := m.BulkBlame(context.Background(), url, []string{"a.go"})
	require.Error(t, err)
	var apiErr *apierrors.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierrors.StateViolation, apiErr.Kind)
}

func TestBulkBlame_PerFilePartialFailure(t *testing.T) {
	url := "https://github.com/acme/widgets"
	runner := &fakeRunner{blameFn: func(ctx context.Context, path string) ([]byte, error) {
		if path == "/tmp/repo/bad.go" {
			return nil, errors.New("no such path")
		}
		return []byte("Commit abc\nauthor Alice\nauthor-mail <a@x>\noriginal-line 4\nfinal-line 7\n\thello\n"), nil
	}}
	m := newTestManager(t, []string{url}, runner)
	defer m.pool.Release()

	require.NoError(t, m.clones.MarkCloning(url, "/tmp/repo"))
	require.NoError(t, m.clones.MarkCompleted(url))

	results, err := m.BulkBlame(context.Background(), url, []string{"good.go", "bad.go"})
	require.NoError(t, err)

	require.NoError(t, results["good.go"].Err)
	require.Len(t, results["good.go"].Value, 1)
	assert.Equal(t, "Alice", results["good.go"].Value[0].AuthorName)

	require.Error(t, results["bad.go"].Err)
}

func TestFetchCollaborators_InvalidURLProducesInvalidInputOutcome(t *testing.T) {
	m := newTestManager(t, nil, &fakeRunner{})
	defer m.pool.Release()

	results := m.FetchCollaborators(context.Background(), []string{"ftp://example.com/foo"})

	require.Error(t, results["ftp://example.com/foo"].Err)
	var apiErr *apierrors.Error
	require.True(t, errors.As(results["ftp://example.com/foo"].Err, &apiErr))
	assert.Equal(t, apierrors.InvalidInput, apiErr.Kind)
}

func TestFetchIssues_InvalidURLProducesInvalidInputOutcome(t *testing.T) {
	m := newTestManager(t, nil, &fakeRunner{})
	defer m.pool.Release()

	results := m.FetchIssues(context.Background(), []string{"not-a-url"}, "open")

	require.Error(t, results["not-a-url"].Err)
	var apiErr *apierrors.Error
	require.True(t, errors.As(results["not-a-url"].Err, &apiErr))
	assert.Equal(t, apierrors.InvalidInput, apiErr.Kind)
}
