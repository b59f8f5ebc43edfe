package gitrepoanalyzer

import (
	"context"
	"path/filepath"

	"github.com/italoag/gitrepoanalyzer/internal/apierrors"
	"github.com/italoag/gitrepoanalyzer/internal/fanout"
	"github.com/italoag/gitrepoanalyzer/internal/gitcli"
	"github.com/italoag/gitrepoanalyzer/internal/urlparse"
	"github.com/italoag/gitrepoanalyzer/internal/vcsrecord"
	"github.com/italoag/gitrepoanalyzer/internal/workerpool"
)

// AnalyzeCommits requires url to be Completed, runs `git log --numstat` and
// its parse on the blocking pool, and returns commits in log order, per
// spec.md §4.I. StateViolation/InvalidInput are surfaced as the outer
// error, matching the original's single-target error propagation.
func (m *RepoManager) AnalyzeCommits(ctx context.Context, url string) ([]vcsrecord.Commit, error) {
	repoPath, err := m.clones.PathIfCompleted(url)
	if err != nil {
		return nil, apierrors.StateViolationf("repository %s is not in a completed state: %v", url, err)
	}

	slug, ok := urlparse.Slug(url)
	if !ok {
		return nil, apierrors.Invalidf("cannot derive repository name from url %q", url)
	}

	return workerpool.Submit(ctx, m.pool, func() ([]vcsrecord.Commit, error) {
		output, err := m.runner.Log(ctx, repoPath)
		if err != nil {
			return nil, apierrors.Wrap(apierrors.SubprocessFailure, "git log failed", err)
		}
		return gitcli.ParseCommitLog(output, slug), nil
	})
}

// AnalyzeBranches requires each URL to be Completed independently; URLs not
// in that state produce a per-URL StateViolation entry rather than failing
// the whole call, per spec.md §4.I.
func (m *RepoManager) AnalyzeBranches(ctx context.Context, urls []string) map[string]Outcome[[]vcsrecord.Branch] {
	paths, errs := m.clones.PathsIfCompleted(urls)

	results := make(map[string]Outcome[[]vcsrecord.Branch], len(urls))
	for url, err := range errs {
		results[url] = Outcome[[]vcsrecord.Branch]{
			Err: apierrors.StateViolationf("repository %s is not in a completed state: %v", url, err),
		}
	}

	completed := make([]string, 0, len(paths))
	for url := range paths {
		completed = append(completed, url)
	}

	fanResults := fanout.Run(ctx, completed, func(ctx context.Context, url string) ([]vcsrecord.Branch, error) {
		repoPath := paths[url]
		return workerpool.Submit(ctx, m.pool, func() ([]vcsrecord.Branch, error) {
			output, err := m.runner.Branches(ctx, repoPath)
			if err != nil {
				return nil, apierrors.Wrap(apierrors.SubprocessFailure, "git branch failed", err)
			}
			return gitcli.ParseBranches(output), nil
		})
	})
	for url, r := range fanResults {
		results[url] = r
	}
	return results
}

// BulkBlame requires url itself to be Completed (an outer error otherwise);
// per-file blame failures are captured in the returned map instead, per
// spec.md §4.I.
func (m *RepoManager) BulkBlame(ctx context.Context, url string, filePaths []string) (map[string]Outcome[[]vcsrecord.BlameLine], error) {
	repoPath, err := m.clones.PathIfCompleted(url)
	if err != nil {
		return nil, apierrors.StateViolationf("repository %s is not in a completed state: %v", url, err)
	}

	results := fanout.Run(ctx, filePaths, func(ctx context.Context, filePath string) ([]vcsrecord.BlameLine, error) {
		absolutePath := filepath.Join(repoPath, filePath)
		return workerpool.Submit(ctx, m.pool, func() ([]vcsrecord.BlameLine, error) {
			output, err := m.runner.Blame(ctx, absolutePath)
			if err != nil {
				return nil, apierrors.Wrap(apierrors.SubprocessFailure, "git blame failed", err)
			}
			return gitcli.ParseBlamePorcelain(output), nil
		})
	})
	return results, nil
}
