package gitrepoanalyzer

import (
	"context"

	"github.com/italoag/gitrepoanalyzer/internal/apierrors"
	"github.com/italoag/gitrepoanalyzer/internal/fanout"
	"github.com/italoag/gitrepoanalyzer/internal/forge"
	"github.com/italoag/gitrepoanalyzer/internal/githubapi"
	"github.com/italoag/gitrepoanalyzer/internal/shared"
	"github.com/italoag/gitrepoanalyzer/internal/urlparse"
)

// FetchCollaborators fans out one collaborators fetch per URL, per the
// Bulk Fan-out contract of spec.md §4.H: a per-repo failure is captured as
// that URL's error entry rather than degrading the whole repo to an empty
// list. This differs from original_source/src/collaborators.rs, whose
// fetch_collaborators silently drops a repo's collaborators to an empty
// Vec on error — spec.md's Result<[Collaborator], error> contract, shared
// with fetch_issues/fetch_pull_requests/analyze_branches/bulk_blame, takes
// precedence (see DESIGN.md).
func (m *RepoManager) FetchCollaborators(ctx context.Context, urls []string) map[string]Outcome[[]forge.Collaborator] {
	client := m.githubClient()
	maxPages := m.cfg.MaxPages

	return fanout.Run(ctx, urls, func(ctx context.Context, url string) ([]forge.Collaborator, error) {
		owner, repo, ok := urlparse.Parse(url)
		if !ok {
			return nil, apierrors.Invalidf("cannot parse owner/repo from url %q", url)
		}
		collaborators, err := githubapi.FetchRepoCollaborators(ctx, client, owner, repo, maxPages)
		if err != nil {
			return nil, apierrors.Wrap(apierrors.TransportFailure, "failed to fetch collaborators", err)
		}
		return collaborators, nil
	})
}

// FetchIssues fans out one paginated issues fetch per URL, bounded by
// Config.MaxPages.
func (m *RepoManager) FetchIssues(ctx context.Context, urls []string, state string) map[string]Outcome[[]forge.Issue] {
	client := m.githubClient()
	maxPages := m.cfg.MaxPages

	return fanout.Run(ctx, urls, func(ctx context.Context, url string) ([]forge.Issue, error) {
		owner, repo, ok := urlparse.Parse(url)
		if !ok {
			return nil, apierrors.Invalidf("cannot parse owner/repo from url %q", url)
		}
		issues, err := githubapi.FetchRepoIssues(ctx, client, owner, repo, state, maxPages)
		if err != nil {
			return nil, apierrors.Wrap(apierrors.TransportFailure, "failed to fetch issues", err)
		}
		return issues, nil
	})
}

// FetchPullRequests fans out one paginated pull-request fetch (plus
// per-PR detail enrichment) per URL. A warm-up call to the rate-limit
// endpoint precedes the fan-out, matching
// original_source/src/providers/github/pull_requests.rs's fetch_pull_requests,
// which refreshes rate-info before spawning per-repo work.
func (m *RepoManager) FetchPullRequests(ctx context.Context, urls []string, state string, maxPages int) map[string]Outcome[[]forge.PullRequest] {
	client := m.githubClient()
	if err := client.FetchRateLimitStatus(ctx); err != nil {
		m.logger.Warn("rate limit warm-up failed", shared.ErrorField(err))
	}

	if maxPages <= 0 {
		maxPages = m.cfg.MaxPages
	}

	return fanout.Run(ctx, urls, func(ctx context.Context, url string) ([]forge.PullRequest, error) {
		owner, repo, ok := urlparse.Parse(url)
		if !ok {
			return nil, apierrors.Invalidf("cannot parse owner/repo from url %q", url)
		}
		prs, err := githubapi.FetchRepoPullRequests(ctx, client, owner, repo, state, maxPages)
		if err != nil {
			return nil, apierrors.Wrap(apierrors.TransportFailure, "failed to fetch pull requests", err)
		}
		return prs, nil
	})
}
