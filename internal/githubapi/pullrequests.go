package githubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/italoag/gitrepoanalyzer/internal/fanout"
	"github.com/italoag/gitrepoanalyzer/internal/forge"
)

type pullRequestBasicJSON struct {
	ID        int64            `json:"id"`
	Number    int              `json:"number"`
	Title     string           `json:"title"`
	State     string           `json:"state"`
	CreatedAt string           `json:"created_at"`
	UpdatedAt string           `json:"updated_at"`
	ClosedAt  string           `json:"closed_at"`
	MergedAt  string           `json:"merged_at"`
	User      issueUserJSON    `json:"user"`
	Body      string           `json:"body"`
	Draft     bool             `json:"draft"`
	Labels    []issueLabelJSON `json:"labels"`
}

type pullRequestDetailJSON struct {
	Mergeable    *bool          `json:"mergeable"`
	Merged       bool           `json:"merged"`
	MergedBy     *issueUserJSON `json:"merged_by"`
	Comments     int            `json:"comments"`
	Commits      int            `json:"commits"`
	Additions    int            `json:"additions"`
	Deletions    int            `json:"deletions"`
	ChangedFiles int            `json:"changed_files"`
}

// FetchRepoPullRequests paginates a repository's pull requests and
// enriches each with its per-PR detail endpoint, grounded on
// original_source/src/providers/github/pull_requests.rs. The detail fetch
// for each PR runs concurrently via fanout.Run, a supplement over the
// original's sequential for-loop.
func FetchRepoPullRequests(ctx context.Context, client *RateLimitedClient, owner, repo, state string, maxPages int) ([]forge.PullRequest, error) {
	return fetchRepoPullRequestsAt(ctx, client, apiBaseURL, owner, repo, state, maxPages)
}

func fetchRepoPullRequestsAt(ctx context.Context, client *RateLimitedClient, base, owner, repo, state string, maxPages int) ([]forge.PullRequest, error) {
	if state == "" {
		state = "all"
	}
	listURL := fmt.Sprintf("%s/repos/%s/%s/pulls?state=%s", base, owner, repo, state)

	basics, err := Paginate[pullRequestBasicJSON](ctx, client, listURL, maxPages, DecodeJSONArray[pullRequestBasicJSON])
	if err != nil {
		return nil, fmt.Errorf("githubapi: failed to fetch pull requests: %w", err)
	}
	if len(basics) == 0 {
		return nil, nil
	}

	keys := make([]string, len(basics))
	byKey := make(map[string]pullRequestBasicJSON, len(basics))
	for i, b := range basics {
		key := strconv.Itoa(b.Number)
		keys[i] = key
		byKey[key] = b
	}

	detailResults := fanout.Run(ctx, keys, func(ctx context.Context, key string) (forge.PullRequest, error) {
		b := byKey[key]
		return fetchPRDetail(ctx, client, base, owner, repo, b)
	})

	prs := make([]forge.PullRequest, 0, len(basics))
	for _, key := range keys {
		r := detailResults[key]
		if r.Err != nil {
			prs = append(prs, degradedPullRequest(byKey[key]))
			continue
		}
		prs = append(prs, r.Value)
	}
	return prs, nil
}

func fetchPRDetail(ctx context.Context, client *RateLimitedClient, base, owner, repo string, b pullRequestBasicJSON) (forge.PullRequest, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", base, owner, repo, b.Number)

	resp, err := client.GetWithRetry(ctx, url, 3)
	if err != nil {
		return forge.PullRequest{}, err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return forge.PullRequest{}, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	var d pullRequestDetailJSON
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return forge.PullRequest{}, err
	}

	mergedBy := ""
	if d.MergedBy != nil {
		mergedBy = d.MergedBy.Login
	}

	return forge.PullRequest{
		ID:           b.ID,
		Number:       b.Number,
		Title:        b.Title,
		State:        b.State,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
		ClosedAt:     b.ClosedAt,
		MergedAt:     b.MergedAt,
		UserLogin:    b.User.Login,
		UserID:       b.User.ID,
		Body:         b.Body,
		Comments:     d.Comments,
		Commits:      d.Commits,
		Additions:    d.Additions,
		Deletions:    d.Deletions,
		ChangedFiles: d.ChangedFiles,
		Mergeable:    d.Mergeable,
		Labels:       labelNames(b.Labels),
		Draft:        b.Draft,
		Merged:       d.Merged,
		MergedBy:     mergedBy,
	}, nil
}

// degradedPullRequest builds a PullRequest from list data alone, used when
// the per-PR detail fetch fails, matching the original's degrade-not-drop
// behavior in fetch_repo_pull_requests.
func degradedPullRequest(b pullRequestBasicJSON) forge.PullRequest {
	return forge.PullRequest{
		ID:        b.ID,
		Number:    b.Number,
		Title:     b.Title,
		State:     b.State,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
		ClosedAt:  b.ClosedAt,
		MergedAt:  b.MergedAt,
		UserLogin: b.User.Login,
		UserID:    b.User.ID,
		Body:      b.Body,
		Labels:    labelNames(b.Labels),
		Draft:     b.Draft,
		Merged:    b.MergedAt != "",
	}
}

func labelNames(labels []issueLabelJSON) []string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, l.Name)
	}
	return names
}
