package githubapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/italoag/gitrepoanalyzer/internal/forge"
)

type issueUserJSON struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
}

type issueLabelJSON struct {
	Name string `json:"name"`
}

type issueMilestoneJSON struct {
	Title string `json:"title"`
}

type issueJSON struct {
	ID          int64               `json:"id"`
	Number      int                 `json:"number"`
	Title       string              `json:"title"`
	State       string              `json:"state"`
	CreatedAt   string              `json:"created_at"`
	UpdatedAt   string              `json:"updated_at"`
	ClosedAt    string              `json:"closed_at"`
	User        issueUserJSON       `json:"user"`
	Body        string              `json:"body"`
	Comments    int                 `json:"comments"`
	Labels      []issueLabelJSON    `json:"labels"`
	Assignees   []issueUserJSON     `json:"assignees"`
	Milestone   *issueMilestoneJSON `json:"milestone"`
	Locked      bool                `json:"locked"`
	HTMLURL     string              `json:"html_url"`
	PullRequest json.RawMessage     `json:"pull_request"`
}

// FetchRepoIssues paginates a repository's issues, grounded on
// original_source/src/github/issues.rs:fetch_repo_issues for the record
// shape and on providers/github/{collaborators,pull_requests}.rs for the
// ?per_page=100&page=N loop, which the plain github/issues.rs lacks but
// spec.md §4.G requires of every list endpoint. state defaults to "all"
// when empty, matching the original's Option<&str> default.
func FetchRepoIssues(ctx context.Context, client *RateLimitedClient, owner, repo, state string, maxPages int) ([]forge.Issue, error) {
	return fetchRepoIssuesAt(ctx, client, apiBaseURL, owner, repo, state, maxPages)
}

func fetchRepoIssuesAt(ctx context.Context, client *RateLimitedClient, base, owner, repo, state string, maxPages int) ([]forge.Issue, error) {
	if state == "" {
		state = "all"
	}
	listURL := fmt.Sprintf("%s/repos/%s/%s/issues?state=%s", base, owner, repo, state)

	raw, err := Paginate[issueJSON](ctx, client, listURL, maxPages, DecodeJSONArray[issueJSON])
	if err != nil {
		return nil, fmt.Errorf("githubapi: failed to fetch issues: %w", err)
	}

	issues := make([]forge.Issue, 0, len(raw))
	for _, r := range raw {
		labels := make([]string, 0, len(r.Labels))
		for _, l := range r.Labels {
			labels = append(labels, l.Name)
		}
		assignees := make([]string, 0, len(r.Assignees))
		for _, a := range r.Assignees {
			assignees = append(assignees, a.Login)
		}
		milestone := ""
		if r.Milestone != nil {
			milestone = r.Milestone.Title
		}

		issues = append(issues, forge.Issue{
			ID:            r.ID,
			Number:        r.Number,
			Title:         r.Title,
			State:         r.State,
			CreatedAt:     r.CreatedAt,
			UpdatedAt:     r.UpdatedAt,
			ClosedAt:      r.ClosedAt,
			UserLogin:     r.User.Login,
			UserID:        r.User.ID,
			Body:          r.Body,
			CommentsCount: r.Comments,
			IsPullRequest: len(r.PullRequest) > 0,
			Labels:        labels,
			Assignees:     assignees,
			Milestone:     milestone,
			Locked:        r.Locked,
			HTMLURL:       r.HTMLURL,
		})
	}
	return issues, nil
}
