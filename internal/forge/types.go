// Package forge holds the remote collaboration record types that mirror
// the GitHub v3 REST API, grounded on spec.md §6 and
// original_source/src/common/types.rs (CollaboratorInfo, IssueInfo,
// PullRequestInfo) and original_source/src/providers/github/client.rs
// (RateLimitInfo).
package forge

import "time"

// Collaborator mirrors the GitHub collaborators + user-details endpoints.
type Collaborator struct {
	Login     string
	GithubID  int64
	FullName  string
	Email     string
	AvatarURL string
}

// Issue mirrors the GitHub issues endpoint. Issues that carry a
// pull_request member are flagged IsPullRequest per spec.md §6.
type Issue struct {
	ID              int64
	Number          int
	Title           string
	State           string
	CreatedAt       string
	UpdatedAt       string
	ClosedAt        string
	UserLogin       string
	UserID          int64
	Body            string
	CommentsCount   int
	IsPullRequest   bool
	Labels          []string
	Assignees       []string
	Milestone       string
	Locked          bool
	HTMLURL         string
}

// PullRequest mirrors the GitHub pulls + pulls/{number} endpoints, the
// latter supplying the aggregate stats (comments, commits, additions,
// deletions, changed_files, mergeable, merged, merged_by).
type PullRequest struct {
	ID           int64
	Number       int
	Title        string
	State        string
	CreatedAt    string
	UpdatedAt    string
	ClosedAt     string
	MergedAt     string
	UserLogin    string
	UserID       int64
	Body         string
	Comments     int
	Commits      int
	Additions    int
	Deletions    int
	ChangedFiles int
	Mergeable    *bool
	Labels       []string
	Draft        bool
	Merged       bool
	MergedBy     string
}

// RateLimitInfo is the triple returned by the forge's rate-limit headers
// plus the /rate_limit resource, protected by its own mutex in the client
// (spec.md §3/§4.F).
type RateLimitInfo struct {
	Limit       int
	Remaining   int
	ResetTime   int64 // unix seconds
	LastUpdated time.Time
	Resource    string
}
