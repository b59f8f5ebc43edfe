// Package urlparse maps a repository URL to its (owner, slug) pair,
// grounded on original_source/src/github/commits.rs:extract_repo_name and
// the slug parsing used throughout original_source/src/collaborators.rs.
package urlparse

import "strings"

const (
	httpsPrefix = "https://github.com/"
	sshPrefix   = "git@github.com:"
)

// Parse extracts (owner, repo) from an https or ssh GitHub URL. It returns
// ok=false for anything else, including other hosts and malformed input.
func Parse(url string) (owner, repo string, ok bool) {
	var rest string
	switch {
	case strings.HasPrefix(url, httpsPrefix):
		rest = strings.TrimPrefix(url, httpsPrefix)
	case strings.HasPrefix(url, sshPrefix):
		rest = strings.TrimPrefix(url, sshPrefix)
	default:
		return "", "", false
	}

	parts := strings.Split(rest, "/")
	if len(parts) < 2 {
		return "", "", false
	}

	owner = parts[0]
	repo = strings.TrimSuffix(parts[1], ".git")
	if owner == "" || repo == "" {
		return "", "", false
	}
	return owner, repo, true
}

// Slug returns "owner/repo" for a parseable URL, or "" with ok=false.
func Slug(url string) (slug string, ok bool) {
	owner, repo, ok := Parse(url)
	if !ok {
		return "", false
	}
	return owner + "/" + repo, true
}
