package githubapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/italoag/gitrepoanalyzer/internal/forge"
)

type collaboratorBasicJSON struct {
	Login string `json:"login"`
}

type userDetailJSON struct {
	Login     string `json:"login"`
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// FetchRepoCollaborators paginates a repository's collaborators and
// enriches each with user-detail lookups, grounded on
// original_source/src/providers/github/collaborators.rs:fetch_repo_collaborators
// (the per-page ?per_page=100&page=N loop). A collaborator whose detail
// lookup fails is kept with zero-value detail fields rather than dropped,
// matching the original's degrade-not-drop behavior.
func FetchRepoCollaborators(ctx context.Context, client *RateLimitedClient, owner, repo string, maxPages int) ([]forge.Collaborator, error) {
	return fetchRepoCollaboratorsAt(ctx, client, apiBaseURL, owner, repo, maxPages)
}

func fetchRepoCollaboratorsAt(ctx context.Context, client *RateLimitedClient, base, owner, repo string, maxPages int) ([]forge.Collaborator, error) {
	listURL := fmt.Sprintf("%s/repos/%s/%s/collaborators", base, owner, repo)

	basics, err := Paginate[collaboratorBasicJSON](ctx, client, listURL, maxPages, DecodeJSONArray[collaboratorBasicJSON])
	if err != nil {
		return nil, fmt.Errorf("githubapi: failed to fetch collaborators: %w", err)
	}

	collaborators := make([]forge.Collaborator, 0, len(basics))
	for _, b := range basics {
		detail, err := fetchUserDetails(ctx, client, base, b.Login)
		if err != nil {
			collaborators = append(collaborators, forge.Collaborator{Login: b.Login})
			continue
		}
		collaborators = append(collaborators, detail)
	}
	return collaborators, nil
}

func fetchUserDetails(ctx context.Context, client *RateLimitedClient, base, username string) (forge.Collaborator, error) {
	url := fmt.Sprintf("%s/users/%s", base, username)

	resp, err := client.GetWithRetry(ctx, url, 3)
	if err != nil {
		return forge.Collaborator{}, err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return forge.Collaborator{}, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	var u userDetailJSON
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return forge.Collaborator{}, err
	}
	return forge.Collaborator{
		Login:     u.Login,
		GithubID:  u.ID,
		FullName:  u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	}, nil
}
