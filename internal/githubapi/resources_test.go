package githubapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResourceServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The longest matching prefix wins, so "/pulls/7" is not served by "/pulls".
		best := ""
		for prefix := range routes {
			if strings.HasPrefix(r.URL.Path, prefix) && len(prefix) > len(best) {
				best = prefix
			}
		}
		if best != "" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(routes[best]))
			return
		}
		t.Fatalf("unexpected path %s", r.URL.Path)
	}))
}

func TestFetchRepoCollaborators_EnrichesEachLogin(t *testing.T) {
	srv := newResourceServer(t, map[string]string{
		"/repos/acme/widgets/collaborators": `[{"login":"jane"},{"login":"bob"}]`,
		"/users/jane":                       `{"login":"jane","id":1,"name":"Jane Dev","email":"jane@example.com","avatar_url":"http://x/jane.png"}`,
		"/users/bob":                        `{"login":"bob","id":2,"name":"Bob Dev"}`,
	})
	defer srv.Close()

	client := NewRateLimitedClient("t", 4, nil)
	collaborators, err := fetchRepoCollaboratorsAt(context.Background(), client, srv.URL, "acme", "widgets", 0)
	require.NoError(t, err)
	require.Len(t, collaborators, 2)
	assert.Equal(t, "Jane Dev", collaborators[0].FullName)
	assert.Equal(t, int64(2), collaborators[1].GithubID)
}

func TestFetchRepoCollaborators_FollowsMultiplePages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(r.URL.Path, "/users/") {
			login := strings.TrimPrefix(r.URL.Path, "/users/")
			w.Write([]byte(`{"login":"` + login + `"}`))
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		switch page {
		case 1:
			body := `[`
			for i := 0; i < perPage; i++ {
				if i > 0 {
					body += ","
				}
				body += `{"login":"u` + strconv.Itoa(i) + `"}`
			}
			body += `]`
			w.Write([]byte(body))
		case 2:
			w.Write([]byte(`[{"login":"last"}]`))
		default:
			t.Fatalf("unexpected page %d", page)
		}
	}))
	defer srv.Close()

	client := NewRateLimitedClient("t", 4, nil)
	collaborators, err := fetchRepoCollaboratorsAt(context.Background(), client, srv.URL, "acme", "widgets", 0)
	require.NoError(t, err)
	assert.Len(t, collaborators, perPage+1)
}

func TestFetchRepoIssues_FlagsPullRequests(t *testing.T) {
	srv := newResourceServer(t, map[string]string{
		"/repos/acme/widgets/issues": `[
			{"id":1,"number":10,"title":"bug","state":"open","created_at":"t","updated_at":"t","user":{"login":"jane","id":1},"comments":2,"labels":[{"name":"bug"}],"assignees":[],"locked":false,"html_url":"u"},
			{"id":2,"number":11,"title":"pr-as-issue","state":"open","created_at":"t","updated_at":"t","user":{"login":"bob","id":2},"pull_request":{"url":"x"},"labels":[],"assignees":[],"locked":false,"html_url":"u"}
		]`,
	})
	defer srv.Close()

	client := NewRateLimitedClient("t", 4, nil)
	issues, err := fetchRepoIssuesAt(context.Background(), client, srv.URL, "acme", "widgets", "", 0)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.False(t, issues[0].IsPullRequest)
	assert.True(t, issues[1].IsPullRequest)
}

func TestFetchRepoIssues_RespectsMaxPagesCap(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		body := `[`
		for i := 0; i < perPage; i++ {
			if i > 0 {
				body += ","
			}
			body += `{"id":` + strconv.Itoa(page*1000+i) + `,"number":` + strconv.Itoa(i) + `,"title":"t","state":"open","created_at":"t","updated_at":"t","user":{"login":"u","id":1},"labels":[],"assignees":[],"locked":false,"html_url":"u"}`
		}
		body += `]`
		w.Write([]byte(body))
	}))
	defer srv.Close()

	client := NewRateLimitedClient("t", 4, nil)
	issues, err := fetchRepoIssuesAt(context.Background(), client, srv.URL, "acme", "widgets", "", 2)
	require.NoError(t, err)
	assert.Len(t, issues, perPage*2)
	assert.Equal(t, 2, calls)
}

func TestFetchRepoPullRequests_EnrichesWithDetail(t *testing.T) {
	srv := newResourceServer(t, map[string]string{
		"/repos/acme/widgets/pulls/7": `{"mergeable":true,"merged":true,"comments":3,"commits":2,"additions":10,"deletions":4,"changed_files":2}`,
		"/repos/acme/widgets/pulls":   `[{"id":1,"number":7,"title":"feature","state":"closed","created_at":"t","updated_at":"t","merged_at":"t","user":{"login":"jane","id":1},"draft":false,"labels":[]}]`,
	})
	defer srv.Close()

	client := NewRateLimitedClient("t", 4, nil)
	prs, err := fetchRepoPullRequestsAt(context.Background(), client, srv.URL, "acme", "widgets", "", 0)
	require.NoError(t, err)
	require.Len(t, prs, 1)
	assert.Equal(t, 3, prs[0].Comments)
	assert.True(t, prs[0].Merged)
}
