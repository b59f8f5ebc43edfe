package githubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const perPage = 100

// PageFunc decodes one page's JSON array body into typed items.
type PageFunc[T any] func(body []byte) ([]T, error)

// pageURL appends per_page/page to baseURL, joining with "&" if baseURL
// already carries a query string (e.g. "...?state=open") and "?" otherwise.
func pageURL(baseURL string, page int) string {
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%sper_page=%d&page=%d", baseURL, sep, perPage, page)
}

// Paginate drives ?per_page=100&page=N against baseURL, stopping when a
// page is empty, returns fewer than perPage items, or maxPages is reached.
// A 304 Not Modified page is skipped (not a terminator): it advances to the
// next page, still honoring the page cap. maxPages <= 0 means unbounded.
func Paginate[T any](ctx context.Context, client *RateLimitedClient, baseURL string, maxPages int, decode PageFunc[T]) ([]T, error) {
	var all []T

	for page := 1; maxPages <= 0 || page <= maxPages; page++ {
		url := pageURL(baseURL, page)

		resp, err := client.GetWithRetry(ctx, url, 5)
		if err != nil {
			return all, fmt.Errorf("githubapi: page %d request failed: %w", page, err)
		}

		if resp.StatusCode == http.StatusNotModified {
			drainAndClose(resp.Body)
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return all, &StatusError{URL: url, StatusCode: resp.StatusCode, Body: string(body)}
		}

		items, err := decode(body)
		if err != nil {
			return all, fmt.Errorf("githubapi: page %d decode failed: %w", page, err)
		}

		all = append(all, items...)

		if len(items) == 0 || len(items) < perPage {
			break
		}
	}

	return all, nil
}

// DecodeJSONArray is the common PageFunc for endpoints returning a bare
// JSON array, which every GitHub list endpoint used here does.
func DecodeJSONArray[T any](body []byte) ([]T, error) {
	var items []T
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// StatusError reports a non-2xx, non-304 GitHub API response.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("githubapi: %s returned status %d: %s", e.URL, e.StatusCode, e.Body)
}
