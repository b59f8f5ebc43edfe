// Package fanout runs one operation per URL concurrently and joins the
// results, preserving partial failure: a failure for one URL never stops
// or fails the others. Grounded on original_source/src/collaborators.rs
// (per-repo tokio::spawn + join) and original_source/src/github/branches.rs
// (HashMap<String, Result<...>> merge), using golang.org/x/sync/errgroup
// the way github.com/Gizzahub/gzh-cli-gitforge depends on it, as a
// wait-group-with-capture rather than a stop-on-first-error gate.
package fanout

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Result is the per-URL outcome: exactly one of Value or Err is set.
type Result[T any] struct {
	Value T
	Err   error
}

// Run invokes fn(ctx, url) for every url concurrently and returns a
// {url -> Result} map. A panic or error from one fn call never aborts the
// others: errgroup.Group here only joins completion, it never cancels on
// first error since every goroutine's error is captured into its own
// Result instead of returned to the group.
func Run[T any](ctx context.Context, urls []string, fn func(ctx context.Context, url string) (T, error)) map[string]Result[T] {
	results := make(map[string]Result[T], len(urls))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, url := range urls {
		url := url
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					results[url] = Result[T]{Err: fmt.Errorf("fanout: task for %s panicked: %v", url, r)}
					mu.Unlock()
				}
			}()
			value, err := fn(gctx, url)
			mu.Lock()
			results[url] = Result[T]{Value: value, Err: err}
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// InitFailure maps every URL to the same initialization error, used when a
// precondition shared by the whole batch (e.g. client construction) fails
// before any per-URL work could start.
func InitFailure[T any](urls []string, err error) map[string]Result[T] {
	results := make(map[string]Result[T], len(urls))
	for _, url := range urls {
		results[url] = Result[T]{Err: err}
	}
	return results
}

// Values extracts the successful values from a Result map, dropping
// entries that failed, for callers that treat a per-URL failure as "no
// data" rather than surfacing the error.
func Values[T any](results map[string]Result[T]) map[string]T {
	out := make(map[string]T, len(results))
	for url, r := range results {
		if r.Err == nil {
			out[url] = r.Value
		}
	}
	return out
}
