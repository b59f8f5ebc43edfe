package githubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/italoag/gitrepoanalyzer/internal/forge"
	"github.com/italoag/gitrepoanalyzer/internal/shared"
)

type rateLimitResourceJSON struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
}

type rateLimitResponseJSON struct {
	Resources struct {
		Core   rateLimitResourceJSON `json:"core"`
		Search rateLimitResourceJSON `json:"search"`
	} `json:"resources"`
}

// FetchRateLimitStatus refreshes the client's rate-limit snapshot directly
// from /rate_limit, independent of any ambient request's headers.
func (c *RateLimitedClient) FetchRateLimitStatus(ctx context.Context) error {
	resp, err := c.Get(ctx, c.rateLimitURL)
	if err != nil {
		return fmt.Errorf("githubapi: failed to fetch rate limit status: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil
	}

	var parsed rateLimitResponseJSON
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("githubapi: failed to decode rate limit response: %w", err)
	}

	c.rateInfo.set(forgeRateLimitFromCore(parsed.Resources.Core, c.clock.Now()))
	return nil
}

// GetWithRetry issues a GET and retries on rate-limit signals, mirroring
// execute_with_retry: a 304 is treated as success; a 403/429 with a numeric
// Retry-After sleeps that long and retries; a 403 with
// X-RateLimit-Remaining 0 backs off exponentially and retries; any other
// 403/429 and any other status is returned as-is. Transport errors retry
// with the same exponential backoff, up to maxRetries attempts in total.
func (c *RateLimitedClient) GetWithRetry(ctx context.Context, url string, maxRetries int) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := c.Get(ctx, url)
		if err != nil {
			lastErr = err
			c.sleepBackoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusNotModified {
			return resp, nil
		}

		if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				if seconds, err := strconv.Atoi(retryAfter); err == nil {
					drainAndClose(resp.Body)
					c.logger.Info("rate limited, honoring retry-after",
						shared.IntField("seconds", seconds))
					c.clock.Sleep(time.Duration(seconds) * time.Second)
					continue
				}
			}

			exhausted := resp.StatusCode == http.StatusForbidden && remainingIsZero(resp)
			if exhausted {
				drainAndClose(resp.Body)
				c.sleepBackoff(ctx, attempt)
				continue
			}

			return resp, nil
		}

		return resp, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("githubapi: exhausted %d retries for %s", maxRetries, url)
}

func remainingIsZero(resp *http.Response) bool {
	remaining, ok := parseHeaderInt(resp.Header.Get("X-RateLimit-Remaining"))
	return ok && remaining == 0
}

func (c *RateLimitedClient) sleepBackoff(ctx context.Context, attempt int) {
	backoff := time.Duration(1<<uint(attempt+1)) * time.Second
	c.logger.Info("backing off before retry", shared.DurationField("backoff", backoff))
	select {
	case <-ctx.Done():
	default:
		c.clock.Sleep(backoff)
	}
}

func forgeRateLimitFromCore(core rateLimitResourceJSON, now time.Time) forge.RateLimitInfo {
	return forge.RateLimitInfo{
		Limit:       core.Limit,
		Remaining:   core.Remaining,
		ResetTime:   core.Reset,
		LastUpdated: now,
		Resource:    "core",
	}
}
