// Package githubapi is a rate-limit aware GitHub REST v3 client, grounded
// on original_source/src/providers/github/client.rs (request lifecycle,
// adaptive concurrency, retry-with-backoff) and the teacher's
// internal/infrastructure/github/client.go (hand-rolled net/http, header
// conventions, status-code handling).
package githubapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/italoag/gitrepoanalyzer/internal/forge"
	"github.com/italoag/gitrepoanalyzer/internal/shared"
)

const (
	acceptHeader  = "application/vnd.github.v3+json"
	userAgentBase = "gitrepoanalyzer-github-client"
	apiBaseURL    = "https://api.github.com"
)

// Clock abstracts wall-clock time so rate-limit gating is deterministic
// under test, mirroring the teacher's constructor-injection style.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// RealClock delegates to the time package.
type RealClock struct{}

func (RealClock) Now() time.Time       { return time.Now() }
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }

type etagCache struct {
	mu    sync.Mutex
	etags map[string]string
}

func newETagCache() *etagCache {
	return &etagCache{etags: make(map[string]string)}
}

func (c *etagCache) get(url string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.etags[url]
	return v, ok
}

func (c *etagCache) set(url, etag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.etags[url] = etag
}

type rateInfoBox struct {
	mu   sync.Mutex
	info forge.RateLimitInfo
}

func (b *rateInfoBox) get() forge.RateLimitInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.info
}

func (b *rateInfoBox) set(info forge.RateLimitInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.info = info
}

// RateLimitedClient wraps an *http.Client with GitHub-specific
// rate-limit gating: a weighted semaphore bounds concurrency, an ETag
// cache drives conditional requests, and adapt_concurrency may add permits
// as the remaining quota recovers (it never removes any).
type RateLimitedClient struct {
	httpClient    *http.Client
	token         string
	maxConcurrent int64
	sem           *semaphore.Weighted
	semMu         sync.Mutex
	semCeiling    int64
	etags         *etagCache
	rateInfo      *rateInfoBox
	clock         Clock
	logger        shared.Logger
	rateLimitURL  string
}

// NewRateLimitedClient builds a client authenticated with token, admitting
// at most maxConcurrent in-flight requests.
func NewRateLimitedClient(token string, maxConcurrent int64, logger shared.Logger) *RateLimitedClient {
	if logger == nil {
		logger = shared.NewNoOpLogger()
	}
	now := time.Now()
	return &RateLimitedClient{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		token:         token,
		maxConcurrent: maxConcurrent,
		sem:           semaphore.NewWeighted(maxConcurrent),
		semCeiling:    maxConcurrent,
		etags:         newETagCache(),
		rateInfo: &rateInfoBox{info: forge.RateLimitInfo{
			Limit:       5000,
			Remaining:   5000,
			ResetTime:   now.Add(time.Hour).Unix(),
			LastUpdated: now,
			Resource:    "core",
		}},
		clock:        RealClock{},
		logger:       logger,
		rateLimitURL: apiBaseURL + "/rate_limit",
	}
}

// RateInfo returns the most recently observed rate-limit snapshot.
func (c *RateLimitedClient) RateInfo() forge.RateLimitInfo {
	return c.rateInfo.get()
}

func (c *RateLimitedClient) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("githubapi: failed to build request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", userAgentBase+"/1.0")
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}
	return req, nil
}

// Get issues a rate-limit aware GET, gated by ETag conditioning, the
// concurrency semaphore, and the proactive reset wait.
func (c *RateLimitedClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}

	if etag, ok := c.etags.get(url); ok {
		req.Header.Set("If-None-Match", etag)
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("githubapi: failed to acquire concurrency permit: %w", err)
	}
	defer c.sem.Release(1)

	c.waitIfRateLimited(ctx)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if etag := resp.Header.Get("Etag"); etag != "" {
		c.etags.set(url, etag)
	}
	c.updateRateInfoFromResponse(resp)
	c.adaptConcurrency()

	return resp, nil
}

// waitIfRateLimited mirrors wait_if_rate_limited: when <=10 requests
// remain and the reset time is still ahead, block until reset+1s, then
// refresh from the live rate_limit endpoint.
func (c *RateLimitedClient) waitIfRateLimited(ctx context.Context) {
	info := c.rateInfo.get()
	if info.Remaining > 10 {
		return
	}
	now := c.clock.Now().Unix()
	if info.ResetTime <= now {
		return
	}
	wait := time.Duration(info.ResetTime-now+1) * time.Second
	c.logger.Info("rate limit almost reached, waiting for reset",
		shared.DurationField("wait", wait))
	c.clock.Sleep(wait)
	_ = c.FetchRateLimitStatus(ctx)
}

func (c *RateLimitedClient) updateRateInfoFromResponse(resp *http.Response) {
	limit, lok := parseHeaderInt(resp.Header.Get("X-RateLimit-Limit"))
	remaining, rok := parseHeaderInt(resp.Header.Get("X-RateLimit-Remaining"))
	reset, xok := parseHeaderInt64(resp.Header.Get("X-RateLimit-Reset"))
	if !lok || !rok || !xok {
		return
	}
	resource := resp.Header.Get("X-RateLimit-Resource")
	if resource == "" {
		resource = "core"
	}
	c.rateInfo.set(forge.RateLimitInfo{
		Limit:       limit,
		Remaining:   remaining,
		ResetTime:   reset,
		LastUpdated: c.clock.Now(),
		Resource:    resource,
	})
	if remaining < 100 {
		c.logger.Warn("rate limit getting low",
			shared.IntField("remaining", remaining),
			shared.IntField("limit", limit))
	}
}

// adaptConcurrency mirrors adapt_concurrency's permit-shedding curve.
// Permits are only ever added here, never revoked, and every request
// releases the one permit it acquired, so the concurrency limit never
// drops below its current ceiling. The ceiling starts at maxConcurrent and
// ideal never exceeds it, so for maxConcurrent >= 1 this changes nothing.
func (c *RateLimitedClient) adaptConcurrency() {
	info := c.rateInfo.get()

	var ideal int64
	switch {
	case info.Remaining <= 10:
		ideal = 1
	case info.Remaining <= 100:
		ideal = c.maxConcurrent / 4
	case info.Remaining <= 1000:
		ideal = c.maxConcurrent / 2
	default:
		ideal = c.maxConcurrent
	}
	if ideal < 1 {
		ideal = 1
	}

	// golang.org/x/sync/semaphore exposes no available-permit introspection,
	// so growth is tracked with a local high-water mark instead of reading
	// back a live counter.
	c.growSemaphoreTo(ideal)
}

func (c *RateLimitedClient) growSemaphoreTo(ideal int64) {
	c.semMu.Lock()
	defer c.semMu.Unlock()
	if ideal <= c.semCeiling {
		return
	}
	delta := ideal - c.semCeiling
	c.sem.Release(delta)
	c.semCeiling = ideal
}

func parseHeaderInt(v string) (int, bool) {
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseHeaderInt64(v string) (int64, bool) {
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
