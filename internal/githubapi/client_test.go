package githubapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now     time.Time
	slept   []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
}

func TestRateLimitedClient_SendsStandardHeaders(t *testing.T) {
	var gotAccept, gotAuth, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewRateLimitedClient("secret-token", 4, nil)
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "application/vnd.github.v3+json", gotAccept)
	assert.Equal(t, "token secret-token", gotAuth)
	assert.Contains(t, gotUA, "gitrepoanalyzer-github-client")
}

func TestRateLimitedClient_CachesAndSendsETag(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Etag", `"abc123"`)
			w.WriteHeader(http.StatusOK)
			return
		}
		assert.Equal(t, `"abc123"`, r.Header.Get("If-None-Match"))
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	c := NewRateLimitedClient("t", 4, nil)
	resp1, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp1.Body.Close()

	resp2, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotModified, resp2.StatusCode)
}

func TestRateLimitedClient_UpdatesRateInfoFromHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "5000")
		w.Header().Set("X-RateLimit-Remaining", "4321")
		w.Header().Set("X-RateLimit-Reset", "1999999999")
		w.Header().Set("X-RateLimit-Resource", "core")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewRateLimitedClient("t", 4, nil)
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	info := c.RateInfo()
	assert.Equal(t, 5000, info.Limit)
	assert.Equal(t, 4321, info.Remaining)
	assert.Equal(t, int64(1999999999), info.ResetTime)
}

func TestRateLimitedClient_WaitsWhenNearlyExhausted(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "5000")
		w.Header().Set("X-RateLimit-Remaining", "4000")
		w.Header().Set("X-RateLimit-Reset", "9999999999")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewRateLimitedClient("t", 4, nil)
	c.clock = clock
	// force a near-exhausted state ahead of the next Get
	info := c.RateInfo()
	info.Remaining = 5
	info.ResetTime = clock.now.Unix() + 30
	c.rateInfo.set(info)

	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	require.Len(t, clock.slept, 1)
	assert.Equal(t, 31*time.Second, clock.slept[0])
}

func TestGetWithRetry_RetriesOnRetryAfterHeader(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewRateLimitedClient("t", 4, nil)
	c.clock = clock

	resp, err := c.GetWithRetry(context.Background(), srv.URL, 3)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, calls)
	require.Len(t, clock.slept, 1)
	assert.Equal(t, 2*time.Second, clock.slept[0])
}

func TestGetWithRetry_NotModifiedIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	c := NewRateLimitedClient("t", 4, nil)
	resp, err := c.GetWithRetry(context.Background(), srv.URL, 3)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
}

func TestGetWithRetry_NonRateLimitErrorPassesThroughImmediately(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewRateLimitedClient("t", 4, nil)
	resp, err := c.GetWithRetry(context.Background(), srv.URL, 3)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestFetchRateLimitStatus_ParsesCoreResource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resources":{"core":{"limit":5000,"remaining":10,"reset":1700000000},"search":{"limit":30,"remaining":30,"reset":1700000000}}}`))
	}))
	defer srv.Close()

	c := NewRateLimitedClient("t", 4, nil)
	c.rateLimitURL = srv.URL // point at the test server instead of the real API

	err := c.FetchRateLimitStatus(context.Background())
	require.NoError(t, err)

	info := c.RateInfo()
	assert.Equal(t, 10, info.Remaining)
	assert.Equal(t, int64(1700000000), info.ResetTime)
}

func TestAdaptConcurrency_NeverExceedsMaxConcurrent(t *testing.T) {
	c := NewRateLimitedClient("t", 8, nil)
	for _, remaining := range []int{5, 50, 500, 5000} {
		info := c.RateInfo()
		info.Remaining = remaining
		c.rateInfo.set(info)
		c.adaptConcurrency()
	}
	assert.LessOrEqual(t, c.semCeiling, int64(8))
}
