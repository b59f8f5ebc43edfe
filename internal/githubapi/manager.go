package githubapi

import (
	"fmt"
	"sync"

	"github.com/italoag/gitrepoanalyzer/internal/shared"
)

// ClientManager is a first-writer-wins singleton over a *RateLimitedClient,
// grounded on original_source/src/providers/github/client_manager.rs. Init
// establishes the client exactly once per manager instance; every later
// Init call is ignored, including one that would swap in a different
// token. Callers that need an isolated client for tests should construct
// their own RateLimitedClient instead of going through a ClientManager.
type ClientManager struct {
	once   sync.Once
	client *RateLimitedClient
}

// NewClientManager returns an uninitialized manager.
func NewClientManager() *ClientManager {
	return &ClientManager{}
}

// Init establishes the singleton client on first call. Subsequent calls,
// even with different arguments, are silently ignored: this mirrors the
// original's OnceCell::set semantics, a documented hazard under spec.md §9
// (a second caller with different credentials gets no error and no effect).
func (m *ClientManager) Init(token string, maxConcurrent int64, logger shared.Logger) {
	m.once.Do(func() {
		m.client = NewRateLimitedClient(token, maxConcurrent, logger)
	})
}

// Client returns the singleton, or an error if Init has not run yet.
func (m *ClientManager) Client() (*RateLimitedClient, error) {
	if m.client == nil {
		return nil, fmt.Errorf("githubapi: client manager not initialized")
	}
	return m.client, nil
}

// GetOrInit returns the existing client, or initializes and returns one
// built from the supplied arguments if none exists yet.
func (m *ClientManager) GetOrInit(token string, maxConcurrent int64, logger shared.Logger) *RateLimitedClient {
	m.Init(token, maxConcurrent, logger)
	return m.client
}
