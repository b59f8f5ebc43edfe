package gitrepoanalyzer

import "github.com/italoag/gitrepoanalyzer/internal/shared"

// Config configures a RepoManager, following the teacher's *XConfig
// constructor-injection pattern (GitHubClientConfig, WorkerPoolConfig):
// every collaborator the manager wires is either supplied here or defaulted,
// never read from a file or environment.
type Config struct {
	// Username and Token authenticate both the git subprocess (embedded in
	// the clone URL) and the GitHub REST client (Authorization header).
	Username string
	Token    string

	// GitPath overrides the git binary location; empty resolves via PATH.
	GitPath string

	// MaxConcurrentRequests sizes the GitHub client's concurrency semaphore.
	// Defaults to 10.
	MaxConcurrentRequests int64

	// MaxWorkers sizes the blocking pool subprocess invocation and parsing
	// run on. Defaults to 2x CPU cores (workerpool.New's own default).
	MaxWorkers int

	// MaxRetries defaults to 3. The GitHub client does not read it: list
	// pages are attempted up to 5 times and per-item detail lookups up to 3
	// times, regardless of this value.
	MaxRetries int

	// MaxPages caps pagination sequences when fetching collaborators,
	// issues, and pull requests. Zero means unbounded.
	MaxPages int

	// Logger receives structured log output from every wired component.
	// Defaults to a NoOpLogger.
	Logger shared.Logger
}

func (c *Config) setDefaults() {
	if c.MaxConcurrentRequests <= 0 {
		c.MaxConcurrentRequests = 10
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.Logger == nil {
		c.Logger = shared.NewNoOpLogger()
	}
}
