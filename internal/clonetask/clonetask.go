// Package clonetask implements the clone task registry: a shared,
// observable state machine tracking many concurrent clones, grounded on
// original_source/src/common/types.rs (CloneStatus, RepoCloneTask) and the
// teacher's internal/domain/cloning/job.go JobStatus enum.
package clonetask

import (
	"fmt"
	"sync"
)

// StatusKind is the CloneStatus tag. Transitions form a DAG:
// Queued -> Cloning -> {Completed, Failed}; there is no transition out of
// a terminal state.
type StatusKind string

const (
	Queued    StatusKind = "queued"
	Cloning   StatusKind = "cloning"
	Completed StatusKind = "completed"
	Failed    StatusKind = "failed"
)

// Status is the tagged CloneStatus value: Kind selects which of Percent /
// Reason is meaningful. Percent is reserved for future progress parsing
// and today is never updated above 0 (spec.md §9).
type Status struct {
	Kind    StatusKind
	Percent uint8
	Reason  string
}

// Task is a single clone task: {url, status, workspace}. Workspace becomes
// set on entry to Cloning and remains set in Completed; on Failed it may
// or may not be present.
type Task struct {
	URL       string
	Status    Status
	Workspace string // empty when not yet allocated
}

// View is the external boundary shape of spec.md §6: a flat record with an
// explicit status_type string plus optional progress/error/temp_dir.
type View struct {
	URL        string
	StatusType string
	Progress   *uint8
	Error      *string
	TempDir    *string
}

func (t Task) view() View {
	v := View{URL: t.URL, StatusType: string(t.Status.Kind)}
	switch t.Status.Kind {
	case Cloning:
		p := t.Status.Percent
		v.Progress = &p
	case Failed:
		r := t.Status.Reason
		v.Error = &r
	}
	if t.Workspace != "" {
		d := t.Workspace
		v.TempDir = &d
	}
	return v
}

// ErrNotFound is returned when an operation targets an unknown URL.
var ErrNotFound = fmt.Errorf("clonetask: url not found in registry")

// ErrNotCompleted is returned by PathIfCompleted when the task exists but
// is not in the Completed state.
var ErrNotCompleted = fmt.Errorf("clonetask: repository is not in a completed state")

// Registry is the {url -> Task} map guarded by a single mutex. It is never
// held across a suspension point: every method acquires, mutates/reads,
// and releases within a bounded critical section.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*Task)}
}

// InsertIfAbsent adds {url, Queued, ""} if missing; idempotent.
func (r *Registry) InsertIfAbsent(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[url]; !ok {
		r.tasks[url] = &Task{URL: url, Status: Status{Kind: Queued}}
	}
}

// MarkCloning transitions url to Cloning(0) with the given workspace.
// Preconditions: entry exists and status is Queued or Cloning.
func (r *Registry) MarkCloning(url, workspace string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[url]
	if !ok {
		return ErrNotFound
	}
	if t.Status.Kind != Queued && t.Status.Kind != Cloning {
		return fmt.Errorf("clonetask: cannot enter cloning from state %q", t.Status.Kind)
	}
	t.Status = Status{Kind: Cloning, Percent: 0}
	t.Workspace = workspace
	return nil
}

// MarkCompleted transitions url to the terminal Completed state.
func (r *Registry) MarkCompleted(url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[url]
	if !ok {
		return ErrNotFound
	}
	if t.Status.Kind == Completed || t.Status.Kind == Failed {
		return fmt.Errorf("clonetask: cannot leave terminal state %q", t.Status.Kind)
	}
	t.Status = Status{Kind: Completed}
	return nil
}

// MarkFailed transitions url to the terminal Failed(reason) state. The
// workspace field is left as-is: it may be present or absent.
func (r *Registry) MarkFailed(url, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[url]
	if !ok {
		return ErrNotFound
	}
	if t.Status.Kind == Completed || t.Status.Kind == Failed {
		return fmt.Errorf("clonetask: cannot leave terminal state %q", t.Status.Kind)
	}
	t.Status = Status{Kind: Failed, Reason: reason}
	return nil
}

// Snapshot returns a deep copy of the map for observation without holding
// the lock past this call.
func (r *Registry) Snapshot() map[string]Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Task, len(r.tasks))
	for url, t := range r.tasks {
		out[url] = *t
	}
	return out
}

// Views returns the external boundary shape of spec.md §6 for every task.
func (r *Registry) Views() map[string]View {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]View, len(r.tasks))
	for url, t := range r.tasks {
		out[url] = t.view()
	}
	return out
}

// PathIfCompleted returns the workspace path iff status is Completed.
func (r *Registry) PathIfCompleted(url string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[url]
	if !ok {
		return "", ErrNotFound
	}
	if t.Status.Kind != Completed {
		return "", ErrNotCompleted
	}
	return t.Workspace, nil
}

// PathsIfCompleted resolves workspace paths for many URLs at once,
// returning a per-URL error for anything not managed or not completed.
// Used by analyze_branches to snapshot before dropping the lock.
func (r *Registry) PathsIfCompleted(urls []string) (paths map[string]string, errs map[string]error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	paths = make(map[string]string)
	errs = make(map[string]error)
	for _, url := range urls {
		t, ok := r.tasks[url]
		if !ok {
			errs[url] = ErrNotFound
			continue
		}
		if t.Status.Kind != Completed {
			errs[url] = ErrNotCompleted
			continue
		}
		paths[url] = t.Workspace
	}
	return paths, errs
}
