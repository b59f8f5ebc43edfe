// Package taskstatus is a process-wide registry for long-running
// background operations (collaborator/issue/PR fan-outs, clones), grounded
// on original_source/src/providers/github/task_status.rs
// (TaskStatus, TaskInfo, TASK_REGISTRY).
package taskstatus

import (
	"fmt"
	"sync"
	"time"
)

// Kind tags the TaskStatus value.
type Kind string

const (
	Idle       Kind = "idle"
	InProgress Kind = "in_progress"
	Completed  Kind = "completed"
	Failed     Kind = "failed"
)

// Status is the tagged status value, mirroring the Rust enum's payload
// per variant: InProgress carries a completion percentage, Completed and
// Failed carry a timestamp, and Failed additionally carries an error
// string.
type Status struct {
	Kind       Kind
	Percentage uint8
	Error      string
	At         time.Time
}

// Info is a single tracked task: its kind ("clone", "collaborators", ...),
// the resource it concerns (typically a repo URL), and its current status.
type Info struct {
	ID         string
	TaskType   string
	ResourceID string
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Registry is the process-wide {id -> Info} table, guarded by one mutex.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*Info
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*Info)}
}

// NewID builds a task id of the form "type:resource:operation", matching
// original_source/src/providers/github/task_status.rs's create_task_id.
// Registering the same (taskType, resourceID, operation) triple again
// reuses the same id, matching the original's 3-tuple key.
func (r *Registry) NewID(taskType, resourceID, operation string) string {
	return fmt.Sprintf("%s:%s:%s", taskType, resourceID, operation)
}

// Register inserts a new Idle task under id.
func (r *Registry) Register(id, taskType, resourceID string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[id] = &Info{
		ID:         id,
		TaskType:   taskType,
		ResourceID: resourceID,
		Status:     Status{Kind: Idle},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (r *Registry) update(id string, now time.Time, mutate func(*Info)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return
	}
	mutate(t)
	t.UpdatedAt = now
}

// SetInProgress records a completion percentage, clamped to [0, 100].
func (r *Registry) SetInProgress(id string, percentage uint8, now time.Time) {
	if percentage > 100 {
		percentage = 100
	}
	r.update(id, now, func(t *Info) {
		t.Status = Status{Kind: InProgress, Percentage: percentage}
	})
}

// SetCompleted marks id Completed at now.
func (r *Registry) SetCompleted(id string, now time.Time) {
	r.update(id, now, func(t *Info) {
		t.Status = Status{Kind: Completed, At: now}
	})
}

// SetFailed marks id Failed with err at now.
func (r *Registry) SetFailed(id, errMsg string, now time.Time) {
	r.update(id, now, func(t *Info) {
		t.Status = Status{Kind: Failed, Error: errMsg, At: now}
	})
}

// Get returns a copy of the task and whether it exists.
func (r *Registry) Get(id string) (Info, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return Info{}, false
	}
	return *t, true
}

// ListByType returns all tasks with the given TaskType.
func (r *Registry) ListByType(taskType string) []Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Info
	for _, t := range r.tasks {
		if t.TaskType == taskType {
			out = append(out, *t)
		}
	}
	return out
}

// ListByResource returns all tasks concerning the given resource.
func (r *Registry) ListByResource(resourceID string) []Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Info
	for _, t := range r.tasks {
		if t.ResourceID == resourceID {
			out = append(out, *t)
		}
	}
	return out
}

// ClearCompletedOlderThan removes every Completed or Failed task whose
// UpdatedAt is before cutoff, returning the count removed.
func (r *Registry) ClearCompletedOlderThan(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, t := range r.tasks {
		if (t.Status.Kind == Completed || t.Status.Kind == Failed) && t.UpdatedAt.Before(cutoff) {
			delete(r.tasks, id)
			removed++
		}
	}
	return removed
}
