package store

import (
	"github.com/google/uuid"

	"github.com/danniel-isiah-libor/talos-io/internal/domain"
)

// TaskRegistry is the process-wide collection of checkout tasks.
//
// Find returns a deep copy; callers mutate the copy and hand it back through
// Replace. Replace is last-write-wins over the whole record. IsRunning is the
// sole cancellation signal for the pipeline and the admission coordinator:
// both re-read it from the registry at every suspension point rather than
// trusting a local copy, because a stop command may flip it at any moment.
type TaskRegistry interface {
	// Add registers a new task. Returns ErrTaskExists if the ID is taken.
	Add(task domain.Task) error

	// Find returns a copy of the task, or ErrTaskNotFound.
	Find(id uuid.UUID) (domain.Task, error)

	// Replace swaps the stored record for the given one, matching by ID.
	// Returns ErrTaskNotFound if the task is no longer registered.
	Replace(task domain.Task) error

	// Remove deletes the task. Returns ErrTaskNotFound if absent.
	Remove(id uuid.UUID) error

	// List returns copies of all registered tasks.
	List() []domain.Task

	// IsRunning reports whether the task exists and its status is RUNNING.
	// A removed task is never running.
	IsRunning(id uuid.UUID) bool

	// SetStatus atomically updates only the task's status field.
	SetStatus(id uuid.UUID, status domain.Status) error

	// AppendLog atomically appends one entry to the task's activity log.
	AppendLog(id uuid.UUID, entry domain.LogEntry) error
}
