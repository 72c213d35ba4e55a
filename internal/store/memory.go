package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danniel-isiah-libor/talos-io/internal/domain"
	"github.com/danniel-isiah-libor/talos-io/internal/events"
)

// MemoryRegistry is the in-memory TaskRegistry implementation. All access
// goes through one mutex; tasks cross the boundary as deep copies only.
type MemoryRegistry struct {
	mu      sync.RWMutex
	tasks   map[uuid.UUID]domain.Task
	emitter events.Emitter
	logger  *slog.Logger
}

// Ensure MemoryRegistry implements the TaskRegistry interface.
var _ TaskRegistry = (*MemoryRegistry)(nil)

// NewMemoryRegistry creates an empty registry. emitter may be nil when no
// consumer cares about change notifications (tests, mostly).
func NewMemoryRegistry(emitter events.Emitter, logger *slog.Logger) *MemoryRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryRegistry{
		tasks:   make(map[uuid.UUID]domain.Task),
		emitter: emitter,
		logger:  logger.With("component", "task_registry"),
	}
}

// Add registers a new task.
func (r *MemoryRegistry) Add(task domain.Task) error {
	r.mu.Lock()
	if _, ok := r.tasks[task.ID]; ok {
		r.mu.Unlock()
		return ErrTaskExists
	}
	task.UpdatedAt = time.Now().UTC()
	r.tasks[task.ID] = task.Clone()
	r.mu.Unlock()

	r.logger.Debug("task registered", "task_id", task.ID, "task_name", task.Name)
	r.emit(events.EventTaskCreated, task)
	return nil
}

// Find returns a copy of the task with the given ID.
func (r *MemoryRegistry) Find(id uuid.UUID) (domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return domain.Task{}, ErrTaskNotFound
	}
	return task.Clone(), nil
}

// Replace swaps the stored record wholesale. Last writer wins.
func (r *MemoryRegistry) Replace(task domain.Task) error {
	r.mu.Lock()
	if _, ok := r.tasks[task.ID]; !ok {
		r.mu.Unlock()
		return ErrTaskNotFound
	}
	task.UpdatedAt = time.Now().UTC()
	r.tasks[task.ID] = task.Clone()
	r.mu.Unlock()

	r.emit(events.EventTaskUpdated, task)
	return nil
}

// Remove deletes the task from the registry.
func (r *MemoryRegistry) Remove(id uuid.UUID) error {
	r.mu.Lock()
	task, ok := r.tasks[id]
	if !ok {
		r.mu.Unlock()
		return ErrTaskNotFound
	}
	delete(r.tasks, id)
	r.mu.Unlock()

	r.logger.Debug("task removed", "task_id", id)
	r.emit(events.EventTaskRemoved, task)
	return nil
}

// List returns copies of every registered task.
func (r *MemoryRegistry) List() []domain.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		out = append(out, task.Clone())
	}
	return out
}

// IsRunning reports whether the task exists and is RUNNING.
func (r *MemoryRegistry) IsRunning(id uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	return ok && task.Running()
}

// SetStatus updates only the status field, inside the lock, so a stop
// command can never be overwritten by a stale whole-record replace racing
// with it.
func (r *MemoryRegistry) SetStatus(id uuid.UUID, status domain.Status) error {
	r.mu.Lock()
	task, ok := r.tasks[id]
	if !ok {
		r.mu.Unlock()
		return ErrTaskNotFound
	}
	task.Status = status
	task.UpdatedAt = time.Now().UTC()
	r.tasks[id] = task
	r.mu.Unlock()

	r.emit(events.EventTaskUpdated, task)
	return nil
}

// AppendLog appends one log entry inside the lock.
func (r *MemoryRegistry) AppendLog(id uuid.UUID, entry domain.LogEntry) error {
	r.mu.Lock()
	task, ok := r.tasks[id]
	if !ok {
		r.mu.Unlock()
		return ErrTaskNotFound
	}
	logs := make([]domain.LogEntry, len(task.Logs), len(task.Logs)+1)
	copy(logs, task.Logs)
	task.Logs = append(logs, entry)
	task.UpdatedAt = time.Now().UTC()
	r.tasks[id] = task
	r.mu.Unlock()

	r.emit(events.EventTaskUpdated, task)
	return nil
}

func (r *MemoryRegistry) emit(eventType events.EventType, task domain.Task) {
	if r.emitter == nil {
		return
	}
	r.emitter.Emit(events.NewTaskEvent(eventType, task))
}
