package events

import (
	"time"

	"github.com/danniel-isiah-libor/talos-io/internal/domain"
)

// EventType classifies what happened to a task.
type EventType string

// Possible task event types.
const (
	EventTaskCreated EventType = "task_created"
	EventTaskUpdated EventType = "task_updated"
	EventTaskRemoved EventType = "task_removed"
)

// TaskEvent describes one registry mutation. Task is a deep copy taken at
// emit time, so handlers may hold it beyond the emitting call.
type TaskEvent struct {
	Type EventType   `json:"type"`
	Task domain.Task `json:"task"`
	At   time.Time   `json:"at"`
}

// NewTaskEvent builds an event around a snapshot of the given task.
func NewTaskEvent(eventType EventType, task domain.Task) TaskEvent {
	return TaskEvent{
		Type: eventType,
		Task: task.Clone(),
		At:   time.Now().UTC(),
	}
}

// Handler is implemented by components that react to task changes.
// Handlers must not block: slow consumers are expected to buffer or drop.
type Handler interface {
	HandleTaskEvent(event TaskEvent)
}

// Emitter publishes task events to registered handlers.
type Emitter interface {
	Emit(event TaskEvent)
}
