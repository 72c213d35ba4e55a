package events

import (
	"log/slog"
	"sync"
)

// InMemoryEmitter is a simple Emitter that fans events out to registered
// handlers synchronously, in registration order.
type InMemoryEmitter struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *slog.Logger
}

// NewInMemoryEmitter creates an emitter with no handlers registered.
func NewInMemoryEmitter(logger *slog.Logger) *InMemoryEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEmitter{
		logger: logger.With("component", "event_emitter"),
	}
}

// RegisterHandler adds a handler to receive subsequent events.
func (e *InMemoryEmitter) RegisterHandler(handler Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered task event handler", "handler_count", len(e.handlers))
}

// Emit delivers the event to every registered handler. A panicking handler
// is logged and skipped so one consumer cannot take down the registry.
func (e *InMemoryEmitter) Emit(event TaskEvent) {
	e.mu.RLock()
	handlers := make([]Handler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	for _, handler := range handlers {
		e.deliver(handler, event)
	}
}

func (e *InMemoryEmitter) deliver(handler Handler, event TaskEvent) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("task event handler panicked",
				"event_type", event.Type,
				"task_id", event.Task.ID,
				"panic", r)
		}
	}()
	handler.HandleTaskEvent(event)
}
