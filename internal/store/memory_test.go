package store

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danniel-isiah-libor/talos-io/internal/domain"
	"github.com/danniel-isiah-libor/talos-io/internal/events"
)

func newTestTask(t *testing.T) domain.Task {
	t.Helper()

	task, err := domain.NewTask(
		"drop",
		domain.Profile{Name: "main", Email: "buyer@example.com", Password: "hunter22"},
		"SNKR-001",
		[]domain.SizeOption{{Label: "9.5", AttributeID: "144", Value: "1234"}},
		time.Second,
	)
	require.NoError(t, err)
	return *task
}

type recordingHandler struct {
	mu     sync.Mutex
	events []events.TaskEvent
}

func (h *recordingHandler) HandleTaskEvent(event events.TaskEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

func (h *recordingHandler) snapshot() []events.TaskEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]events.TaskEvent, len(h.events))
	copy(out, h.events)
	return out
}

func TestMemoryRegistry_AddFindReplace(t *testing.T) {
	t.Parallel()

	registry := NewMemoryRegistry(nil, nil)
	task := newTestTask(t)

	require.NoError(t, registry.Add(task))
	assert.ErrorIs(t, registry.Add(task), ErrTaskExists)

	found, err := registry.Find(task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, found.ID)

	// mutating the returned copy must not touch the stored record
	found.Sku = "OTHER"
	again, err := registry.Find(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "SNKR-001", again.Sku)

	found.Sku = "SNKR-002"
	require.NoError(t, registry.Replace(found))
	again, err = registry.Find(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "SNKR-002", again.Sku)

	_, err = registry.Find(uuid.New())
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestMemoryRegistry_IsRunning(t *testing.T) {
	t.Parallel()

	registry := NewMemoryRegistry(nil, nil)
	task := newTestTask(t)
	require.NoError(t, registry.Add(task))

	assert.False(t, registry.IsRunning(task.ID), "freshly added task starts stopped")

	require.NoError(t, registry.SetStatus(task.ID, domain.Status{
		ID: domain.StatusRunning, Message: "running", Class: domain.StyleBusy,
	}))
	assert.True(t, registry.IsRunning(task.ID))

	require.NoError(t, registry.SetStatus(task.ID, domain.Status{
		ID: domain.StatusSucceeded, Message: "copped!", Class: domain.StyleSuccess,
	}))
	assert.False(t, registry.IsRunning(task.ID), "succeeded implies no longer running")

	require.NoError(t, registry.Remove(task.ID))
	assert.False(t, registry.IsRunning(task.ID), "removed task is never running")
}

func TestMemoryRegistry_SetStatusSurvivesStaleReplace(t *testing.T) {
	t.Parallel()

	registry := NewMemoryRegistry(nil, nil)
	task := newTestTask(t)
	require.NoError(t, registry.Add(task))

	// A pipeline goroutine took a copy before the stop command landed.
	stale, err := registry.Find(task.ID)
	require.NoError(t, err)

	require.NoError(t, registry.SetStatus(task.ID, domain.Status{
		ID: domain.StatusRunning, Message: "running", Class: domain.StyleBusy,
	}))

	// The stale whole-record replace wins over everything it carries,
	// which is the documented last-write-wins contract.
	require.NoError(t, registry.Replace(stale))
	assert.False(t, registry.IsRunning(task.ID))
}

func TestMemoryRegistry_AppendLog(t *testing.T) {
	t.Parallel()

	registry := NewMemoryRegistry(nil, nil)
	task := newTestTask(t)
	require.NoError(t, registry.Add(task))

	require.NoError(t, registry.AppendLog(task.ID, domain.LogEntry{
		Message: "fetching user token...", Severity: domain.SeverityWarning,
	}))
	require.NoError(t, registry.AppendLog(task.ID, domain.LogEntry{
		Message: "received user token", Severity: domain.SeveritySuccess,
	}))

	found, err := registry.Find(task.ID)
	require.NoError(t, err)
	require.Len(t, found.Logs, 2)
	assert.Equal(t, "fetching user token...", found.Logs[0].Message)
	assert.Equal(t, domain.SeveritySuccess, found.Logs[1].Severity)
}

func TestMemoryRegistry_EmitsEvents(t *testing.T) {
	t.Parallel()

	handler := &recordingHandler{}
	emitter := events.NewInMemoryEmitter(nil)
	emitter.RegisterHandler(handler)

	registry := NewMemoryRegistry(emitter, nil)
	task := newTestTask(t)

	require.NoError(t, registry.Add(task))
	require.NoError(t, registry.SetStatus(task.ID, domain.Status{ID: domain.StatusRunning}))
	require.NoError(t, registry.Remove(task.ID))

	got := handler.snapshot()
	require.Len(t, got, 3)
	assert.Equal(t, events.EventTaskCreated, got[0].Type)
	assert.Equal(t, events.EventTaskUpdated, got[1].Type)
	assert.Equal(t, events.EventTaskRemoved, got[2].Type)
}

func TestMemoryRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	registry := NewMemoryRegistry(nil, nil)
	task := newTestTask(t)
	require.NoError(t, registry.Add(task))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = registry.AppendLog(task.ID, domain.LogEntry{Message: "tick"})
				_, _ = registry.Find(task.ID)
				_ = registry.IsRunning(task.ID)
			}
		}()
	}
	wg.Wait()

	found, err := registry.Find(task.ID)
	require.NoError(t, err)
	assert.Len(t, found.Logs, 8*50)
}
