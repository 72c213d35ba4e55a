package checkout_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danniel-isiah-libor/talos-io/internal/checkout"
	"github.com/danniel-isiah-libor/talos-io/internal/domain"
	"github.com/danniel-isiah-libor/talos-io/internal/store"
)

// fakeClock advances its wall-clock time by the requested duration instead
// of sleeping, so gate polls run instantly.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestGateResolvesImmediatelyWithoutScheduledTime(t *testing.T) {
	t.Parallel()

	registry := store.NewMemoryRegistry(nil, nil)
	clock := newFakeClock(time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC))
	gate := checkout.NewGate(registry, clock, nil)

	task := newRunningTask(t, registry)

	assert.True(t, gate.Wait(context.Background(), task.ID))

	// No waiting entries were logged.
	final, err := registry.Find(task.ID)
	require.NoError(t, err)
	for _, entry := range final.Logs {
		assert.NotEqual(t, "waiting to place order...", entry.Message)
	}
}

func TestGateOpensAtScheduledTimeAndClearsIt(t *testing.T) {
	t.Parallel()

	registry := store.NewMemoryRegistry(nil, nil)
	clock := newFakeClock(time.Date(2026, 8, 31, 9, 59, 58, 0, time.UTC))
	gate := checkout.NewGate(registry, clock, nil)

	task := newRunningTask(t, registry)
	stored, err := registry.Find(task.ID)
	require.NoError(t, err)
	stored.PlaceOrderAt = "10:00:00"
	require.NoError(t, registry.Replace(stored))

	assert.True(t, gate.Wait(context.Background(), task.ID))

	final, err := registry.Find(task.ID)
	require.NoError(t, err)

	// The trigger is cleared so a pipeline restart does not wait again.
	assert.Empty(t, final.PlaceOrderAt)

	waiting := 0
	for _, entry := range final.Logs {
		if entry.Message == "waiting to place order..." {
			waiting++
		}
	}
	assert.Equal(t, 2, waiting)
}

func TestGateResolvesFalseWhenTaskStops(t *testing.T) {
	t.Parallel()

	registry := store.NewMemoryRegistry(nil, nil)
	clock := newFakeClock(time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC))
	gate := checkout.NewGate(registry, clock, nil)

	task := newRunningTask(t, registry)
	stored, err := registry.Find(task.ID)
	require.NoError(t, err)
	stored.PlaceOrderAt = "23:59:59"
	require.NoError(t, registry.Replace(stored))

	done := make(chan bool, 1)
	go func() { done <- gate.Wait(context.Background(), task.ID) }()

	// Let the gate take a few polls before the stop lands.
	require.Eventually(t, func() bool {
		current, err := registry.Find(task.ID)
		if err != nil {
			return false
		}
		for _, entry := range current.Logs {
			if entry.Message == "waiting to place order..." {
				return true
			}
		}
		return false
	}, 2*time.Second, time.Millisecond)

	require.NoError(t, registry.SetStatus(task.ID, domain.Status{
		ID: domain.StatusStopped, Message: "stopped", Class: domain.StyleIdle,
	}))

	select {
	case proceed := <-done:
		assert.False(t, proceed)
	case <-time.After(2 * time.Second):
		t.Fatal("gate did not observe the stop")
	}

	// The schedule survives a stop; only an opened gate clears it.
	final, err := registry.Find(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "23:59:59", final.PlaceOrderAt)
}
