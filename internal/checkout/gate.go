package checkout

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/danniel-isiah-libor/talos-io/internal/domain"
	"github.com/danniel-isiah-libor/talos-io/internal/store"
)

// gatePollInterval is fixed; the gate compares wall-clock time at second
// resolution, so polling faster buys nothing.
const gatePollInterval = time.Second

// timeOfDayLayout matches the "HH:mm:ss" strings tasks are configured with.
const timeOfDayLayout = "15:04:05"

// Gate blocks order placement until the task's configured wall-clock time of
// day, or resolves immediately when none is set. Once the gate opens it
// clears the configured time on the task so a pipeline restart does not wait
// again.
type Gate struct {
	registry store.TaskRegistry
	clock    Clock
	logger   *slog.Logger
}

// NewGate creates a scheduled gate over the given registry and clock.
func NewGate(registry store.TaskRegistry, clock Clock, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{registry: registry, clock: clock, logger: log}
}

// Wait blocks until the task's scheduled time has passed and reports true,
// or reports false as soon as the task stops running. Each unmet poll logs a
// waiting entry on the task.
func (g *Gate) Wait(ctx context.Context, taskID uuid.UUID) bool {
	for {
		if ctx.Err() != nil || !g.registry.IsRunning(taskID) {
			g.markStopped(taskID)
			return false
		}

		task, err := g.registry.Find(taskID)
		if err != nil {
			return false
		}

		if task.PlaceOrderAt == "" {
			return true
		}

		now := g.clock.Now().Format(timeOfDayLayout)
		if now >= task.PlaceOrderAt {
			// Clear the trigger so a restarted pipeline does not re-wait.
			task.PlaceOrderAt = ""
			if err := g.registry.Replace(task); err != nil {
				g.logger.Warn("failed to clear scheduled time", "task_id", taskID, "error", err)
			}
			return true
		}

		_ = g.registry.AppendLog(taskID, domain.LogEntry{
			Message:  "waiting to place order...",
			Severity: domain.SeverityWarning,
		})

		g.clock.Sleep(ctx, gatePollInterval)
	}
}

func (g *Gate) markStopped(taskID uuid.UUID) {
	task, err := g.registry.Find(taskID)
	if err != nil || task.Status.ID == domain.StatusSucceeded {
		return
	}
	_ = g.registry.SetStatus(taskID, domain.Status{
		ID:      domain.StatusStopped,
		Message: "stopped",
		Class:   domain.StyleIdle,
	})
}
