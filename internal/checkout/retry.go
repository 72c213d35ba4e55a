package checkout

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/danniel-isiah-libor/talos-io/internal/domain"
	"github.com/danniel-isiah-libor/talos-io/internal/platform/titan"
	"github.com/danniel-isiah-libor/talos-io/internal/store"
)

// LoopResult is how a stage retry loop terminated.
type LoopResult int

const (
	// LoopSuccess means the operation eventually returned Success.
	LoopSuccess LoopResult = iota

	// LoopStopped means the task was cancelled; its status has already been
	// set to stopped.
	LoopStopped

	// LoopUnauthorized means the operation observed a 401. The loop does not
	// retry past it; the caller must clear transaction data and restart.
	LoopUnauthorized
)

// Operation runs one attempt of a stage and reports its outcome. State the
// attempt produced (tokens, carts, items) is captured by the closure.
type Operation func(ctx context.Context) titan.Outcome

// StageMessages are the status line and log entries a retry loop writes while
// driving one stage.
type StageMessages struct {
	Status  string
	Trying  string
	Success string
	Failure string
}

// RetryLoop repeatedly invokes a stage operation with an inter-attempt delay
// until it succeeds, the task is cancelled, or authorization is lost. There
// is no attempt cap; resilience is preferred over giving up, so only
// cancellation or success terminate the loop.
type RetryLoop struct {
	registry store.TaskRegistry
	clock    Clock
	logger   *slog.Logger
}

// NewRetryLoop creates a retry loop bound to the given registry and clock.
func NewRetryLoop(registry store.TaskRegistry, clock Clock, log *slog.Logger) *RetryLoop {
	if log == nil {
		log = slog.Default()
	}
	return &RetryLoop{registry: registry, clock: clock, logger: log}
}

// Run drives one stage to completion. Cancellation is re-read from the
// registry at every suspension point: before the delay, after the delay, and
// after the operation returns. An Unauthorized outcome short-circuits
// immediately; no further attempt is made with a stale token.
func (l *RetryLoop) Run(ctx context.Context, taskID uuid.UUID, delay time.Duration, msgs StageMessages, op Operation) LoopResult {
	for {
		if !l.Running(ctx, taskID) {
			l.MarkStopped(taskID)
			return LoopStopped
		}

		l.clock.Sleep(ctx, delay)

		if !l.Running(ctx, taskID) {
			l.MarkStopped(taskID)
			return LoopStopped
		}

		l.SetBusy(taskID, msgs.Status)
		l.Log(taskID, msgs.Trying, domain.SeverityWarning)

		outcome := l.Invoke(ctx, op)

		if !l.Running(ctx, taskID) {
			l.MarkStopped(taskID)
			return LoopStopped
		}

		switch outcome {
		case titan.Success:
			l.Log(taskID, msgs.Success, domain.SeveritySuccess)
			return LoopSuccess
		case titan.Unauthorized:
			l.Log(taskID, "user token expired", domain.SeverityError)
			return LoopUnauthorized
		default:
			l.Log(taskID, msgs.Failure, domain.SeverityError)
		}
	}
}

// Invoke runs one attempt, downgrading panics from the client to a retryable
// failure so no fault escapes the pipeline.
func (l *RetryLoop) Invoke(ctx context.Context, op Operation) (outcome titan.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("stage operation panicked", "panic", r)
			outcome = titan.Failure
		}
	}()
	return op(ctx)
}

// Running reports whether the task may proceed. The registry is the sole
// authority; the context only accelerates shutdown.
func (l *RetryLoop) Running(ctx context.Context, taskID uuid.UUID) bool {
	if ctx.Err() != nil {
		return false
	}
	return l.registry.IsRunning(taskID)
}

// MarkStopped records the stopped status unless the task already reached the
// succeeded terminal state or was removed.
func (l *RetryLoop) MarkStopped(taskID uuid.UUID) {
	task, err := l.registry.Find(taskID)
	if err != nil || task.Status.ID == domain.StatusSucceeded {
		return
	}
	_ = l.registry.SetStatus(taskID, domain.Status{
		ID:      domain.StatusStopped,
		Message: "stopped",
		Class:   domain.StyleIdle,
	})
}

// SetBusy updates the task's status line while a stage is in flight.
func (l *RetryLoop) SetBusy(taskID uuid.UUID, msg string) {
	_ = l.registry.SetStatus(taskID, domain.Status{
		ID:      domain.StatusRunning,
		Message: msg,
		Class:   domain.StyleBusy,
	})
}

// Log appends one entry to the task's activity log.
func (l *RetryLoop) Log(taskID uuid.UUID, msg, severity string) {
	_ = l.registry.AppendLog(taskID, domain.LogEntry{Message: msg, Severity: severity})
}

// Sleep pauses for the task's configured delay.
func (l *RetryLoop) Sleep(ctx context.Context, d time.Duration) {
	l.clock.Sleep(ctx, d)
}
