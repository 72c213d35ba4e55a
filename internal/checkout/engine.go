package checkout

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/danniel-isiah-libor/talos-io/internal/bypass"
	"github.com/danniel-isiah-libor/talos-io/internal/domain"
	"github.com/danniel-isiah-libor/talos-io/internal/platform/titan"
	"github.com/danniel-isiah-libor/talos-io/internal/store"
)

// CookieHarvester runs the heavyweight browser work that clears a store
// challenge and returns the resulting cookies. It is invoked only while the
// caller holds a coordinator door.
type CookieHarvester interface {
	Harvest(ctx context.Context, task domain.Task) ([]domain.Cookie, error)
}

// Engine owns the lifecycle of running tasks: it starts and stops pipeline
// goroutines, runs the verify flow, and brokers challenge-cookie admission
// through the coordinator before a run begins.
type Engine struct {
	registry    store.TaskRegistry
	pipeline    *Pipeline
	coordinator *bypass.Coordinator
	harvester   CookieHarvester
	logger      *slog.Logger

	// onRunningChange, when set, observes the number of active runs.
	onRunningChange func(running int)

	mu     sync.Mutex
	active map[uuid.UUID]context.CancelFunc
}

// EngineOptions configures optional engine collaborators.
type EngineOptions struct {
	Coordinator     *bypass.Coordinator
	Harvester       CookieHarvester
	OnRunningChange func(running int)
}

// NewEngine creates an engine driving the given pipeline.
func NewEngine(registry store.TaskRegistry, pipeline *Pipeline, log *slog.Logger, opts EngineOptions) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		registry:        registry,
		pipeline:        pipeline,
		coordinator:     opts.Coordinator,
		harvester:       opts.Harvester,
		logger:          log.With("component", "checkout_engine"),
		onRunningChange: opts.OnRunningChange,
		active:          make(map[uuid.UUID]context.CancelFunc),
	}
}

// Start marks the task running and launches its pipeline goroutine. Starting
// an already-active task is a no-op.
func (e *Engine) Start(taskID uuid.UUID) error {
	return e.launch(taskID, "starting", e.runCheckout)
}

// Verify runs only the authentication and profile stages, then parks the
// task with a verified status. It shares the checkout machinery so account
// checks behave exactly like the real run's opening stages.
func (e *Engine) Verify(taskID uuid.UUID) error {
	return e.launch(taskID, "verifying", e.runVerify)
}

// Stop flips the task to stopped and cancels its goroutine. The status write
// comes first: the registry flag is the cancellation signal every loop polls.
func (e *Engine) Stop(taskID uuid.UUID) error {
	task, err := e.registry.Find(taskID)
	if err != nil {
		return err
	}
	if task.Status.ID == domain.StatusRunning {
		_ = e.registry.SetStatus(taskID, domain.Status{
			ID:      domain.StatusStopped,
			Message: "stopped",
			Class:   domain.StyleIdle,
		})
	}

	e.mu.Lock()
	cancel, ok := e.active[taskID]
	if ok {
		delete(e.active, taskID)
	}
	running := len(e.active)
	e.mu.Unlock()

	if ok {
		cancel()
		e.notifyRunning(running)
	}
	return nil
}

// StopAll stops every active task. Used during shutdown.
func (e *Engine) StopAll() {
	e.mu.Lock()
	ids := make([]uuid.UUID, 0, len(e.active))
	for id := range e.active {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	for _, id := range ids {
		if err := e.Stop(id); err != nil {
			e.logger.Warn("failed to stop task during shutdown", "task_id", id, "error", err)
		}
	}
}

// ActiveCount returns how many task goroutines are running.
func (e *Engine) ActiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}

func (e *Engine) launch(taskID uuid.UUID, statusMsg string, run func(ctx context.Context, taskID uuid.UUID)) error {
	task, err := e.registry.Find(taskID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if _, exists := e.active[taskID]; exists {
		e.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.active[taskID] = cancel
	running := len(e.active)
	e.mu.Unlock()

	e.notifyRunning(running)

	_ = e.registry.SetStatus(taskID, domain.Status{
		ID:      domain.StatusRunning,
		Message: statusMsg,
		Class:   domain.StyleBusy,
	})

	log := e.logger.With("task_id", taskID, "task_name", task.Name)
	log.Info("task launched", "mode", statusMsg)

	go func() {
		defer e.finish(taskID, cancel)
		run(ctx, taskID)
	}()
	return nil
}

func (e *Engine) finish(taskID uuid.UUID, cancel context.CancelFunc) {
	cancel()
	e.mu.Lock()
	delete(e.active, taskID)
	running := len(e.active)
	e.mu.Unlock()
	e.notifyRunning(running)
}

// runCheckout harvests challenge cookies if the coordinator is wired, then
// drives the full pipeline with the cookies attached to every store request.
func (e *Engine) runCheckout(ctx context.Context, taskID uuid.UUID) {
	cookies := e.acquireChallengeCookies(ctx, taskID)
	if len(cookies) > 0 {
		ctx = titan.WithChallengeCookies(ctx, cookies)
	}
	e.pipeline.Run(ctx, taskID)
}

// acquireChallengeCookies waits on the coordinator for either shared cookies
// or a door, running the harvester itself when admitted. Missing cookies are
// not fatal; the pipeline proceeds and relies on its own retries.
func (e *Engine) acquireChallengeCookies(ctx context.Context, taskID uuid.UUID) []domain.Cookie {
	if e.coordinator == nil || e.harvester == nil {
		return nil
	}
	task, err := e.registry.Find(taskID)
	if err != nil {
		return nil
	}

	_ = e.registry.SetStatus(taskID, domain.Status{
		ID:      domain.StatusRunning,
		Message: "waiting for browser slot",
		Class:   domain.StyleBusy,
	})

	adm := e.coordinator.Await(ctx, taskID, task.ProxyGroup)
	if !adm.Admitted {
		return adm.Cookies
	}

	// Door held: run the browser work, then hand the door back whatever
	// happened so the pool never leaks capacity.
	cookies, err := e.harvester.Harvest(ctx, task)
	if err != nil {
		e.logger.Warn("challenge harvest failed", "task_id", taskID, "error", err)
		e.coordinator.Release(task.ProxyGroup, nil)
		return nil
	}
	e.coordinator.Release(task.ProxyGroup, cookies)
	return cookies
}

// runVerify executes the authenticate and profile stages, then parks the
// task as verified.
func (e *Engine) runVerify(ctx context.Context, taskID uuid.UUID) {
	task, err := e.registry.Find(taskID)
	if err != nil {
		return
	}

	token, res := e.pipeline.authenticate(ctx, task)
	if res == LoopUnauthorized {
		e.pipeline.clearTransactionData(taskID)
		_ = e.registry.SetStatus(taskID, domain.Status{
			ID:      domain.StatusStopped,
			Message: "invalid credentials",
			Class:   domain.StyleError,
		})
		return
	}
	if res != LoopSuccess {
		return
	}

	_, res = e.pipeline.fetchProfile(ctx, taskID, task.Delay, token)
	switch res {
	case LoopSuccess:
		_ = e.registry.SetStatus(taskID, domain.Status{
			ID:      domain.StatusStopped,
			Message: "verified",
			Class:   domain.StyleSuccess,
		})
	case LoopUnauthorized:
		e.pipeline.clearTransactionData(taskID)
		_ = e.registry.SetStatus(taskID, domain.Status{
			ID:      domain.StatusStopped,
			Message: "invalid credentials",
			Class:   domain.StyleError,
		})
	}
}

func (e *Engine) notifyRunning(running int) {
	if e.onRunningChange != nil {
		e.onRunningChange(running)
	}
}
