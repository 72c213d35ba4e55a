package bypass

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danniel-isiah-libor/talos-io/internal/domain"
)

// pollInterval is fixed. Admission latency is bounded by it; nothing in the
// coordinator blocks longer than one tick.
const pollInterval = 500 * time.Millisecond

// RunningFunc reports whether a task may keep waiting. It must re-read
// registry state on every call; it is the same cancellation predicate the
// checkout pipeline uses.
type RunningFunc func(id uuid.UUID) bool

// AdmitPolicy decides whether a queued entry's proxy group may claim the
// given door. The default policy admits every group to every door.
type AdmitPolicy func(group string, door int) bool

// Admission is the result of a wait on the coordinator.
type Admission struct {
	// Cookies is non-empty when another task in the same proxy group already
	// ran the browser and shared its clearance cookies.
	Cookies []domain.Cookie

	// Admitted is true when the caller claimed a door and must run the
	// browser work itself, then hand the door back through Release.
	Admitted bool
}

type entry struct {
	taskID  uuid.UUID
	group   string
	cookies []domain.Cookie
}

// Coordinator owns the door pool and the admission queue. All state lives
// behind one mutex; waiters poll rather than block, so a stopped task is
// never stranded holding a lock.
type Coordinator struct {
	running RunningFunc
	policy  AdmitPolicy
	clock   Clock
	logger  *slog.Logger

	mu    sync.Mutex
	doors []bool // true = occupied
	queue []*entry

	// onStateChange, when set, observes door occupancy and queue depth after
	// every mutation. Used for metrics.
	onStateChange func(occupied, queued int)
}

// Options configures optional coordinator behavior.
type Options struct {
	Policy        AdmitPolicy
	Clock         Clock
	Logger        *slog.Logger
	OnStateChange func(occupied, queued int)
}

// NewCoordinator creates a coordinator with the given door capacity.
func NewCoordinator(capacity int, running RunningFunc, opts Options) *Coordinator {
	if capacity < 1 {
		capacity = 1
	}
	policy := opts.Policy
	if policy == nil {
		policy = func(string, int) bool { return true }
	}
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		running:       running,
		policy:        policy,
		clock:         clock,
		logger:        log.With("component", "bypass_coordinator"),
		doors:         make([]bool, capacity),
		onStateChange: opts.OnStateChange,
	}
}

// Await enqueues the task and blocks until one of three exits: the task is
// cancelled (zero Admission), cookies arrive from a group mate, or a door is
// claimed and the caller is admitted to run the browser itself. A task has
// at most one queue entry at a time; a second Await for the same task reuses
// the existing entry.
func (c *Coordinator) Await(ctx context.Context, taskID uuid.UUID, group string) Admission {
	c.enqueue(taskID, group)

	for {
		if ctx.Err() != nil || !c.running(taskID) {
			c.dequeue(taskID)
			return Admission{}
		}

		if adm, done := c.poll(taskID); done {
			return adm
		}

		c.clock.Sleep(ctx, pollInterval)
	}
}

// poll inspects shared state once. It returns done=true when the wait is
// over.
func (c *Coordinator) poll(taskID uuid.UUID) (Admission, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(taskID)
	if idx < 0 {
		// Entry vanished, e.g. a concurrent stop command drained it.
		return Admission{}, true
	}

	e := c.queue[idx]
	if len(e.cookies) > 0 {
		c.removeAt(idx)
		c.notifyLocked()
		return Admission{Cookies: e.cookies}, true
	}

	// Only the queue head may claim a door.
	if idx != 0 {
		return Admission{}, false
	}
	for door, occupied := range c.doors {
		if occupied || !c.policy(e.group, door) {
			continue
		}
		c.doors[door] = true
		c.removeAt(0)
		c.notifyLocked()
		c.logger.Debug("door claimed", "task_id", taskID, "door", door)
		return Admission{Admitted: true}, true
	}

	return Admission{}, false
}

// Release hands a door back after an admitted caller finished its browser
// run. Any cookies it produced are fanned out to every queued entry in the
// same proxy group, which their waiters pick up on the next poll.
func (c *Coordinator) Release(group string, cookies []domain.Cookie) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(cookies) > 0 {
		for _, e := range c.queue {
			if e.group == group {
				e.cookies = cookies
			}
		}
	}

	for door, occupied := range c.doors {
		if occupied {
			c.doors[door] = false
			break
		}
	}
	c.notifyLocked()
}

// Capacity returns the size of the door pool.
func (c *Coordinator) Capacity() int {
	return len(c.doors)
}

// Occupied returns how many doors are currently claimed.
func (c *Coordinator) Occupied() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.occupiedLocked()
}

// QueueDepth returns how many tasks are waiting.
func (c *Coordinator) QueueDepth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *Coordinator) enqueue(taskID uuid.UUID, group string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexOf(taskID) >= 0 {
		return
	}
	c.queue = append(c.queue, &entry{taskID: taskID, group: group})
	c.notifyLocked()
}

func (c *Coordinator) dequeue(taskID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx := c.indexOf(taskID); idx >= 0 {
		c.removeAt(idx)
		c.notifyLocked()
	}
}

func (c *Coordinator) indexOf(taskID uuid.UUID) int {
	for i, e := range c.queue {
		if e.taskID == taskID {
			return i
		}
	}
	return -1
}

func (c *Coordinator) removeAt(idx int) {
	c.queue = append(c.queue[:idx], c.queue[idx+1:]...)
}

func (c *Coordinator) occupiedLocked() int {
	n := 0
	for _, occupied := range c.doors {
		if occupied {
			n++
		}
	}
	return n
}

func (c *Coordinator) notifyLocked() {
	if c.onStateChange != nil {
		c.onStateChange(c.occupiedLocked(), len(c.queue))
	}
}
