package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// StatusID identifies the lifecycle state of a task.
type StatusID int

// Possible task lifecycle states. StatusSucceeded is terminal and, like
// StatusStopped, means the task is no longer running.
const (
	StatusStopped StatusID = iota + 1
	StatusRunning
	StatusSucceeded
)

// Style hints attached to status updates. They are opaque to the engine and
// only matter to whatever renders the task list.
const (
	StyleIdle    = "grey"
	StyleBusy    = "orange"
	StyleSuccess = "success"
	StyleError   = "red"
)

// Log entry severities.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
	SeveritySuccess = "success"
)

// Common validation errors for Task.
var (
	ErrEmptyTaskID      = errors.New("task ID cannot be empty")
	ErrEmptyProfile     = errors.New("task profile credentials cannot be empty")
	ErrEmptySku         = errors.New("task SKU cannot be empty")
	ErrNoSizes          = errors.New("task must have at least one size")
	ErrInvalidDelay     = errors.New("task retry delay must be positive")
	ErrInvalidTimeOfDay = errors.New("scheduled time must be HH:mm:ss")
)

// Status describes the current state of a task together with a human-readable
// message and a rendering hint for the UI.
type Status struct {
	ID      StatusID `json:"id"`
	Message string   `json:"msg"`
	Class   string   `json:"class"`
}

// Running reports whether the status still allows the pipeline to proceed.
func (s Status) Running() bool {
	return s.ID == StatusRunning
}

// LogEntry is one line of a task's activity log.
type LogEntry struct {
	Message  string `json:"msg"`
	Severity string `json:"severity"`
}

// SizeOption is one size the task is willing to buy, in preference order.
// AttributeID and Value map to the store's configurable product option.
type SizeOption struct {
	Label       string `json:"label"`
	AttributeID string `json:"attribute_id"`
	Value       string `json:"value"`
}

// Cookie is a browser cookie captured during checkout or a challenge bypass.
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Expiry int64  `json:"expiry,omitempty"`
}

// CartedProduct describes the item that was successfully added to the cart.
type CartedProduct struct {
	ItemID    int     `json:"item_id"`
	Sku       string  `json:"sku"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Qty       int     `json:"qty"`
	QuoteID   string  `json:"quote_id"`
	SizeLabel string  `json:"size_label"`
}

// TransactionData accumulates the per-run state of the checkout pipeline.
// It is cleared whenever authorization is lost or the pipeline restarts, so
// none of its fields may be treated as durable.
type TransactionData struct {
	Token  string            `json:"token,omitempty"`
	User   *CustomerProfile  `json:"user,omitempty"`
	Order  *CartedProduct    `json:"order,omitempty"`
	Cookie *Cookie           `json:"cookies,omitempty"`
	Fields map[string]string `json:"data,omitempty"`
	Time   string            `json:"time,omitempty"`
}

// Empty reports whether no transaction state has been accumulated yet.
func (d TransactionData) Empty() bool {
	return d.Token == "" && d.User == nil && d.Order == nil && d.Cookie == nil
}

// Task is one independently running checkout job. Tasks are mutated only by
// whole-record replacement through the registry; the struct therefore carries
// value semantics and Clone must be used before handing a copy to another
// goroutine that may mutate slices.
type Task struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Status  Status    `json:"status"`
	Profile Profile   `json:"profile"`

	Sku   string       `json:"sku"`
	Sizes []SizeOption `json:"sizes"`

	// Delay is the inter-attempt pause applied by every stage retry loop.
	Delay time.Duration `json:"delay"`

	// PlaceOrderAt optionally holds a wall-clock time of day ("HH:mm:ss")
	// before which the order must not be submitted. Cleared once the gate
	// opens so it cannot re-trigger on a pipeline restart.
	PlaceOrderAt string `json:"place_order_at,omitempty"`

	// ProxyGroup keys the challenge-cookie fan-out: tasks sharing a group
	// can reuse cookies produced by whichever of them ran the browser.
	ProxyGroup string `json:"proxy_group,omitempty"`

	// Webhook, when set, receives the task's own success notification in
	// addition to the globally configured one.
	Webhook string `json:"webhook,omitempty"`

	// AutoCheckout marks tasks whose payment completes without the
	// interactive checkout window.
	AutoCheckout bool `json:"aco"`

	TransactionData TransactionData `json:"transaction_data"`
	Logs            []LogEntry      `json:"logs"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTask creates a stopped task with a fresh ID and validated fields.
func NewTask(name string, profile Profile, sku string, sizes []SizeOption, delay time.Duration) (*Task, error) {
	task := &Task{
		ID:        uuid.New(),
		Name:      name,
		Status:    Status{ID: StatusStopped, Message: "idle", Class: StyleIdle},
		Profile:   profile,
		Sku:       sku,
		Sizes:     sizes,
		Delay:     delay,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks that the task carries everything the pipeline needs.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.Profile.Email == "" || t.Profile.Password == "" {
		return ErrEmptyProfile
	}
	if t.Sku == "" {
		return ErrEmptySku
	}
	if len(t.Sizes) == 0 {
		return ErrNoSizes
	}
	if t.Delay <= 0 {
		return ErrInvalidDelay
	}
	if t.PlaceOrderAt != "" {
		if _, err := time.Parse("15:04:05", t.PlaceOrderAt); err != nil {
			return ErrInvalidTimeOfDay
		}
	}
	return nil
}

// Running reports whether the task's status allows further pipeline work.
func (t *Task) Running() bool {
	return t.Status.Running()
}

// Clone returns a deep copy safe to hand across goroutines.
func (t Task) Clone() Task {
	out := t
	if t.Sizes != nil {
		out.Sizes = make([]SizeOption, len(t.Sizes))
		copy(out.Sizes, t.Sizes)
	}
	if t.Logs != nil {
		out.Logs = make([]LogEntry, len(t.Logs))
		copy(out.Logs, t.Logs)
	}
	if t.Profile.Addresses != nil {
		out.Profile.Addresses = make([]Address, len(t.Profile.Addresses))
		copy(out.Profile.Addresses, t.Profile.Addresses)
	}
	out.TransactionData = t.TransactionData.clone()
	return out
}

func (d TransactionData) clone() TransactionData {
	out := d
	if d.User != nil {
		u := d.User.Clone()
		out.User = &u
	}
	if d.Order != nil {
		o := *d.Order
		out.Order = &o
	}
	if d.Cookie != nil {
		c := *d.Cookie
		out.Cookie = &c
	}
	if d.Fields != nil {
		out.Fields = make(map[string]string, len(d.Fields))
		for k, v := range d.Fields {
			out.Fields[k] = v
		}
	}
	return out
}
