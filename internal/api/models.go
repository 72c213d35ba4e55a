package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/danniel-isiah-libor/talos-io/internal/domain"
)

// Common request/response structures

// LoginRequest defines the payload for the operator login endpoint.
type LoginRequest struct {
	AccessKey string `json:"access_key" validate:"required"`
}

// LoginResponse defines the successful response for the login endpoint.
type LoginResponse struct {
	// Token is the session JWT used for API authorization
	Token string `json:"token"`

	// ExpiresAt is the ISO 8601 timestamp when the token expires
	ExpiresAt string `json:"expires_at"`
}

// SizePayload is one purchasable size in a task payload, in preference order.
type SizePayload struct {
	Label       string `json:"label"        validate:"required"`
	AttributeID string `json:"attribute_id" validate:"required"`
	Value       string `json:"value"        validate:"required"`
}

// TaskPayload carries the user-editable fields of a task. It is shared by the
// create and bulk-update endpoints.
type TaskPayload struct {
	Name         string        `json:"name"`
	ProfileName  string        `json:"profile_name"`
	Email        string        `json:"email"           validate:"required,email"`
	Password     string        `json:"password"        validate:"required"`
	Sku          string        `json:"sku"             validate:"required"`
	Sizes        []SizePayload `json:"sizes"           validate:"required,min=1,dive"`
	DelayMs      int64         `json:"delay_ms"        validate:"required,min=1"`
	PlaceOrderAt string        `json:"place_order_at,omitempty"`
	ProxyGroup   string        `json:"proxy_group,omitempty"`
	Webhook      string        `json:"webhook,omitempty" validate:"omitempty,url"`
	AutoCheckout bool          `json:"aco"`
}

// TaskUpdate identifies one task in a bulk update together with its new fields.
type TaskUpdate struct {
	ID uuid.UUID `json:"id" validate:"required"`
	TaskPayload
}

// UpdateTasksRequest defines the payload for the bulk task update endpoint.
type UpdateTasksRequest struct {
	Tasks []TaskUpdate `json:"tasks" validate:"required,min=1,dive"`
}

// OrderView is the carted product exposed on a task view.
type OrderView struct {
	Sku       string  `json:"sku"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	SizeLabel string  `json:"size_label"`
}

// TaskView is the client-facing representation of a task. Credentials and
// session tokens never leave the process; only the order summary and the
// checkout time are surfaced from the transaction data.
type TaskView struct {
	ID           uuid.UUID           `json:"id"`
	Name         string              `json:"name"`
	Status       domain.Status       `json:"status"`
	ProfileName  string              `json:"profile_name"`
	Email        string              `json:"email"`
	Sku          string              `json:"sku"`
	Sizes        []domain.SizeOption `json:"sizes"`
	DelayMs      int64               `json:"delay_ms"`
	PlaceOrderAt string              `json:"place_order_at,omitempty"`
	ProxyGroup   string              `json:"proxy_group,omitempty"`
	Webhook      string              `json:"webhook,omitempty"`
	AutoCheckout bool                `json:"aco"`
	Order        *OrderView          `json:"order,omitempty"`
	CheckoutTime string              `json:"checkout_time,omitempty"`
	Logs         []domain.LogEntry   `json:"logs"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// NewTaskView maps a task record to its client-facing form.
func NewTaskView(task domain.Task) TaskView {
	view := TaskView{
		ID:           task.ID,
		Name:         task.Name,
		Status:       task.Status,
		ProfileName:  task.Profile.Name,
		Email:        task.Profile.Email,
		Sku:          task.Sku,
		Sizes:        task.Sizes,
		DelayMs:      task.Delay.Milliseconds(),
		PlaceOrderAt: task.PlaceOrderAt,
		ProxyGroup:   task.ProxyGroup,
		Webhook:      task.Webhook,
		AutoCheckout: task.AutoCheckout,
		CheckoutTime: task.TransactionData.Time,
		Logs:         task.Logs,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}
	if order := task.TransactionData.Order; order != nil {
		view.Order = &OrderView{
			Sku:       order.Sku,
			Name:      order.Name,
			Price:     order.Price,
			SizeLabel: order.SizeLabel,
		}
	}
	return view
}

// NewTaskViews maps a slice of task records to their client-facing form.
func NewTaskViews(tasks []domain.Task) []TaskView {
	views := make([]TaskView, len(tasks))
	for i, task := range tasks {
		views[i] = NewTaskView(task)
	}
	return views
}
