package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/danniel-isiah-libor/talos-io/internal/api/shared"
	"github.com/danniel-isiah-libor/talos-io/internal/domain"
	"github.com/danniel-isiah-libor/talos-io/internal/store"
)

// TaskController is the engine surface the handler drives. It is satisfied by
// checkout.Engine.
type TaskController interface {
	Start(taskID uuid.UUID) error
	Stop(taskID uuid.UUID) error
	Verify(taskID uuid.UUID) error
}

// TaskHandler handles task management API requests.
type TaskHandler struct {
	registry  store.TaskRegistry
	engine    TaskController
	validator *validator.Validate
	logger    *slog.Logger
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(registry store.TaskRegistry, engine TaskController, log *slog.Logger) *TaskHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TaskHandler{
		registry:  registry,
		engine:    engine,
		validator: validator.New(),
		logger:    log.With("component", "task_handler"),
	}
}

// List handles GET /api/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskViews(h.registry.List()))
}

// Create handles POST /api/tasks. The task is registered and started in one
// call; a payload that fails validation registers nothing.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req TaskPayload

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	task, err := domain.NewTask(
		req.Name,
		domain.Profile{Name: req.ProfileName, Email: req.Email, Password: req.Password},
		req.Sku,
		sizesFromPayload(req.Sizes),
		time.Duration(req.DelayMs)*time.Millisecond,
	)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task.PlaceOrderAt = req.PlaceOrderAt
	task.ProxyGroup = req.ProxyGroup
	task.Webhook = req.Webhook
	task.AutoCheckout = req.AutoCheckout

	if err := task.Validate(); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.registry.Add(*task); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.engine.Start(task.ID); err != nil {
		h.logger.Error("failed to start created task", "task_id", task.ID, "error", err)
		HandleAPIError(w, r, err, "Task created but failed to start")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, NewTaskView(*task))
}

// UpdateMany handles PUT /api/tasks. Each listed task's editable fields are
// replaced; status, logs, and accumulated transaction data are preserved so
// an edit never erases a checkout in flight.
func (h *TaskHandler) UpdateMany(w http.ResponseWriter, r *http.Request) {
	var req UpdateTasksRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	views := make([]TaskView, 0, len(req.Tasks))
	for _, update := range req.Tasks {
		task, err := h.registry.Find(update.ID)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}

		task.Name = update.Name
		task.Profile.Name = update.ProfileName
		task.Profile.Email = update.Email
		task.Profile.Password = update.Password
		task.Sku = update.Sku
		task.Sizes = sizesFromPayload(update.Sizes)
		task.Delay = time.Duration(update.DelayMs) * time.Millisecond
		task.PlaceOrderAt = update.PlaceOrderAt
		task.ProxyGroup = update.ProxyGroup
		task.Webhook = update.Webhook
		task.AutoCheckout = update.AutoCheckout
		task.UpdatedAt = time.Now().UTC()

		if err := task.Validate(); err != nil {
			HandleAPIError(w, r, err, "")
			return
		}

		if err := h.registry.Replace(task); err != nil {
			HandleAPIError(w, r, err, "")
			return
		}

		views = append(views, NewTaskView(task))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, views)
}

// Start handles POST /api/tasks/{id}/start.
func (h *TaskHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.engine.Start)
}

// Stop handles POST /api/tasks/{id}/stop.
func (h *TaskHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.engine.Stop)
}

// Verify handles POST /api/tasks/{id}/verify.
func (h *TaskHandler) Verify(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.engine.Verify)
}

// Delete handles DELETE /api/tasks/{id}. A running task is stopped before its
// record is removed.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	taskID, ok := h.pathTaskID(w, r)
	if !ok {
		return
	}

	if err := h.engine.Stop(taskID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := h.registry.Remove(taskID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// command runs one engine operation against the task named in the path and
// responds with the task's refreshed view.
func (h *TaskHandler) command(w http.ResponseWriter, r *http.Request, op func(uuid.UUID) error) {
	taskID, ok := h.pathTaskID(w, r)
	if !ok {
		return
	}

	if err := op(taskID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.registry.Find(taskID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskView(task))
}

func (h *TaskHandler) pathTaskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	taskID, err := uuid.Parse(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return uuid.Nil, false
	}
	return taskID, true
}

func sizesFromPayload(sizes []SizePayload) []domain.SizeOption {
	out := make([]domain.SizeOption, len(sizes))
	for i, s := range sizes {
		out[i] = domain.SizeOption{
			Label:       s.Label,
			AttributeID: s.AttributeID,
			Value:       s.Value,
		}
	}
	return out
}
