package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shaiso/Courier/internal/faults"
	"github.com/shaiso/Courier/internal/tasks"
	"github.com/shaiso/Courier/internal/telemetry"
)

// Health — GET /healthz
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateTask — POST /api/tasks
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "", "invalid JSON body")
		return
	}

	res, err := h.tasks.CreateTask(r.Context(), req)
	if err != nil {
		var verr *tasks.ValidationError
		if errors.As(err, &verr) {
			BadRequest(w, verr.Field, verr.Message)
			return
		}

		telemetry.FromContext(r.Context()).Error("failed to create task", "error", err)
		JSON(w, http.StatusInternalServerError, FailureResponse{
			Message: "Failed to create task",
			Error:   faults.Classify(err).Message,
		})
		return
	}

	JSON(w, http.StatusCreated, res)
}

// DeleteTask — DELETE /api/tasks/{id}
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.tasks.DeleteTask(r.Context(), id)
	switch {
	case errors.Is(err, tasks.ErrTaskNotFound):
		JSON(w, http.StatusNotFound, NotFoundResponse{
			Success: false,
			Message: fmt.Sprintf("Job with id=%s not found", id),
		})
		return
	case err != nil:
		telemetry.FromContext(r.Context()).Error("failed to delete job", "job_id", id, "error", err)
		JSON(w, http.StatusInternalServerError, FailureResponse{
			Message: fmt.Sprintf("Failed to delete job with id=%s", id),
			Error:   err.Error(),
		})
		return
	}

	if !result.Success {
		JSON(w, http.StatusInternalServerError, result)
		return
	}
	JSON(w, http.StatusOK, result)
}

// ClearQueue — DELETE /api/queue
func (h *Handler) ClearQueue(w http.ResponseWriter, r *http.Request) {
	result := h.tasks.ClearQueue(r.Context())
	if !result.Success {
		telemetry.FromContext(r.Context()).Error("Failed to clear jobs queue", "error", result.Error)
		JSON(w, http.StatusInternalServerError, result)
		return
	}
	JSON(w, http.StatusOK, result)
}
