// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the scheduling service.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Shanmugapriyan-TJ/EventFlow/internal/model"
	"github.com/Shanmugapriyan-TJ/EventFlow/internal/repository"
	"github.com/Shanmugapriyan-TJ/EventFlow/internal/service"
)

// SchedulerHandler holds all HTTP handlers for the scheduling API.
type SchedulerHandler struct {
	svc *service.Scheduler
}

// NewSchedulerHandler constructs a SchedulerHandler.
func NewSchedulerHandler(svc *service.Scheduler) *SchedulerHandler {
	return &SchedulerHandler{svc: svc}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// conflictResponse is the 409 body: the error message plus the full
// resource-to-conflicting-events map so clients can render specifics.
type conflictResponse struct {
	Error     string                     `json:"error"`
	Conflicts []service.ResourceConflict `json:"conflicts"`
}

// writeServiceError maps service errors to HTTP statuses. A conflict
// is an expected outcome, not a fault: it gets a structured 409.
func writeServiceError(w http.ResponseWriter, err error) {
	var conflictErr *service.ConflictError
	switch {
	case errors.As(err, &conflictErr):
		writeJSON(w, http.StatusConflict, conflictResponse{
			Error:     conflictErr.Error(),
			Conflicts: conflictErr.Conflicts,
		})
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrInvalidTimeWindow):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// timeLayouts accepted for query parameters, most specific first.
// Timezone-naive layouts parse in UTC; values are compared verbatim
// with no normalization.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing %s parameter", name)
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid %s: %q is not a recognized date/time", name, raw)
}

// ─── Dashboard ────────────────────────────────────────────────────────────────

// Stats handles GET /stats
// Returns entity counts, the current conflict count, and recent events.
func (h *SchedulerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if stats.Recent == nil {
		stats.Recent = []model.Event{}
	}
	writeJSON(w, http.StatusOK, stats)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
