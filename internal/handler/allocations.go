package handler

import (
	"net/http"
	"sort"

	"github.com/Shanmugapriyan-TJ/EventFlow/internal/model"
	"github.com/go-chi/chi/v5"
)

// Allocate handles POST /allocations
// Assigns a batch of resources to an event, all or nothing. Conflicts
// come back as a 409 whose body maps each rejected resource to its
// conflicting events.
func (h *SchedulerHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	var req model.AllocateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	allocated, err := h.svc.Allocate(r.Context(), req.EventID, req.ResourceIDs)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if allocated == nil {
		allocated = []model.Resource{}
	}
	writeJSON(w, http.StatusCreated, map[string]any{"allocated": allocated})
}

// Deallocate handles DELETE /allocations/{id}
func (h *SchedulerHandler) Deallocate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Deallocate(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListConflicts handles GET /conflicts
// Returns every double-booked (resource, event, event) triple.
func (h *SchedulerHandler) ListConflicts(w http.ResponseWriter, r *http.Request) {
	conflicts, err := h.svc.AllConflicts(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(conflicts),
		"conflicts": conflicts,
	})
}

// CheckConflict handles GET /conflicts/check
// Query parameters: resource_id, start, end, and optionally
// exclude_event_id. Returns the conflicting events sorted by start time.
func (h *SchedulerHandler) CheckConflict(w http.ResponseWriter, r *http.Request) {
	resourceID := r.URL.Query().Get("resource_id")
	start, err := parseTimeParam(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseTimeParam(r, "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := h.svc.FindConflicts(r.Context(), resourceID, start, end, r.URL.Query().Get("exclude_event_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// The scanner carries no ordering guarantee; sort for the client.
	sort.Slice(events, func(i, j int) bool { return events[i].StartTime.Before(events[j].StartTime) })
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"conflicting_events": events})
}
