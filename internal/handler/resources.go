package handler

import (
	"net/http"

	"github.com/Shanmugapriyan-TJ/EventFlow/internal/model"
	"github.com/go-chi/chi/v5"
)

// CreateResource handles POST /resources
func (h *SchedulerHandler) CreateResource(w http.ResponseWriter, r *http.Request) {
	var req model.CreateResourceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resource, err := h.svc.CreateResource(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resource)
}

// ListResources handles GET /resources
func (h *SchedulerHandler) ListResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.svc.ListResources(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if resources == nil {
		resources = []model.Resource{}
	}
	writeJSON(w, http.StatusOK, resources)
}

// GetResource handles GET /resources/{id}
func (h *SchedulerHandler) GetResource(w http.ResponseWriter, r *http.Request) {
	resource, err := h.svc.GetResource(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resource)
}

// UpdateResource handles PUT /resources/{id}
func (h *SchedulerHandler) UpdateResource(w http.ResponseWriter, r *http.Request) {
	var req model.CreateResourceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resource, err := h.svc.UpdateResource(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resource)
}

// DeleteResource handles DELETE /resources/{id}
// The resource's allocations are removed in the same transaction.
func (h *SchedulerHandler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteResource(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListResourceAllocations handles GET /resources/{id}/allocations
func (h *SchedulerHandler) ListResourceAllocations(w http.ResponseWriter, r *http.Request) {
	allocs, err := h.svc.ResourceAllocations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if allocs == nil {
		allocs = []model.Allocation{}
	}
	writeJSON(w, http.StatusOK, allocs)
}
