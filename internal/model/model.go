// Package model defines the core domain types for the scheduling and
// resource allocation system.
package model

import "time"

// ResourceType is the closed set of bookable resource kinds.
type ResourceType string

const (
	ResourceRoom       ResourceType = "room"
	ResourceInstructor ResourceType = "instructor"
	ResourceEquipment  ResourceType = "equipment"
)

// Valid reports whether t is a member of the resource type enumeration.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourceRoom, ResourceInstructor, ResourceEquipment:
		return true
	}
	return false
}

// Event represents a scheduled event occupying the half-open time
// window [StartTime, EndTime). StartTime is always strictly before EndTime.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	CreatedAt   time.Time `json:"created_at"`
}

// DurationHours returns the event's duration in hours.
func (e *Event) DurationHours() float64 {
	return e.EndTime.Sub(e.StartTime).Hours()
}

// Resource represents a bookable resource. Each resource is a single
// exclusive unit: it can serve at most one event at any instant.
type Resource struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Type      ResourceType `json:"type"`
	CreatedAt time.Time    `json:"created_at"`
}

// Allocation links exactly one resource to exactly one event. The pair
// (EventID, ResourceID) is unique. Event and Resource are populated on
// reads that resolve the link eagerly.
type Allocation struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	ResourceID string    `json:"resource_id"`
	CreatedAt  time.Time `json:"created_at"`

	Event    *Event    `json:"event,omitempty"`
	Resource *Resource `json:"resource,omitempty"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

// UpdateEventRequest is the payload for editing an existing event. A
// changed window triggers conflict re-validation of the event's
// allocations; title and description edits never do.
type UpdateEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

// CreateResourceRequest is the payload for creating a new resource.
type CreateResourceRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// AllocateRequest is the payload for the batch allocation operation.
type AllocateRequest struct {
	EventID     string   `json:"event_id"`
	ResourceIDs []string `json:"resource_ids"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
