// Package service implements the scheduling core: conflict detection,
// all-or-nothing resource allocation, time-change validation, and
// utilization reporting, together with validation and orchestration of
// the CRUD operations the HTTP layer exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Shanmugapriyan-TJ/EventFlow/internal/model"
	"github.com/Shanmugapriyan-TJ/EventFlow/internal/repository"
)

// ErrInvalidRequest is returned for malformed or missing input. The
// wrapped message names the offending field.
var ErrInvalidRequest = errors.New("invalid request")

// ErrInvalidTimeWindow is returned when a window's end does not come
// strictly after its start.
var ErrInvalidTimeWindow = errors.New("end time must be after start time; zero-duration events are not allowed")

// ResourceConflict pairs a resource with the events it is already
// booked for inside a contested window.
type ResourceConflict struct {
	Resource model.Resource `json:"resource"`
	Events   []model.Event  `json:"conflicting_events"`
}

// ConflictError reports which requested resources collided with which
// events. It is an expected outcome the caller branches on, not a
// fault.
type ConflictError struct {
	Conflicts []ResourceConflict
}

func (e *ConflictError) Error() string {
	names := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		names = append(names, c.Resource.Name)
	}
	return fmt.Sprintf("scheduling conflict on: %s", strings.Join(names, ", "))
}

// Scheduler is the core scheduling service. All mutations run inside a
// single storage transaction; the conflict check-then-act sequences
// additionally lock the involved resource rows so that concurrent
// bookings of the same resource are serialized.
type Scheduler struct {
	store repository.Store
	now   func() time.Time
}

// NewScheduler constructs a Scheduler backed by the given store.
func NewScheduler(store repository.Store) *Scheduler {
	return &Scheduler{store: store, now: time.Now}
}

// Stats summarizes the system for the dashboard.
type Stats struct {
	Events    int           `json:"events"`
	Resources int           `json:"resources"`
	Conflicts int           `json:"conflicts"`
	Recent    []model.Event `json:"recent_events"`
}

// Stats returns entity counts, the number of currently double-booked
// pairs, and the five most recent events by start time.
func (s *Scheduler) Stats(ctx context.Context) (*Stats, error) {
	events, err := s.store.CountEvents(ctx)
	if err != nil {
		return nil, err
	}
	resources, err := s.store.CountResources(ctx)
	if err != nil {
		return nil, err
	}
	conflicts, err := s.AllConflicts(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.store.RecentEvents(ctx, 5)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Events:    events,
		Resources: resources,
		Conflicts: len(conflicts),
		Recent:    recent,
	}, nil
}

func errMissing(field string) error {
	return fmt.Errorf("%w: %s is required", ErrInvalidRequest, field)
}

// validateWindow enforces the start < end invariant shared by events
// and reporting ranges.
func validateWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start_time and end_time are required", ErrInvalidRequest)
	}
	if !start.Before(end) {
		return ErrInvalidTimeWindow
	}
	return nil
}

func sortedByStart(events []model.Event) []model.Event {
	out := make([]model.Event, len(events))
	copy(out, events)
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}
