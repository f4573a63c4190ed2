package service

import (
	"context"
	"strings"
	"time"

	"github.com/Shanmugapriyan-TJ/EventFlow/internal/metrics"
	"github.com/Shanmugapriyan-TJ/EventFlow/internal/model"
	"github.com/Shanmugapriyan-TJ/EventFlow/internal/repository"
)

// FindConflicts returns every event whose booking of the resource
// overlaps the candidate window [start, end). When excludeEventID is
// non-empty, that event's own booking is skipped; this is used when an
// event under edit is re-checked against its existing allocation.
//
// The result carries no ordering guarantee; callers needing
// determinism sort, e.g. by start time.
func (s *Scheduler) FindConflicts(ctx context.Context, resourceID string, start, end time.Time, excludeEventID string) ([]model.Event, error) {
	if strings.TrimSpace(resourceID) == "" {
		return nil, errMissing("resource_id")
	}
	if err := validateWindow(start, end); err != nil {
		return nil, err
	}
	if _, err := s.store.GetResource(ctx, resourceID); err != nil {
		return nil, err
	}
	return s.findConflicts(ctx, s.store, resourceID, start, end, excludeEventID)
}

// findConflicts is the scanner shared by the read-only query and the
// transactional check-then-act paths; tx may be the plain store or a
// transaction view.
func (s *Scheduler) findConflicts(ctx context.Context, tx repository.Store, resourceID string, start, end time.Time, excludeEventID string) ([]model.Event, error) {
	metrics.ConflictChecks.Inc()

	allocs, err := tx.AllocationsForResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	var conflicts []model.Event
	for _, alloc := range allocs {
		if excludeEventID != "" && alloc.EventID == excludeEventID {
			continue
		}
		event := alloc.Event
		if Overlap(start, end, event.StartTime, event.EndTime) {
			conflicts = append(conflicts, *event)
		}
	}
	return conflicts, nil
}

// Conflict is one double-booking: a resource allocated to two events
// whose windows overlap.
type Conflict struct {
	Resource model.Resource `json:"resource"`
	EventA   model.Event    `json:"event_a"`
	EventB   model.Event    `json:"event_b"`
}

// AllConflicts enumerates every double-booked (resource, event, event)
// triple system-wide, examining each unordered pair of events per
// resource exactly once. The scan is quadratic in the bookings of a
// resource; booking counts per resource are small in this domain, so
// no pagination or limit is applied.
func (s *Scheduler) AllConflicts(ctx context.Context) ([]Conflict, error) {
	resources, err := s.store.ListResources(ctx)
	if err != nil {
		return nil, err
	}

	var conflicts []Conflict
	for _, resource := range resources {
		allocs, err := s.store.AllocationsForResource(ctx, resource.ID)
		if err != nil {
			return nil, err
		}
		events := make([]model.Event, 0, len(allocs))
		for _, alloc := range allocs {
			events = append(events, *alloc.Event)
		}
		for i := 0; i < len(events); i++ {
			for j := i + 1; j < len(events); j++ {
				if Overlap(events[i].StartTime, events[i].EndTime, events[j].StartTime, events[j].EndTime) {
					conflicts = append(conflicts, Conflict{
						Resource: resource,
						EventA:   events[i],
						EventB:   events[j],
					})
				}
			}
		}
	}
	return conflicts, nil
}
