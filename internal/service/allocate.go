package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Shanmugapriyan-TJ/EventFlow/internal/metrics"
	"github.com/Shanmugapriyan-TJ/EventFlow/internal/model"
	"github.com/Shanmugapriyan-TJ/EventFlow/internal/repository"
	"github.com/google/uuid"
)

// Allocate assigns a batch of resources to an event, all or nothing.
//
// Every requested resource is checked against the event's window
// inside one transaction, with its row locked first so concurrent
// bookings of the same resource serialize. A resource already linked
// to this event is a silent no-op: it is neither re-added nor reported
// as a conflict. If any remaining resource collides with an existing
// booking, no allocation is created and the returned *ConflictError
// maps each conflicting resource to the events it is booked for.
// Otherwise every newly requested resource is allocated in a single
// atomic commit and the allocated resources are returned.
func (s *Scheduler) Allocate(ctx context.Context, eventID string, resourceIDs []string) ([]model.Resource, error) {
	if strings.TrimSpace(eventID) == "" {
		return nil, errMissing("event_id")
	}
	if len(resourceIDs) == 0 {
		return nil, errMissing("resource_ids")
	}

	var allocated []model.Resource
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}

		existing, err := tx.AllocationsForEvent(ctx, eventID)
		if err != nil {
			return err
		}
		linked := make(map[string]bool, len(existing))
		for _, alloc := range existing {
			linked[alloc.ResourceID] = true
		}

		seen := make(map[string]bool, len(resourceIDs))
		var conflicts []ResourceConflict
		var toAllocate []model.Resource
		for _, resourceID := range resourceIDs {
			if seen[resourceID] {
				continue
			}
			seen[resourceID] = true

			if err := tx.LockResource(ctx, resourceID); err != nil {
				return err
			}
			resource, err := tx.GetResource(ctx, resourceID)
			if err != nil {
				return err
			}
			if linked[resourceID] {
				continue
			}

			// The event is not yet linked to this resource, so
			// nothing is excluded from the scan.
			events, err := s.findConflicts(ctx, tx, resourceID, event.StartTime, event.EndTime, "")
			if err != nil {
				return err
			}
			if len(events) > 0 {
				conflicts = append(conflicts, ResourceConflict{
					Resource: *resource,
					Events:   sortedByStart(events),
				})
				continue
			}
			toAllocate = append(toAllocate, *resource)
		}

		if len(conflicts) > 0 {
			return &ConflictError{Conflicts: conflicts}
		}

		now := s.now().UTC()
		for _, resource := range toAllocate {
			alloc := &model.Allocation{
				ID:         uuid.New().String(),
				EventID:    event.ID,
				ResourceID: resource.ID,
				CreatedAt:  now,
			}
			if err := tx.CreateAllocation(ctx, alloc); err != nil {
				return err
			}
		}
		allocated = toAllocate
		return nil
	})

	var conflictErr *ConflictError
	switch {
	case err == nil:
		metrics.AllocationsTotal.WithLabelValues("allocated").Inc()
	case errors.As(err, &conflictErr):
		metrics.AllocationsTotal.WithLabelValues("conflict").Inc()
	default:
		metrics.AllocationsTotal.WithLabelValues("error").Inc()
	}
	if err != nil {
		return nil, err
	}
	return allocated, nil
}

// Deallocate removes a single allocation by id.
func (s *Scheduler) Deallocate(ctx context.Context, allocationID string) error {
	if strings.TrimSpace(allocationID) == "" {
		return errMissing("allocation id")
	}
	return s.store.DeleteAllocation(ctx, allocationID)
}
