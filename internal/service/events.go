package service

import (
	"context"
	"strings"
	"time"

	"github.com/Shanmugapriyan-TJ/EventFlow/internal/model"
	"github.com/Shanmugapriyan-TJ/EventFlow/internal/repository"
	"github.com/google/uuid"
)

// CreateEvent validates the request and persists a new event.
func (s *Scheduler) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, errMissing("title")
	}
	if err := validateWindow(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	event := &model.Event{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// GetEvent returns a single event by id.
func (s *Scheduler) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, errMissing("event id")
	}
	return s.store.GetEvent(ctx, id)
}

// ListEvents returns all events ordered by start time.
func (s *Scheduler) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.store.ListEvents(ctx)
}

// EventAllocations returns the event's allocations with resources resolved.
func (s *Scheduler) EventAllocations(ctx context.Context, id string) ([]model.Allocation, error) {
	if _, err := s.store.GetEvent(ctx, id); err != nil {
		return nil, err
	}
	return s.store.AllocationsForEvent(ctx, id)
}

// UpdateEvent edits an event. When the proposed window differs from
// the stored one, every allocated resource is re-checked against the
// new window before anything is written; any conflict rejects the
// whole edit. Title and description edits never trigger the check.
func (s *Scheduler) UpdateEvent(ctx context.Context, id string, req model.UpdateEventRequest) (*model.Event, error) {
	if id == "" {
		return nil, errMissing("event id")
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, errMissing("title")
	}
	if err := validateWindow(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	return s.applyEventUpdate(ctx, id, req.StartTime, req.EndTime, func(e *model.Event) {
		e.Title = req.Title
		e.Description = strings.TrimSpace(req.Description)
	})
}

// ChangeEventWindow moves an event to a new window, leaving all other
// fields and its allocations untouched. Validation is identical to
// UpdateEvent's window path.
func (s *Scheduler) ChangeEventWindow(ctx context.Context, id string, start, end time.Time) (*model.Event, error) {
	if id == "" {
		return nil, errMissing("event id")
	}
	if err := validateWindow(start, end); err != nil {
		return nil, err
	}
	return s.applyEventUpdate(ctx, id, start, end, nil)
}

// applyEventUpdate is the time-change guard. It runs inside one
// transaction: when the window changes, each allocated resource is
// locked and scanned against the new window with the event itself
// excluded (it is being edited, not newly booked). A conflict on any
// resource aborts before a single write, so the stored window and all
// allocations stay untouched.
func (s *Scheduler) applyEventUpdate(ctx context.Context, id string, start, end time.Time, apply func(*model.Event)) (*model.Event, error) {
	var updated *model.Event
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		event, err := tx.GetEvent(ctx, id)
		if err != nil {
			return err
		}

		windowChanged := !start.Equal(event.StartTime) || !end.Equal(event.EndTime)
		if windowChanged {
			allocs, err := tx.AllocationsForEvent(ctx, id)
			if err != nil {
				return err
			}

			var conflicts []ResourceConflict
			for _, alloc := range allocs {
				if err := tx.LockResource(ctx, alloc.ResourceID); err != nil {
					return err
				}
				events, err := s.findConflicts(ctx, tx, alloc.ResourceID, start, end, id)
				if err != nil {
					return err
				}
				if len(events) == 0 {
					continue
				}
				resource := alloc.Resource
				if resource == nil {
					if resource, err = tx.GetResource(ctx, alloc.ResourceID); err != nil {
						return err
					}
				}
				conflicts = append(conflicts, ResourceConflict{
					Resource: *resource,
					Events:   sortedByStart(events),
				})
			}
			if len(conflicts) > 0 {
				return &ConflictError{Conflicts: conflicts}
			}
		}

		event.StartTime = start
		event.EndTime = end
		if apply == nil {
			if err := tx.UpdateEventWindow(ctx, id, start, end); err != nil {
				return err
			}
		} else {
			apply(event)
			if err := tx.UpdateEvent(ctx, event); err != nil {
				return err
			}
		}
		updated = event
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteEvent removes an event, deleting its allocations first inside
// the same transaction.
func (s *Scheduler) DeleteEvent(ctx context.Context, id string) error {
	if id == "" {
		return errMissing("event id")
	}
	return s.store.InTx(ctx, func(tx repository.Store) error {
		allocs, err := tx.AllocationsForEvent(ctx, id)
		if err != nil {
			return err
		}
		for _, alloc := range allocs {
			if err := tx.DeleteAllocation(ctx, alloc.ID); err != nil {
				return err
			}
		}
		return tx.DeleteEvent(ctx, id)
	})
}
