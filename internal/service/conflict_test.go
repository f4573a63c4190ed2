package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Shanmugapriyan-TJ/EventFlow/internal/model"
	"github.com/Shanmugapriyan-TJ/EventFlow/internal/repository"
)

func allocationFor(eventID, resourceID string, n int) *model.Allocation {
	return &model.Allocation{
		ID:         fmt.Sprintf("alloc-%d", n),
		EventID:    eventID,
		ResourceID: resourceID,
		CreatedAt:  testNow,
	}
}

func TestFindConflicts(t *testing.T) {
	s, _ := newTestScheduler(t)
	ctx := context.Background()

	booked := mustCreateEvent(t, s, "Booked", at(9, 0), at(11, 0))
	room := mustCreateResource(t, s, "Room X")
	mustAllocate(t, s, booked.ID, room.ID)

	conflicts, err := s.FindConflicts(ctx, room.ID, at(10, 0), at(12, 0), "")
	if err != nil {
		t.Fatalf("find conflicts: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].ID != booked.ID {
		t.Errorf("expected the booked event as the only conflict, got %+v", conflicts)
	}

	// Touching window: no conflict.
	conflicts, err = s.FindConflicts(ctx, room.ID, at(11, 0), at(12, 0), "")
	if err != nil {
		t.Fatalf("find conflicts: %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("touching window reported conflicts: %+v", conflicts)
	}

	// Excluding the booked event hides its own booking.
	conflicts, err = s.FindConflicts(ctx, room.ID, at(10, 0), at(12, 0), booked.ID)
	if err != nil {
		t.Fatalf("find conflicts: %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("excluded event still reported: %+v", conflicts)
	}
}

func TestFindConflictsUnknownResource(t *testing.T) {
	s, _ := newTestScheduler(t)
	_, err := s.FindConflicts(context.Background(), "nope", at(9, 0), at(10, 0), "")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestAllConflictsReportsEachPairOnce(t *testing.T) {
	s, _ := newTestScheduler(t)
	ctx := context.Background()

	// Three events on one resource; only the first and third overlap.
	// The middle one touches both boundaries.
	first := mustCreateEvent(t, s, "First", at(9, 0), at(10, 30))
	middle := mustCreateEvent(t, s, "Middle", at(10, 30), at(11, 0))
	third := mustCreateEvent(t, s, "Third", at(10, 0), at(10, 30))
	room := mustCreateResource(t, s, "Room X")

	// first/third would collide through Allocate, so link them directly.
	store := s.store
	for i, ev := range []string{first.ID, middle.ID, third.ID} {
		if err := store.CreateAllocation(ctx, allocationFor(ev, room.ID, i)); err != nil {
			t.Fatalf("seed allocation: %v", err)
		}
	}

	conflicts, err := s.AllConflicts(ctx)
	if err != nil {
		t.Fatalf("all conflicts: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("expected exactly one conflict triple, got %d: %+v", len(conflicts), conflicts)
	}
	c := conflicts[0]
	if c.Resource.ID != room.ID {
		t.Errorf("conflict names resource %s, want %s", c.Resource.ID, room.ID)
	}
	got := map[string]bool{c.EventA.ID: true, c.EventB.ID: true}
	if !got[first.ID] || !got[third.ID] {
		t.Errorf("conflict pairs %q and %q, want First and Third", c.EventA.Title, c.EventB.Title)
	}
	_ = middle
}
