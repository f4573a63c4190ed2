package service

import (
	"context"
	"math"
	"time"

	"github.com/Shanmugapriyan-TJ/EventFlow/internal/model"
)

// UtilizationReport holds a resource's booked hours within a reporting
// range and its future bookings. BookedHours is rounded to two decimal
// places at this boundary; accumulation is full-precision. The
// utilization percentage is a presentation value derived by the caller
// from BookedHours and the range span.
type UtilizationReport struct {
	Resource    model.Resource `json:"resource"`
	BookedHours float64        `json:"booked_hours"`
	Upcoming    []model.Event  `json:"upcoming"`
}

// Utilization computes a resource's booked hours within
// [rangeStart, rangeEnd]: each allocated event's window is clipped to
// the range and the clipped duration accumulated when non-empty.
// Upcoming collects every allocated event starting strictly after now,
// sorted ascending by start time, whether or not it falls in the range.
func (s *Scheduler) Utilization(ctx context.Context, resourceID string, rangeStart, rangeEnd time.Time) (*UtilizationReport, error) {
	if resourceID == "" {
		return nil, errMissing("resource id")
	}
	if err := validateWindow(rangeStart, rangeEnd); err != nil {
		return nil, err
	}

	resource, err := s.store.GetResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	allocs, err := s.store.AllocationsForResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var hours float64
	var upcoming []model.Event
	for _, alloc := range allocs {
		event := alloc.Event

		clippedStart := maxTime(event.StartTime, rangeStart)
		clippedEnd := minTime(event.EndTime, rangeEnd)
		if clippedStart.Before(clippedEnd) {
			hours += clippedEnd.Sub(clippedStart).Hours()
		}

		if event.StartTime.After(now) {
			upcoming = append(upcoming, *event)
		}
	}

	return &UtilizationReport{
		Resource:    *resource,
		BookedHours: math.Round(hours*100) / 100,
		Upcoming:    sortedByStart(upcoming),
	}, nil
}

// UtilizationAll computes the utilization report for every resource,
// in (type, name) order.
func (s *Scheduler) UtilizationAll(ctx context.Context, rangeStart, rangeEnd time.Time) ([]UtilizationReport, error) {
	if err := validateWindow(rangeStart, rangeEnd); err != nil {
		return nil, err
	}
	resources, err := s.store.ListResources(ctx)
	if err != nil {
		return nil, err
	}

	reports := make([]UtilizationReport, 0, len(resources))
	for _, resource := range resources {
		report, err := s.Utilization(ctx, resource.ID, rangeStart, rangeEnd)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
