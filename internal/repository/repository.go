// Package repository implements persistence for events, resources, and
// allocations. Three backends are provided behind a single Store
// interface: PostgreSQL (pgx), embedded SQLite, and an in-memory store
// used by tests and ephemeral runs.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shanmugapriyan-TJ/EventFlow/internal/config"
	"github.com/Shanmugapriyan-TJ/EventFlow/internal/database"
	"github.com/Shanmugapriyan-TJ/EventFlow/internal/model"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an allocation for the same
// (event, resource) pair already exists.
var ErrDuplicate = errors.New("resource already allocated to this event")

// Store is the persistence contract the scheduling core depends on.
//
// InTx runs fn against a transactional view of the store and commits
// only when fn returns nil; any error rolls every write back. The
// check-then-act sequences of the core (batch allocation, time-change
// validation, cascade deletes) all execute inside InTx.
type Store interface {
	InTx(ctx context.Context, fn func(tx Store) error) error

	CreateEvent(ctx context.Context, e *model.Event) error
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	// ListEvents returns all events ordered by start time ascending.
	ListEvents(ctx context.Context) ([]model.Event, error)
	// RecentEvents returns up to limit events ordered by start time descending.
	RecentEvents(ctx context.Context, limit int) ([]model.Event, error)
	UpdateEvent(ctx context.Context, e *model.Event) error
	UpdateEventWindow(ctx context.Context, id string, start, end time.Time) error
	DeleteEvent(ctx context.Context, id string) error
	CountEvents(ctx context.Context) (int, error)

	CreateResource(ctx context.Context, r *model.Resource) error
	GetResource(ctx context.Context, id string) (*model.Resource, error)
	// ListResources returns all resources ordered by (type, name).
	ListResources(ctx context.Context) ([]model.Resource, error)
	UpdateResource(ctx context.Context, r *model.Resource) error
	DeleteResource(ctx context.Context, id string) error
	CountResources(ctx context.Context) (int, error)

	// LockResource serializes concurrent writers touching the same
	// resource for the remainder of the enclosing transaction. It
	// returns ErrNotFound when the resource does not exist.
	LockResource(ctx context.Context, id string) error

	// CreateAllocation fails with ErrDuplicate when the
	// (event, resource) pair is already allocated.
	CreateAllocation(ctx context.Context, a *model.Allocation) error
	GetAllocation(ctx context.Context, id string) (*model.Allocation, error)
	DeleteAllocation(ctx context.Context, id string) error
	// AllocationsForResource returns the resource's allocations with
	// Event resolved on each.
	AllocationsForResource(ctx context.Context, resourceID string) ([]model.Allocation, error)
	// AllocationsForEvent returns the event's allocations with
	// Resource resolved on each.
	AllocationsForEvent(ctx context.Context, eventID string) ([]model.Allocation, error)

	Close() error
}

// Open selects a backend from the storage configuration.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemory(), nil
	case config.DriverSQLite, "":
		return NewSQLite(cfg.SQLitePath)
	case config.DriverPostgres:
		pool, err := database.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return NewPostgres(ctx, pool)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
