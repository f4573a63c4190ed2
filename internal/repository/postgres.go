package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shanmugapriyan-TJ/EventFlow/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS events (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	start_time  TIMESTAMP NOT NULL,
	end_time    TIMESTAMP NOT NULL,
	created_at  TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS resources (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	type       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS allocations (
	id          TEXT PRIMARY KEY,
	event_id    TEXT NOT NULL REFERENCES events(id),
	resource_id TEXT NOT NULL REFERENCES resources(id),
	created_at  TIMESTAMP NOT NULL,
	UNIQUE (event_id, resource_id)
);
`

// pgQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, letting the
// same query methods run inside or outside a transaction.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is the pgx-backed Store. Concurrent check-then-act
// sequences are serialized per resource via SELECT ... FOR UPDATE row
// locks taken by LockResource inside InTx.
type Postgres struct {
	pool *pgxpool.Pool
	q    pgQuerier
	tx   pgx.Tx
}

var _ Store = (*Postgres)(nil)

// NewPostgres bootstraps the schema and returns a pool-backed store.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Postgres{pool: pool, q: pool}, nil
}

// InTx begins a transaction and runs fn against a transaction-bound
// view. A nested call on that view joins the open transaction.
func (s *Postgres) InTx(ctx context.Context, fn func(tx Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txStore := &Postgres{pool: s.pool, q: tx, tx: tx}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Postgres) CreateEvent(ctx context.Context, e *model.Event) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO events (id, title, description, start_time, end_time, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Title, e.Description, e.StartTime, e.EndTime, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *Postgres) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	err := s.q.QueryRow(ctx,
		`SELECT id, title, description, start_time, end_time, created_at
		 FROM events WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Title, &e.Description, &e.StartTime, &e.EndTime, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

func (s *Postgres) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.queryEvents(ctx,
		`SELECT id, title, description, start_time, end_time, created_at
		 FROM events ORDER BY start_time ASC`)
}

func (s *Postgres) RecentEvents(ctx context.Context, limit int) ([]model.Event, error) {
	return s.queryEvents(ctx,
		`SELECT id, title, description, start_time, end_time, created_at
		 FROM events ORDER BY start_time DESC LIMIT $1`, limit)
}

func (s *Postgres) queryEvents(ctx context.Context, sql string, args ...any) ([]model.Event, error) {
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.StartTime, &e.EndTime, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *Postgres) UpdateEvent(ctx context.Context, e *model.Event) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE events SET title = $2, description = $3, start_time = $4, end_time = $5
		 WHERE id = $1`,
		e.ID, e.Title, e.Description, e.StartTime, e.EndTime,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) UpdateEventWindow(ctx context.Context, id string, start, end time.Time) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE events SET start_time = $2, end_time = $3 WHERE id = $1`,
		id, start, end,
	)
	if err != nil {
		return fmt.Errorf("update event window: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteEvent(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func (s *Postgres) CreateResource(ctx context.Context, r *model.Resource) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO resources (id, name, type, created_at) VALUES ($1, $2, $3, $4)`,
		r.ID, r.Name, string(r.Type), r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

func (s *Postgres) GetResource(ctx context.Context, id string) (*model.Resource, error) {
	var r model.Resource
	err := s.q.QueryRow(ctx,
		`SELECT id, name, type, created_at FROM resources WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.Name, &r.Type, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get resource: %w", err)
	}
	return &r, nil
}

func (s *Postgres) ListResources(ctx context.Context) ([]model.Resource, error) {
	rows, err := s.q.Query(ctx,
		`SELECT id, name, type, created_at FROM resources ORDER BY type, name`)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	var resources []model.Resource
	for rows.Next() {
		var r model.Resource
		if err := rows.Scan(&r.ID, &r.Name, &r.Type, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

func (s *Postgres) UpdateResource(ctx context.Context, r *model.Resource) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE resources SET name = $2, type = $3 WHERE id = $1`,
		r.ID, r.Name, string(r.Type),
	)
	if err != nil {
		return fmt.Errorf("update resource: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteResource(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) CountResources(ctx context.Context) (int, error) {
	var n int
	if err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM resources`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count resources: %w", err)
	}
	return n, nil
}

// LockResource acquires an exclusive row-level lock on the resource so
// that concurrent booking attempts against it block until this
// transaction commits or rolls back.
func (s *Postgres) LockResource(ctx context.Context, id string) error {
	var got string
	err := s.q.QueryRow(ctx,
		`SELECT id FROM resources WHERE id = $1 FOR UPDATE`, id,
	).Scan(&got)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock resource row: %w", err)
	}
	return nil
}

func (s *Postgres) CreateAllocation(ctx context.Context, a *model.Allocation) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO allocations (id, event_id, resource_id, created_at)
		 VALUES ($1, $2, $3, $4)`,
		a.ID, a.EventID, a.ResourceID, a.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("insert allocation: %w", err)
	}
	return nil
}

func (s *Postgres) GetAllocation(ctx context.Context, id string) (*model.Allocation, error) {
	var (
		a model.Allocation
		e model.Event
		r model.Resource
	)
	err := s.q.QueryRow(ctx,
		`SELECT a.id, a.event_id, a.resource_id, a.created_at,
		        e.id, e.title, e.description, e.start_time, e.end_time, e.created_at,
		        r.id, r.name, r.type, r.created_at
		 FROM allocations a
		 JOIN events e ON e.id = a.event_id
		 JOIN resources r ON r.id = a.resource_id
		 WHERE a.id = $1`,
		id,
	).Scan(
		&a.ID, &a.EventID, &a.ResourceID, &a.CreatedAt,
		&e.ID, &e.Title, &e.Description, &e.StartTime, &e.EndTime, &e.CreatedAt,
		&r.ID, &r.Name, &r.Type, &r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get allocation: %w", err)
	}
	a.Event = &e
	a.Resource = &r
	return &a, nil
}

func (s *Postgres) DeleteAllocation(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM allocations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete allocation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) AllocationsForResource(ctx context.Context, resourceID string) ([]model.Allocation, error) {
	rows, err := s.q.Query(ctx,
		`SELECT a.id, a.event_id, a.resource_id, a.created_at,
		        e.id, e.title, e.description, e.start_time, e.end_time, e.created_at
		 FROM allocations a
		 JOIN events e ON e.id = a.event_id
		 WHERE a.resource_id = $1
		 ORDER BY a.created_at ASC`,
		resourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("list allocations for resource: %w", err)
	}
	defer rows.Close()

	var allocs []model.Allocation
	for rows.Next() {
		var (
			a model.Allocation
			e model.Event
		)
		if err := rows.Scan(
			&a.ID, &a.EventID, &a.ResourceID, &a.CreatedAt,
			&e.ID, &e.Title, &e.Description, &e.StartTime, &e.EndTime, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		a.Event = &e
		allocs = append(allocs, a)
	}
	return allocs, rows.Err()
}

func (s *Postgres) AllocationsForEvent(ctx context.Context, eventID string) ([]model.Allocation, error) {
	rows, err := s.q.Query(ctx,
		`SELECT a.id, a.event_id, a.resource_id, a.created_at,
		        r.id, r.name, r.type, r.created_at
		 FROM allocations a
		 JOIN resources r ON r.id = a.resource_id
		 WHERE a.event_id = $1
		 ORDER BY a.created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list allocations for event: %w", err)
	}
	defer rows.Close()

	var allocs []model.Allocation
	for rows.Next() {
		var (
			a model.Allocation
			r model.Resource
		)
		if err := rows.Scan(
			&a.ID, &a.EventID, &a.ResourceID, &a.CreatedAt,
			&r.ID, &r.Name, &r.Type, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		a.Resource = &r
		allocs = append(allocs, a)
	}
	return allocs, rows.Err()
}

func (s *Postgres) Close() error {
	if s.tx == nil {
		s.pool.Close()
	}
	return nil
}
