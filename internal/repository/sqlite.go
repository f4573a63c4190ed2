package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shanmugapriyan-TJ/EventFlow/internal/model"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

const sqliteSchema = `
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

// sqQuerier is satisfied by both *sql.DB and *sql.Tx.
type sqQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLite is the embedded Store, the default backend. The connection
// pool is capped at a single connection so writers are serialized by
// the driver itself; LockResource therefore only has to verify
// existence.
type SQLite struct {
	db *sql.DB
	q  sqQuerier
	tx *sql.Tx
}

var _ Store = (*SQLite)(nil)

// NewSQLite opens (creating if needed) the database file and
// bootstraps the schema.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "scheduler.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db, q: db}, nil
}

func (s *SQLite) InTx(ctx context.Context, fn func(tx Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txStore := &SQLite{db: s.db, q: tx, tx: tx}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *SQLite) CreateEvent(ctx context.Context, e *model.Event) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO events (id, title, description, start_time, end_time, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Description, e.StartTime, e.EndTime, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *SQLite) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	err := s.q.QueryRowContext(ctx,
		`SELECT id, title, description, start_time, end_time, created_at
		 FROM events WHERE id = ?`,
		id,
	).Scan(&e.ID, &e.Title, &e.Description, &e.StartTime, &e.EndTime, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

func (s *SQLite) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.queryEvents(ctx,
		`SELECT id, title, description, start_time, end_time, created_at
		 FROM events ORDER BY start_time ASC`)
}

func (s *SQLite) RecentEvents(ctx context.Context, limit int) ([]model.Event, error) {
	return s.queryEvents(ctx,
		`SELECT id, title, description, start_time, end_time, created_at
		 FROM events ORDER BY start_time DESC LIMIT ?`, limit)
}

func (s *SQLite) queryEvents(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer func() { _ = rows.Close() }()

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

func (s *SQLite) UpdateEvent(ctx context.Context, e *model.Event) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE events SET title = ?, description = ?, start_time = ?, end_time = ?
		 WHERE id = ?`,
		e.Title, e.Description, e.StartTime, e.EndTime, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return requireRow(res)
}

func (s *SQLite) UpdateEventWindow(ctx context.Context, id string, start, end time.Time) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE events SET start_time = ?, end_time = ? WHERE id = ?`,
		start, end, id,
	)
	if err != nil {
		return fmt.Errorf("update event window: %w", err)
	}
	return requireRow(res)
}

func (s *SQLite) DeleteEvent(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return requireRow(res)
}

func (s *SQLite) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func (s *SQLite) CreateResource(ctx context.Context, r *model.Resource) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO resources (id, name, type, created_at) VALUES (?, ?, ?, ?)`,
		r.ID, r.Name, string(r.Type), r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

func (s *SQLite) GetResource(ctx context.Context, id string) (*model.Resource, error) {
	var r model.Resource
	err := s.q.QueryRowContext(ctx,
		`SELECT id, name, type, created_at FROM resources WHERE id = ?`,
		id,
	).Scan(&r.ID, &r.Name, &r.Type, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get resource: %w", err)
	}
	return &r, nil
}

func (s *SQLite) ListResources(ctx context.Context) ([]model.Resource, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, name, type, created_at FROM resources ORDER BY type, name`)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer func() { _ = rows.Close() }()

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

func (s *SQLite) UpdateResource(ctx context.Context, r *model.Resource) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE resources SET name = ?, type = ? WHERE id = ?`,
		r.Name, string(r.Type), r.ID,
	)
	if err != nil {
		return fmt.Errorf("update resource: %w", err)
	}
	return requireRow(res)
}

func (s *SQLite) DeleteResource(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	return requireRow(res)
}

func (s *SQLite) CountResources(ctx context.Context) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM resources`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count resources: %w", err)
	}
	return n, nil
}

func (s *SQLite) LockResource(ctx context.Context, id string) error {
	_, err := s.GetResource(ctx, id)
	return err
}

func (s *SQLite) CreateAllocation(ctx context.Context, a *model.Allocation) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO allocations (id, event_id, resource_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		a.ID, a.EventID, a.ResourceID, a.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicate
		}
		return fmt.Errorf("insert allocation: %w", err)
	}
	return nil
}

func (s *SQLite) GetAllocation(ctx context.Context, id string) (*model.Allocation, error) {
	var (
		a model.Allocation
		e model.Event
		r model.Resource
	)
	err := s.q.QueryRowContext(ctx,
		`SELECT a.id, a.event_id, a.resource_id, a.created_at,
		        e.id, e.title, e.description, e.start_time, e.end_time, e.created_at,
		        r.id, r.name, r.type, r.created_at
		 FROM allocations a
		 JOIN events e ON e.id = a.event_id
		 JOIN resources r ON r.id = a.resource_id
		 WHERE a.id = ?`,
		id,
	).Scan(
		&a.ID, &a.EventID, &a.ResourceID, &a.CreatedAt,
		&e.ID, &e.Title, &e.Description, &e.StartTime, &e.EndTime, &e.CreatedAt,
		&r.ID, &r.Name, &r.Type, &r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get allocation: %w", err)
	}
	a.Event = &e
	a.Resource = &r
	return &a, nil
}

func (s *SQLite) DeleteAllocation(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM allocations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete allocation: %w", err)
	}
	return requireRow(res)
}

func (s *SQLite) AllocationsForResource(ctx context.Context, resourceID string) ([]model.Allocation, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT a.id, a.event_id, a.resource_id, a.created_at,
		        e.id, e.title, e.description, e.start_time, e.end_time, e.created_at
		 FROM allocations a
		 JOIN events e ON e.id = a.event_id
		 WHERE a.resource_id = ?
		 ORDER BY a.created_at ASC`,
		resourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("list allocations for resource: %w", err)
	}
	defer func() { _ = rows.Close() }()

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

func (s *SQLite) AllocationsForEvent(ctx context.Context, eventID string) ([]model.Allocation, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT a.id, a.event_id, a.resource_id, a.created_at,
		        r.id, r.name, r.type, r.created_at
		 FROM allocations a
		 JOIN resources r ON r.id = a.resource_id
		 WHERE a.event_id = ?
		 ORDER BY a.created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list allocations for event: %w", err)
	}
	defer func() { _ = rows.Close() }()

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

func (s *SQLite) Close() error {
	if s.tx == nil {
		return s.db.Close()
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
