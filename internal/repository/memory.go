package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Shanmugapriyan-TJ/EventFlow/internal/model"
)

// Memory is an in-memory Store used by tests and ephemeral runs.
//
// A single mutex serializes every operation, so the per-resource
// serialization LockResource promises elsewhere holds trivially here.
// Transactions snapshot the full state up front and restore it when the
// transaction function fails.
type Memory struct {
	mu    sync.Mutex
	state memState
}

var _ Store = (*Memory)(nil)

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{state: memState{
		events:      make(map[string]model.Event),
		resources:   make(map[string]model.Resource),
		allocations: make(map[string]model.Allocation),
	}}
}

// InTx runs fn under the store mutex against a non-locking view.
// On error the pre-transaction snapshot is restored.
func (m *Memory) InTx(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.state.clone()
	if err := fn(&memTx{m: m}); err != nil {
		m.state = snap
		return err
	}
	return nil
}

func (m *Memory) CreateEvent(ctx context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.createEvent(e)
}

func (m *Memory) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.getEvent(id)
}

func (m *Memory) ListEvents(ctx context.Context) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.listEvents(), nil
}

func (m *Memory) RecentEvents(ctx context.Context, limit int) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.recentEvents(limit), nil
}

func (m *Memory) UpdateEvent(ctx context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.updateEvent(e)
}

func (m *Memory) UpdateEventWindow(ctx context.Context, id string, start, end time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.updateEventWindow(id, start, end)
}

func (m *Memory) DeleteEvent(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.deleteEvent(id)
}

func (m *Memory) CountEvents(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.events), nil
}

func (m *Memory) CreateResource(ctx context.Context, r *model.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.createResource(r)
}

func (m *Memory) GetResource(ctx context.Context, id string) (*model.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.getResource(id)
}

func (m *Memory) ListResources(ctx context.Context) ([]model.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.listResources(), nil
}

func (m *Memory) UpdateResource(ctx context.Context, r *model.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.updateResource(r)
}

func (m *Memory) DeleteResource(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.deleteResource(id)
}

func (m *Memory) CountResources(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.resources), nil
}

func (m *Memory) LockResource(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.lockResource(id)
}

func (m *Memory) CreateAllocation(ctx context.Context, a *model.Allocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.createAllocation(a)
}

func (m *Memory) GetAllocation(ctx context.Context, id string) (*model.Allocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.getAllocation(id)
}

func (m *Memory) DeleteAllocation(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.deleteAllocation(id)
}

func (m *Memory) AllocationsForResource(ctx context.Context, resourceID string) ([]model.Allocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.allocationsForResource(resourceID), nil
}

func (m *Memory) AllocationsForEvent(ctx context.Context, eventID string) ([]model.Allocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.allocationsForEvent(eventID), nil
}

func (m *Memory) Close() error { return nil }

// memTx is the transactional view handed to InTx callbacks. The outer
// InTx already holds the store mutex, so every method goes straight to
// the shared state.
type memTx struct {
	m *Memory
}

var _ Store = (*memTx)(nil)

// InTx on a transactional view joins the enclosing transaction.
func (t *memTx) InTx(ctx context.Context, fn func(tx Store) error) error { return fn(t) }

func (t *memTx) CreateEvent(ctx context.Context, e *model.Event) error {
	return t.m.state.createEvent(e)
}

func (t *memTx) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	return t.m.state.getEvent(id)
}

func (t *memTx) ListEvents(ctx context.Context) ([]model.Event, error) {
	return t.m.state.listEvents(), nil
}

func (t *memTx) RecentEvents(ctx context.Context, limit int) ([]model.Event, error) {
	return t.m.state.recentEvents(limit), nil
}

func (t *memTx) UpdateEvent(ctx context.Context, e *model.Event) error {
	return t.m.state.updateEvent(e)
}

func (t *memTx) UpdateEventWindow(ctx context.Context, id string, start, end time.Time) error {
	return t.m.state.updateEventWindow(id, start, end)
}

func (t *memTx) DeleteEvent(ctx context.Context, id string) error {
	return t.m.state.deleteEvent(id)
}

func (t *memTx) CountEvents(ctx context.Context) (int, error) {
	return len(t.m.state.events), nil
}

func (t *memTx) CreateResource(ctx context.Context, r *model.Resource) error {
	return t.m.state.createResource(r)
}

func (t *memTx) GetResource(ctx context.Context, id string) (*model.Resource, error) {
	return t.m.state.getResource(id)
}

func (t *memTx) ListResources(ctx context.Context) ([]model.Resource, error) {
	return t.m.state.listResources(), nil
}

func (t *memTx) UpdateResource(ctx context.Context, r *model.Resource) error {
	return t.m.state.updateResource(r)
}

func (t *memTx) DeleteResource(ctx context.Context, id string) error {
	return t.m.state.deleteResource(id)
}

func (t *memTx) CountResources(ctx context.Context) (int, error) {
	return len(t.m.state.resources), nil
}

func (t *memTx) LockResource(ctx context.Context, id string) error {
	return t.m.state.lockResource(id)
}

func (t *memTx) CreateAllocation(ctx context.Context, a *model.Allocation) error {
	return t.m.state.createAllocation(a)
}

func (t *memTx) GetAllocation(ctx context.Context, id string) (*model.Allocation, error) {
	return t.m.state.getAllocation(id)
}

func (t *memTx) DeleteAllocation(ctx context.Context, id string) error {
	return t.m.state.deleteAllocation(id)
}

func (t *memTx) AllocationsForResource(ctx context.Context, resourceID string) ([]model.Allocation, error) {
	return t.m.state.allocationsForResource(resourceID), nil
}

func (t *memTx) AllocationsForEvent(ctx context.Context, eventID string) ([]model.Allocation, error) {
	return t.m.state.allocationsForEvent(eventID), nil
}

func (t *memTx) Close() error { return nil }

// memState holds the actual tables. Allocations store only foreign
// keys; the read paths resolve Event/Resource copies on demand.
type memState struct {
	events      map[string]model.Event
	resources   map[string]model.Resource
	allocations map[string]model.Allocation
}

func (s memState) clone() memState {
	out := memState{
		events:      make(map[string]model.Event, len(s.events)),
		resources:   make(map[string]model.Resource, len(s.resources)),
		allocations: make(map[string]model.Allocation, len(s.allocations)),
	}
	for k, v := range s.events {
		out.events[k] = v
	}
	for k, v := range s.resources {
		out.resources[k] = v
	}
	for k, v := range s.allocations {
		out.allocations[k] = v
	}
	return out
}

func (s *memState) createEvent(e *model.Event) error {
	s.events[e.ID] = *e
	return nil
}

func (s *memState) getEvent(id string) (*model.Event, error) {
	e, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (s *memState) listEvents() []model.Event {
	out := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (s *memState) recentEvents(limit int) []model.Event {
	out := s.listEvents()
	sort.Slice(out, func(i, j int) bool { return out[j].StartTime.Before(out[i].StartTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *memState) updateEvent(e *model.Event) error {
	if _, ok := s.events[e.ID]; !ok {
		return ErrNotFound
	}
	s.events[e.ID] = *e
	return nil
}

func (s *memState) updateEventWindow(id string, start, end time.Time) error {
	e, ok := s.events[id]
	if !ok {
		return ErrNotFound
	}
	e.StartTime = start
	e.EndTime = end
	s.events[id] = e
	return nil
}

func (s *memState) deleteEvent(id string) error {
	if _, ok := s.events[id]; !ok {
		return ErrNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *memState) createResource(r *model.Resource) error {
	s.resources[r.ID] = *r
	return nil
}

func (s *memState) getResource(id string) (*model.Resource, error) {
	r, ok := s.resources[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *memState) listResources() []model.Resource {
	out := make([]model.Resource, 0, len(s.resources))
	for _, r := range s.resources {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (s *memState) updateResource(r *model.Resource) error {
	if _, ok := s.resources[r.ID]; !ok {
		return ErrNotFound
	}
	s.resources[r.ID] = *r
	return nil
}

func (s *memState) deleteResource(id string) error {
	if _, ok := s.resources[id]; !ok {
		return ErrNotFound
	}
	delete(s.resources, id)
	return nil
}

func (s *memState) lockResource(id string) error {
	if _, ok := s.resources[id]; !ok {
		return ErrNotFound
	}
	return nil
}

func (s *memState) createAllocation(a *model.Allocation) error {
	for _, existing := range s.allocations {
		if existing.EventID == a.EventID && existing.ResourceID == a.ResourceID {
			return ErrDuplicate
		}
	}
	s.allocations[a.ID] = model.Allocation{
		ID:         a.ID,
		EventID:    a.EventID,
		ResourceID: a.ResourceID,
		CreatedAt:  a.CreatedAt,
	}
	return nil
}

func (s *memState) getAllocation(id string) (*model.Allocation, error) {
	a, ok := s.allocations[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.resolve(&a)
	return &a, nil
}

func (s *memState) deleteAllocation(id string) error {
	if _, ok := s.allocations[id]; !ok {
		return ErrNotFound
	}
	delete(s.allocations, id)
	return nil
}

func (s *memState) allocationsForResource(resourceID string) []model.Allocation {
	var out []model.Allocation
	for _, a := range s.allocations {
		if a.ResourceID != resourceID {
			continue
		}
		s.resolve(&a)
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memState) allocationsForEvent(eventID string) []model.Allocation {
	var out []model.Allocation
	for _, a := range s.allocations {
		if a.EventID != eventID {
			continue
		}
		s.resolve(&a)
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memState) resolve(a *model.Allocation) {
	if e, ok := s.events[a.EventID]; ok {
		a.Event = &e
	}
	if r, ok := s.resources[a.ResourceID]; ok {
		a.Resource = &r
	}
}
