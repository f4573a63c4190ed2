package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shanmugapriyan-TJ/EventFlow/internal/model"
	"github.com/Shanmugapriyan-TJ/EventFlow/internal/repository"
	"github.com/google/uuid"
)

// CreateResource validates the request and persists a new resource.
func (s *Scheduler) CreateResource(ctx context.Context, req model.CreateResourceRequest) (*model.Resource, error) {
	name, typ, err := validateResource(req.Name, req.Type)
	if err != nil {
		return nil, err
	}

	resource := &model.Resource{
		ID:        uuid.New().String(),
		Name:      name,
		Type:      typ,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateResource(ctx, resource); err != nil {
		return nil, err
	}
	return resource, nil
}

// GetResource returns a single resource by id.
func (s *Scheduler) GetResource(ctx context.Context, id string) (*model.Resource, error) {
	if id == "" {
		return nil, errMissing("resource id")
	}
	return s.store.GetResource(ctx, id)
}

// ListResources returns all resources ordered by (type, name).
func (s *Scheduler) ListResources(ctx context.Context) ([]model.Resource, error) {
	return s.store.ListResources(ctx)
}

// ResourceAllocations returns the resource's allocations with events resolved.
func (s *Scheduler) ResourceAllocations(ctx context.Context, id string) ([]model.Allocation, error) {
	if _, err := s.store.GetResource(ctx, id); err != nil {
		return nil, err
	}
	return s.store.AllocationsForResource(ctx, id)
}

// UpdateResource edits a resource's name and type. Resource edits
// never touch allocations or trigger conflict checking.
func (s *Scheduler) UpdateResource(ctx context.Context, id string, req model.CreateResourceRequest) (*model.Resource, error) {
	if id == "" {
		return nil, errMissing("resource id")
	}
	name, typ, err := validateResource(req.Name, req.Type)
	if err != nil {
		return nil, err
	}

	resource, err := s.store.GetResource(ctx, id)
	if err != nil {
		return nil, err
	}
	resource.Name = name
	resource.Type = typ
	if err := s.store.UpdateResource(ctx, resource); err != nil {
		return nil, err
	}
	return resource, nil
}

// DeleteResource removes a resource, deleting its allocations first
// inside the same transaction.
func (s *Scheduler) DeleteResource(ctx context.Context, id string) error {
	if id == "" {
		return errMissing("resource id")
	}
	return s.store.InTx(ctx, func(tx repository.Store) error {
		allocs, err := tx.AllocationsForResource(ctx, id)
		if err != nil {
			return err
		}
		for _, alloc := range allocs {
			if err := tx.DeleteAllocation(ctx, alloc.ID); err != nil {
				return err
			}
		}
		return tx.DeleteResource(ctx, id)
	})
}

func validateResource(name, typ string) (string, model.ResourceType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", errMissing("name")
	}
	resourceType := model.ResourceType(strings.TrimSpace(typ))
	if !resourceType.Valid() {
		return "", "", fmt.Errorf("%w: type must be one of room, instructor, equipment", ErrInvalidRequest)
	}
	return name, resourceType, nil
}
