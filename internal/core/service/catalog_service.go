package service

import (
	"context"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
	"github.com/tablewise/restaurant-backoffice/internal/core/ports"
)

type activatable interface {
	IsActive() bool
}

// CatalogService serves a publishable collection. Public reads pass
// activeOnly; inactive records are then reported as not found.
type CatalogService[T activatable] struct {
	repo ports.CrudRepository[T]
}

func NewCatalogService[T activatable](repo ports.CrudRepository[T]) *CatalogService[T] {
	return &CatalogService[T]{repo: repo}
}

func (s *CatalogService[T]) Create(ctx context.Context, item *T) error {
	return s.repo.Create(ctx, item)
}

func (s *CatalogService[T]) Update(ctx context.Context, item *T) error {
	return s.repo.Update(ctx, item)
}

func (s *CatalogService[T]) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *CatalogService[T]) Get(ctx context.Context, id string, activeOnly bool) (*T, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if activeOnly && !(*item).IsActive() {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *CatalogService[T]) List(ctx context.Context, activeOnly bool) ([]T, error) {
	return s.repo.List(ctx, activeOnly)
}
