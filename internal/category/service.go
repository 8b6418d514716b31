package category

import (
	"context"

	"github.com/google/uuid"

	"github.com/wichananm65/souq-backend/internal/cache"
)

const (
	cachePrefix = "categories:"
	listKey     = cachePrefix + "all"
)

// Service provides business logic for categories.
type Service struct {
	repo  Repository
	cache *cache.Cache
}

func NewService(r Repository, c *cache.Cache) *Service {
	return &Service{repo: r, cache: c}
}

// List returns categories newest first, truncated to limit when limit > 0.
func (s *Service) List(ctx context.Context, limit int) ([]Category, error) {
	all, err := cache.Fetch(ctx, s.cache, listKey, func(ctx context.Context) ([]Category, error) {
		return s.repo.List(ctx)
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (Category, error) {
	return s.repo.GetByID(ctx, id)
}

// Lookup returns the category or nil when it no longer exists.
func (s *Service) Lookup(ctx context.Context, id *uuid.UUID) (*Category, error) {
	if id == nil {
		return nil, nil
	}
	all, err := s.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == *id {
			c := all[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Service) Create(ctx context.Context, in Input) (Category, error) {
	c, err := s.repo.Create(ctx, in.apply(Category{}))
	if err != nil {
		return Category{}, err
	}
	s.cache.Invalidate(cachePrefix)
	return c, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (Category, error) {
	c, err := s.repo.Update(ctx, in.apply(Category{ID: id}))
	if err != nil {
		return Category{}, err
	}
	s.cache.Invalidate(cachePrefix)
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(cachePrefix)
	return nil
}
