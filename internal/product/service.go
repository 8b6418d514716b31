package product

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/wichananm65/souq-backend/internal/cache"
)

const (
	cachePrefix    = "products:"
	activeCacheKey = cachePrefix + "active"
	// HomeLimit is the number of newest active products on the home page.
	HomeLimit = 12
)

var ErrInvalidInput = errors.New("invalid product input")

type Service struct {
	repo  Repository
	cache *cache.Cache
}

func NewService(repo Repository, c *cache.Cache) *Service {
	return &Service{repo: repo, cache: c}
}

func (s *Service) active(ctx context.Context) ([]Product, error) {
	return cache.Fetch(ctx, s.cache, activeCacheKey, func(ctx context.Context) ([]Product, error) {
		return s.repo.List(ctx, ListOptions{ActiveOnly: true})
	})
}

// Browse returns active products matching f.
func (s *Service) Browse(ctx context.Context, f Filter) ([]Product, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	all, err := s.active(ctx)
	if err != nil {
		return nil, err
	}
	return Apply(all, f), nil
}

// Featured returns the newest active products.
func (s *Service) Featured(ctx context.Context) ([]Product, error) {
	all, err := s.active(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) > HomeLimit {
		all = all[:HomeLimit]
	}
	return all, nil
}

// GetActive hides inactive products from the storefront.
func (s *Service) GetActive(ctx context.Context, id uuid.UUID) (Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if !p.IsActive {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (Product, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByIDs returns the products keyed by id. Missing ids are absent.
func (s *Service) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Product, error) {
	list, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]Product, len(list))
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

// ListAll includes inactive products, for the admin dashboard.
func (s *Service) ListAll(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx, ListOptions{})
}

func (s *Service) Create(ctx context.Context, in Input) (Product, error) {
	p := in.apply(Product{IsActive: true})
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Product{}, err
	}
	s.cache.Invalidate(cachePrefix)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (Product, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	updated, err := s.repo.Update(ctx, in.apply(existing))
	if err != nil {
		return Product{}, err
	}
	s.cache.Invalidate(cachePrefix)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(cachePrefix)
	return nil
}
