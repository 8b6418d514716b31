package favorite

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/wichananm65/souq-backend/internal/cart"
	"github.com/wichananm65/souq-backend/internal/product"
)

type ProductReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (product.Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]product.Product, error)
}

type CartIncrementer interface {
	Increment(ctx context.Context, userID, productID uuid.UUID) (cart.Item, error)
}

type Service struct {
	repo     Repository
	products ProductReader
	cart     CartIncrementer
}

func NewService(repo Repository, products ProductReader, c CartIncrementer) *Service {
	return &Service{repo: repo, products: products, cart: c}
}

// List returns favorites whose product is still active. Stale rows stay in
// the table.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Entry, error) {
	favs, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(favs) == 0 {
		return []Entry{}, nil
	}
	ids := make([]uuid.UUID, len(favs))
	for i, f := range favs {
		ids[i] = f.ProductID
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(favs))
	for _, f := range favs {
		p, ok := products[f.ProductID]
		if !ok || !p.IsActive {
			continue
		}
		out = append(out, Entry{Favorite: f, Product: p.View()})
	}
	return out, nil
}

// Status reports whether the product is in the user's favorites.
func (s *Service) Status(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	_, err := s.repo.FindByProduct(ctx, userID, productID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Toggle flips the favorite state and returns the new one.
func (s *Service) Toggle(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	existing, err := s.repo.FindByProduct(ctx, userID, productID)
	if err == nil {
		return false, s.repo.Remove(ctx, userID, existing.ID)
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return false, ErrProductNotFound
		}
		return false, err
	}
	if _, err := s.repo.Add(ctx, userID, productID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) Remove(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Remove(ctx, userID, id)
}

// AddToCart adds one unit of the favorite's product to the cart. The
// favorite itself is kept.
func (s *Service) AddToCart(ctx context.Context, userID, id uuid.UUID) (cart.Item, error) {
	f, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return cart.Item{}, err
	}
	return s.cart.Increment(ctx, userID, f.ProductID)
}
