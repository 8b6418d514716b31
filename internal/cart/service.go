package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/wichananm65/souq-backend/internal/events"
	"github.com/wichananm65/souq-backend/internal/pricing"
	"github.com/wichananm65/souq-backend/internal/product"
)

// ProductReader is the slice of the catalog the cart needs.
type ProductReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (product.Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]product.Product, error)
}

// Service orchestrates cart operations and announces the new item count
// after every mutation.
type Service struct {
	repo     Repository
	products ProductReader
	broker   *events.Broker
}

func NewService(repo Repository, products ProductReader, broker *events.Broker) *Service {
	return &Service{repo: repo, products: products, broker: broker}
}

func (s *Service) purchasable(ctx context.Context, productID uuid.UUID) (product.Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if errors.Is(err, product.ErrNotFound) {
		return product.Product{}, ErrProductUnavailable
	}
	if err != nil {
		return product.Product{}, err
	}
	if !p.IsActive || !p.Available() {
		return product.Product{}, ErrProductUnavailable
	}
	return p, nil
}

// Set puts qty units of the product in the cart, replacing any previous
// quantity. qty <= 0 removes the product's line when there is one.
func (s *Service) Set(ctx context.Context, userID, productID uuid.UUID, qty int) (Item, error) {
	if qty <= 0 {
		return Item{}, s.removeProduct(ctx, userID, productID)
	}
	p, err := s.purchasable(ctx, productID)
	if err != nil {
		return Item{}, err
	}
	if qty > p.StockQuantity {
		return Item{}, ErrInsufficientStock
	}
	it, err := s.repo.Upsert(ctx, userID, productID, qty)
	if err != nil {
		return Item{}, err
	}
	s.announce(ctx, userID)
	return it, nil
}

// Increment adds one unit, inserting the line when absent.
func (s *Service) Increment(ctx context.Context, userID, productID uuid.UUID) (Item, error) {
	p, err := s.purchasable(ctx, productID)
	if err != nil {
		return Item{}, err
	}
	current, err := s.repo.List(ctx, userID)
	if err != nil {
		return Item{}, err
	}
	for _, it := range current {
		if it.ProductID == productID && it.Quantity+1 > p.StockQuantity {
			return Item{}, ErrInsufficientStock
		}
	}
	it, err := s.repo.Increment(ctx, userID, productID, 1)
	if err != nil {
		return Item{}, err
	}
	s.announce(ctx, userID)
	return it, nil
}

// UpdateQuantity changes a line's quantity; qty <= 0 removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, qty int) error {
	if qty <= 0 {
		return s.Remove(ctx, userID, lineID)
	}
	it, err := s.repo.Get(ctx, userID, lineID)
	if err != nil {
		return err
	}
	p, err := s.products.GetByID(ctx, it.ProductID)
	if err == nil && qty > p.StockQuantity {
		return ErrInsufficientStock
	}
	if err != nil && !errors.Is(err, product.ErrNotFound) {
		return err
	}
	if _, err := s.repo.SetQuantity(ctx, userID, lineID, qty); err != nil {
		return err
	}
	s.announce(ctx, userID)
	return nil
}

func (s *Service) removeProduct(ctx context.Context, userID, productID uuid.UUID) error {
	items, err := s.repo.List(ctx, userID)
	if err != nil {
		return err
	}
	for _, it := range items {
		if it.ProductID == productID {
			return s.Remove(ctx, userID, it.ID)
		}
	}
	return nil
}

func (s *Service) Remove(ctx context.Context, userID, lineID uuid.UUID) error {
	if err := s.repo.Remove(ctx, userID, lineID); err != nil {
		return err
	}
	s.announce(ctx, userID)
	return nil
}

func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return err
	}
	s.announce(ctx, userID)
	return nil
}

func (s *Service) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.Count(ctx, userID)
}

// Lines returns the cart joined to its products. Lines whose product no
// longer exists are dropped.
func (s *Service) Lines(ctx context.Context, userID uuid.UUID) ([]Line, error) {
	items, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []Line{}, nil
	}
	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(items))
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			continue
		}
		view := p.View()
		lines = append(lines, Line{
			Item:      it,
			Product:   view,
			LineTotal: pricing.LineTotal(view.EffectivePrice, it.Quantity),
		})
	}
	return lines, nil
}

func (s *Service) View(ctx context.Context, userID uuid.UUID) (View, error) {
	lines, err := s.Lines(ctx, userID)
	if err != nil {
		return View{}, err
	}
	return View{Items: lines, Summary: pricing.Summarize(PricingLines(lines))}, nil
}

// Announce publishes the current count for userID. Checkout calls it after
// removing the ordered lines in its own transaction.
func (s *Service) Announce(ctx context.Context, userID uuid.UUID) {
	s.announce(ctx, userID)
}

func (s *Service) announce(ctx context.Context, userID uuid.UUID) {
	n, err := s.repo.Count(ctx, userID)
	if err != nil {
		return
	}
	s.broker.Publish(events.WithCount(events.Event{Type: events.CartUpdated, UserID: userID}, n))
}
