package order

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/wichananm65/souq-backend/internal/cart"
	"github.com/wichananm65/souq-backend/internal/metrics"
	"github.com/wichananm65/souq-backend/internal/pricing"
	"github.com/wichananm65/souq-backend/internal/product"
	"github.com/wichananm65/souq-backend/internal/profile"
)

type CartReader interface {
	Lines(ctx context.Context, userID uuid.UUID) ([]cart.Line, error)
	Announce(ctx context.Context, userID uuid.UUID)
}

type ProductReader interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]product.Product, error)
}

// Service provides business logic for orders.
type Service struct {
	repo     Repository
	carts    CartReader
	products ProductReader
}

func NewService(r Repository, carts CartReader, products ProductReader) *Service {
	return &Service{repo: r, carts: carts, products: products}
}

// Checkout turns the user's cart into an order. Nothing is written when the
// form or the cart is invalid.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (Receipt, error) {
	method := req.PaymentMethod
	if method == "" {
		method = PaymentCash
	}
	switch method {
	case PaymentCash, PaymentCard, PaymentBankTransfer:
	default:
		return Receipt{}, ErrInvalidPaymentMethod
	}

	lines, err := s.carts.Lines(ctx, userID)
	if err != nil {
		return Receipt{}, err
	}
	if len(lines) == 0 {
		return Receipt{}, ErrEmptyCart
	}
	summary := pricing.Summarize(cart.PricingLines(lines))

	address := strings.TrimSpace(req.Address)
	city := strings.TrimSpace(req.City)
	o := Order{
		ID:              uuid.New(),
		UserID:          userID,
		TotalAmount:     summary.Subtotal,
		PaymentMethod:   method,
		PaymentStatus:   PaymentStatusFor(method),
		Status:          StatusPending,
		ShippingAddress: address + ", " + city,
		Notes:           strings.TrimSpace(req.Notes),
		Items:           make([]Item, 0, len(lines)),
	}
	lineIDs := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		lineIDs = append(lineIDs, l.ID)
		o.Items = append(o.Items, Item{
			ID:            uuid.New(),
			OrderID:       o.ID,
			ProductID:     l.ProductID,
			Quantity:      l.Quantity,
			Price:         l.Product.EffectivePrice,
			ProductNameAr: l.Product.NameAr,
		})
	}

	placed, err := s.repo.PlaceOrder(ctx, Placement{
		Order: o,
		Profile: profile.Profile{
			UserID:   userID,
			FullName: strings.TrimSpace(req.FullName),
			Phone:    strings.TrimSpace(req.Phone),
			Address:  address,
			City:     city,
		},
		CartLineIDs: lineIDs,
	})
	if err != nil {
		return Receipt{}, err
	}
	metrics.OrdersPlaced.WithLabelValues(method).Inc()
	s.carts.Announce(ctx, userID)
	return Receipt{Order: placed, Summary: summary}, nil
}

func (s *Service) ListMine(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withProductNames(ctx, orders)
}

func (s *Service) ListAll(ctx context.Context) ([]Order, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.withProductNames(ctx, orders)
}

// withProductNames fills the Arabic product name of every item whose product
// still exists.
func (s *Service) withProductNames(ctx context.Context, orders []Order) ([]Order, error) {
	seen := map[uuid.UUID]bool{}
	ids := make([]uuid.UUID, 0)
	for _, o := range orders {
		for _, it := range o.Items {
			if !seen[it.ProductID] {
				seen[it.ProductID] = true
				ids = append(ids, it.ProductID)
			}
		}
	}
	if len(ids) == 0 {
		return orders, nil
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		for j := range orders[i].Items {
			if p, ok := products[orders[i].Items[j].ProductID]; ok {
				orders[i].Items[j].ProductNameAr = p.NameAr
			}
		}
	}
	return orders, nil
}
