package order

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wichananm65/souq-backend/internal/profile"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

type Repository interface {
	// PlaceOrder writes the order and its items, saves the shipping profile
	// and removes the ordered cart lines as one unit.
	PlaceOrder(ctx context.Context, p Placement) (Order, error)
	// ListByUser and ListAll are newest first and include items.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
}

type ProfileUpserter interface {
	Upsert(ctx context.Context, p profile.Profile) (profile.Profile, error)
}

type CartLineRemover interface {
	RemoveLines(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error
}

// InMemoryRepository drives the profile and cart collaborators itself. A
// failing collaborator removes the order again.
type InMemoryRepository struct {
	mu       sync.RWMutex
	orders   []Order
	profiles ProfileUpserter
	carts    CartLineRemover
	now      func() time.Time
}

func NewInMemoryRepository(profiles ProfileUpserter, carts CartLineRemover) *InMemoryRepository {
	return &InMemoryRepository{profiles: profiles, carts: carts, now: func() time.Time { return time.Now().UTC() }}
}

func (r *InMemoryRepository) PlaceOrder(ctx context.Context, p Placement) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o := p.Order
	o.CreatedAt = r.now()
	r.orders = append(r.orders, o)
	rollback := func() { r.orders = r.orders[:len(r.orders)-1] }

	if r.profiles != nil {
		if _, err := r.profiles.Upsert(ctx, p.Profile); err != nil {
			rollback()
			return Order{}, err
		}
	}
	if r.carts != nil {
		if err := r.carts.RemoveLines(ctx, o.UserID, p.CartLineIDs); err != nil {
			rollback()
			return Order{}, err
		}
	}
	return o, nil
}

func (r *InMemoryRepository) list(keep func(Order) bool) []Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Order, 0)
	for _, o := range r.orders {
		if keep(o) {
			o.Items = append([]Item{}, o.Items...)
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *InMemoryRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]Order, error) {
	return r.list(func(o Order) bool { return o.UserID == userID }), nil
}

func (r *InMemoryRepository) ListAll(_ context.Context) ([]Order, error) {
	return r.list(func(Order) bool { return true }), nil
}
