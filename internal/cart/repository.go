package cart

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("cart item not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInsufficientStock  = errors.New("quantity exceeds stock")
)

// Repository provides access to cart rows. Every call is scoped to a user.
type Repository interface {
	List(ctx context.Context, userID uuid.UUID) ([]Item, error)
	Get(ctx context.Context, userID, id uuid.UUID) (Item, error)
	// Upsert sets the quantity of the (user, product) line, creating it if needed.
	Upsert(ctx context.Context, userID, productID uuid.UUID, qty int) (Item, error)
	// Increment adds delta to the (user, product) line, creating it if needed.
	Increment(ctx context.Context, userID, productID uuid.UUID, delta int) (Item, error)
	SetQuantity(ctx context.Context, userID, id uuid.UUID, qty int) (Item, error)
	Remove(ctx context.Context, userID, id uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	// RemoveLines deletes the given lines of the user's cart and leaves the rest.
	RemoveLines(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error
	Count(ctx context.Context, userID uuid.UUID) (int, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]Item
}

func NewInMemoryRepository(seed []Item) *InMemoryRepository {
	r := &InMemoryRepository{items: make(map[uuid.UUID]Item, len(seed))}
	for _, it := range seed {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		r.items[it.ID] = it
	}
	return r
}

func (r *InMemoryRepository) List(_ context.Context, userID uuid.UUID) ([]Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Item, 0)
	for _, it := range r.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *InMemoryRepository) Get(_ context.Context, userID, id uuid.UUID) (Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok || it.UserID != userID {
		return Item{}, ErrNotFound
	}
	return it, nil
}

// find must be called with the lock held.
func (r *InMemoryRepository) find(userID, productID uuid.UUID) (Item, bool) {
	for _, it := range r.items {
		if it.UserID == userID && it.ProductID == productID {
			return it, true
		}
	}
	return Item{}, false
}

func (r *InMemoryRepository) Upsert(_ context.Context, userID, productID uuid.UUID, qty int) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.find(userID, productID)
	if !ok {
		it = Item{ID: uuid.New(), UserID: userID, ProductID: productID, CreatedAt: time.Now().UTC()}
	}
	it.Quantity = qty
	r.items[it.ID] = it
	return it, nil
}

func (r *InMemoryRepository) Increment(_ context.Context, userID, productID uuid.UUID, delta int) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.find(userID, productID)
	if !ok {
		it = Item{ID: uuid.New(), UserID: userID, ProductID: productID, CreatedAt: time.Now().UTC()}
	}
	it.Quantity += delta
	r.items[it.ID] = it
	return it, nil
}

func (r *InMemoryRepository) SetQuantity(_ context.Context, userID, id uuid.UUID, qty int) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok || it.UserID != userID {
		return Item{}, ErrNotFound
	}
	it.Quantity = qty
	r.items[id] = it
	return it, nil
}

func (r *InMemoryRepository) Remove(_ context.Context, userID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok || it.UserID != userID {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *InMemoryRepository) Clear(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, it := range r.items {
		if it.UserID == userID {
			delete(r.items, id)
		}
	}
	return nil
}

func (r *InMemoryRepository) RemoveLines(_ context.Context, userID uuid.UUID, ids []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if it, ok := r.items[id]; ok && it.UserID == userID {
			delete(r.items, id)
		}
	}
	return nil
}

func (r *InMemoryRepository) Count(_ context.Context, userID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, it := range r.items {
		if it.UserID == userID {
			n += it.Quantity
		}
	}
	return n, nil
}
