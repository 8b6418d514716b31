package favorite

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("favorite not found")
	ErrProductNotFound = errors.New("product not found")
)

// Repository provides access to favorite rows. (UserID, ProductID) is unique.
type Repository interface {
	// List is newest first.
	List(ctx context.Context, userID uuid.UUID) ([]Favorite, error)
	Get(ctx context.Context, userID, id uuid.UUID) (Favorite, error)
	FindByProduct(ctx context.Context, userID, productID uuid.UUID) (Favorite, error)
	Add(ctx context.Context, userID, productID uuid.UUID) (Favorite, error)
	Remove(ctx context.Context, userID, id uuid.UUID) error
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]Favorite
	now  func() time.Time
}

func NewInMemoryRepository(seed []Favorite) *InMemoryRepository {
	r := &InMemoryRepository{rows: make(map[uuid.UUID]Favorite, len(seed)), now: func() time.Time { return time.Now().UTC() }}
	for _, f := range seed {
		if f.ID == uuid.Nil {
			f.ID = uuid.New()
		}
		r.rows[f.ID] = f
	}
	return r
}

func (r *InMemoryRepository) List(_ context.Context, userID uuid.UUID) ([]Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Favorite, 0)
	for _, f := range r.rows {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *InMemoryRepository) Get(_ context.Context, userID, id uuid.UUID) (Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.rows[id]
	if !ok || f.UserID != userID {
		return Favorite{}, ErrNotFound
	}
	return f, nil
}

func (r *InMemoryRepository) FindByProduct(_ context.Context, userID, productID uuid.UUID) (Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.rows {
		if f.UserID == userID && f.ProductID == productID {
			return f, nil
		}
	}
	return Favorite{}, ErrNotFound
}

func (r *InMemoryRepository) Add(_ context.Context, userID, productID uuid.UUID) (Favorite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.rows {
		if f.UserID == userID && f.ProductID == productID {
			return f, nil
		}
	}
	f := Favorite{ID: uuid.New(), UserID: userID, ProductID: productID, CreatedAt: r.now()}
	r.rows[f.ID] = f
	return f, nil
}

func (r *InMemoryRepository) Remove(_ context.Context, userID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.rows[id]
	if !ok || f.UserID != userID {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}
