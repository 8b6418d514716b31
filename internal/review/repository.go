package review

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("review not found")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrProductNotFound = errors.New("product not found")
)

type Repository interface {
	// ListByProduct is newest first.
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]Review, error)
	Insert(ctx context.Context, r Review) (Review, error)
	// Update rewrites rating and comment of an existing review, keeping its id.
	Update(ctx context.Context, r Review) (Review, error)
}

type InMemoryRepository struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]Review
	now  func() time.Time
}

func NewInMemoryRepository(seed []Review) *InMemoryRepository {
	r := &InMemoryRepository{rows: make(map[uuid.UUID]Review, len(seed)), now: func() time.Time { return time.Now().UTC() }}
	for _, rv := range seed {
		if rv.ID == uuid.Nil {
			rv.ID = uuid.New()
		}
		r.rows[rv.ID] = rv
	}
	return r
}

func (r *InMemoryRepository) ListByProduct(_ context.Context, productID uuid.UUID) ([]Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Review, 0)
	for _, rv := range r.rows {
		if rv.ProductID == productID {
			out = append(out, rv)
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

func (r *InMemoryRepository) Insert(_ context.Context, rv Review) (Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.UserID == rv.UserID && existing.ProductID == rv.ProductID {
			existing.Rating, existing.Comment = rv.Rating, rv.Comment
			r.rows[existing.ID] = existing
			return existing, nil
		}
	}
	if rv.ID == uuid.Nil {
		rv.ID = uuid.New()
	}
	rv.CreatedAt = r.now()
	r.rows[rv.ID] = rv
	return rv, nil
}

func (r *InMemoryRepository) Update(_ context.Context, rv Review) (Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.rows[rv.ID]
	if !ok || existing.UserID != rv.UserID {
		return Review{}, ErrNotFound
	}
	existing.Rating, existing.Comment = rv.Rating, rv.Comment
	r.rows[rv.ID] = existing
	return existing, nil
}
