package profile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("profile not found")

type Repository interface {
	Get(ctx context.Context, userID uuid.UUID) (Profile, error)
	Upsert(ctx context.Context, p Profile) (Profile, error)
	Names(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error)
}

type InMemoryRepository struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]Profile
}

func NewInMemoryRepository(seed []Profile) *InMemoryRepository {
	r := &InMemoryRepository{profiles: make(map[uuid.UUID]Profile, len(seed))}
	for _, p := range seed {
		r.profiles[p.UserID] = p
	}
	return r
}

func (r *InMemoryRepository) Get(_ context.Context, userID uuid.UUID) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[userID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (r *InMemoryRepository) Upsert(_ context.Context, p Profile) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.UpdatedAt = time.Now().UTC()
	r.profiles[p.UserID] = p
	return p, nil
}

func (r *InMemoryRepository) Names(_ context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[uuid.UUID]string, len(userIDs))
	for _, id := range userIDs {
		if p, ok := r.profiles[id]; ok && p.FullName != "" {
			out[id] = p.FullName
		}
	}
	return out, nil
}
