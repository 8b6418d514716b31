package role

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

const Admin = "admin"

type Repository interface {
	HasRole(ctx context.Context, userID uuid.UUID, role string) (bool, error)
	Grant(ctx context.Context, userID uuid.UUID, role string) error
	Revoke(ctx context.Context, userID uuid.UUID, role string) error
}

type grant struct {
	userID uuid.UUID
	role   string
}

type InMemoryRepository struct {
	mu     sync.RWMutex
	grants map[grant]struct{}
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{grants: make(map[grant]struct{})}
}

func (r *InMemoryRepository) HasRole(_ context.Context, userID uuid.UUID, role string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.grants[grant{userID, role}]
	return ok, nil
}

func (r *InMemoryRepository) Grant(_ context.Context, userID uuid.UUID, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grants[grant{userID, role}] = struct{}{}
	return nil
}

func (r *InMemoryRepository) Revoke(_ context.Context, userID uuid.UUID, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.grants, grant{userID, role})
	return nil
}
