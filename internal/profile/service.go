package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns an empty profile for users who never saved one.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (Profile, error) {
	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Profile{UserID: userID}, nil
	}
	return p, err
}

func (s *Service) Upsert(ctx context.Context, p Profile) (Profile, error) {
	p.FullName = strings.TrimSpace(p.FullName)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Address = strings.TrimSpace(p.Address)
	p.City = strings.TrimSpace(p.City)
	return s.repo.Upsert(ctx, p)
}

func (s *Service) Names(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	return s.repo.Names(ctx, userIDs)
}

// Seed creates the profile row for a new account.
func (s *Service) Seed(ctx context.Context, userID uuid.UUID, fullName string) error {
	_, err := s.Upsert(ctx, Profile{UserID: userID, FullName: fullName})
	return err
}
