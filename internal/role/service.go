package role

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wichananm65/souq-backend/internal/user"
)

type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.repo.HasRole(ctx, userID, Admin)
}

func (s *Service) Grant(ctx context.Context, userID uuid.UUID, role string) error {
	return s.repo.Grant(ctx, userID, role)
}

func (s *Service) Revoke(ctx context.Context, userID uuid.UUID, role string) error {
	return s.repo.Revoke(ctx, userID, role)
}

// EnsureAdmins grants the admin role to every listed account that exists.
// Unknown emails are skipped so the list can be set before sign-up.
func (s *Service) EnsureAdmins(ctx context.Context, users UserLookup, emails []string, log *zap.Logger) error {
	for _, email := range emails {
		u, err := users.GetByEmail(ctx, email)
		if errors.Is(err, user.ErrNotFound) {
			log.Warn("admin bootstrap: no such user", zap.String("email", email))
			continue
		}
		if err != nil {
			return err
		}
		if err := s.repo.Grant(ctx, u.ID, Admin); err != nil {
			return err
		}
		log.Info("admin bootstrap: granted", zap.String("email", email))
	}
	return nil
}
