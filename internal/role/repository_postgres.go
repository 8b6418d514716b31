package role

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	hasRoleQuery = `SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`
	grantQuery   = `INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	revokeQuery  = `DELETE FROM user_roles WHERE user_id = $1 AND role = $2`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) HasRole(ctx context.Context, userID uuid.UUID, role string) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, hasRoleQuery, userID, role).Scan(&ok); err != nil {
		return false, fmt.Errorf("check role: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) Grant(ctx context.Context, userID uuid.UUID, role string) error {
	if _, err := r.db.ExecContext(ctx, grantQuery, userID, role); err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, userID uuid.UUID, role string) error {
	if _, err := r.db.ExecContext(ctx, revokeQuery, userID, role); err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	return nil
}
