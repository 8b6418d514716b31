package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/wichananm65/souq-backend/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	getProfileQuery = `
		SELECT user_id, COALESCE(full_name, ''), COALESCE(phone, ''), COALESCE(address, ''), COALESCE(city, ''), updated_at
		FROM profiles
		WHERE user_id = $1
	`
	upsertProfileQuery = `
		INSERT INTO profiles (user_id, full_name, phone, address, city, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (user_id) DO UPDATE
		SET full_name = EXCLUDED.full_name,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			city = EXCLUDED.city,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`
	profileNamesQuery = `SELECT user_id, full_name FROM profiles WHERE user_id = ANY($1::uuid[]) AND COALESCE(full_name, '') <> ''`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userID uuid.UUID) (Profile, error) {
	var p Profile
	err := r.db.QueryRowContext(ctx, getProfileQuery, userID).
		Scan(&p.UserID, &p.FullName, &p.Phone, &p.Address, &p.City, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, p Profile) (Profile, error) {
	return UpsertWith(ctx, r.db, p)
}

// UpsertWith writes p through q, which may be a transaction.
func UpsertWith(ctx context.Context, q database.Querier, p Profile) (Profile, error) {
	err := q.QueryRowContext(ctx, upsertProfileQuery, p.UserID, p.FullName, p.Phone, p.Address, p.City).
		Scan(&p.UpdatedAt)
	if err != nil {
		return Profile{}, fmt.Errorf("upsert profile: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Names(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	ids := make([]string, len(userIDs))
	for i, id := range userIDs {
		ids[i] = id.String()
	}
	rows, err := r.db.QueryContext(ctx, profileNamesQuery, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("profile names: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}
