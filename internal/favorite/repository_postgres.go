package favorite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	favoriteColumns = `id, user_id, product_id, created_at`

	listFavoritesQuery = `SELECT ` + favoriteColumns + ` FROM favorites WHERE user_id = $1 ORDER BY created_at DESC, id`
	getFavoriteQuery   = `SELECT ` + favoriteColumns + ` FROM favorites WHERE user_id = $1 AND id = $2`
	findFavoriteQuery  = `SELECT ` + favoriteColumns + ` FROM favorites WHERE user_id = $1 AND product_id = $2`

	// the no-op update makes RETURNING yield the existing row on conflict
	insertFavoriteQuery = `
		INSERT INTO favorites (id, user_id, product_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO UPDATE SET product_id = EXCLUDED.product_id
		RETURNING ` + favoriteColumns
	deleteFavoriteQuery = `DELETE FROM favorites WHERE user_id = $1 AND id = $2`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFavorite(s rowScanner) (Favorite, error) {
	var f Favorite
	err := s.Scan(&f.ID, &f.UserID, &f.ProductID, &f.CreatedAt)
	return f, err
}

func (r *PostgresRepository) List(ctx context.Context, userID uuid.UUID) ([]Favorite, error) {
	rows, err := r.db.QueryContext(ctx, listFavoritesQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	out := make([]Favorite, 0)
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) one(ctx context.Context, op, q string, args ...any) (Favorite, error) {
	f, err := scanFavorite(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Favorite{}, ErrNotFound
	}
	if err != nil {
		return Favorite{}, fmt.Errorf("%s: %w", op, err)
	}
	return f, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id uuid.UUID) (Favorite, error) {
	return r.one(ctx, "get favorite", getFavoriteQuery, userID, id)
}

func (r *PostgresRepository) FindByProduct(ctx context.Context, userID, productID uuid.UUID) (Favorite, error) {
	return r.one(ctx, "find favorite", findFavoriteQuery, userID, productID)
}

func (r *PostgresRepository) Add(ctx context.Context, userID, productID uuid.UUID) (Favorite, error) {
	return r.one(ctx, "add favorite", insertFavoriteQuery, uuid.New(), userID, productID)
}

func (r *PostgresRepository) Remove(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, deleteFavoriteQuery, userID, id)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
