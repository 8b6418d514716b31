package review

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
	reviewColumns = `id, user_id, product_id, rating, COALESCE(comment, ''), created_at`

	listReviewsQuery = `SELECT ` + reviewColumns + ` FROM reviews WHERE product_id = $1 ORDER BY created_at DESC, id`
	// a concurrent first submission from the same user lands on the unique key
	insertReviewQuery = `
		INSERT INTO reviews (id, user_id, product_id, rating, comment)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		ON CONFLICT (user_id, product_id) DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment
		RETURNING ` + reviewColumns
	updateReviewQuery = `
		UPDATE reviews SET rating = $3, comment = NULLIF($4, '')
		WHERE id = $1 AND user_id = $2
		RETURNING ` + reviewColumns
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReview(s rowScanner) (Review, error) {
	var r Review
	err := s.Scan(&r.ID, &r.UserID, &r.ProductID, &r.Rating, &r.Comment, &r.CreatedAt)
	return r, err
}

func (p *PostgresRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]Review, error) {
	rows, err := p.db.QueryContext(ctx, listReviewsQuery, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	out := make([]Review, 0)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PostgresRepository) Insert(ctx context.Context, r Review) (Review, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	out, err := scanReview(p.db.QueryRowContext(ctx, insertReviewQuery, r.ID, r.UserID, r.ProductID, r.Rating, r.Comment))
	if err != nil {
		return Review{}, fmt.Errorf("insert review: %w", err)
	}
	return out, nil
}

func (p *PostgresRepository) Update(ctx context.Context, r Review) (Review, error) {
	out, err := scanReview(p.db.QueryRowContext(ctx, updateReviewQuery, r.ID, r.UserID, r.Rating, r.Comment))
	if errors.Is(err, sql.ErrNoRows) {
		return Review{}, ErrNotFound
	}
	if err != nil {
		return Review{}, fmt.Errorf("update review: %w", err)
	}
	return out, nil
}
