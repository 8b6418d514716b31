package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// PostgresRepository implements Repository using Postgres.
type PostgresRepository struct {
	db *sql.DB
}

const (
	categoryColumns = `id, name_ar, COALESCE(name_en, ''), COALESCE(description_ar, ''), COALESCE(description_en, ''), COALESCE(image_url, ''), created_at`

	listCategoriesQuery  = `SELECT ` + categoryColumns + ` FROM categories ORDER BY created_at DESC, id`
	getCategoryByIDQuery = `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	insertCategoryQuery  = `
		INSERT INTO categories (id, name_ar, name_en, description_ar, description_en, image_url)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''))
		RETURNING created_at
	`
	updateCategoryQuery = `
		UPDATE categories
		SET name_ar = $2,
			name_en = NULLIF($3, ''),
			description_ar = NULLIF($4, ''),
			description_en = NULLIF($5, ''),
			image_url = NULLIF($6, '')
		WHERE id = $1
		RETURNING created_at
	`
	deleteCategoryQuery = `DELETE FROM categories WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(s rowScanner) (Category, error) {
	var c Category
	err := s.Scan(&c.ID, &c.NameAr, &c.NameEn, &c.DescriptionAr, &c.DescriptionEn, &c.ImageURL, &c.CreatedAt)
	return c, err
}

func (r *PostgresRepository) List(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, listCategoriesQuery)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, getCategoryByIDQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	if err != nil {
		return Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c Category) (Category, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err := r.db.QueryRowContext(ctx, insertCategoryQuery, c.ID, c.NameAr, c.NameEn, c.DescriptionAr, c.DescriptionEn, c.ImageURL).
		Scan(&c.CreatedAt)
	if err != nil {
		return Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Update(ctx context.Context, c Category) (Category, error) {
	err := r.db.QueryRowContext(ctx, updateCategoryQuery, c.ID, c.NameAr, c.NameEn, c.DescriptionAr, c.DescriptionEn, c.ImageURL).
		Scan(&c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	if err != nil {
		return Category{}, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// Delete removes the row only. Products keep their category_id.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, deleteCategoryQuery, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
