package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	productColumns = `id, name_ar, COALESCE(name_en, ''), COALESCE(description_ar, ''), COALESCE(description_en, ''),
		price, discount_price, image_urls, stock_quantity, category_id, is_active, created_at, updated_at`

	listProductsQuery       = `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC, id`
	listActiveProductsQuery = `SELECT ` + productColumns + ` FROM products WHERE is_active ORDER BY created_at DESC, id`
	getProductByIDQuery     = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	getProductsByIDsQuery   = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1::uuid[])`
	insertProductQuery      = `
		INSERT INTO products (id, name_ar, name_en, description_ar, description_en, price, discount_price, image_urls, stock_quantity, category_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	updateProductQuery = `
		UPDATE products
		SET name_ar = $2,
			name_en = $3,
			description_ar = $4,
			description_en = $5,
			price = $6,
			discount_price = $7,
			image_urls = $8,
			stock_quantity = $9,
			category_id = $10,
			is_active = $11,
			updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`
	deleteProductQuery = `DELETE FROM products WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(s rowScanner) (Product, error) {
	var (
		p        Product
		images   pq.StringArray
		category uuid.NullUUID
	)
	err := s.Scan(&p.ID, &p.NameAr, &p.NameEn, &p.DescriptionAr, &p.DescriptionEn,
		&p.Price, &p.DiscountPrice, &images, &p.StockQuantity, &category, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	p.ImageURLs = []string(images)
	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}
	if category.Valid {
		id := category.UUID
		p.CategoryID = &id
	}
	return p, nil
}

func (r *PostgresRepository) query(ctx context.Context, q string, args ...any) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) ([]Product, error) {
	q := listProductsQuery
	if opts.ActiveOnly {
		q = listActiveProductsQuery
	}
	args := []any{}
	if opts.Limit > 0 {
		q += " LIMIT $1"
		args = append(args, opts.Limit)
	}
	out, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, getProductByIDQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	out, err := r.query(ctx, getProductsByIDsQuery, pq.Array(strs))
	if err != nil {
		return nil, fmt.Errorf("get products by ids: %w", err)
	}
	return out, nil
}

func productArgs(p Product) []any {
	var category any
	if p.CategoryID != nil {
		category = *p.CategoryID
	}
	images := p.ImageURLs
	if images == nil {
		images = []string{}
	}
	return []any{p.ID, p.NameAr, nullable(p.NameEn), nullable(p.DescriptionAr), nullable(p.DescriptionEn),
		p.Price, p.DiscountPrice, pq.Array(images), p.StockQuantity, category, p.IsActive}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if err := r.db.QueryRowContext(ctx, insertProductQuery, productArgs(p)...).Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p Product) (Product, error) {
	err := r.db.QueryRowContext(ctx, updateProductQuery, productArgs(p)...).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, deleteProductQuery, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
