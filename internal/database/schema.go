package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order on startup. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id uuid PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		full_name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		user_id uuid PRIMARY KEY,
		full_name TEXT,
		phone TEXT,
		address TEXT,
		city TEXT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id uuid PRIMARY KEY,
		name_ar TEXT NOT NULL,
		name_en TEXT,
		description_ar TEXT,
		description_en TEXT,
		image_url TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	// category_id has no foreign key; deleting a category leaves the
	// reference dangling.
	`CREATE TABLE IF NOT EXISTS products (
		id uuid PRIMARY KEY,
		name_ar TEXT NOT NULL,
		name_en TEXT,
		description_ar TEXT,
		description_en TEXT,
		price NUMERIC(12,2) NOT NULL,
		discount_price NUMERIC(12,2),
		image_urls TEXT[] NOT NULL DEFAULT '{}',
		stock_quantity INT NOT NULL DEFAULT 0,
		category_id uuid,
		is_active BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS cart (
		id uuid PRIMARY KEY,
		user_id uuid NOT NULL,
		product_id uuid NOT NULL,
		quantity INT NOT NULL CHECK (quantity > 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		id uuid PRIMARY KEY,
		user_id uuid NOT NULL,
		product_id uuid NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id uuid PRIMARY KEY,
		user_id uuid NOT NULL,
		total_amount NUMERIC(12,2) NOT NULL,
		payment_method TEXT NOT NULL,
		payment_status TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		shipping_address TEXT NOT NULL,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id uuid PRIMARY KEY,
		order_id uuid NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id uuid NOT NULL,
		quantity INT NOT NULL,
		price NUMERIC(12,2) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id uuid PRIMARY KEY,
		user_id uuid NOT NULL,
		product_id uuid NOT NULL,
		rating SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		user_id uuid NOT NULL,
		role TEXT NOT NULL,
		PRIMARY KEY (user_id, role)
	)`,
	`CREATE TABLE IF NOT EXISTS store_settings (
		id SMALLINT PRIMARY KEY CHECK (id = 1),
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_active_created ON products (is_active, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_product ON reviews (product_id, created_at DESC)`,
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
