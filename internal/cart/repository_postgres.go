package cart

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
	cartColumns = `id, user_id, product_id, quantity, created_at`

	listCartQuery = `SELECT ` + cartColumns + ` FROM cart WHERE user_id = $1 ORDER BY created_at, id`
	getCartQuery  = `SELECT ` + cartColumns + ` FROM cart WHERE user_id = $1 AND id = $2`
	// upsert on the (user_id, product_id) conflict key; the quantity is replaced
	upsertCartQuery = `
		INSERT INTO cart (id, user_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity
		RETURNING ` + cartColumns
	incrementCartQuery = `
		INSERT INTO cart (id, user_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart.quantity + EXCLUDED.quantity
		RETURNING ` + cartColumns
	setQuantityQuery = `UPDATE cart SET quantity = $3 WHERE user_id = $1 AND id = $2 RETURNING ` + cartColumns
	removeCartQuery  = `DELETE FROM cart WHERE user_id = $1 AND id = $2`
	clearCartQuery   = `DELETE FROM cart WHERE user_id = $1`
	removeLinesQuery = `DELETE FROM cart WHERE user_id = $1 AND id = ANY($2::uuid[])`
	countCartQuery   = `SELECT COALESCE(SUM(quantity), 0) FROM cart WHERE user_id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(s rowScanner) (Item, error) {
	var it Item
	err := s.Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.CreatedAt)
	return it, err
}

func (r *PostgresRepository) List(ctx context.Context, userID uuid.UUID) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, listCartQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()

	out := make([]Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) one(ctx context.Context, op, q string, args ...any) (Item, error) {
	it, err := scanItem(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("%s: %w", op, err)
	}
	return it, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id uuid.UUID) (Item, error) {
	return r.one(ctx, "get cart item", getCartQuery, userID, id)
}

func (r *PostgresRepository) Upsert(ctx context.Context, userID, productID uuid.UUID, qty int) (Item, error) {
	return r.one(ctx, "upsert cart item", upsertCartQuery, uuid.New(), userID, productID, qty)
}

func (r *PostgresRepository) Increment(ctx context.Context, userID, productID uuid.UUID, delta int) (Item, error) {
	return r.one(ctx, "increment cart item", incrementCartQuery, uuid.New(), userID, productID, delta)
}

func (r *PostgresRepository) SetQuantity(ctx context.Context, userID, id uuid.UUID, qty int) (Item, error) {
	return r.one(ctx, "update cart quantity", setQuantityQuery, userID, id, qty)
}

func (r *PostgresRepository) Remove(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, removeCartQuery, userID, id)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, clearCartQuery, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RemoveLines(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error {
	return RemoveLinesWith(ctx, r.db, userID, ids)
}

// RemoveLinesWith deletes only the listed lines through q. Lines added after
// ids was read stay in the cart.
func RemoveLinesWith(ctx context.Context, q database.Querier, userID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := q.ExecContext(ctx, removeLinesQuery, userID, pq.Array(lineIDStrings(ids))); err != nil {
		return fmt.Errorf("remove ordered cart lines: %w", err)
	}
	return nil
}

func lineIDStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func (r *PostgresRepository) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countCartQuery, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cart: %w", err)
	}
	return n, nil
}
