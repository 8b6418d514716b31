package order

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/wichananm65/souq-backend/internal/cart"
	"github.com/wichananm65/souq-backend/internal/database"
	"github.com/wichananm65/souq-backend/internal/profile"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	orderColumns = `id, user_id, total_amount, payment_method, payment_status, status, shipping_address, COALESCE(notes, ''), created_at`

	insertOrderQuery = `
		INSERT INTO orders (id, user_id, total_amount, payment_method, payment_status, status, shipping_address, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
		RETURNING created_at
	`
	insertOrderItemQuery = `
		INSERT INTO order_items (id, order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
	`
	listUserOrdersQuery = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`
	listAllOrdersQuery  = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id`
	listOrderItemsQuery = `
		SELECT id, order_id, product_id, quantity, price
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, id
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// PlaceOrder runs the whole checkout in one transaction and retries it on
// serialization failures and deadlocks.
func (r *PostgresRepository) PlaceOrder(ctx context.Context, p Placement) (Order, error) {
	o := p.Order
	err := database.WithRetry(ctx, r.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, insertOrderQuery,
			o.ID, o.UserID, o.TotalAmount, o.PaymentMethod, o.PaymentStatus, o.Status, o.ShippingAddress, o.Notes,
		).Scan(&o.CreatedAt); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for _, it := range o.Items {
			if _, err := tx.ExecContext(ctx, insertOrderItemQuery, it.ID, o.ID, it.ProductID, it.Quantity, it.Price); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}
		if _, err := profile.UpsertWith(ctx, tx, p.Profile); err != nil {
			return err
		}
		return cart.RemoveLinesWith(ctx, tx, o.UserID, p.CartLineIDs)
	})
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	return r.listWithItems(ctx, listUserOrdersQuery, userID)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]Order, error) {
	return r.listWithItems(ctx, listAllOrdersQuery)
}

func (r *PostgresRepository) listWithItems(ctx context.Context, q string, args ...any) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	index := map[uuid.UUID]int{}
	ids := make([]string, 0)
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.PaymentMethod, &o.PaymentStatus,
			&o.Status, &o.ShippingAddress, &o.Notes, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Items = []Item{}
		index[o.ID] = len(orders)
		ids = append(ids, o.ID.String())
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	itemRows, err := r.db.QueryContext(ctx, listOrderItemsQuery, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var it Item
		if err := itemRows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if i, ok := index[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return orders, itemRows.Err()
}
