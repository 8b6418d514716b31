package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/wichananm65/souq-backend/internal/profile"
)

func placement() Placement {
	userID, orderID := uuid.New(), uuid.New()
	return Placement{
		Order: Order{
			ID: orderID, UserID: userID, TotalAmount: decimal.NewFromInt(300),
			PaymentMethod: PaymentCard, PaymentStatus: PaymentStatusPaid, Status: StatusPending,
			ShippingAddress: "a, b",
			Items: []Item{
				{ID: uuid.New(), OrderID: orderID, ProductID: uuid.New(), Quantity: 2, Price: decimal.NewFromInt(150)},
			},
		},
		Profile:     profile.Profile{UserID: userID, FullName: "x", Phone: "1", Address: "a", City: "b"},
		CartLineIDs: []uuid.UUID{uuid.New()},
	}
}

func TestPlaceOrder_CommitsOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)
	p := placement()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(p.Order.ID, p.Order.UserID, sqlmock.AnyArg(), PaymentCard, PaymentStatusPaid, StatusPending, "a, b", "").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec("INSERT INTO order_items").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO profiles").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
	mock.ExpectExec(`DELETE FROM cart WHERE user_id = \$1 AND id = ANY`).
		WithArgs(p.Order.UserID, pq.Array([]string{p.CartLineIDs[0].String()})).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o, err := repo.PlaceOrder(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.CreatedAt.IsZero() {
		t.Fatal("expected created_at from the insert")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPlaceOrder_RollsBackOnCartFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)
	p := placement()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec("INSERT INTO order_items").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO profiles").WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
	mock.ExpectExec("DELETE FROM cart").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if _, err := repo.PlaceOrder(context.Background(), p); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListByUser_AttachesItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	userID, orderID := uuid.New(), uuid.New()
	mock.ExpectQuery("FROM orders WHERE user_id").WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "total_amount", "payment_method", "payment_status", "status", "shipping_address", "notes", "created_at"}).
			AddRow(orderID.String(), userID.String(), "300.00", "cash", "pending", "pending", "a, b", "", time.Now()))
	mock.ExpectQuery("FROM order_items").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "price"}).
			AddRow(uuid.NewString(), orderID.String(), uuid.NewString(), 2, "150.00"))

	orders, err := repo.ListByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 1 || len(orders[0].Items) != 1 || orders[0].Items[0].Quantity != 2 {
		t.Fatalf("unexpected orders %+v", orders)
	}
}
