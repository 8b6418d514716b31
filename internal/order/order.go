package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wichananm65/souq-backend/internal/pricing"
	"github.com/wichananm65/souq-backend/internal/profile"
)

const (
	PaymentCash         = "cash"
	PaymentCard         = "card"
	PaymentBankTransfer = "bank_transfer"

	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"

	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Order is a committed purchase. TotalAmount is the subtotal of the lines at
// their effective prices; tax is reported separately in the receipt.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentStatus   string          `json:"payment_status"`
	Status          string          `json:"status"`
	ShippingAddress string          `json:"shipping_address"`
	Notes           string          `json:"notes"`
	CreatedAt       time.Time       `json:"created_at"`
	Items           []Item          `json:"items"`
}

// Item snapshots the unit price at checkout time.
type Item struct {
	ID            uuid.UUID       `json:"id"`
	OrderID       uuid.UUID       `json:"order_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	ProductNameAr string          `json:"product_name_ar"`
}

// Placement is the unit of work checkout commits atomically. CartLineIDs are
// the cart lines the order was priced from; only those leave the cart.
type Placement struct {
	Order       Order
	Profile     profile.Profile
	CartLineIDs []uuid.UUID
}

// Receipt is returned to the shopper after checkout.
type Receipt struct {
	Order   Order           `json:"order"`
	Summary pricing.Summary `json:"summary"`
}

// CheckoutRequest is the shipping form.
type CheckoutRequest struct {
	FullName      string `json:"full_name" validate:"notblank,max=120"`
	Phone         string `json:"phone" validate:"notblank,max=32"`
	Address       string `json:"address" validate:"notblank,max=500"`
	City          string `json:"city" validate:"notblank,max=120"`
	PaymentMethod string `json:"payment_method" validate:"omitempty,oneof=cash card bank_transfer"`
	Notes         string `json:"notes" validate:"max=1000"`
}

// PaymentStatusFor returns the initial payment status. Cash is collected on
// delivery; every other method is treated as settled.
func PaymentStatusFor(method string) string {
	if method == PaymentCash {
		return PaymentStatusPending
	}
	return PaymentStatusPaid
}
