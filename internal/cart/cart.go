package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wichananm65/souq-backend/internal/pricing"
	"github.com/wichananm65/souq-backend/internal/product"
)

// Item is one row of the `cart` table. (UserID, ProductID) is unique.
type Item struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// Line is a cart item joined to its product.
type Line struct {
	Item
	Product   product.View    `json:"product"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type View struct {
	Items   []Line          `json:"items"`
	Summary pricing.Summary `json:"summary"`
}

// PricingLines converts cart lines to summary input at effective prices.
func PricingLines(lines []Line) []pricing.Line {
	out := make([]pricing.Line, len(lines))
	for i, l := range lines {
		out[i] = pricing.Line{UnitPrice: l.Product.EffectivePrice, Quantity: l.Quantity}
	}
	return out
}
