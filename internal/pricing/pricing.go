// Package pricing holds the money rules shared by the catalog, the cart and
// checkout. All amounts are decimals; nothing here touches storage.
package pricing

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// TaxRate is applied on top of the subtotal for display and checkout totals.
var TaxRate = decimal.RequireFromString("0.15")

// EffectivePrice is the discount price when it is set and lower than the base
// price, otherwise the base price.
func EffectivePrice(price decimal.Decimal, discount decimal.NullDecimal) decimal.Decimal {
	if discount.Valid && discount.Decimal.IsPositive() && discount.Decimal.LessThan(price) {
		return discount.Decimal
	}
	return price
}

func Available(stock int) bool {
	return stock > 0
}

// DiscountPercent returns round((price-discount)/price*100), or 0 when the
// discount does not apply.
func DiscountPercent(price decimal.Decimal, discount decimal.NullDecimal) int {
	eff := EffectivePrice(price, discount)
	if !price.IsPositive() || eff.Equal(price) {
		return 0
	}
	return int(price.Sub(eff).Div(price).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

func LineTotal(unit decimal.Decimal, qty int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(qty))).Round(2)
}

type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

type Summary struct {
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Shipping  decimal.Decimal
	Total     decimal.Decimal
	ItemCount int
}

// Summarize totals the lines. Shipping is always free.
func Summarize(lines []Line) Summary {
	subtotal := decimal.Zero
	count := 0
	for _, l := range lines {
		subtotal = subtotal.Add(LineTotal(l.UnitPrice, l.Quantity))
		count += l.Quantity
	}
	tax := subtotal.Mul(TaxRate).Round(2)
	return Summary{
		Subtotal:  subtotal,
		Tax:       tax,
		Shipping:  decimal.Zero,
		Total:     subtotal.Add(tax),
		ItemCount: count,
	}
}

func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Subtotal  string `json:"subtotal"`
		Tax       string `json:"tax"`
		Shipping  string `json:"shipping"`
		Total     string `json:"total"`
		ItemCount int    `json:"item_count"`
	}{
		Subtotal:  s.Subtotal.StringFixed(2),
		Tax:       s.Tax.StringFixed(2),
		Shipping:  s.Shipping.StringFixed(2),
		Total:     s.Total.StringFixed(2),
		ItemCount: s.ItemCount,
	})
}
