package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wichananm65/souq-backend/internal/pricing"
)

// Product maps to the `products` table. Arabic fields are primary; English
// fields may be empty.
type Product struct {
	ID            uuid.UUID           `json:"id"`
	NameAr        string              `json:"name_ar"`
	NameEn        string              `json:"name_en"`
	DescriptionAr string              `json:"description_ar"`
	DescriptionEn string              `json:"description_en"`
	Price         decimal.Decimal     `json:"price"`
	DiscountPrice decimal.NullDecimal `json:"discount_price"`
	ImageURLs     []string            `json:"image_urls"`
	StockQuantity int                 `json:"stock_quantity"`
	CategoryID    *uuid.UUID          `json:"category_id"`
	IsActive      bool                `json:"is_active"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func (p Product) EffectivePrice() decimal.Decimal {
	return pricing.EffectivePrice(p.Price, p.DiscountPrice)
}

func (p Product) Available() bool {
	return pricing.Available(p.StockQuantity)
}

// View adds the derived fields the storefront renders next to a product.
type View struct {
	Product
	EffectivePrice  decimal.Decimal `json:"effective_price"`
	Available       bool            `json:"available"`
	DiscountPercent int             `json:"discount_percent"`
}

func (p Product) View() View {
	return View{
		Product:         p,
		EffectivePrice:  p.EffectivePrice(),
		Available:       p.Available(),
		DiscountPercent: pricing.DiscountPercent(p.Price, p.DiscountPrice),
	}
}

func Views(products []Product) []View {
	out := make([]View, len(products))
	for i, p := range products {
		out[i] = p.View()
	}
	return out
}

// Input is the admin create/update payload.
type Input struct {
	NameAr        string              `json:"name_ar" validate:"notblank,max=200"`
	NameEn        string              `json:"name_en" validate:"max=200"`
	DescriptionAr string              `json:"description_ar" validate:"max=5000"`
	DescriptionEn string              `json:"description_en" validate:"max=5000"`
	Price         decimal.Decimal     `json:"price"`
	DiscountPrice decimal.NullDecimal `json:"discount_price"`
	StockQuantity int                 `json:"stock_quantity" validate:"gte=0"`
	CategoryID    *uuid.UUID          `json:"category_id"`
	ImageURLs     []string            `json:"image_urls" validate:"max=20,dive,imageurl"`
	IsActive      *bool               `json:"is_active"`
}

// MoneyErrors reports the checks the struct tags cannot express.
func (in Input) MoneyErrors() map[string]string {
	errs := map[string]string{}
	if in.Price.IsNegative() {
		errs["price"] = "must be greater than or equal to 0"
	}
	if in.DiscountPrice.Valid && in.DiscountPrice.Decimal.IsNegative() {
		errs["discount_price"] = "must be greater than or equal to 0"
	}
	return errs
}

func (in Input) apply(p Product) Product {
	p.NameAr = in.NameAr
	p.NameEn = in.NameEn
	p.DescriptionAr = in.DescriptionAr
	p.DescriptionEn = in.DescriptionEn
	p.Price = in.Price
	p.DiscountPrice = in.DiscountPrice
	p.StockQuantity = in.StockQuantity
	p.CategoryID = in.CategoryID
	p.ImageURLs = append([]string{}, in.ImageURLs...)
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	return p
}
