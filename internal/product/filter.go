package product

import (
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	SortName      = "name"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"

	RangeAll       = "all"
	RangeUnder100  = "under-100"
	Range100To500  = "100-500"
	Range500To1000 = "500-1000"
	RangeOver1000  = "over-1000"
)

var ErrInvalidFilter = errors.New("invalid filter")

var (
	hundred  = decimal.NewFromInt(100)
	fiveHund = decimal.NewFromInt(500)
	thousand = decimal.NewFromInt(1000)
)

// Filter is the storefront's product query. Empty fields and "all" match
// everything; the three predicates are combined with AND.
type Filter struct {
	Search     string
	CategoryID string
	PriceRange string
	Sort       string
}

func (f Filter) Validate() error {
	switch f.PriceRange {
	case "", RangeAll, RangeUnder100, Range100To500, Range500To1000, RangeOver1000:
	default:
		return ErrInvalidFilter
	}
	switch f.Sort {
	case "", SortName, SortPriceLow, SortPriceHigh:
	default:
		return ErrInvalidFilter
	}
	return nil
}

func inRange(price decimal.Decimal, r string) bool {
	switch r {
	case RangeUnder100:
		return price.LessThan(hundred)
	case Range100To500:
		return price.GreaterThanOrEqual(hundred) && price.LessThanOrEqual(fiveHund)
	case Range500To1000:
		return price.GreaterThanOrEqual(fiveHund) && price.LessThanOrEqual(thousand)
	case RangeOver1000:
		return price.GreaterThan(thousand)
	}
	return true
}

// Apply filters and sorts products in memory. The input slice is not modified.
func Apply(products []Product, f Filter) []Product {
	fold := cases.Fold()
	term := fold.String(strings.TrimSpace(f.Search))

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if term != "" && !matchesSearch(fold, p, term) {
			continue
		}
		if f.CategoryID != "" && f.CategoryID != RangeAll {
			if p.CategoryID == nil || p.CategoryID.String() != f.CategoryID {
				continue
			}
		}
		if !inRange(p.EffectivePrice(), f.PriceRange) {
			continue
		}
		out = append(out, p)
	}

	switch f.Sort {
	case SortName:
		col := collate.New(language.Arabic)
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(out[i].NameAr, out[j].NameAr) < 0
		})
	case SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].EffectivePrice().LessThan(out[j].EffectivePrice())
		})
	case SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].EffectivePrice().GreaterThan(out[j].EffectivePrice())
		})
	}
	return out
}

func matchesSearch(fold cases.Caser, p Product, term string) bool {
	for _, field := range []string{p.NameAr, p.NameEn, p.DescriptionAr, p.DescriptionEn} {
		if field != "" && strings.Contains(fold.String(field), term) {
			return true
		}
	}
	return false
}
