package admin

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tealeg/xlsx"

	"github.com/wichananm65/souq-backend/internal/product"
)

const timeLayout = "2006-01-02 15:04:05"

var exportHeaders = []string{
	"ID", "NameAr", "NameEn", "DescriptionAr", "DescriptionEn",
	"Price", "DiscountPrice", "EffectivePrice", "Stock", "Active",
	"Category", "Images", "CreatedAt", "UpdatedAt",
}

func productWorkbook(products []product.Product, categoryNames map[uuid.UUID]string) ([]byte, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetString(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetString(p.ID.String())
		row.AddCell().SetString(p.NameAr)
		row.AddCell().SetString(p.NameEn)
		row.AddCell().SetString(p.DescriptionAr)
		row.AddCell().SetString(p.DescriptionEn)
		row.AddCell().SetString(p.Price.StringFixed(2))
		if p.DiscountPrice.Valid {
			row.AddCell().SetString(p.DiscountPrice.Decimal.StringFixed(2))
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetString(p.EffectivePrice().StringFixed(2))
		row.AddCell().SetInt(p.StockQuantity)
		row.AddCell().SetBool(p.IsActive)

		// A dangling category id is exported as-is.
		category := ""
		if p.CategoryID != nil {
			category = categoryNames[*p.CategoryID]
			if category == "" {
				category = p.CategoryID.String()
			}
		}
		row.AddCell().SetString(category)
		row.AddCell().SetString(strings.Join(p.ImageURLs, ","))
		row.AddCell().SetString(p.CreatedAt.Format(timeLayout))
		row.AddCell().SetString(p.UpdatedAt.Format(timeLayout))
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
