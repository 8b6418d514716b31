package product

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

var productCols = []string{"id", "name_ar", "name_en", "description_ar", "description_en", "price", "discount_price",
	"image_urls", "stock_quantity", "category_id", "is_active", "created_at", "updated_at"}

func TestList_ActiveScansRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	id := uuid.New()
	cat := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows(productCols).
		AddRow(id.String(), "قهوة", "Coffee", "", "", "300.00", "250.00", "{https://cdn.test/a.png,https://cdn.test/b.png}", 4, cat.String(), true, now, now).
		AddRow(uuid.New().String(), "تمر", "", "", "", "20", nil, "{}", 0, nil, true, now, now)
	mock.ExpectQuery("FROM products WHERE is_active ORDER BY created_at DESC").WithArgs(12).WillReturnRows(rows)

	products, err := repo.List(context.Background(), ListOptions{ActiveOnly: true, Limit: 12})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	first := products[0]
	if first.ID != id || first.CategoryID == nil || *first.CategoryID != cat {
		t.Fatalf("unexpected ids %+v", first)
	}
	if len(first.ImageURLs) != 2 || first.EffectivePrice().String() != "250" {
		t.Fatalf("unexpected images or price: %v %s", first.ImageURLs, first.EffectivePrice())
	}
	if products[1].DiscountPrice.Valid || products[1].CategoryID != nil || products[1].ImageURLs == nil {
		t.Fatalf("expected null discount/category and empty images, got %+v", products[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	id := uuid.New()
	mock.ExpectQuery("FROM products WHERE id = \\$1").WithArgs(id).WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), id); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate_StampsUpdatedAtInSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	p := Product{ID: uuid.New(), NameAr: "عود", Price: price("900"), StockQuantity: 2, IsActive: true}
	created := time.Now().Add(-time.Hour)
	mock.ExpectQuery(`(?s)UPDATE products.*updated_at = now\(\)`).
		WithArgs(p.ID, "عود", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), 2, nil, true).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, time.Now()))

	got, err := repo.Update(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Fatalf("expected updated_at after created_at")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDelete_NoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	id := uuid.New()
	mock.ExpectExec("DELETE FROM products").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.Delete(context.Background(), id); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
