package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"

	"github.com/wichananm65/souq-backend/internal/category"
	"github.com/wichananm65/souq-backend/internal/order"
	"github.com/wichananm65/souq-backend/internal/product"
	"github.com/wichananm65/souq-backend/internal/storage"
)

type stubOrders struct {
	orders []order.Order
	err    error
}

func (s stubOrders) ListAll(context.Context) ([]order.Order, error) { return s.orders, s.err }

type stubUsers int

func (s stubUsers) Count(context.Context) (int, error) { return int(s), nil }

type fixture struct {
	app      *fiber.App
	dir      string
	perfumes category.Category
}

func newFixture(t *testing.T, orders OrderLister) *fixture {
	t.Helper()
	perfumes := category.Category{ID: uuid.New(), NameAr: "عطور"}
	categories := category.NewService(category.NewInMemoryRepository([]category.Category{perfumes}), nil)
	products := product.NewService(product.NewInMemoryRepository([]product.Product{
		{ID: uuid.New(), NameAr: "عود", Price: decimal.NewFromInt(200), CategoryID: &perfumes.ID, IsActive: true,
			ImageURLs: []string{"https://cdn.souq.test/1.png"}},
		{ID: uuid.New(), NameAr: "مسك", Price: decimal.NewFromInt(80), IsActive: false,
			DiscountPrice: decimal.NewNullDecimal(decimal.NewFromInt(60))},
	}), nil)

	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir, "http://localhost:8080/uploads")
	if err != nil {
		t.Fatal(err)
	}
	svc := NewService(products, categories, orders, stubUsers(7), NewInMemorySettingsRepository())

	app := fiber.New(fiber.Config{BodyLimit: 32 << 20})
	NewHandler(svc, storage.NewUploader(store, nil)).RegisterAdminRoutes(app.Group("/api/v1/admin"))
	return &fixture{app: app, dir: dir, perfumes: perfumes}
}

func TestDashboard(t *testing.T) {
	orders := stubOrders{orders: []order.Order{
		{ID: uuid.New(), TotalAmount: decimal.RequireFromString("300.50")},
		{ID: uuid.New(), TotalAmount: decimal.NewFromInt(100)},
	}}
	f := newFixture(t, orders)

	res, err := f.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var body struct {
		Stats struct {
			TotalProducts int    `json:"totalProducts"`
			TotalOrders   int    `json:"totalOrders"`
			TotalRevenue  string `json:"totalRevenue"`
			TotalUsers    int    `json:"totalUsers"`
		} `json:"stats"`
		Products []json.RawMessage `json:"products"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Stats.TotalProducts != 2 || body.Stats.TotalOrders != 2 || body.Stats.TotalUsers != 7 {
		t.Errorf("unexpected stats %+v", body.Stats)
	}
	if body.Stats.TotalRevenue != "400.5" {
		t.Errorf("expected revenue 400.5, got %s", body.Stats.TotalRevenue)
	}
	if len(body.Products) != 2 {
		t.Errorf("inactive products belong on the dashboard, got %d", len(body.Products))
	}
}

func TestDashboard_AnyFailedLoadFails(t *testing.T) {
	f := newFixture(t, stubOrders{err: errors.New("orders down")})
	res, _ := f.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil))
	if res.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.StatusCode)
	}
}

func TestExportProducts(t *testing.T) {
	f := newFixture(t, stubOrders{})
	res, err := f.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/products/export", nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if res.Header.Get(fiber.HeaderContentType) != xlsxContentType {
		t.Errorf("unexpected content type %q", res.Header.Get(fiber.HeaderContentType))
	}
	data, _ := io.ReadAll(res.Body)
	book, err := xlsx.OpenBinary(data)
	if err != nil {
		t.Fatalf("not a workbook: %v", err)
	}
	sheet := book.Sheets[0]
	if len(sheet.Rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(sheet.Rows))
	}
	if sheet.Rows[0].Cells[1].String() != "NameAr" {
		t.Errorf("unexpected header %q", sheet.Rows[0].Cells[1].String())
	}

	byName := map[string]*xlsx.Row{}
	for _, row := range sheet.Rows[1:] {
		byName[row.Cells[1].String()] = row
	}
	if got := byName["عود"].Cells[10].String(); got != "عطور" {
		t.Errorf("expected category name, got %q", got)
	}
	if got := byName["مسك"].Cells[7].String(); got != "60.00" {
		t.Errorf("expected effective price 60.00, got %q", got)
	}
}

func multipartBody(t *testing.T, files map[string]int, names []string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, name := range names {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="files"; filename="`+name+`"`)
		h.Set("Content-Type", "image/png")
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(bytes.Repeat([]byte{0x89}, files[name])); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func TestUploadImages_SkipsOversizedFile(t *testing.T) {
	f := newFixture(t, stubOrders{})
	body, contentType := multipartBody(t,
		map[string]int{"a.png": 1024, "b.png": storage.MaxImageSize + 1, "c.png": 2048},
		[]string{"a.png", "b.png", "c.png"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/images", body)
	req.Header.Set(fiber.HeaderContentType, contentType)
	res, err := f.app.Test(req, 10000) // 10 s, in milliseconds
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var result storage.Result
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.URLs) != 2 {
		t.Fatalf("expected 2 urls, got %v", result.URLs)
	}
	if len(result.Rejected) != 1 || result.Rejected[0].Filename != "b.png" || result.Rejected[0].Reason != storage.ReasonTooLarge {
		t.Fatalf("unexpected rejections %+v", result.Rejected)
	}
	entries, _ := os.ReadDir(f.dir)
	if len(entries) != 2 {
		t.Errorf("expected 2 stored files, got %d", len(entries))
	}

	name := result.URLs[0][strings.LastIndex(result.URLs[0], "/")+1:]
	del := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/images",
		strings.NewReader(`{"url":"`+result.URLs[0]+`"}`))
	del.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	res, _ = f.app.Test(del)
	var removed struct {
		StorageError bool `json:"storage_error"`
	}
	_ = json.NewDecoder(res.Body).Decode(&removed)
	if res.StatusCode != fiber.StatusOK || removed.StorageError {
		t.Fatalf("expected clean removal, got %d %+v", res.StatusCode, removed)
	}
	if _, err := os.Stat(filepath.Join(f.dir, name)); !os.IsNotExist(err) {
		t.Errorf("expected %s to be deleted", name)
	}

	again := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/images",
		strings.NewReader(`{"url":"`+result.URLs[0]+`"}`))
	again.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	res, _ = f.app.Test(again)
	_ = json.NewDecoder(res.Body).Decode(&removed)
	if res.StatusCode != fiber.StatusOK || !removed.StorageError {
		t.Fatalf("a failed delete still succeeds with storage_error, got %d %+v", res.StatusCode, removed)
	}
}

func TestUploadImages_RequiresFiles(t *testing.T) {
	f := newFixture(t, stubOrders{})
	res, _ := f.app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/admin/images", nil))
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
}

func TestSettings(t *testing.T) {
	f := newFixture(t, stubOrders{})

	res, _ := f.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/settings", nil))
	var got Settings
	_ = json.NewDecoder(res.Body).Decode(&got)
	if got.StoreName != "متجر إلكتروني" || got.DeliveryTime != "3-5" || !got.ShippingCost.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected defaults %+v", got)
	}

	put := func(body string) *http.Response {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/settings", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		res, err := f.app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		return res
	}

	res = put(`{"store_name":"سوق","delivery_time":"1-2","shipping_cost":"0"}`)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	res, _ = f.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/settings", nil))
	_ = json.NewDecoder(res.Body).Decode(&got)
	if got.StoreName != "سوق" || got.DeliveryTime != "1-2" || !got.ShippingCost.IsZero() || len(got.PaymentMethods) != 3 {
		t.Fatalf("settings not saved: %+v", got)
	}

	res = put(`{"store_name":" ","delivery_time":"9-10","shipping_cost":"-1","payment_methods":["cheque"]}`)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
	var invalid struct {
		Errors map[string]string `json:"errors"`
	}
	_ = json.NewDecoder(res.Body).Decode(&invalid)
	for _, field := range []string{"store_name", "delivery_time", "shipping_cost"} {
		if _, ok := invalid.Errors[field]; !ok {
			t.Errorf("expected error on %s, got %v", field, invalid.Errors)
		}
	}
}

func TestAccess(t *testing.T) {
	f := newFixture(t, stubOrders{})
	res, _ := f.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/access", nil))
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
}
