package cart

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wichananm65/souq-backend/internal/events"
	"github.com/wichananm65/souq-backend/internal/product"
)

type fixture struct {
	app     *fiber.App
	service *Service
	repo    *InMemoryRepository
	broker  *events.Broker
	coffee  product.Product
	dates   product.Product
	soldOut product.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	coffee := product.Product{ID: uuid.New(), NameAr: "قهوة", Price: decimal.NewFromInt(200),
		DiscountPrice: decimal.NewNullDecimal(decimal.NewFromInt(150)), StockQuantity: 5, IsActive: true}
	dates := product.Product{ID: uuid.New(), NameAr: "تمر", Price: decimal.NewFromInt(40), StockQuantity: 10, IsActive: true}
	soldOut := product.Product{ID: uuid.New(), NameAr: "عود", Price: decimal.NewFromInt(900), StockQuantity: 0, IsActive: true}
	products := product.NewService(product.NewInMemoryRepository([]product.Product{coffee, dates, soldOut}), nil)

	repo := NewInMemoryRepository(nil)
	broker := events.NewBroker()
	svc := NewService(repo, products, broker)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": v}})
		}
		return c.Next()
	})
	NewHandler(svc).RegisterProtectedRoutes(app)
	return &fixture{app: app, service: svc, repo: repo, broker: broker, coffee: coffee, dates: dates, soldOut: soldOut}
}

func (f *fixture) do(t *testing.T, method, path, body string, userID uuid.UUID) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		req.Header.Set("X-User-ID", userID.String())
	}
	res, err := f.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, _ := io.ReadAll(res.Body)
	return res, raw
}

type viewBody struct {
	Items []struct {
		ID        uuid.UUID `json:"id"`
		Quantity  int       `json:"quantity"`
		LineTotal string    `json:"line_total"`
	} `json:"items"`
	Summary struct {
		Subtotal  string `json:"subtotal"`
		Tax       string `json:"tax"`
		Total     string `json:"total"`
		ItemCount int    `json:"item_count"`
	} `json:"summary"`
}

func TestCart_UnauthenticatedAddIsRejectedWithoutMutation(t *testing.T) {
	f := newFixture(t)

	res, raw := f.do(t, "POST", "/api/v1/cart", `{"product_id":"`+f.coffee.ID.String()+`","quantity":1}`, uuid.Nil)
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.StatusCode)
	}
	var body map[string]string
	_ = json.Unmarshal(raw, &body)
	if body["redirect"] != "/auth" {
		t.Fatalf("expected redirect to /auth, got %v", body)
	}
	if len(f.repo.items) != 0 {
		t.Fatalf("cart must be untouched, got %d rows", len(f.repo.items))
	}
}

func TestCart_SetComputesSummary(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	res, raw := f.do(t, "POST", "/api/v1/cart", `{"product_id":"`+f.coffee.ID.String()+`","quantity":2}`, userID)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.StatusCode, raw)
	}
	var view viewBody
	if err := json.Unmarshal(raw, &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].LineTotal != "300" {
		t.Fatalf("unexpected lines %s", raw)
	}
	if view.Summary.Subtotal != "300.00" || view.Summary.Tax != "45.00" || view.Summary.Total != "345.00" || view.Summary.ItemCount != 2 {
		t.Fatalf("unexpected summary %+v", view.Summary)
	}

	// set replaces the quantity instead of adding to it
	res, raw = f.do(t, "POST", "/api/v1/cart", `{"product_id":"`+f.coffee.ID.String()+`","quantity":3}`, userID)
	_ = json.Unmarshal(raw, &view)
	if res.StatusCode != fiber.StatusOK || view.Summary.ItemCount != 3 {
		t.Fatalf("expected quantity 3, got %s", raw)
	}
}

func TestCart_RejectsUnavailableAndOverStock(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	res, _ := f.do(t, "POST", "/api/v1/cart", `{"product_id":"`+f.soldOut.ID.String()+`"}`, userID)
	if res.StatusCode != fiber.StatusConflict {
		t.Fatalf("sold out product: expected 409, got %d", res.StatusCode)
	}
	res, _ = f.do(t, "POST", "/api/v1/cart", `{"product_id":"`+f.coffee.ID.String()+`","quantity":6}`, userID)
	if res.StatusCode != fiber.StatusConflict {
		t.Fatalf("over stock: expected 409, got %d", res.StatusCode)
	}
	res, _ = f.do(t, "POST", "/api/v1/cart", `{"product_id":"not-a-uuid"}`, userID)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("bad id: expected 400, got %d", res.StatusCode)
	}
}

func TestCart_SetWithoutPositiveQuantity(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	ctx := context.Background()

	// a missing quantity adds one unit
	if res, raw := f.do(t, "POST", "/api/v1/cart", `{"product_id":"`+f.dates.ID.String()+`"}`, userID); res.StatusCode != fiber.StatusOK {
		t.Fatalf("add: %d %s", res.StatusCode, raw)
	}
	if n, _ := f.service.Count(ctx, userID); n != 1 {
		t.Fatalf("expected count 1, got %d", n)
	}

	// an explicit zero removes the line like PATCH does
	res, raw := f.do(t, "POST", "/api/v1/cart", `{"product_id":"`+f.dates.ID.String()+`","quantity":0}`, userID)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("set to zero: expected 200, got %d: %s", res.StatusCode, raw)
	}
	var view viewBody
	_ = json.Unmarshal(raw, &view)
	if len(view.Items) != 0 || len(f.repo.items) != 0 {
		t.Fatalf("line should be removed, got %s", raw)
	}

	// a negative quantity for a product not in the cart changes nothing
	res, raw = f.do(t, "POST", "/api/v1/cart", `{"product_id":"`+f.coffee.ID.String()+`","quantity":-2}`, userID)
	if res.StatusCode != fiber.StatusOK || len(f.repo.items) != 0 {
		t.Fatalf("expected 200 and an empty cart, got %d: %s", res.StatusCode, raw)
	}
}

func TestCart_IncrementUpdateRemoveClear(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if res, raw := f.do(t, "POST", "/api/v1/cart/increment", `{"product_id":"`+f.dates.ID.String()+`"}`, userID); res.StatusCode != fiber.StatusOK {
			t.Fatalf("increment: %d %s", res.StatusCode, raw)
		}
	}
	if n, _ := f.service.Count(ctx, userID); n != 2 {
		t.Fatalf("expected count 2, got %d", n)
	}

	items, _ := f.repo.List(ctx, userID)
	line := items[0].ID
	if res, _ := f.do(t, "PATCH", "/api/v1/cart/"+line.String(), `{"quantity":4}`, userID); res.StatusCode != fiber.StatusOK {
		t.Fatalf("patch: expected 200, got %d", res.StatusCode)
	}
	if n, _ := f.service.Count(ctx, userID); n != 4 {
		t.Fatalf("expected count 4, got %d", n)
	}

	// zero quantity removes the line
	if res, _ := f.do(t, "PATCH", "/api/v1/cart/"+line.String(), `{"quantity":0}`, userID); res.StatusCode != fiber.StatusOK {
		t.Fatalf("patch to zero: expected 200, got %d", res.StatusCode)
	}
	if res, _ := f.do(t, "DELETE", "/api/v1/cart/"+line.String(), "", userID); res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("removed line should be gone, got %d", res.StatusCode)
	}

	_, _ = f.do(t, "POST", "/api/v1/cart", `{"product_id":"`+f.coffee.ID.String()+`"}`, userID)
	if res, _ := f.do(t, "DELETE", "/api/v1/cart", "", userID); res.StatusCode != fiber.StatusOK {
		t.Fatalf("clear: expected 200, got %d", res.StatusCode)
	}
	res, raw := f.do(t, "GET", "/api/v1/cart/count", "", userID)
	if res.StatusCode != fiber.StatusOK || !strings.Contains(string(raw), `"count":0`) {
		t.Fatalf("expected empty cart, got %s", raw)
	}
}

func TestCart_OtherUsersLinesAreInvisible(t *testing.T) {
	f := newFixture(t)
	owner, other := uuid.New(), uuid.New()
	it, err := f.service.Set(context.Background(), owner, f.dates.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if res, _ := f.do(t, "DELETE", "/api/v1/cart/"+it.ID.String(), "", other); res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for a foreign line, got %d", res.StatusCode)
	}
}

func TestCart_MutationsPublishCount(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	ch, cancel := f.broker.Subscribe(userID)
	defer cancel()

	if _, err := f.service.Set(context.Background(), userID, f.dates.ID, 3); err != nil {
		t.Fatal(err)
	}
	select {
	case ev := <-ch:
		if ev.Type != events.CartUpdated || ev.CartCount == nil || *ev.CartCount != 3 {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestCart_LinesDropVanishedProducts(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	ghost := uuid.New()
	lineID := uuid.New()
	f.repo.items[lineID] = Item{ID: lineID, UserID: userID, ProductID: ghost, Quantity: 1}
	if _, err := f.service.Set(context.Background(), userID, f.dates.ID, 1); err != nil {
		t.Fatal(err)
	}
	lines, err := f.service.Lines(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || lines[0].ProductID != f.dates.ID {
		t.Fatalf("expected only the live product, got %+v", lines)
	}
}
