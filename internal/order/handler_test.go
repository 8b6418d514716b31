package order

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wichananm65/souq-backend/internal/cart"
	"github.com/wichananm65/souq-backend/internal/events"
	"github.com/wichananm65/souq-backend/internal/product"
	"github.com/wichananm65/souq-backend/internal/profile"
)

type checkoutFixture struct {
	app      *fiber.App
	carts    *cart.Service
	profiles *profile.Service
	orders   *InMemoryRepository
	broker   *events.Broker
	coffee   product.Product
}

func newCheckoutFixture(t *testing.T, profileRepo profile.Repository) *checkoutFixture {
	t.Helper()
	coffee := product.Product{ID: uuid.New(), NameAr: "قهوة", Price: decimal.NewFromInt(200),
		DiscountPrice: decimal.NewNullDecimal(decimal.NewFromInt(150)), StockQuantity: 5, IsActive: true}
	products := product.NewService(product.NewInMemoryRepository([]product.Product{coffee}), nil)

	broker := events.NewBroker()
	cartRepo := cart.NewInMemoryRepository(nil)
	carts := cart.NewService(cartRepo, products, broker)
	if profileRepo == nil {
		profileRepo = profile.NewInMemoryRepository(nil)
	}
	profiles := profile.NewService(profileRepo)
	orders := NewInMemoryRepository(profileRepo, cartRepo)
	h := NewHandler(NewService(orders, carts, products))

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": v}})
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	h.RegisterAdminRoutes(app.Group("/api/v1/admin"))
	return &checkoutFixture{app: app, carts: carts, profiles: profiles, orders: orders, broker: broker, coffee: coffee}
}

func (f *checkoutFixture) checkout(t *testing.T, userID uuid.UUID, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		req.Header.Set("X-User-ID", userID.String())
	}
	res, err := f.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := io.ReadAll(res.Body)
	return res.StatusCode, raw
}

const shippingForm = `{"full_name":"نورة","phone":"0551234567","address":"حي العليا","city":"الرياض","payment_method":"card","notes":"بعد العصر"}`

func TestCheckout_CardOrderIsPaidAndClearsCart(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	userID := uuid.New()
	ctx := context.Background()
	if _, err := f.carts.Set(ctx, userID, f.coffee.ID, 2); err != nil {
		t.Fatal(err)
	}
	ch, cancel := f.broker.Subscribe(userID)
	defer cancel()

	code, raw := f.checkout(t, userID, shippingForm)
	if code != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", code, raw)
	}
	var receipt struct {
		Order struct {
			TotalAmount     string `json:"total_amount"`
			PaymentStatus   string `json:"payment_status"`
			Status          string `json:"status"`
			ShippingAddress string `json:"shipping_address"`
			Items           []Item `json:"items"`
		} `json:"order"`
		Summary struct {
			Total string `json:"total"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(raw, &receipt); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if receipt.Order.PaymentStatus != PaymentStatusPaid || receipt.Order.Status != StatusPending {
		t.Fatalf("card payment should be paid/pending, got %s", raw)
	}
	if receipt.Order.TotalAmount != "300" || receipt.Summary.Total != "345.00" {
		t.Fatalf("unexpected totals %s", raw)
	}
	if receipt.Order.ShippingAddress != "حي العليا, الرياض" {
		t.Fatalf("unexpected address %q", receipt.Order.ShippingAddress)
	}
	if len(receipt.Order.Items) != 1 || !receipt.Order.Items[0].Price.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("item must snapshot the effective price: %+v", receipt.Order.Items)
	}

	if n, _ := f.carts.Count(ctx, userID); n != 0 {
		t.Fatalf("cart should be empty after checkout, got %d", n)
	}
	p, _ := f.profiles.Get(ctx, userID)
	if p.FullName != "نورة" || p.City != "الرياض" {
		t.Fatalf("profile not saved: %+v", p)
	}
	select {
	case ev := <-ch:
		if ev.CartCount == nil || *ev.CartCount != 0 {
			t.Fatalf("expected count 0 event, got %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no cart event after checkout")
	}

	req := httptest.NewRequest("GET", "/api/v1/profile/orders", nil)
	req.Header.Set("X-User-ID", userID.String())
	res, _ := f.app.Test(req)
	raw, _ = io.ReadAll(res.Body)
	var mine []Order
	_ = json.Unmarshal(raw, &mine)
	if len(mine) != 1 || mine[0].Items[0].ProductNameAr != "قهوة" {
		t.Fatalf("unexpected order history %s", raw)
	}
}

func TestCheckout_CashStaysPending(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	userID := uuid.New()
	if _, err := f.carts.Set(context.Background(), userID, f.coffee.ID, 1); err != nil {
		t.Fatal(err)
	}
	code, raw := f.checkout(t, userID, `{"full_name":"نورة","phone":"1","address":"a","city":"b"}`)
	if code != fiber.StatusCreated || !strings.Contains(string(raw), `"payment_method":"cash"`) || !strings.Contains(string(raw), `"payment_status":"pending"`) {
		t.Fatalf("default cash order should be pending: %d %s", code, raw)
	}
}

func TestCheckout_ValidationWritesNothing(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	userID := uuid.New()
	ctx := context.Background()

	if code, _ := f.checkout(t, userID, shippingForm); code != fiber.StatusBadRequest {
		t.Fatalf("empty cart: expected 400, got %d", code)
	}

	if _, err := f.carts.Set(ctx, userID, f.coffee.ID, 1); err != nil {
		t.Fatal(err)
	}
	for _, body := range []string{
		`{"full_name":"","phone":"1","address":"a","city":"b"}`,
		`{"full_name":"x","phone":"1","address":"a","city":"b","payment_method":"crypto"}`,
	} {
		if code, _ := f.checkout(t, userID, body); code != fiber.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, code)
		}
	}
	if code, _ := f.checkout(t, uuid.Nil, shippingForm); code != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}

	all, _ := f.orders.ListAll(ctx)
	if len(all) != 0 {
		t.Fatalf("no order should be written, got %d", len(all))
	}
	if n, _ := f.carts.Count(ctx, userID); n != 1 {
		t.Fatalf("cart must be untouched, got %d", n)
	}
}

type failingProfiles struct{ *profile.InMemoryRepository }

func (failingProfiles) Upsert(context.Context, profile.Profile) (profile.Profile, error) {
	return profile.Profile{}, errors.New("profile store down")
}

func TestCheckout_FailureLeavesCartAndOrders(t *testing.T) {
	f := newCheckoutFixture(t, failingProfiles{profile.NewInMemoryRepository(nil)})
	userID := uuid.New()
	ctx := context.Background()
	if _, err := f.carts.Set(ctx, userID, f.coffee.ID, 1); err != nil {
		t.Fatal(err)
	}

	if code, _ := f.checkout(t, userID, shippingForm); code != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
	if all, _ := f.orders.ListAll(ctx); len(all) != 0 {
		t.Fatalf("order must not survive a failed checkout")
	}
	if n, _ := f.carts.Count(ctx, userID); n != 1 {
		t.Fatalf("cart must survive a failed checkout, got %d", n)
	}
}
