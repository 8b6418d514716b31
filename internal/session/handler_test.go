package session

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

	"github.com/wichananm65/souq-backend/internal/cart"
	"github.com/wichananm65/souq-backend/internal/events"
	"github.com/wichananm65/souq-backend/internal/product"
	"github.com/wichananm65/souq-backend/internal/role"
	"github.com/wichananm65/souq-backend/internal/user"
)

type fixture struct {
	app    *fiber.App
	broker *events.Broker
	roles  *role.Service
	member user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	member := user.User{ID: uuid.New(), Email: "sara@souq.test", FullName: "سارة"}
	users := user.NewService(user.NewInMemoryRepository([]user.User{member}))
	broker := events.NewBroker()
	products := product.NewService(product.NewInMemoryRepository(nil), nil)
	carts := cart.NewService(cart.NewInMemoryRepository(nil), products, broker)
	roles := role.NewService(role.NewInMemoryRepository())

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": v, "jti": c.Get("X-Token-ID")}})
		}
		return c.Next()
	})
	NewHandler(users, carts, roles, broker).RegisterProtectedRoutes(app)
	return &fixture{app: app, broker: broker, roles: roles, member: member}
}

func TestGetSession(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.Header.Set("X-User-ID", f.member.ID.String())
	res, err := f.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var got Snapshot
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.User == nil || got.User.Email != f.member.Email {
		t.Fatalf("unexpected user %+v", got.User)
	}
	if got.CartCount != 0 || got.IsAdmin {
		t.Fatalf("unexpected snapshot %+v", got)
	}
}

func TestGetSession_ReportsAdmin(t *testing.T) {
	f := newFixture(t)
	if err := f.roles.Grant(context.Background(), f.member.ID, role.Admin); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.Header.Set("X-User-ID", f.member.ID.String())
	res, _ := f.app.Test(req)
	var got Snapshot
	_ = json.NewDecoder(res.Body).Decode(&got)
	if !got.IsAdmin {
		t.Fatal("expected is_admin true")
	}
}

func TestGetSession_Unauthorized(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"", uuid.NewString()} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
		if id != "" {
			req.Header.Set("X-User-ID", id)
		}
		res, err := f.app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		if res.StatusCode != fiber.StatusUnauthorized {
			t.Fatalf("id %q: expected 401, got %d", id, res.StatusCode)
		}
	}
}

func TestStreamEvents(t *testing.T) {
	f := newFixture(t)

	type result struct {
		body string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/session/events", nil)
		req.Header.Set("X-User-ID", f.member.ID.String())
		req.Header.Set("X-Token-ID", "phone")
		res, err := f.app.Test(req, -1)
		if err != nil {
			done <- result{err: err}
			return
		}
		b, err := io.ReadAll(res.Body)
		done <- result{body: string(b), err: err}
	}()

	deadline := time.Now().Add(2 * time.Second)
	for f.broker.Subscribers(f.member.ID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	f.broker.Publish(events.WithCount(events.Event{Type: events.CartUpdated, UserID: f.member.ID}, 3))
	// signing out on another device leaves this stream open
	f.broker.Publish(events.WithCount(events.Event{Type: events.SignedOut, UserID: f.member.ID, TokenID: "laptop"}, 0))
	f.broker.Publish(events.Event{Type: events.TokenRefreshed, UserID: f.member.ID, TokenID: "phone-2", ReplacesTokenID: "phone"})
	f.broker.Publish(events.WithCount(events.Event{Type: events.SignedOut, UserID: f.member.ID, TokenID: "phone-2"}, 0))

	var r result
	select {
	case r = <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("stream did not end after sign-out")
	}
	if r.err != nil {
		t.Fatal(r.err)
	}

	frames := strings.Split(strings.TrimSpace(r.body), "\n\n")
	if len(frames) != 4 {
		t.Fatalf("expected 4 frames, got %d: %q", len(frames), r.body)
	}
	wantEvents := []events.Type{events.InitialSession, events.CartUpdated, events.TokenRefreshed, events.SignedOut}
	wantCounts := []int{0, 3, 3, 0}
	for i, frame := range frames {
		lines := strings.SplitN(frame, "\n", 2)
		if lines[0] != "event: "+string(wantEvents[i]) {
			t.Errorf("frame %d: got %q", i, lines[0])
		}
		var m message
		if err := json.Unmarshal([]byte(strings.TrimPrefix(lines[1], "data: ")), &m); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if m.CartCount != wantCounts[i] {
			t.Errorf("frame %d: cart_count = %d, want %d", i, m.CartCount, wantCounts[i])
		}
		if (m.Session == nil) != (wantEvents[i] == events.SignedOut) {
			t.Errorf("frame %d: unexpected session %+v", i, m.Session)
		}
	}
	if f.broker.Subscribers(f.member.ID) != 0 {
		t.Error("subscription was not released")
	}
}

func TestApply_KeepsCountAcrossAuthEvents(t *testing.T) {
	ref := &sessionRef{UserID: uuid.New(), Email: "a@souq.test"}
	count, m := apply(4, ref, events.Event{Type: events.TokenRefreshed, UserID: ref.UserID})
	if count != 4 || m.CartCount != 4 || m.Session == nil {
		t.Fatalf("unexpected %d %+v", count, m)
	}
	count, _ = apply(count, ref, events.Event{Type: events.CartUpdated, UserID: ref.UserID})
	if count != 4 {
		t.Fatalf("missing count should keep the previous value, got %d", count)
	}
}

func TestFollow_SignOutEndsOnlyItsOwnToken(t *testing.T) {
	jti, mine := follow("phone", events.Event{Type: events.SignedOut, TokenID: "laptop"})
	if mine || jti != "phone" {
		t.Fatalf("another token's sign-out must be dropped, got %q %v", jti, mine)
	}
	if _, mine = follow("phone", events.Event{Type: events.SignedOut, TokenID: "phone"}); !mine {
		t.Fatal("own sign-out must be delivered")
	}
	if _, mine = follow("phone", events.Event{Type: events.SignedOut}); !mine {
		t.Fatal("a sign-out without a token id ends every stream")
	}

	jti, mine = follow("phone", events.Event{Type: events.TokenRefreshed, TokenID: "phone-2", ReplacesTokenID: "phone"})
	if !mine || jti != "phone-2" {
		t.Fatalf("refresh must move the stream to the new token, got %q", jti)
	}
	jti, _ = follow("phone", events.Event{Type: events.TokenRefreshed, TokenID: "laptop-2", ReplacesTokenID: "laptop"})
	if jti != "phone" {
		t.Fatalf("another device's refresh must not move the stream, got %q", jti)
	}
}
