package category

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/souq-backend/internal/cache"
)

func makeApp(svc *Service) *fiber.App {
	app := fiber.New()
	h := NewHandler(svc)
	h.RegisterPublicRoutes(app)
	h.RegisterAdminRoutes(app.Group("/api/v1/admin"))
	return app
}

func listCategories(t *testing.T, app *fiber.App, path string) []Category {
	t.Helper()
	res, err := app.Test(httptest.NewRequest("GET", path, nil))
	if err != nil {
		t.Fatal(err)
	}
	var out []Category
	raw, _ := io.ReadAll(res.Body)
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return out
}

func TestCategories_NewestFirstWithLimit(t *testing.T) {
	now := time.Now()
	svc := NewService(NewInMemoryRepository([]Category{
		{NameAr: "قديم", CreatedAt: now.Add(-2 * time.Hour)},
		{NameAr: "جديد", CreatedAt: now},
		{NameAr: "وسط", CreatedAt: now.Add(-time.Hour)},
	}), cache.New(time.Minute))
	app := makeApp(svc)

	all := listCategories(t, app, "/api/v1/categories")
	if len(all) != 3 || all[0].NameAr != "جديد" || all[2].NameAr != "قديم" {
		t.Fatalf("unexpected order %+v", all)
	}
	if got := listCategories(t, app, "/api/v1/categories?limit=1"); len(got) != 1 {
		t.Fatalf("expected 1 category, got %d", len(got))
	}
}

func TestCategories_AdminCRUDInvalidatesCache(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil), cache.New(time.Minute))
	app := makeApp(svc)

	if got := listCategories(t, app, "/api/v1/categories"); len(got) != 0 {
		t.Fatalf("expected empty list, got %d", len(got))
	}

	req := httptest.NewRequest("POST", "/api/v1/admin/categories", strings.NewReader(`{"name_ar":"عطور","image_url":"https://cdn.test/perfume.png"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", res.StatusCode)
	}
	var created Category
	raw, _ := io.ReadAll(res.Body)
	_ = json.Unmarshal(raw, &created)

	if got := listCategories(t, app, "/api/v1/categories"); len(got) != 1 || got[0].ImageURL != "https://cdn.test/perfume.png" {
		t.Fatalf("create did not reach the public list: %+v", got)
	}

	req = httptest.NewRequest("PUT", "/api/v1/admin/categories/"+created.ID.String(), strings.NewReader(`{"name_ar":""}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for blank name, got %d", res.StatusCode)
	}

	res, _ = app.Test(httptest.NewRequest("DELETE", "/api/v1/admin/categories/"+created.ID.String(), nil))
	if res.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.StatusCode)
	}
	if got := listCategories(t, app, "/api/v1/categories"); len(got) != 0 {
		t.Fatalf("delete did not reach the public list: %+v", got)
	}
}

func TestCategories_FirstUploadBecomesImage(t *testing.T) {
	app := makeApp(NewService(NewInMemoryRepository(nil), nil))

	req := httptest.NewRequest("POST", "/api/v1/admin/categories", strings.NewReader(`{"name_ar":"تمور","image_urls":["https://cdn.test/1.png","https://cdn.test/2.png"]}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", res.StatusCode)
	}
	var created Category
	raw, _ := io.ReadAll(res.Body)
	_ = json.Unmarshal(raw, &created)
	if created.ImageURL != "https://cdn.test/1.png" {
		t.Fatalf("expected first upload as image, got %q", created.ImageURL)
	}
}
