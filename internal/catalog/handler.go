package catalog

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wichananm65/souq-backend/internal/logger"
	"github.com/wichananm65/souq-backend/internal/product"
	"github.com/wichananm65/souq-backend/internal/user"
)

type Handler struct {
	service  *Service
	optional fiber.Handler
}

// NewHandler takes the optional-session middleware used by the detail page.
func NewHandler(s *Service, optional fiber.Handler) *Handler {
	if optional == nil {
		optional = func(c *fiber.Ctx) error { return c.Next() }
	}
	return &Handler{service: s, optional: optional}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/home", h.getHome)
	app.Get("/api/v1/products", h.listProducts)
	app.Get("/api/v1/products/:id", h.optional, h.getProduct)
}

func (h *Handler) getHome(c *fiber.Ctx) error {
	home, err := h.service.Home(c.UserContext())
	if err != nil {
		logger.FromCtx(c).Error("خطأ في جلب البيانات", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load home"})
	}
	return c.JSON(home)
}

func (h *Handler) listProducts(c *fiber.Ctx) error {
	f := product.Filter{
		Search:     c.Query("search"),
		CategoryID: c.Query("category"),
		PriceRange: c.Query("price_range"),
		Sort:       c.Query("sort"),
	}
	views, err := h.service.Browse(c.UserContext(), f)
	if errors.Is(err, product.ErrInvalidFilter) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid filter"})
	}
	if err != nil {
		logger.FromCtx(c).Error("خطأ في جلب المنتجات", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load products"})
	}
	return c.JSON(views)
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid product id"})
	}
	callerID, _ := user.GetUserIDFromCtx(c)
	d, err := h.service.Detail(c.UserContext(), id, callerID)
	if errors.Is(err, product.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "product not found"})
	}
	if err != nil {
		logger.FromCtx(c).Error("خطأ في جلب المنتج", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load product"})
	}
	return c.JSON(d)
}
