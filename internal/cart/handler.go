package cart

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wichananm65/souq-backend/internal/logger"
	"github.com/wichananm65/souq-backend/internal/user"
	"github.com/wichananm65/souq-backend/internal/validation"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/cart", h.getCart)
	app.Get("/api/v1/cart/count", h.getCount)
	app.Post("/api/v1/cart", h.setItem)
	app.Post("/api/v1/cart/increment", h.increment)
	app.Patch("/api/v1/cart/:id", h.updateQuantity)
	app.Delete("/api/v1/cart/:id", h.removeItem)
	app.Delete("/api/v1/cart", h.clear)
}

type setRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  *int   `json:"quantity"`
}

type incrementRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// fail maps service errors to responses.
func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "cart item not found"})
	case errors.Is(err, ErrProductUnavailable), errors.Is(err, ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	}
	logger.FromCtx(c).Error("cart operation failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "cart operation failed"})
}

func (h *Handler) respondView(c *fiber.Ctx, userID uuid.UUID) error {
	view, err := h.service.View(c.UserContext(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return user.Unauthorized(c)
	}
	return h.respondView(c, userID)
}

func (h *Handler) getCount(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return user.Unauthorized(c)
	}
	n, err := h.service.Count(c.UserContext(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"count": n})
}

func (h *Handler) setItem(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return user.Unauthorized(c)
	}
	payload := new(setRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if errs := validation.Struct(payload); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid input", "errors": errs})
	}
	qty := 1
	if payload.Quantity != nil {
		qty = *payload.Quantity
	}
	if _, err := h.service.Set(c.UserContext(), userID, uuid.MustParse(payload.ProductID), qty); err != nil {
		return fail(c, err)
	}
	return h.respondView(c, userID)
}

func (h *Handler) increment(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return user.Unauthorized(c)
	}
	payload := new(incrementRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if errs := validation.Struct(payload); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid input", "errors": errs})
	}
	if _, err := h.service.Increment(c.UserContext(), userID, uuid.MustParse(payload.ProductID)); err != nil {
		return fail(c, err)
	}
	return h.respondView(c, userID)
}

func (h *Handler) updateQuantity(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return user.Unauthorized(c)
	}
	lineID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid cart item id"})
	}
	payload := new(quantityRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := h.service.UpdateQuantity(c.UserContext(), userID, lineID, payload.Quantity); err != nil {
		return fail(c, err)
	}
	return h.respondView(c, userID)
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return user.Unauthorized(c)
	}
	lineID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid cart item id"})
	}
	if err := h.service.Remove(c.UserContext(), userID, lineID); err != nil {
		return fail(c, err)
	}
	return h.respondView(c, userID)
}

func (h *Handler) clear(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return user.Unauthorized(c)
	}
	if err := h.service.Clear(c.UserContext(), userID); err != nil {
		return fail(c, err)
	}
	return h.respondView(c, userID)
}
