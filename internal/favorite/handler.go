package favorite

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wichananm65/souq-backend/internal/cart"
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
	app.Get("/api/v1/favorites", h.getFavorites)
	app.Get("/api/v1/favorites/status/:productId", h.getStatus)
	app.Post("/api/v1/favorites/toggle", h.toggle)
	app.Delete("/api/v1/favorites/:id", h.removeFavorite)
	app.Post("/api/v1/favorites/:id/cart", h.addToCart)
}

type toggleRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "favorite not found"})
	case errors.Is(err, ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "product not found"})
	case errors.Is(err, cart.ErrProductUnavailable), errors.Is(err, cart.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	}
	logger.FromCtx(c).Error("favorite operation failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "favorite operation failed"})
}

func (h *Handler) getFavorites(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return user.Unauthorized(c)
	}
	entries, err := h.service.List(c.UserContext(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(entries)
}

func (h *Handler) getStatus(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return user.Unauthorized(c)
	}
	productID, err := uuid.Parse(c.Params("productId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid product id"})
	}
	fav, err := h.service.Status(c.UserContext(), userID, productID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"is_favorite": fav})
}

func (h *Handler) toggle(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return user.Unauthorized(c)
	}
	payload := new(toggleRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if errs := validation.Struct(payload); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid input", "errors": errs})
	}
	fav, err := h.service.Toggle(c.UserContext(), userID, uuid.MustParse(payload.ProductID))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"is_favorite": fav})
}

func (h *Handler) removeFavorite(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return user.Unauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid favorite id"})
	}
	if err := h.service.Remove(c.UserContext(), userID, id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) addToCart(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return user.Unauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid favorite id"})
	}
	item, err := h.service.AddToCart(c.UserContext(), userID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(item)
}
