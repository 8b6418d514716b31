package review

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
	service  *Service
	optional fiber.Handler
}

// NewHandler takes the optional-session middleware so the public listing can
// mark the caller's own review.
func NewHandler(s *Service, optional fiber.Handler) *Handler {
	if optional == nil {
		optional = func(c *fiber.Ctx) error { return c.Next() }
	}
	return &Handler{service: s, optional: optional}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/products/:id/reviews", h.optional, h.listReviews)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/products/:id/reviews", h.submitReview)
}

type submitRequest struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

func (h *Handler) listReviews(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid product id"})
	}
	callerID, _ := user.GetUserIDFromCtx(c)
	listing, err := h.service.List(c.UserContext(), productID, callerID)
	if err != nil {
		logger.FromCtx(c).Error("list reviews", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load reviews"})
	}
	return c.JSON(listing)
}

func (h *Handler) submitReview(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return user.Unauthorized(c)
	}
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid product id"})
	}
	payload := new(submitRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if errs := validation.Struct(payload); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid input", "errors": errs})
	}

	entry, stats, err := h.service.Submit(c.UserContext(), userID, productID, payload.Rating, payload.Comment)
	switch {
	case errors.Is(err, ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "product not found"})
	case errors.Is(err, ErrInvalidRating):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case err != nil:
		logger.FromCtx(c).Error("submit review", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to save review"})
	}
	return c.JSON(fiber.Map{"review": entry, "stats": stats})
}
