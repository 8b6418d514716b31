package order

import (
	"errors"

	"github.com/gofiber/fiber/v2"
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
	app.Post("/api/v1/checkout", h.checkout)
	app.Get("/api/v1/profile/orders", h.getMyOrders)
}

// RegisterAdminRoutes exposes the read-only order list.
func (h *Handler) RegisterAdminRoutes(r fiber.Router) {
	r.Get("/orders", h.getAllOrders)
}

func (h *Handler) checkout(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return user.Unauthorized(c)
	}
	payload := new(CheckoutRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if errs := validation.Struct(payload); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid input", "errors": errs})
	}

	receipt, err := h.service.Checkout(c.UserContext(), userID, *payload)
	switch {
	case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrInvalidPaymentMethod):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case err != nil:
		logger.FromCtx(c).Error("checkout failed", zap.String("user_id", userID.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to place order"})
	}
	logger.FromCtx(c).Info("order placed",
		zap.String("order_id", receipt.Order.ID.String()),
		zap.String("payment_method", receipt.Order.PaymentMethod),
	)
	return c.Status(fiber.StatusCreated).JSON(receipt)
}

func (h *Handler) getMyOrders(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return user.Unauthorized(c)
	}
	orders, err := h.service.ListMine(c.UserContext(), userID)
	if err != nil {
		logger.FromCtx(c).Error("list orders", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load orders"})
	}
	return c.JSON(orders)
}

func (h *Handler) getAllOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListAll(c.UserContext())
	if err != nil {
		logger.FromCtx(c).Error("list all orders", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load orders"})
	}
	return c.JSON(orders)
}
