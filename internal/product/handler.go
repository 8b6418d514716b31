package product

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wichananm65/souq-backend/internal/logger"
	"github.com/wichananm65/souq-backend/internal/validation"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterAdminRoutes mounts product management on a router that already
// enforces the admin role.
func (h *Handler) RegisterAdminRoutes(r fiber.Router) {
	r.Get("/products", h.listAll)
	r.Post("/products", h.createProduct)
	r.Put("/products/:id", h.updateProduct)
	r.Delete("/products/:id", h.deleteProduct)
}

func (h *Handler) listAll(c *fiber.Ctx) error {
	products, err := h.service.ListAll(c.UserContext())
	if err != nil {
		logger.FromCtx(c).Error("list products", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load products"})
	}
	return c.JSON(Views(products))
}

func parseInput(c *fiber.Ctx) (Input, map[string]string, error) {
	var in Input
	if err := c.BodyParser(&in); err != nil {
		return Input{}, nil, err
	}
	errs := validation.Struct(in)
	for k, v := range in.MoneyErrors() {
		if errs == nil {
			errs = map[string]string{}
		}
		errs[k] = v
	}
	return in, errs, nil
}

func (h *Handler) createProduct(c *fiber.Ctx) error {
	in, errs, err := parseInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid input", "errors": errs})
	}

	p, err := h.service.Create(c.UserContext(), in)
	if err != nil {
		logger.FromCtx(c).Error("create product", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to create product"})
	}
	logger.FromCtx(c).Info("product created", zap.String("product_id", p.ID.String()))
	return c.Status(fiber.StatusCreated).JSON(p.View())
}

func (h *Handler) updateProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid product id"})
	}
	in, errs, err := parseInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid input", "errors": errs})
	}

	p, err := h.service.Update(c.UserContext(), id, in)
	if errors.Is(err, ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "product not found"})
	}
	if err != nil {
		logger.FromCtx(c).Error("update product", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to update product"})
	}
	return c.JSON(p.View())
}

func (h *Handler) deleteProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid product id"})
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "product not found"})
		}
		logger.FromCtx(c).Error("delete product", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to delete product"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
