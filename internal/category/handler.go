package category

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wichananm65/souq-backend/internal/logger"
	"github.com/wichananm65/souq-backend/internal/validation"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/categories", h.getCategories)
}

// RegisterAdminRoutes mounts category management on an admin-guarded router.
func (h *Handler) RegisterAdminRoutes(r fiber.Router) {
	r.Get("/categories", h.getCategories)
	r.Post("/categories", h.createCategory)
	r.Put("/categories/:id", h.updateCategory)
	r.Delete("/categories/:id", h.deleteCategory)
}

func (h *Handler) getCategories(c *fiber.Ctx) error {
	limit := 0
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}
	items, err := h.service.List(c.UserContext(), limit)
	if err != nil {
		logger.FromCtx(c).Error("list categories", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load categories"})
	}
	return c.JSON(items)
}

// bind writes the 400 response itself and reports whether the handler
// should continue.
func bind(c *fiber.Ctx) (Input, bool, error) {
	var in Input
	if err := c.BodyParser(&in); err != nil {
		return Input{}, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if errs := validation.Struct(in); errs != nil {
		return Input{}, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid input", "errors": errs})
	}
	return in, true, nil
}

func (h *Handler) createCategory(c *fiber.Ctx) error {
	in, ok, err := bind(c)
	if !ok {
		return err
	}
	cat, err := h.service.Create(c.UserContext(), in)
	if err != nil {
		logger.FromCtx(c).Error("create category", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to create category"})
	}
	return c.Status(fiber.StatusCreated).JSON(cat)
}

func (h *Handler) updateCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid category id"})
	}
	in, ok, err := bind(c)
	if !ok {
		return err
	}
	cat, err := h.service.Update(c.UserContext(), id, in)
	if errors.Is(err, ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "category not found"})
	}
	if err != nil {
		logger.FromCtx(c).Error("update category", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to update category"})
	}
	return c.JSON(cat)
}

func (h *Handler) deleteCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid category id"})
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "category not found"})
		}
		logger.FromCtx(c).Error("delete category", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to delete category"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
