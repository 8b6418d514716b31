package admin

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/wichananm65/souq-backend/internal/logger"
	"github.com/wichananm65/souq-backend/internal/storage"
	"github.com/wichananm65/souq-backend/internal/validation"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	service  *Service
	uploader *storage.Uploader
}

func NewHandler(s *Service, uploader *storage.Uploader) *Handler {
	return &Handler{service: s, uploader: uploader}
}

// RegisterAdminRoutes expects r to be guarded by the admin check already.
func (h *Handler) RegisterAdminRoutes(r fiber.Router) {
	r.Get("/access", h.access)
	r.Get("/dashboard", h.dashboard)
	r.Get("/products/export", h.exportProducts)
	r.Post("/images", h.uploadImages)
	r.Delete("/images", h.removeImage)
	r.Get("/settings", h.getSettings)
	r.Put("/settings", h.putSettings)
}

func (h *Handler) access(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"is_admin": true})
}

func (h *Handler) dashboard(c *fiber.Ctx) error {
	d, err := h.service.Dashboard(c.UserContext())
	if err != nil {
		logger.FromCtx(c).Error("خطأ في جلب بيانات الإدارة", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load dashboard"})
	}
	return c.JSON(d)
}

func (h *Handler) exportProducts(c *fiber.Ctx) error {
	data, err := h.service.ExportProducts(c.UserContext())
	if err != nil {
		logger.FromCtx(c).Error("export products", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to export products"})
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="products-%s.xlsx"`, time.Now().UTC().Format("20060102")))
	return c.Send(data)
}

func (h *Handler) uploadImages(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "no files provided"})
	}
	files := make([]storage.File, 0, len(form.File["files"]))
	for _, fh := range form.File["files"] {
		files = append(files, storage.FromMultipart(fh))
	}
	res := h.uploader.Upload(c.UserContext(), files)
	logger.FromCtx(c).Info("images uploaded",
		zap.Int("uploaded", len(res.URLs)), zap.Int("rejected", len(res.Rejected)))
	return c.JSON(res)
}

type removeImageRequest struct {
	URL string `json:"url" validate:"notblank"`
}

func (h *Handler) removeImage(c *fiber.Ctx) error {
	var req removeImageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid body"})
	}
	if errs := validation.Struct(req); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid input", "errors": errs})
	}
	failed := h.uploader.Remove(c.UserContext(), req.URL)
	return c.JSON(fiber.Map{"url": req.URL, "removed": true, "storage_error": failed})
}

func (h *Handler) getSettings(c *fiber.Ctx) error {
	s, err := h.service.Settings(c.UserContext())
	if err != nil {
		logger.FromCtx(c).Error("load settings", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load settings"})
	}
	return c.JSON(s)
}

func (h *Handler) putSettings(c *fiber.Ctx) error {
	in := DefaultSettings()
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid body"})
	}
	errs := validation.Struct(in)
	for k, v := range in.MoneyErrors() {
		if errs == nil {
			errs = map[string]string{}
		}
		errs[k] = v
	}
	if errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid input", "errors": errs})
	}
	saved, err := h.service.SaveSettings(c.UserContext(), in)
	if err != nil {
		logger.FromCtx(c).Error("save settings", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to save settings"})
	}
	return c.JSON(saved)
}
