package role

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/wichananm65/souq-backend/internal/logger"
	"github.com/wichananm65/souq-backend/internal/user"
)

// RequireAdmin checks the admin grant on every request it guards, so a
// revoked grant takes effect on the next call.
func (s *Service) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := user.GetUserIDFromCtx(c)
		if err != nil {
			return user.Unauthorized(c)
		}
		ok, err := s.IsAdmin(c.UserContext(), userID)
		if err != nil {
			logger.FromCtx(c).Error("role check failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "role check failed"})
		}
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "you do not have access to this page", "redirect": "/"})
		}
		return c.Next()
	}
}
