package middleware

import (
	"strings"

	"coursehub/backend/config"
	"coursehub/backend/models"
	"coursehub/backend/repository"
	"coursehub/backend/services"
	"coursehub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// MaintenanceMiddleware answers 503 while maintenance mode is on. Auth
// endpoints stay open so admins can still log in, and admins pass through.
func MaintenanceMiddleware(flag services.Maintenance, db *gorm.DB, cfg *config.Config, logger *utils.Logger) fiber.Handler {
	authPrefix := cfg.APIPrefix + "/auth"
	return func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), authPrefix) {
			return c.Next()
		}

		enabled, err := flag.Enabled(c.UserContext())
		if err != nil {
			// fail open when the flag store is unreachable
			logger.Error("read maintenance flag", "error", err)
			return c.Next()
		}
		if !enabled {
			return c.Next()
		}

		if userID, err := utils.ExtractUserIDFromToken(c, cfg); err == nil {
			if user, err := repository.FindByID[models.User](db, userID); err == nil && user.IsAdmin() && user.IsActive {
				return c.Next()
			}
		}
		return utils.ServiceUnavailable(c, "Service is under maintenance")
	}
}
