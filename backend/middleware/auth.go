package middleware

import (
	"coursehub/backend/config"
	"coursehub/backend/models"
	"coursehub/backend/repository"
	"coursehub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const userKey = "user"

// AuthMiddleware resolves the bearer token to an active user and stores it
// in the request locals.
func AuthMiddleware(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Could not validate credentials")
		}

		user, err := repository.FindByID[models.User](db, userID)
		if err != nil {
			if repository.IsNotFound(err) {
				return utils.Unauthorized(c, "User not found")
			}
			return utils.InternalServerError(c, "Could not query database")
		}
		if !user.IsActive {
			return utils.Unauthorized(c, "Inactive user")
		}

		c.Locals(userKey, user)
		return c.Next()
	}
}

// OptionalAuth loads the user when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if utils.BearerToken(c) == "" {
			return c.Next()
		}
		userID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return c.Next()
		}
		user, err := repository.FindByID[models.User](db, userID)
		if err == nil && user.IsActive {
			c.Locals(userKey, user)
		}
		return c.Next()
	}
}

// CurrentUser returns the user stored by AuthMiddleware, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userKey).(*models.User)
	return user
}

// RequireRoles must run after AuthMiddleware.
func RequireRoles(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return utils.Unauthorized(c, "Not authenticated")
		}
		for _, r := range roles {
			if user.Role == r {
				return c.Next()
			}
		}
		return utils.Forbidden(c, "Not enough permissions")
	}
}

func AdminMiddleware() fiber.Handler {
	return RequireRoles(models.RoleAdmin)
}

func TeacherMiddleware() fiber.Handler {
	return RequireRoles(models.RoleTeacher, models.RoleAdmin)
}
