package middleware

import (
	"errors"
	"time"

	"coursehub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

func LoggingMiddleware(logger *utils.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Передаем управление следующему обработчику
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = errorStatus(err)
		}

		kv := []interface{}{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", time.Since(start).String(),
			"ip", c.IP(),
		}
		if user := CurrentUser(c); user != nil {
			kv = append(kv, "user_id", user.ID)
		}

		// Логируем информацию о запросе
		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("request", kv...)
		case status >= fiber.StatusBadRequest:
			logger.Warn("request", kv...)
		default:
			logger.Info("request", kv...)
		}
		return err
	}
}

// errorStatus mirrors the status utils.ErrorHandler will answer with.
func errorStatus(err error) int {
	var verr *utils.ValidationErrors
	if errors.As(err, &verr) {
		return fiber.StatusBadRequest
	}
	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return ferr.Code
	}
	return fiber.StatusInternalServerError
}
