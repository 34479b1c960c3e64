package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	apimodels "spice-portal-backend/models/api"
)

// WithBodyLimit rejects bodies over limit bytes, chunked requests are measured after reading
func WithBodyLimit(limit int64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		size := int64(c.Request().Header.ContentLength())
		if size < 0 {
			size = int64(len(c.Body()))
		}
		if size > limit {
			return c.Status(fiber.StatusRequestEntityTooLarge).
				JSON(apimodels.NewError(fmt.Sprintf("request body too large, maximum allowed: %d bytes", limit)))
		}
		return c.Next()
	}
}
