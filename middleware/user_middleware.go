package middleware

import (
	"github.com/gofiber/fiber/v2"
	authutils "spice-portal-backend/lib/utils/auth-utils"
	"spice-portal-backend/models"
)

func GetUserID(ctx *fiber.Ctx) string {
	claims := authutils.GetClaims(ctx)
	if sub, ok := claims["sub"].(string); ok {
		return sub
	}
	return ""
}

func GetUserRole(ctx *fiber.Ctx) models.UserRole {
	claims := authutils.GetClaims(ctx)
	if role, ok := claims["role"].(string); ok && role != "" {
		return models.UserRole(role)
	}
	return ""
}

func IsAdmin(ctx *fiber.Ctx) bool {
	return GetUserRole(ctx).IsAdmin()
}

func AdminRequired() fiber.Handler {
	return func(ctx *fiber.Ctx) (err error) {
		if !IsAdmin(ctx) {
			return forbidden(ctx)
		}
		return ctx.Next()
	}
}
