package middleware

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"spice-portal-backend/lib/rbac"
	"spice-portal-backend/models"
	apimodels "spice-portal-backend/models/api"
)

// RbacMiddleware routes without a registered rule are open to every authenticated user
func RbacMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		userID := GetUserID(ctx)
		role := GetUserRole(ctx)
		if userID == "" || role == "" {
			return forbidden(ctx)
		}
		path := ctx.Path()
		allow, found := rbac.Instance.GetRuleFunc(ctx.Method(), path)
		if found && !allow(userID, role, path) {
			log.
				WithField("user_id", userID).
				WithField("role", role).
				WithField("method", ctx.Method()).
				WithField("path", path).
				Info("access denied by rbac rule")
			return forbidden(ctx)
		}
		return ctx.Next()
	}
}

func forbidden(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError(models.ErrForbidden.Error()))
}
