package middleware

import (
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"spice-portal-backend/config"
	"spice-portal-backend/models"
	apimodels "spice-portal-backend/models/api"
)

// TokenQueryParam carries the token of browser websocket connections, they can not set headers
const TokenQueryParam = "token"

func AuthorizationRequired() fiber.Handler {
	return jwtware.New(jwtware.Config{
		Claims: jwt.MapClaims{},
		SigningKey: jwtware.SigningKey{
			JWTAlg: "HS256",
			Key:    []byte(config.Conf.Auth.JWTSecret),
		},
		TokenLookup: "header:" + fiber.HeaderAuthorization + ",query:" + TokenQueryParam,
		AuthScheme:  "Bearer",
		SuccessHandler: func(ctx *fiber.Ctx) error {
			if GetUserID(ctx) == "" {
				return unauthenticated(ctx)
			}
			return ctx.Next()
		},
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			return unauthenticated(ctx)
		},
	})
}

func unauthenticated(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusUnauthorized).JSON(apimodels.NewError(models.ErrUnauthenticated.Error()))
}
