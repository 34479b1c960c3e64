package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"spice-portal-backend/middleware"
	"spice-portal-backend/models"
	apimodels "spice-portal-backend/models/api"
)

type BaseAPIController struct{}

func (c *BaseAPIController) BodyParser(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		log.WithError(err).Error("error parsing request body")
		return errors.New("unable to read data from the request")
	}
	return nil
}

func (c *BaseAPIController) GetID(ctx *fiber.Ctx) (string, error) {
	return c.GetIDByKey(ctx, "id")
}

// GetIDByKey reads a uuid path parameter
func (c *BaseAPIController) GetIDByKey(ctx *fiber.Ctx, key string) (string, error) {
	id := ctx.Params(key)
	if id == "" {
		return "", errors.Errorf("%s is not provided", key)
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", errors.Errorf("%s is not a valid identifier", key)
	}
	return id, nil
}

func (c *BaseAPIController) GetLogger(ctx *fiber.Ctx) *log.Entry {
	return log.
		WithField("user_id", middleware.GetUserID(ctx)).
		WithField("method", ctx.Method()).
		WithField("path", ctx.Path())
}

// SendError maps domain errors to http statuses, unknown errors are logged and hidden behind msg
func (c *BaseAPIController) SendError(ctx *fiber.Ctx, logger *log.Entry, err error, msg string) error {
	status := ErrorStatus(err)
	if status >= fiber.StatusInternalServerError {
		logger.WithError(err).Error(msg)
		return ctx.Status(status).JSON(apimodels.NewError(msg))
	}
	logger.WithError(err).Info(msg)
	return ctx.Status(status).JSON(apimodels.NewError(err.Error()))
}

func ErrorStatus(err error) int {
	var networkErr models.NetworkError
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrEmptyDiff):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrInvalidState), errors.Is(err, models.ErrAlreadyLocked):
		return fiber.StatusConflict
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return fiber.StatusForbidden
	case errors.As(err, &networkErr):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}
