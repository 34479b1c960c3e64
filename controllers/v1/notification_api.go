package apiv1

import (
	"github.com/gofiber/fiber/v2"
	"spice-portal-backend/controllers"
	notificationhandler "spice-portal-backend/lib/notification"
	"spice-portal-backend/middleware"
	apimodels "spice-portal-backend/models/api"
)

type notificationApiController struct {
	controllers.BaseAPIController
}

func InitNotificationApiRouters(app *fiber.App) {
	controller := notificationApiController{}
	app.Route("notification", func(router fiber.Router) {
		router.Get("get/unread", controller.listUnread)
		router.Patch("read/:id", controller.markRead)
		router.Patch("all/read", controller.markAllRead)
	})
}

// @Summary Unread notifications
// @Tags Notification
// @Description Unread notifications of the current user
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=[]notificationapimodels.NotificationView}
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/notification/get/unread [get]
func (c *notificationApiController) listUnread(ctx *fiber.Ctx) error {
	list, err := notificationhandler.Instance.ListUnread(middleware.GetUserID(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error getting notifications")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Mark notification read
// @Tags Notification
// @Description Mark notification read
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    	string	true	"rec ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/notification/read/{id} [patch]
func (c *notificationApiController) markRead(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = notificationhandler.Instance.MarkRead(middleware.GetUserID(ctx), id); err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error updating notification")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Mark all notifications read
// @Tags Notification
// @Description Mark all notifications read
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/notification/all/read [patch]
func (c *notificationApiController) markAllRead(ctx *fiber.Ctx) error {
	if err := notificationhandler.Instance.MarkAllRead(middleware.GetUserID(ctx)); err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error updating notifications")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}
