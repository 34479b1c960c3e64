package apiv1

import (
	"github.com/gofiber/fiber/v2"
	"spice-portal-backend/controllers"
	profilehandler "spice-portal-backend/lib/profile"
	"spice-portal-backend/lib/rbac"
	"spice-portal-backend/middleware"
	"spice-portal-backend/models"
	apimodels "spice-portal-backend/models/api"
	profileapimodels "spice-portal-backend/models/api/profile"
)

type userApiController struct {
	controllers.BaseAPIController
}

func InitUserApiRouters(app *fiber.App) {
	controller := userApiController{}
	app.Route("user", func(router fiber.Router) {
		router.Get("me", controller.me)
	})
}

type meView struct {
	profileapimodels.BasicInfoView
	Permissions map[models.Module][]models.Permission `json:"permissions"`
}

// @Summary Current user
// @Tags User
// @Description Basic info of the current user and the permissions of the role
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=meView}
// @Failure 401 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/user/me [get]
func (c *userApiController) me(ctx *fiber.Ctx) error {
	info, err := profilehandler.Instance.GetBasicInfo(middleware.GetUserID(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error getting current user")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(meView{
		BasicInfoView: info,
		Permissions:   rbac.Instance.GetPermissions(info.Role),
	}))
}
