package apiv1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"spice-portal-backend/controllers"
	profilehandler "spice-portal-backend/lib/profile"
	"spice-portal-backend/middleware"
	"spice-portal-backend/models"
	apimodels "spice-portal-backend/models/api"
	profileapimodels "spice-portal-backend/models/api/profile"
)

type profileApiController struct {
	controllers.BaseAPIController
}

func InitProfileApiRouters(app *fiber.App) {
	controller := profileApiController{}
	app.Route("profile", func(router fiber.Router) {
		router.Get("my", controller.my)
		router.Route(":kind", func(kindRoute fiber.Router) {
			kindRoute.Post("", controller.create)
			kindRoute.Route(":id", func(idRoute fiber.Router) {
				idRoute.Get("", controller.get)
				idRoute.Post("edit", controller.edit)
				idRoute.Post("delete", controller.delete)
				idRoute.Put("existing", middleware.AdminRequired(), controller.markExisting)
			})
		})
	})
	app.Route("basic_info", func(router fiber.Router) {
		router.Route(":id", func(idRoute fiber.Router) {
			idRoute.Get("", controller.getBasicInfo)
			idRoute.Post("edit", controller.editBasicInfo)
			idRoute.Post("delete", controller.deleteBasicInfo)
		})
	})
}

func (c *profileApiController) getKind(ctx *fiber.Ctx) (models.ProfileKind, error) {
	kind := models.ProfileKind(ctx.Params("kind"))
	if !kind.IsValid() {
		return "", errors.Errorf("unknown profile kind %q", kind)
	}
	return kind, nil
}

// @Summary My profile
// @Tags Profile
// @Description Role profile of the current user, data is empty when no profile was registered
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=profileapimodels.ProfileView}
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/profile/my [get]
func (c *profileApiController) my(ctx *fiber.Ctx) error {
	view, err := profilehandler.Instance.GetByUser(middleware.GetUserID(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error getting profile")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

// @Summary Register profile
// @Tags Profile
// @Description Registers a role profile in the starting status, edits are applied directly until it is marked existing
// @Param   Authorization		header		string						true	"Authorization token"
// @Param   kind          		path    	string						true	"entrepreneur/exporter/intermediary_trader"
// @Param	body 				body		profileapimodels.FormData	true	"request body"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/profile/{kind} [post]
func (c *profileApiController) create(ctx *fiber.Ctx) error {
	kind, err := c.getKind(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload profileapimodels.FormData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	id, err := profilehandler.Instance.Create(ctx.UserContext(), middleware.GetUserID(ctx), kind, payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error registering profile")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(id))
}

// @Summary Get profile
// @Tags Profile
// @Description Get profile
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   kind          		path    	string	true	"entrepreneur/exporter/intermediary_trader"
// @Param   id          		path    	string	true	"rec ID"
// @Success 200 {object} apimodels.Response{data=profileapimodels.ProfileView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/profile/{kind}/{id} [get]
func (c *profileApiController) get(ctx *fiber.Ctx) error {
	kind, err := c.getKind(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	view, err := profilehandler.Instance.Get(kind, id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error getting profile")
	}
	if !middleware.IsAdmin(ctx) && view.UserID != middleware.GetUserID(ctx) {
		return c.SendError(ctx, c.GetLogger(ctx), models.ErrForbidden, "Error getting profile")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

// @Summary Edit profile
// @Tags Profile
// @Description Submits the form changes, existing profiles get an approval request
// @Param   Authorization		header		string						true	"Authorization token"
// @Param   kind          		path    	string						true	"entrepreneur/exporter/intermediary_trader"
// @Param   id          		path    	string						true	"rec ID"
// @Param	body 				body		profileapimodels.EditData	true	"request body"
// @Success 200 {object} apimodels.Response{data=profileapimodels.EditResult}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/profile/{kind}/{id}/edit [post]
func (c *profileApiController) edit(ctx *fiber.Ctx) error {
	kind, err := c.getKind(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload profileapimodels.EditData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	result, err := profilehandler.Instance.SubmitEdit(ctx.UserContext(), middleware.GetUserID(ctx), middleware.IsAdmin(ctx), kind, id, payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error submitting profile changes")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(result))
}

// @Summary Delete profile
// @Tags Profile
// @Description Deletes a starting profile, existing profiles get a delete approval request
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   kind          		path    	string	true	"entrepreneur/exporter/intermediary_trader"
// @Param   id          		path    	string	true	"rec ID"
// @Success 200 {object} apimodels.Response{data=profileapimodels.EditResult}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/profile/{kind}/{id}/delete [post]
func (c *profileApiController) delete(ctx *fiber.Ctx) error {
	kind, err := c.getKind(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	result, err := profilehandler.Instance.SubmitDelete(ctx.UserContext(), middleware.GetUserID(ctx), middleware.IsAdmin(ctx), kind, id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error submitting profile deletion")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(result))
}

// @Summary Mark profile existing
// @Tags Profile
// @Description Moves the profile out of the starting status, later changes need approval
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   kind          		path    	string	true	"entrepreneur/exporter/intermediary_trader"
// @Param   id          		path    	string	true	"rec ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/profile/{kind}/{id}/existing [put]
func (c *profileApiController) markExisting(ctx *fiber.Ctx) error {
	kind, err := c.getKind(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = profilehandler.Instance.MarkExisting(kind, id); err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error updating profile status")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Get basic info
// @Tags Basic info
// @Description Personal data of a portal user
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    	string	true	"user ID"
// @Success 200 {object} apimodels.Response{data=profileapimodels.BasicInfoView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/basic_info/{id} [get]
func (c *profileApiController) getBasicInfo(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if !middleware.IsAdmin(ctx) && id != middleware.GetUserID(ctx) {
		return c.SendError(ctx, c.GetLogger(ctx), models.ErrForbidden, "Error getting basic info")
	}
	view, err := profilehandler.Instance.GetBasicInfo(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error getting basic info")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

// @Summary Edit basic info
// @Tags Basic info
// @Description Needs approval once the role profile of the user is existing
// @Param   Authorization		header		string						true	"Authorization token"
// @Param   id          		path    	string						true	"user ID"
// @Param	body 				body		profileapimodels.EditData	true	"request body"
// @Success 200 {object} apimodels.Response{data=profileapimodels.EditResult}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/basic_info/{id}/edit [post]
func (c *profileApiController) editBasicInfo(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload profileapimodels.EditData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	result, err := profilehandler.Instance.SubmitBasicInfoEdit(ctx.UserContext(), middleware.GetUserID(ctx), middleware.IsAdmin(ctx), id, payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error submitting basic info changes")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(result))
}

// @Summary Delete basic info
// @Tags Basic info
// @Description Removes the portal user together with the role profile
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    	string	true	"user ID"
// @Success 200 {object} apimodels.Response{data=profileapimodels.EditResult}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/basic_info/{id}/delete [post]
func (c *profileApiController) deleteBasicInfo(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	result, err := profilehandler.Instance.SubmitBasicInfoDelete(ctx.UserContext(), middleware.GetUserID(ctx), middleware.IsAdmin(ctx), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error submitting basic info deletion")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(result))
}
