package apiv1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"spice-portal-backend/controllers"
	certificatehandler "spice-portal-backend/lib/certificate"
	profilehandler "spice-portal-backend/lib/profile"
	"spice-portal-backend/middleware"
	"spice-portal-backend/models"
	apimodels "spice-portal-backend/models/api"
	certificateapimodels "spice-portal-backend/models/api/certificate"
)

type certificateApiController struct {
	controllers.BaseAPIController
}

func InitCertificateApiRouters(app *fiber.App) {
	controller := certificateApiController{}
	app.Route("certificate", func(router fiber.Router) {
		router.Post("request", controller.request)
		router.Get("profile/:id", controller.listByProfile)
		router.Get(":id/file", controller.download)
	})
}

// @Summary Request certificate issuance
// @Tags Certificate
// @Description Creates a certificateIssuance approval request, certificates are rendered once it is approved
// @Param   Authorization		header		string								true	"Authorization token"
// @Param	body 				body		certificateapimodels.IssuanceData	true	"request body"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/certificate/request [post]
func (c *certificateApiController) request(ctx *fiber.Ctx) error {
	var payload certificateapimodels.IssuanceData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	id, err := certificatehandler.Instance.SubmitIssuance(ctx.UserContext(), middleware.GetUserID(ctx), middleware.IsAdmin(ctx), payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error requesting certificate issuance")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(id))
}

// @Summary Profile certificates
// @Tags Certificate
// @Description Certificates issued to the role profile, newest first
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    	string	true	"profile ID"
// @Success 200 {object} apimodels.Response{data=[]certificateapimodels.CertificateView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/certificate/profile/{id} [get]
func (c *certificateApiController) listByProfile(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if !middleware.IsAdmin(ctx) {
		own, err := profilehandler.Instance.GetByUser(middleware.GetUserID(ctx))
		if err != nil {
			return c.SendError(ctx, c.GetLogger(ctx), err, "Error getting certificate list")
		}
		if own == nil || own.ID != id {
			return c.SendError(ctx, c.GetLogger(ctx), errors.Wrap(models.ErrForbidden, "profile belongs to another user"), "Error getting certificate list")
		}
	}
	list, err := certificatehandler.Instance.ListByProfile(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error getting certificate list")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Download certificate
// @Tags Certificate
// @Description Rendered certificate pdf
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    	string	true	"certificate ID"
// @Success 200 {file} file
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/certificate/{id}/file [get]
func (c *certificateApiController) download(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	fileName, body, err := certificatehandler.Instance.Download(ctx.UserContext(), middleware.GetUserID(ctx), middleware.IsAdmin(ctx), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error getting certificate file")
	}
	ctx.Set(fiber.HeaderContentType, "application/pdf")
	ctx.Set(fiber.HeaderContentDisposition, attachment(fileName))
	return ctx.Status(fiber.StatusOK).Send(body)
}
