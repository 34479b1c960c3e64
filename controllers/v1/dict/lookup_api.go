package dict

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"spice-portal-backend/controllers"
	lookupprovider "spice-portal-backend/lib/dicts/lookup"
	"spice-portal-backend/middleware"
	"spice-portal-backend/models"
	apimodels "spice-portal-backend/models/api"
	dictapimodels "spice-portal-backend/models/api/dict"
)

type lookupDictApiController struct {
	controllers.BaseAPIController
}

func InitLookupDictApiRouters(app *fiber.App) {
	controller := lookupDictApiController{}
	app.Get(":dict", controller.list)
	app.Put(":dict", middleware.AdminRequired(), controller.save)
}

func (c *lookupDictApiController) getDict(ctx *fiber.Ctx) (models.LookupDict, error) {
	dict := models.LookupDict(ctx.Params("dict"))
	if !dict.IsValid() {
		return "", errors.Wrapf(models.ErrNotFound, "lookup %q", dict)
	}
	return dict, nil
}

// @Summary Lookup list
// @Tags Dictionary
// @Description products/certificates/experience/number_of_employees/province
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   dict          		path    	string	true	"lookup name"
// @Success 200 {object} apimodels.Response{data=[]dictapimodels.LookupView}
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/dict/{dict} [get]
func (c *lookupDictApiController) list(ctx *fiber.Ctx) error {
	dict, err := c.getDict(ctx)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error getting lookup")
	}
	list, err := lookupprovider.Instance.List(dict)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error getting lookup")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Save lookup items
// @Tags Dictionary
// @Description Inserts or renames lookup items by id
// @Param   Authorization		header		string						true	"Authorization token"
// @Param   dict          		path    	string						true	"lookup name"
// @Param	body 				body		[]dictapimodels.LookupView	true	"request body"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/dict/{dict} [put]
func (c *lookupDictApiController) save(ctx *fiber.Ctx) error {
	dict, err := c.getDict(ctx)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error saving lookup")
	}
	var payload []dictapimodels.LookupView
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = lookupprovider.Instance.Save(dict, payload); err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error saving lookup")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}
