package apiv1

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"spice-portal-backend/controllers"
	approvalrequesthandler "spice-portal-backend/lib/approval-request"
	approvalbuilder "spice-portal-backend/lib/approval-request/builder"
	approvalpresenter "spice-portal-backend/lib/approval-request/presenter"
	certificatehandler "spice-portal-backend/lib/certificate"
	pdfexport "spice-portal-backend/lib/export/pdf"
	xlsexport "spice-portal-backend/lib/export/xls"
	profilehandler "spice-portal-backend/lib/profile"
	"spice-portal-backend/middleware"
	"spice-portal-backend/models"
	apimodels "spice-portal-backend/models/api"
	approvalapimodels "spice-portal-backend/models/api/approval"
)

type approvalApiController struct {
	controllers.BaseAPIController
}

func InitApprovalApiRouters(app *fiber.App) {
	controller := approvalApiController{}
	app.Route("approval", func(router fiber.Router) {
		router.Post("create", controller.create)
		router.Post("list", controller.list)
		router.Get("get/:id", controller.get)
		router.Patch("update/:id", controller.decide)
		router.Get("report.xlsx", controller.reportXls)
		router.Get("report.pdf", controller.reportPdf)
		router.Route(":id", func(idRoute fiber.Router) {
			idRoute.Get("review", controller.review)
			idRoute.Get("history", controller.history)
		})
	})
}

// @Summary Create approval request
// @Tags Approval
// @Description Stores a pending change request and notifies the reviewers, users may only target their own records
// @Param   Authorization		header		string							true	"Authorization token"
// @Param	body 				body		approvalapimodels.CreateData	true	"request body"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval/create [post]
func (c *approvalApiController) create(ctx *fiber.Ctx) error {
	var payload approvalapimodels.CreateData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if !middleware.IsAdmin(ctx) {
		if err := checkRequestOwner(middleware.GetUserID(ctx), payload); err != nil {
			return c.SendError(ctx, c.GetLogger(ctx), err, "Error creating approval request")
		}
	}
	id, err := approvalrequesthandler.Instance.Create(ctx.UserContext(), middleware.GetUserID(ctx), payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error creating approval request")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(id))
}

// @Summary Approval request list
// @Tags Approval
// @Description Paged list, users only see their own requests
// @Param   Authorization		header		string							true	"Authorization token"
// @Param	body 				body		approvalapimodels.ListFilter	true	"request body"
// @Success 200 {object} apimodels.ScrollerResponse{data=[]approvalapimodels.ApprovalView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval/list [post]
func (c *approvalApiController) list(ctx *fiber.Ctx) error {
	var payload approvalapimodels.ListFilter
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if !middleware.IsAdmin(ctx) {
		payload.RequestedBy = middleware.GetUserID(ctx)
	}
	list, rowCount, err := approvalrequesthandler.Instance.List(payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error getting approval request list")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewScrollerResponse(list, rowCount))
}

// @Summary Get approval request
// @Tags Approval
// @Description Get approval request
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    	string	true	"rec ID"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.ApprovalView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval/get/{id} [get]
func (c *approvalApiController) get(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	view, err := c.visible(ctx, id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error getting approval request")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

// @Summary Approval request history
// @Tags Approval
// @Description Audit trail of the request
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    	string	true	"rec ID"
// @Success 200 {object} apimodels.Response{data=[]approvalapimodels.HistoryView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval/{id}/history [get]
func (c *approvalApiController) history(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if _, err = c.visible(ctx, id); err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error getting approval request history")
	}
	list, err := approvalrequesthandler.Instance.History(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error getting approval request history")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Review approval request
// @Tags Approval
// @Description Side by side comparison of the current and requested values
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    	string	true	"rec ID"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.ReviewView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval/{id}/review [get]
func (c *approvalApiController) review(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	view, err := approvalpresenter.Instance.Review(ctx.UserContext(), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error preparing approval request review")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

// @Summary Decide approval request
// @Tags Approval
// @Description Approve applies the requested change, deny only closes the request
// @Param   Authorization		header		string							true	"Authorization token"
// @Param	body 				body		approvalapimodels.DecisionData	true	"request body"
// @Param   id          		path    	string							true	"rec ID"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.DecisionResult}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @Failure 502 {object} apimodels.Response
// @router /api/v1/approval/update/{id} [patch]
func (c *approvalApiController) decide(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload approvalapimodels.DecisionData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	result, hMsg, err := approvalrequesthandler.Instance.Decide(ctx.UserContext(), id, middleware.GetUserID(ctx), payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error deciding approval request")
	}
	if hMsg != "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(hMsg))
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.Response{
		Status:  "success",
		Message: result.Message,
		Data:    result,
	})
}

// @Summary Approval report (xlsx)
// @Tags Approval
// @Description Unpaged approval request list as a spreadsheet
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   status				query		string	false	"status filter"
// @Param   type				query		string	false	"request type filter"
// @Success 200 {file} file
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval/report.xlsx [get]
func (c *approvalApiController) reportXls(ctx *fiber.Ctx) error {
	list, err := approvalrequesthandler.Instance.ListAll(reportFilter(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error building approval report")
	}
	buf, err := xlsexport.Instance.ExportApprovalList(list)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error building approval report")
	}
	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set(fiber.HeaderContentDisposition, attachment(reportName("xlsx")))
	return ctx.Status(fiber.StatusOK).SendStream(buf)
}

// @Summary Approval report (pdf)
// @Tags Approval
// @Description Unpaged approval request list as a printable table
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   status				query		string	false	"status filter"
// @Param   type				query		string	false	"request type filter"
// @Success 200 {file} file
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval/report.pdf [get]
func (c *approvalApiController) reportPdf(ctx *fiber.Ctx) error {
	list, err := approvalrequesthandler.Instance.ListAll(reportFilter(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error building approval report")
	}
	body, err := pdfexport.GenerateApprovalReport(list, time.Now())
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Error building approval report")
	}
	ctx.Set(fiber.HeaderContentType, "application/pdf")
	ctx.Set(fiber.HeaderContentDisposition, attachment(reportName("pdf")))
	return ctx.Status(fiber.StatusOK).Send(body)
}

// visible returns the request when the caller may see it
func (c *approvalApiController) visible(ctx *fiber.Ctx, id string) (approvalapimodels.ApprovalView, error) {
	view, err := approvalrequesthandler.Instance.Get(id)
	if err != nil {
		return view, err
	}
	if !middleware.IsAdmin(ctx) && view.RequestedBy != middleware.GetUserID(ctx) {
		return view, errors.Wrap(models.ErrForbidden, "approval request belongs to another user")
	}
	return view, nil
}

// checkRequestOwner the record or the certificate recipients of the request must belong to userID
func checkRequestOwner(userID string, payload approvalapimodels.CreateData) error {
	if payload.Type == models.ApprovalTypeCertificateIssuance {
		_, recipients, err := approvalbuilder.IssuanceParams(payload.RequestData)
		if err != nil {
			return err
		}
		return certificatehandler.Instance.CheckRecipientsOwner(userID, recipients)
	}
	return profilehandler.Instance.CheckTargetOwner(userID, payload.RequestedURL)
}

func reportFilter(ctx *fiber.Ctx) approvalapimodels.ListFilter {
	return approvalapimodels.ListFilter{
		Status: models.ApprovalStatus(ctx.Query("status")),
		Type:   models.ApprovalType(ctx.Query("type")),
		Search: ctx.Query("search"),
	}
}

func reportName(ext string) string {
	return fmt.Sprintf("approval-requests-%s.%s", time.Now().Format("20060102"), ext)
}

func attachment(fileName string) string {
	return fmt.Sprintf("attachment; filename=%q", fileName)
}
