package apiv1

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/pkg/errors"
	approvalrequesthandler "spice-portal-backend/lib/approval-request"
	certificatehandler "spice-portal-backend/lib/certificate"
	profilehandler "spice-portal-backend/lib/profile"
	"spice-portal-backend/models"
	apimodels "spice-portal-backend/models/api"
	approvalapimodels "spice-portal-backend/models/api/approval"
)

const (
	requestID = "6f1c8a52-3f7e-4a41-9d1e-0c8b7f6a1e10"
	ownerID   = "6f1c8a52-3f7e-4a41-9d1e-0c8b7f6a1e20"
)

type fakeApprovals struct {
	approvalrequesthandler.Provider
	lastFilter approvalapimodels.ListFilter
	decided    []string
	decideErr  error
	created    []approvalapimodels.CreateData
}

func (f *fakeApprovals) Get(id string) (approvalapimodels.ApprovalView, error) {
	if id != requestID {
		return approvalapimodels.ApprovalView{}, models.ErrNotFound
	}
	return approvalapimodels.ApprovalView{ID: id, RequestedBy: ownerID, Status: models.ApprovalStatusPending}, nil
}

func (f *fakeApprovals) List(filter approvalapimodels.ListFilter) ([]approvalapimodels.ApprovalView, int64, error) {
	f.lastFilter = filter
	return []approvalapimodels.ApprovalView{}, 0, nil
}

func (f *fakeApprovals) Decide(ctx context.Context, id, reviewerID string, data approvalapimodels.DecisionData) (approvalapimodels.DecisionResult, string, error) {
	if f.decideErr != nil {
		return approvalapimodels.DecisionResult{}, "", f.decideErr
	}
	f.decided = append(f.decided, id)
	return approvalapimodels.DecisionResult{ID: id, Status: data.Status, Message: "Request approved"}, "", nil
}

func (f *fakeApprovals) Create(ctx context.Context, userID string, data approvalapimodels.CreateData) (string, error) {
	f.created = append(f.created, data)
	return requestID, nil
}

// fakeOwnership maps a record path or a profile id to its owner
type fakeOwnership map[string]string

func (f fakeOwnership) check(userID, key string) error {
	if f[key] != userID {
		return errors.Wrap(models.ErrForbidden, key)
	}
	return nil
}

type fakeProfiles struct {
	profilehandler.Provider
	owned fakeOwnership
}

func (f fakeProfiles) CheckTargetOwner(userID, target string) error {
	return f.owned.check(userID, target)
}

type fakeCertificates struct {
	certificatehandler.Provider
	owned fakeOwnership
}

func (f fakeCertificates) CheckRecipientsOwner(userID string, recipientIDs []string) error {
	for _, id := range recipientIDs {
		if err := f.owned.check(userID, id); err != nil {
			return err
		}
	}
	return nil
}

func newTestApp(claims jwt.MapClaims) *fiber.App {
	app := fiber.New()
	app.Use(func(ctx *fiber.Ctx) error {
		ctx.Locals("user", &jwt.Token{Claims: claims})
		return ctx.Next()
	})
	InitApprovalApiRouters(app)
	return app
}

func userClaims(id string, role models.UserRole) jwt.MapClaims {
	return jwt.MapClaims{"sub": id, "role": string(role)}
}

func TestApprovalApi(t *testing.T) {
	t.Run("users only create requests for their own records", func(t *testing.T) {
		owned := fakeOwnership{
			"/api/entrepreneur/p-1": ownerID,
			"profile-own":           ownerID,
			"/api/entrepreneur/p-2": "6f1c8a52-3f7e-4a41-9d1e-0c8b7f6a1e99",
		}
		profilehandler.Instance = fakeProfiles{owned: owned}
		certificatehandler.Instance = fakeCertificates{owned: owned}
		fake := &fakeApprovals{}
		approvalrequesthandler.Instance = fake
		post := func(app *fiber.App, body string) int {
			req := httptest.NewRequest("POST", "/approval/create", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			return resp.StatusCode
		}
		user := newTestApp(userClaims(ownerID, models.UserRoleUser))
		require.Equal(t, fiber.StatusOK, post(user, `{"type":"editData","requestName":"Entrepreneur data edit","requestedUrl":"/api/entrepreneur/p-1","requestData":{"businessName":"New Spices"}}`))
		require.Equal(t, fiber.StatusForbidden, post(user, `{"type":"deleteData","requestName":"Entrepreneur delete","requestedUrl":"/api/entrepreneur/p-2"}`))
		require.Equal(t, fiber.StatusOK, post(user, `{"type":"certificateIssuance","requestName":"Certificate issuance","requestedUrl":"/api/certificate/issue","requestData":{"certificateType":1,"recipientIds":["profile-own"]}}`))
		require.Equal(t, fiber.StatusForbidden, post(user, `{"type":"certificateIssuance","requestName":"Certificate issuance","requestedUrl":"/api/certificate/issue","requestData":{"certificateType":1,"recipientIds":["profile-own","profile-other"]}}`))
		require.Len(t, fake.created, 2)

		admin := newTestApp(userClaims("admin-1", models.AdminRole))
		require.Equal(t, fiber.StatusOK, post(admin, `{"type":"deleteData","requestName":"Entrepreneur delete","requestedUrl":"/api/entrepreneur/p-2"}`))
		require.Len(t, fake.created, 3)
	})
	t.Run("users only list their own requests", func(t *testing.T) {
		fake := &fakeApprovals{}
		approvalrequesthandler.Instance = fake
		app := newTestApp(userClaims(ownerID, models.UserRoleUser))
		req := httptest.NewRequest("POST", "/approval/list", strings.NewReader(`{"requested_by":"someone-else"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.Equal(t, ownerID, fake.lastFilter.RequestedBy)
	})
	t.Run("request of another user is forbidden", func(t *testing.T) {
		approvalrequesthandler.Instance = &fakeApprovals{}
		app := newTestApp(userClaims("6f1c8a52-3f7e-4a41-9d1e-0c8b7f6a1e99", models.UserRoleUser))
		resp, err := app.Test(httptest.NewRequest("GET", "/approval/get/"+requestID, nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

		admin := newTestApp(userClaims("admin-1", models.AdminRole))
		resp, err = admin.Test(httptest.NewRequest("GET", "/approval/get/"+requestID, nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
	t.Run("malformed id", func(t *testing.T) {
		approvalrequesthandler.Instance = &fakeApprovals{}
		app := newTestApp(userClaims("admin-1", models.AdminRole))
		resp, err := app.Test(httptest.NewRequest("GET", "/approval/get/42", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
	t.Run("decision result", func(t *testing.T) {
		fake := &fakeApprovals{}
		approvalrequesthandler.Instance = fake
		app := newTestApp(userClaims("admin-1", models.AdminRole))
		req := httptest.NewRequest("PATCH", "/approval/update/"+requestID, strings.NewReader(`{"status":"approved","remarks":"documents checked"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var body apimodels.Response
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, "Request approved", body.Message)
		require.Equal(t, []string{requestID}, fake.decided)
	})
	t.Run("already decided request", func(t *testing.T) {
		approvalrequesthandler.Instance = &fakeApprovals{decideErr: models.ErrInvalidState}
		app := newTestApp(userClaims("admin-1", models.AdminRole))
		req := httptest.NewRequest("PATCH", "/approval/update/"+requestID, strings.NewReader(`{"status":"denied","remarks":"duplicate request"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	})
}
