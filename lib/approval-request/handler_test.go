package approvalrequesthandler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	resourcegateway "spice-portal-backend/lib/resource-gateway"
	"spice-portal-backend/models"
	approvalapimodels "spice-portal-backend/models/api/approval"
	notificationapimodels "spice-portal-backend/models/api/notification"
	dbmodels "spice-portal-backend/models/db"
)

type fakeRequests struct {
	seq       int
	items     map[string]*dbmodels.ApprovalRequest
	decideErr error
}

func (f *fakeRequests) Create(rec dbmodels.ApprovalRequest) (string, error) {
	f.seq++
	rec.ID = fmt.Sprintf("req-%d", f.seq)
	f.items[rec.ID] = &rec
	return rec.ID, nil
}

func (f *fakeRequests) GetByID(id string) (*dbmodels.ApprovalRequest, error) {
	rec, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	result := *rec
	return &result, nil
}

func (f *fakeRequests) ListCount(filter approvalapimodels.ListFilter) (int64, error) {
	list, _ := f.ListAll(filter)
	return int64(len(list)), nil
}

func (f *fakeRequests) List(filter approvalapimodels.ListFilter) ([]dbmodels.ApprovalRequest, error) {
	return f.ListAll(filter)
}

func (f *fakeRequests) ListAll(filter approvalapimodels.ListFilter) ([]dbmodels.ApprovalRequest, error) {
	result := []dbmodels.ApprovalRequest{}
	for _, rec := range f.items {
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		result = append(result, *rec)
	}
	return result, nil
}

func (f *fakeRequests) Decide(id string, status models.ApprovalStatus, remarks, decidedBy string, decidedAt time.Time) (bool, error) {
	if f.decideErr != nil {
		return false, f.decideErr
	}
	rec, ok := f.items[id]
	if !ok || rec.Status != models.ApprovalStatusPending {
		return false, nil
	}
	rec.Status = status
	rec.Remarks = remarks
	rec.DecidedBy = &decidedBy
	rec.DecidedAt = &decidedAt
	return true, nil
}

type fakeHistory struct {
	items []dbmodels.ApprovalHistory
}

func (f *fakeHistory) Save(rec dbmodels.ApprovalHistory) error {
	f.items = append(f.items, rec)
	return nil
}

func (f *fakeHistory) List(requestID string) ([]dbmodels.ApprovalHistory, error) {
	result := []dbmodels.ApprovalHistory{}
	for _, item := range f.items {
		if item.RequestID == requestID {
			result = append(result, item)
		}
	}
	return result, nil
}

func (f *fakeHistory) actions(requestID string) []models.ApprovalAction {
	result := []models.ApprovalAction{}
	for _, item := range f.items {
		if item.RequestID == requestID {
			result = append(result, item.Action)
		}
	}
	return result
}

type fakeSagas struct {
	items map[string]*dbmodels.ApprovalSaga
}

func (f *fakeSagas) Start(requestID, reviewerID, remarks string) (*dbmodels.ApprovalSaga, error) {
	rec, ok := f.items[requestID]
	if !ok {
		rec = &dbmodels.ApprovalSaga{RequestID: requestID}
		f.items[requestID] = rec
	}
	rec.Stage = models.SagaStageApplying
	rec.ReviewerID = reviewerID
	rec.Remarks = remarks
	rec.Attempts++
	return rec, nil
}

func (f *fakeSagas) GetByRequestID(requestID string) (*dbmodels.ApprovalSaga, error) {
	rec, ok := f.items[requestID]
	if !ok {
		return nil, nil
	}
	result := *rec
	return &result, nil
}

func (f *fakeSagas) SetStage(requestID string, stage models.SagaStage, lastError string) error {
	if rec, ok := f.items[requestID]; ok {
		rec.Stage = stage
		rec.LastError = lastError
	}
	return nil
}

func (f *fakeSagas) ListByStage(stage models.SagaStage, limit int) ([]dbmodels.ApprovalSaga, error) {
	result := []dbmodels.ApprovalSaga{}
	for _, rec := range f.items {
		if rec.Stage == stage {
			result = append(result, *rec)
		}
	}
	return result, nil
}

type fakeGateway struct {
	calls    []string
	current  map[string]any
	applyErr error
	payload  map[string]any
}

func (f *fakeGateway) Get(ctx context.Context, target string) (map[string]any, error) {
	if f.current == nil {
		return nil, errors.Wrap(models.ErrNotFound, target)
	}
	return f.current, nil
}

func (f *fakeGateway) Patch(ctx context.Context, target string, payload map[string]any) error {
	f.calls = append(f.calls, "PATCH "+target)
	f.payload = payload
	return f.applyErr
}

func (f *fakeGateway) Delete(ctx context.Context, target string) error {
	f.calls = append(f.calls, "DELETE "+target)
	return f.applyErr
}

func (f *fakeGateway) Invoke(ctx context.Context, target string, payload map[string]any) error {
	f.calls = append(f.calls, "POST "+target)
	f.payload = payload
	return f.applyErr
}

type fakeTxGateway struct {
	*fakeGateway
}

func (f fakeTxGateway) WithTx(tx *gorm.DB) resourcegateway.Provider {
	return f.fakeGateway
}

type userNotice struct {
	userID string
	code   models.NotificationType
}

type fakeNotifier struct {
	reviewers []string
	users     []userNotice
}

func (f *fakeNotifier) NotifyReviewers(requestID string, code models.NotificationType, title, message string) {
	f.reviewers = append(f.reviewers, requestID)
}

func (f *fakeNotifier) NotifyUser(userID string, requestID *string, code models.NotificationType, title, message string, byEmail bool) {
	f.users = append(f.users, userNotice{userID: userID, code: code})
}

func (f *fakeNotifier) ListUnread(userID string) ([]notificationapimodels.NotificationView, error) { return nil, nil }

func (f *fakeNotifier) MarkRead(userID, id string) error { return nil }

func (f *fakeNotifier) MarkAllRead(userID string) error { return nil }

type testEnv struct {
	handler  impl
	requests *fakeRequests
	history  *fakeHistory
	sagas    *fakeSagas
	gateway  *fakeGateway
	notifier *fakeNotifier
}

func newTestEnv(local bool) *testEnv {
	env := &testEnv{
		requests: &fakeRequests{items: map[string]*dbmodels.ApprovalRequest{}},
		history:  &fakeHistory{},
		sagas:    &fakeSagas{items: map[string]*dbmodels.ApprovalSaga{}},
		gateway:  &fakeGateway{current: map[string]any{"businessName": "Old Spices"}},
		notifier: &fakeNotifier{},
	}
	s := stores{requests: env.requests, history: env.history, sagas: env.sagas}
	var gateway resourcegateway.Provider = env.gateway
	if local {
		gateway = fakeTxGateway{env.gateway}
	}
	env.handler = impl{
		stores:   s,
		gateway:  gateway,
		notifier: env.notifier,
		inTx: func(fn func(tx *gorm.DB, s stores) error) error {
			return fn(nil, s)
		},
		minRemarks: 10,
		lockWait:   time.Second,
		now: func() time.Time {
			return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		},
	}
	return env
}

func (e *testEnv) createEdit(t *testing.T) string {
	id, err := e.handler.Create(context.Background(), "user-1", approvalapimodels.CreateData{
		Type:         models.ApprovalTypeEditData,
		RequestName:  "Entrepreneur data edit",
		RequestData:  map[string]any{"businessName": "New Spices"},
		RequestedURL: "/api/entrepreneur/p-1",
	})
	require.NoError(t, err)
	return id
}

const validRemarks = "checked against the registry"

func TestCreate(t *testing.T) {
	t.Run("edit request is stored pending and reviewers are notified", func(t *testing.T) {
		env := newTestEnv(true)
		id := env.createEdit(t)
		rec := env.requests.items[id]
		require.Equal(t, models.ApprovalStatusPending, rec.Status)
		require.Equal(t, "user-1", rec.RequestedBy)
		require.Equal(t, []models.ApprovalAction{models.ApprovalActionCreated}, env.history.actions(id))
		require.Equal(t, []string{id}, env.notifier.reviewers)
	})
	t.Run("empty edit is rejected and nothing is stored", func(t *testing.T) {
		env := newTestEnv(true)
		_, err := env.handler.Create(context.Background(), "user-1", approvalapimodels.CreateData{
			Type:         models.ApprovalTypeEditData,
			RequestName:  "Entrepreneur data edit",
			RequestData:  map[string]any{},
			RequestedURL: "/api/entrepreneur/p-1",
		})
		require.ErrorIs(t, err, models.ErrEmptyDiff)
		require.Empty(t, env.requests.items)
		require.Empty(t, env.notifier.reviewers)
	})
}

func TestApproveLocal(t *testing.T) {
	t.Run("approve applies the change and notifies the requester", func(t *testing.T) {
		env := newTestEnv(true)
		id := env.createEdit(t)
		result, hMsg, err := env.handler.Approve(context.Background(), id, "admin-1", validRemarks)
		require.NoError(t, err)
		require.Empty(t, hMsg)
		require.Equal(t, models.ApprovalStatusApproved, result.Status)
		require.Equal(t, []string{"PATCH /api/entrepreneur/p-1"}, env.gateway.calls)

		rec := env.requests.items[id]
		require.Equal(t, models.ApprovalStatusApproved, rec.Status)
		require.Equal(t, validRemarks, rec.Remarks)
		require.Equal(t, "admin-1", *rec.DecidedBy)

		history := env.history.items[len(env.history.items)-1]
		require.Equal(t, models.ApprovalActionApproved, history.Action)
		require.Len(t, history.Changes.Data, 1)
		require.Equal(t, "Old Spices", history.Changes.Data[0].OldValue)
		require.Equal(t, "New Spices", history.Changes.Data[0].NewValue)

		require.Equal(t, []userNotice{{userID: "user-1", code: models.NotificationApprovalApproved}}, env.notifier.users)
	})
	t.Run("decided request is terminal", func(t *testing.T) {
		env := newTestEnv(true)
		id := env.createEdit(t)
		_, _, err := env.handler.Approve(context.Background(), id, "admin-1", validRemarks)
		require.NoError(t, err)

		_, _, err = env.handler.Approve(context.Background(), id, "admin-2", validRemarks)
		require.ErrorIs(t, err, models.ErrInvalidState)
		_, _, err = env.handler.Deny(context.Background(), id, "admin-2", validRemarks)
		require.ErrorIs(t, err, models.ErrInvalidState)

		require.Len(t, env.gateway.calls, 1)
		require.Equal(t, models.ApprovalStatusApproved, env.requests.items[id].Status)
		require.Equal(t, "admin-1", *env.requests.items[id].DecidedBy)
	})
	t.Run("apply failure leaves the request pending", func(t *testing.T) {
		env := newTestEnv(true)
		id := env.createEdit(t)
		env.gateway.applyErr = models.NetworkError{StatusCode: 502, Message: "bad gateway"}

		_, _, err := env.handler.Approve(context.Background(), id, "admin-1", validRemarks)
		require.Error(t, err)
		var netErr models.NetworkError
		require.True(t, errors.As(err, &netErr))
		require.Equal(t, 502, netErr.StatusCode)

		require.Equal(t, models.ApprovalStatusPending, env.requests.items[id].Status)
		require.Equal(t, []models.ApprovalAction{models.ApprovalActionCreated, models.ApprovalActionApplyFailed}, env.history.actions(id))
		require.Empty(t, env.notifier.users)

		env.gateway.applyErr = nil
		result, _, err := env.handler.Approve(context.Background(), id, "admin-1", validRemarks)
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusApproved, result.Status)
	})
	t.Run("unknown request", func(t *testing.T) {
		env := newTestEnv(true)
		_, _, err := env.handler.Approve(context.Background(), "missing", "admin-1", validRemarks)
		require.ErrorIs(t, err, models.ErrNotFound)
	})
	t.Run("delete request calls delete", func(t *testing.T) {
		env := newTestEnv(true)
		id, err := env.handler.Create(context.Background(), "user-1", approvalapimodels.CreateData{
			Type:         models.ApprovalTypeDeleteData,
			RequestName:  "Exporter profile delete",
			RequestData:  map[string]any{"ignored": true},
			RequestedURL: "/api/exporter/p-2",
		})
		require.NoError(t, err)
		require.Empty(t, env.requests.items[id].RequestData)
		_, _, err = env.handler.Approve(context.Background(), id, "admin-1", validRemarks)
		require.NoError(t, err)
		require.Equal(t, []string{"DELETE /api/exporter/p-2"}, env.gateway.calls)
	})
	t.Run("issuance carries the approval id", func(t *testing.T) {
		env := newTestEnv(true)
		id, err := env.handler.Create(context.Background(), "admin-1", approvalapimodels.CreateData{
			Type:         models.ApprovalTypeCertificateIssuance,
			RequestName:  "Certificate issuance",
			RequestData:  map[string]any{"certificateType": 2, "recipientIds": []any{"p-1", "p-1", "p-2"}},
			RequestedURL: models.CertificateIssuancePath,
		})
		require.NoError(t, err)
		_, _, err = env.handler.Approve(context.Background(), id, "admin-2", validRemarks)
		require.NoError(t, err)
		require.Equal(t, []string{"POST " + models.CertificateIssuancePath}, env.gateway.calls)
		require.Equal(t, id, env.gateway.payload["approvalRequestId"])
		require.Equal(t, []string{"p-1", "p-2"}, env.gateway.payload["recipientIds"])
	})
}

func TestDeny(t *testing.T) {
	t.Run("deny never touches the resource", func(t *testing.T) {
		env := newTestEnv(true)
		id := env.createEdit(t)
		result, hMsg, err := env.handler.Deny(context.Background(), id, "admin-1", validRemarks)
		require.NoError(t, err)
		require.Empty(t, hMsg)
		require.Equal(t, models.ApprovalStatusDenied, result.Status)
		require.Empty(t, env.gateway.calls)
		require.Equal(t, models.ApprovalStatusDenied, env.requests.items[id].Status)
		require.Equal(t, []userNotice{{userID: "user-1", code: models.NotificationApprovalDenied}}, env.notifier.users)
	})
	t.Run("deny is refused while a remote change is being finalized", func(t *testing.T) {
		env := newTestEnv(false)
		id := env.createEdit(t)
		_, err := env.sagas.Start(id, "admin-1", validRemarks)
		require.NoError(t, err)
		require.NoError(t, env.sagas.SetStage(id, models.SagaStageApplied, ""))

		_, _, err = env.handler.Deny(context.Background(), id, "admin-2", validRemarks)
		require.ErrorIs(t, err, models.ErrInvalidState)
		require.Equal(t, models.ApprovalStatusPending, env.requests.items[id].Status)
	})
}

func TestRemarksGate(t *testing.T) {
	env := newTestEnv(true)
	id := env.createEdit(t)
	for _, remarks := range []string{"", "ok", "   short   "} {
		_, hMsg, err := env.handler.Approve(context.Background(), id, "admin-1", remarks)
		require.NoError(t, err)
		require.Equal(t, "Remarks must be at least 10 characters long", hMsg)
		_, hMsg, err = env.handler.Deny(context.Background(), id, "admin-1", remarks)
		require.NoError(t, err)
		require.NotEmpty(t, hMsg)
	}
	require.Empty(t, env.gateway.calls)
	require.Equal(t, models.ApprovalStatusPending, env.requests.items[id].Status)
	require.Empty(t, env.notifier.users)
}

func TestDecide(t *testing.T) {
	env := newTestEnv(true)
	id := env.createEdit(t)
	_, hMsg, err := env.handler.Decide(context.Background(), id, "admin-1", approvalapimodels.DecisionData{
		Status:  models.ApprovalStatusPending,
		Remarks: validRemarks,
	})
	require.NoError(t, err)
	require.NotEmpty(t, hMsg)

	result, hMsg, err := env.handler.Decide(context.Background(), id, "admin-1", approvalapimodels.DecisionData{
		Status:  models.ApprovalStatusDenied,
		Remarks: validRemarks,
	})
	require.NoError(t, err)
	require.Empty(t, hMsg)
	require.Equal(t, models.ApprovalStatusDenied, result.Status)
}

func TestApproveRemote(t *testing.T) {
	t.Run("saga is finalized on success", func(t *testing.T) {
		env := newTestEnv(false)
		id := env.createEdit(t)
		result, _, err := env.handler.Approve(context.Background(), id, "admin-1", validRemarks)
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusApproved, result.Status)
		require.Equal(t, models.SagaStageFinalized, env.sagas.items[id].Stage)
		require.Equal(t, models.ApprovalStatusApproved, env.requests.items[id].Status)
	})
	t.Run("apply failure marks the saga failed", func(t *testing.T) {
		env := newTestEnv(false)
		id := env.createEdit(t)
		env.gateway.applyErr = errors.Wrap(models.ErrUnauthenticated, "remote resource")
		_, _, err := env.handler.Approve(context.Background(), id, "admin-1", validRemarks)
		require.ErrorIs(t, err, models.ErrUnauthenticated)
		require.Equal(t, models.SagaStageFailed, env.sagas.items[id].Stage)
		require.Equal(t, models.ApprovalStatusPending, env.requests.items[id].Status)
		require.Empty(t, env.notifier.users)

		_, _, err = env.handler.Deny(context.Background(), id, "admin-1", validRemarks)
		require.NoError(t, err)
	})
	t.Run("finalization is retried after a failure", func(t *testing.T) {
		env := newTestEnv(false)
		id := env.createEdit(t)
		env.requests.decideErr = errors.New("connection reset")

		result, _, err := env.handler.Approve(context.Background(), id, "admin-1", validRemarks)
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusPending, result.Status)
		require.Equal(t, models.SagaStageApplied, env.sagas.items[id].Stage)
		require.Len(t, env.gateway.calls, 1)

		env.requests.decideErr = nil
		finalized, err := env.handler.FinalizeAppliedSagas(context.Background())
		require.NoError(t, err)
		require.Equal(t, 1, finalized)
		require.Equal(t, models.SagaStageFinalized, env.sagas.items[id].Stage)
		require.Equal(t, models.ApprovalStatusApproved, env.requests.items[id].Status)
		require.Len(t, env.gateway.calls, 1)
		require.Equal(t, []userNotice{{userID: "user-1", code: models.NotificationApprovalApproved}}, env.notifier.users)

		finalized, err = env.handler.FinalizeAppliedSagas(context.Background())
		require.NoError(t, err)
		require.Zero(t, finalized)
	})
	t.Run("second approve of an applied delete only records the decision", func(t *testing.T) {
		env := newTestEnv(false)
		id, err := env.handler.Create(context.Background(), "user-1", approvalapimodels.CreateData{
			Type:         models.ApprovalTypeDeleteData,
			RequestName:  "Exporter profile deletion",
			RequestedURL: "/api/exporter/p-2",
		})
		require.NoError(t, err)
		env.requests.decideErr = errors.New("connection reset")
		result, _, err := env.handler.Approve(context.Background(), id, "admin-1", validRemarks)
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusPending, result.Status)
		require.Equal(t, models.SagaStageApplied, env.sagas.items[id].Stage)

		env.requests.decideErr = nil
		env.gateway.applyErr = errors.Wrap(models.ErrNotFound, "/api/exporter/p-2")
		result, _, err = env.handler.Approve(context.Background(), id, "admin-2", "second look at the request")
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusApproved, result.Status)
		require.Equal(t, []string{"DELETE /api/exporter/p-2"}, env.gateway.calls)
		require.Equal(t, models.SagaStageFinalized, env.sagas.items[id].Stage)
		require.Equal(t, models.ApprovalStatusApproved, env.requests.items[id].Status)
		require.Equal(t, "admin-1", *env.requests.items[id].DecidedBy)
	})
	t.Run("approve is refused while an apply has an unknown outcome", func(t *testing.T) {
		env := newTestEnv(false)
		id := env.createEdit(t)
		_, err := env.sagas.Start(id, "admin-1", validRemarks)
		require.NoError(t, err)

		_, _, err = env.handler.Approve(context.Background(), id, "admin-2", validRemarks)
		require.ErrorIs(t, err, models.ErrInvalidState)
		require.Empty(t, env.gateway.calls)
		require.Equal(t, models.SagaStageApplying, env.sagas.items[id].Stage)
		require.Equal(t, models.ApprovalStatusPending, env.requests.items[id].Status)
	})
}

func TestHistory(t *testing.T) {
	env := newTestEnv(true)
	id := env.createEdit(t)
	_, _, err := env.handler.Deny(context.Background(), id, "admin-1", validRemarks)
	require.NoError(t, err)

	list, err := env.handler.History(id)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, models.ApprovalActionDenied, list[1].Action)

	_, err = env.handler.History("missing")
	require.ErrorIs(t, err, models.ErrNotFound)
}
