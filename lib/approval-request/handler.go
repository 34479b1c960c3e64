package approvalrequesthandler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"spice-portal-backend/db"
	approvalbuilder "spice-portal-backend/lib/approval-request/builder"
	approvalhistorystore "spice-portal-backend/lib/approval-request/history-store"
	approvalsagastore "spice-portal-backend/lib/approval-request/saga-store"
	approvalrequeststore "spice-portal-backend/lib/approval-request/store"
	notificationhandler "spice-portal-backend/lib/notification"
	resourcegateway "spice-portal-backend/lib/resource-gateway"
	"spice-portal-backend/lib/utils/helpers"
	initchecker "spice-portal-backend/lib/utils/init-checker"
	"spice-portal-backend/lib/utils/lock"
	"spice-portal-backend/metrics"
	"spice-portal-backend/models"
	approvalapimodels "spice-portal-backend/models/api/approval"
	dbmodels "spice-portal-backend/models/db"
)

type Provider interface {
	Create(ctx context.Context, userID string, data approvalapimodels.CreateData) (id string, err error)
	Get(id string) (approvalapimodels.ApprovalView, error)
	List(filter approvalapimodels.ListFilter) (list []approvalapimodels.ApprovalView, rowCount int64, err error)
	ListAll(filter approvalapimodels.ListFilter) (list []approvalapimodels.ApprovalView, err error)
	History(id string) ([]approvalapimodels.HistoryView, error)
	Decide(ctx context.Context, id, reviewerID string, data approvalapimodels.DecisionData) (result approvalapimodels.DecisionResult, hMsg string, err error)
	Approve(ctx context.Context, id, reviewerID, remarks string) (result approvalapimodels.DecisionResult, hMsg string, err error)
	Deny(ctx context.Context, id, reviewerID, remarks string) (result approvalapimodels.DecisionResult, hMsg string, err error)
	// FinalizeAppliedSagas completes remote approvals whose change was applied but not recorded
	FinalizeAppliedSagas(ctx context.Context) (finalized int, err error)
}

var Instance Provider

type Config struct {
	MinRemarksLength int
	LockWait         time.Duration
}

const sagaBatchSize = 100

func NewHandler(gateway resourcegateway.Provider, cfg Config) {
	instance := impl{
		stores:     newStores(db.DB),
		gateway:    gateway,
		notifier:   notificationhandler.Instance,
		inTx:       dbTransaction,
		minRemarks: cfg.MinRemarksLength,
		lockWait:   cfg.LockWait,
		now:        time.Now,
	}
	initchecker.CheckInit(
		"gateway", gateway,
		"notifier", instance.notifier,
	)
	Instance = instance
}

type stores struct {
	requests approvalrequeststore.Provider
	history  approvalhistorystore.Provider
	sagas    approvalsagastore.Provider
}

func newStores(tx *gorm.DB) stores {
	return stores{
		requests: approvalrequeststore.NewInstance(tx),
		history:  approvalhistorystore.NewInstance(tx),
		sagas:    approvalsagastore.NewInstance(tx),
	}
}

func dbTransaction(fn func(tx *gorm.DB, s stores) error) error {
	return db.DB.Transaction(func(tx *gorm.DB) error {
		return fn(tx, newStores(tx))
	})
}

type impl struct {
	stores
	gateway    resourcegateway.Provider
	notifier   notificationhandler.Provider
	inTx       func(fn func(tx *gorm.DB, s stores) error) error
	minRemarks int
	lockWait   time.Duration
	now        func() time.Time
}

func (i impl) getLogger(requestID, userID string) *log.Entry {
	logger := log.WithField("approval_request_id", requestID)
	if userID != "" {
		logger = logger.WithField("user_id", userID)
	}
	return logger
}

func (i impl) Create(ctx context.Context, userID string, data approvalapimodels.CreateData) (id string, err error) {
	rec, err := approvalbuilder.Build(data.Type, data.RequestedURL, data.RequestName, data.RequestData)
	if err != nil {
		return "", err
	}
	rec.RequestedBy = userID
	err = i.inTx(func(tx *gorm.DB, s stores) error {
		id, err = s.requests.Create(rec)
		if err != nil {
			return errors.Wrap(err, "error creating approval request")
		}
		return s.history.Save(dbmodels.ApprovalHistory{
			RequestID: id,
			UserID:    userID,
			Action:    models.ApprovalActionCreated,
			Changes:   requestedChanges(rec),
		})
	})
	if err != nil {
		return "", err
	}
	metrics.RecordApprovalCreated(string(rec.Type))
	i.getLogger(id, userID).WithField("type", rec.Type).Info("approval request created")
	i.notifier.NotifyReviewers(id, models.NotificationApprovalCreated,
		"New approval request",
		fmt.Sprintf("%q (%s) is waiting for review", rec.RequestName, rec.Type.ToHuman()))
	return id, nil
}

func (i impl) Get(id string) (approvalapimodels.ApprovalView, error) {
	rec, err := i.requests.GetByID(id)
	if err != nil {
		return approvalapimodels.ApprovalView{}, err
	}
	if rec == nil {
		return approvalapimodels.ApprovalView{}, errors.Wrap(models.ErrNotFound, "approval request")
	}
	return approvalapimodels.Convert(*rec), nil
}

func (i impl) List(filter approvalapimodels.ListFilter) (list []approvalapimodels.ApprovalView, rowCount int64, err error) {
	if err = filter.Validate(); err != nil {
		return nil, 0, err
	}
	rowCount, err = i.requests.ListCount(filter)
	if err != nil {
		return nil, 0, err
	}
	recList, err := i.requests.List(filter)
	if err != nil {
		return nil, 0, err
	}
	list = make([]approvalapimodels.ApprovalView, 0, len(recList))
	for _, rec := range recList {
		list = append(list, approvalapimodels.Convert(rec))
	}
	return list, rowCount, nil
}

func (i impl) ListAll(filter approvalapimodels.ListFilter) (list []approvalapimodels.ApprovalView, err error) {
	if err = filter.Validate(); err != nil {
		return nil, err
	}
	recList, err := i.requests.ListAll(filter)
	if err != nil {
		return nil, err
	}
	list = make([]approvalapimodels.ApprovalView, 0, len(recList))
	for _, rec := range recList {
		list = append(list, approvalapimodels.Convert(rec))
	}
	return list, nil
}

func (i impl) History(id string) ([]approvalapimodels.HistoryView, error) {
	if _, err := i.Get(id); err != nil {
		return nil, err
	}
	recList, err := i.history.List(id)
	if err != nil {
		return nil, err
	}
	result := make([]approvalapimodels.HistoryView, 0, len(recList))
	for _, rec := range recList {
		result = append(result, approvalapimodels.HistoryConvert(rec))
	}
	return result, nil
}

func (i impl) Decide(ctx context.Context, id, reviewerID string, data approvalapimodels.DecisionData) (result approvalapimodels.DecisionResult, hMsg string, err error) {
	if err = data.Validate(); err != nil {
		return result, err.Error(), nil
	}
	if data.Status == models.ApprovalStatusApproved {
		return i.Approve(ctx, id, reviewerID, data.Remarks)
	}
	return i.Deny(ctx, id, reviewerID, data.Remarks)
}

func (i impl) Approve(ctx context.Context, id, reviewerID, remarks string) (result approvalapimodels.DecisionResult, hMsg string, err error) {
	remarks, hMsg = i.checkRemarks(remarks)
	if hMsg != "" {
		return result, hMsg, nil
	}
	err = i.withLock(ctx, id, func() error {
		rec, err := i.getPending(id)
		if err != nil {
			return err
		}
		if txGateway, ok := i.gateway.(resourcegateway.TxProvider); ok {
			result, err = i.approveLocal(ctx, txGateway, *rec, reviewerID, remarks)
		} else {
			result, err = i.approveRemote(ctx, *rec, reviewerID, remarks)
		}
		return err
	})
	return result, "", err
}

func (i impl) Deny(ctx context.Context, id, reviewerID, remarks string) (result approvalapimodels.DecisionResult, hMsg string, err error) {
	remarks, hMsg = i.checkRemarks(remarks)
	if hMsg != "" {
		return result, hMsg, nil
	}
	err = i.withLock(ctx, id, func() error {
		rec, err := i.getPending(id)
		if err != nil {
			return err
		}
		saga, err := i.sagas.GetByRequestID(id)
		if err != nil {
			return err
		}
		if saga != nil && (saga.Stage == models.SagaStageApplying || saga.Stage == models.SagaStageApplied) {
			return errors.Wrap(models.ErrInvalidState, "the change was already applied to the resource and is being finalized")
		}
		err = i.inTx(func(tx *gorm.DB, s stores) error {
			ok, err := s.requests.Decide(id, models.ApprovalStatusDenied, remarks, reviewerID, i.now())
			if err != nil {
				return err
			}
			if !ok {
				return errors.Wrap(models.ErrInvalidState, "request was decided concurrently")
			}
			return s.history.Save(dbmodels.ApprovalHistory{
				RequestID: id,
				UserID:    reviewerID,
				Action:    models.ApprovalActionDenied,
				Remarks:   remarks,
			})
		})
		if err != nil {
			return err
		}
		metrics.RecordDecision(string(rec.Type), string(models.ApprovalStatusDenied))
		i.getLogger(id, reviewerID).Info("approval request denied")
		i.notifyDecision(*rec, models.ApprovalStatusDenied, remarks)
		result = approvalapimodels.DecisionResult{
			ID:      id,
			Status:  models.ApprovalStatusDenied,
			Message: "Request denied",
		}
		return nil
	})
	return result, "", err
}

// approveLocal applies the change and records the decision in one transaction
func (i impl) approveLocal(ctx context.Context, gateway resourcegateway.TxProvider, rec dbmodels.ApprovalRequest, reviewerID, remarks string) (approvalapimodels.DecisionResult, error) {
	changes := i.appliedChanges(ctx, rec)
	var applyErr error
	err := i.inTx(func(tx *gorm.DB, s stores) error {
		if applyErr = apply(ctx, gateway.WithTx(tx), rec); applyErr != nil {
			return applyErr
		}
		ok, err := s.requests.Decide(rec.ID, models.ApprovalStatusApproved, remarks, reviewerID, i.now())
		if err != nil {
			return err
		}
		if !ok {
			return errors.Wrap(models.ErrInvalidState, "request was decided concurrently")
		}
		return s.history.Save(dbmodels.ApprovalHistory{
			RequestID: rec.ID,
			UserID:    reviewerID,
			Action:    models.ApprovalActionApproved,
			Remarks:   remarks,
			Changes:   changes,
		})
	})
	if err != nil {
		if applyErr != nil {
			i.applyFailed(rec, reviewerID, applyErr)
			return approvalapimodels.DecisionResult{}, errors.Wrap(applyErr, "error applying the requested change")
		}
		return approvalapimodels.DecisionResult{}, err
	}
	i.approved(rec, reviewerID, remarks)
	return approvalapimodels.DecisionResult{
		ID:      rec.ID,
		Status:  models.ApprovalStatusApproved,
		Message: "Request approved and the change applied",
	}, nil
}

// approveRemote journals each stage so an applied change is never lost if the decision can not be recorded
func (i impl) approveRemote(ctx context.Context, rec dbmodels.ApprovalRequest, reviewerID, remarks string) (approvalapimodels.DecisionResult, error) {
	logger := i.getLogger(rec.ID, reviewerID)
	saga, err := i.sagas.GetByRequestID(rec.ID)
	if err != nil {
		return approvalapimodels.DecisionResult{}, errors.Wrap(err, "error getting approval saga")
	}
	if saga != nil {
		switch saga.Stage {
		case models.SagaStageApplying:
			return approvalapimodels.DecisionResult{}, errors.Wrap(models.ErrInvalidState, "a previous approval of the request has an unknown outcome")
		case models.SagaStageApplied:
			// the change already reached the resource, only the decision is missing
			logger.Info("change already applied, recording the approval")
			changes := dbmodels.EntityChanges{Description: "approval recorded after the change was applied"}
			return i.recordRemote(rec, saga.ReviewerID, saga.Remarks, changes)
		}
	}
	if _, err = i.sagas.Start(rec.ID, reviewerID, remarks); err != nil {
		return approvalapimodels.DecisionResult{}, errors.Wrap(err, "error starting approval saga")
	}
	changes := i.appliedChanges(ctx, rec)
	if applyErr := apply(ctx, i.gateway, rec); applyErr != nil {
		if err := i.sagas.SetStage(rec.ID, models.SagaStageFailed, applyErr.Error()); err != nil {
			logger.WithError(err).Error("error marking approval saga as failed")
		}
		i.applyFailed(rec, reviewerID, applyErr)
		return approvalapimodels.DecisionResult{}, errors.Wrap(applyErr, "error applying the requested change")
	}
	if err = i.sagas.SetStage(rec.ID, models.SagaStageApplied, ""); err != nil {
		logger.WithError(err).Error("error marking approval saga as applied")
	}
	return i.recordRemote(rec, reviewerID, remarks, changes)
}

// recordRemote finalizes a remotely applied approval, a failed attempt is left to the saga worker
func (i impl) recordRemote(rec dbmodels.ApprovalRequest, reviewerID, remarks string, changes dbmodels.EntityChanges) (approvalapimodels.DecisionResult, error) {
	transitioned, err := i.finalize(rec, reviewerID, remarks, changes)
	if err != nil {
		if errors.Is(err, models.ErrInvalidState) {
			return approvalapimodels.DecisionResult{}, err
		}
		i.getLogger(rec.ID, reviewerID).WithError(err).Error("error finalizing approval, it will be retried")
		return approvalapimodels.DecisionResult{
			ID:      rec.ID,
			Status:  models.ApprovalStatusPending,
			Message: "The change was applied, the approval will be recorded shortly",
		}, nil
	}
	if transitioned {
		i.approved(rec, reviewerID, remarks)
	}
	return approvalapimodels.DecisionResult{
		ID:      rec.ID,
		Status:  models.ApprovalStatusApproved,
		Message: "Request approved and the change applied",
	}, nil
}

// finalize records an applied approval, repeated calls are harmless
func (i impl) finalize(rec dbmodels.ApprovalRequest, reviewerID, remarks string, changes dbmodels.EntityChanges) (transitioned bool, err error) {
	err = i.inTx(func(tx *gorm.DB, s stores) error {
		ok, err := s.requests.Decide(rec.ID, models.ApprovalStatusApproved, remarks, reviewerID, i.now())
		if err != nil {
			return err
		}
		if !ok {
			current, err := s.requests.GetByID(rec.ID)
			if err != nil {
				return err
			}
			if current == nil || current.Status != models.ApprovalStatusApproved {
				if err = s.sagas.SetStage(rec.ID, models.SagaStageFailed, "request is no longer pending"); err != nil {
					return err
				}
				return errors.Wrap(models.ErrInvalidState, "request is no longer pending")
			}
			return s.sagas.SetStage(rec.ID, models.SagaStageFinalized, "")
		}
		transitioned = true
		err = s.history.Save(dbmodels.ApprovalHistory{
			RequestID: rec.ID,
			UserID:    reviewerID,
			Action:    models.ApprovalActionApproved,
			Remarks:   remarks,
			Changes:   changes,
		})
		if err != nil {
			return err
		}
		return s.sagas.SetStage(rec.ID, models.SagaStageFinalized, "")
	})
	return transitioned, err
}

func (i impl) FinalizeAppliedSagas(ctx context.Context) (finalized int, err error) {
	list, err := i.sagas.ListByStage(models.SagaStageApplied, sagaBatchSize)
	if err != nil {
		return 0, errors.Wrap(err, "error listing applied approval sagas")
	}
	for _, saga := range list {
		if helpers.IsContextDone(ctx) {
			return finalized, ctx.Err()
		}
		logger := i.getLogger(saga.RequestID, saga.ReviewerID)
		lockErr := i.withLock(ctx, saga.RequestID, func() error {
			rec, err := i.requests.GetByID(saga.RequestID)
			if err != nil {
				return err
			}
			if rec == nil {
				return i.sagas.SetStage(saga.RequestID, models.SagaStageFailed, "approval request not found")
			}
			changes := dbmodels.EntityChanges{Description: "approval recorded after the change was applied"}
			transitioned, err := i.finalize(*rec, saga.ReviewerID, saga.Remarks, changes)
			if err != nil {
				return err
			}
			if transitioned {
				i.approved(*rec, saga.ReviewerID, saga.Remarks)
			}
			finalized++
			return nil
		})
		if lockErr != nil {
			logger.WithError(lockErr).Warn("error finalizing approval saga")
		}
	}
	return finalized, nil
}

func (i impl) checkRemarks(remarks string) (string, string) {
	remarks = strings.TrimSpace(remarks)
	if utf8.RuneCountInString(remarks) < i.minRemarks {
		return remarks, fmt.Sprintf("Remarks must be at least %d characters long", i.minRemarks)
	}
	return remarks, ""
}

func (i impl) withLock(ctx context.Context, id string, fn func() error) error {
	success, err := lock.WithDelay(ctx, "approval-request:"+id, i.lockWait, fn)
	if err != nil {
		return err
	}
	if !success {
		return models.ErrAlreadyLocked
	}
	return nil
}

func (i impl) getPending(id string) (*dbmodels.ApprovalRequest, error) {
	rec, err := i.requests.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.Wrap(models.ErrNotFound, "approval request")
	}
	if rec.Status != models.ApprovalStatusPending {
		return nil, errors.Wrapf(models.ErrInvalidState, "request is already %s", rec.Status)
	}
	return rec, nil
}

func (i impl) applyFailed(rec dbmodels.ApprovalRequest, reviewerID string, applyErr error) {
	logger := i.getLogger(rec.ID, reviewerID)
	logger.WithError(applyErr).Warn("approved change could not be applied")
	metrics.RecordApplyFailure(string(rec.Type))
	err := i.history.Save(dbmodels.ApprovalHistory{
		RequestID: rec.ID,
		UserID:    reviewerID,
		Action:    models.ApprovalActionApplyFailed,
		Remarks:   applyErr.Error(),
	})
	if err != nil {
		logger.WithError(err).Error("error saving approval history")
	}
}

func (i impl) approved(rec dbmodels.ApprovalRequest, reviewerID, remarks string) {
	metrics.RecordDecision(string(rec.Type), string(models.ApprovalStatusApproved))
	i.getLogger(rec.ID, reviewerID).Info("approval request approved")
	i.notifyDecision(rec, models.ApprovalStatusApproved, remarks)
}

func (i impl) notifyDecision(rec dbmodels.ApprovalRequest, status models.ApprovalStatus, remarks string) {
	if rec.RequestedBy == "" || rec.RequestedBy == models.SystemUser {
		return
	}
	code := models.NotificationApprovalApproved
	title := "Request approved"
	if status == models.ApprovalStatusDenied {
		code = models.NotificationApprovalDenied
		title = "Request denied"
	}
	message := fmt.Sprintf("Your request %q was %s.\nRemarks: %s", rec.RequestName, status, remarks)
	i.notifier.NotifyUser(rec.RequestedBy, &rec.ID, code, title, message, true)
}

// appliedChanges captures the values an approval is about to overwrite
func (i impl) appliedChanges(ctx context.Context, rec dbmodels.ApprovalRequest) dbmodels.EntityChanges {
	changes := requestedChanges(rec)
	if rec.Type != models.ApprovalTypeEditData {
		return changes
	}
	current, err := i.gateway.Get(ctx, rec.RequestedURL)
	if err != nil {
		i.getLogger(rec.ID, "").WithError(err).Debug("previous values not available for history")
		return changes
	}
	for idx := range changes.Data {
		changes.Data[idx].OldValue = current[changes.Data[idx].Field]
	}
	return changes
}

func requestedChanges(rec dbmodels.ApprovalRequest) dbmodels.EntityChanges {
	changes := dbmodels.EntityChanges{Description: rec.RequestName}
	keys := make([]string, 0, len(rec.RequestData))
	for key := range rec.RequestData {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		changes.Data = append(changes.Data, dbmodels.FieldChanges{
			Field:    key,
			NewValue: rec.RequestData[key],
		})
	}
	return changes
}

func apply(ctx context.Context, gateway resourcegateway.Provider, rec dbmodels.ApprovalRequest) error {
	switch rec.Type {
	case models.ApprovalTypeEditData:
		return gateway.Patch(ctx, rec.RequestedURL, rec.RequestData)
	case models.ApprovalTypeDeleteData:
		return gateway.Delete(ctx, rec.RequestedURL)
	case models.ApprovalTypeCertificateIssuance:
		payload := make(map[string]any, len(rec.RequestData)+1)
		for key, value := range rec.RequestData {
			payload[key] = value
		}
		payload[approvalbuilder.ApprovalRequestIDKey] = rec.ID
		return gateway.Invoke(ctx, rec.RequestedURL, payload)
	}
	return models.NewValidationError("unknown request type %q", rec.Type)
}
