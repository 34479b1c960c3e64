package approvalsagastore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"spice-portal-backend/models"
	dbmodels "spice-portal-backend/models/db"
)

type Provider interface {
	// Start creates or restarts the journal of requestID in the applying stage
	Start(requestID, reviewerID, remarks string) (*dbmodels.ApprovalSaga, error)
	GetByRequestID(requestID string) (*dbmodels.ApprovalSaga, error)
	SetStage(requestID string, stage models.SagaStage, lastError string) error
	ListByStage(stage models.SagaStage, limit int) ([]dbmodels.ApprovalSaga, error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Start(requestID, reviewerID, remarks string) (*dbmodels.ApprovalSaga, error) {
	rec, err := i.GetByRequestID(requestID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &dbmodels.ApprovalSaga{RequestID: requestID}
	}
	rec.Stage = models.SagaStageApplying
	rec.ReviewerID = reviewerID
	rec.Remarks = remarks
	rec.Attempts++
	rec.LastError = ""
	if err = i.db.Save(rec).Error; err != nil {
		return nil, errors.Wrap(err, "error saving approval saga")
	}
	return rec, nil
}

func (i impl) GetByRequestID(requestID string) (*dbmodels.ApprovalSaga, error) {
	rec := dbmodels.ApprovalSaga{}
	err := i.db.
		Model(&dbmodels.ApprovalSaga{}).
		Where("request_id = ?", requestID).
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (i impl) SetStage(requestID string, stage models.SagaStage, lastError string) error {
	updMap := map[string]interface{}{
		"stage":      stage,
		"last_error": lastError,
	}
	return i.db.
		Model(&dbmodels.ApprovalSaga{}).
		Where("request_id = ?", requestID).
		Updates(updMap).
		Error
}

func (i impl) ListByStage(stage models.SagaStage, limit int) (list []dbmodels.ApprovalSaga, err error) {
	err = i.db.
		Model(&dbmodels.ApprovalSaga{}).
		Where("stage = ?", stage).
		Order("updated_at").
		Limit(limit).
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
