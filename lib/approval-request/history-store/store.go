package approvalhistorystore

import (
	"gorm.io/gorm"
	dbmodels "spice-portal-backend/models/db"
)

type Provider interface {
	Save(rec dbmodels.ApprovalHistory) error
	List(requestID string) ([]dbmodels.ApprovalHistory, error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Save(rec dbmodels.ApprovalHistory) error {
	return i.db.Save(&rec).Error
}

func (i impl) List(requestID string) (list []dbmodels.ApprovalHistory, err error) {
	err = i.db.
		Model(&dbmodels.ApprovalHistory{}).
		Where("request_id = ?", requestID).
		Order("created_at").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
