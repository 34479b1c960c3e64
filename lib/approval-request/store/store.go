package approvalrequeststore

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"spice-portal-backend/models"
	approvalapimodels "spice-portal-backend/models/api/approval"
	dbmodels "spice-portal-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.ApprovalRequest) (id string, err error)
	GetByID(id string) (*dbmodels.ApprovalRequest, error)
	ListCount(filter approvalapimodels.ListFilter) (count int64, err error)
	List(filter approvalapimodels.ListFilter) (list []dbmodels.ApprovalRequest, err error)
	// ListAll unpaged list for reports
	ListAll(filter approvalapimodels.ListFilter) (list []dbmodels.ApprovalRequest, err error)
	// Decide moves a pending request to status, ok is false when the request is no longer pending
	Decide(id string, status models.ApprovalStatus, remarks, decidedBy string, decidedAt time.Time) (ok bool, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.ApprovalRequest) (id string, err error) {
	err = i.db.Save(&rec).Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.ApprovalRequest, error) {
	rec := dbmodels.ApprovalRequest{}
	err := i.db.
		Model(&dbmodels.ApprovalRequest{}).
		Where("id = ?", id).
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

func (i impl) ListCount(filter approvalapimodels.ListFilter) (count int64, err error) {
	var rowCount int64
	tx := i.db.Model(&dbmodels.ApprovalRequest{})
	tx = i.addFilter(tx, filter)
	err = tx.Count(&rowCount).Error
	if err != nil {
		return 0, errors.Wrap(err, "error counting approval requests")
	}
	return rowCount, nil
}

func (i impl) List(filter approvalapimodels.ListFilter) (list []dbmodels.ApprovalRequest, err error) {
	list = []dbmodels.ApprovalRequest{}
	tx := i.db.Model(&dbmodels.ApprovalRequest{})
	tx = i.addFilter(tx, filter)
	page, limit := filter.GetPage()
	err = tx.
		Order("created_at desc").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&list).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "error listing approval requests")
	}
	return list, nil
}

func (i impl) ListAll(filter approvalapimodels.ListFilter) (list []dbmodels.ApprovalRequest, err error) {
	list = []dbmodels.ApprovalRequest{}
	tx := i.db.Model(&dbmodels.ApprovalRequest{})
	tx = i.addFilter(tx, filter)
	err = tx.
		Order("created_at desc").
		Find(&list).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "error listing approval requests")
	}
	return list, nil
}

func (i impl) addFilter(tx *gorm.DB, filter approvalapimodels.ListFilter) *gorm.DB {
	if filter.Status != "" {
		tx = tx.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		tx = tx.Where("type = ?", filter.Type)
	}
	if filter.RequestedBy != "" {
		tx = tx.Where("requested_by = ?", filter.RequestedBy)
	}
	if filter.Search != "" {
		tx = tx.Where("LOWER(request_name) like ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	return tx
}

func (i impl) Decide(id string, status models.ApprovalStatus, remarks, decidedBy string, decidedAt time.Time) (ok bool, err error) {
	tx := i.db.
		Model(&dbmodels.ApprovalRequest{}).
		Where("id = ? AND status = ?", id, models.ApprovalStatusPending).
		Updates(map[string]interface{}{
			"status":     status,
			"remarks":    remarks,
			"decided_by": decidedBy,
			"decided_at": decidedAt,
			"updated_at": decidedAt,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}
