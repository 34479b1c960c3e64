package notificationstore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	dbmodels "spice-portal-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.Notification) (id string, err error)
	ListUnread(userID string) ([]dbmodels.Notification, error)
	// MarkRead found is false when the notification does not exist or belongs to another user
	MarkRead(userID, id string) (found bool, err error)
	MarkAllRead(userID string) (count int64, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.Notification) (id string, err error) {
	err = i.db.Save(&rec).Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) ListUnread(userID string) (list []dbmodels.Notification, err error) {
	list = []dbmodels.Notification{}
	err = i.db.
		Model(&dbmodels.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at desc").
		Find(&list).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "error listing notifications")
	}
	return list, nil
}

func (i impl) MarkRead(userID, id string) (found bool, err error) {
	tx := i.db.
		Model(&dbmodels.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (i impl) MarkAllRead(userID string) (count int64, err error) {
	tx := i.db.
		Model(&dbmodels.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return tx.RowsAffected, nil
}
