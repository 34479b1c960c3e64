package usersstore

import (
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"spice-portal-backend/models"
	dbmodels "spice-portal-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.PortalUser) (id string, err error)
	GetByID(id string) (*dbmodels.PortalUser, error)
	GetByEmail(email string) (*dbmodels.PortalUser, error)
	Update(id string, updMap map[string]interface{}) error
	Delete(id string) error
	// ListByRole active users with the role
	ListByRole(role models.UserRole) ([]dbmodels.PortalUser, error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.PortalUser) (id string, err error) {
	rec.Email = strings.ToLower(strings.TrimSpace(rec.Email))
	err = i.db.Save(&rec).Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.PortalUser, error) {
	rec := dbmodels.PortalUser{}
	err := i.db.
		Model(&dbmodels.PortalUser{}).
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

func (i impl) GetByEmail(email string) (*dbmodels.PortalUser, error) {
	rec := dbmodels.PortalUser{}
	err := i.db.
		Model(&dbmodels.PortalUser{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
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

func (i impl) Update(id string, updMap map[string]interface{}) error {
	if len(updMap) == 0 {
		return nil
	}
	if email, ok := updMap["email"].(string); ok {
		updMap["email"] = strings.ToLower(strings.TrimSpace(email))
	}
	tx := i.db.
		Model(&dbmodels.PortalUser{}).
		Where("id = ?", id).
		Updates(updMap)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.Wrap(models.ErrNotFound, "user")
	}
	return nil
}

func (i impl) Delete(id string) error {
	return i.db.
		Where("id = ?", id).
		Delete(&dbmodels.PortalUser{}).
		Error
}

func (i impl) ListByRole(role models.UserRole) (list []dbmodels.PortalUser, err error) {
	err = i.db.
		Model(&dbmodels.PortalUser{}).
		Where("role = ? AND is_active = ?", role, true).
		Order("created_at").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
