package profilestore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"spice-portal-backend/models"
	dbmodels "spice-portal-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.RoleProfile) (id string, err error)
	GetByID(id string) (*dbmodels.RoleProfile, error)
	GetByUserID(userID string) (*dbmodels.RoleProfile, error)
	GetByIDs(ids []string) ([]dbmodels.RoleProfile, error)
	Update(id string, updMap map[string]interface{}) error
	ReplaceProducts(id string, lines []dbmodels.ProductLine) error
	Delete(id string) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.RoleProfile) (id string, err error) {
	err = i.db.Create(&rec).Error
	if err != nil {
		return "", errors.Wrap(err, "error creating role profile")
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.RoleProfile, error) {
	return i.first(i.db.Where("id = ?", id))
}

func (i impl) GetByUserID(userID string) (*dbmodels.RoleProfile, error) {
	return i.first(i.db.Where("user_id = ?", userID))
}

func (i impl) first(tx *gorm.DB) (*dbmodels.RoleProfile, error) {
	rec := dbmodels.RoleProfile{}
	err := tx.
		Model(&dbmodels.RoleProfile{}).
		Preload("Products", func(db *gorm.DB) *gorm.DB {
			return db.Order("product_id")
		}).
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

func (i impl) GetByIDs(ids []string) (list []dbmodels.RoleProfile, err error) {
	list = []dbmodels.RoleProfile{}
	if len(ids) == 0 {
		return list, nil
	}
	err = i.db.
		Model(&dbmodels.RoleProfile{}).
		Preload("User").
		Where("id in (?)", ids).
		Order("business_name").
		Find(&list).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "error listing role profiles")
	}
	return list, nil
}

func (i impl) Update(id string, updMap map[string]interface{}) error {
	if len(updMap) == 0 {
		return nil
	}
	tx := i.db.
		Model(&dbmodels.RoleProfile{}).
		Where("id = ?", id).
		Updates(updMap)
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "error updating role profile")
	}
	if tx.RowsAffected == 0 {
		return errors.Wrap(models.ErrNotFound, "role profile")
	}
	return nil
}

func (i impl) ReplaceProducts(id string, lines []dbmodels.ProductLine) error {
	err := i.db.
		Where("profile_id = ?", id).
		Delete(&dbmodels.ProductLine{}).
		Error
	if err != nil {
		return errors.Wrap(err, "error deleting product lines")
	}
	if len(lines) == 0 {
		return nil
	}
	for idx := range lines {
		lines[idx].ProfileID = id
	}
	if err = i.db.Create(&lines).Error; err != nil {
		return errors.Wrap(err, "error saving product lines")
	}
	return nil
}

func (i impl) Delete(id string) error {
	err := i.db.
		Where("profile_id = ?", id).
		Delete(&dbmodels.ProductLine{}).
		Error
	if err != nil {
		return errors.Wrap(err, "error deleting product lines")
	}
	tx := i.db.
		Where("id = ?", id).
		Delete(&dbmodels.RoleProfile{})
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "error deleting role profile")
	}
	if tx.RowsAffected == 0 {
		return errors.Wrap(models.ErrNotFound, "role profile")
	}
	return nil
}
