package lookupstore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"spice-portal-backend/models"
	dbmodels "spice-portal-backend/models/db"
)

type Provider interface {
	List(dict models.LookupDict) ([]dbmodels.LookupItem, error)
	// Upsert inserts items or renames existing codes
	Upsert(items []dbmodels.LookupItem) error
	Count(dict models.LookupDict) (int64, error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) List(dict models.LookupDict) ([]dbmodels.LookupItem, error) {
	list := []dbmodels.LookupItem{}
	err := i.db.
		Model(&dbmodels.LookupItem{}).
		Where("dict = ?", dict).
		Order("code").
		Find(&list).
		Error
	if err != nil {
		return nil, errors.Wrapf(err, "error listing %s lookup", dict)
	}
	return list, nil
}

func (i impl) Upsert(items []dbmodels.LookupItem) error {
	if len(items) == 0 {
		return nil
	}
	err := i.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dict"}, {Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}).
		Create(&items).
		Error
	if err != nil {
		return errors.Wrap(err, "error saving lookup items")
	}
	return nil
}

func (i impl) Count(dict models.LookupDict) (count int64, err error) {
	err = i.db.
		Model(&dbmodels.LookupItem{}).
		Where("dict = ?", dict).
		Count(&count).
		Error
	return count, err
}
