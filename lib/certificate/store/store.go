package certificatestore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	dbmodels "spice-portal-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.Certificate) (id string, err error)
	GetByID(id string) (*dbmodels.Certificate, error)
	ListByProfile(profileID string) ([]dbmodels.Certificate, error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.Certificate) (id string, err error) {
	err = i.db.Create(&rec).Error
	if err != nil {
		return "", errors.Wrap(err, "error saving certificate")
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.Certificate, error) {
	rec := dbmodels.Certificate{}
	err := i.db.
		Model(&dbmodels.Certificate{}).
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

func (i impl) ListByProfile(profileID string) (list []dbmodels.Certificate, err error) {
	list = []dbmodels.Certificate{}
	err = i.db.
		Model(&dbmodels.Certificate{}).
		Where("profile_id = ?", profileID).
		Order("issued_at desc").
		Find(&list).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "error listing certificates")
	}
	return list, nil
}
