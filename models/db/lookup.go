package dbmodels

import "spice-portal-backend/models"

type LookupItem struct {
	BaseModel
	Dict models.LookupDict `gorm:"type:varchar(30);uniqueIndex:idx_lookup_dict_code"`
	Code int               `gorm:"uniqueIndex:idx_lookup_dict_code"`
	Name string            `gorm:"type:varchar(255)"`
}
