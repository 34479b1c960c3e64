package dbmodels

import "spice-portal-backend/models"

type PortalUser struct {
	BaseModel
	FullName   string          `gorm:"type:varchar(255)"`
	Email      string          `gorm:"type:varchar(255);uniqueIndex"`
	Phone      string          `gorm:"type:varchar(20)"`
	NIC        string          `gorm:"type:varchar(12)"`
	Address    string          `gorm:"type:varchar(500)"`
	ProvinceID *int
	Role       models.UserRole `gorm:"type:varchar(20);index"`
	IsActive   bool
}
