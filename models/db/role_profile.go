package dbmodels

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"spice-portal-backend/models"
)

type RoleProfile struct {
	BaseModel
	UserID               string               `gorm:"type:varchar(36);uniqueIndex"`
	User                 *PortalUser          `gorm:"foreignKey:UserID"`
	Kind                 models.ProfileKind   `gorm:"type:varchar(30);index"`
	Status               models.ProfileStatus `gorm:"type:varchar(20)"`
	BusinessName         string               `gorm:"type:varchar(255)"`
	BusinessRegNo        string               `gorm:"type:varchar(50)"`
	Address              string               `gorm:"type:varchar(500)"`
	ProvinceID           *int
	NumberOfEmployeeID   *int
	BusinessExperienceID *int
	CertificateIDs       pq.Int64Array `gorm:"type:int8[]"`
	Description          string
	RegistrationDate     *time.Time    `gorm:"type:date"`
	Products             []ProductLine `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE"`
}

// RequiresApproval changes to existing profiles go through an approval request
func (r RoleProfile) RequiresApproval() bool {
	return r.Status == models.ProfileStatusExisting
}

type ProductLine struct {
	BaseModel
	ProfileID   string          `gorm:"type:varchar(36);index"`
	ProductID   int
	Value       decimal.Decimal `gorm:"type:numeric(18,3)"`
	IsRaw       bool
	IsProcessed bool
	Details     string
}
