package dbmodels

import "time"

type Certificate struct {
	BaseModel
	Number            string `gorm:"type:varchar(50);uniqueIndex"`
	CertificateTypeID int
	ProfileID         string       `gorm:"type:varchar(36);index"`
	Profile           *RoleProfile `gorm:"foreignKey:ProfileID"`
	FileKey           string       `gorm:"type:varchar(255)"`
	IssuedAt          time.Time
	ApprovalRequestID string `gorm:"type:varchar(36)"`
}
