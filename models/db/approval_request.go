package dbmodels

import (
	"time"

	"spice-portal-backend/models"
)

type ApprovalRequest struct {
	BaseModel
	Type         models.ApprovalType   `gorm:"type:varchar(30);index"`
	RequestName  string                `gorm:"type:varchar(255)"`
	RequestedURL string                `gorm:"type:varchar(255);index"`
	RequestData  JSONMap               `gorm:"type:jsonb"`
	Status       models.ApprovalStatus `gorm:"type:varchar(20);index"`
	Remarks      string
	RequestedBy  string  `gorm:"type:varchar(36);index"`
	DecidedBy    *string `gorm:"type:varchar(36)"`
	DecidedAt    *time.Time
}

type ApprovalHistory struct {
	BaseModel
	RequestID string                `gorm:"type:varchar(36);index"`
	UserID    string                `gorm:"type:varchar(36)"`
	Action    models.ApprovalAction `gorm:"type:varchar(20)"`
	Remarks   string
	Changes   EntityChanges `gorm:"type:jsonb"`
}

// ApprovalSaga journal of an approval applied to a remote resource
type ApprovalSaga struct {
	BaseModel
	RequestID  string           `gorm:"type:varchar(36);uniqueIndex"`
	Stage      models.SagaStage `gorm:"type:varchar(20);index"`
	ReviewerID string           `gorm:"type:varchar(36)"`
	Remarks    string
	Attempts   int
	LastError  string
}
