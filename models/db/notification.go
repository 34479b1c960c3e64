package dbmodels

import "spice-portal-backend/models"

type Notification struct {
	BaseModel
	UserID            string                  `gorm:"type:varchar(36);index"`
	Type              models.NotificationType `gorm:"type:varchar(30)"`
	Title             string                  `gorm:"type:varchar(255)"`
	Message           string
	IsRead            bool    `gorm:"index"`
	ApprovalRequestID *string `gorm:"type:varchar(36)"`
}

func (n Notification) Priority() models.NotificationPriority {
	if n.ApprovalRequestID != nil && *n.ApprovalRequestID != "" {
		return models.NotificationPriorityHigh
	}
	return models.NotificationPriorityNormal
}
