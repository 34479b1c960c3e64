package notificationapimodels

import (
	"time"

	"spice-portal-backend/models"
	dbmodels "spice-portal-backend/models/db"
)

type NotificationView struct {
	ID                string                      `json:"id"`
	Type              models.NotificationType     `json:"type"`
	Title             string                      `json:"title"`
	Message           string                      `json:"message"`
	IsRead            bool                        `json:"isRead"`
	ApprovalRequestID *string                     `json:"approvalRequestId,omitempty"`
	Priority          models.NotificationPriority `json:"priority"`
	CreatedAt         time.Time                   `json:"createdAt"`
}

func Convert(rec dbmodels.Notification) NotificationView {
	return NotificationView{
		ID:                rec.ID,
		Type:              rec.Type,
		Title:             rec.Title,
		Message:           rec.Message,
		IsRead:            rec.IsRead,
		ApprovalRequestID: rec.ApprovalRequestID,
		Priority:          rec.Priority(),
		CreatedAt:         rec.CreatedAt,
	}
}
