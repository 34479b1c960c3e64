package models

type NotificationType string

const (
	NotificationApprovalCreated  NotificationType = "APPROVAL_CREATED"
	NotificationApprovalApproved NotificationType = "APPROVAL_APPROVED"
	NotificationApprovalDenied   NotificationType = "APPROVAL_DENIED"
	NotificationCertificate      NotificationType = "CERTIFICATE_ISSUED"
)

type NotificationPriority string

const (
	NotificationPriorityHigh   NotificationPriority = "high"
	NotificationPriorityNormal NotificationPriority = "normal"
)
