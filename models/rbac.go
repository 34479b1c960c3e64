package models

type RbacFunc func(userID string, role UserRole, path string) bool

type Module string

const (
	ApprovalModule     Module = "APPROVAL"
	ProfileModule      Module = "PROFILE"
	CertificateModule  Module = "CERTIFICATE"
	NotificationModule Module = "NOTIFICATION"
	DictModule         Module = "DICT"
	ReportModule       Module = "REPORT"
)

type Permission string

const (
	CreatePermission Permission = "CREATE"
	EditPermission   Permission = "EDIT"
	ViewPermission   Permission = "VIEW"
	ManagePermission Permission = "MANAGE"
	DecidePermission Permission = "DECIDE"
)
