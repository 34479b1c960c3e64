package rbac

import (
	"spice-portal-backend/models"
)

var (
	AdminRoleSet = []models.UserRole{models.AdminRole}
	AllRoles     = []models.UserRole{models.AdminRole, models.UserRoleUser}
)

func (i *impl) initRules() {
	i.approval()
	i.profile()
	i.certificate()
	i.notification()
	i.dict()
}

func (i *impl) must(module models.Module, permission models.Permission, roles []models.UserRole, swaggerPattern string, handler models.RbacFunc) {
	if err := i.RegisterRule(module, permission, roles, swaggerPattern, handler); err != nil {
		panic(err.Error())
	}
}

func (i *impl) approval() {
	// VIEW, non admins only see their own requests
	i.must(models.ApprovalModule, models.ViewPermission, AllRoles, "/api/v1/approval/list [post]", nil)
	i.must(models.ApprovalModule, models.ViewPermission, AllRoles, "/api/v1/approval/get/{id} [get]", nil)
	i.must(models.ApprovalModule, models.ViewPermission, AllRoles, "/api/v1/approval/{id}/history [get]", nil)
	// CREATE
	i.must(models.ApprovalModule, models.CreatePermission, AllRoles, "/api/v1/approval/create [post]", nil)
	// DECIDE
	i.must(models.ApprovalModule, models.DecidePermission, AdminRoleSet, "/api/v1/approval/{id}/review [get]", nil)
	i.must(models.ApprovalModule, models.DecidePermission, AdminRoleSet, "/api/v1/approval/update/{id} [patch]", nil)
	// REPORT
	i.must(models.ReportModule, models.ViewPermission, AdminRoleSet, "/api/v1/approval/report.xlsx [get]", nil)
	i.must(models.ReportModule, models.ViewPermission, AdminRoleSet, "/api/v1/approval/report.pdf [get]", nil)
}

func (i *impl) profile() {
	i.must(models.ProfileModule, models.ViewPermission, AllRoles, "/api/v1/profile/my [get]", nil)
	i.must(models.ProfileModule, models.ViewPermission, AllRoles, "/api/v1/profile/{kind}/{id} [get]", nil)
	i.must(models.ProfileModule, models.ViewPermission, AllRoles, "/api/v1/basic_info/{id} [get]", nil)
	i.must(models.ProfileModule, models.CreatePermission, AllRoles, "/api/v1/profile/{kind} [post]", nil)
	// EDIT, ownership is checked by the profile handler
	i.must(models.ProfileModule, models.EditPermission, AllRoles, "/api/v1/profile/{kind}/{id}/edit [post]", nil)
	i.must(models.ProfileModule, models.EditPermission, AllRoles, "/api/v1/profile/{kind}/{id}/delete [post]", nil)
	i.must(models.ProfileModule, models.EditPermission, AllRoles, "/api/v1/basic_info/{id}/edit [post]", nil)
	i.must(models.ProfileModule, models.EditPermission, AllRoles, "/api/v1/basic_info/{id}/delete [post]", nil)
	// MANAGE
	i.must(models.ProfileModule, models.ManagePermission, AdminRoleSet, "/api/v1/profile/{kind}/{id}/existing [put]", nil)
}

func (i *impl) certificate() {
	i.must(models.CertificateModule, models.CreatePermission, AllRoles, "/api/v1/certificate/request [post]", nil)
	i.must(models.CertificateModule, models.ViewPermission, AllRoles, "/api/v1/certificate/{id}/file [get]", nil)
	i.must(models.CertificateModule, models.ViewPermission, AllRoles, "/api/v1/certificate/profile/{id} [get]", nil)
}

func (i *impl) notification() {
	i.must(models.NotificationModule, models.ViewPermission, AllRoles, "/api/v1/notification/get/unread [get]", nil)
	i.must(models.NotificationModule, models.EditPermission, AllRoles, "/api/v1/notification/read/{id} [patch]", nil)
	i.must(models.NotificationModule, models.EditPermission, AllRoles, "/api/v1/notification/all/read [patch]", nil)
}

func (i *impl) dict() {
	i.must(models.DictModule, models.ViewPermission, AllRoles, "/api/v1/dict/{dict} [get]", nil)
	i.must(models.DictModule, models.ManagePermission, AdminRoleSet, "/api/v1/dict/{dict} [put]", nil)
}
