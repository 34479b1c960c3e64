package models

type UserRole string

const (
	AdminRole    UserRole = "ADMIN"
	UserRoleUser UserRole = "USER"
)

var roleHumanName = map[UserRole]string{
	AdminRole:    "Administrator",
	UserRoleUser: "Portal user",
}

func (r UserRole) ToHuman() string {
	if human, exist := roleHumanName[r]; exist {
		return human
	}
	return string(r)
}

func (r UserRole) IsAdmin() bool {
	return r == AdminRole
}

const SystemUser = "system"
