package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/user"
)

const (
	RoleSuperuser = "superuser"
	RoleStandard  = "standard"
	RoleViewer    = "viewer"

	PermAdmin             = "admin"
	PermManageSystemRules = "manage_system_rules"
	PermWrite             = "write"

	CalendarBoth      = "both"
	CalendarGregorian = "gregorian"
	CalendarBadi      = "badi"
)

// rolePermissions is the fixed role to permission mapping. Viewers may only read.
var rolePermissions = map[string][]string{
	RoleSuperuser: {PermAdmin, PermManageSystemRules, PermWrite},
	RoleStandard:  {PermWrite},
	RoleViewer:    {},
}

// PermissionsForRole returns a copy of the role's permissions; unknown roles get none.
func PermissionsForRole(role string) []string {
	perms := rolePermissions[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

func IsRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

type User struct {
	ID                 int64
	Email              string
	Name               string
	PasswordHash       string
	Role               string
	CalendarPreference string
	IsActive           bool
	LastLoginAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (u *User) Permissions() []string {
	return PermissionsForRole(u.Role)
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		Role:               u.Role,
		Permissions:        u.Permissions(),
		CalendarPreference: u.CalendarPreference,
		IsActive:           u.IsActive,
		LastLoginAt:        u.LastLoginAt,
		CreatedAt:          u.CreatedAt,
	}
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		PasswordHash:       u.PasswordHash,
		Role:               u.Role,
		CalendarPreference: u.CalendarPreference,
		IsActive:           u.IsActive,
		LastLoginAt:        u.LastLoginAt,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		PasswordHash:       u.PasswordHash,
		Role:               u.Role,
		CalendarPreference: u.CalendarPreference,
		IsActive:           u.IsActive,
		LastLoginAt:        u.LastLoginAt,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}
