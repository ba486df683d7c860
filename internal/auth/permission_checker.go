package auth

import (
	"context"

	"github.com/frahmantamala/finance-tracker/internal/user"
)

type PermissionChecker interface {
	HasAnyPermission(userPermissions []string, requiredPermissions []string) bool
	CanWrite(userPermissions []string) bool
	CanManageSystemRules(userPermissions []string) bool
	IsAdmin(userPermissions []string) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() *DefaultPermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) HasPermission(ctx context.Context, userPermissions []string, permission string) (bool, error) {
	return c.HasAnyPermission(userPermissions, []string{permission, user.PermAdmin}), nil
}

func (c *DefaultPermissionChecker) HasAnyPermission(userPermissions []string, requiredPermissions []string) bool {
	for _, userPerm := range userPermissions {
		for _, requiredPerm := range requiredPermissions {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}

func (c *DefaultPermissionChecker) CanWrite(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{user.PermWrite, user.PermAdmin})
}

func (c *DefaultPermissionChecker) CanManageSystemRules(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{user.PermManageSystemRules, user.PermAdmin})
}

func (c *DefaultPermissionChecker) IsAdmin(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{user.PermAdmin})
}
