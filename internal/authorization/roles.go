package authorization

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleModerator UserRole = "moderator"
	RoleUser      UserRole = "user"
)

var validRoles = map[UserRole]struct{}{
	RoleAdmin:     {},
	RoleModerator: {},
	RoleUser:      {},
}

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	_, ok := validRoles[r]
	return ok
}

func (r UserRole) Value() (driver.Value, error) {
	if r == "" {
		return string(RoleUser), nil
	}
	if !r.IsValid() {
		return nil, fmt.Errorf("invalid user role: %q", r)
	}
	return string(r), nil
}

func (r *UserRole) Scan(value interface{}) error {
	if value == nil {
		*r = RoleUser
		return nil
	}

	switch v := value.(type) {
	case string:
		role := UserRole(strings.ToLower(strings.TrimSpace(v)))
		if !role.IsValid() {
			return fmt.Errorf("invalid user role: %q", v)
		}
		*r = role
		return nil
	case []byte:
		role := UserRole(strings.ToLower(strings.TrimSpace(string(v))))
		if !role.IsValid() {
			return fmt.Errorf("invalid user role: %q", v)
		}
		*r = role
		return nil
	default:
		return fmt.Errorf("unsupported type for UserRole: %T", value)
	}
}

type Permission string

const (
	PermissionManageUsers        Permission = "manage_users"
	PermissionManageAllListings  Permission = "manage_all_listings"
	PermissionManageOwnListings  Permission = "manage_own_listings"
	PermissionModerateListings   Permission = "moderate_listings"
	PermissionReviewApplications Permission = "review_applications"
	PermissionManageSearchIndex  Permission = "manage_search_index"
	PermissionViewStatistics     Permission = "view_statistics"
)

var rolePermissions = map[UserRole]map[Permission]struct{}{
	RoleAdmin: {
		PermissionManageUsers:        {},
		PermissionManageAllListings:  {},
		PermissionManageOwnListings:  {},
		PermissionModerateListings:   {},
		PermissionReviewApplications: {},
		PermissionManageSearchIndex:  {},
		PermissionViewStatistics:     {},
	},
	RoleModerator: {
		PermissionManageOwnListings: {},
		PermissionModerateListings:  {},
		PermissionViewStatistics:    {},
	},
	RoleUser: {
		PermissionManageOwnListings: {},
	},
}

func RoleHasPermission(role UserRole, permission Permission) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	_, ok = perms[permission]
	return ok
}

func ParseUserRole(value interface{}) (UserRole, bool) {
	switch v := value.(type) {
	case UserRole:
		if !v.IsValid() {
			return "", false
		}
		return v, true
	case string:
		role := UserRole(strings.ToLower(strings.TrimSpace(v)))
		if !role.IsValid() {
			return "", false
		}
		return role, true
	default:
		return "", false
	}
}
