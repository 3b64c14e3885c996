package models

import "fmt"

// Role is the closed set of user roles known to the system.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleAdmin, RoleEditor, RoleViewer:
		return Role(value), nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

// CanManageContent reports whether the role may use the admin dashboard
// and its content APIs. Only admins may; editors and viewers are
// read-side roles on the public site.
func (r Role) CanManageContent() bool {
	return r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}
