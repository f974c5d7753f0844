package users

import (
	"time"

	"github.com/meridian-shop/meridian-backoffice/internal/authz"
)

// User represents a back-office operator account. Overrides is the sparse
// permission layer persisted on the user record; the effective matrix is
// derived on demand and never stored.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      string
	Overrides authz.Overrides
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoleKey implements authz.Subject. Safe on a nil receiver so stale handles
// degrade to denial.
func (u *User) RoleKey() string {
	if u == nil {
		return ""
	}
	return u.Role
}

// PermissionOverrides implements authz.Subject.
func (u *User) PermissionOverrides() authz.Overrides {
	if u == nil {
		return nil
	}
	return u.Overrides
}
