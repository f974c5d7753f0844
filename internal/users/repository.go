package users

import (
	"context"

	"github.com/meridian-shop/meridian-backoffice/internal/authz"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	UpdatePermissions(ctx context.Context, id string, role string, overrides authz.Overrides) error
}
