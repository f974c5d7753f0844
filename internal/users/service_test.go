package users

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-shop/meridian-backoffice/internal/authz"
	"github.com/meridian-shop/meridian-backoffice/internal/shared"
)

type mapUserRepo struct {
	users map[string]User
	saved map[string]authz.Overrides
}

func newMapUserRepo(users ...User) *mapUserRepo {
	r := &mapUserRepo{users: make(map[string]User), saved: make(map[string]authz.Overrides)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *mapUserRepo) ListUsers(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *mapUserRepo) GetUser(ctx context.Context, id string) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

func (r *mapUserRepo) UpdatePermissions(ctx context.Context, userID string, role string, overrides authz.Overrides) error {
	u, ok := r.users[userID]
	if !ok {
		return shared.ErrNotFound
	}
	u.Role = role
	u.Overrides = overrides.Clone()
	r.users[userID] = u
	r.saved[userID] = overrides.Clone()
	return nil
}

type mapAudit struct {
	entries []shared.AuditLog
}

func (a *mapAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.entries = append(a.entries, log)
	return nil
}

func newTestService(repo RepositoryPort, audit AuditRecorder) *Service {
	return NewService(repo, authz.NewResolver(authz.DefaultCatalog()), audit, slog.Default())
}

func TestSubjectByIDRejectsInactiveUsers(t *testing.T) {
	repo := newMapUserRepo(
		User{ID: "u-1", Role: authz.RoleAdmin, IsActive: true},
		User{ID: "u-2", Role: authz.RoleAdmin, IsActive: false},
	)
	svc := newTestService(repo, nil)

	sub, err := svc.SubjectByID(context.Background(), "u-1")
	require.NoError(t, err)
	require.Equal(t, authz.RoleAdmin, sub.RoleKey())

	_, err = svc.SubjectByID(context.Background(), "u-2")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdatePermissionsValidatesRole(t *testing.T) {
	repo := newMapUserRepo(User{ID: "u-1", Role: authz.RoleSellerStaff, IsActive: true})
	svc := newTestService(repo, nil)

	err := svc.UpdatePermissions(context.Background(), "u-1", "moderator", nil)
	require.ErrorIs(t, err, ErrUnknownRole)
	require.Empty(t, repo.saved)
}

func TestUpdatePermissionsPersistsAndAudits(t *testing.T) {
	repo := newMapUserRepo(User{ID: "u-1", Role: authz.RoleSellerStaff, IsActive: true})
	audit := &mapAudit{}
	svc := newTestService(repo, audit)

	overrides := authz.Overrides{authz.ModuleProduct: {authz.ActionDelete: true}}
	require.NoError(t, svc.UpdatePermissions(context.Background(), "u-1", authz.RoleSellerAdmin, overrides))

	require.Equal(t, authz.RoleSellerAdmin, repo.users["u-1"].Role)
	v, ok := repo.saved["u-1"].Get(authz.ModuleProduct, authz.ActionDelete)
	require.True(t, ok)
	require.True(t, v)

	require.Len(t, audit.entries, 1)
	require.Equal(t, "permissions.update", audit.entries[0].Action)
	require.Equal(t, "u-1", audit.entries[0].EntityID)
}

func TestEffectivePermissionsFlagsDivergentCellsOnly(t *testing.T) {
	svc := newTestService(newMapUserRepo(), nil)
	user := &User{
		ID:   "u-1",
		Role: authz.RoleSellerStaff,
		Overrides: authz.Overrides{
			// Diverges: staff default denies product delete.
			// Read matches the default, so it is explicit but not flagged.
			authz.ModuleProduct: {authz.ActionDelete: true, authz.ActionRead: true},
		},
		IsActive: true,
	}

	views := svc.EffectivePermissions(user)
	require.Len(t, views, len(authz.DefaultCatalog().Modules()))

	var product PermissionView
	for _, v := range views {
		if v.Module == authz.ModuleProduct {
			product = v
		}
	}
	require.True(t, product.Cell.Delete)
	require.True(t, product.Cell.Read)
	require.True(t, product.Overridden[authz.ActionDelete])
	require.False(t, product.Overridden[authz.ActionRead])
	require.False(t, product.Overridden[authz.ActionCreate])
}

func TestEffectivePermissionsUnknownRoleDeniesEverything(t *testing.T) {
	svc := newTestService(newMapUserRepo(), nil)
	user := &User{ID: "u-1", Role: "ghost", IsActive: true}

	for _, v := range svc.EffectivePermissions(user) {
		require.Equal(t, authz.Cell{}, v.Cell, "module %s", v.Module)
	}
}
