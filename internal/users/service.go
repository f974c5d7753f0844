package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridian-shop/meridian-backoffice/internal/authz"
	"github.com/meridian-shop/meridian-backoffice/internal/shared"
)

// ErrUnknownRole is returned when a write names a role outside the catalog.
// Reads never produce it: an unknown role simply resolves to zero access.
var ErrUnknownRole = errors.New("users: unknown role")

// AuditRecorder persists audit entries for permission changes.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles user administration business logic. It is also the
// authz.SubjectLoader and authz.UserStore for the rest of the application,
// which keeps reads and writes of the override layer on one code path.
type Service struct {
	repo     RepositoryPort
	resolver *authz.Resolver
	audit    AuditRecorder
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, resolver *authz.Resolver, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, resolver: resolver, audit: audit, logger: logger}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser fetches one user.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

// SubjectByID implements authz.SubjectLoader for the permission middleware.
func (s *Service) SubjectByID(ctx context.Context, id string) (authz.Subject, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

// UpdatePermissions implements authz.UserStore: it persists the role and the
// sparse override layer and records an audit entry. The role must belong to
// the catalog; overrides are stored as given, resolution stays fail-closed
// for anything malformed.
func (s *Service) UpdatePermissions(ctx context.Context, userID string, role string, overrides authz.Overrides) error {
	if !s.resolver.Catalog().HasRole(role) {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	if err := s.repo.UpdatePermissions(ctx, userID, role, overrides); err != nil {
		return err
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorFromContext(ctx),
			Action:   "permissions.update",
			Entity:   "user",
			EntityID: userID,
			Meta:     map[string]any{"role": role, "override_modules": len(overrides)},
			At:       time.Now().UTC(),
		}); err != nil && s.logger != nil {
			s.logger.Warn("audit permissions update", slog.Any("error", err))
		}
	}
	return nil
}

// PermissionView is one row of the permission table shown to operators.
type PermissionView struct {
	Module     string                `json:"module"`
	Name       string                `json:"name"`
	Cell       authz.Cell            `json:"cell"`
	Overridden map[authz.Action]bool `json:"overridden"`
}

// EffectivePermissions resolves a user's matrix and flags which cells are
// explicitly overridden away from the role default. The flags are a display
// hint; resolution never consults them.
func (s *Service) EffectivePermissions(user *User) []PermissionView {
	effective := s.resolver.Resolve(user.RoleKey(), user.PermissionOverrides())
	defaults := s.resolver.RoleDefaults(user.RoleKey())
	views := make([]PermissionView, 0, len(s.resolver.Catalog().Modules()))
	for _, m := range s.resolver.Catalog().Modules() {
		overridden := make(map[authz.Action]bool, 4)
		for _, a := range authz.Actions() {
			v, ok := user.PermissionOverrides().Get(m.Key, a)
			overridden[a] = ok && v != defaults.Get(m.Key).Get(a)
		}
		views = append(views, PermissionView{
			Module:     m.Key,
			Name:       m.Name,
			Cell:       effective.Get(m.Key),
			Overridden: overridden,
		})
	}
	return views
}

func actorFromContext(ctx context.Context) string {
	if sess := shared.SessionFromContext(ctx); sess != nil {
		return sess.User()
	}
	return ""
}
