package authz

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-shop/meridian-backoffice/internal/shared"
)

type stubLoader struct {
	subjects map[string]Subject
	err      error
}

func (l stubLoader) SubjectByID(ctx context.Context, id string) (Subject, error) {
	if l.err != nil {
		return nil, l.err
	}
	sub, ok := l.subjects[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return sub, nil
}

func newMiddleware(loader SubjectLoader) Middleware {
	return Middleware{
		Resolver: NewResolver(DefaultCatalog()),
		Loader:   loader,
		Logger:   slog.Default(),
	}
}

func requestWithUser(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	sess := &shared.Session{ID: "sess-1"}
	if userID != "" {
		sess.SetUser(userID)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func runGate(gate func(http.Handler) http.Handler, req *http.Request) (*httptest.ResponseRecorder, Subject) {
	var seen Subject
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	rr := httptest.NewRecorder()
	gate(next).ServeHTTP(rr, req)
	return rr, seen
}

func TestRequireModuleAllowsAuthorizedSubject(t *testing.T) {
	mw := newMiddleware(stubLoader{subjects: map[string]Subject{
		"u-1": stubSubject{role: RoleSellerStaff},
	}})

	rr, seen := runGate(mw.RequireModule(ModuleOrder, ActionRead), requestWithUser("u-1"))
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.NotNil(t, seen)
	require.Equal(t, RoleSellerStaff, seen.RoleKey())
}

func TestRequireModuleDeniesMissingCapability(t *testing.T) {
	mw := newMiddleware(stubLoader{subjects: map[string]Subject{
		"u-1": stubSubject{role: RoleSellerInventory},
	}})

	rr, _ := runGate(mw.RequireModule(ModuleOrder, ActionRead), requestWithUser("u-1"))
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireModuleDeniesWithoutSession(t *testing.T) {
	mw := newMiddleware(stubLoader{})

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	rr, _ := runGate(mw.RequireModule(ModuleOrder, ActionRead), req)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireModuleDeniesAnonymousSession(t *testing.T) {
	mw := newMiddleware(stubLoader{})

	rr, _ := runGate(mw.RequireModule(ModuleOrder, ActionRead), requestWithUser(""))
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireModuleDeniesOnLoaderFailure(t *testing.T) {
	mw := newMiddleware(stubLoader{err: context.DeadlineExceeded})

	rr, _ := runGate(mw.RequireModule(ModuleOrder, ActionRead), requestWithUser("u-1"))
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireManagerIgnoresModuleMatrix(t *testing.T) {
	staff := stubSubject{role: RoleSellerOwner, overrides: Overrides{}}
	staff.overrides.SetRow(ModuleUser, true)
	mw := newMiddleware(stubLoader{subjects: map[string]Subject{
		"owner": staff,
		"admin": stubSubject{role: RoleAdmin},
	}})

	rr, _ := runGate(mw.RequireManager(), requestWithUser("owner"))
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr, _ = runGate(mw.RequireManager(), requestWithUser("admin"))
	require.Equal(t, http.StatusNoContent, rr.Code)
}
