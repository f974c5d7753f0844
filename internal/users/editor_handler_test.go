package users

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meridian-shop/meridian-backoffice/internal/authz"
	"github.com/meridian-shop/meridian-backoffice/internal/shared"
)

type editorFixture struct {
	router chi.Router
	repo   *mapUserRepo
	userID string
}

func newEditorFixture(t *testing.T) *editorFixture {
	t.Helper()
	userID := uuid.NewString()
	repo := newMapUserRepo(User{
		ID:       userID,
		Email:    "staff@meridian.test",
		Role:     authz.RoleSellerStaff,
		IsActive: true,
	})
	svc := newTestService(repo, nil)
	handler := NewEditorHandler(slog.Default(), svc, authz.NewResolver(authz.DefaultCatalog()))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess := testSession(req.Header.Get("X-Test-Session"))
			ctx := shared.ContextWithSession(req.Context(), sess)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route("/permission-editor", handler.MountRoutes)
	return &editorFixture{router: r, repo: repo, userID: userID}
}

func testSession(id string) *shared.Session {
	if id == "" {
		id = "sess-1"
	}
	return &shared.Session{ID: id}
}

func (f *editorFixture) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func (f *editorFixture) state(t *testing.T, rr *httptest.ResponseRecorder) editorStateView {
	t.Helper()
	var view editorStateView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	return view
}

func (f *editorFixture) selectUser(t *testing.T) {
	t.Helper()
	rr := f.post(t, "/permission-editor/select", map[string]string{"user_id": f.userID})
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestEditorSelectAndState(t *testing.T) {
	f := newEditorFixture(t)
	f.selectUser(t)

	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/permission-editor/state", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	view := f.state(t, rr)
	require.True(t, view.Selected)
	require.Equal(t, f.userID, view.UserID)
	require.Equal(t, authz.RoleSellerStaff, view.Role)
	require.Len(t, view.Permissions, len(authz.DefaultCatalog().Modules()))
}

func TestEditorEditWithoutSelectionConflicts(t *testing.T) {
	f := newEditorFixture(t)

	rr := f.post(t, "/permission-editor/cells", map[string]string{"module": authz.ModuleProduct, "action": "delete"})
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestEditorToggleCell(t *testing.T) {
	f := newEditorFixture(t)
	f.selectUser(t)

	rr := f.post(t, "/permission-editor/cells", map[string]string{"module": authz.ModuleProduct, "action": "delete"})
	require.Equal(t, http.StatusOK, rr.Code)

	view := f.state(t, rr)
	v, ok := view.Overrides.Get(authz.ModuleProduct, authz.ActionDelete)
	require.True(t, ok)
	require.True(t, v)
}

func TestEditorToggleCellRejectsUnknownAction(t *testing.T) {
	f := newEditorFixture(t)
	f.selectUser(t)

	rr := f.post(t, "/permission-editor/cells", map[string]string{"module": authz.ModuleProduct, "action": "approve"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEditorChangeRoleResetsOverrides(t *testing.T) {
	f := newEditorFixture(t)
	f.selectUser(t)

	rr := f.post(t, "/permission-editor/cells", map[string]string{"module": authz.ModuleProduct, "action": "delete"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.post(t, "/permission-editor/role", map[string]string{"role": authz.RoleSellerInventory})
	require.Equal(t, http.StatusOK, rr.Code)

	view := f.state(t, rr)
	require.Equal(t, authz.RoleSellerInventory, view.Role)
	require.True(t, view.Overrides.IsEmpty())
}

func TestEditorChangeRoleRejectsUnknownRole(t *testing.T) {
	f := newEditorFixture(t)
	f.selectUser(t)

	rr := f.post(t, "/permission-editor/role", map[string]string{"role": "moderator"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEditorApplyDefaultsNeedsConfirmWhenDivergent(t *testing.T) {
	f := newEditorFixture(t)
	f.selectUser(t)

	rr := f.post(t, "/permission-editor/cells", map[string]string{"module": authz.ModuleProduct, "action": "delete"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.post(t, "/permission-editor/apply-defaults", map[string]bool{"confirm": false})
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = f.post(t, "/permission-editor/apply-defaults", map[string]bool{"confirm": true})
	require.Equal(t, http.StatusOK, rr.Code)

	// Second apply needs no confirmation: nothing diverges anymore.
	rr = f.post(t, "/permission-editor/apply-defaults", map[string]bool{"confirm": false})
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestEditorSavePersistsThroughService(t *testing.T) {
	f := newEditorFixture(t)
	f.selectUser(t)

	rr := f.post(t, "/permission-editor/cells", map[string]string{"module": authz.ModuleProduct, "action": "delete"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.post(t, "/permission-editor/save", map[string]any{})
	require.Equal(t, http.StatusOK, rr.Code)

	v, ok := f.repo.saved[f.userID].Get(authz.ModuleProduct, authz.ActionDelete)
	require.True(t, ok)
	require.True(t, v)
}

func TestEditorCancelNeedsConfirm(t *testing.T) {
	f := newEditorFixture(t)
	f.selectUser(t)

	rr := f.post(t, "/permission-editor/cancel", map[string]bool{"confirm": false})
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = f.post(t, "/permission-editor/cancel", map[string]bool{"confirm": true})
	require.Equal(t, http.StatusOK, rr.Code)

	view := f.state(t, rr)
	require.False(t, view.Selected)
}

func TestEditorIsolatedPerSession(t *testing.T) {
	f := newEditorFixture(t)
	f.selectUser(t)

	// A different session sees its own, unselected editor.
	req := httptest.NewRequest(http.MethodGet, "/permission-editor/state", nil)
	req.Header.Set("X-Test-Session", "sess-2")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.False(t, f.state(t, rr).Selected)
}

func TestEditorRequiresSession(t *testing.T) {
	f := newEditorFixture(t)

	// Bypass the fixture middleware with a bare context.
	handler := NewEditorHandler(slog.Default(), newTestService(f.repo, nil), authz.NewResolver(authz.DefaultCatalog()))
	r := chi.NewRouter()
	r.Route("/permission-editor", handler.MountRoutes)

	req := httptest.NewRequest(http.MethodGet, "/permission-editor/state", nil).WithContext(context.Background())
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
