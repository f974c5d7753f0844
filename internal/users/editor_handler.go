package users

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-shop/meridian-backoffice/internal/authz"
	"github.com/meridian-shop/meridian-backoffice/internal/platform/httpx"
	"github.com/meridian-shop/meridian-backoffice/internal/shared"
)

// EditorHandler exposes the role-permission editor workflow over HTTP. Each
// operator session owns exactly one editor; its working matrix lives in
// memory for the lifetime of the session and is only persisted by save.
type EditorHandler struct {
	logger   *slog.Logger
	service  *Service
	resolver *authz.Resolver
	validate *validator.Validate

	mu      sync.Mutex
	editors map[string]*sessionEditor
}

// requestConfirmer maps the editor's confirmation gate onto an explicit
// confirm flag supplied with the request.
type requestConfirmer struct {
	allowed bool
}

func (c *requestConfirmer) Confirm(string) bool { return c.allowed }

type sessionEditor struct {
	editor  *authz.Editor
	confirm *requestConfirmer
}

// NewEditorHandler builds the editor endpoint group.
func NewEditorHandler(logger *slog.Logger, service *Service, resolver *authz.Resolver) *EditorHandler {
	return &EditorHandler{
		logger:   logger,
		service:  service,
		resolver: resolver,
		validate: validator.New(),
		editors:  make(map[string]*sessionEditor),
	}
}

// MountRoutes registers editor routes; callers are expected to have applied
// the manager gate already.
func (h *EditorHandler) MountRoutes(r chi.Router) {
	r.Get("/state", h.state)
	r.Post("/select", h.selectUser)
	r.Post("/cells", h.toggleCell)
	r.Post("/rows", h.setRow)
	r.Post("/all", h.setAll)
	r.Post("/role", h.changeRole)
	r.Post("/apply-defaults", h.applyDefaults)
	r.Post("/save", h.save)
	r.Post("/cancel", h.cancel)
}

func (h *EditorHandler) selectUser(w http.ResponseWriter, r *http.Request) {
	var req selectUserRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.service.GetUser(r.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("editor select user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	ed, _, ok := h.sessionEditor(w, r)
	if !ok {
		return
	}
	ed.SelectUser(user.ID, user.Role, user.Overrides)
	h.respondState(w, ed)
}

func (h *EditorHandler) state(w http.ResponseWriter, r *http.Request) {
	ed, _, ok := h.sessionEditor(w, r)
	if !ok {
		return
	}
	h.respondState(w, ed)
}

func (h *EditorHandler) toggleCell(w http.ResponseWriter, r *http.Request) {
	var req toggleCellRequest
	if !h.decode(w, r, &req) {
		return
	}
	ed, _, ok := h.sessionEditor(w, r)
	if !ok {
		return
	}
	if err := ed.ToggleCell(req.Module, authz.Action(req.Action)); err != nil {
		h.respondEditorError(w, err)
		return
	}
	h.respondState(w, ed)
}

func (h *EditorHandler) setRow(w http.ResponseWriter, r *http.Request) {
	var req setRowRequest
	if !h.decode(w, r, &req) {
		return
	}
	ed, _, ok := h.sessionEditor(w, r)
	if !ok {
		return
	}
	if err := ed.SetModuleRow(req.Module, req.Value); err != nil {
		h.respondEditorError(w, err)
		return
	}
	h.respondState(w, ed)
}

func (h *EditorHandler) setAll(w http.ResponseWriter, r *http.Request) {
	var req setAllRequest
	if !h.decode(w, r, &req) {
		return
	}
	ed, _, ok := h.sessionEditor(w, r)
	if !ok {
		return
	}
	if err := ed.SetAllModules(req.Value); err != nil {
		h.respondEditorError(w, err)
		return
	}
	h.respondState(w, ed)
}

func (h *EditorHandler) changeRole(w http.ResponseWriter, r *http.Request) {
	var req changeRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.resolver.Catalog().HasRole(req.Role) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown role")
		return
	}
	ed, _, ok := h.sessionEditor(w, r)
	if !ok {
		return
	}
	if err := ed.ChangeRole(req.Role); err != nil {
		h.respondEditorError(w, err)
		return
	}
	h.respondState(w, ed)
}

func (h *EditorHandler) applyDefaults(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if !h.decode(w, r, &req) {
		return
	}
	ed, confirm, ok := h.sessionEditor(w, r)
	if !ok {
		return
	}
	confirm.allowed = req.Confirm
	applied, err := ed.ApplyRoleDefaults()
	if err != nil {
		h.respondEditorError(w, err)
		return
	}
	if !applied {
		httpx.Problem(w, http.StatusConflict, "Confirmation Required",
			"applying role defaults would discard hand-made overrides")
		return
	}
	h.respondState(w, ed)
}

func (h *EditorHandler) save(w http.ResponseWriter, r *http.Request) {
	ed, _, ok := h.sessionEditor(w, r)
	if !ok {
		return
	}
	if err := ed.Save(r.Context()); err != nil {
		switch {
		case errors.Is(err, authz.ErrNoSelection), errors.Is(err, authz.ErrSaveInFlight):
			h.respondEditorError(w, err)
		case errors.Is(err, ErrUnknownRole):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		default:
			// Edit state is retained; the operator can retry.
			h.logger.Error("editor save", slog.Any("error", err))
			httpx.Problem(w, http.StatusBadGateway, "Persistence Failed", err.Error())
		}
		return
	}
	h.respondState(w, ed)
}

func (h *EditorHandler) cancel(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if !h.decode(w, r, &req) {
		return
	}
	ed, confirm, ok := h.sessionEditor(w, r)
	if !ok {
		return
	}
	confirm.allowed = req.Confirm
	cancelled, err := ed.Cancel()
	if err != nil {
		h.respondEditorError(w, err)
		return
	}
	if !cancelled {
		httpx.Problem(w, http.StatusConflict, "Confirmation Required",
			"cancelling discards unsaved permission changes")
		return
	}
	h.respondState(w, ed)
}

// sessionEditor returns the editor bound to the current session, creating it
// on first use.
func (h *EditorHandler) sessionEditor(w http.ResponseWriter, r *http.Request) (*authz.Editor, *requestConfirmer, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.ID == "" {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return nil, nil, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	entry, ok := h.editors[sess.ID]
	if !ok {
		confirm := &requestConfirmer{}
		entry = &sessionEditor{
			editor:  authz.NewEditor(h.resolver, h.service, confirm),
			confirm: confirm,
		}
		h.editors[sess.ID] = entry
	}
	entry.confirm.allowed = false
	return entry.editor, entry.confirm, true
}

type editorStateView struct {
	Selected    bool             `json:"selected"`
	UserID      string           `json:"user_id,omitempty"`
	Role        string           `json:"role,omitempty"`
	Overrides   authz.Overrides  `json:"overrides,omitempty"`
	Permissions []PermissionView `json:"permissions,omitempty"`
}

func (h *EditorHandler) respondState(w http.ResponseWriter, ed *authz.Editor) {
	view := editorStateView{Selected: ed.Selected()}
	if view.Selected {
		view.UserID = ed.UserID()
		view.Role = ed.Role()
		view.Overrides = ed.Working()
		user := &User{ID: view.UserID, Role: view.Role, Overrides: view.Overrides}
		view.Permissions = h.service.EffectivePermissions(user)
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *EditorHandler) respondEditorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authz.ErrNoSelection):
		httpx.Problem(w, http.StatusConflict, "No Selection", "select a user before editing permissions")
	case errors.Is(err, authz.ErrSaveInFlight):
		httpx.Problem(w, http.StatusConflict, "Save In Flight", "a previous save has not finished")
	default:
		httpx.RespondError(w, err)
	}
}

func (h *EditorHandler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", err.Error())
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}
