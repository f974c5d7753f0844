package users

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-shop/meridian-backoffice/internal/authz"
	"github.com/meridian-shop/meridian-backoffice/internal/platform/httpx"
	"github.com/meridian-shop/meridian-backoffice/internal/shared"
)

// Handler manages user administration endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	authz   authz.Middleware
	editor  *EditorHandler
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware, editor *EditorHandler) *Handler {
	return &Handler{logger: logger, service: service, authz: mw, editor: editor}
}

// MountRoutes registers user routes. Listing and the permission editor are
// manager-only; the catalog and the caller's own matrix are open to any
// authenticated operator so the UI can render its navigation.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireModule(authz.ModuleDashboard, authz.ActionRead))
		r.Get("/me/permissions", h.myPermissions)
		r.Get("/catalog", h.catalog)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireManager())
		r.Get("/", h.listUsers)
		r.Get("/{id}/permissions", h.userPermissions)
		r.Route("/permission-editor", h.editor.MountRoutes)
	})
}

type userView struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, userView{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, IsActive: u.IsActive})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": views})
}

func (h *Handler) userPermissions(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("get user failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user_id":     user.ID,
		"role":        user.Role,
		"permissions": h.service.EffectivePermissions(user),
	})
}

func (h *Handler) myPermissions(w http.ResponseWriter, r *http.Request) {
	sub := authz.SubjectFromContext(r.Context())
	user, ok := sub.(*User)
	if !ok || user == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user_id":     user.ID,
		"role":        user.Role,
		"permissions": h.service.EffectivePermissions(user),
	})
}

func (h *Handler) catalog(w http.ResponseWriter, r *http.Request) {
	catalog := h.authz.Resolver.Catalog()
	httpx.JSON(w, http.StatusOK, map[string]any{
		"modules": catalog.Modules(),
		"roles":   catalog.Roles(),
		"actions": authz.Actions(),
	})
}
