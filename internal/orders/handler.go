package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-shop/meridian-backoffice/internal/authz"
	"github.com/meridian-shop/meridian-backoffice/internal/orderstatus"
	"github.com/meridian-shop/meridian-backoffice/internal/platform/httpx"
	"github.com/meridian-shop/meridian-backoffice/internal/shared"
)

// Handler exposes order back-office endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	authz    authz.Middleware
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: mw, validate: validator.New()}
}

// MountRoutes registers order routes. Reads need order.read, the cancel
// action order.update, the export report.read.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireModule(authz.ModuleOrder, authz.ActionRead))
		r.Get("/", h.list)
		r.Get("/statuses", h.statuses)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireModule(authz.ModuleOrder, authz.ActionUpdate))
		r.Post("/{id}/cancel", h.cancel)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireModule(authz.ModuleReport, authz.ActionRead))
		r.Get("/export", h.exportCSV)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req, ok := h.listRequest(w, r)
	if !ok {
		return
	}
	views, pagination, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list orders failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"orders": views, "pagination": pagination})
}

// statuses returns the canonical filter vocabulary with display metadata, so
// the UI never hard-codes status strings.
func (h *Handler) statuses(w http.ResponseWriter, r *http.Request) {
	type statusView struct {
		Key   string `json:"key"`
		Label string `json:"label"`
		Color string `json:"color"`
	}
	keys := orderstatus.FilterKeys()
	views := make([]statusView, 0, len(keys))
	for _, k := range keys {
		views = append(views, statusView{Key: string(k), Label: orderstatus.Label(k), Color: orderstatus.Color(k)})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"statuses": views})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("get order failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	view, err := h.service.Cancel(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			httpx.RespondError(w, httpx.ErrNotFound)
		case errors.Is(err, ErrNotCancellable):
			httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
		default:
			h.logger.Error("cancel order failed", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	req, ok := h.listRequest(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="orders-`+time.Now().Format("20060102")+`.csv"`)
	if err := h.service.ExportCSV(r.Context(), w, req); err != nil {
		// Headers are already on the wire; log and abort the stream.
		h.logger.Error("export orders failed", slog.Any("error", err))
	}
}

func (h *Handler) listRequest(w http.ResponseWriter, r *http.Request) (ListOrdersRequest, bool) {
	q := r.URL.Query()
	req := ListOrdersRequest{
		Status: q.Get("status"),
		Search: q.Get("search"),
	}
	req.Page, _ = strconv.Atoi(q.Get("page"))
	req.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	if from := parseDate(q.Get("date_from")); from != nil {
		req.DateFrom = from
	}
	if to := parseDate(q.Get("date_to")); to != nil {
		req.DateTo = to
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return ListOrdersRequest{}, false
	}
	return req, true
}

func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &t
}
