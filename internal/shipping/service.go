package shipping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridian-shop/meridian-backoffice/internal/orderstatus"
	"github.com/meridian-shop/meridian-backoffice/internal/shared"
)

var (
	// ErrTrackingLocked indicates the shipment's status forbids tracking edits.
	ErrTrackingLocked = errors.New("shipping: status does not allow tracking update")
	// ErrStatusLocked indicates the shipment sits in a terminal status.
	ErrStatusLocked = errors.New("shipping: status does not allow status update")
	// ErrUnknownStatus indicates the requested target status is not canonical.
	ErrUnknownStatus = errors.New("shipping: unknown target status")
)

// AuditRecorder persists audit entries for shipment mutations.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles shipment back-office logic.
type Service struct {
	repo   Repository
	audit  AuditRecorder
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo Repository, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// List returns a page of decorated shipments plus pagination metadata.
func (s *Service) List(ctx context.Context, req ListShipmentsRequest) ([]ShipmentView, shared.Pagination, error) {
	shipments, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list shipments: %w", err)
	}
	views := make([]ShipmentView, 0, len(shipments))
	for _, sh := range shipments {
		views = append(views, decorate(sh))
	}
	return views, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// Get returns one decorated shipment.
func (s *Service) Get(ctx context.Context, id string) (*ShipmentView, error) {
	shipment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	view := decorate(*shipment)
	return &view, nil
}

// UpdateTracking replaces the carrier and tracking number. Only shipments in
// a tracking-editable status accept the change.
func (s *Service) UpdateTracking(ctx context.Context, id string, req UpdateTrackingRequest) (*ShipmentView, error) {
	shipment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !orderstatus.CanUpdateTracking(shipment.Status) {
		return nil, fmt.Errorf("%w: %s", ErrTrackingLocked, orderstatus.Normalize(shipment.Status))
	}
	if err := s.repo.UpdateTracking(ctx, id, req.Carrier, req.TrackingNumber); err != nil {
		return nil, fmt.Errorf("update tracking: %w", err)
	}
	s.record(ctx, "shipment.tracking", id, map[string]any{
		"carrier":         req.Carrier,
		"tracking_number": req.TrackingNumber,
	})
	return s.Get(ctx, id)
}

// UpdateStatus moves the shipment to another canonical status. Terminal
// statuses are frozen and the target must normalize to a canonical value.
func (s *Service) UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*ShipmentView, error) {
	target := orderstatus.Normalize(req.Status)
	if target == orderstatus.Unknown {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, req.Status)
	}
	shipment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !orderstatus.CanUpdateStatus(shipment.Status) {
		return nil, fmt.Errorf("%w: %s", ErrStatusLocked, orderstatus.Normalize(shipment.Status))
	}
	if err := s.repo.UpdateStatus(ctx, id, string(target)); err != nil {
		return nil, fmt.Errorf("update shipment status: %w", err)
	}
	s.record(ctx, "shipment.status", id, map[string]any{
		"previous_status": shipment.Status,
		"status":          string(target),
	})
	return s.Get(ctx, id)
}

func (s *Service) record(ctx context.Context, action string, id string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorFromContext(ctx),
		Action:   action,
		Entity:   "shipment",
		EntityID: id,
		Meta:     meta,
		At:       time.Now().UTC(),
	}); err != nil && s.logger != nil {
		s.logger.Warn("audit shipment mutation", slog.String("action", action), slog.Any("error", err))
	}
}

func decorate(sh Shipment) ShipmentView {
	canonical := orderstatus.Normalize(sh.Status)
	return ShipmentView{
		Shipment:          sh,
		CanonicalStatus:   string(canonical),
		StatusLabel:       orderstatus.Label(canonical),
		StatusColor:       orderstatus.Color(canonical),
		CanUpdateTracking: orderstatus.CanUpdateTracking(sh.Status),
		CanUpdateStatus:   orderstatus.CanUpdateStatus(sh.Status),
	}
}

func actorFromContext(ctx context.Context) string {
	if sess := shared.SessionFromContext(ctx); sess != nil {
		return sess.User()
	}
	return ""
}
