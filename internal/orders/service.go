package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridian-shop/meridian-backoffice/internal/orderstatus"
	"github.com/meridian-shop/meridian-backoffice/internal/shared"
)

// ErrNotCancellable indicates the order's status forbids cancellation.
var ErrNotCancellable = errors.New("orders: status does not allow cancellation")

// AuditRecorder persists audit entries for order mutations.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles order back-office logic.
type Service struct {
	repo   Repository
	audit  AuditRecorder
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo Repository, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// List returns a page of decorated orders plus pagination metadata.
func (s *Service) List(ctx context.Context, req ListOrdersRequest) ([]OrderView, shared.Pagination, error) {
	orders, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list orders: %w", err)
	}
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, decorate(o))
	}
	return views, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// Get returns one decorated order.
func (s *Service) Get(ctx context.Context, id string) (*OrderView, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	view := decorate(*order)
	return &view, nil
}

// Cancel cancels an order on behalf of an operator. The status normalizer's
// CanCancel predicate is the single gate; there is no per-page re-derivation.
func (s *Service) Cancel(ctx context.Context, id string, reason string) (*OrderView, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !orderstatus.CanCancel(order.Status) {
		return nil, fmt.Errorf("%w: %s", ErrNotCancellable, orderstatus.Normalize(order.Status))
	}
	if err := s.repo.MarkCancelled(ctx, id, string(orderstatus.CancelledByAdmin), reason); err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorFromContext(ctx),
			Action:   "order.cancel",
			Entity:   "order",
			EntityID: id,
			Meta:     map[string]any{"reason": reason, "previous_status": order.Status},
			At:       time.Now().UTC(),
		}); err != nil && s.logger != nil {
			s.logger.Warn("audit order cancel", slog.Any("error", err))
		}
	}
	return s.Get(ctx, id)
}

func decorate(o Order) OrderView {
	canonical := orderstatus.Normalize(o.Status)
	return OrderView{
		Order:           o,
		CanonicalStatus: string(canonical),
		StatusLabel:     orderstatus.Label(canonical),
		StatusColor:     orderstatus.Color(canonical),
		CanCancel:       orderstatus.CanCancel(o.Status),
	}
}

func actorFromContext(ctx context.Context) string {
	if sess := shared.SessionFromContext(ctx); sess != nil {
		return sess.User()
	}
	return ""
}
