package orders

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-shop/meridian-backoffice/internal/shared"
)

type mapRepo struct {
	orders    map[string]Order
	cancelled map[string]string
	listErr   error
}

func newMapRepo(orders ...Order) *mapRepo {
	r := &mapRepo{orders: make(map[string]Order), cancelled: make(map[string]string)}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *mapRepo) List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	var out []Order
	for _, o := range r.orders {
		if req.Search != "" && !strings.Contains(strings.ToLower(o.Number), strings.ToLower(req.Search)) {
			continue
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

func (r *mapRepo) Get(ctx context.Context, id string) (*Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &o, nil
}

func (r *mapRepo) MarkCancelled(ctx context.Context, id string, status string, reason string) error {
	o, ok := r.orders[id]
	if !ok {
		return shared.ErrNotFound
	}
	o.Status = status
	o.CancelReason = &reason
	now := time.Now()
	o.CancelledAt = &now
	r.orders[id] = o
	r.cancelled[id] = status
	return nil
}

type mapAudit struct {
	entries []shared.AuditLog
}

func (a *mapAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.entries = append(a.entries, log)
	return nil
}

func testOrder(id, status string) Order {
	return Order{
		ID:           id,
		Number:       "SO-" + id,
		CustomerName: "Dewi",
		Status:       status,
		Currency:     "IDR",
		TotalAmount:  125000,
		ItemCount:    2,
		CreatedAt:    time.Now().Add(-time.Hour),
	}
}

func TestListDecoratesWithCanonicalStatus(t *testing.T) {
	repo := newMapRepo(testOrder("1", "SHIPPED"))
	svc := NewService(repo, nil, slog.Default())

	views, pagination, err := svc.List(context.Background(), ListOrdersRequest{Page: 1, PerPage: 20})
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, 1, pagination.Total)

	v := views[0]
	require.Equal(t, "SHIPPED", v.Status)
	require.Equal(t, "SHIPPING", v.CanonicalStatus)
	require.Equal(t, "Shipping", v.StatusLabel)
	require.Equal(t, "teal", v.StatusColor)
	require.False(t, v.CanCancel)
}

func TestListKeepsUnknownStatusRenderable(t *testing.T) {
	repo := newMapRepo(testOrder("1", "REFUND_REQUESTED"))
	svc := NewService(repo, nil, slog.Default())

	views, _, err := svc.List(context.Background(), ListOrdersRequest{Page: 1, PerPage: 20})
	require.NoError(t, err)
	require.Equal(t, "UNKNOWN", views[0].CanonicalStatus)
	require.Equal(t, "Unknown", views[0].StatusLabel)
	require.Equal(t, "gray", views[0].StatusColor)
}

func TestCancelPendingOrder(t *testing.T) {
	repo := newMapRepo(testOrder("1", "PENDING"))
	audit := &mapAudit{}
	svc := NewService(repo, audit, slog.Default())

	view, err := svc.Cancel(context.Background(), "1", "customer request")
	require.NoError(t, err)
	require.Equal(t, "CANCELLED_BY_ADMIN", repo.cancelled["1"])
	require.Equal(t, "CANCELLED_BY_ADMIN", view.CanonicalStatus)
	require.False(t, view.CanCancel)
	require.NotNil(t, view.CancelReason)
	require.Equal(t, "customer request", *view.CancelReason)

	require.Len(t, audit.entries, 1)
	require.Equal(t, "order.cancel", audit.entries[0].Action)
	require.Equal(t, "1", audit.entries[0].EntityID)
	require.Equal(t, "PENDING", audit.entries[0].Meta["previous_status"])
}

func TestCancelRefusedForFrozenStatuses(t *testing.T) {
	for _, status := range []string{"PAID", "SHIPPED", "SHIPPING", "DELIVERED", "COMPLETED", "EXPIRED", "CANCELLED"} {
		repo := newMapRepo(testOrder("1", status))
		svc := NewService(repo, nil, slog.Default())

		_, err := svc.Cancel(context.Background(), "1", "too late")
		require.ErrorIs(t, err, ErrNotCancellable, "status %s", status)
		require.Empty(t, repo.cancelled)
	}
}

func TestCancelMissingOrder(t *testing.T) {
	svc := NewService(newMapRepo(), nil, slog.Default())

	_, err := svc.Cancel(context.Background(), "nope", "reason")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetMissingOrder(t *testing.T) {
	svc := NewService(newMapRepo(), nil, slog.Default())

	_, err := svc.Get(context.Background(), "nope")
	require.ErrorIs(t, err, shared.ErrNotFound)
}
