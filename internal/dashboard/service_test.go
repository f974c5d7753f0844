package dashboard

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	counts map[string]int
	calls  atomic.Int64
}

func (r *countingRepo) StatusCounts(ctx context.Context) (map[string]int, error) {
	r.calls.Add(1)
	out := make(map[string]int, len(r.counts))
	for k, v := range r.counts {
		out[k] = v
	}
	return out, nil
}

func newTestService(t *testing.T, repo Repository) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(repo, client, 5*time.Minute, slog.Default()), mr
}

func TestSummaryFoldsRawStatusesIntoCanonicalBuckets(t *testing.T) {
	repo := &countingRepo{counts: map[string]int{
		"PENDING":         2,
		"PENDING_PAYMENT": 1,
		"SHIPPED":         3,
		"DELIVERED":       4,
		"REFUNDED":        1,
	}}
	svc, _ := newTestService(t, repo)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 11, summary.TotalOrders)

	byKey := make(map[string]StatusCount)
	for _, s := range summary.Statuses {
		byKey[s.Key] = s
	}
	require.Equal(t, 3, byKey["PENDING_PAYMENT"].Count)
	require.Equal(t, 3, byKey["SHIPPING"].Count)
	require.Equal(t, 4, byKey["COMPLETED"].Count)
	require.Equal(t, 1, byKey["UNKNOWN"].Count)
	require.Equal(t, "teal", byKey["SHIPPING"].Color)

	// Pending and unknown rows are the only cancellable ones here.
	require.Equal(t, 4, summary.Cancellable)
}

func TestSummaryServesFromCache(t *testing.T) {
	repo := &countingRepo{counts: map[string]int{"PAID": 1}}
	svc, _ := newTestService(t, repo)

	_, err := svc.Summary(context.Background())
	require.NoError(t, err)
	_, err = svc.Summary(context.Background())
	require.NoError(t, err)

	require.Equal(t, int64(1), repo.calls.Load())
}

func TestSummaryRebuildsAfterTTL(t *testing.T) {
	repo := &countingRepo{counts: map[string]int{"PAID": 1}}
	svc, mr := newTestService(t, repo)

	_, err := svc.Summary(context.Background())
	require.NoError(t, err)

	mr.FastForward(6 * time.Minute)

	_, err = svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), repo.calls.Load())
}

func TestRefreshWarmsTheCache(t *testing.T) {
	repo := &countingRepo{counts: map[string]int{"PROCESSING": 2}}
	svc, _ := newTestService(t, repo)

	require.NoError(t, svc.Refresh(context.Background()))
	require.Equal(t, int64(1), repo.calls.Load())

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, summary.TotalOrders)
	require.Equal(t, int64(1), repo.calls.Load())
}

func TestSummaryWorksWithoutCache(t *testing.T) {
	repo := &countingRepo{counts: map[string]int{"PAID": 1}}
	svc := NewService(repo, nil, time.Minute, slog.Default())

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.TotalOrders)
}
