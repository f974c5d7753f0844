package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/meridian-shop/meridian-backoffice/internal/orderstatus"
)

const summaryCacheKey = "dashboard:summary"

// StatusCount is one canonical status bucket on the dashboard.
type StatusCount struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Color string `json:"color"`
	Count int    `json:"count"`
}

// Summary is the cached dashboard payload.
type Summary struct {
	Statuses    []StatusCount `json:"statuses"`
	TotalOrders int           `json:"total_orders"`
	Cancellable int           `json:"cancellable"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// Service builds and caches the order status summary. Concurrent cache
// misses coalesce into a single repository scan.
type Service struct {
	repo   Repository
	cache  *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo Repository, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Summary returns the dashboard payload, serving from cache when fresh.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	if s.cache != nil {
		payload, err := s.cache.Get(ctx, summaryCacheKey).Bytes()
		if err == nil {
			var cached Summary
			if err := json.Unmarshal(payload, &cached); err == nil {
				return &cached, nil
			}
			// Unreadable payload: rebuild below.
		} else if err != redis.Nil && s.logger != nil {
			s.logger.Warn("dashboard cache read", slog.Any("error", err))
		}
	}

	resultChan := s.group.DoChan(summaryCacheKey, func() (interface{}, error) {
		return s.build(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Summary), nil
	}
}

// Refresh rebuilds the summary and replaces the cached copy. The cron worker
// calls it so the cache stays warm between requests.
func (s *Service) Refresh(ctx context.Context) error {
	_, err := s.build(ctx)
	return err
}

func (s *Service) build(ctx context.Context) (*Summary, error) {
	raw, err := s.repo.StatusCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard summary: %w", err)
	}

	byCanonical := make(map[orderstatus.Status]int)
	total := 0
	cancellable := 0
	for status, count := range raw {
		byCanonical[orderstatus.Normalize(status)] += count
		total += count
		if orderstatus.CanCancel(status) {
			cancellable += count
		}
	}

	statuses := make([]StatusCount, 0, len(byCanonical))
	for key, count := range byCanonical {
		statuses = append(statuses, StatusCount{
			Key:   string(key),
			Label: orderstatus.Label(key),
			Color: orderstatus.Color(key),
			Count: count,
		})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Key < statuses[j].Key })

	summary := &Summary{
		Statuses:    statuses,
		TotalOrders: total,
		Cancellable: cancellable,
		GeneratedAt: time.Now().UTC(),
	}

	if s.cache != nil {
		payload, err := json.Marshal(summary)
		if err == nil {
			if err := s.cache.Set(ctx, summaryCacheKey, payload, s.ttl).Err(); err != nil && s.logger != nil {
				s.logger.Warn("dashboard cache write", slog.Any("error", err))
			}
		}
	}
	return summary, nil
}
