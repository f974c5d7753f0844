package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-shop/meridian-backoffice/internal/dashboard"
	"github.com/meridian-shop/meridian-backoffice/internal/observability"
)

// DashboardRefreshJob keeps the dashboard summary cache warm.
type DashboardRefreshJob struct {
	Dashboard *dashboard.Service
	Logger    *slog.Logger
	Metrics   *observability.Metrics
	clock     func() time.Time
}

// NewDashboardRefreshJob wires dependencies for the refresh handler.
func NewDashboardRefreshJob(svc *dashboard.Service, logger *slog.Logger, metrics *observability.Metrics) *DashboardRefreshJob {
	return &DashboardRefreshJob{
		Dashboard: svc,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes dashboard refresh tasks.
func (j *DashboardRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dashboard == nil {
		return errors.New("dashboard refresh: handler not configured")
	}
	var payload DashboardRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	logger := j.logger()
	if payload.Trigger != "" {
		logger = logger.With(slog.String("trigger", payload.Trigger))
	}

	start := j.now()
	refreshCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	err := j.Dashboard.Refresh(refreshCtx)
	j.Metrics.ObserveJob(TaskDashboardRefresh, err)
	if err != nil {
		logger.Error("dashboard refresh failed", slog.Any("error", err))
		return err
	}
	logger.Info("dashboard refresh completed", slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *DashboardRefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardRefresh))
	}
	return slog.Default().With(slog.String("job", TaskDashboardRefresh))
}

func (j *DashboardRefreshJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
