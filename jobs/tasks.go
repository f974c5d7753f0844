package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardRefresh rebuilds the cached dashboard summary.
	TaskDashboardRefresh = "dashboard:refresh"
)

// DashboardRefreshPayload carries the optional trigger source for logging.
type DashboardRefreshPayload struct {
	Trigger string `json:"trigger,omitempty"`
}

// NewDashboardRefreshTask constructs an Asynq task.
func NewDashboardRefreshTask(payload DashboardRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardRefresh, data), nil
}
