package scheduler

import (
	"encoding/json"
	"fmt"

	"dashboard_backend/internal/dashboard/domain"

	"github.com/hibiken/asynq"
)

const TaskDashboardRefresh = "dashboard.refresh"

const TaskDashboardSnapshot = "dashboard.snapshot"

// DashboardPayload addresses one office and period. It is shared by the
// refresh and snapshot tasks.
type DashboardPayload struct {
	Office string        `json:"office"`
	Period domain.Period `json:"period"`
}

func NewDashboardRefreshTask(payload DashboardPayload) (*asynq.Task, error) {
	return newDashboardTask(TaskDashboardRefresh, payload)
}

func NewDashboardSnapshotTask(payload DashboardPayload) (*asynq.Task, error) {
	return newDashboardTask(TaskDashboardSnapshot, payload)
}

// ParseDashboardPayload decodes and validates the payload of either task.
// Malformed payloads are never retried.
func ParseDashboardPayload(task *asynq.Task) (DashboardPayload, error) {
	var payload DashboardPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DashboardPayload{}, fmt.Errorf("%w: %w", asynq.SkipRetry, err)
	}
	period, err := domain.ParsePeriod(string(payload.Period))
	if err != nil {
		return DashboardPayload{}, fmt.Errorf("%w: %w", asynq.SkipRetry, err)
	}
	payload.Period = period
	return payload, nil
}

func newDashboardTask(typename string, payload DashboardPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typename, data), nil
}

// taskID keys a task so that duplicates enqueued while one is pending are
// rejected by asynq.
func taskID(typename string, payload DashboardPayload, bucket string) string {
	id := typename + ":" + payload.Office + ":" + string(payload.Period)
	if bucket != "" {
		id += ":" + bucket
	}
	return id
}
