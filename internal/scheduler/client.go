package scheduler

import (
	"context"
	"errors"
	"strings"
	"time"

	"dashboard_backend/internal/dashboard/domain"
	"dashboard_backend/internal/offices"
	"dashboard_backend/platform/config"
	"dashboard_backend/platform/db"

	"github.com/hibiken/asynq"
)

var errRedisNotConfigured = errors.New("redis url not configured")

// Client enqueues dashboard tasks.
type Client struct {
	client *asynq.Client
	queue  string
}

// NewClient connects an asynq client to the scheduler queue.
func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	if cfg.GetRedisURL() == "" {
		return nil, errRedisNotConfigured
	}

	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleRefresh enqueues one cache refresh for office and period after
// delay. The task runs once; asynq never retries it. A refresh already
// pending for the same dashboard absorbs the request.
func (c *Client) ScheduleRefresh(ctx context.Context, office string, period domain.Period, delay time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}

	payload := DashboardPayload{Office: normalizeOffice(office), Period: period}
	task, err := NewDashboardRefreshTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.ProcessIn(delay),
		asynq.Queue(c.queue),
		asynq.TaskID(taskID(TaskDashboardRefresh, payload, "")),
		asynq.MaxRetry(0),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// EnqueueSnapshot enqueues an archive of office and period. bucket scopes the
// deduplication key, so one snapshot per bucket is taken even when several
// schedulers run.
func (c *Client) EnqueueSnapshot(ctx context.Context, office string, period domain.Period, bucket string) error {
	if c == nil || c.client == nil {
		return nil
	}

	payload := DashboardPayload{Office: normalizeOffice(office), Period: period}
	task, err := NewDashboardSnapshotTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.TaskID(taskID(TaskDashboardSnapshot, payload, bucket)),
		asynq.Retention(24*time.Hour),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func normalizeOffice(office string) string {
	office = strings.ToLower(strings.TrimSpace(office))
	if office == "" {
		return offices.AllOfficesID
	}
	return office
}

func queueName(cfg config.SchedulerConfig) string {
	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	return queue
}

// redisClientOpt adapts the shared Redis URL parsing to asynq.
func redisClientOpt(cfg db.RedisConfig) (asynq.RedisClientOpt, error) {
	opt, err := db.RedisOptions(cfg)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
