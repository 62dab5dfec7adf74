// Package queue enqueues and routes background jobs: prompt batches,
// comparison backfills, and judge alignment.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/anishgoyal/promptforge/internal/config"
)

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueBatchRun never retries: each processed input already has a persisted
// result, so a retried task would duplicate rows.
func (c *Client) EnqueueBatchRun(payload BatchRunPayload) error {
	return c.enqueue(TypeBatchRun, payload, asynq.MaxRetry(0), asynq.Timeout(30*time.Minute))
}

// EnqueueCompareRun backfills only the new version, with the same
// no-retry rule as batch runs.
func (c *Client) EnqueueCompareRun(payload CompareRunPayload) error {
	return c.enqueue(TypeCompareRun, payload, asynq.MaxRetry(0), asynq.Timeout(30*time.Minute))
}

func (c *Client) EnqueueJudgeAlign(payload JudgeAlignPayload) error {
	return c.enqueue(TypeJudgeAlign, payload, asynq.MaxRetry(2), asynq.Timeout(5*time.Minute))
}

func (c *Client) enqueue(taskType string, payload interface{}, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	_, err = c.client.Enqueue(task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
