package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// Progress is the published state of one background batch job, polled by
// clients while the batch runs.
type Progress struct {
	JobID     string    `json:"job_id"`
	State     string    `json:"state"`
	Completed int       `json:"completed"`
	Total     int       `json:"total"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProgressTracker publishes batch progress to Redis. Writes are best-effort;
// a dead Redis slows nobody down, it only blinds the progress endpoint.
type ProgressTracker struct {
	cache *Cache
	ttl   time.Duration
}

func NewProgressTracker(c *Cache) *ProgressTracker {
	return &ProgressTracker{cache: c, ttl: time.Hour}
}

func progressKey(jobID string) string { return "run:progress:" + jobID }

func (t *ProgressTracker) Publish(ctx context.Context, p Progress) {
	p.UpdatedAt = time.Now().UTC()
	if err := t.cache.Set(ctx, progressKey(p.JobID), p, t.ttl); err != nil {
		slog.Debug("progress publish failed", "job_id", p.JobID, "error", err)
	}
}

// Get returns nil when the job is unknown or expired.
func (t *ProgressTracker) Get(ctx context.Context, jobID string) (*Progress, error) {
	var p Progress
	err := t.cache.Get(ctx, progressKey(jobID), &p)
	if errors.Is(err, ErrMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Lock claims the per-version batch lock. It returns false when another job
// already holds it.
func (t *ProgressTracker) Lock(ctx context.Context, sessionID, versionID string, jobID string) (bool, error) {
	key := fmt.Sprintf("run:lock:%s:%s", sessionID, versionID)
	return t.cache.SetNX(ctx, key, jobID, t.ttl)
}

func (t *ProgressTracker) Unlock(ctx context.Context, sessionID, versionID string) {
	key := fmt.Sprintf("run:lock:%s:%s", sessionID, versionID)
	if err := t.cache.Delete(ctx, key); err != nil {
		slog.Debug("unlock failed", "key", key, "error", err)
	}
}
