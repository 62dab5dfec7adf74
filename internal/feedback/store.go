// Package feedback attaches human judgments to run results and aggregates
// them per prompt version.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anishgoyal/promptforge/internal/models"
	"github.com/anishgoyal/promptforge/internal/telemetry"
)

type Store struct {
	db     *pgxpool.Pool
	tracer telemetry.Tracer // optional
}

func NewStore(db *pgxpool.Pool, tracer telemetry.Tracer) *Store {
	return &Store{db: db, tracer: tracer}
}

// Update overwrites all three feedback fields on a result. No cross-field
// inference: switching bad to good keeps reason/correction unless the caller
// passes nils. Returns nil when the result does not exist.
func (s *Store) Update(ctx context.Context, resultID uuid.UUID, humanFeedback string, reason, correction *string) (*models.RunResult, error) {
	var r models.RunResult
	err := s.db.QueryRow(ctx,
		`UPDATE run_results
		 SET human_feedback = $1, feedback_reason = $2, human_correction = $3
		 WHERE id = $4
		 RETURNING id, input_id, prompt_version_id, output, latency_ms, tokens_used,
		           human_feedback, feedback_reason, human_correction, comparison_result, trace_id, created_at`,
		humanFeedback, reason, correction, resultID,
	).Scan(&r.ID, &r.InputID, &r.PromptVersionID, &r.Output, &r.LatencyMs, &r.TokensUsed,
		&r.HumanFeedback, &r.FeedbackReason, &r.HumanCorrection, &r.ComparisonResult, &r.TraceID, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update feedback: %w", err)
	}

	if s.tracer != nil && r.TraceID != nil {
		if err := s.tracer.LogFeedback(ctx, *r.TraceID, humanFeedback == models.FeedbackGood, reason, correction); err != nil {
			slog.Debug("feedback assessment logging failed", "result_id", resultID, "error", err)
		}
	}

	return &r, nil
}

// Summary counts judgments for one version's results.
type Summary struct {
	Good    int `json:"good"`
	Bad     int `json:"bad"`
	Pending int `json:"pending"`
	Total   int `json:"total"`
}

func (s *Store) Summary(ctx context.Context, versionID uuid.UUID) (*Summary, error) {
	rows, err := s.db.Query(ctx,
		`SELECT human_feedback FROM run_results WHERE prompt_version_id = $1`, versionID)
	if err != nil {
		return nil, fmt.Errorf("feedback summary: %w", err)
	}
	defer rows.Close()

	var sum Summary
	for rows.Next() {
		var fb *string
		if err := rows.Scan(&fb); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		sum.Total++
		switch {
		case fb == nil:
			sum.Pending++
		case *fb == models.FeedbackGood:
			sum.Good++
		case *fb == models.FeedbackBad:
			sum.Bad++
		}
	}
	return &sum, nil
}

// Summarize aggregates in-memory results the same way Summary does in SQL.
func Summarize(results []models.RunResult) Summary {
	var sum Summary
	for _, r := range results {
		sum.Total++
		switch {
		case r.HumanFeedback == nil:
			sum.Pending++
		case *r.HumanFeedback == models.FeedbackGood:
			sum.Good++
		case *r.HumanFeedback == models.FeedbackBad:
			sum.Bad++
		}
	}
	return sum
}
