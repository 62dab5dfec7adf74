package run

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anishgoyal/promptforge/internal/models"
)

// Store persists run results. Each call is its own short transaction; a batch
// is never wrapped in one, so a crash mid-batch keeps the completed prefix.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Insert(ctx context.Context, r *models.RunResult) (*models.RunResult, error) {
	var out models.RunResult
	err := s.db.QueryRow(ctx,
		`INSERT INTO run_results (input_id, prompt_version_id, output, latency_ms, tokens_used)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, input_id, prompt_version_id, output, latency_ms, tokens_used,
		           human_feedback, feedback_reason, human_correction, comparison_result, trace_id, created_at`,
		r.InputID, r.PromptVersionID, r.Output, r.LatencyMs, r.TokensUsed,
	).Scan(&out.ID, &out.InputID, &out.PromptVersionID, &out.Output, &out.LatencyMs, &out.TokensUsed,
		&out.HumanFeedback, &out.FeedbackReason, &out.HumanCorrection, &out.ComparisonResult, &out.TraceID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert result: %w", err)
	}
	return &out, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*models.RunResult, error) {
	var r models.RunResult
	err := s.db.QueryRow(ctx,
		`SELECT id, input_id, prompt_version_id, output, latency_ms, tokens_used,
		        human_feedback, feedback_reason, human_correction, comparison_result, trace_id, created_at
		 FROM run_results WHERE id = $1`, id,
	).Scan(&r.ID, &r.InputID, &r.PromptVersionID, &r.Output, &r.LatencyMs, &r.TokensUsed,
		&r.HumanFeedback, &r.FeedbackReason, &r.HumanCorrection, &r.ComparisonResult, &r.TraceID, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	return &r, nil
}

func (s *Store) SetTraceID(ctx context.Context, resultID, traceID uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		`UPDATE run_results SET trace_id = $1 WHERE id = $2`, traceID, resultID)
	if err != nil {
		return fmt.Errorf("set trace id: %w", err)
	}
	return nil
}

// UpdateComparison sets the ternary comparison verdict on a result. Returns
// nil when the result does not exist.
func (s *Store) UpdateComparison(ctx context.Context, resultID uuid.UUID, verdict string) (*models.RunResult, error) {
	var r models.RunResult
	err := s.db.QueryRow(ctx,
		`UPDATE run_results SET comparison_result = $1 WHERE id = $2
		 RETURNING id, input_id, prompt_version_id, output, latency_ms, tokens_used,
		           human_feedback, feedback_reason, human_correction, comparison_result, trace_id, created_at`,
		verdict, resultID,
	).Scan(&r.ID, &r.InputID, &r.PromptVersionID, &r.Output, &r.LatencyMs, &r.TokensUsed,
		&r.HumanFeedback, &r.FeedbackReason, &r.HumanCorrection, &r.ComparisonResult, &r.TraceID, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update comparison: %w", err)
	}
	return &r, nil
}

func (s *Store) ForVersion(ctx context.Context, versionID uuid.UUID) ([]models.RunResult, error) {
	return s.list(ctx,
		`SELECT id, input_id, prompt_version_id, output, latency_ms, tokens_used,
		        human_feedback, feedback_reason, human_correction, comparison_result, trace_id, created_at
		 FROM run_results WHERE prompt_version_id = $1 ORDER BY created_at`, versionID)
}

func (s *Store) ForInput(ctx context.Context, inputID uuid.UUID) ([]models.RunResult, error) {
	return s.list(ctx,
		`SELECT id, input_id, prompt_version_id, output, latency_ms, tokens_used,
		        human_feedback, feedback_reason, human_correction, comparison_result, trace_id, created_at
		 FROM run_results WHERE input_id = $1 ORDER BY created_at`, inputID)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]models.RunResult, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []models.RunResult
	for rows.Next() {
		var r models.RunResult
		if err := rows.Scan(&r.ID, &r.InputID, &r.PromptVersionID, &r.Output, &r.LatencyMs, &r.TokensUsed,
			&r.HumanFeedback, &r.FeedbackReason, &r.HumanCorrection, &r.ComparisonResult, &r.TraceID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, nil
}
