package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anishgoyal/promptforge/internal/models"
)

// PgTracer persists traces and assessments in Postgres.
type PgTracer struct {
	db *pgxpool.Pool
}

func NewPgTracer(db *pgxpool.Pool) *PgTracer {
	return &PgTracer{db: db}
}

func (t *PgTracer) LogRunTrace(ctx context.Context, tr RunTrace) (uuid.UUID, error) {
	var id uuid.UUID
	err := t.db.QueryRow(ctx,
		`INSERT INTO traces (prompt_version_id, run_result_id, input, prompt, output, model)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		tr.PromptVersionID, tr.RunResultID, tr.Input, tr.Prompt, tr.Output, tr.Model,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert trace: %w", err)
	}
	return id, nil
}

func (t *PgTracer) LogFeedback(ctx context.Context, traceID uuid.UUID, isGood bool, reason, correction *string) error {
	var parts []string
	if reason != nil && *reason != "" {
		parts = append(parts, *reason)
	}
	if correction != nil && *correction != "" {
		parts = append(parts, "Correction: "+*correction)
	}
	var rationale *string
	if len(parts) > 0 {
		joined := strings.Join(parts, "; ")
		rationale = &joined
	}

	_, err := t.db.Exec(ctx,
		`INSERT INTO assessments (trace_id, is_good, rationale, source_type)
		 VALUES ($1, $2, $3, 'human')`,
		traceID, isGood, rationale,
	)
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

// Assessments returns all human judgments recorded for a session's traces,
// joined back to their execution context. Used by judge alignment.
func (t *PgTracer) Assessments(ctx context.Context, sessionID uuid.UUID) ([]AssessedTrace, error) {
	rows, err := t.db.Query(ctx,
		`SELECT tr.input, tr.output, a.is_good, a.rationale
		 FROM assessments a
		 JOIN traces tr ON tr.id = a.trace_id
		 JOIN prompt_versions v ON v.id = tr.prompt_version_id
		 WHERE v.session_id = $1
		 ORDER BY a.created_at`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	var out []AssessedTrace
	for rows.Next() {
		var at AssessedTrace
		if err := rows.Scan(&at.Input, &at.Output, &at.IsGood, &at.Rationale); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		out = append(out, at)
	}
	return out, nil
}

// AssessedTrace pairs an execution with its human judgment.
type AssessedTrace struct {
	Input     string
	Output    string
	IsGood    bool
	Rationale *string
}

// GetTrace loads one trace with its assessments, nil when unknown.
func (t *PgTracer) GetTrace(ctx context.Context, traceID uuid.UUID) (*models.Trace, []models.Assessment, error) {
	var tr models.Trace
	err := t.db.QueryRow(ctx,
		`SELECT id, prompt_version_id, run_result_id, input, prompt, output, model, created_at
		 FROM traces WHERE id = $1`, traceID,
	).Scan(&tr.ID, &tr.PromptVersionID, &tr.RunResultID, &tr.Input, &tr.Prompt, &tr.Output, &tr.Model, &tr.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get trace: %w", err)
	}

	rows, err := t.db.Query(ctx,
		`SELECT id, trace_id, is_good, rationale, source_type, created_at
		 FROM assessments WHERE trace_id = $1 ORDER BY created_at`, traceID)
	if err != nil {
		return nil, nil, fmt.Errorf("list trace assessments: %w", err)
	}
	defer rows.Close()

	var assessments []models.Assessment
	for rows.Next() {
		var a models.Assessment
		if err := rows.Scan(&a.ID, &a.TraceID, &a.IsGood, &a.Rationale, &a.SourceType, &a.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("scan trace assessment: %w", err)
		}
		assessments = append(assessments, a)
	}
	return &tr, assessments, nil
}

var _ Tracer = (*PgTracer)(nil)
