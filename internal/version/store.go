// Package version owns the prompt-version lineage of a session: a tree of
// immutable prompt texts linked by parent ids, each proposed and then
// accepted or rejected.
package version

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anishgoyal/promptforge/internal/diff"
	"github.com/anishgoyal/promptforge/internal/models"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

type CreateRequest struct {
	SessionID           uuid.UUID
	PromptText          string
	ParentVersionID     *uuid.UUID
	MutationExplanation *string
	Status              string
}

// Create inserts a new version numbered 1 + the session's current maximum.
// The read-max-then-write is not guarded against concurrent creators; two
// racing calls for one session can compute the same number.
func (s *Store) Create(ctx context.Context, req CreateRequest) (*models.PromptVersion, error) {
	if req.Status == "" {
		req.Status = models.VersionProposed
	}

	var maxVersion int
	err := s.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(version_number), 0) FROM prompt_versions WHERE session_id = $1`,
		req.SessionID,
	).Scan(&maxVersion)
	if err != nil {
		return nil, fmt.Errorf("max version number: %w", err)
	}

	var v models.PromptVersion
	err = s.db.QueryRow(ctx,
		`INSERT INTO prompt_versions (session_id, version_number, prompt_text, parent_version_id, mutation_explanation, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, session_id, version_number, prompt_text, parent_version_id, mutation_explanation, status, pareto_rank, created_at`,
		req.SessionID, maxVersion+1, req.PromptText, req.ParentVersionID, req.MutationExplanation, req.Status,
	).Scan(&v.ID, &v.SessionID, &v.VersionNumber, &v.PromptText, &v.ParentVersionID,
		&v.MutationExplanation, &v.Status, &v.ParetoRank, &v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert version: %w", err)
	}
	return &v, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*models.PromptVersion, error) {
	return s.getOne(ctx,
		`SELECT id, session_id, version_number, prompt_text, parent_version_id, mutation_explanation, status, pareto_rank, created_at
		 FROM prompt_versions WHERE id = $1`, id)
}

// GetCurrent returns the accepted version with the highest version number,
// or nil when the session has no accepted version.
func (s *Store) GetCurrent(ctx context.Context, sessionID uuid.UUID) (*models.PromptVersion, error) {
	return s.getOne(ctx,
		`SELECT id, session_id, version_number, prompt_text, parent_version_id, mutation_explanation, status, pareto_rank, created_at
		 FROM prompt_versions WHERE session_id = $1 AND status = $2
		 ORDER BY version_number DESC LIMIT 1`, sessionID, models.VersionAccepted)
}

// GetLatest returns the highest-numbered version regardless of status.
func (s *Store) GetLatest(ctx context.Context, sessionID uuid.UUID) (*models.PromptVersion, error) {
	return s.getOne(ctx,
		`SELECT id, session_id, version_number, prompt_text, parent_version_id, mutation_explanation, status, pareto_rank, created_at
		 FROM prompt_versions WHERE session_id = $1
		 ORDER BY version_number DESC LIMIT 1`, sessionID)
}

// History returns all versions of a session in ascending version order.
func (s *Store) History(ctx context.Context, sessionID uuid.UUID) ([]models.PromptVersion, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, session_id, version_number, prompt_text, parent_version_id, mutation_explanation, status, pareto_rank, created_at
		 FROM prompt_versions WHERE session_id = $1 ORDER BY version_number`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("version history: %w", err)
	}
	defer rows.Close()

	var versions []models.PromptVersion
	for rows.Next() {
		var v models.PromptVersion
		if err := rows.Scan(&v.ID, &v.SessionID, &v.VersionNumber, &v.PromptText, &v.ParentVersionID,
			&v.MutationExplanation, &v.Status, &v.ParetoRank, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, nil
}

// UpdateStatus sets the status unconditionally. The transition is not
// validated against the current state.
func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.PromptVersion, error) {
	var v models.PromptVersion
	err := s.db.QueryRow(ctx,
		`UPDATE prompt_versions SET status = $1 WHERE id = $2
		 RETURNING id, session_id, version_number, prompt_text, parent_version_id, mutation_explanation, status, pareto_rank, created_at`,
		status, id,
	).Scan(&v.ID, &v.SessionID, &v.VersionNumber, &v.PromptText, &v.ParentVersionID,
		&v.MutationExplanation, &v.Status, &v.ParetoRank, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update version status: %w", err)
	}
	return &v, nil
}

// Diff returns the structured line diff between two versions' prompt texts.
// Either version missing yields an empty diff.
func (s *Store) Diff(ctx context.Context, oldID, newID uuid.UUID) ([]diff.Line, error) {
	oldV, err := s.Get(ctx, oldID)
	if err != nil {
		return nil, err
	}
	newV, err := s.Get(ctx, newID)
	if err != nil {
		return nil, err
	}
	if oldV == nil || newV == nil {
		return nil, nil
	}
	return diff.Lines(oldV.PromptText, newV.PromptText), nil
}

func (s *Store) getOne(ctx context.Context, query string, args ...any) (*models.PromptVersion, error) {
	var v models.PromptVersion
	err := s.db.QueryRow(ctx, query, args...).Scan(&v.ID, &v.SessionID, &v.VersionNumber, &v.PromptText,
		&v.ParentVersionID, &v.MutationExplanation, &v.Status, &v.ParetoRank, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get version: %w", err)
	}
	return &v, nil
}
