package input

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anishgoyal/promptforge/internal/models"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

type CreateItem struct {
	Content     string  `json:"content"`
	GroundTruth *string `json:"ground_truth,omitempty"`
	Metadata    *string `json:"metadata,omitempty"`
}

// CreateBulk inserts a set of inputs for a session and returns them in insert
// order.
func (s *Store) CreateBulk(ctx context.Context, sessionID uuid.UUID, items []CreateItem) ([]models.Input, error) {
	inputs := make([]models.Input, 0, len(items))
	for _, item := range items {
		var in models.Input
		err := s.db.QueryRow(ctx,
			`INSERT INTO inputs (session_id, content, ground_truth, metadata)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, session_id, content, ground_truth, metadata, created_at`,
			sessionID, item.Content, item.GroundTruth, item.Metadata,
		).Scan(&in.ID, &in.SessionID, &in.Content, &in.GroundTruth, &in.Metadata, &in.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert input: %w", err)
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*models.Input, error) {
	var in models.Input
	err := s.db.QueryRow(ctx,
		`SELECT id, session_id, content, ground_truth, metadata, created_at
		 FROM inputs WHERE id = $1`, id,
	).Scan(&in.ID, &in.SessionID, &in.Content, &in.GroundTruth, &in.Metadata, &in.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get input: %w", err)
	}
	return &in, nil
}

func (s *Store) List(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]models.Input, error) {
	query := `SELECT id, session_id, content, ground_truth, metadata, created_at
		 FROM inputs WHERE session_id = $1 ORDER BY created_at OFFSET $2`
	args := []any{sessionID, offset}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inputs: %w", err)
	}
	defer rows.Close()

	return scanInputs(rows)
}

// Unprocessed returns up to limit inputs of the session that have no run
// result under the given version yet. The batch runner does not dedup, so
// callers pick their batches here.
func (s *Store) Unprocessed(ctx context.Context, sessionID, versionID uuid.UUID, limit int) ([]models.Input, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(ctx,
		`SELECT i.id, i.session_id, i.content, i.ground_truth, i.metadata, i.created_at
		 FROM inputs i
		 WHERE i.session_id = $1
		   AND NOT EXISTS (
		     SELECT 1 FROM run_results r
		     WHERE r.input_id = i.id AND r.prompt_version_id = $2
		   )
		 ORDER BY i.created_at
		 LIMIT $3`,
		sessionID, versionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed inputs: %w", err)
	}
	defer rows.Close()

	return scanInputs(rows)
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM inputs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete input: %w", err)
	}
	return nil
}

func (s *Store) Count(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM inputs WHERE session_id = $1`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count inputs: %w", err)
	}
	return n, nil
}

func scanInputs(rows pgx.Rows) ([]models.Input, error) {
	var inputs []models.Input
	for rows.Next() {
		var in models.Input
		if err := rows.Scan(&in.ID, &in.SessionID, &in.Content, &in.GroundTruth, &in.Metadata, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan input: %w", err)
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}
