package session

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

type CreateRequest struct {
	Name              string  `json:"name"`
	TaskDescription   string  `json:"task_description"`
	OutputDescription string  `json:"output_description"`
	ModelProvider     string  `json:"model_provider"`
	ModelName         string  `json:"model_name"`
	ModelTemperature  float64 `json:"model_temperature"`
	BatchSize         int     `json:"batch_size"`
}

func (s *Store) Create(ctx context.Context, req CreateRequest) (*models.Session, error) {
	if req.ModelTemperature == 0 {
		req.ModelTemperature = 0.7
	}
	if req.BatchSize == 0 {
		req.BatchSize = 10
	}

	var sess models.Session
	err := s.db.QueryRow(ctx,
		`INSERT INTO sessions (name, task_description, output_description, model_provider, model_name, model_temperature, batch_size)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, name, task_description, output_description, model_provider, model_name, model_temperature, batch_size, status, created_at, updated_at`,
		req.Name, req.TaskDescription, req.OutputDescription, req.ModelProvider, req.ModelName, req.ModelTemperature, req.BatchSize,
	).Scan(&sess.ID, &sess.Name, &sess.TaskDescription, &sess.OutputDescription, &sess.ModelProvider,
		&sess.ModelName, &sess.ModelTemperature, &sess.BatchSize, &sess.Status, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return &sess, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var sess models.Session
	err := s.db.QueryRow(ctx,
		`SELECT id, name, task_description, output_description, model_provider, model_name, model_temperature, batch_size, status, created_at, updated_at
		 FROM sessions WHERE id = $1`, id,
	).Scan(&sess.ID, &sess.Name, &sess.TaskDescription, &sess.OutputDescription, &sess.ModelProvider,
		&sess.ModelName, &sess.ModelTemperature, &sess.BatchSize, &sess.Status, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &sess, nil
}

func (s *Store) List(ctx context.Context, status string, limit int) ([]models.Session, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, name, task_description, output_description, model_provider, model_name, model_temperature, batch_size, status, created_at, updated_at
		 FROM sessions`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY updated_at DESC LIMIT %d`, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var sess models.Session
		if err := rows.Scan(&sess.ID, &sess.Name, &sess.TaskDescription, &sess.OutputDescription, &sess.ModelProvider,
			&sess.ModelName, &sess.ModelTemperature, &sess.BatchSize, &sess.Status, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE sessions SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}

// Delete removes a session and, via cascade, its inputs, versions and results.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Store) Touch(ctx context.Context, id uuid.UUID) {
	_, _ = s.db.Exec(ctx, `UPDATE sessions SET updated_at = now() WHERE id = $1`, id)
}
