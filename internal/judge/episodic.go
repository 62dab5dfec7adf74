package judge

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Example is one judged (input, output) pair kept in episodic memory.
type Example struct {
	ID        uuid.UUID `json:"id"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	IsGood    bool      `json:"is_good"`
	Rationale *string   `json:"rationale,omitempty"`
}

// ExampleStore keeps judged examples with input embeddings for similarity
// retrieval.
type ExampleStore struct {
	db *pgxpool.Pool
}

func NewExampleStore(db *pgxpool.Pool) *ExampleStore {
	return &ExampleStore{db: db}
}

// Upsert inserts the example or refreshes its judgment and embedding when the
// same (input, output) pair was memorized before. Re-alignment rewrites, it
// never duplicates.
func (s *ExampleStore) Upsert(ctx context.Context, sessionID uuid.UUID, ex Example, embedding []float32) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO judge_examples (session_id, input, output, is_good, rationale, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (session_id, input, output)
		 DO UPDATE SET is_good = EXCLUDED.is_good, rationale = EXCLUDED.rationale, embedding = EXCLUDED.embedding`,
		sessionID, ex.Input, ex.Output, ex.IsGood, ex.Rationale, pgvector.NewVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("upsert judge example: %w", err)
	}
	return nil
}

// Nearest returns the k examples whose input embedding is closest to the
// query by cosine distance.
func (s *ExampleStore) Nearest(ctx context.Context, sessionID uuid.UUID, query []float32, k int) ([]Example, error) {
	if k <= 0 {
		k = 3
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, input, output, is_good, rationale
		 FROM judge_examples
		 WHERE session_id = $1 AND embedding IS NOT NULL
		 ORDER BY embedding <=> $2
		 LIMIT $3`,
		sessionID, pgvector.NewVector(query), k,
	)
	if err != nil {
		return nil, fmt.Errorf("nearest examples: %w", err)
	}
	defer rows.Close()

	var examples []Example
	for rows.Next() {
		var ex Example
		if err := rows.Scan(&ex.ID, &ex.Input, &ex.Output, &ex.IsGood, &ex.Rationale); err != nil {
			return nil, fmt.Errorf("scan example: %w", err)
		}
		examples = append(examples, ex)
	}
	return examples, nil
}
