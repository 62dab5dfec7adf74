// Package compare evaluates an old and a new prompt version over a shared
// input set and aggregates per-item ternary judgments into a decision signal.
package compare

import (
	"context"

	"github.com/google/uuid"

	"github.com/anishgoyal/promptforge/internal/models"
	"github.com/anishgoyal/promptforge/internal/run"
)

// ResultLister reads all results recorded under one version.
type ResultLister interface {
	ForVersion(ctx context.Context, versionID uuid.UUID) ([]models.RunResult, error)
}

// ComparisonWriter records a verdict on the new version's result.
type ComparisonWriter interface {
	UpdateComparison(ctx context.Context, resultID uuid.UUID, verdict string) (*models.RunResult, error)
}

// Backfiller produces results for inputs the new version has not run yet.
type Backfiller interface {
	RunBatch(ctx context.Context, versionID uuid.UUID, inputIDs []uuid.UUID, onProgress run.ProgressFunc) ([]models.RunResult, error)
}

// Row pairs one input's results from both versions with its judgment. The
// judgment lives on the new version's result.
type Row struct {
	InputID      uuid.UUID `json:"input_id"`
	InputContent string    `json:"input_content"`
	OldResultID  uuid.UUID `json:"old_result_id"`
	NewResultID  uuid.UUID `json:"new_result_id"`
	OldOutput    string    `json:"old_output"`
	NewOutput    string    `json:"new_output"`
	Verdict      *string   `json:"verdict,omitempty"`
}

// Summary aggregates verdicts across rows. AllCompared gates keeping the new
// version as current; reverting needs no such gate.
type Summary struct {
	Better         int  `json:"better"`
	Worse          int  `json:"worse"`
	Same           int  `json:"same"`
	Pending        int  `json:"pending"`
	NetImprovement int  `json:"net_improvement"`
	AllCompared    bool `json:"all_compared"`
}

type Engine struct {
	results ResultLister
	writer  ComparisonWriter
	runner  Backfiller
	inputs  run.InputGetter
}

func NewEngine(results ResultLister, writer ComparisonWriter, runner Backfiller, inputs run.InputGetter) *Engine {
	return &Engine{results: results, writer: writer, runner: runner, inputs: inputs}
}

// Prepare ensures the new version has a result for every candidate input,
// backfilling gaps through the batch runner, then builds rows for inputs that
// have results under both versions. Inputs missing a result on either side
// are dropped from the row set. The old version is never backfilled here.
func (e *Engine) Prepare(ctx context.Context, oldVersionID, newVersionID uuid.UUID, inputIDs []uuid.UUID, onProgress run.ProgressFunc) ([]Row, error) {
	newResults, err := e.results.ForVersion(ctx, newVersionID)
	if err != nil {
		return nil, err
	}

	have := make(map[uuid.UUID]bool, len(newResults))
	for _, r := range newResults {
		have[r.InputID] = true
	}

	var missing []uuid.UUID
	for _, id := range inputIDs {
		if !have[id] {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		if _, err := e.runner.RunBatch(ctx, newVersionID, missing, onProgress); err != nil {
			return nil, err
		}
		newResults, err = e.results.ForVersion(ctx, newVersionID)
		if err != nil {
			return nil, err
		}
	}

	oldResults, err := e.results.ForVersion(ctx, oldVersionID)
	if err != nil {
		return nil, err
	}

	oldByInput := indexByInput(oldResults)
	newByInput := indexByInput(newResults)

	var rows []Row
	for _, inputID := range inputIDs {
		oldR, okOld := oldByInput[inputID]
		newR, okNew := newByInput[inputID]
		if !okOld || !okNew {
			continue
		}

		in, err := e.inputs.Get(ctx, inputID)
		if err != nil {
			return nil, err
		}
		content := ""
		if in != nil {
			content = in.Content
		}

		rows = append(rows, Row{
			InputID:      inputID,
			InputContent: content,
			OldResultID:  oldR.ID,
			NewResultID:  newR.ID,
			OldOutput:    oldR.Output,
			NewOutput:    newR.Output,
			Verdict:      newR.ComparisonResult,
		})
	}

	return rows, nil
}

// Judge records one row's verdict (better/worse/same) on the new version's
// result.
func (e *Engine) Judge(ctx context.Context, newResultID uuid.UUID, verdict string) (*models.RunResult, error) {
	return e.writer.UpdateComparison(ctx, newResultID, verdict)
}

// Summarize counts verdicts. net_improvement = better - worse; AllCompared is
// true only when no row is pending.
func Summarize(rows []Row) Summary {
	var sum Summary
	for _, row := range rows {
		switch {
		case row.Verdict == nil:
			sum.Pending++
		case *row.Verdict == models.ComparisonBetter:
			sum.Better++
		case *row.Verdict == models.ComparisonWorse:
			sum.Worse++
		case *row.Verdict == models.ComparisonSame:
			sum.Same++
		}
	}
	sum.NetImprovement = sum.Better - sum.Worse
	sum.AllCompared = sum.Pending == 0
	return sum
}

// indexByInput keeps the latest result per input when reruns created
// duplicates.
func indexByInput(results []models.RunResult) map[uuid.UUID]models.RunResult {
	m := make(map[uuid.UUID]models.RunResult, len(results))
	for _, r := range results {
		m[r.InputID] = r
	}
	return m
}
