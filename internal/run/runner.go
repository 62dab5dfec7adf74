// Package run executes a prompt version against batches of inputs, recording
// one result per executed input with per-item failure isolation.
package run

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/anishgoyal/promptforge/internal/llm"
	"github.com/anishgoyal/promptforge/internal/models"
	"github.com/anishgoyal/promptforge/internal/telemetry"
)

// VersionGetter resolves prompt versions.
type VersionGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*models.PromptVersion, error)
}

// InputGetter resolves inputs.
type InputGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Input, error)
}

// ResultWriter persists results one at a time.
type ResultWriter interface {
	Insert(ctx context.Context, r *models.RunResult) (*models.RunResult, error)
	SetTraceID(ctx context.Context, resultID, traceID uuid.UUID) error
}

// ProgressFunc receives (completed, total) after each processed input.
// It runs on the batch loop and must not block.
type ProgressFunc func(completed, total int)

// Options carry the session's model settings into completion calls.
type Options struct {
	Provider    string
	Model       string
	Temperature float64
}

// Runner runs batches sequentially: one blocking completion call per input,
// in input order. A failed call becomes a failed result and the batch moves
// on; nothing is retried.
type Runner struct {
	versions  VersionGetter
	inputs    InputGetter
	results   ResultWriter
	completer llm.Completer
	tracer    telemetry.Tracer // optional
	opts      Options
}

func NewRunner(versions VersionGetter, inputs InputGetter, results ResultWriter, completer llm.Completer, tracer telemetry.Tracer, opts Options) *Runner {
	return &Runner{
		versions:  versions,
		inputs:    inputs,
		results:   results,
		completer: completer,
		tracer:    tracer,
		opts:      opts,
	}
}

// RunBatch executes the version's prompt over inputIDs in order. The version
// missing is a hard error for the whole call; a missing input is skipped
// silently with no result and no progress tick. Re-running ids that already
// have results creates duplicate rows; callers filter to unprocessed ids
// first.
func (r *Runner) RunBatch(ctx context.Context, versionID uuid.UUID, inputIDs []uuid.UUID, onProgress ProgressFunc) ([]models.RunResult, error) {
	version, err := r.versions.Get(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, fmt.Errorf("prompt version %s not found", versionID)
	}
	promptText := version.PromptText

	var results []models.RunResult
	total := len(inputIDs)

	for idx, inputID := range inputIDs {
		in, err := r.inputs.Get(ctx, inputID)
		if err != nil {
			return results, err
		}
		if in == nil {
			slog.Debug("skipping missing input", "input_id", inputID)
			continue
		}

		formatted := strings.Replace(promptText, models.InputToken, in.Content, 1)

		result := models.RunResult{
			InputID:         inputID,
			PromptVersionID: versionID,
		}

		resp, err := r.completer.Complete(ctx, llm.CompletionRequest{
			Provider:    r.opts.Provider,
			Model:       r.opts.Model,
			Prompt:      formatted,
			Temperature: r.opts.Temperature,
		})
		if err != nil {
			slog.Debug("completion failed", "input_id", inputID, "latency_ms", llm.Latency(err))
			result.Output = "Error: " + err.Error()
			result.LatencyMs = 0
			result.TokensUsed = 0
		} else {
			result.Output = resp.Text
			result.LatencyMs = resp.LatencyMs
			result.TokensUsed = resp.TokensUsed
		}

		stored, err := r.results.Insert(ctx, &result)
		if err != nil {
			return results, err
		}

		if r.tracer != nil && !stored.Failed() {
			r.logTrace(ctx, stored, in.Content, promptText)
		}

		results = append(results, *stored)

		if onProgress != nil {
			onProgress(idx+1, total)
		}
	}

	return results, nil
}

// RunSingle runs one input and fails if it produced no result (input gone).
func (r *Runner) RunSingle(ctx context.Context, versionID, inputID uuid.UUID) (*models.RunResult, error) {
	results, err := r.RunBatch(ctx, versionID, []uuid.UUID{inputID}, nil)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("failed to run prompt on input %s", inputID)
	}
	return &results[0], nil
}

// logTrace is best-effort: failures are logged and dropped, never surfaced.
func (r *Runner) logTrace(ctx context.Context, result *models.RunResult, inputContent, promptText string) {
	traceID, err := r.tracer.LogRunTrace(ctx, telemetry.RunTrace{
		Input:           inputContent,
		Prompt:          promptText,
		Output:          result.Output,
		Model:           r.opts.Model,
		PromptVersionID: result.PromptVersionID,
		RunResultID:     result.ID,
	})
	if err != nil {
		slog.Debug("trace logging failed", "result_id", result.ID, "error", err)
		return
	}
	if err := r.results.SetTraceID(ctx, result.ID, traceID); err != nil {
		slog.Debug("storing trace id failed", "result_id", result.ID, "error", err)
		return
	}
	result.TraceID = &traceID
}
