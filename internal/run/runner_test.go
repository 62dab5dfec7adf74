package run

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anishgoyal/promptforge/internal/llm"
	"github.com/anishgoyal/promptforge/internal/models"
)

type fakeVersions struct {
	versions map[uuid.UUID]*models.PromptVersion
}

func (f *fakeVersions) Get(_ context.Context, id uuid.UUID) (*models.PromptVersion, error) {
	return f.versions[id], nil
}

type fakeInputs struct {
	inputs map[uuid.UUID]*models.Input
}

func (f *fakeInputs) Get(_ context.Context, id uuid.UUID) (*models.Input, error) {
	return f.inputs[id], nil
}

type fakeResults struct {
	inserted []models.RunResult
}

func (f *fakeResults) Insert(_ context.Context, r *models.RunResult) (*models.RunResult, error) {
	stored := *r
	stored.ID = uuid.New()
	f.inserted = append(f.inserted, stored)
	return &stored, nil
}

func (f *fakeResults) SetTraceID(_ context.Context, _, _ uuid.UUID) error { return nil }

// scriptedCompleter fails on the prompts listed in failOn, echoes otherwise.
type scriptedCompleter struct {
	failOn map[string]error
	calls  []string
}

func (s *scriptedCompleter) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.calls = append(s.calls, req.Prompt)
	if err, ok := s.failOn[req.Prompt]; ok {
		return nil, err
	}
	return &llm.CompletionResponse{
		Text:       "echo: " + req.Prompt,
		TokensUsed: 7,
		LatencyMs:  12,
	}, nil
}

type fixture struct {
	runner    *Runner
	versionID uuid.UUID
	inputIDs  []uuid.UUID
	results   *fakeResults
	completer *scriptedCompleter
}

func newFixture(t *testing.T, contents []string) *fixture {
	t.Helper()

	versionID := uuid.New()
	versions := &fakeVersions{versions: map[uuid.UUID]*models.PromptVersion{
		versionID: {ID: versionID, PromptText: "Process: {input}"},
	}}

	inputs := &fakeInputs{inputs: map[uuid.UUID]*models.Input{}}
	var inputIDs []uuid.UUID
	for _, c := range contents {
		id := uuid.New()
		inputs.inputs[id] = &models.Input{ID: id, Content: c}
		inputIDs = append(inputIDs, id)
	}

	results := &fakeResults{}
	completer := &scriptedCompleter{failOn: map[string]error{}}

	return &fixture{
		runner:    NewRunner(versions, inputs, results, completer, nil, Options{Model: "test-model"}),
		versionID: versionID,
		inputIDs:  inputIDs,
		results:   results,
		completer: completer,
	}
}

func TestRunBatchProcessesInOrder(t *testing.T) {
	fx := newFixture(t, []string{"one", "two", "three"})

	results, err := fx.runner.RunBatch(context.Background(), fx.versionID, fx.inputIDs, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, want := range []string{"one", "two", "three"} {
		assert.Equal(t, fx.inputIDs[i], results[i].InputID)
		assert.Equal(t, "echo: Process: "+want, results[i].Output)
		assert.Equal(t, int64(12), results[i].LatencyMs)
		assert.Equal(t, 7, results[i].TokensUsed)
		assert.False(t, results[i].Failed())
	}
	assert.Len(t, fx.results.inserted, 3)
}

func TestRunBatchMissingVersionIsHardError(t *testing.T) {
	fx := newFixture(t, []string{"one"})

	_, err := fx.runner.RunBatch(context.Background(), uuid.New(), fx.inputIDs, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.Empty(t, fx.results.inserted)
	assert.Empty(t, fx.completer.calls)
}

func TestRunBatchFailureIsolated(t *testing.T) {
	fx := newFixture(t, []string{"ok1", "boom", "ok2"})
	fx.completer.failOn["Process: boom"] = errors.New("provider unavailable")

	results, err := fx.runner.RunBatch(context.Background(), fx.versionID, fx.inputIDs, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	failed := results[1]
	assert.Equal(t, "Error: provider unavailable", failed.Output)
	assert.Equal(t, int64(0), failed.LatencyMs)
	assert.Equal(t, 0, failed.TokensUsed)
	assert.True(t, failed.Failed())

	// The batch moved on past the failure.
	assert.Equal(t, "echo: Process: ok2", results[2].Output)
	assert.Len(t, fx.completer.calls, 3)
}

func TestRunBatchSkipsMissingInput(t *testing.T) {
	fx := newFixture(t, []string{"one", "two"})
	ids := []uuid.UUID{fx.inputIDs[0], uuid.New(), fx.inputIDs[1]}

	var ticks [][2]int
	results, err := fx.runner.RunBatch(context.Background(), fx.versionID, ids,
		func(completed, total int) { ticks = append(ticks, [2]int{completed, total}) })
	require.NoError(t, err)

	// The missing id produced no result and no progress tick; total still
	// counts it.
	require.Len(t, results, 2)
	assert.Equal(t, [][2]int{{1, 3}, {3, 3}}, ticks)
}

func TestRunBatchProgressTicks(t *testing.T) {
	fx := newFixture(t, []string{"a", "b", "c"})
	fx.completer.failOn["Process: b"] = errors.New("nope")

	var ticks [][2]int
	_, err := fx.runner.RunBatch(context.Background(), fx.versionID, fx.inputIDs,
		func(completed, total int) { ticks = append(ticks, [2]int{completed, total}) })
	require.NoError(t, err)

	// Failures tick like successes.
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, ticks)
}

func TestRunBatchSubstitutesFirstTokenOnly(t *testing.T) {
	versionID := uuid.New()
	versions := &fakeVersions{versions: map[uuid.UUID]*models.PromptVersion{
		versionID: {ID: versionID, PromptText: "{input} and again {input}"},
	}}
	inputID := uuid.New()
	inputs := &fakeInputs{inputs: map[uuid.UUID]*models.Input{
		inputID: {ID: inputID, Content: "X"},
	}}
	completer := &scriptedCompleter{failOn: map[string]error{}}
	runner := NewRunner(versions, inputs, &fakeResults{}, completer, nil, Options{})

	_, err := runner.RunBatch(context.Background(), versionID, []uuid.UUID{inputID}, nil)
	require.NoError(t, err)
	require.Len(t, completer.calls, 1)
	assert.Equal(t, "X and again {input}", completer.calls[0])
}

func TestRunBatchEmptyIDs(t *testing.T) {
	fx := newFixture(t, nil)

	results, err := fx.runner.RunBatch(context.Background(), fx.versionID, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRunSingleMissingInput(t *testing.T) {
	fx := newFixture(t, nil)

	_, err := fx.runner.RunSingle(context.Background(), fx.versionID, uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to run prompt")
}

func TestRunSingle(t *testing.T) {
	fx := newFixture(t, []string{"solo"})

	result, err := fx.runner.RunSingle(context.Background(), fx.versionID, fx.inputIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "echo: Process: solo", result.Output)
}

func TestRunBatchDuplicateIDsProduceDuplicateResults(t *testing.T) {
	fx := newFixture(t, []string{"dup"})
	ids := []uuid.UUID{fx.inputIDs[0], fx.inputIDs[0]}

	results, err := fx.runner.RunBatch(context.Background(), fx.versionID, ids, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Len(t, fx.results.inserted, 2)
}
