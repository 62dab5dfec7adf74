package compare

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anishgoyal/promptforge/internal/models"
	"github.com/anishgoyal/promptforge/internal/run"
)

func vptr(s string) *string { return &s }

func TestSummarize(t *testing.T) {
	rows := []Row{
		{Verdict: vptr(models.ComparisonBetter)},
		{Verdict: vptr(models.ComparisonBetter)},
		{Verdict: vptr(models.ComparisonBetter)},
		{Verdict: vptr(models.ComparisonWorse)},
		{Verdict: vptr(models.ComparisonSame)},
	}

	sum := Summarize(rows)

	assert.Equal(t, 3, sum.Better)
	assert.Equal(t, 1, sum.Worse)
	assert.Equal(t, 1, sum.Same)
	assert.Equal(t, 0, sum.Pending)
	assert.Equal(t, 2, sum.NetImprovement)
	assert.True(t, sum.AllCompared)
}

func TestSummarizePending(t *testing.T) {
	rows := []Row{
		{Verdict: vptr(models.ComparisonWorse)},
		{Verdict: nil},
	}

	sum := Summarize(rows)

	assert.Equal(t, 1, sum.Pending)
	assert.Equal(t, -1, sum.NetImprovement)
	assert.False(t, sum.AllCompared)
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(nil)
	assert.True(t, sum.AllCompared)
	assert.Equal(t, 0, sum.NetImprovement)
}

// --- Prepare with fakes ---

type fakeLister struct {
	byVersion map[uuid.UUID][]models.RunResult
}

func (f *fakeLister) ForVersion(_ context.Context, versionID uuid.UUID) ([]models.RunResult, error) {
	return f.byVersion[versionID], nil
}

func (f *fakeLister) UpdateComparison(_ context.Context, resultID uuid.UUID, verdict string) (*models.RunResult, error) {
	for vid, results := range f.byVersion {
		for i, r := range results {
			if r.ID == resultID {
				r.ComparisonResult = &verdict
				f.byVersion[vid][i] = r
				return &r, nil
			}
		}
	}
	return nil, nil
}

type fakeBackfiller struct {
	lister    *fakeLister
	versionID uuid.UUID
	ran       []uuid.UUID
}

func (f *fakeBackfiller) RunBatch(_ context.Context, versionID uuid.UUID, inputIDs []uuid.UUID, _ run.ProgressFunc) ([]models.RunResult, error) {
	f.ran = append(f.ran, inputIDs...)
	for _, id := range inputIDs {
		f.lister.byVersion[versionID] = append(f.lister.byVersion[versionID], models.RunResult{
			ID:              uuid.New(),
			InputID:         id,
			PromptVersionID: versionID,
			Output:          "backfilled",
		})
	}
	return f.lister.byVersion[versionID], nil
}

type fakeInputGetter struct {
	inputs map[uuid.UUID]*models.Input
}

func (f *fakeInputGetter) Get(_ context.Context, id uuid.UUID) (*models.Input, error) {
	return f.inputs[id], nil
}

type prepFixture struct {
	engine   *Engine
	lister   *fakeLister
	runner   *fakeBackfiller
	oldID    uuid.UUID
	newID    uuid.UUID
	inputIDs []uuid.UUID
}

func newPrepFixture(n int) *prepFixture {
	oldID, newID := uuid.New(), uuid.New()
	lister := &fakeLister{byVersion: map[uuid.UUID][]models.RunResult{}}
	inputs := &fakeInputGetter{inputs: map[uuid.UUID]*models.Input{}}

	var ids []uuid.UUID
	for i := 0; i < n; i++ {
		id := uuid.New()
		inputs.inputs[id] = &models.Input{ID: id, Content: "input content"}
		ids = append(ids, id)
		lister.byVersion[oldID] = append(lister.byVersion[oldID], models.RunResult{
			ID: uuid.New(), InputID: id, PromptVersionID: oldID, Output: "old output",
		})
	}

	runner := &fakeBackfiller{lister: lister, versionID: newID}
	return &prepFixture{
		engine:   NewEngine(lister, lister, runner, inputs),
		lister:   lister,
		runner:   runner,
		oldID:    oldID,
		newID:    newID,
		inputIDs: ids,
	}
}

func TestPrepareBackfillsOnlyMissing(t *testing.T) {
	fx := newPrepFixture(3)
	// One input already has a new-version result.
	fx.lister.byVersion[fx.newID] = []models.RunResult{
		{ID: uuid.New(), InputID: fx.inputIDs[0], PromptVersionID: fx.newID, Output: "existing"},
	}

	rows, err := fx.engine.Prepare(context.Background(), fx.oldID, fx.newID, fx.inputIDs, nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []uuid.UUID{fx.inputIDs[1], fx.inputIDs[2]}, fx.runner.ran)
	require.Len(t, rows, 3)
	assert.Equal(t, "existing", rows[0].NewOutput)
	assert.Equal(t, "backfilled", rows[1].NewOutput)
}

func TestPrepareNoBackfillWhenComplete(t *testing.T) {
	fx := newPrepFixture(2)
	for _, id := range fx.inputIDs {
		fx.lister.byVersion[fx.newID] = append(fx.lister.byVersion[fx.newID], models.RunResult{
			ID: uuid.New(), InputID: id, PromptVersionID: fx.newID, Output: "done",
		})
	}

	rows, err := fx.engine.Prepare(context.Background(), fx.oldID, fx.newID, fx.inputIDs, nil)
	require.NoError(t, err)
	assert.Empty(t, fx.runner.ran)
	assert.Len(t, rows, 2)
}

func TestPrepareDropsInputsMissingOldResult(t *testing.T) {
	fx := newPrepFixture(2)
	// An input with no old-version result cannot be compared.
	orphan := uuid.New()
	ids := append(fx.inputIDs, orphan)

	rows, err := fx.engine.Prepare(context.Background(), fx.oldID, fx.newID, ids, nil)
	require.NoError(t, err)

	// The orphan was still backfilled on the new version but produced no row.
	assert.Contains(t, fx.runner.ran, orphan)
	assert.Len(t, rows, 2)
}

func TestPrepareKeepsLatestDuplicate(t *testing.T) {
	fx := newPrepFixture(1)
	id := fx.inputIDs[0]
	fx.lister.byVersion[fx.newID] = []models.RunResult{
		{ID: uuid.New(), InputID: id, PromptVersionID: fx.newID, Output: "first run"},
		{ID: uuid.New(), InputID: id, PromptVersionID: fx.newID, Output: "second run"},
	}

	rows, err := fx.engine.Prepare(context.Background(), fx.oldID, fx.newID, fx.inputIDs, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "second run", rows[0].NewOutput)
}

func TestJudgeWritesVerdict(t *testing.T) {
	fx := newPrepFixture(1)
	resultID := uuid.New()
	fx.lister.byVersion[fx.newID] = []models.RunResult{
		{ID: resultID, InputID: fx.inputIDs[0], PromptVersionID: fx.newID},
	}

	result, err := fx.engine.Judge(context.Background(), resultID, models.ComparisonBetter)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotNil(t, result.ComparisonResult)
	assert.Equal(t, models.ComparisonBetter, *result.ComparisonResult)
}
