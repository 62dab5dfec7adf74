package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anishgoyal/promptforge/internal/models"
)

func fb(s string) *string { return &s }

func TestSummarize(t *testing.T) {
	results := []models.RunResult{
		{HumanFeedback: fb(models.FeedbackGood)},
		{HumanFeedback: fb(models.FeedbackGood)},
		{HumanFeedback: fb(models.FeedbackBad)},
		{HumanFeedback: nil},
		{HumanFeedback: nil},
	}

	sum := Summarize(results)

	assert.Equal(t, Summary{Good: 2, Bad: 1, Pending: 2, Total: 5}, sum)
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestSummarizeUnknownValueCountsTowardTotalOnly(t *testing.T) {
	sum := Summarize([]models.RunResult{{HumanFeedback: fb("maybe")}})
	assert.Equal(t, Summary{Total: 1}, sum)
}
