package refine

import (
	"fmt"
	"strings"
)

// FeedbackItem is one reviewed (input, output, judgment) triple. Transient:
// built from run results just before proposing, never persisted.
type FeedbackItem struct {
	InputContent string  `json:"input_content"`
	Output       string  `json:"output"`
	IsGood       bool    `json:"is_good"`
	Reason       *string `json:"reason,omitempty"`
	Correction   *string `json:"correction,omitempty"`
}

// RenderFeedback formats a feedback batch as labeled good/bad text blocks for
// the reflection request. An empty group is omitted entirely, header
// included.
func RenderFeedback(batch []FeedbackItem) string {
	var good, bad []string

	for _, item := range batch {
		entry := fmt.Sprintf("Input: \"%s\"\nOutput: \"%s\"", item.InputContent, item.Output)
		if item.IsGood {
			good = append(good, entry)
			continue
		}
		if item.Reason != nil && *item.Reason != "" {
			entry += fmt.Sprintf("\nWhy wrong: \"%s\"", *item.Reason)
		}
		if item.Correction != nil && *item.Correction != "" {
			entry += fmt.Sprintf("\nShould be: \"%s\"", *item.Correction)
		}
		bad = append(bad, entry)
	}

	var sections []string
	if len(good) > 0 {
		sections = append(sections, "GOOD OUTPUTS (keep doing this):\n\n"+strings.Join(good, "\n\n"))
	}
	if len(bad) > 0 {
		sections = append(sections, "BAD OUTPUTS (fix these):\n\n"+strings.Join(bad, "\n\n"))
	}

	return strings.Join(sections, "\n\n---\n\n")
}
