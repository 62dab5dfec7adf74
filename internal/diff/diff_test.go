package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinesIdentical(t *testing.T) {
	text := "line one\nline two\nline three"
	lines := Lines(text, text)

	assert.Len(t, lines, 3)
	for _, l := range lines {
		assert.Equal(t, Unchanged, l.Type)
	}
}

func TestLinesEmptyToContent(t *testing.T) {
	lines := Lines("", "a")
	assert.Equal(t, []Line{{Type: Added, Text: "a"}}, lines)
}

func TestLinesContentToEmpty(t *testing.T) {
	lines := Lines("a", "")
	assert.Equal(t, []Line{{Type: Removed, Text: "a"}}, lines)
}

func TestLinesBothEmpty(t *testing.T) {
	assert.Empty(t, Lines("", ""))
}

func TestLinesReplacedLine(t *testing.T) {
	lines := Lines("keep\nold middle\nkeep end", "keep\nnew middle\nkeep end")

	assert.Equal(t, []Line{
		{Type: Unchanged, Text: "keep"},
		{Type: Removed, Text: "old middle"},
		{Type: Added, Text: "new middle"},
		{Type: Unchanged, Text: "keep end"},
	}, lines)
}

func TestLinesInsertion(t *testing.T) {
	lines := Lines("first\nlast", "first\ninserted\nlast")

	assert.Equal(t, []Line{
		{Type: Unchanged, Text: "first"},
		{Type: Added, Text: "inserted"},
		{Type: Unchanged, Text: "last"},
	}, lines)
}

func TestLinesDeletion(t *testing.T) {
	lines := Lines("first\ngone\nlast", "first\nlast")

	assert.Equal(t, []Line{
		{Type: Unchanged, Text: "first"},
		{Type: Removed, Text: "gone"},
		{Type: Unchanged, Text: "last"},
	}, lines)
}

func TestLinesTrailingNewlineIgnored(t *testing.T) {
	// A single trailing newline does not create a phantom empty line.
	lines := Lines("a\nb\n", "a\nb")
	for _, l := range lines {
		assert.Equal(t, Unchanged, l.Type)
	}
	assert.Len(t, lines, 2)
}

func TestLinesReconstructsMergeView(t *testing.T) {
	oldText := "alpha\nbeta\ngamma"
	newText := "alpha\nBETA\ngamma\ndelta"

	var fromOld, fromNew []string
	for _, l := range Lines(oldText, newText) {
		if l.Type == Unchanged || l.Type == Removed {
			fromOld = append(fromOld, l.Text)
		}
		if l.Type == Unchanged || l.Type == Added {
			fromNew = append(fromNew, l.Text)
		}
	}
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, fromOld)
	assert.Equal(t, []string{"alpha", "BETA", "gamma", "delta"}, fromNew)
}
