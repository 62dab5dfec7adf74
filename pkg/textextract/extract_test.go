package textextract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTXT(t *testing.T) {
	content := "  hello world\nsecond line  "
	r := strings.NewReader(content)

	out, err := Extract(r, int64(len(content)), "txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world\nsecond line", out.Content)
	assert.Equal(t, 1, out.Pages)
}

func TestExtractTypeAliases(t *testing.T) {
	content := "x"
	for _, ft := range []string{".txt", "txt", "text/plain", ".csv", "csv", "text/csv"} {
		r := strings.NewReader(content)
		_, err := Extract(r, 1, ft)
		assert.NoError(t, err, ft)
	}
}

func TestExtractUnsupportedType(t *testing.T) {
	_, err := Extract(strings.NewReader("x"), 1, "docx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestSplitItems(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "line per item",
			content: "one\ntwo\nthree",
			want:    []string{"one", "two", "three"},
		},
		{
			name:    "blank line separated blocks",
			content: "first block\n\nsecond block",
			want:    []string{"first block", "second block"},
		},
		{
			name:    "whitespace lines dropped",
			content: "a\n   \nb\n",
			want:    []string{"a", "b"},
		},
		{
			name:    "empty",
			content: "",
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitItems(tt.content))
		})
	}
}
