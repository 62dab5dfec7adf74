package input

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/anishgoyal/promptforge/internal/models"
	"github.com/anishgoyal/promptforge/pkg/textextract"
)

// Import extracts text from an uploaded file (.txt, .csv, .pdf) and creates
// one input per extracted item.
func (s *Store) Import(ctx context.Context, sessionID uuid.UUID, data io.ReaderAt, size int64, fileType string) ([]models.Input, error) {
	extracted, err := textextract.Extract(data, size, fileType)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", fileType, err)
	}

	var items []CreateItem
	for _, chunk := range textextract.SplitItems(extracted.Content) {
		items = append(items, CreateItem{Content: chunk})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no usable content in uploaded file")
	}

	return s.CreateBulk(ctx, sessionID, items)
}

// ParseLines turns pasted freeform text into create items, one per non-empty
// line. Used by the API's paste-inputs path.
func ParseLines(text string) []CreateItem {
	var items []CreateItem
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		items = append(items, CreateItem{Content: line})
	}
	return items
}
