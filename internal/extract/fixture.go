package extract

import (
	"context"
	"fmt"
	"os"

	"github.com/evanzqian-eng/Chess-Genie/internal/card"
)

// FixtureExtractor returns the cards stored in a JSON file, ignoring the PGN.
// It backs offline demos and end-to-end tests.
type FixtureExtractor struct {
	Path string
}

// Extract implements Extractor.
func (f *FixtureExtractor) Extract(ctx context.Context, _ string) ([]card.Flashcard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return card.Decode(data)
}
