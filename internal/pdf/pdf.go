// Package pdf produces the printable card document.
//
// Writer draws layout pages directly with fpdf. ChromiumEngine prints the HTML
// print view with headless Chromium instead. Both read the same layout pages.
package pdf

import (
	"context"
	"errors"

	"github.com/evanzqian-eng/Chess-Genie/internal/board"
	"github.com/evanzqian-eng/Chess-Genie/internal/layout"
)

// Engine renders layout pages into PDF bytes.
type Engine interface {
	Render(ctx context.Context, title string, pages []layout.Page) ([]byte, error)
}

// EngineFunc adapts a function to an Engine.
type EngineFunc func(ctx context.Context, title string, pages []layout.Page) ([]byte, error)

// Render calls f.
func (f EngineFunc) Render(ctx context.Context, title string, pages []layout.Page) ([]byte, error) {
	if f == nil {
		return nil, errors.New("pdf engine func is nil")
	}
	return f(ctx, title, pages)
}

// BoardSource supplies rendered boards, normally the session's render cache.
type BoardSource interface {
	GetOrRender(fen string) (*board.Artifact, error)
}
