package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/evanzqian-eng/Chess-Genie/internal/layout"
)

// Writer draws layout pages as a PDF document with fpdf.
type Writer struct {
	geometry layout.Geometry
	boards   BoardSource
}

// NewWriter returns a Writer that takes board images from boards.
func NewWriter(g layout.Geometry, boards BoardSource) *Writer {
	return &Writer{geometry: g, boards: boards}
}

// Render implements Engine. The document is built in memory and returned only when complete.
func (w *Writer) Render(ctx context.Context, title string, pages []layout.Page) ([]byte, error) {
	canvas := newFPDFCanvas(w.geometry, title)
	if err := w.Draw(ctx, canvas, pages); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := canvas.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Draw replays pages onto c.
func (w *Writer) Draw(ctx context.Context, c Canvas, pages []layout.Page) error {
	g := w.geometry
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.AddPage()
		for _, b := range page.Blocks {
			c.SetStroke(g.BorderWidth, g.BorderGray)
			c.RoundedRect(b.Frame, g.CornerRadius)

			for _, t := range []*layout.Text{b.Label, b.Body, b.Meta} {
				if t != nil {
					w.drawText(c, *t)
				}
			}

			if b.Board != nil {
				art, err := w.boards.GetOrRender(b.Board.FEN)
				if err != nil {
					return fmt.Errorf("render board for card %d: %w", b.CardID, err)
				}
				if err := c.Image(art.Placement, art.PNG, b.Board.Rect); err != nil {
					return fmt.Errorf("embed board for card %d: %w", b.CardID, err)
				}
			}
		}
		if err := c.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) drawText(c Canvas, t layout.Text) {
	c.SetFont(t.Font)
	lines := []string{t.Content}
	if t.Width > 0 {
		lines = wrap(c, t.Content, t.Width)
	}
	advance := w.geometry.LineAdvance(t.Font)
	for i, line := range lines {
		x := t.X
		if t.Align == layout.AlignCenter {
			x -= c.StringWidth(line) / 2
		}
		c.Text(x, t.Y+float64(i)*advance, line)
	}
}

// wrap breaks text into lines no wider than width, measured in the canvas font.
// Explicit newlines are kept; a single word wider than width gets a line of its own.
func wrap(c Canvas, text string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, word := range words[1:] {
			candidate := line + " " + word
			if c.StringWidth(candidate) <= width {
				line = candidate
				continue
			}
			lines = append(lines, line)
			line = word
		}
		lines = append(lines, line)
	}
	return lines
}
