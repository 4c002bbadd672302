// Package export turns a card batch into a downloadable document.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/evanzqian-eng/Chess-Genie/internal/board"
	"github.com/evanzqian-eng/Chess-Genie/internal/card"
	"github.com/evanzqian-eng/Chess-Genie/internal/config"
	"github.com/evanzqian-eng/Chess-Genie/internal/errors"
	"github.com/evanzqian-eng/Chess-Genie/internal/layout"
	"github.com/evanzqian-eng/Chess-Genie/internal/pdf"
	"github.com/evanzqian-eng/Chess-Genie/internal/printview"
	"github.com/evanzqian-eng/Chess-Genie/internal/sheet"
)

// Format names an export target.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// Formats lists the supported formats in menu order.
var Formats = []Format{FormatPDF, FormatHTML, FormatXLSX, FormatJSON}

var contentTypes = map[Format]string{
	FormatPDF:  "application/pdf",
	FormatHTML: "text/html; charset=utf-8",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatJSON: "application/json",
}

// ParseFormat resolves a format name. Unknown names are NOT_FOUND.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := contentTypes[f]; !ok {
		return "", errors.NewNotFound("export format", name)
	}
	return f, nil
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	return contentTypes[f]
}

// Filename returns the download name for a batch, e.g. Chess_Genie_Cards_3.pdf.
func Filename(f Format, batch int) string {
	return fmt.Sprintf("Chess_Genie_Cards_%d.%s", batch, f)
}

// Title is the document title for a batch.
func Title(batch int) string {
	return fmt.Sprintf("Chess Genie Cards %d", batch)
}

// Result is a finished export.
type Result struct {
	Format      Format
	Filename    string
	ContentType string
	Data        []byte
}

// Service renders batches in every supported format.
type Service struct {
	geometry layout.Geometry
	boards   pdf.BoardSource
	engine   pdf.Engine
}

// NewService returns a Service drawing PDFs with engine.
func NewService(g layout.Geometry, boards pdf.BoardSource, engine pdf.Engine) *Service {
	return &Service{geometry: g, boards: boards, engine: engine}
}

// NewEngine picks the PDF engine named by cfg.PDFEngine.
func NewEngine(cfg *config.Config, g layout.Geometry, boards pdf.BoardSource) (pdf.Engine, error) {
	switch cfg.PDFEngine {
	case "", config.PDFEngineFPDF:
		return pdf.NewWriter(g, boards), nil
	case config.PDFEngineChromium:
		return pdf.NewChromiumEngine(g, boards, cfg.ChromePath), nil
	default:
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown pdf_engine %q", cfg.PDFEngine))
	}
}

// Geometry returns the page geometry used for every format.
func (s *Service) Geometry() layout.Geometry { return s.geometry }

// Export renders cards of batch number batch as format f.
// The whole document is built before it is returned.
func (s *Service) Export(ctx context.Context, f Format, batch int, cards []card.Flashcard) (*Result, error) {
	var (
		buf bytes.Buffer
		err error
	)
	switch f {
	case FormatPDF:
		var data []byte
		data, err = s.engine.Render(ctx, Title(batch), s.geometry.Paginate(cards))
		buf.Write(data)
	case FormatHTML:
		err = printview.Render(&buf, s.geometry.Paginate(cards), s.boards, s.geometry, printview.Options{Title: Title(batch)})
	case FormatXLSX:
		err = sheet.Write(ctx, &buf, cards)
	case FormatJSON:
		var data []byte
		data, err = card.Encode(cards)
		buf.Write(data)
	default:
		return nil, errors.NewNotFound("export format", string(f))
	}
	if err != nil {
		return nil, err
	}
	return &Result{
		Format:      f,
		Filename:    Filename(f, batch),
		ContentType: f.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

// Close releases engine resources such as a running browser.
func (s *Service) Close() error {
	if c, ok := s.engine.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var _ pdf.BoardSource = (*board.Cache)(nil)
