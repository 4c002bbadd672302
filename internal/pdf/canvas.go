package pdf

import (
	"bytes"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/evanzqian-eng/Chess-Genie/internal/layout"
)

// Canvas is the drawing surface the Writer replays pages onto. Units are millimetres.
type Canvas interface {
	AddPage()
	SetStroke(width float64, gray int)
	RoundedRect(r layout.Rect, radius float64)
	SetFont(f layout.Font)
	// StringWidth measures s in the current font.
	StringWidth(s string) float64
	// Text draws s with its baseline starting at (x, y).
	Text(x, y float64, s string)
	// Image draws a PNG into r. Images with the same key are embedded once.
	Image(key string, png []byte, r layout.Rect) error
	Err() error
}

// fpdfCanvas draws with go-pdf/fpdf core fonts. Text is converted to cp1252.
type fpdfCanvas struct {
	doc *fpdf.Fpdf
	tr  func(string) string
}

func newFPDFCanvas(g layout.Geometry, title string) *fpdfCanvas {
	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: g.PageWidth, Ht: g.PageHeight},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.SetCompression(true)
	doc.SetCreator("Chess Genie", true)
	if title != "" {
		doc.SetTitle(title, true)
	}
	return &fpdfCanvas{doc: doc, tr: doc.UnicodeTranslatorFromDescriptor("")}
}

func (c *fpdfCanvas) AddPage() {
	c.doc.AddPage()
}

func (c *fpdfCanvas) SetStroke(width float64, gray int) {
	c.doc.SetLineWidth(width)
	c.doc.SetDrawColor(gray, gray, gray)
}

func (c *fpdfCanvas) RoundedRect(r layout.Rect, radius float64) {
	c.doc.RoundedRect(r.X, r.Y, r.W, r.H, radius, "1234", "D")
}

func (c *fpdfCanvas) SetFont(f layout.Font) {
	c.doc.SetFont(f.Family, f.Style, f.Size)
	c.doc.SetTextColor(f.Gray, f.Gray, f.Gray)
}

func (c *fpdfCanvas) StringWidth(s string) float64 {
	return c.doc.GetStringWidth(c.tr(s))
}

func (c *fpdfCanvas) Text(x, y float64, s string) {
	c.doc.Text(x, y, c.tr(s))
}

func (c *fpdfCanvas) Image(key string, png []byte, r layout.Rect) error {
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	if c.doc.GetImageInfo(key) == nil {
		c.doc.RegisterImageOptionsReader(key, opts, bytes.NewReader(png))
		if err := c.doc.Error(); err != nil {
			return err
		}
	}
	c.doc.ImageOptions(key, r.X, r.Y, r.W, r.H, false, opts, 0, "")
	return c.doc.Error()
}

func (c *fpdfCanvas) Err() error {
	return c.doc.Error()
}

// Output writes the finished document.
func (c *fpdfCanvas) Output(w io.Writer) error {
	return c.doc.Output(w)
}
