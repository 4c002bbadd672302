// Package printview renders paginated cards as a print-styled HTML document.
// Blocks are absolutely positioned in millimetres from the layout geometry,
// so a browser print of this page matches the drawn PDF.
package printview

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/evanzqian-eng/Chess-Genie/internal/board"
	"github.com/evanzqian-eng/Chess-Genie/internal/layout"
)

//go:embed print.html
var printHTML string

var printTmpl = template.Must(template.New("print").Parse(printHTML))

// ascentRatio approximates the glyph ascent of the core fonts as a fraction of the font size.
const ascentRatio = 0.8

// BoardSource supplies rendered boards, normally the session's render cache.
type BoardSource interface {
	GetOrRender(fen string) (*board.Artifact, error)
}

// Options controls document chrome.
type Options struct {
	Title string
	// Screen adds page shadows and spacing for on-screen proofing.
	Screen bool
}

type document struct {
	Title      string
	Screen     bool
	PageWidth  string
	PageHeight string
	Pages      []pageView
}

type pageView struct {
	Kind   string
	Blocks []blockView
}

type blockView struct {
	CardID int
	Frame  template.CSS
	Texts  []textView
	Board  *imageView
}

type textView struct {
	Class   string
	Style   template.CSS
	Content string
}

type imageView struct {
	Style template.CSS
	Src   template.URL
	Alt   string
}

// Render writes the print document for pages to w.
// Nothing is written when a board fails to render.
func Render(w io.Writer, pages []layout.Page, boards BoardSource, g layout.Geometry, opts Options) error {
	doc := document{
		Title:      opts.Title,
		Screen:     opts.Screen,
		PageWidth:  mm(g.PageWidth),
		PageHeight: mm(g.PageHeight),
		Pages:      make([]pageView, 0, len(pages)),
	}
	if doc.Title == "" {
		doc.Title = "Chess Genie Cards"
	}

	for _, p := range pages {
		pv := pageView{Kind: string(p.Kind), Blocks: make([]blockView, 0, len(p.Blocks))}
		for _, b := range p.Blocks {
			bv, err := blockFor(b, boards, g)
			if err != nil {
				return err
			}
			pv.Blocks = append(pv.Blocks, bv)
		}
		doc.Pages = append(doc.Pages, pv)
	}

	var buf bytes.Buffer
	if err := printTmpl.Execute(&buf, doc); err != nil {
		return fmt.Errorf("execute print template: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func blockFor(b layout.Block, boards BoardSource, g layout.Geometry) (blockView, error) {
	bv := blockView{CardID: b.CardID, Frame: frameStyle(b.Frame, g)}
	for _, t := range []struct {
		class string
		text  *layout.Text
	}{
		{"label", b.Label},
		{"body", b.Body},
		{"meta", b.Meta},
	} {
		if t.text == nil {
			continue
		}
		bv.Texts = append(bv.Texts, textView{
			Class:   t.class,
			Style:   textStyle(*t.text, g),
			Content: t.text.Content,
		})
	}
	if b.Board != nil {
		art, err := boards.GetOrRender(b.Board.FEN)
		if err != nil {
			return blockView{}, fmt.Errorf("render board for card %d: %w", b.CardID, err)
		}
		bv.Board = &imageView{
			Style: rectStyle(b.Board.Rect),
			// data URLs are produced locally from PNG bytes
			Src: template.URL(art.DataURL()),
			Alt: board.Placement(b.Board.FEN),
		}
	}
	return bv, nil
}

// frameStyle centres the CSS border on the frame outline, as a PDF stroke is.
func frameStyle(r layout.Rect, g layout.Geometry) template.CSS {
	half := g.BorderWidth / 2
	return template.CSS(fmt.Sprintf(
		"left:%s;top:%s;width:%s;height:%s;border:%s solid %s;border-radius:%s;",
		mm(r.X-half), mm(r.Y-half), mm(r.W+g.BorderWidth), mm(r.H+g.BorderWidth),
		mm(g.BorderWidth), gray(g.BorderGray), mm(g.CornerRadius+half),
	))
}

func rectStyle(r layout.Rect) template.CSS {
	return template.CSS(fmt.Sprintf("left:%s;top:%s;width:%s;height:%s;",
		mm(r.X), mm(r.Y), mm(r.W), mm(r.H)))
}

// textStyle converts a baseline-anchored layout text into a positioned box.
func textStyle(t layout.Text, g layout.Geometry) template.CSS {
	size := t.Font.SizeMM()
	top := t.Y - size*((g.LineHeight-1)/2+ascentRatio)

	var b strings.Builder
	left := t.X
	if t.Align == layout.AlignCenter {
		left = t.X - t.Width/2
	}
	fmt.Fprintf(&b, "left:%s;top:%s;", mm(left), mm(top))
	if t.Width > 0 {
		fmt.Fprintf(&b, "width:%s;", mm(t.Width))
	} else {
		b.WriteString("white-space:nowrap;")
	}
	fmt.Fprintf(&b, "font-family:%s;font-size:%spt;line-height:%s;color:%s;text-align:%s;",
		fontFamily(t.Font.Family), trim(t.Font.Size), trim(g.LineHeight), gray(t.Font.Gray), t.Align)
	if t.Font.Bold() {
		b.WriteString("font-weight:bold;")
	}
	if t.Font.Italic() {
		b.WriteString("font-style:italic;")
	}
	return template.CSS(b.String())
}

func fontFamily(family string) string {
	switch family {
	case "times":
		return `"Times New Roman",Times,serif`
	case "courier":
		return `"Courier New",Courier,monospace`
	default:
		return `Helvetica,Arial,sans-serif`
	}
}

func gray(level int) string {
	return fmt.Sprintf("rgb(%d,%d,%d)", level, level, level)
}

func mm(v float64) string {
	return trim(v) + "mm"
}

func trim(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}
