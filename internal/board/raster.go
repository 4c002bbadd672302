package board

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

var (
	lightRGBA  = color.RGBA{0xF0, 0xD9, 0xB5, 0xFF}
	darkRGBA   = color.RGBA{0xB5, 0x88, 0x63, 0xFF}
	whiteRGBA  = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	blackRGBA  = color.RGBA{0x00, 0x00, 0x00, 0xFF}
	shadowRGBA = color.NRGBA{0x00, 0x00, 0x00, 0x99}
)

// Rasterizer draws boards as PNG images. Pieces come from a user font when it
// has the chess symbols and from the bundled vector piece set otherwise;
// characters outside the piece set are drawn as text.
// Faces are not safe for concurrent use, so rendering is serialized.
type Rasterizer struct {
	mu     sync.Mutex
	font   *opentype.Font
	custom bool
	buf    sfnt.Buffer
	faces  map[int]font.Face
	shapes *vector.Rasterizer
}

// NewRasterizer parses ttf. Empty input selects the bundled Go Regular font
// for text and the bundled piece set for pieces.
func NewRasterizer(ttf []byte) (*Rasterizer, error) {
	custom := len(ttf) > 0
	if !custom {
		ttf = goregular.TTF
	}
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse board font: %w", err)
	}
	return &Rasterizer{
		font:   f,
		custom: custom,
		faces:  make(map[int]font.Face),
		shapes: &vector.Rasterizer{},
	}, nil
}

// LoadRasterizer reads a font file. An empty path selects the bundled font.
func LoadRasterizer(path string) (*Rasterizer, error) {
	if path == "" {
		return NewRasterizer(nil)
	}
	ttf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read board font: %w", err)
	}
	return NewRasterizer(ttf)
}

// HasGlyph reports whether the font can draw r.
func (r *Rasterizer) HasGlyph(ch rune) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasGlyph(ch)
}

func (r *Rasterizer) hasGlyph(ch rune) bool {
	idx, err := r.font.GlyphIndex(&r.buf, ch)
	return err == nil && idx != 0
}

// RasterText returns the symbol drawn for a piece. It is the glyph used in
// vector output without the presentation selector: a chess symbol for the
// twelve piece letters and the character itself for anything else.
func (r *Rasterizer) RasterText(piece rune) string {
	return string(Symbol(piece))
}

// usesFont reports whether sym is drawn from the font rather than the piece set.
func (r *Rasterizer) usesFont(sym rune) bool {
	if _, ok := pieceOutlines[sym]; !ok {
		return true
	}
	return r.custom && r.hasGlyph(sym)
}

// face returns a cached face for a pixel size.
func (r *Rasterizer) face(px int) (font.Face, error) {
	if f, ok := r.faces[px]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    float64(px),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	r.faces[px] = f
	return f, nil
}

// RenderPNG draws fen on a size x size pixel board.
func (r *Rasterizer) RenderPNG(fen string, size int) ([]byte, error) {
	if err := CheckSize(size); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(lightRGBA), image.Point{}, draw.Src)

	cells := Cells(fen, float64(size))
	for _, c := range cells {
		draw.Draw(img, pixelRect(c), image.NewUniform(squareRGBA(c)), image.Point{}, draw.Src)
	}

	var face font.Face
	for _, c := range cells {
		if c.Empty() {
			continue
		}
		sym := Symbol(c.Piece)
		cx, cy := c.Centre()
		offset := max(1, int(c.Size/40))
		white := c.Fill == WhitePiece

		if !r.usesFont(sym) {
			mask, rect, _ := pieceMask(r.shapes, sym, cx, cy, c.FontSize)
			if white {
				fillMask(img, rect.Add(image.Pt(offset, offset)), mask, image.NewUniform(shadowRGBA))
				fillMask(img, rect, mask, image.NewUniform(whiteRGBA))
				continue
			}
			fillMask(img, rect, mask, image.NewUniform(blackRGBA))
			continue
		}

		if face == nil {
			var err error
			face, err = r.face(int(math.Round(c.FontSize)))
			if err != nil {
				return nil, fmt.Errorf("board font face: %w", err)
			}
		}
		text := string(sym)
		dot := centredDot(face, text, cx, cy)
		if white {
			shift := fixed.I(offset)
			drawText(img, face, text, shadowRGBA, dot.Add(fixed.Point26_6{X: shift, Y: shift}))
			drawText(img, face, text, whiteRGBA, dot)
			continue
		}
		drawText(img, face, text, blackRGBA, dot)
	}

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("encode board png: %w", err)
	}
	return out.Bytes(), nil
}

// pixelRect snaps a cell to whole pixels so neighbouring squares tile without gaps.
func pixelRect(c Cell) image.Rectangle {
	x0 := int(math.Round(c.X))
	y0 := int(math.Round(c.Y))
	x1 := int(math.Round(c.X + c.Size))
	y1 := int(math.Round(c.Y + c.Size))
	return image.Rect(x0, y0, x1, y1)
}

func squareRGBA(c Cell) color.RGBA {
	if c.Dark {
		return darkRGBA
	}
	return lightRGBA
}

// centredDot returns the origin that centres the ink bounds of text on (cx, cy).
func centredDot(face font.Face, text string, cx, cy float64) fixed.Point26_6 {
	bounds, _ := font.BoundString(face, text)
	midX := (bounds.Min.X + bounds.Max.X) / 2
	midY := (bounds.Min.Y + bounds.Max.Y) / 2
	return fixed.Point26_6{
		X: fixed.Int26_6(math.Round(cx*64)) - midX,
		Y: fixed.Int26_6(math.Round(cy*64)) - midY,
	}
}

func drawText(dst draw.Image, face font.Face, text string, col color.Color, dot fixed.Point26_6) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  dot,
	}
	d.DrawString(text)
}
