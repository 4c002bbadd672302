// Package board draws chess positions from the piece-placement field of a FEN.
//
// Cells computes the geometry once; RenderSVG and Rasterizer.RenderPNG are two
// encodings of the same cell list, so a given FEN and size look the same in both.
package board

import (
	"fmt"
	"strings"
	"unicode"
)

// Board colours.
const (
	LightSquare = "#F0D9B5"
	DarkSquare  = "#B58863"
	WhitePiece  = "#FFFFFF"
	BlackPiece  = "#000000"
)

// GlyphScale is the piece glyph size relative to a cell.
const GlyphScale = 0.85

// textPresentation keeps browsers from drawing chess symbols as emoji.
const textPresentation = "\uFE0E"

// Solid glyphs are used for both colours; fill decides the side.
var symbols = map[rune]rune{
	'p': '♟',
	'r': '♜',
	'n': '♞',
	'b': '♝',
	'q': '♛',
	'k': '♚',
}

// Placement returns the piece-placement field: everything before the first space.
func Placement(fen string) string {
	placement, _, _ := strings.Cut(fen, " ")
	return placement
}

// Position is a parsed placement, top rank first. Zero means an empty square.
type Position [][]rune

// Parse expands a FEN placement into squares.
// A digit d becomes d empty squares; any other character is a piece with its case kept.
// Ranks that do not add up to 8 squares are kept as they are.
func Parse(fen string) Position {
	ranks := strings.Split(Placement(fen), "/")
	pos := make(Position, len(ranks))
	for i, rank := range ranks {
		row := make([]rune, 0, 8)
		for _, ch := range rank {
			if ch >= '0' && ch <= '9' {
				for n := 0; n < int(ch-'0'); n++ {
					row = append(row, 0)
				}
				continue
			}
			row = append(row, ch)
		}
		pos[i] = row
	}
	return pos
}

// Symbol returns the chess glyph for a piece letter, or the character itself.
func Symbol(piece rune) rune {
	if s, ok := symbols[unicode.ToLower(piece)]; ok {
		return s
	}
	return piece
}

// Glyph returns the text drawn for a piece in vector output.
func Glyph(piece rune) string {
	if s, ok := symbols[unicode.ToLower(piece)]; ok {
		return string(s) + textPresentation
	}
	return string(piece)
}

// IsWhite reports whether a piece is drawn with the light fill.
// Any character equal to its upper case counts, matching how the piece letters are written.
func IsWhite(piece rune) bool {
	return piece != 0 && unicode.ToUpper(piece) == piece
}

// Cell is one square of a rendered board.
type Cell struct {
	Rank     int
	File     int
	X        float64
	Y        float64
	Size     float64
	Dark     bool
	Piece    rune
	Glyph    string
	Fill     string
	FontSize float64
}

// Empty reports whether the square has no piece.
func (c Cell) Empty() bool { return c.Piece == 0 }

// Colour returns the square background.
func (c Cell) Colour() string {
	if c.Dark {
		return DarkSquare
	}
	return LightSquare
}

// Centre returns the centre point of the cell.
func (c Cell) Centre() (float64, float64) {
	return c.X + c.Size/2, c.Y + c.Size/2
}

// Cells lays out every parsed square of fen on a board size units wide.
func Cells(fen string, size float64) []Cell {
	cell := size / 8
	pos := Parse(fen)
	cells := make([]Cell, 0, 64)
	for r, rank := range pos {
		for f, piece := range rank {
			c := Cell{
				Rank:  r,
				File:  f,
				X:     float64(f) * cell,
				Y:     float64(r) * cell,
				Size:  cell,
				Dark:  (r+f)%2 == 1,
				Piece: piece,
			}
			if piece != 0 {
				c.Glyph = Glyph(piece)
				c.FontSize = cell * GlyphScale
				c.Fill = BlackPiece
				if IsWhite(piece) {
					c.Fill = WhitePiece
				}
			}
			cells = append(cells, c)
		}
	}
	return cells
}

// RenderSVG returns a standalone SVG document of the position.
func RenderSVG(fen string, size int) []byte {
	var b strings.Builder
	s := float64(size)
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges">`, size, size, size, size)
	b.WriteString(`<defs><filter id="shadow" x="-20%" y="-20%" width="140%" height="140%">`)
	b.WriteString(`<feDropShadow dx="1" dy="1" stdDeviation="1" flood-color="#000000" flood-opacity="0.6"/></filter></defs>`)
	fmt.Fprintf(&b, `<rect width="%s" height="%s" fill="%s"/>`, num(s), num(s), LightSquare)
	cells := Cells(fen, s)
	for _, c := range cells {
		fmt.Fprintf(&b, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`,
			num(c.X), num(c.Y), num(c.Size), num(c.Size), c.Colour())
	}
	for _, c := range cells {
		if c.Empty() {
			continue
		}
		cx, cy := c.Centre()
		filter := ""
		if c.Fill == WhitePiece {
			filter = ` filter="url(#shadow)"`
		}
		fmt.Fprintf(&b, `<text x="%s" y="%s" font-size="%s" font-family="serif" fill="%s" text-anchor="middle" dominant-baseline="central"%s>%s</text>`,
			num(cx), num(cy), num(c.FontSize), c.Fill, filter, escapeText(c.Glyph))
	}
	b.WriteString(`</svg>`)
	return []byte(b.String())
}

// num formats a coordinate without trailing zeros so output is stable.
func num(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}

func escapeText(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
