package board

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func newTestRasterizer(t *testing.T) *Rasterizer {
	t.Helper()
	r, err := NewRasterizer(nil)
	if err != nil {
		t.Fatalf("NewRasterizer() error = %v", err)
	}
	return r
}

func TestRasterizer_EmptyBoardColours(t *testing.T) {
	r := newTestRasterizer(t)

	data, err := r.RenderPNG("8/8/8/8/8/8/8/8", 80)
	if err != nil {
		t.Fatalf("RenderPNG() error = %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 80 || b.Dy() != 80 {
		t.Fatalf("bounds = %v, want 80x80", b)
	}

	light := color.RGBAModel.Convert(img.At(5, 5)).(color.RGBA)
	if light != lightRGBA {
		t.Errorf("(0,0) = %v, want light %v", light, lightRGBA)
	}
	dark := color.RGBAModel.Convert(img.At(15, 5)).(color.RGBA)
	if dark != darkRGBA {
		t.Errorf("(0,1) = %v, want dark %v", dark, darkRGBA)
	}
}

func TestRasterizer_Deterministic(t *testing.T) {
	r := newTestRasterizer(t)

	a, err := r.RenderPNG(afterNf3, 120)
	if err != nil {
		t.Fatalf("RenderPNG() error = %v", err)
	}
	b, err := r.RenderPNG(afterNf3, 120)
	if err != nil {
		t.Fatalf("RenderPNG() error = %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("RenderPNG output differs between calls")
	}

	empty, err := r.RenderPNG("8/8/8/8/8/8/8/8", 120)
	if err != nil {
		t.Fatalf("RenderPNG() error = %v", err)
	}
	if bytes.Equal(a, empty) {
		t.Fatal("pieces were not drawn")
	}
}

func TestRasterizer_PieceSymbols(t *testing.T) {
	r := newTestRasterizer(t)

	for _, p := range "PNBRQKpnbrqk" {
		got := r.RasterText(p)
		if want := strings.TrimSuffix(Glyph(p), textPresentation); got != want {
			t.Errorf("RasterText(%c) = %q, want %q", p, got, want)
		}
		sym := []rune(got)
		if len(sym) != 1 || sym[0] < '♔' || sym[0] > '♟' {
			t.Errorf("RasterText(%c) = %q, want a chess symbol", p, got)
		}
		if _, ok := pieceOutlines[sym[0]]; !ok {
			t.Errorf("no bundled outline for %q", got)
		}
	}
	if r.RasterText('?') != "?" {
		t.Errorf("RasterText(?) = %q", r.RasterText('?'))
	}
	if !r.HasGlyph('N') {
		t.Fatal("bundled font should have Latin letters")
	}
}

func TestRasterizer_KnightOnF3(t *testing.T) {
	r := newTestRasterizer(t)

	var knight Cell
	for _, c := range Cells(afterNf3, 160) {
		if c.Rank == 5 && c.File == 5 {
			knight = c
		}
	}
	if knight.Piece != 'N' || knight.Fill != WhitePiece || knight.Glyph != "♞"+textPresentation {
		t.Fatalf("cell(5,5) = %c %q %q, want light-filled knight", knight.Piece, knight.Fill, knight.Glyph)
	}

	data, err := r.RenderPNG(afterNf3, 160)
	if err != nil {
		t.Fatalf("RenderPNG() error = %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	at := func(x, y float64) color.RGBA {
		return color.RGBAModel.Convert(img.At(int(x), int(y))).(color.RGBA)
	}

	if got := at(knight.Centre()); got != whiteRGBA {
		t.Errorf("white knight centre = %v, want %v", got, whiteRGBA)
	}
	// black knight on g8
	if got := at(6.5*20, 0.5*20); got != blackRGBA {
		t.Errorf("black knight centre = %v, want %v", got, blackRGBA)
	}
	// empty a6
	if got := at(0.5*20, 2.5*20); got != lightRGBA {
		t.Errorf("empty square centre = %v, want %v", got, lightRGBA)
	}
}

func TestCheckLimits(t *testing.T) {
	for _, size := range []int{0, MinSize - 1, MaxSize + 1, -8} {
		if err := CheckSize(size); err == nil {
			t.Errorf("CheckSize(%d) = nil, want error", size)
		}
	}
	for _, size := range []int{MinSize, 400, MaxSize} {
		if err := CheckSize(size); err != nil {
			t.Errorf("CheckSize(%d) error = %v", size, err)
		}
	}
	if err := CheckPlacement(afterNf3); err != nil {
		t.Errorf("CheckPlacement() error = %v", err)
	}
	long := strings.Repeat("8/", MaxPlacementLen) + "8 w - - 0 1"
	if err := CheckPlacement(long); err == nil {
		t.Error("CheckPlacement(long) = nil, want error")
	}
	rend := NewRenderer(newTestRasterizer(t))
	if _, err := rend.Render(afterNf3, MaxSize+1); err == nil {
		t.Error("Render() accepted an oversized board")
	}
	if _, err := rend.Render(long, 64); err == nil {
		t.Error("Render() accepted an oversized placement")
	}
}

func TestRasterizer_InvalidSize(t *testing.T) {
	r := newTestRasterizer(t)
	if _, err := r.RenderPNG(afterNf3, 0); err == nil {
		t.Fatal("expected error for size 0")
	}
}

func TestNewRasterizer_BadFont(t *testing.T) {
	if _, err := NewRasterizer([]byte("not a font")); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := LoadRasterizer("/nonexistent/font.ttf"); err == nil {
		t.Fatal("expected read error")
	}
}

func TestRenderer_Render(t *testing.T) {
	rend := NewRenderer(newTestRasterizer(t))

	a, err := rend.Render(afterNf3, 64)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if a.Placement != Placement(afterNf3) || a.Size != 64 {
		t.Errorf("artifact = %q @ %d", a.Placement, a.Size)
	}
	if len(a.PNG) == 0 || len(a.SVG) == 0 {
		t.Fatal("artifact missing an encoding")
	}
	if got := a.DataURL(); got[:22] != "data:image/png;base64," {
		t.Errorf("DataURL() prefix = %q", got[:22])
	}
}
