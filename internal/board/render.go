package board

import (
	"encoding/base64"
	"fmt"
)

// Limits on what a caller may ask to render.
const (
	MinSize = 16
	MaxSize = 2048
	// MaxPlacementLen allows 8 ranks of 8 characters plus separators with room to spare.
	MaxPlacementLen = 100
)

// CheckSize rejects pixel sizes outside [MinSize, MaxSize].
func CheckSize(size int) error {
	if size < MinSize || size > MaxSize {
		return fmt.Errorf("board size %d out of range [%d, %d]", size, MinSize, MaxSize)
	}
	return nil
}

// CheckPlacement rejects placement fields longer than MaxPlacementLen.
func CheckPlacement(fen string) error {
	if n := len(Placement(fen)); n > MaxPlacementLen {
		return fmt.Errorf("placement is %d bytes, limit is %d", n, MaxPlacementLen)
	}
	return nil
}

// Artifact is one rendered board in both encodings.
type Artifact struct {
	Placement string
	Size      int
	SVG       []byte
	PNG       []byte
}

// DataURL returns the PNG as a data URL for embedding in HTML.
func (a *Artifact) DataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(a.PNG)
}

// SVGDataURL returns the SVG as a data URL.
func (a *Artifact) SVGDataURL() string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(a.SVG)
}

// Renderer produces artifacts for a FEN.
type Renderer struct {
	raster *Rasterizer
}

// NewRenderer returns a renderer drawing PNGs with raster.
func NewRenderer(raster *Rasterizer) *Renderer {
	return &Renderer{raster: raster}
}

// Render draws fen at size pixels as SVG and PNG.
func (r *Renderer) Render(fen string, size int) (*Artifact, error) {
	if err := CheckSize(size); err != nil {
		return nil, err
	}
	if err := CheckPlacement(fen); err != nil {
		return nil, err
	}
	pngData, err := r.raster.RenderPNG(fen, size)
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Placement: Placement(fen),
		Size:      size,
		SVG:       RenderSVG(fen, size),
		PNG:       pngData,
	}, nil
}
