package board

import (
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// point is a position inside a glyph box, in units of the box edge, y down.
type point struct{ x, y float64 }

// outline is a piece silhouette made of closed polygons. Every polygon winds
// the same way so overlapping parts add up instead of cancelling.
type outline [][]point

// ellipse approximates an ellipse with n points, wound like the other polygons.
func ellipse(cx, cy, rx, ry float64, n int) []point {
	pts := make([]point, n)
	for i := range pts {
		t := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = point{cx + rx*math.Cos(t), cy - ry*math.Sin(t)}
	}
	return pts
}

func circle(cx, cy, r float64) []point { return ellipse(cx, cy, r, r, 24) }

var pedestal = []point{{0.20, 0.92}, {0.80, 0.92}, {0.75, 0.82}, {0.25, 0.82}}

// pieceOutlines is the bundled piece set, keyed by the solid chess symbols
// that Glyph emits. It draws the same six shapes a chess font would.
var pieceOutlines = map[rune]outline{
	'♟': {
		pedestal,
		{{0.32, 0.82}, {0.68, 0.82}, {0.58, 0.50}, {0.42, 0.50}},
		circle(0.50, 0.38, 0.14),
	},
	'♜': {
		pedestal,
		{{0.30, 0.82}, {0.70, 0.82}, {0.70, 0.35}, {0.30, 0.35}},
		{
			{0.25, 0.35}, {0.75, 0.35}, {0.75, 0.15}, {0.65, 0.15}, {0.65, 0.22}, {0.55, 0.22},
			{0.55, 0.15}, {0.45, 0.15}, {0.45, 0.22}, {0.35, 0.22}, {0.35, 0.15}, {0.25, 0.15},
		},
	},
	'♞': {
		pedestal,
		{
			{0.30, 0.82}, {0.70, 0.82}, {0.72, 0.55}, {0.68, 0.30}, {0.55, 0.15}, {0.50, 0.08},
			{0.45, 0.17}, {0.30, 0.30}, {0.20, 0.48}, {0.24, 0.56}, {0.32, 0.52}, {0.42, 0.44},
			{0.36, 0.60},
		},
	},
	'♝': {
		pedestal,
		{{0.36, 0.82}, {0.64, 0.82}, {0.58, 0.60}, {0.42, 0.60}},
		ellipse(0.50, 0.42, 0.17, 0.22, 32),
		circle(0.50, 0.15, 0.06),
	},
	'♛': {
		pedestal,
		{{0.28, 0.82}, {0.72, 0.82}, {0.80, 0.30}, {0.65, 0.55}, {0.50, 0.25}, {0.35, 0.55}, {0.20, 0.30}},
		circle(0.20, 0.25, 0.055),
		circle(0.50, 0.20, 0.055),
		circle(0.80, 0.25, 0.055),
	},
	'♚': {
		pedestal,
		{{0.30, 0.82}, {0.70, 0.82}, {0.66, 0.45}, {0.34, 0.45}},
		ellipse(0.50, 0.45, 0.20, 0.12, 32),
		{{0.46, 0.33}, {0.54, 0.33}, {0.54, 0.08}, {0.46, 0.08}},
		{{0.38, 0.20}, {0.62, 0.20}, {0.62, 0.13}, {0.38, 0.13}},
	},
}

// pieceMask rasterizes the outline for sym into a box-sized alpha mask placed
// so that the box is centred on (cx, cy). It reports false for symbols
// outside the piece set.
func pieceMask(z *vector.Rasterizer, sym rune, cx, cy, box float64) (*image.Alpha, image.Rectangle, bool) {
	shape, ok := pieceOutlines[sym]
	if !ok {
		return nil, image.Rectangle{}, false
	}

	x0, y0 := cx-box/2, cy-box/2
	r := image.Rect(int(math.Floor(x0)), int(math.Floor(y0)), int(math.Ceil(x0+box)), int(math.Ceil(y0+box)))
	ox, oy := x0-float64(r.Min.X), y0-float64(r.Min.Y)

	z.Reset(r.Dx(), r.Dy())
	for _, poly := range shape {
		for i, p := range poly {
			x, y := float32(ox+p.x*box), float32(oy+p.y*box)
			if i == 0 {
				z.MoveTo(x, y)
				continue
			}
			z.LineTo(x, y)
		}
		z.ClosePath()
	}

	mask := image.NewAlpha(image.Rect(0, 0, r.Dx(), r.Dy()))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask, r, true
}

// fillMask paints col through mask at r. DrawMask clips to dst.
func fillMask(dst draw.Image, r image.Rectangle, mask *image.Alpha, col image.Image) {
	draw.DrawMask(dst, r, col, image.Point{}, mask, image.Point{}, draw.Over)
}
