package geometry

import (
	"fmt"
	"image"
	"math"
)

// Region is a rectangle in pixel coordinates approximating where a face is.
// Coordinates may be fractional until they are turned into pixel bounds.
type Region struct {
	X, Y          float64
	Width, Height float64
	Confidence    float64 // in [0, 1]
}

// Center returns the midpoint of the region.
func (r Region) Center() (cx, cy float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Empty reports whether the region has no area.
func (r Region) Empty() bool {
	return !(r.Width > 0) || !(r.Height > 0)
}

// Clip intersects the region with a w×h buffer and clamps the confidence
// into [0, 1]. A region entirely outside the buffer clips to zero size.
func (r Region) Clip(w, h int) Region {
	x0 := clamp(r.X, 0, float64(w))
	y0 := clamp(r.Y, 0, float64(h))
	x1 := clamp(r.X+r.Width, 0, float64(w))
	y1 := clamp(r.Y+r.Height, 0, float64(h))
	return Region{
		X:          x0,
		Y:          y0,
		Width:      math.Max(0, x1-x0),
		Height:     math.Max(0, y1-y0),
		Confidence: clamp(r.Confidence, 0, 1),
	}
}

// Contains reports whether the region lies fully inside a w×h buffer.
func (r Region) Contains(w, h int) bool {
	return r.X >= 0 && r.Y >= 0 && r.X+r.Width <= float64(w) && r.Y+r.Height <= float64(h)
}

// Bounds returns the smallest integer rectangle covering the region.
func (r Region) Bounds() image.Rectangle {
	if r.Empty() {
		return image.Rectangle{}
	}
	return image.Rect(
		int(math.Floor(r.X)),
		int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.Width)),
		int(math.Ceil(r.Y+r.Height)),
	)
}

// Overlaps reports whether the two regions share any area.
func (r Region) Overlaps(o Region) bool {
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

func (r Region) String() string {
	return fmt.Sprintf("(%.1f,%.1f %.1fx%.1f conf=%.2f)", r.X, r.Y, r.Width, r.Height, r.Confidence)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
