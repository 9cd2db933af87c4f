package geometry

import (
	"math"

	"golang.org/x/image/math/f64"
)

// FitShrink leaves a 5% margin so the mapped source never touches the edge
// of the target region.
const FitShrink = 0.95

// Mapping places a source region inside a target region: the source is
// scaled uniformly by Scale and its top-left corner lands on
// (OffsetX, OffsetY) in target coordinates.
type Mapping struct {
	Source  Region
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// Map computes the uniform scale and offset that center src inside dst.
// Callers must reject zero-area regions first; a degenerate source yields
// a zero scale rather than an error.
func Map(src, dst Region) Mapping {
	scale := 0.0
	if !src.Empty() {
		scale = math.Min(dst.Width/src.Width, dst.Height/src.Height) * FitShrink
	}
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale < 0 {
		scale = 0
	}
	cx, cy := dst.Center()
	return Mapping{
		Source:  src,
		Scale:   scale,
		OffsetX: cx - src.Width*scale/2,
		OffsetY: cy - src.Height*scale/2,
	}
}

// Destination returns the target-space rectangle covered by the scaled source.
func (m Mapping) Destination() Region {
	return Region{
		X:          m.OffsetX,
		Y:          m.OffsetY,
		Width:      m.Source.Width * m.Scale,
		Height:     m.Source.Height * m.Scale,
		Confidence: m.Source.Confidence,
	}
}

// SourceToDest is the affine transform taking source pixel coordinates to
// target pixel coordinates.
func (m Mapping) SourceToDest() f64.Aff3 {
	return f64.Aff3{
		m.Scale, 0, m.OffsetX - m.Source.X*m.Scale,
		0, m.Scale, m.OffsetY - m.Source.Y*m.Scale,
	}
}

// DestToSource is the inverse of SourceToDest. It is the zero transform
// when Scale is zero.
func (m Mapping) DestToSource() f64.Aff3 {
	if m.Scale == 0 {
		return f64.Aff3{}
	}
	inv := 1 / m.Scale
	return f64.Aff3{
		inv, 0, m.Source.X - m.OffsetX*inv,
		0, inv, m.Source.Y - m.OffsetY*inv,
	}
}

// Apply transforms (x, y) by a.
func Apply(a f64.Aff3, x, y float64) (float64, float64) {
	return a[0]*x + a[1]*y + a[2], a[3]*x + a[4]*y + a[5]
}
