package composite

import (
	"image"
	"math"
	"sync/atomic"

	"github.com/maax3v3/faceblend/internal/color"
	"github.com/maax3v3/faceblend/internal/geometry"
	"github.com/maax3v3/faceblend/internal/pixbuf"
)

const (
	DefaultAlpha  = 0.92
	RadiusXFactor = 0.85 // ellipse radius as a share of the region half-width
	RadiusYFactor = 0.95 // ellipse radius as a share of the region half-height
)

// Options tunes the compositing pass.
type Options struct {
	// Alpha is the fixed opacity of the pasted source, in (0, 1].
	// Zero selects DefaultAlpha.
	Alpha float64

	// EdgeBlur softens a thin ring around the region boundary after
	// blending. It touches pixels outside the mask, so it is off by default.
	EdgeBlur bool
}

// Stats reports what a compositing pass did.
type Stats struct {
	Blended int // pixels that received a source-derived value
	Skipped int // mask pixels that fell outside the output buffer
	Blurred int // pixels rewritten by the edge blur
}

// Ellipse is the blend mask inscribed in a target region.
type Ellipse struct {
	CX, CY float64
	RX, RY float64
}

// MaskFor builds the blend ellipse for a target region.
func MaskFor(r geometry.Region) Ellipse {
	cx, cy := r.Center()
	return Ellipse{
		CX: cx,
		CY: cy,
		RX: r.Width / 2 * RadiusXFactor,
		RY: r.Height / 2 * RadiusYFactor,
	}
}

// Distance is the normalized distance of (x, y) from the center: 0 at the
// center, 1 on the boundary.
func (e Ellipse) Distance(x, y float64) float64 {
	if e.RX <= 0 || e.RY <= 0 {
		return math.Inf(1)
	}
	dx := (x - e.CX) / e.RX
	dy := (y - e.CY) / e.RY
	return math.Sqrt(dx*dx + dy*dy)
}

// ContainsPixel reports whether the center of pixel (x, y) lies inside the
// ellipse.
func (e Ellipse) ContainsPixel(x, y int) bool {
	return e.Distance(float64(x)+0.5, float64(y)+0.5) <= 1
}

// Bounds returns the integer rectangle covering the ellipse.
func (e Ellipse) Bounds() image.Rectangle {
	return image.Rect(
		int(math.Floor(e.CX-e.RX)),
		int(math.Floor(e.CY-e.RY)),
		int(math.Ceil(e.CX+e.RX)),
		int(math.Ceil(e.CY+e.RY)),
	)
}

// Composite draws srcRegion of src, scaled and placed by m, into a copy of
// dst through the elliptical mask of dstRegion. dst itself is not modified.
// Pixels outside the mask keep their original value.
func Composite(src, dst *pixbuf.Buffer, srcRegion, dstRegion geometry.Region, m geometry.Mapping, opts Options) (*pixbuf.Buffer, Stats) {
	out := dst.Clone()
	var stats Stats
	if m.Scale <= 0 || dstRegion.Empty() {
		return out, stats
	}

	alpha := opts.Alpha
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultAlpha
	}

	sampleBounds := srcRegion.Bounds().Intersect(src.Bounds())
	if sampleBounds.Empty() {
		sampleBounds = src.Bounds()
	}

	mask := MaskFor(dstRegion)
	inv := m.DestToSource()
	area := mask.Bounds()

	var blended, skipped atomic.Int64
	pixbuf.ParallelRows(area.Min.Y, area.Max.Y, func(sy, ey int) {
		var nBlend, nSkip int64
		for y := sy; y < ey; y++ {
			for x := area.Min.X; x < area.Max.X; x++ {
				if !mask.ContainsPixel(x, y) {
					continue
				}
				if !out.InBounds(x, y) {
					nSkip++
					continue
				}
				sxf, syf := geometry.Apply(inv, float64(x)+0.5, float64(y)+0.5)
				s := sampleBilinear(src, sampleBounds, sxf, syf)
				i := out.Index(x, y)
				blendInto(out.Pix[i:i+4], s, alpha)
				nBlend++
			}
		}
		blended.Add(nBlend)
		skipped.Add(nSkip)
	})
	stats.Blended = int(blended.Load())
	stats.Skipped = int(skipped.Load())

	if opts.EdgeBlur {
		stats.Blurred = edgeBlur(out, dstRegion)
	}
	return out, stats
}

// blendInto composites s over the 4 samples of d with the given opacity,
// scaled by the source alpha.
func blendInto(d []uint8, s [4]float64, alpha float64) {
	a := alpha * s[3] / 255
	for c := 0; c < 3; c++ {
		d[c] = color.Clamp8(s[c]*a + float64(d[c])*(1-a))
	}
	d[3] = color.Clamp8(255*a + float64(d[3])*(1-a))
}

// sampleBilinear reads src at continuous coordinates (x, y), where pixel
// centers sit at half-integers. Neighbor reads are clamped to bounds, so the
// border pixels of the sampled region repeat outward.
func sampleBilinear(src *pixbuf.Buffer, bounds image.Rectangle, x, y float64) [4]float64 {
	fx := x - 0.5
	fy := y - 0.5
	x0 := math.Floor(fx)
	y0 := math.Floor(fy)
	tx := fx - x0
	ty := fy - y0

	ix0 := clampInt(int(x0), bounds.Min.X, bounds.Max.X-1)
	ix1 := clampInt(int(x0)+1, bounds.Min.X, bounds.Max.X-1)
	iy0 := clampInt(int(y0), bounds.Min.Y, bounds.Max.Y-1)
	iy1 := clampInt(int(y0)+1, bounds.Min.Y, bounds.Max.Y-1)

	p00 := src.Index(ix0, iy0)
	p10 := src.Index(ix1, iy0)
	p01 := src.Index(ix0, iy1)
	p11 := src.Index(ix1, iy1)

	var out [4]float64
	for c := 0; c < 4; c++ {
		top := float64(src.Pix[p00+c])*(1-tx) + float64(src.Pix[p10+c])*tx
		bot := float64(src.Pix[p01+c])*(1-tx) + float64(src.Pix[p11+c])*tx
		out[c] = top*(1-ty) + bot*ty
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
