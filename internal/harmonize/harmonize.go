// Package harmonize matches the colour of a pasted region to the pixels
// around it: ring sampling, statistics, a per-pixel transform, a radial
// fade toward the surroundings and a light smoothing pass.
package harmonize

import (
	"math"

	"github.com/maax3v3/faceblend/internal/geometry"
	"github.com/maax3v3/faceblend/internal/pixbuf"
)

const (
	GradientStrength = 0.3 // blend share toward the ring colour at the region corners
	SmoothRadius     = 2
	SmoothStep       = 2 // smoothing visits every other pixel on both axes
)

// Options selects which passes Harmonize runs. The zero value runs all of
// them.
type Options struct {
	SkipTransform bool
	SkipGradient  bool
	SkipSmooth    bool
}

// Report describes a Harmonize run.
type Report struct {
	Transform Transform
	Source    ColorStats // pasted pixels
	Target    ColorStats // ring around the region

	RingSamples int
	RingEmpty   bool // no ring sample was in bounds; Target.Average is Gray

	Skipped int // smoothing windows that crossed the buffer edge
}

// Harmonize corrects the colour of region r in buf in place.
func Harmonize(buf *pixbuf.Buffer, r geometry.Region, opts Options) Report {
	ring := SampleRing(buf, r)
	rep := Report{
		RingSamples: len(ring.Samples),
		RingEmpty:   ring.Empty,
		Source:      ComputeStats(SampleInterior(buf, r)),
		Target:      ComputeStats(ring.Samples),
		Transform:   Identity(),
	}

	if !opts.SkipTransform {
		rep.Transform = DeriveTransform(rep.Source, rep.Target)
		ApplyTransform(buf, r, rep.Transform)
	}
	if !opts.SkipGradient {
		RadialGradient(buf, r, rep.Target.Average)
	}
	if !opts.SkipSmooth {
		rep.Skipped = Smooth(buf, r, SmoothRadius)
	}
	return rep
}

// RadialGradient blends each region pixel toward c by GradientStrength
// times its distance from the region center, normalized so the corners
// sit at 1.
func RadialGradient(buf *pixbuf.Buffer, r geometry.Region, c RGB) {
	rect := r.Bounds().Intersect(buf.Bounds())
	halfDiag := math.Hypot(r.Width, r.Height) / 2
	if rect.Empty() || halfDiag == 0 {
		return
	}
	cx, cy := r.Center()
	target := [3]float64{c.R, c.G, c.B}

	pixbuf.ParallelRows(rect.Min.Y, rect.Max.Y, func(sy, ey int) {
		for y := sy; y < ey; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy) / halfDiag
				s := math.Min(1, d) * GradientStrength
				i := buf.Index(x, y)
				for ch := 0; ch < 3; ch++ {
					buf.Pix[i+ch] = uint8(math.Round(float64(buf.Pix[i+ch])*(1-s) + target[ch]*s))
				}
			}
		}
	})
}

// Smooth replaces every other pixel of the region (both axes, starting
// radius pixels in) with a gaussian-weighted average of its neighborhood,
// sigma = radius/3. Reads come from a snapshot. Pixels whose window
// crosses the buffer edge are left alone and counted in the return value.
func Smooth(buf *pixbuf.Buffer, r geometry.Region, radius int) int {
	rect := r.Bounds()
	if rect.Empty() || radius <= 0 {
		return 0
	}
	kernel := gaussianKernel(radius)
	snap := buf.Clone()

	skipped := 0
	for y := rect.Min.Y + radius; y < rect.Max.Y-radius; y += SmoothStep {
		for x := rect.Min.X + radius; x < rect.Max.X-radius; x += SmoothStep {
			if !snap.InBounds(x-radius, y-radius) || !snap.InBounds(x+radius, y+radius) {
				skipped++
				continue
			}
			var acc [3]float64
			k := 0
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					i := snap.Index(x+dx, y+dy)
					w := kernel[k]
					acc[0] += float64(snap.Pix[i]) * w
					acc[1] += float64(snap.Pix[i+1]) * w
					acc[2] += float64(snap.Pix[i+2]) * w
					k++
				}
			}
			i := buf.Index(x, y)
			for ch := 0; ch < 3; ch++ {
				buf.Pix[i+ch] = uint8(math.Round(acc[ch]))
			}
		}
	}
	return skipped
}

// gaussianKernel returns the normalized (2r+1)² weights in row-major order.
func gaussianKernel(radius int) []float64 {
	sigma := float64(radius) / 3
	n := 2*radius + 1
	k := make([]float64, 0, n*n)
	var sum float64
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			w := math.Exp(-float64(dx*dx+dy*dy) / (2 * sigma * sigma))
			k = append(k, w)
			sum += w
		}
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}
