package harmonize

import (
	"github.com/maax3v3/faceblend/internal/geometry"
	"github.com/maax3v3/faceblend/internal/pixbuf"
)

const (
	RingOffset   = 20 // distance of the sampling bands from the region edge
	SampleStride = 5
)

// Ring is what SampleRing read around a region.
type Ring struct {
	Samples []Sample
	Average RGB

	// Empty is true when every band fell outside the buffer and Average
	// is Gray.
	Empty bool
}

// SampleRing reads four bands of pixels RingOffset outside the region
// (above, below, left, right) every SampleStride pixels. Points outside the
// buffer are skipped.
func SampleRing(buf *pixbuf.Buffer, r geometry.Region) Ring {
	rect := r.Bounds()
	var ring Ring
	take := func(x, y int) {
		if buf.InBounds(x, y) {
			ring.Samples = append(ring.Samples, sampleOf(buf.At(x, y)))
		}
	}

	above, below := rect.Min.Y-RingOffset, rect.Max.Y+RingOffset
	for x := rect.Min.X; x < rect.Max.X; x += SampleStride {
		take(x, above)
		take(x, below)
	}
	left, right := rect.Min.X-RingOffset, rect.Max.X+RingOffset
	for y := rect.Min.Y; y < rect.Max.Y; y += SampleStride {
		take(left, y)
		take(right, y)
	}

	if len(ring.Samples) == 0 {
		ring.Empty = true
		ring.Average = Gray
		return ring
	}
	ring.Average = average(ring.Samples)
	return ring
}

// SampleInterior reads the region every SampleStride pixels on both axes,
// skipping points outside the buffer.
func SampleInterior(buf *pixbuf.Buffer, r geometry.Region) []Sample {
	rect := r.Bounds().Intersect(buf.Bounds())
	var out []Sample
	for y := rect.Min.Y; y < rect.Max.Y; y += SampleStride {
		for x := rect.Min.X; x < rect.Max.X; x += SampleStride {
			out = append(out, sampleOf(buf.At(x, y)))
		}
	}
	return out
}
