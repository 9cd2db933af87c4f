package detection

import (
	"fmt"
	"math"

	"github.com/maax3v3/faceblend/internal/geometry"
	"github.com/maax3v3/faceblend/internal/pixbuf"
)

// Strategy names accepted by ByName.
const (
	StrategyCombined = "combined" // skin sampling refined by symmetry and edges
	StrategyCenter   = "center"   // fixed upper-center guess
)

// Detection is the outcome of running a Detector on one buffer.
type Detection struct {
	Region geometry.Region

	// FellBack is true when no usable skin region was found and the fixed
	// geometric guess was returned instead.
	FellBack bool

	Candidates  int     // skin samples that produced a candidate block
	Symmetry    float64 // 0-100, zero when not measured
	EdgeSupport float64 // 0-1, zero when not measured
}

// Detector locates a face-like region in a buffer.
type Detector interface {
	Detect(buf *pixbuf.Buffer) Detection
}

// ByName returns the detector for a strategy name. The empty string selects
// the combined detector.
func ByName(name string) (Detector, error) {
	switch name {
	case "", StrategyCombined:
		return &CombinedDetector{}, nil
	case StrategyCenter:
		return &CenterDetector{}, nil
	default:
		return nil, fmt.Errorf("unknown detection strategy %q (supported: %s, %s)",
			name, StrategyCombined, StrategyCenter)
	}
}

// CombinedDetector merges skin sampling, vertical symmetry and edge density.
// Skin sampling alone decides placement; symmetry nudges it toward the
// image center and scales confidence; edges only add a small bonus.
type CombinedDetector struct{}

// Detect runs the scorers and applies the pick-best-else-fallback policy.
func (d *CombinedDetector) Detect(buf *pixbuf.Buffer) Detection {
	w, h := buf.Width, buf.Height
	if w <= 0 || h <= 0 {
		return Detection{FellBack: true}
	}

	candidates := SkinCandidates(buf)
	det := Detection{Candidates: len(candidates)}

	provisional, found := Cluster(candidates)
	if found {
		_, cy := provisional.Center()
		det.Symmetry = Symmetry(buf, cy)
		provisional = Refine(provisional, det.Symmetry, w, h)

		det.EdgeSupport = EdgeSupport(EdgeSamples(buf), provisional)
		provisional = WithEdgeSupport(provisional, det.EdgeSupport)
	}

	det.Region, det.FellBack = Choose(provisional, found, w, h)
	return det
}

// CenterDetector assumes the face sits around the upper third of the frame.
// It never inspects pixel values.
type CenterDetector struct{}

// Detect returns a 1:1.2 box centered at (w/2, h/3).
func (d *CenterDetector) Detect(buf *pixbuf.Buffer) Detection {
	w, h := buf.Width, buf.Height
	if w <= 0 || h <= 0 {
		return Detection{FellBack: true}
	}
	cx := math.Floor(float64(w) / 2)
	cy := math.Floor(float64(h) / 3)
	fw := math.Min(float64(w), float64(h)) * 0.4
	fh := fw * 1.2
	r := geometry.Region{
		X:          math.Max(0, cx-fw/2),
		Y:          math.Max(0, cy-fh/2),
		Width:      fw,
		Height:     fh,
		Confidence: 0.8,
	}
	return Detection{Region: r.Clip(w, h)}
}

// Choose keeps the provisional region when it is confident enough and still
// has area after clipping; otherwise it returns the geometric fallback.
func Choose(provisional geometry.Region, found bool, w, h int) (geometry.Region, bool) {
	if found && provisional.Confidence > MinConfidence {
		clipped := provisional.Clip(w, h)
		if !clipped.Empty() {
			return clipped, false
		}
	}
	return Fallback(w, h).Clip(w, h), true
}

// Fallback is a square of side min(w,h)*0.3 centered at (w/2, h/3), since
// faces are usually photographed above the image center.
func Fallback(w, h int) geometry.Region {
	side := math.Min(float64(w), float64(h)) * FallbackSide
	cx := float64(w) / 2
	cy := float64(h) / 3
	return geometry.Region{
		X:          cx - side/2,
		Y:          cy - side/2,
		Width:      side,
		Height:     side,
		Confidence: FallbackConfidence,
	}
}
