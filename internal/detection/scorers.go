package detection

import (
	"math"
	"sort"

	"github.com/maax3v3/faceblend/internal/color"
	"github.com/maax3v3/faceblend/internal/geometry"
	"github.com/maax3v3/faceblend/internal/pixbuf"
)

const (
	SampleStride       = 10  // pixels between samples on both axes
	BlockSize          = 40  // side of a skin candidate block
	ClusterMargin      = 30  // expansion applied to the best block on each side
	NudgeFactor        = 0.3 // share of the center offset removed by Refine
	MinConfidence      = 0.5 // provisional regions at or below this fall back
	FallbackSide       = 0.3
	FallbackConfidence = 0.3
	SymmetryReach      = 20  // columns compared on each side of the midline
	EdgeThreshold      = 100 // gradient magnitude that counts as an edge
	EdgeWeight         = 0.1 // maximum confidence bonus from edge support
)

// Candidate is a skin-colored block found by SkinCandidates.
type Candidate struct {
	Region geometry.Region
}

// SkinCandidates samples the buffer every SampleStride pixels and returns a
// BlockSize square around every skin-tone sample, in row-major scan order.
func SkinCandidates(buf *pixbuf.Buffer) []Candidate {
	rows := (buf.Height + SampleStride - 1) / SampleStride
	perRow := make([][]Candidate, rows)

	pixbuf.ParallelRows(0, rows, func(sr, er int) {
		for row := sr; row < er; row++ {
			y := row * SampleStride
			for x := 0; x < buf.Width; x += SampleStride {
				px := buf.At(x, y)
				hsv := color.RGBToHSV(px.R, px.G, px.B)
				if !color.IsSkinTone(px.R, px.G, px.B, hsv) {
					continue
				}
				perRow[row] = append(perRow[row], Candidate{Region: geometry.Region{
					X:          float64(x - BlockSize/2),
					Y:          float64(y - BlockSize/2),
					Width:      BlockSize,
					Height:     BlockSize,
					Confidence: color.SkinConfidence(hsv),
				}})
			}
		}
	})

	var out []Candidate
	for _, c := range perRow {
		out = append(out, c...)
	}
	return out
}

// Cluster picks the most confident candidate (earliest in scan order on
// ties) and grows it by ClusterMargin on every side.
func Cluster(candidates []Candidate) (geometry.Region, bool) {
	if len(candidates) == 0 {
		return geometry.Region{}, false
	}
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Region.Confidence > sorted[j].Region.Confidence
	})
	best := sorted[0].Region
	return geometry.Region{
		X:          best.X - ClusterMargin,
		Y:          best.Y - ClusterMargin,
		Width:      best.Width + 2*ClusterMargin,
		Height:     best.Height + 2*ClusterMargin,
		Confidence: best.Confidence,
	}, true
}

// Symmetry compares brightness on either side of the buffer's vertical
// midline over a band of height/10 rows starting at centerY. It returns a
// score in [0, 100] where 100 means both sides match. Buffers too small to
// compare score 100.
func Symmetry(buf *pixbuf.Buffer, centerY float64) float64 {
	w, h := buf.Width, buf.Height
	midX := w / 2
	startY := int(math.Floor(centerY))
	if startY < 0 {
		startY = 0
	}
	if startY > h-1 {
		startY = h - 1
	}
	band := h / 10
	if band < 1 {
		band = 1
	}
	endY := startY + band
	if endY > h {
		endY = h
	}

	var score float64
	var rows int
	for y := startY; y < endY; y++ {
		var left, right float64
		pixels := 0
		for off := 1; off <= SymmetryReach; off++ {
			lx, rx := midX-off, midX+off
			if lx < 0 || rx >= w {
				break
			}
			li, ri := buf.Index(lx, y), buf.Index(rx, y)
			left += float64(buf.Pix[li]) + float64(buf.Pix[li+1]) + float64(buf.Pix[li+2])
			right += float64(buf.Pix[ri]) + float64(buf.Pix[ri+1]) + float64(buf.Pix[ri+2])
			pixels++
		}
		if pixels == 0 {
			continue
		}
		diff := math.Abs(left-right) / float64(pixels)
		score += math.Max(0, 100-diff)
		rows++
	}
	if rows == 0 {
		return 100
	}
	return score / float64(rows)
}

// Refine moves the region horizontally toward the buffer center by
// NudgeFactor of the offset and scales confidence by symmetry/100.
func Refine(r geometry.Region, symmetry float64, w, h int) geometry.Region {
	centerX := math.Floor(float64(w) / 2)
	regionCX, _ := r.Center()
	r.X += (centerX - regionCX) * NudgeFactor
	r.Confidence = clampUnit(r.Confidence * symmetry / 100)
	return r
}

// EdgeSample is a strided point whose intensity gradient passed EdgeThreshold.
type EdgeSample struct {
	X, Y     int
	Strength float64
}

// EdgeSamples estimates the intensity gradient with central differences on
// the SampleStride grid and keeps the strong ones.
func EdgeSamples(buf *pixbuf.Buffer) []EdgeSample {
	var edges []EdgeSample
	for y := 1; y < buf.Height-1; y += SampleStride {
		for x := 1; x < buf.Width-1; x += SampleStride {
			gx := buf.Intensity(x+1, y) - buf.Intensity(x-1, y)
			gy := buf.Intensity(x, y+1) - buf.Intensity(x, y-1)
			g := math.Sqrt(gx*gx + gy*gy)
			if g > EdgeThreshold {
				edges = append(edges, EdgeSample{X: x, Y: y, Strength: g})
			}
		}
	}
	return edges
}

// EdgeSupport is the density of edge samples inside r relative to the
// number of grid samples the region spans, in [0, 1].
func EdgeSupport(edges []EdgeSample, r geometry.Region) float64 {
	if r.Empty() || len(edges) == 0 {
		return 0
	}
	inside := 0
	for _, e := range edges {
		x, y := float64(e.X), float64(e.Y)
		if x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height {
			inside++
		}
	}
	expected := math.Max(1, math.Floor(r.Width/SampleStride)*math.Floor(r.Height/SampleStride))
	return clampUnit(float64(inside) / expected)
}

// WithEdgeSupport adds up to EdgeWeight to the region's confidence.
func WithEdgeSupport(r geometry.Region, support float64) geometry.Region {
	r.Confidence = clampUnit(r.Confidence + EdgeWeight*clampUnit(support))
	return r
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
