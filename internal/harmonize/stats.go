package harmonize

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/maax3v3/faceblend/internal/color"
)

// Brightness bucket thresholds.
const (
	HighlightThreshold = 180
	MidtoneThreshold   = 100

	// DefaultDynamicRange stands in when no skin-like samples exist.
	DefaultDynamicRange = 100
)

// RGB is an average colour with fractional channels in 0..255.
type RGB struct {
	R, G, B float64
}

// Gray is the neutral fallback colour.
var Gray = RGB{R: 128, G: 128, B: 128}

// HSV converts the average to HSV.
func (c RGB) HSV() color.HSV {
	return color.RGBFloatToHSV(c.R, c.G, c.B)
}

// Sample is one pixel read during analysis.
type Sample struct {
	R, G, B    uint8
	Brightness float64
}

func sampleOf(c color.RGBA) Sample {
	return Sample{R: c.R, G: c.G, B: c.B, Brightness: color.Brightness(c.R, c.G, c.B)}
}

// ColorStats summarizes a set of samples.
type ColorStats struct {
	Average      RGB
	Temperature  float64 // Average.R / (Average.B + 1)
	Saturation   float64 // (max-min)/max over the average channels
	DynamicRange float64 // max-min brightness over skin-like samples

	Highlights []Sample
	Midtones   []Sample
	Shadows    []Sample

	Total int // samples considered, skin-like or not
}

// Skin returns the bucketed samples in highlight, midtone, shadow order.
func (s ColorStats) Skin() []Sample {
	out := make([]Sample, 0, len(s.Highlights)+len(s.Midtones)+len(s.Shadows))
	out = append(out, s.Highlights...)
	out = append(out, s.Midtones...)
	return append(out, s.Shadows...)
}

// BucketAverage returns the average colour of one bucket, or Gray when it
// is empty.
func BucketAverage(samples []Sample) RGB {
	if len(samples) == 0 {
		return Gray
	}
	return average(samples)
}

// ComputeStats buckets the skin-like samples by brightness and derives the
// summary scores. The average covers skin-like samples; when there are
// none it covers every sample, and with no samples at all it is Gray.
func ComputeStats(samples []Sample) ColorStats {
	st := ColorStats{Total: len(samples)}
	for _, s := range samples {
		if !color.IsLikelySkin(color.RGBToHSV(s.R, s.G, s.B)) {
			continue
		}
		switch {
		case s.Brightness > HighlightThreshold:
			st.Highlights = append(st.Highlights, s)
		case s.Brightness > MidtoneThreshold:
			st.Midtones = append(st.Midtones, s)
		default:
			st.Shadows = append(st.Shadows, s)
		}
	}

	skin := st.Skin()
	switch {
	case len(skin) > 0:
		st.Average = average(skin)
	case len(samples) > 0:
		st.Average = average(samples)
	default:
		st.Average = Gray
	}

	st.Temperature = st.Average.R / (st.Average.B + 1)
	st.Saturation = saturation(st.Average)
	st.DynamicRange = dynamicRange(skin)
	return st
}

func average(samples []Sample) RGB {
	rs := make([]float64, len(samples))
	gs := make([]float64, len(samples))
	bs := make([]float64, len(samples))
	for i, s := range samples {
		rs[i], gs[i], bs[i] = float64(s.R), float64(s.G), float64(s.B)
	}
	return RGB{R: stat.Mean(rs, nil), G: stat.Mean(gs, nil), B: stat.Mean(bs, nil)}
}

func saturation(c RGB) float64 {
	ch := []float64{c.R, c.G, c.B}
	hi := floats.Max(ch)
	if hi == 0 {
		return 0
	}
	return (hi - floats.Min(ch)) / hi
}

func dynamicRange(samples []Sample) float64 {
	if len(samples) == 0 {
		return DefaultDynamicRange
	}
	b := make([]float64, len(samples))
	for i, s := range samples {
		b[i] = s.Brightness
	}
	return floats.Max(b) - floats.Min(b)
}
