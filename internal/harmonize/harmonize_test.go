package harmonize

import (
	"math"
	"testing"

	mcol "github.com/maax3v3/faceblend/internal/color"
	"github.com/maax3v3/faceblend/internal/geometry"
	"github.com/maax3v3/faceblend/internal/pixbuf"
)

var skin = mcol.RGBA{R: 220, G: 180, B: 140, A: 255}

func sample(r, g, b uint8) Sample {
	return sampleOf(mcol.RGBA{R: r, G: g, B: b, A: 255})
}

func near(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func TestComputeStats(t *testing.T) {
	t.Run("buckets skin by brightness", func(t *testing.T) {
		st := ComputeStats([]Sample{
			sample(240, 200, 160), // highlight
			sample(220, 180, 140), // brightness exactly 180: midtone
			sample(90, 60, 40),    // shadow
			sample(128, 128, 128), // not skin
		})
		if len(st.Highlights) != 1 || len(st.Midtones) != 1 || len(st.Shadows) != 1 {
			t.Fatalf("buckets: %d/%d/%d, want 1/1/1", len(st.Highlights), len(st.Midtones), len(st.Shadows))
		}
		if st.Total != 4 {
			t.Errorf("total: got %d, want 4", st.Total)
		}
		want := RGB{R: 550.0 / 3, G: 440.0 / 3, B: 340.0 / 3}
		if !near(st.Average.R, want.R, 1e-9) || !near(st.Average.G, want.G, 1e-9) || !near(st.Average.B, want.B, 1e-9) {
			t.Errorf("average: got %+v, want %+v", st.Average, want)
		}
		if !near(st.Temperature, want.R/(want.B+1), 1e-9) {
			t.Errorf("temperature: got %f", st.Temperature)
		}
		if !near(st.Saturation, (want.R-want.B)/want.R, 1e-9) {
			t.Errorf("saturation: got %f", st.Saturation)
		}
		if !near(st.DynamicRange, 200-190.0/3, 1e-9) {
			t.Errorf("dynamic range: got %f", st.DynamicRange)
		}
	})

	t.Run("no skin averages everything", func(t *testing.T) {
		st := ComputeStats([]Sample{sample(0, 0, 200), sample(0, 0, 100)})
		if st.Average != (RGB{B: 150}) {
			t.Errorf("average: got %+v", st.Average)
		}
		if st.DynamicRange != DefaultDynamicRange {
			t.Errorf("dynamic range: got %f, want %d", st.DynamicRange, DefaultDynamicRange)
		}
	})

	t.Run("no samples", func(t *testing.T) {
		st := ComputeStats(nil)
		if st.Average != Gray {
			t.Errorf("average: got %+v, want gray", st.Average)
		}
		if st.Saturation != 0 {
			t.Errorf("saturation: got %f", st.Saturation)
		}
	})
}

func TestBucketAverage(t *testing.T) {
	if got := BucketAverage(nil); got != Gray {
		t.Errorf("empty bucket: got %+v", got)
	}
	got := BucketAverage([]Sample{sample(10, 20, 30), sample(30, 40, 50)})
	if got != (RGB{R: 20, G: 30, B: 40}) {
		t.Errorf("got %+v", got)
	}
}

func TestDeriveTransform(t *testing.T) {
	t.Run("equal stats give identity", func(t *testing.T) {
		for _, samples := range [][]Sample{
			nil,
			{sample(220, 180, 140), sample(90, 60, 40)},
			{sample(10, 200, 30)},
		} {
			st := ComputeStats(samples)
			tr := DeriveTransform(st, st)
			if !tr.IsIdentity(0) {
				t.Errorf("stats %+v: got %v", st.Average, tr)
			}
		}
	})

	t.Run("equal saturation scales by exactly one", func(t *testing.T) {
		st := ColorStats{Saturation: 0.36, Temperature: 0.2, DynamicRange: 80}
		tr := DeriveTransform(st, st)
		if tr.SaturationScale != 1 || tr.TemperatureScale != 1 || tr.ContrastScale != 1 {
			t.Errorf("got %+v", tr)
		}
	})

	t.Run("zero source scores stay finite", func(t *testing.T) {
		src := ColorStats{Average: RGB{}, DynamicRange: 0}
		dst := ColorStats{Average: RGB{R: 200, G: 100, B: 50}, Temperature: 2, Saturation: 0.75, DynamicRange: 50}
		tr := DeriveTransform(src, dst)
		for name, v := range map[string]float64{
			"contrast": tr.ContrastScale, "temperature": tr.TemperatureScale, "saturation": tr.SaturationScale,
		} {
			if math.IsInf(v, 0) || math.IsNaN(v) {
				t.Errorf("%s scale not finite: %f", name, v)
			}
		}
		if tr.BrightnessShift != 200 {
			t.Errorf("brightness shift: got %f, want 200", tr.BrightnessShift)
		}
		if !near(tr.ContrastScale, 50.1/0.1, 1e-9) {
			t.Errorf("contrast: got %f", tr.ContrastScale)
		}
	})
}

func TestApplyPixel(t *testing.T) {
	id := Identity()
	for r := 0; r < 256; r += 15 {
		for g := 0; g < 256; g += 15 {
			for b := 0; b < 256; b += 15 {
				gr, gg, gb := id.ApplyPixel(uint8(r), uint8(g), uint8(b))
				if absDiff(gr, uint8(r)) > 1 || absDiff(gg, uint8(g)) > 1 || absDiff(gb, uint8(b)) > 1 {
					t.Fatalf("identity moved (%d,%d,%d) to (%d,%d,%d)", r, g, b, gr, gg, gb)
				}
			}
		}
	}

	tests := []struct {
		name string
		tr   Transform
		in   [3]uint8
		want [3]uint8
	}{
		{"brightness clamps high", Transform{ContrastScale: 1, SaturationScale: 1, BrightnessShift: 100}, [3]uint8{200, 200, 200}, [3]uint8{255, 255, 255}},
		{"brightness clamps low", Transform{ContrastScale: 1, SaturationScale: 1, BrightnessShift: -100}, [3]uint8{50, 50, 50}, [3]uint8{0, 0, 0}},
		{"contrast pivots at 128", Transform{ContrastScale: 2, SaturationScale: 1}, [3]uint8{138, 128, 118}, [3]uint8{148, 128, 108}},
		{"zero saturation makes gray", Transform{ContrastScale: 1}, [3]uint8{200, 100, 50}, [3]uint8{200, 200, 200}},
		{"hue shift wraps", Transform{ContrastScale: 1, SaturationScale: 1, HueShiftDegrees: 480}, [3]uint8{255, 0, 0}, [3]uint8{0, 255, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b := tt.tr.ApplyPixel(tt.in[0], tt.in[1], tt.in[2])
			if got := [3]uint8{r, g, b}; got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSampleRing(t *testing.T) {
	buf := pixbuf.Filled(100, 100, skin)

	ring := SampleRing(buf, geometry.Region{X: 30, Y: 30, Width: 40, Height: 40})
	if len(ring.Samples) != 32 {
		t.Errorf("centered region: got %d samples, want 32", len(ring.Samples))
	}
	if ring.Empty || ring.Average != (RGB{R: 220, G: 180, B: 140}) {
		t.Errorf("average: got %+v (empty=%v)", ring.Average, ring.Empty)
	}

	corner := SampleRing(buf, geometry.Region{Width: 40, Height: 40})
	if len(corner.Samples) != 16 {
		t.Errorf("corner region: got %d samples, want 16", len(corner.Samples))
	}

	whole := SampleRing(pixbuf.Filled(30, 30, skin), geometry.Region{Width: 30, Height: 30})
	if !whole.Empty || whole.Average != Gray {
		t.Errorf("region covering the buffer: got %+v (empty=%v)", whole.Average, whole.Empty)
	}
}

func TestHarmonize_UniformSkinIsStable(t *testing.T) {
	buf := pixbuf.Filled(100, 100, skin)
	orig := buf.Clone()
	rep := Harmonize(buf, geometry.Region{X: 30, Y: 30, Width: 40, Height: 40}, Options{})

	if !rep.Transform.IsIdentity(1e-9) {
		t.Errorf("transform: got %v", rep.Transform)
	}
	if rep.RingEmpty {
		t.Error("ring should not be empty")
	}
	for i := range buf.Pix {
		if absDiff(buf.Pix[i], orig.Pix[i]) > 1 {
			t.Fatalf("sample %d moved from %d to %d", i, orig.Pix[i], buf.Pix[i])
		}
	}
}

func TestHarmonize_RingEmptyFallsBackToGray(t *testing.T) {
	buf := pixbuf.Filled(30, 30, skin)
	rep := Harmonize(buf, geometry.Region{Width: 30, Height: 30}, Options{})
	if !rep.RingEmpty || rep.RingSamples != 0 {
		t.Fatalf("expected empty ring, got %d samples", rep.RingSamples)
	}
	if rep.Target.Average != Gray {
		t.Errorf("target average: got %+v", rep.Target.Average)
	}
	if want := Gray.R - float64(skin.R); rep.Transform.BrightnessShift != want {
		t.Errorf("brightness shift: got %f, want %f", rep.Transform.BrightnessShift, want)
	}
}

func TestRadialGradient(t *testing.T) {
	buf := pixbuf.Filled(20, 20, mcol.RGBA{A: 255})
	RadialGradient(buf, geometry.Region{Width: 10, Height: 10}, RGB{R: 255, G: 255, B: 255})

	center := buf.At(5, 5).R
	corner := buf.At(0, 0).R
	if corner <= center {
		t.Errorf("corner %d should be lighter than center %d", corner, center)
	}
	if max := uint8(math.Round(255 * GradientStrength)); corner > max {
		t.Errorf("corner %d exceeds the %d cap", corner, max)
	}
	if got := buf.At(15, 15); got.R != 0 {
		t.Errorf("pixel outside region changed: %+v", got)
	}
}

func TestSmooth(t *testing.T) {
	t.Run("uniform buffer unchanged", func(t *testing.T) {
		buf := pixbuf.Filled(20, 20, skin)
		if n := Smooth(buf, geometry.Region{Width: 20, Height: 20}, SmoothRadius); n != 0 {
			t.Errorf("skipped %d", n)
		}
		for y := 0; y < 20; y++ {
			for x := 0; x < 20; x++ {
				if buf.At(x, y) != skin {
					t.Fatalf("(%d,%d) changed to %+v", x, y, buf.At(x, y))
				}
			}
		}
	})

	t.Run("spreads a spike on the even grid", func(t *testing.T) {
		buf := pixbuf.Filled(10, 10, mcol.RGBA{A: 255})
		buf.Set(4, 4, mcol.RGBA{R: 255, G: 255, B: 255, A: 255})
		Smooth(buf, geometry.Region{Width: 10, Height: 10}, SmoothRadius)
		if got := buf.At(4, 4).R; got == 0 || got == 255 {
			t.Errorf("spike not smoothed: %d", got)
		}
		if got := buf.At(5, 4).R; got != 0 {
			t.Errorf("odd column should not be visited: %d", got)
		}
	})

	t.Run("windows past the edge are skipped", func(t *testing.T) {
		buf := pixbuf.Filled(10, 10, skin)
		if n := Smooth(buf, geometry.Region{X: -4, Y: -4, Width: 10, Height: 10}, SmoothRadius); n != 8 {
			t.Errorf("skipped: got %d, want 8", n)
		}
	})
}
