package detection

import (
	"math"
	"math/rand"
	"testing"

	mcol "github.com/maax3v3/faceblend/internal/color"
	"github.com/maax3v3/faceblend/internal/geometry"
	"github.com/maax3v3/faceblend/internal/pixbuf"
)

var (
	skin = mcol.RGBA{R: 220, G: 180, B: 140, A: 255}
	gray = mcol.RGBA{R: 128, G: 128, B: 128, A: 255}
	blue = mcol.RGBA{R: 0, G: 0, B: 255, A: 255}
)

func fillRect(buf *pixbuf.Buffer, x0, y0, x1, y1 int, c mcol.RGBA) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if buf.InBounds(x, y) {
				buf.Set(x, y, c)
			}
		}
	}
}

func regionNear(a, b geometry.Region) bool {
	const eps = 1e-9
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps &&
		math.Abs(a.Width-b.Width) < eps && math.Abs(a.Height-b.Height) < eps &&
		math.Abs(a.Confidence-b.Confidence) < eps
}

func TestCombinedDetector_ImplementsInterface(t *testing.T) {
	var _ Detector = (*CombinedDetector)(nil)
	var _ Detector = (*CenterDetector)(nil)
}

func TestByName(t *testing.T) {
	for _, name := range []string{"", StrategyCombined, StrategyCenter} {
		if _, err := ByName(name); err != nil {
			t.Errorf("ByName(%q): %v", name, err)
		}
	}
	if _, err := ByName("neural"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestCombinedDetector_UniformGrayFallsBack(t *testing.T) {
	buf := pixbuf.Filled(100, 100, gray)
	det := (&CombinedDetector{}).Detect(buf)

	if !det.FellBack {
		t.Fatal("expected fallback on gray buffer")
	}
	if det.Candidates != 0 {
		t.Errorf("expected no skin candidates, got %d", det.Candidates)
	}
	want := geometry.Region{X: 35, Y: 100.0/3 - 15, Width: 30, Height: 30, Confidence: 0.3}
	if !regionNear(det.Region, want) {
		t.Errorf("got %v, want %v", det.Region, want)
	}
}

func TestCombinedDetector_SkinAroundDistinctRectangle(t *testing.T) {
	buf := pixbuf.Filled(100, 100, skin)
	fb := Fallback(100, 100)
	rect := fb.Bounds()
	fillRect(buf, rect.Min.X, rect.Min.Y, rect.Max.X, rect.Max.Y, blue)

	det := (&CombinedDetector{}).Detect(buf)
	if det.FellBack {
		t.Fatal("skin buffer should not fall back")
	}
	if det.Region.Confidence <= 0.3 {
		t.Errorf("confidence %f should exceed 0.3", det.Region.Confidence)
	}
	if !det.Region.Contains(100, 100) {
		t.Errorf("region %v not inside buffer", det.Region)
	}

	cx, cy := det.Region.Center()
	if cx >= fb.X && cx < fb.X+fb.Width && cy >= fb.Y && cy < fb.Y+fb.Height {
		t.Errorf("region %v is centered on the solid rectangle %v", det.Region, fb)
	}
	px := buf.At(int(det.Region.X), int(det.Region.Y))
	if px != skin {
		t.Errorf("region corner pixel %+v is not skin", px)
	}
}

func TestDetectors_RegionAlwaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	sizes := [][2]int{{2, 2}, {3, 50}, {50, 3}, {64, 48}, {120, 90}, {17, 200}}
	detectors := map[string]Detector{
		"combined": &CombinedDetector{},
		"center":   &CenterDetector{},
	}

	for _, sz := range sizes {
		w, h := sz[0], sz[1]
		bufs := []*pixbuf.Buffer{pixbuf.Filled(w, h, skin), pixbuf.Filled(w, h, gray), pixbuf.New(w, h)}
		noisy := pixbuf.New(w, h)
		rng.Read(noisy.Pix)
		bufs = append(bufs, noisy)
		patchy := pixbuf.Filled(w, h, gray)
		fillRect(patchy, w/4, h/5, w/2, h/2, skin)
		bufs = append(bufs, patchy)

		for name, d := range detectors {
			for i, buf := range bufs {
				det := d.Detect(buf)
				r := det.Region
				if !r.Contains(w, h) {
					t.Errorf("%s %dx%d buf %d: region %v escapes bounds", name, w, h, i, r)
				}
				if r.Confidence < 0 || r.Confidence > 1 {
					t.Errorf("%s %dx%d buf %d: confidence %f out of range", name, w, h, i, r.Confidence)
				}
				if r.Empty() {
					t.Errorf("%s %dx%d buf %d: empty region", name, w, h, i)
				}
			}
		}
	}
}

func TestCenterDetector(t *testing.T) {
	det := (&CenterDetector{}).Detect(pixbuf.New(100, 100))
	want := geometry.Region{X: 30, Y: 9, Width: 40, Height: 48, Confidence: 0.8}
	if !regionNear(det.Region, want) {
		t.Errorf("got %v, want %v", det.Region, want)
	}
	if det.FellBack {
		t.Error("center strategy is not a fallback")
	}
}

func TestSkinCandidates(t *testing.T) {
	buf := pixbuf.Filled(30, 30, gray)
	buf.Set(10, 20, skin)
	buf.Set(11, 20, skin) // off-grid, never sampled

	got := SkinCandidates(buf)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	want := geometry.Region{X: -10, Y: 0, Width: 40, Height: 40, Confidence: 1}
	if got[0].Region != want {
		t.Errorf("got %v, want %v", got[0].Region, want)
	}
}

func TestSkinCandidates_ScanOrder(t *testing.T) {
	buf := pixbuf.Filled(100, 100, skin)
	got := SkinCandidates(buf)
	if len(got) != 100 {
		t.Fatalf("expected 100 candidates, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		a, b := got[i-1].Region, got[i].Region
		if b.Y < a.Y || (b.Y == a.Y && b.X <= a.X) {
			t.Fatalf("candidates out of scan order at %d: %v then %v", i, a, b)
		}
	}
}

func TestCluster(t *testing.T) {
	if _, ok := Cluster(nil); ok {
		t.Error("no candidates should not cluster")
	}

	cands := []Candidate{
		{Region: geometry.Region{X: 0, Y: 0, Width: 40, Height: 40, Confidence: 0.7}},
		{Region: geometry.Region{X: 10, Y: 0, Width: 40, Height: 40, Confidence: 0.9}},
		{Region: geometry.Region{X: 20, Y: 0, Width: 40, Height: 40, Confidence: 0.9}},
	}
	got, ok := Cluster(cands)
	if !ok {
		t.Fatal("expected a cluster")
	}
	want := geometry.Region{X: -20, Y: -30, Width: 100, Height: 100, Confidence: 0.9}
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if cands[0].Region.Confidence != 0.7 {
		t.Error("Cluster must not reorder its input")
	}
}

func TestSymmetry(t *testing.T) {
	t.Run("uniform is perfectly symmetric", func(t *testing.T) {
		if got := Symmetry(pixbuf.Filled(100, 100, skin), 30); got != 100 {
			t.Errorf("got %f, want 100", got)
		}
	})

	t.Run("black left white right", func(t *testing.T) {
		buf := pixbuf.Filled(100, 100, mcol.RGBA{A: 255})
		fillRect(buf, 50, 0, 100, 100, mcol.RGBA{R: 255, G: 255, B: 255, A: 255})
		if got := Symmetry(buf, 30); got != 0 {
			t.Errorf("got %f, want 0", got)
		}
	})

	t.Run("too narrow to compare", func(t *testing.T) {
		if got := Symmetry(pixbuf.Filled(1, 10, skin), 0); got != 100 {
			t.Errorf("got %f, want 100", got)
		}
	})
}

func TestRefine(t *testing.T) {
	base := geometry.Region{X: 0, Y: 10, Width: 20, Height: 20, Confidence: 0.8}
	got := Refine(base, 50, 100, 100)
	// center 10 -> 50: nudge 0.3 * 40 = 12
	if math.Abs(got.X-12) > 1e-9 {
		t.Errorf("X: got %f, want 12", got.X)
	}
	if got.Y != 10 || got.Width != 20 || got.Height != 20 {
		t.Errorf("only X should move: %v", got)
	}
	if math.Abs(got.Confidence-0.4) > 1e-9 {
		t.Errorf("confidence: got %f, want 0.4", got.Confidence)
	}
}

func TestChoose(t *testing.T) {
	t.Run("confident region kept and clipped", func(t *testing.T) {
		r, fell := Choose(geometry.Region{X: -10, Y: 5, Width: 40, Height: 40, Confidence: 0.9}, true, 100, 100)
		if fell {
			t.Fatal("unexpected fallback")
		}
		if r.X != 0 || r.Width != 30 {
			t.Errorf("expected clipped region, got %v", r)
		}
	})

	t.Run("exactly threshold falls back", func(t *testing.T) {
		_, fell := Choose(geometry.Region{Width: 40, Height: 40, Confidence: MinConfidence}, true, 100, 100)
		if !fell {
			t.Error("confidence at threshold must fall back")
		}
	})

	t.Run("region outside buffer falls back", func(t *testing.T) {
		_, fell := Choose(geometry.Region{X: 500, Width: 40, Height: 40, Confidence: 1}, true, 100, 100)
		if !fell {
			t.Error("region clipped to nothing must fall back")
		}
	})

	t.Run("nothing found", func(t *testing.T) {
		r, fell := Choose(geometry.Region{}, false, 90, 60)
		if !fell || r.Confidence != FallbackConfidence {
			t.Errorf("expected fallback, got %v (fell=%v)", r, fell)
		}
	})
}

func TestEdgeSamplesAndSupport(t *testing.T) {
	buf := pixbuf.Filled(50, 50, mcol.RGBA{A: 255})
	fillRect(buf, 21, 0, 50, 50, mcol.RGBA{R: 255, G: 255, B: 255, A: 255})

	edges := EdgeSamples(buf)
	if len(edges) != 5 {
		t.Fatalf("expected 5 edge samples on x=21, got %d", len(edges))
	}
	for _, e := range edges {
		if e.X != 21 {
			t.Errorf("edge at unexpected column %d", e.X)
		}
	}

	support := EdgeSupport(edges, geometry.Region{Width: 50, Height: 50})
	if math.Abs(support-0.2) > 1e-9 {
		t.Errorf("support: got %f, want 0.2", support)
	}
	if got := EdgeSupport(edges, geometry.Region{X: 30, Width: 20, Height: 50}); got != 0 {
		t.Errorf("region without edges: got %f", got)
	}

	boosted := WithEdgeSupport(geometry.Region{Confidence: 0.95}, 1)
	if boosted.Confidence != 1 {
		t.Errorf("confidence must cap at 1, got %f", boosted.Confidence)
	}
}
