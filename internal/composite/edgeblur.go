package composite

import (
	"math"

	"github.com/maax3v3/faceblend/internal/geometry"
	"github.com/maax3v3/faceblend/internal/pixbuf"
)

// edgeBlur smooths pixels near the boundary of the ellipse inscribed in r
// (squared normalized distance in (0.8, 1.1]) with a 3×3 kernel weighted
// 1/(1+|dx|+|dy|). Reads come from a snapshot so the result does not
// depend on visiting order. It returns the number of pixels rewritten.
func edgeBlur(buf *pixbuf.Buffer, r geometry.Region) int {
	if r.Empty() {
		return 0
	}
	cx, cy := r.Center()
	hw, hh := r.Width/2, r.Height/2
	area := r.Bounds().Intersect(buf.Bounds())
	if area.Empty() {
		return 0
	}

	snap := buf.Clone()
	n := 0
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			dx := (float64(x) - cx) / hw
			dy := (float64(y) - cy) / hh
			d := dx*dx + dy*dy
			if d <= 0.8 || d > 1.1 {
				continue
			}
			var acc [3]float64
			var wsum float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					nx, ny := x+kx, y+ky
					if !snap.InBounds(nx, ny) {
						continue
					}
					w := 1 / (1 + math.Abs(float64(kx)) + math.Abs(float64(ky)))
					i := snap.Index(nx, ny)
					acc[0] += float64(snap.Pix[i]) * w
					acc[1] += float64(snap.Pix[i+1]) * w
					acc[2] += float64(snap.Pix[i+2]) * w
					wsum += w
				}
			}
			i := buf.Index(x, y)
			for c := 0; c < 3; c++ {
				buf.Pix[i+c] = uint8(math.Round(acc[c] / wsum))
			}
			n++
		}
	}
	return n
}
