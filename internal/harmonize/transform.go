package harmonize

import (
	"fmt"
	"math"

	"github.com/maax3v3/faceblend/internal/color"
	"github.com/maax3v3/faceblend/internal/geometry"
	"github.com/maax3v3/faceblend/internal/pixbuf"
)

// ratioGuard keeps the scale ratios finite when a source score is zero.
// It is added to both sides so equal scores give exactly 1.
const ratioGuard = 0.1

// ContrastPivot is the channel value contrast scaling pivots around.
const ContrastPivot = 128

// Transform is the colour correction derived from a source and a target
// ColorStats.
type Transform struct {
	BrightnessShift  float64
	ContrastScale    float64
	TemperatureScale float64 // reported only; not applied per pixel
	SaturationScale  float64
	HueShiftDegrees  float64
}

// Identity is the transform that leaves every pixel unchanged.
func Identity() Transform {
	return Transform{ContrastScale: 1, TemperatureScale: 1, SaturationScale: 1}
}

// IsIdentity reports whether t changes nothing, within eps.
func (t Transform) IsIdentity(eps float64) bool {
	return math.Abs(t.BrightnessShift) <= eps &&
		math.Abs(t.ContrastScale-1) <= eps &&
		math.Abs(t.SaturationScale-1) <= eps &&
		math.Abs(t.HueShiftDegrees) <= eps
}

func (t Transform) String() string {
	return fmt.Sprintf("brightness%+.1f contrast×%.2f sat×%.2f hue%+.1f°",
		t.BrightnessShift, t.ContrastScale, t.SaturationScale, t.HueShiftDegrees)
}

// DeriveTransform computes the correction that moves src towards dst.
// Contrast, temperature and saturation scales are (dst+0.1)/(src+0.1),
// with the guard added to both sides so that equal statistics yield
// exactly the identity transform.
func DeriveTransform(src, dst ColorStats) Transform {
	return Transform{
		BrightnessShift:  dst.Average.R - src.Average.R,
		ContrastScale:    ratio(dst.DynamicRange, src.DynamicRange),
		TemperatureScale: ratio(dst.Temperature, src.Temperature),
		SaturationScale:  ratio(dst.Saturation, src.Saturation),
		HueShiftDegrees:  dst.Average.HSV().H - src.Average.HSV().H,
	}
}

func ratio(target, source float64) float64 {
	return (target + ratioGuard) / (source + ratioGuard)
}

// ApplyPixel corrects one pixel: saturation scale and hue shift in HSV,
// then contrast around ContrastPivot plus the brightness shift.
func (t Transform) ApplyPixel(r, g, b uint8) (uint8, uint8, uint8) {
	hsv := color.RGBToHSV(r, g, b)
	rf, gf, bf := color.HSVToRGBFloat(
		color.NormalizeHue(hsv.H+t.HueShiftDegrees),
		hsv.S*t.SaturationScale,
		hsv.V,
	)
	adj := func(v float64) uint8 {
		return color.Clamp8(t.ContrastScale*(v-ContrastPivot) + ContrastPivot + t.BrightnessShift)
	}
	return adj(rf), adj(gf), adj(bf)
}

// ApplyTransform corrects every pixel of the region in place. Rows are
// processed in parallel bands. Alpha is left alone.
func ApplyTransform(buf *pixbuf.Buffer, r geometry.Region, t Transform) {
	rect := r.Bounds().Intersect(buf.Bounds())
	if rect.Empty() {
		return
	}
	pixbuf.ParallelRows(rect.Min.Y, rect.Max.Y, func(sy, ey int) {
		for y := sy; y < ey; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				i := buf.Index(x, y)
				buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2] = t.ApplyPixel(buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2])
			}
		}
	})
}
