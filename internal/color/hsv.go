package color

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// HSV is a color in the hue/saturation/value model.
// H is in degrees [0, 360); S and V are in [0, 1].
type HSV struct {
	H, S, V float64
}

// RGBToHSV converts 8-bit RGB to HSV.
func RGBToHSV(r, g, b uint8) HSV {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, v := c.Hsv()
	return HSV{H: NormalizeHue(h), S: s, V: v}
}

// RGBFloatToHSV is RGBToHSV for channels already held as floats in [0, 255].
func RGBFloatToHSV(r, g, b float64) HSV {
	c := colorful.Color{R: clampUnit(r / 255), G: clampUnit(g / 255), B: clampUnit(b / 255)}
	h, s, v := c.Hsv()
	return HSV{H: NormalizeHue(h), S: s, V: v}
}

// HSVToRGB converts HSV back to 8-bit RGB. Out-of-range saturation and
// value are clamped, hue is wrapped.
func HSVToRGB(h, s, v float64) (r, g, b uint8) {
	return hsvColor(h, s, v).Clamped().RGB255()
}

// HSVToRGBFloat converts HSV to unrounded channels in [0, 255].
func HSVToRGBFloat(h, s, v float64) (r, g, b float64) {
	c := hsvColor(h, s, v).Clamped()
	return c.R * 255, c.G * 255, c.B * 255
}

func hsvColor(h, s, v float64) colorful.Color {
	return colorful.Hsv(NormalizeHue(h), clampUnit(s), clampUnit(v))
}

// NormalizeHue wraps h into [0, 360).
func NormalizeHue(h float64) float64 {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h = 0
	}
	return h
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
