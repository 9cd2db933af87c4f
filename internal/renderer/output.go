package renderer

import (
	"fmt"
	"image"
	"image/color"
	"math"

	mcol "github.com/maax3v3/faceblend/internal/color"
	"github.com/maax3v3/faceblend/internal/composite"
	"github.com/maax3v3/faceblend/internal/detection"
	"github.com/maax3v3/faceblend/internal/pixbuf"
)

// Config holds annotation rendering configuration.
type Config struct {
	Outline      mcol.RGBA // region box and label background
	MaskOutline  mcol.RGBA // blend ellipse
	Thickness    int       // box line width in pixels
	LabelSize    int       // approximate label text height
	LabelPadding int
	ShowMask     bool
}

// DefaultConfig returns sensible default rendering configuration.
func DefaultConfig() Config {
	return Config{
		Outline:      mcol.RGBA{R: 0, G: 255, B: 0, A: 255},
		MaskOutline:  mcol.RGBA{R: 255, G: 255, B: 0, A: 255},
		Thickness:    2,
		LabelSize:    14,
		LabelPadding: 3,
		ShowMask:     true,
	}
}

// Label formats the confidence shown above a region. A fallback region
// gets a trailing '?'.
func Label(det detection.Detection) string {
	s := fmt.Sprintf("%.2f", det.Region.Confidence)
	if det.FellBack {
		s += "?"
	}
	return s
}

// Annotate returns a copy of buf with the detected region outlined, the
// blend ellipse traced and a confidence label drawn above the box.
func Annotate(buf *pixbuf.Buffer, det detection.Detection, font FontRenderer, cfg Config) *image.NRGBA {
	out := buf.ToNRGBA()
	if det.Region.Empty() {
		return out
	}
	scaleConfig(&cfg, out.Bounds())

	rect := det.Region.Bounds().Intersect(out.Bounds())
	drawRectBorder(out, rect, cfg.Thickness, cfg.Outline.ToStdColor())

	if cfg.ShowMask {
		e := composite.MaskFor(det.Region)
		drawEllipseBorder(out, e.CX, e.CY, e.RX, e.RY, cfg.MaskOutline.ToStdColor())
	}

	drawLabel(out, Label(det), rect, font, cfg)
	return out
}

// scaleConfig grows line and label sizes for large images.
func scaleConfig(cfg *Config, bounds image.Rectangle) {
	w := bounds.Dx()
	if w > 1000 {
		cfg.Thickness *= 2
		cfg.LabelSize *= 2
		cfg.LabelPadding *= 2
	} else if w > 500 {
		cfg.Thickness = cfg.Thickness * 3 / 2
		cfg.LabelSize = cfg.LabelSize * 3 / 2
	}
	if cfg.Thickness < 1 {
		cfg.Thickness = 1
	}
}

func drawLabel(img *image.NRGBA, text string, rect image.Rectangle, font FontRenderer, cfg Config) {
	tw, th := font.MeasureString(text, cfg.LabelSize)
	boxW := tw + 2*cfg.LabelPadding
	boxH := th + 2*cfg.LabelPadding

	// Sit above the box, or inside its top edge when there is no room.
	x0 := rect.Min.X
	y0 := rect.Min.Y - boxH
	if y0 < 0 {
		y0 = rect.Min.Y
	}
	box := image.Rect(x0, y0, x0+boxW, y0+boxH).Intersect(img.Bounds())
	fillRect(img, box, cfg.Outline.ToStdColor())

	textColor := color.Color(color.Black)
	if !cfg.Outline.IsLight() {
		textColor = color.White
	}
	font.DrawString(img, text, x0+boxW/2, y0+boxH/2, textColor, cfg.LabelSize)
}

func fillRect(img *image.NRGBA, r image.Rectangle, col color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, col)
		}
	}
}

func drawRectBorder(img *image.NRGBA, r image.Rectangle, thickness int, col color.NRGBA) {
	if r.Empty() {
		return
	}
	t := thickness
	if t > r.Dx()/2 {
		t = (r.Dx() + 1) / 2
	}
	if t > r.Dy()/2 {
		t = (r.Dy() + 1) / 2
	}
	fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t), col)
	fillRect(img, image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y), col)
	fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y), col)
	fillRect(img, image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y), col)
}

func drawEllipseBorder(img *image.NRGBA, cx, cy, rx, ry float64, col color.NRGBA) {
	if rx <= 0 || ry <= 0 {
		return
	}
	step := 1 / math.Max(rx, ry)
	b := img.Bounds()
	for angle := 0.0; angle < 2*math.Pi; angle += step {
		px := int(math.Floor(cx + rx*math.Cos(angle)))
		py := int(math.Floor(cy + ry*math.Sin(angle)))
		if image.Pt(px, py).In(b) {
			img.SetNRGBA(px, py, col)
		}
	}
}
