// Package faceblend pastes the face of one photo onto another without a
// trained detector.
//
// A skin, symmetry and edge heuristic locates a face-like region in each
// image. The source region is scaled into the target region, blended
// through an elliptical mask, and its colour is matched to the pixels
// around it.
//
// Usage as a library:
//
//	src, _ := faceblend.LoadImage("me.jpg")
//	dst, _ := faceblend.LoadImage("painting.png")
//	res, _ := faceblend.Composite(ctx, src, dst, faceblend.DefaultOptions())
//	faceblend.SavePNG("out.png", res.Image)
//
// Or use the file-based convenience:
//
//	res, err := faceblend.CompositeFile(ctx, "me.jpg", "painting.png", "out.png", faceblend.DefaultOptions())
package faceblend

import (
	"context"
	"fmt"
	"image"

	"github.com/maax3v3/faceblend/internal/composite"
	"github.com/maax3v3/faceblend/internal/detection"
	"github.com/maax3v3/faceblend/internal/geometry"
	"github.com/maax3v3/faceblend/internal/imaging"
	"github.com/maax3v3/faceblend/internal/pipeline"
	"github.com/maax3v3/faceblend/internal/pixbuf"
)

// Detection strategy constants.
const (
	StrategyCombined = detection.StrategyCombined // skin sampling refined by symmetry and edges
	StrategyCenter   = detection.StrategyCenter   // fixed upper-center guess
)

// Options configures a composite.
type Options struct {
	// Strategy selects how face regions are located.
	// Default: "combined".
	Strategy string

	// Alpha is the opacity of the pasted face, in (0, 1].
	// Default: 0.92.
	Alpha float64

	// EdgeBlur softens a thin ring around the target region after
	// blending. Default: false.
	EdgeBlur bool

	// MaxDimension shrinks inputs larger than this on either side before
	// processing. 0 keeps full resolution.
	// Default: 2048.
	MaxDimension int

	// Progress, if set, receives a percentage and a message after each
	// stage.
	Progress func(percent int, message string)
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Strategy:     StrategyCombined,
		Alpha:        composite.DefaultAlpha,
		MaxDimension: 2048,
	}
}

// Region is a face-like rectangle in pixel coordinates.
type Region struct {
	X, Y, Width, Height float64
	Confidence          float64
}

func regionOf(r geometry.Region) Region {
	return Region{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height, Confidence: r.Confidence}
}

// Result is the outcome of Composite.
type Result struct {
	// Image is nil if the run was cancelled before blending.
	Image *image.NRGBA

	Region       Region // where the face landed in the target
	SourceRegion Region
	Warnings     []string
	Cancelled    bool
}

// LoadImage reads an image from disk. Supports PNG, JPEG, and WEBP.
func LoadImage(path string) (image.Image, error) {
	return imaging.Load(path)
}

// SavePNG writes an image to disk as PNG.
func SavePNG(path string, img image.Image) error {
	return imaging.SavePNG(path, img)
}

// Detect returns the face-like region found in img and whether it is the
// geometric fallback rather than a skin match.
func Detect(img image.Image, strategy string) (Region, bool, error) {
	if img == nil {
		return Region{}, false, fmt.Errorf("input image is nil")
	}
	det, err := detection.ByName(strategy)
	if err != nil {
		return Region{}, false, err
	}
	d := det.Detect(pixbuf.FromImage(img))
	return regionOf(d.Region), d.FellBack, nil
}

// Composite pastes the face found in source onto the face found in target.
// Cancelling ctx stops the run between stages; the result then has
// Cancelled set and no error.
func Composite(ctx context.Context, source, target image.Image, opts Options) (*Result, error) {
	if source == nil || target == nil {
		return nil, fmt.Errorf("input image is nil")
	}
	det, err := detection.ByName(opts.Strategy)
	if err != nil {
		return nil, err
	}

	src := pixbuf.FromImage(imaging.Downscale(source, opts.MaxDimension))
	dst := pixbuf.FromImage(imaging.Downscale(target, opts.MaxDimension))

	res, err := pipeline.Run(ctx, src, dst, pipeline.Options{
		Detector:  det,
		Composite: composite.Options{Alpha: opts.Alpha, EdgeBlur: opts.EdgeBlur},
		Progress:  opts.Progress,
	})
	if err != nil {
		return nil, err
	}

	out := &Result{
		Region:       regionOf(res.Region),
		SourceRegion: regionOf(res.SourceRegion),
		Cancelled:    res.Cancelled,
	}
	for _, w := range res.Warnings {
		out.Warnings = append(out.Warnings, w.String())
	}
	if res.Output != nil {
		out.Image = res.Output.ToNRGBA()
	}
	return out, nil
}

// CompositeFile is a convenience that loads both images, composites them,
// and saves the result as PNG to outPath.
func CompositeFile(ctx context.Context, sourcePath, targetPath, outPath string, opts Options) (*Result, error) {
	source, err := LoadImage(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("loading source: %w", err)
	}
	target, err := LoadImage(targetPath)
	if err != nil {
		return nil, fmt.Errorf("loading target: %w", err)
	}

	res, err := Composite(ctx, source, target, opts)
	if err != nil {
		return nil, fmt.Errorf("compositing: %w", err)
	}
	if res.Image == nil {
		return res, nil
	}

	if err := SavePNG(outPath, res.Image); err != nil {
		return nil, fmt.Errorf("saving output: %w", err)
	}
	return res, nil
}
