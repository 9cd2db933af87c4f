package pipeline

import (
	"context"
	"fmt"

	"github.com/maax3v3/faceblend/internal/composite"
	"github.com/maax3v3/faceblend/internal/detection"
	"github.com/maax3v3/faceblend/internal/geometry"
	"github.com/maax3v3/faceblend/internal/harmonize"
	"github.com/maax3v3/faceblend/internal/pixbuf"
)

// Progress percentages reported after each stage.
const (
	ProgressSourceDetected = 20
	ProgressTargetDetected = 40
	ProgressMapped         = 55
	ProgressComposited     = 75
	ProgressDone           = 100
)

// BoundarySkipThreshold is the number of skipped pixels tolerated before a
// boundary-skip warning is raised.
const BoundarySkipThreshold = 16

// ProgressFunc receives a percentage in [0, 100] and a short description of
// the stage that just finished.
type ProgressFunc func(percent int, message string)

// Options configures a pipeline run.
type Options struct {
	// Detector locates the face region in both buffers. Nil selects the
	// combined detector.
	Detector detection.Detector

	Composite composite.Options
	Harmonize harmonize.Options

	// Progress, if set, is called synchronously after each stage.
	Progress ProgressFunc
}

// Result is the outcome of a run.
type Result struct {
	// Output is the composited target. It is nil when the run was
	// cancelled before compositing, and an unmodified copy of the target
	// when cancelled after.
	Output *pixbuf.Buffer

	Region       geometry.Region // target region used
	SourceRegion geometry.Region
	Mapping      geometry.Mapping
	Transform    harmonize.Transform

	Composite composite.Stats
	Harmony   harmonize.Report

	Warnings  []Warning
	Cancelled bool
}

// HasWarning reports whether a warning with the given code was raised.
func (r *Result) HasWarning(code string) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

func (r *Result) warn(code, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{Code: code, Message: fmt.Sprintf(format, args...)})
}

// noteSkipped raises a boundary-skip warning once more than
// BoundarySkipThreshold pixels were left alone at the buffer edge. Regions
// are clipped before use, so within Run this only fires if a stage reaches
// past them.
func (r *Result) noteSkipped(skipped int) {
	if skipped > BoundarySkipThreshold {
		r.warn(WarnBoundarySkip, "%d pixels skipped at the buffer edge", skipped)
	}
}

// Run detects a face region in source and target, pastes the source region
// onto the target through an elliptical mask and harmonizes its colour.
// Neither input buffer is modified.
//
// Only invalid input is returned as an error. Cancellation of ctx is polled
// between stages and reported through Result.Cancelled.
func Run(ctx context.Context, source, target *pixbuf.Buffer, opts Options) (*Result, error) {
	if err := validate("source", source); err != nil {
		return nil, err
	}
	if err := validate("target", target); err != nil {
		return nil, err
	}

	det := opts.Detector
	if det == nil {
		det = &detection.CombinedDetector{}
	}
	progress := opts.Progress
	if progress == nil {
		progress = func(int, string) {}
	}

	res := &Result{}
	cancelled := func() bool {
		if ctx.Err() == nil {
			return false
		}
		res.Cancelled = true
		res.warn(WarnCancelled, "run cancelled: %v", ctx.Err())
		return true
	}

	if cancelled() {
		return res, nil
	}

	// Step 1: Detect the source region
	src := det.Detect(source)
	src.Region = src.Region.Clip(source.Width, source.Height)
	res.SourceRegion = src.Region
	if src.FellBack {
		res.warn(WarnDegenerateRegion, "source: no skin-like region, using fallback %v", src.Region)
	}
	progress(ProgressSourceDetected, fmt.Sprintf("Source region: %v", src.Region))
	if cancelled() {
		return res, nil
	}

	// Step 2: Detect the target region
	dst := det.Detect(target)
	dst.Region = dst.Region.Clip(target.Width, target.Height)
	res.Region = dst.Region
	if dst.FellBack {
		res.warn(WarnDegenerateRegion, "target: no skin-like region, using fallback %v", dst.Region)
	}
	progress(ProgressTargetDetected, fmt.Sprintf("Target region: %v", dst.Region))
	if cancelled() {
		return res, nil
	}

	// Step 3: Map source onto target
	if src.Region.Empty() || dst.Region.Empty() {
		// Built-in detectors never return a region that clips to nothing, so
		// this only happens with a custom Detector. Compositing is skipped.
		res.warn(WarnDegenerateRegion, "zero-area region (source %v, target %v)", src.Region, dst.Region)
	} else {
		res.Mapping = geometry.Map(src.Region, dst.Region)
	}
	progress(ProgressMapped, fmt.Sprintf("Scale: %.3f", res.Mapping.Scale))
	if cancelled() {
		return res, nil
	}

	// Step 4: Composite
	out, cstats := composite.Composite(source, target, src.Region, dst.Region, res.Mapping, opts.Composite)
	res.Composite = cstats
	progress(ProgressComposited, fmt.Sprintf("Blended %d pixels", cstats.Blended))
	if cancelled() {
		res.Output = target.Clone()
		return res, nil
	}

	// Step 5: Harmonize colour in place
	if !dst.Region.Empty() {
		res.Harmony = harmonize.Harmonize(out, dst.Region, opts.Harmonize)
		res.Transform = res.Harmony.Transform
		if res.Harmony.RingEmpty {
			res.warn(WarnRingEmpty, "no pixels around %v, harmonizing toward mid-gray", dst.Region)
		}
	}
	res.noteSkipped(cstats.Skipped + res.Harmony.Skipped)
	res.Output = out
	progress(ProgressDone, "Done")

	return res, nil
}
