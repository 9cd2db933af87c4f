package pipeline

import (
	"fmt"

	"github.com/maax3v3/faceblend/internal/pixbuf"
)

// MinDimension is the smallest accepted width and height.
const MinDimension = 2

// Warning codes.
const (
	WarnCancelled        = "cancelled"
	WarnDegenerateRegion = "degenerate-region"
	WarnBoundarySkip     = "boundary-skip"
	WarnRingEmpty        = "ring-empty"
)

// Warning is a recoverable condition met during a run.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return w.Code + ": " + w.Message
}

// InputError reports a buffer the pipeline refuses to process. It is the
// only error Run returns.
type InputError struct {
	Input  string // "source" or "target"
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s buffer: %s", e.Input, e.Reason)
}

func validate(name string, b *pixbuf.Buffer) error {
	if b == nil {
		return &InputError{Input: name, Reason: "buffer is nil"}
	}
	if b.Width < MinDimension || b.Height < MinDimension {
		return &InputError{Input: name, Reason: fmt.Sprintf("dimensions %dx%d below %dx%d",
			b.Width, b.Height, MinDimension, MinDimension)}
	}
	if want := b.Width * b.Height * 4; len(b.Pix) != want {
		return &InputError{Input: name, Reason: fmt.Sprintf("sample length %d, want %d", len(b.Pix), want)}
	}
	return nil
}
