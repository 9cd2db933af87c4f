package pixbuf

import (
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/maax3v3/faceblend/internal/color"
)

// Buffer holds a width×height grid of non-premultiplied RGBA samples.
type Buffer struct {
	Width, Height int
	Pix           []uint8 // row-major: index = (y*Width + x) * 4
}

// New allocates a zeroed buffer.
func New(w, h int) *Buffer {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Buffer{Width: w, Height: h, Pix: make([]uint8, w*h*4)}
}

// Filled allocates a buffer with every pixel set to c.
func Filled(w, h int, c color.RGBA) *Buffer {
	b := New(w, h)
	for i := 0; i < len(b.Pix); i += 4 {
		b.Pix[i] = c.R
		b.Pix[i+1] = c.G
		b.Pix[i+2] = c.B
		b.Pix[i+3] = c.A
	}
	return b
}

// FromImage copies any image into a new buffer. Colors are converted to
// non-premultiplied RGBA.
func FromImage(img image.Image) *Buffer {
	n := imaging.Clone(img)
	w, h := n.Rect.Dx(), n.Rect.Dy()
	b := New(w, h)
	for y := 0; y < h; y++ {
		copy(b.Pix[y*w*4:(y+1)*w*4], n.Pix[y*n.Stride:y*n.Stride+w*4])
	}
	return b
}

// ToNRGBA returns an image sharing no memory with the buffer.
func (b *Buffer) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	copy(img.Pix, b.Pix)
	return img
}

// Validate reports whether the buffer dimensions and sample length agree.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("buffer is nil")
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("buffer has empty dimensions %dx%d", b.Width, b.Height)
	}
	if want := b.Width * b.Height * 4; len(b.Pix) != want {
		return fmt.Errorf("buffer sample length %d does not match %dx%d (want %d)",
			len(b.Pix), b.Width, b.Height, want)
	}
	return nil
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{Width: b.Width, Height: b.Height, Pix: make([]uint8, len(b.Pix))}
	copy(c.Pix, b.Pix)
	return c
}

// Bounds returns the buffer rectangle anchored at the origin.
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// InBounds reports whether (x, y) addresses a pixel of the buffer.
func (b *Buffer) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

// Index returns the offset of the R sample of (x, y). The caller must check
// bounds.
func (b *Buffer) Index(x, y int) int {
	return (y*b.Width + x) * 4
}

// At returns the pixel at (x, y).
func (b *Buffer) At(x, y int) color.RGBA {
	i := b.Index(x, y)
	return color.RGBA{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2], A: b.Pix[i+3]}
}

// Set writes the pixel at (x, y).
func (b *Buffer) Set(x, y int, c color.RGBA) {
	i := b.Index(x, y)
	b.Pix[i] = c.R
	b.Pix[i+1] = c.G
	b.Pix[i+2] = c.B
	b.Pix[i+3] = c.A
}

// Intensity returns the mean of the R, G and B samples at (x, y).
func (b *Buffer) Intensity(x, y int) float64 {
	i := b.Index(x, y)
	return (float64(b.Pix[i]) + float64(b.Pix[i+1]) + float64(b.Pix[i+2])) / 3
}

// ParallelRows runs fn across row bands [startY, endY) of the half-open
// range [y0, y1) using multiple goroutines. Each call owns its band, so fn
// may write any pixel in its rows without locking.
func ParallelRows(y0, y1 int, fn func(startY, endY int)) {
	h := y1 - y0
	if h <= 0 {
		return
	}
	numWorkers := 8
	if h < numWorkers {
		numWorkers = h
	}
	rowsPerWorker := (h + numWorkers - 1) / numWorkers
	var wg sync.WaitGroup
	for worker := 0; worker < numWorkers; worker++ {
		startY := y0 + worker*rowsPerWorker
		endY := startY + rowsPerWorker
		if endY > y1 {
			endY = y1
		}
		if startY >= y1 {
			break
		}
		wg.Add(1)
		go func(sy, ey int) {
			defer wg.Done()
			fn(sy, ey)
		}(startY, endY)
	}
	wg.Wait()
}
