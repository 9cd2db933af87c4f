package imaging

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	dimaging "github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/maax3v3/faceblend/internal/pixbuf"
)

// Load reads an image file from disk. Supports PNG, JPEG, and WEBP. JPEG
// EXIF orientation is applied so the pixels are upright.
// The path is normalized: ~ is expanded to the user's home directory,
// and relative paths are resolved to absolute.
func Load(path string) (image.Image, error) {
	path = ExpandPath(path)
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp":
	default:
		return nil, fmt.Errorf("unsupported image format %q (supported: png, jpg, jpeg, webp)", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, err := dimaging.Decode(f, dimaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// LoadBuffer loads an image and converts it to a pixel buffer, shrinking it
// to fit maxDim×maxDim first when maxDim > 0.
func LoadBuffer(path string, maxDim int) (*pixbuf.Buffer, error) {
	img, err := Load(path)
	if err != nil {
		return nil, err
	}
	return pixbuf.FromImage(Downscale(img, maxDim)), nil
}

// Decode reads an encoded image of any supported format from r into a
// pixel buffer, shrinking it like LoadBuffer.
func Decode(r io.Reader, maxDim int) (*pixbuf.Buffer, error) {
	img, err := dimaging.Decode(r, dimaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return pixbuf.FromImage(Downscale(img, maxDim)), nil
}

// Downscale fits img inside maxDim×maxDim keeping its aspect ratio. Images
// already small enough, or maxDim <= 0, are returned unchanged.
func Downscale(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	if maxDim <= 0 || (b.Dx() <= maxDim && b.Dy() <= maxDim) {
		return img
	}
	return dimaging.Fit(img, maxDim, maxDim, dimaging.Lanczos)
}

// SavePNG writes an image to disk as PNG.
// The path is normalized: ~ is expanded and relative paths are resolved.
func SavePNG(path string, img image.Image) error {
	path = ExpandPath(path)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	if err := EncodePNG(f, img); err != nil {
		return err
	}
	return nil
}

// EncodePNG writes img to w as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := dimaging.Encode(w, img, dimaging.PNG); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}

// ExpandPath normalizes a file path by expanding ~ to the user's home
// directory and resolving relative paths to absolute.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	// Expand ~ and ~/ to home directory
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	// On Windows, also handle ~\
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "~\\") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return filepath.Clean(path)
}
