package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/maax3v3/faceblend/internal/color"
	"github.com/maax3v3/faceblend/internal/detection"
)

// CompositeArgs holds the flags of the composite command.
type CompositeArgs struct {
	SourcePath   string
	TargetPath   string
	OutPath      string
	ConfigPath   string
	Strategy     string // empty keeps the config value
	EdgeBlur     bool
	MaxDimension int // negative keeps the config value
}

// Validate checks required flags and formats.
func (a CompositeArgs) Validate() error {
	if err := requireImage("--source", a.SourcePath); err != nil {
		return err
	}
	if err := requireImage("--target", a.TargetPath); err != nil {
		return err
	}
	if err := requirePNG("--out", a.OutPath); err != nil {
		return err
	}
	if a.Strategy != "" {
		if _, err := detection.ByName(a.Strategy); err != nil {
			return fmt.Errorf("--strategy: %w", err)
		}
	}
	return nil
}

// DetectArgs holds the flags of the detect command.
type DetectArgs struct {
	InPath       string
	AnnotatePath string // optional
	OutlineColor string
	Strategy     string
	MaxDimension int
}

// Validate checks the flags and returns the parsed outline color.
func (a DetectArgs) Validate() (color.RGBA, error) {
	if err := requireImage("--in", a.InPath); err != nil {
		return color.RGBA{}, err
	}
	if a.AnnotatePath != "" {
		if err := requirePNG("--annotate", a.AnnotatePath); err != nil {
			return color.RGBA{}, err
		}
	}
	if _, err := detection.ByName(a.Strategy); err != nil {
		return color.RGBA{}, fmt.Errorf("--strategy: %w", err)
	}
	if a.MaxDimension < 0 {
		return color.RGBA{}, fmt.Errorf("--max-dimension must be >= 0, got %d", a.MaxDimension)
	}
	oc, err := color.ParseHex(a.OutlineColor)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("--outline-color: %w", err)
	}
	return oc, nil
}

var inputExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".webp": true}

func requireImage(flag, path string) error {
	if path == "" {
		return fmt.Errorf("%s is required", flag)
	}
	if ext := strings.ToLower(filepath.Ext(path)); !inputExts[ext] {
		return fmt.Errorf("%s must be a png, jpg, jpeg or webp file, got %q", flag, ext)
	}
	return nil
}

func requirePNG(flag, path string) error {
	if path == "" {
		return fmt.Errorf("%s is required", flag)
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".png" {
		return fmt.Errorf("%s must be a .png file, got %q", flag, ext)
	}
	return nil
}
