package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/maax3v3/faceblend/internal/composite"
	"github.com/maax3v3/faceblend/internal/detection"
	"github.com/maax3v3/faceblend/internal/harmonize"
	"github.com/maax3v3/faceblend/internal/pipeline"
)

// Config represents the faceblend tuning file
type Config struct {
	Detection DetectionConfig `yaml:"detection"`
	Composite CompositeConfig `yaml:"composite"`
	Harmonize HarmonizeConfig `yaml:"harmonize"`
	Input     InputConfig     `yaml:"input"`
	Server    ServerConfig    `yaml:"server"`
}

type DetectionConfig struct {
	Strategy string `yaml:"strategy"` // "combined" or "center"
}

type CompositeConfig struct {
	Alpha    float64 `yaml:"alpha"` // (0, 1], default 0.92
	EdgeBlur bool    `yaml:"edge_blur"`
}

type HarmonizeConfig struct {
	SkipTransform bool `yaml:"skip_transform"`
	SkipGradient  bool `yaml:"skip_gradient"`
	SkipSmooth    bool `yaml:"skip_smooth"`
}

type InputConfig struct {
	MaxDimension int `yaml:"max_dimension"` // 0 keeps full resolution
}

type ServerConfig struct {
	Addr                  string `yaml:"addr"`
	MaxUploadMB           int    `yaml:"max_upload_mb"`           // 0 disables the limit
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"` // 0 disables the timeout
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Detection: DetectionConfig{Strategy: detection.StrategyCombined},
		Composite: CompositeConfig{Alpha: composite.DefaultAlpha},
		Input:     InputConfig{MaxDimension: 2048},
		Server: ServerConfig{
			Addr:                  ":8080",
			MaxUploadMB:           20,
			RequestTimeoutSeconds: 30,
		},
	}
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Keys absent from the file keep their defaults; an explicit 0 is kept
	// where it means "disabled".
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads path, or returns Default when path is empty.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// setDefaults fills settings that have no meaningful empty value.
func (c *Config) setDefaults() {
	if c.Detection.Strategy == "" {
		c.Detection.Strategy = detection.StrategyCombined
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if _, err := detection.ByName(c.Detection.Strategy); err != nil {
		return err
	}
	if c.Composite.Alpha <= 0 || c.Composite.Alpha > 1 {
		return fmt.Errorf("composite.alpha must be in (0, 1], got %g", c.Composite.Alpha)
	}
	if c.Input.MaxDimension < 0 {
		return fmt.Errorf("input.max_dimension must be >= 0, got %d", c.Input.MaxDimension)
	}
	if c.Server.MaxUploadMB < 0 {
		return fmt.Errorf("server.max_upload_mb must be >= 0, got %d", c.Server.MaxUploadMB)
	}
	if c.Server.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("server.request_timeout_seconds must be >= 0, got %d", c.Server.RequestTimeoutSeconds)
	}
	return nil
}

// PipelineOptions translates the file into pipeline options. Progress is
// left for the caller to set.
func (c *Config) PipelineOptions() (pipeline.Options, error) {
	det, err := detection.ByName(c.Detection.Strategy)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Detector: det,
		Composite: composite.Options{
			Alpha:    c.Composite.Alpha,
			EdgeBlur: c.Composite.EdgeBlur,
		},
		Harmonize: harmonize.Options{
			SkipTransform: c.Harmonize.SkipTransform,
			SkipGradient:  c.Harmonize.SkipGradient,
			SkipSmooth:    c.Harmonize.SkipSmooth,
		},
	}, nil
}

// MaxUploadBytes is the request body limit for the HTTP server.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}
