// Package config reads render settings from a YAML file and merges them with
// command line overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-hitshade/pkg/buffers"
	"github.com/df07/go-hitshade/pkg/geometry"
	"github.com/df07/go-hitshade/pkg/renderer"
	"github.com/df07/go-hitshade/pkg/scene"
	"github.com/df07/go-hitshade/pkg/shader"
)

// Config holds every render setting. Zero values mean "not set" so that a
// partially filled Config can be layered over another one with Merge.
type Config struct {
	Scene          string                 `yaml:"scene"`
	Width          int                    `yaml:"width"`
	Height         int                    `yaml:"height"`
	Samples        int                    `yaml:"samples"`
	InitialSamples int                    `yaml:"initial_samples"`
	Passes         int                    `yaml:"passes"`
	TileSize       int                    `yaml:"tile_size"`
	Workers        int                    `yaml:"workers"`
	TextureWorkers int                    `yaml:"texture_workers"`
	ClearColor     *[4]float32            `yaml:"clear_color"`
	Variant        string                 `yaml:"variant"` // phong, metallic-roughness or empty for the scene's own
	Mode           string                 `yaml:"mode"`    // delivered or material
	Gamma          float32                `yaml:"gamma"`
	Supersample    int                    `yaml:"supersample"`
	Output         string                 `yaml:"output"`
	Format         string                 `yaml:"format"` // png or webp, empty derives it from Output
	Camera         *geometry.CameraConfig `yaml:"camera"`
}

// Defaults returns the settings used when neither file nor flags set a value
func Defaults() Config {
	return Config{
		Scene:          "cube",
		Width:          400,
		Height:         225,
		Samples:        50,
		InitialSamples: 1,
		Passes:         7,
		TileSize:       64,
		Gamma:          1.0,
		Supersample:    1,
		Mode:           string(shader.ModeDelivered),
	}
}

// Load reads a YAML config file. Unknown keys are an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML config data
func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

// Merge returns base with every field that is set in override replaced
func Merge(base, override Config) Config {
	out := base
	if override.Scene != "" {
		out.Scene = override.Scene
	}
	if override.Width != 0 {
		out.Width = override.Width
	}
	if override.Height != 0 {
		out.Height = override.Height
	}
	if override.Samples != 0 {
		out.Samples = override.Samples
	}
	if override.InitialSamples != 0 {
		out.InitialSamples = override.InitialSamples
	}
	if override.Passes != 0 {
		out.Passes = override.Passes
	}
	if override.TileSize != 0 {
		out.TileSize = override.TileSize
	}
	if override.Workers != 0 {
		out.Workers = override.Workers
	}
	if override.TextureWorkers != 0 {
		out.TextureWorkers = override.TextureWorkers
	}
	if override.ClearColor != nil {
		out.ClearColor = override.ClearColor
	}
	if override.Variant != "" {
		out.Variant = override.Variant
	}
	if override.Mode != "" {
		out.Mode = override.Mode
	}
	if override.Gamma != 0 {
		out.Gamma = override.Gamma
	}
	if override.Supersample != 0 {
		out.Supersample = override.Supersample
	}
	if override.Output != "" {
		out.Output = override.Output
	}
	if override.Format != "" {
		out.Format = override.Format
	}
	if override.Camera != nil {
		out.Camera = override.Camera
	}
	return out
}

// Resolve layers flags over the file config over the defaults and validates
// the result
func Resolve(file, flags Config) (Config, error) {
	cfg := Merge(Merge(Defaults(), file), flags)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerated values
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("config: invalid size %dx%d", c.Width, c.Height)
	}
	if c.Supersample < 1 {
		return fmt.Errorf("config: supersample must be at least 1, got %d", c.Supersample)
	}
	if _, err := c.variant(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := shader.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.OutputFormat(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.progressive().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// RenderSize returns the size rays are traced at, before downsampling
func (c Config) RenderSize() (width, height int) {
	return c.Width * c.Supersample, c.Height * c.Supersample
}

// OutputFormat returns the configured format, or the one implied by Output
func (c Config) OutputFormat() (renderer.Format, error) {
	if c.Format != "" {
		return renderer.ParseFormat(c.Format)
	}
	return renderer.FormatForPath(c.Output), nil
}

// OutputPath returns Output, or output/<scene>/render.<format> when unset
func (c Config) OutputPath() string {
	if c.Output != "" {
		return c.Output
	}
	format, err := c.OutputFormat()
	if err != nil {
		format = renderer.FormatPNG
	}
	name := filepath.Base(c.Scene)
	name = name[:len(name)-len(filepath.Ext(name))]
	return filepath.Join("output", name, "render."+string(format))
}

// ProgressiveConfig returns the renderer settings
func (c Config) ProgressiveConfig() (renderer.ProgressiveConfig, error) {
	if err := c.Validate(); err != nil {
		return renderer.ProgressiveConfig{}, err
	}
	return c.progressive(), nil
}

func (c Config) progressive() renderer.ProgressiveConfig {
	mode, _ := shader.ParseMode(c.Mode)
	return renderer.ProgressiveConfig{
		TileSize:           c.TileSize,
		InitialSamples:     c.InitialSamples,
		MaxSamplesPerPixel: c.Samples,
		MaxPasses:          c.Passes,
		NumWorkers:         c.Workers,
		Gamma:              c.Gamma,
		Mode:               mode,
	}
}

// LoadOptions returns the scene loading settings
func (c Config) LoadOptions() (scene.LoadOptions, error) {
	variant, err := c.variant()
	if err != nil {
		return scene.LoadOptions{}, fmt.Errorf("config: %w", err)
	}
	return scene.LoadOptions{
		Variant:        variant,
		ClearColor:     c.ClearColor,
		Camera:         c.Camera,
		TextureWorkers: c.TextureWorkers,
	}, nil
}

func (c Config) variant() (*buffers.Variant, error) {
	if c.Variant == "" {
		return nil, nil
	}
	v, err := buffers.ParseVariant(c.Variant)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
