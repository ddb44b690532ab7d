/*
Configuration
Copyright (C) 2026 Ivan Latunov

This program is free software; you can redistribute it and/or modify it under
the terms of the GNU General Public License as published by the Free Software
Foundation; either version 2 of the License, or (at your option) any later
version.

This program is distributed in the hope that it will be useful, but WITHOUT ANY
WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A
PARTICULAR PURPOSE.  See the GNU General Public License for more details.

You should have received a copy of the GNU General Public License along with
this program; if not, write to the Free Software Foundation, Inc., 59 Temple
Place, Suite 330, Boston, MA 02111-1307 USA
*/

// Package config loads gifcompare settings from an optional JSON file and the
// environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/xswordsx/gifcompare/internal/lpips"
	"github.com/xswordsx/gifcompare/internal/overlay"
	"github.com/xswordsx/gifcompare/internal/pdiff"
)

// Environment variables that override file settings.
const (
	EnvLPIPSWeights = lpips.EnvWeights
	EnvMode         = "GIFCOMPARE_MODE"
	EnvCheckerSize  = "GIFCOMPARE_CHECKER_SIZE"
)

const maxFileSize = 1 << 20

// DefaultFlickerInterval is how long each frame shows in Flicker playback.
const DefaultFlickerInterval = 200 * time.Millisecond

// Config is the root configuration. Every field is optional; the Get*
// methods supply defaults for anything left unset.
type Config struct {
	Overlay  OverlayConfig  `json:"overlay"`
	Grid     GridConfig     `json:"grid"`
	Metrics  MetricsConfig  `json:"metrics"`
	Playback PlaybackConfig `json:"playback"`
	PDiff    PDiffConfig    `json:"pdiff"`
}

type OverlayConfig struct {
	Mode          *string `json:"mode,omitempty"`
	CheckerSize   *int    `json:"checker_size,omitempty"`
	GridThickness *int    `json:"grid_thickness,omitempty"`
	GTTint        *string `json:"gt_tint,omitempty"`   // "#rrggbb", dual-colour mode
	PredTint      *string `json:"pred_tint,omitempty"` // "#rrggbb", dual-colour mode
}

type GridConfig struct {
	Enabled   *bool    `json:"enabled,omitempty"`
	Size      *int     `json:"size,omitempty"`
	Color     *string  `json:"color,omitempty"` // "#rrggbb"
	Opacity   *float64 `json:"opacity,omitempty"`
	Thickness *int     `json:"thickness,omitempty"`
}

type MetricsConfig struct {
	LPIPSWeights *string `json:"lpips_weights,omitempty"` // directory of .npy files
}

type PlaybackConfig struct {
	FlickerInterval *string `json:"flicker_interval,omitempty"` // duration string like "200ms"
}

type PDiffConfig struct {
	FieldOfView     *float64 `json:"field_of_view,omitempty"`
	ThresholdPixels *int     `json:"threshold_pixels,omitempty"`
	LuminanceOnly   *bool    `json:"luminance_only,omitempty"`
	ColorFactor     *float64 `json:"color_factor,omitempty"`
}

func ptr[T any](v T) *T { return &v }

// Default returns a config with nothing set.
func Default() *Config { return &Config{} }

// Load reads a JSON config from path. The file must have a .json extension
// and be at most 1 MiB. Fields omitted from the file keep their defaults.
func Load(path string) (*Config, error) {
	clean := filepath.Clean(path)
	if ext := filepath.Ext(clean); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	fi, err := os.Stat(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fi.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fi.Size(), maxFileSize)
	}
	data, err := os.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files (".env" when none are
// named) without overriding variables already set. Missing files are not an
// error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides file settings from the environment.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvLPIPSWeights); ok && v != "" {
		c.Metrics.LPIPSWeights = ptr(v)
	}
	if v, ok := os.LookupEnv(EnvMode); ok && v != "" {
		c.Overlay.Mode = ptr(v)
	}
	if v, ok := os.LookupEnv(EnvCheckerSize); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCheckerSize, err)
		}
		c.Overlay.CheckerSize = ptr(n)
	}
	return c.Validate()
}

// Resolve loads the .env file, then path (if non-empty), then applies the
// environment.
func Resolve(path string) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every set value is in range.
func (c *Config) Validate() error {
	if c.Overlay.Mode != nil {
		if _, err := overlay.ParseMode(*c.Overlay.Mode); err != nil {
			return err
		}
	}
	if c.Overlay.CheckerSize != nil && *c.Overlay.CheckerSize < overlay.MinCheckerSize {
		return fmt.Errorf("checker_size must be at least %d, got %d", overlay.MinCheckerSize, *c.Overlay.CheckerSize)
	}
	if c.Overlay.GridThickness != nil && *c.Overlay.GridThickness < 1 {
		return fmt.Errorf("grid_thickness must be positive, got %d", *c.Overlay.GridThickness)
	}
	for _, tint := range []*string{c.Overlay.GTTint, c.Overlay.PredTint} {
		if tint != nil {
			if _, err := ParseColor(*tint); err != nil {
				return err
			}
		}
	}
	if c.Grid.Size != nil && *c.Grid.Size < overlay.MinGridSize {
		return fmt.Errorf("grid size must be at least %d, got %d", overlay.MinGridSize, *c.Grid.Size)
	}
	if c.Grid.Opacity != nil && (*c.Grid.Opacity < 0 || *c.Grid.Opacity > 1) {
		return fmt.Errorf("grid opacity must be between 0 and 1, got %f", *c.Grid.Opacity)
	}
	if c.Grid.Thickness != nil && *c.Grid.Thickness < 1 {
		return fmt.Errorf("grid thickness must be positive, got %d", *c.Grid.Thickness)
	}
	if c.Grid.Color != nil {
		if _, err := ParseColor(*c.Grid.Color); err != nil {
			return err
		}
	}
	if c.Playback.FlickerInterval != nil && *c.Playback.FlickerInterval != "" {
		d, err := time.ParseDuration(*c.Playback.FlickerInterval)
		if err != nil {
			return fmt.Errorf("invalid flicker_interval '%s': %w", *c.Playback.FlickerInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("flicker_interval must be positive, got %s", d)
		}
	}
	return c.PDiffParameters().Validate()
}

// ParseColor parses "#rrggbb" (the '#' is optional) into an opaque colour.
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("color %q must be #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.NRGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}, nil
}

// GetMode returns the configured overlay mode, SideBySide by default.
func (c *Config) GetMode() overlay.Mode {
	if c.Overlay.Mode == nil {
		return overlay.SideBySide
	}
	m, err := overlay.ParseMode(*c.Overlay.Mode)
	if err != nil {
		return overlay.SideBySide
	}
	return m
}

// GetLPIPSWeights returns the LPIPS weights directory or the package default.
func (c *Config) GetLPIPSWeights() string {
	if c.Metrics.LPIPSWeights == nil || *c.Metrics.LPIPSWeights == "" {
		return lpips.DefaultWeightsDir()
	}
	return *c.Metrics.LPIPSWeights
}

// GetFlickerInterval returns the flicker interval, DefaultFlickerInterval
// when unset or unparsable.
func (c *Config) GetFlickerInterval() time.Duration {
	if c.Playback.FlickerInterval == nil || *c.Playback.FlickerInterval == "" {
		return DefaultFlickerInterval
	}
	d, err := time.ParseDuration(*c.Playback.FlickerInterval)
	if err != nil || d <= 0 {
		return DefaultFlickerInterval
	}
	return d
}

// PDiffParameters returns pdiff.DefaultParameters with any configured
// overrides.
func (c *Config) PDiffParameters() pdiff.Parameters {
	p := pdiff.DefaultParameters
	if c.PDiff.FieldOfView != nil {
		p.FieldOfView = *c.PDiff.FieldOfView
	}
	if c.PDiff.ThresholdPixels != nil {
		p.ThresholdPixels = *c.PDiff.ThresholdPixels
	}
	if c.PDiff.LuminanceOnly != nil {
		p.LuminanceOnly = *c.PDiff.LuminanceOnly
	}
	if c.PDiff.ColorFactor != nil {
		p.ColorFactor = *c.PDiff.ColorFactor
	}
	return p
}

// ApplyOverlay configures e from the overlay section.
func (c *Config) ApplyOverlay(e *overlay.Engine) {
	e.SetMode(c.GetMode())
	if c.Overlay.CheckerSize != nil {
		e.SetCheckerSize(*c.Overlay.CheckerSize)
	}
	if c.Overlay.GridThickness != nil {
		e.SetGridThickness(*c.Overlay.GridThickness)
	}
	e.SetTints(tint(c.Overlay.GTTint, overlay.DefaultGTTint), tint(c.Overlay.PredTint, overlay.DefaultPredTint))
}

func tint(s *string, def color.NRGBA) color.NRGBA {
	if s == nil {
		return def
	}
	c, err := ParseColor(*s)
	if err != nil {
		return def
	}
	return c
}

// ApplyGrid configures g from the grid section.
func (c *Config) ApplyGrid(g *overlay.Grid) {
	if c.Grid.Enabled != nil {
		g.SetEnabled(*c.Grid.Enabled)
	}
	if c.Grid.Size != nil {
		g.SetSize(*c.Grid.Size)
	}
	if c.Grid.Color != nil {
		if col, err := ParseColor(*c.Grid.Color); err == nil {
			g.SetColor(col)
		}
	}
	if c.Grid.Opacity != nil {
		g.SetOpacity(*c.Grid.Opacity)
	}
	if c.Grid.Thickness != nil {
		g.SetThickness(*c.Grid.Thickness)
	}
}
