// Package config provides configuration for bracket coloring.
//
// Configuration is read in layers: built-in defaults, then a TOML or YAML
// file chosen by extension, then BRACKETCOLOR_* environment variables.
// A missing file is not an error. The merged result is validated before it
// is returned.
//
// A Watcher reloads the file when it changes and hands each valid
// configuration to a callback.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dshills/bracketcolor/internal/bracket/kind"
	"github.com/dshills/bracketcolor/internal/classify"
	"github.com/dshills/bracketcolor/internal/logging"
	"github.com/dshills/bracketcolor/internal/palette"
)

// Default values.
const (
	DefaultRecomputeIntervalMS = 20
	DefaultRedrawIntervalMS    = 100
	DefaultIterationLimit      = 50
	DefaultLogLevel            = "info"
)

// Config holds all settings.
type Config struct {
	// Kinds names the enabled bracket kinds.
	Kinds []string `toml:"kinds" yaml:"kinds"`

	// RecomputeIntervalMS is the recompute timer period.
	RecomputeIntervalMS int `toml:"recompute_interval_ms" yaml:"recompute_interval_ms"`

	// RedrawIntervalMS is the redraw timer period.
	RedrawIntervalMS int `toml:"redraw_interval_ms" yaml:"redraw_interval_ms"`

	// IterationLimit bounds the positions recomputed per tick per kind.
	IterationLimit int `toml:"iteration_limit" yaml:"iteration_limit"`

	// IgnoreStyles lists lexer style ids whose brackets are not colored.
	IgnoreStyles []int `toml:"ignore_styles" yaml:"ignore_styles"`

	// ClassifierScript is an optional Lua file defining is_ignorable(style).
	ClassifierScript string `toml:"classifier_script" yaml:"classifier_script"`

	Colors Colors `toml:"colors" yaml:"colors"`

	LogLevel string `toml:"log_level" yaml:"log_level"`
}

// Colors holds the palettes for dark and light backgrounds.
type Colors struct {
	Dark  []string `toml:"dark" yaml:"dark"`
	Light []string `toml:"light" yaml:"light"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Kinds:               kind.DefaultSet.Names(),
		RecomputeIntervalMS: DefaultRecomputeIntervalMS,
		RedrawIntervalMS:    DefaultRedrawIntervalMS,
		IterationLimit:      DefaultIterationLimit,
		IgnoreStyles:        slices.Clone(classify.DefaultIgnoreStyles),
		Colors: Colors{
			Dark:  slices.Clone(palette.DefaultDarkSpecs),
			Light: slices.Clone(palette.DefaultLightSpecs),
		},
		LogLevel: DefaultLogLevel,
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Kinds = slices.Clone(c.Kinds)
	out.IgnoreStyles = slices.Clone(c.IgnoreStyles)
	out.Colors.Dark = slices.Clone(c.Colors.Dark)
	out.Colors.Light = slices.Clone(c.Colors.Light)
	return &out
}

// Validate checks every field and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error

	if _, err := kind.ParseSet(c.Kinds); err != nil {
		errs = append(errs, &ValidationError{Field: "kinds", Message: err.Error()})
	}
	if c.RecomputeIntervalMS <= 0 {
		errs = append(errs, &ValidationError{Field: "recompute_interval_ms", Message: "must be positive", Value: c.RecomputeIntervalMS})
	}
	if c.RedrawIntervalMS <= 0 {
		errs = append(errs, &ValidationError{Field: "redraw_interval_ms", Message: "must be positive", Value: c.RedrawIntervalMS})
	}
	if c.IterationLimit <= 0 {
		errs = append(errs, &ValidationError{Field: "iteration_limit", Message: "must be positive", Value: c.IterationLimit})
	}
	if _, err := c.Scheme(); err != nil {
		errs = append(errs, &ValidationError{Field: "colors", Message: err.Error()})
	}
	if c.LogLevel != "" && !validLevel(c.LogLevel) {
		errs = append(errs, &ValidationError{Field: "log_level", Message: "unknown level", Value: c.LogLevel})
	}

	return errors.Join(errs...)
}

func validLevel(s string) bool {
	switch s {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// KindSet returns the enabled kinds.
func (c *Config) KindSet() (kind.Set, error) {
	return kind.ParseSet(c.Kinds)
}

// Scheme builds the light and dark palettes.
func (c *Config) Scheme() (palette.Scheme, error) {
	return palette.NewScheme(c.Colors.Dark, c.Colors.Light)
}

// RecomputeInterval returns the recompute period.
func (c *Config) RecomputeInterval() time.Duration {
	return time.Duration(c.RecomputeIntervalMS) * time.Millisecond
}

// RedrawInterval returns the redraw period.
func (c *Config) RedrawInterval() time.Duration {
	return time.Duration(c.RedrawIntervalMS) * time.Millisecond
}

// Level returns the parsed log level.
func (c *Config) Level() logging.Level {
	return logging.ParseLevel(c.LogLevel)
}

// String summarizes the configuration for logs.
func (c *Config) String() string {
	return fmt.Sprintf("kinds=%v recompute=%dms redraw=%dms limit=%d ignore=%v script=%q",
		c.Kinds, c.RecomputeIntervalMS, c.RedrawIntervalMS, c.IterationLimit, c.IgnoreStyles, c.ClassifierScript)
}
