package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileSystem is an abstraction for reading config files.
// This allows for easy testing with in-memory file systems.
type FileSystem interface {
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Loader reads configuration layers.
type Loader struct {
	fs     FileSystem
	lookup func(string) (string, bool)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFS sets the file system files are read from.
func WithFS(fsys FileSystem) LoaderOption {
	return func(l *Loader) {
		if fsys != nil {
			l.fs = fsys
		}
	}
}

// WithEnv sets the environment lookup function.
func WithEnv(lookup func(string) (string, bool)) LoaderOption {
	return func(l *Loader) {
		if lookup != nil {
			l.lookup = lookup
		}
	}
}

// NewLoader creates a loader reading the OS file system and environment.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		fs:     OSFS{},
		lookup: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load merges defaults, the file at path and the environment, then
// validates the result. An empty path or a missing file skips the file
// layer.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := l.loadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg, l.lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads configuration with the default loader.
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// fileConfig mirrors Config with optional fields so that only keys present
// in the file override defaults.
type fileConfig struct {
	Kinds               []string    `toml:"kinds" yaml:"kinds"`
	RecomputeIntervalMS *int        `toml:"recompute_interval_ms" yaml:"recompute_interval_ms"`
	RedrawIntervalMS    *int        `toml:"redraw_interval_ms" yaml:"redraw_interval_ms"`
	IterationLimit      *int        `toml:"iteration_limit" yaml:"iteration_limit"`
	IgnoreStyles        []int       `toml:"ignore_styles" yaml:"ignore_styles"`
	ClassifierScript    *string     `toml:"classifier_script" yaml:"classifier_script"`
	Colors              *fileColors `toml:"colors" yaml:"colors"`
	LogLevel            *string     `toml:"log_level" yaml:"log_level"`
}

type fileColors struct {
	Dark  []string `toml:"dark" yaml:"dark"`
	Light []string `toml:"light" yaml:"light"`
}

func (l *Loader) loadFile(cfg *Config, path string) error {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // File doesn't exist, not an error
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = decodeTOML(path, data, &fc)
	case ".yaml", ".yml":
		err = decodeYAML(path, data, &fc)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return err
	}

	fc.overlay(cfg)

	// A relative script path is relative to the config file.
	if cfg.ClassifierScript != "" && !filepath.IsAbs(cfg.ClassifierScript) {
		cfg.ClassifierScript = filepath.Join(filepath.Dir(path), cfg.ClassifierScript)
	}
	return nil
}

func decodeTOML(path string, data []byte, fc *fileConfig) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(fc); err != nil {
		pe := &ParseError{Path: path, Message: err.Error(), Err: err}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			pe.Line, pe.Column = de.Position()
		}
		return pe
	}
	return nil
}

func decodeYAML(path string, data []byte, fc *fileConfig) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(fc); err != nil {
		// An empty document decodes to io.EOF; treat it as no overrides.
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		return &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return nil
}

func (fc *fileConfig) overlay(cfg *Config) {
	if fc.Kinds != nil {
		cfg.Kinds = fc.Kinds
	}
	if fc.RecomputeIntervalMS != nil {
		cfg.RecomputeIntervalMS = *fc.RecomputeIntervalMS
	}
	if fc.RedrawIntervalMS != nil {
		cfg.RedrawIntervalMS = *fc.RedrawIntervalMS
	}
	if fc.IterationLimit != nil {
		cfg.IterationLimit = *fc.IterationLimit
	}
	if fc.IgnoreStyles != nil {
		cfg.IgnoreStyles = fc.IgnoreStyles
	}
	if fc.ClassifierScript != nil {
		cfg.ClassifierScript = *fc.ClassifierScript
	}
	if fc.Colors != nil {
		if fc.Colors.Dark != nil {
			cfg.Colors.Dark = fc.Colors.Dark
		}
		if fc.Colors.Light != nil {
			cfg.Colors.Light = fc.Colors.Light
		}
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
}
