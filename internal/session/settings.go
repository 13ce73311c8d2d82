package session

import (
	"fmt"
	"slices"
	"time"

	"github.com/dshills/bracketcolor/internal/bracket/kind"
	"github.com/dshills/bracketcolor/internal/bracket/tracker"
	"github.com/dshills/bracketcolor/internal/classify"
	"github.com/dshills/bracketcolor/internal/config"
	"github.com/dshills/bracketcolor/internal/logging"
	"github.com/dshills/bracketcolor/internal/palette"
)

// Settings are the per-registry parameters every session runs with.
type Settings struct {
	// Kinds are the bracket kinds tracked in each document.
	Kinds kind.Set

	// RecomputeInterval is the recompute timer period.
	RecomputeInterval time.Duration

	// RedrawInterval is the redraw timer period.
	RedrawInterval time.Duration

	// IterationLimit bounds positions recomputed per tick per kind.
	IterationLimit int

	// Scheme holds the light and dark palettes.
	Scheme palette.Scheme

	// Classifier decides which styles hide brackets. Implementations must
	// be comparable; a change of classifier rescans every document.
	Classifier tracker.StyleClassifier

	// classifierKey identifies the inputs Classifier was built from.
	classifierKey string
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		Kinds:             kind.DefaultSet,
		RecomputeInterval: config.DefaultRecomputeIntervalMS * time.Millisecond,
		RedrawInterval:    config.DefaultRedrawIntervalMS * time.Millisecond,
		IterationLimit:    tracker.DefaultIterationLimit,
		Scheme:            palette.DefaultScheme(),
		Classifier:        classify.DefaultStyleSet(),
		classifierKey:     classifierKey(classify.DefaultIgnoreStyles, "", ""),
	}
}

// SettingsFromConfig converts a validated configuration. When the config
// names a classifier script it is loaded with the ignore_styles set as its
// fallback.
func SettingsFromConfig(cfg *config.Config, logger *logging.Logger) (Settings, error) {
	return settingsFromConfig(cfg, logger, Settings{})
}

// settingsFromConfig keeps prev's classifier when the ignored styles, the
// script path and the script source are all unchanged.
func settingsFromConfig(cfg *config.Config, logger *logging.Logger, prev Settings) (Settings, error) {
	kinds, err := cfg.KindSet()
	if err != nil {
		return Settings{}, err
	}
	scheme, err := cfg.Scheme()
	if err != nil {
		return Settings{}, err
	}

	var source string
	if cfg.ClassifierScript != "" {
		if source, err = classify.ReadScript(cfg.ClassifierScript); err != nil {
			return Settings{}, err
		}
	}

	key := classifierKey(cfg.IgnoreStyles, cfg.ClassifierScript, source)
	classifier := prev.Classifier
	if classifier == nil || key != prev.classifierKey {
		if classifier, err = newClassifier(cfg, source, logger); err != nil {
			return Settings{}, err
		}
	}

	return Settings{
		Kinds:             kinds,
		RecomputeInterval: cfg.RecomputeInterval(),
		RedrawInterval:    cfg.RedrawInterval(),
		IterationLimit:    cfg.IterationLimit,
		Scheme:            scheme,
		Classifier:        classifier,
		classifierKey:     key,
	}, nil
}

func newClassifier(cfg *config.Config, source string, logger *logging.Logger) (tracker.StyleClassifier, error) {
	styles := classify.NewStyleSet(cfg.IgnoreStyles...)
	if cfg.ClassifierScript == "" {
		return styles, nil
	}
	script, err := classify.NewScript(source, styles, classify.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("classifier script %s: %w", cfg.ClassifierScript, err)
	}
	return script, nil
}

func classifierKey(styles []int, path, source string) string {
	sorted := slices.Clone(styles)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	return fmt.Sprintf("%v\x00%s\x00%s", sorted, path, source)
}
