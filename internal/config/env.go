package config

import (
	"fmt"
	"strconv"
	"strings"
)

// EnvPrefix is the prefix of every environment variable read.
const EnvPrefix = "BRACKETCOLOR_"

// envSetters maps environment variables (without prefix) to the field they
// set.
var envSetters = map[string]func(*Config, string) error{
	"KINDS": func(c *Config, v string) error {
		c.Kinds = splitList(v)
		return nil
	},
	"RECOMPUTE_INTERVAL_MS": func(c *Config, v string) error {
		return setInt(&c.RecomputeIntervalMS, v)
	},
	"REDRAW_INTERVAL_MS": func(c *Config, v string) error {
		return setInt(&c.RedrawIntervalMS, v)
	},
	"ITERATION_LIMIT": func(c *Config, v string) error {
		return setInt(&c.IterationLimit, v)
	},
	"IGNORE_STYLES": func(c *Config, v string) error {
		items := splitList(v)
		styles := make([]int, 0, len(items))
		for _, item := range items {
			n, err := strconv.Atoi(item)
			if err != nil {
				return err
			}
			styles = append(styles, n)
		}
		c.IgnoreStyles = styles
		return nil
	},
	"CLASSIFIER_SCRIPT": func(c *Config, v string) error {
		c.ClassifierScript = v
		return nil
	},
	"LOG_LEVEL": func(c *Config, v string) error {
		c.LogLevel = strings.ToLower(strings.TrimSpace(v))
		return nil
	},
}

// applyEnv overrides cfg from the environment.
// Note: Empty string values are treated as valid values, not as unset.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	for name, set := range envSetters {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		if err := set(cfg, v); err != nil {
			return fmt.Errorf("environment %s%s: %w", EnvPrefix, name, err)
		}
	}
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
