package screenerconfig

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the screening knob file. Unknown fields fail immediately so a
// typo never silently falls back to a default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the knob invariants.
func Validate(cfg *Config) error {
	if cfg.Aggregation.FanOut < 1 || cfg.Aggregation.FanOut > 64 {
		return fmt.Errorf("aggregation.fan_out must be in [1, 64], got %d", cfg.Aggregation.FanOut)
	}
	if cfg.Aggregation.ResultLimit < 0 {
		return fmt.Errorf("aggregation.result_limit must be >= 0, got %d", cfg.Aggregation.ResultLimit)
	}
	if cfg.Resolver.ExtremesCacheTTL < 0 {
		return fmt.Errorf("resolver.extremes_cache_ttl must be >= 0, got %s", cfg.Resolver.ExtremesCacheTTL)
	}
	if cfg.Warm.Enabled && cfg.Warm.Schedule == "" {
		return fmt.Errorf("warm.schedule is required when warm.enabled is true")
	}
	return nil
}
