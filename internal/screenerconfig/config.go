package screenerconfig

import "time"

// Config holds the screening knobs loaded from screening.yaml. Attribute
// floors and unit conversions are schema constants, not configuration;
// only operational knobs live here.
type Config struct {
	Meta        Meta        `yaml:"meta" json:"meta"`
	Aggregation Aggregation `yaml:"aggregation" json:"aggregation"`
	Resolver    Resolver    `yaml:"resolver" json:"resolver"`
	Warm        Warm        `yaml:"warm" json:"warm"`
}

// Meta identifies the knob file.
type Meta struct {
	Name    string `yaml:"name" json:"name"`
	Version int    `yaml:"version" json:"version"`
}

// Aggregation controls the multi-set aggregator.
type Aggregation struct {
	// FanOut bounds concurrent per-set executions.
	FanOut int `yaml:"fan_out" json:"fan_out"`
	// ResultLimit caps records returned per request; 0 means unlimited.
	ResultLimit int `yaml:"result_limit" json:"result_limit"`
}

// Resolver controls bound resolution.
type Resolver struct {
	// ExtremesCacheTTL is how long cached corpus extremes stay fresh.
	ExtremesCacheTTL time.Duration `yaml:"extremes_cache_ttl" json:"extremes_cache_ttl"`
}

// Warm controls the scheduled extremes warm-up job.
type Warm struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Schedule string `yaml:"schedule" json:"schedule"` // cron expression
}

// Default returns the knobs used when no screening.yaml is present.
func Default() *Config {
	return &Config{
		Meta: Meta{Name: "default", Version: 1},
		Aggregation: Aggregation{
			FanOut:      4,
			ResultLimit: 500,
		},
		Resolver: Resolver{
			ExtremesCacheTTL: 10 * time.Minute,
		},
		Warm: Warm{
			Enabled:  true,
			Schedule: "0 15 * * * *", // hourly, at :15
		},
	}
}
