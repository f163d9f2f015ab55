package cfg

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

func DefaultTuning() Tuning {
	var t Tuning
	t.applyDefaults()
	return t
}

// LoadTuning reads the tuning file at path. An empty path yields the
// defaults.
func LoadTuning(path string) (*Tuning, error) {
	if path == "" {
		t := DefaultTuning()
		return &t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning file: %w", err)
	}

	t, err := ParseTuning(data)
	if err != nil {
		return nil, fmt.Errorf("invalid tuning file %s: %w", path, err)
	}

	slog.Debug("Tuning loaded",
		"file", path,
		"rate_limit_capacity", t.RateLimit.Capacity,
		"retry_attempts", t.Retry.MaxAttempts,
		"cache_ttl", t.Cache.TTL,
		"batch_size", t.Lookup.BatchSize)

	return t, nil
}

func ParseTuning(data []byte) (*Tuning, error) {
	var t Tuning
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	t.applyDefaults()

	if err := t.validate(); err != nil {
		return nil, err
	}

	return &t, nil
}

func (t *Tuning) applyDefaults() {
	if t.RateLimit.Capacity == 0 {
		t.RateLimit.Capacity = 10
	}
	if t.RateLimit.RefillInterval == 0 {
		t.RateLimit.RefillInterval = time.Second
	}

	if t.Retry.MaxAttempts == 0 {
		t.Retry.MaxAttempts = 3
	}
	if t.Retry.BaseDelay == 0 {
		t.Retry.BaseDelay = 2 * time.Second
	}

	if t.Lookup.JitterMin == 0 {
		t.Lookup.JitterMin = time.Second
	}
	if t.Lookup.JitterMax == 0 {
		t.Lookup.JitterMax = 2500 * time.Millisecond
	}
	if t.Lookup.BatchSize == 0 {
		t.Lookup.BatchSize = 5
	}
	if t.Lookup.BatchPause == 0 {
		t.Lookup.BatchPause = 2 * time.Second
	}

	if t.Cache.TTL == 0 {
		t.Cache.TTL = 24 * time.Hour
	}

	l := &t.Limits
	if l.SearchLimit == 0 {
		l.SearchLimit = 12
	}
	if l.RandomCount == 0 {
		l.RandomCount = 4
	}
	if l.RandomMaxCount == 0 {
		l.RandomMaxCount = 25
	}
	if l.RandomPoolSize == 0 {
		l.RandomPoolSize = 500
	}
	if l.TopLimit == 0 {
		l.TopLimit = 50
	}
	if l.TopMaxLimit == 0 {
		l.TopMaxLimit = 500
	}
	if l.TopRankSize == 0 {
		l.TopRankSize = 10
	}
	if l.SeasonLimit == 0 {
		l.SeasonLimit = 50
	}
}

func (t *Tuning) validate() error {
	positiveInts := map[string]int{
		"rate_limit.capacity":     t.RateLimit.Capacity,
		"retry.max_attempts":      t.Retry.MaxAttempts,
		"lookup.batch_size":       t.Lookup.BatchSize,
		"limits.search_limit":     t.Limits.SearchLimit,
		"limits.random_count":     t.Limits.RandomCount,
		"limits.random_max_count": t.Limits.RandomMaxCount,
		"limits.random_pool_size": t.Limits.RandomPoolSize,
		"limits.top_limit":        t.Limits.TopLimit,
		"limits.top_max_limit":    t.Limits.TopMaxLimit,
		"limits.top_rank_size":    t.Limits.TopRankSize,
		"limits.season_limit":     t.Limits.SeasonLimit,
	}

	for fieldName, fieldValue := range positiveInts {
		if fieldValue < 1 {
			return fmt.Errorf("%s must be positive", fieldName)
		}
	}

	nonNegativeDurations := map[string]time.Duration{
		"rate_limit.refill_interval": t.RateLimit.RefillInterval,
		"rate_limit.max_wait":        t.RateLimit.MaxWait,
		"retry.base_delay":           t.Retry.BaseDelay,
		"lookup.jitter_min":          t.Lookup.JitterMin,
		"lookup.jitter_max":          t.Lookup.JitterMax,
		"lookup.batch_pause":         t.Lookup.BatchPause,
		"cache.ttl":                  t.Cache.TTL,
		"cache.sweep_interval":       t.Cache.SweepInterval,
	}

	for fieldName, fieldValue := range nonNegativeDurations {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	if t.Lookup.JitterMax < t.Lookup.JitterMin {
		return fmt.Errorf("lookup.jitter_max must not be below lookup.jitter_min")
	}
	if t.Limits.RandomCount > t.Limits.RandomMaxCount {
		return fmt.Errorf("limits.random_count must not exceed limits.random_max_count")
	}
	if t.Limits.TopLimit > t.Limits.TopMaxLimit {
		return fmt.Errorf("limits.top_limit must not exceed limits.top_max_limit")
	}

	return nil
}
