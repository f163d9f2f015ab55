package cfg

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultTuning(t *testing.T) {
	tuning := DefaultTuning()

	if tuning.RateLimit.Capacity != 10 {
		t.Errorf("Expected capacity 10, got %d", tuning.RateLimit.Capacity)
	}
	if tuning.RateLimit.RefillInterval != time.Second {
		t.Errorf("Expected refill interval 1s, got %s", tuning.RateLimit.RefillInterval)
	}
	if tuning.RateLimit.MaxWait != 0 {
		t.Errorf("Expected unbounded max wait, got %s", tuning.RateLimit.MaxWait)
	}
	if tuning.Retry.MaxAttempts != 3 || tuning.Retry.BaseDelay != 2*time.Second {
		t.Errorf("Unexpected retry defaults: %+v", tuning.Retry)
	}
	if tuning.Lookup.JitterMin != time.Second || tuning.Lookup.JitterMax != 2500*time.Millisecond {
		t.Errorf("Unexpected jitter defaults: %+v", tuning.Lookup)
	}
	if tuning.Cache.TTL != 24*time.Hour {
		t.Errorf("Expected cache TTL 24h, got %s", tuning.Cache.TTL)
	}
	if tuning.Cache.SweepInterval != 0 {
		t.Errorf("Expected sweeper disabled by default, got %s", tuning.Cache.SweepInterval)
	}
	if tuning.Limits.SearchLimit != 12 || tuning.Limits.TopRankSize != 10 {
		t.Errorf("Unexpected limit defaults: %+v", tuning.Limits)
	}
}

func TestParseTuningDurations(t *testing.T) {
	data := []byte(`
rate_limit:
  refill_interval: 500ms
  max_wait: 30s
retry:
  base_delay: 1s
cache:
  ttl: 6h
  sweep_interval: 10m
`)

	tuning, err := ParseTuning(data)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if tuning.RateLimit.RefillInterval != 500*time.Millisecond {
		t.Errorf("Expected refill interval 500ms, got %s", tuning.RateLimit.RefillInterval)
	}
	if tuning.RateLimit.MaxWait != 30*time.Second {
		t.Errorf("Expected max wait 30s, got %s", tuning.RateLimit.MaxWait)
	}
	if tuning.Retry.BaseDelay != time.Second {
		t.Errorf("Expected base delay 1s, got %s", tuning.Retry.BaseDelay)
	}
	if tuning.Cache.TTL != 6*time.Hour {
		t.Errorf("Expected TTL 6h, got %s", tuning.Cache.TTL)
	}
	if tuning.Cache.SweepInterval != 10*time.Minute {
		t.Errorf("Expected sweep interval 10m, got %s", tuning.Cache.SweepInterval)
	}
	if tuning.Retry.MaxAttempts != 3 {
		t.Errorf("Expected untouched fields to keep defaults, got %d attempts", tuning.Retry.MaxAttempts)
	}
}

func TestParseTuningValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"negative capacity", "rate_limit:\n  capacity: -1\n", "rate_limit.capacity"},
		{"negative max wait", "rate_limit:\n  max_wait: -5s\n", "rate_limit.max_wait"},
		{"inverted jitter", "lookup:\n  jitter_min: 3s\n  jitter_max: 2s\n", "jitter_max"},
		{"random count above max", "limits:\n  random_count: 30\n", "random_count"},
		{"top limit above max", "limits:\n  top_limit: 600\n", "top_limit"},
		{"malformed yaml", "rate_limit: [", "failed to parse YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTuning([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseTuningEmpty(t *testing.T) {
	tuning, err := ParseTuning(nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if *tuning != DefaultTuning() {
		t.Errorf("Expected defaults for empty file, got %+v", *tuning)
	}
}
