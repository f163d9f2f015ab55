package cfg

import "time"

type Cfg struct {
	// Upstream sources
	MALClientID    string
	MALBaseURL     string
	ShindenBaseURL string
	HTTPTimeout    time.Duration

	// Application configuration
	Port         string
	PublicDir    string
	APIAccessKey string
	TuningFile   string
	LogFile      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string

	Tuning Tuning
}

// Tuning holds the knobs of the aggregation pipeline. It is read from an
// optional YAML file; zero values fall back to defaults.
type Tuning struct {
	RateLimit RateLimitTuning `yaml:"rate_limit"`
	Retry     RetryTuning     `yaml:"retry"`
	Lookup    LookupTuning    `yaml:"lookup"`
	Cache     CacheTuning     `yaml:"cache"`
	Limits    LimitsTuning    `yaml:"limits"`
}

type RateLimitTuning struct {
	Capacity       int           `yaml:"capacity"`
	RefillInterval time.Duration `yaml:"refill_interval"`
	MaxWait        time.Duration `yaml:"max_wait"` // 0 waits forever
}

type RetryTuning struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

type LookupTuning struct {
	JitterMin  time.Duration `yaml:"jitter_min"`
	JitterMax  time.Duration `yaml:"jitter_max"`
	BatchSize  int           `yaml:"batch_size"`
	BatchPause time.Duration `yaml:"batch_pause"`
}

type CacheTuning struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"` // 0 disables the sweeper
}

type LimitsTuning struct {
	SearchLimit    int `yaml:"search_limit"`
	RandomCount    int `yaml:"random_count"`
	RandomMaxCount int `yaml:"random_max_count"`
	RandomPoolSize int `yaml:"random_pool_size"`
	TopLimit       int `yaml:"top_limit"`
	TopMaxLimit    int `yaml:"top_max_limit"`
	TopRankSize    int `yaml:"top_rank_size"`
	SeasonLimit    int `yaml:"season_limit"`
}
