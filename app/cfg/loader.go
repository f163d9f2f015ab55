package cfg

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	if Version == "" {
		return "unknown"
	}
	return Version
}

type rawCfg struct {
	// Upstream sources
	MALClientID    string        `long:"mal-client-id" env:"MAL_CLIENT_ID" description:"MyAnimeList API client ID (required)" required:"true"`
	MALBaseURL     string        `long:"mal-base-url" env:"MAL_BASE_URL" default:"https://api.myanimelist.net/v2" description:"MyAnimeList API base URL"`
	ShindenBaseURL string        `long:"shinden-base-url" env:"SHINDEN_BASE_URL" default:"https://shinden.pl" description:"shinden.pl base URL"`
	HTTPTimeout    time.Duration `long:"http-timeout" env:"HTTP_TIMEOUT" default:"15s" description:"Timeout for outbound HTTP requests"`

	// Application configuration
	Port         string `long:"port" env:"PORT" default:"3000" description:"HTTP server port"`
	PublicDir    string `long:"public-dir" env:"PUBLIC_DIR" description:"Directory with static frontend files (optional)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for cache administration (optional)"`
	TuningFile   string `long:"tuning-file" env:"TUNING_FILE" description:"YAML file with rate limit, retry, cache and batching settings (optional)"`
	LogFile      string `long:"log-file" env:"LOG_FILE" description:"Also write logs to this file, rotated (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (compatible; AnimeComb/1.0)" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Warsaw)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses command line flags and environment. It returns nil, nil when
// help was requested.
func Load() (*Cfg, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("http timeout must be positive, got %s", raw.HTTPTimeout)
	}

	tuning, err := LoadTuning(raw.TuningFile)
	if err != nil {
		return nil, err
	}

	cfg := &Cfg{
		MALClientID:    raw.MALClientID,
		MALBaseURL:     raw.MALBaseURL,
		ShindenBaseURL: raw.ShindenBaseURL,
		HTTPTimeout:    raw.HTTPTimeout,
		Port:           raw.Port,
		PublicDir:      raw.PublicDir,
		APIAccessKey:   raw.APIAccessKey,
		TuningFile:     raw.TuningFile,
		LogFile:        raw.LogFile,
		UserAgent:      raw.UserAgent,
		Timezone:       raw.Timezone,
		Debug:          raw.Debug,
		Version:        GetVersion(),
		Tuning:         *tuning,
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	return cfg, nil
}

func applyTimezone(timezone string) error {
	if timezone == "" {
		return nil
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}
	time.Local = loc
	return nil
}
