package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the core runtime configuration for the dashboard.
// Values are sourced from environment variables (optionally loaded from a
// .env file by main), with sensible defaults where appropriate.
type Config struct {
	ServiceName string
	ListenAddr  string

	// DataFile is the CSV dataset. A ".gz" suffix means gzip-compressed.
	DataFile string

	// Synthetic data shape used when DataFile is absent or invalid.
	SynthRecords int
	// SynthSeed seeds the generator. 0 picks a random seed per generation.
	SynthSeed  uint64
	SynthStart time.Time
	SynthDays  int

	// SessionGap is the inactivity threshold that ends a session.
	SessionGap time.Duration

	HistogramBins int
	// TableRows caps the raw rows rendered on the dashboard page.
	TableRows int

	// DatabaseURL enables the Postgres snapshot mirror when set.
	DatabaseURL string

	LogLevel  string
	LogPretty bool
}

// Load reads configuration from environment variables and applies defaults.
// Malformed values are ignored in favour of the default.
func Load() *Config {
	cfg := &Config{
		ServiceName:   getenv("APP_SERVICE_NAME", "salesinsight"),
		ListenAddr:    getenv("APP_LISTEN_ADDR", ":8080"),
		DataFile:      getenv("APP_DATA_FILE", "al_solutions_web_logs.csv"),
		SynthRecords:  getenvInt("APP_SYNTH_RECORDS", 1000),
		SynthStart:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		SynthDays:     getenvInt("APP_SYNTH_DAYS", 90),
		SessionGap:    30 * time.Minute,
		HistogramBins: getenvInt("APP_HISTOGRAM_BINS", 20),
		TableRows:     getenvInt("APP_TABLE_ROWS", 200),
		DatabaseURL:   strings.TrimSpace(os.Getenv("APP_DATABASE_URL")),
		LogLevel:      getenv("APP_LOG_LEVEL", "info"),
		LogPretty:     getenvBool("APP_LOG_PRETTY", false),
	}

	if v := os.Getenv("APP_SYNTH_SEED"); v != "" {
		if seed, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.SynthSeed = seed
		}
	}
	if v := os.Getenv("APP_SYNTH_START"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			cfg.SynthStart = t
		}
	}
	if v := os.Getenv("APP_SESSION_GAP"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SessionGap = d
		}
	}

	return cfg
}

// SynthSpan is the period synthetic timestamps are spread over.
func (c *Config) SynthSpan() time.Duration {
	return time.Duration(c.SynthDays) * 24 * time.Hour
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getenvInt returns a positive integer from key, or def.
func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
