// Package config loads the runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix, e.g. CALRESOLVE_MODEL.
const Prefix = "CALRESOLVE"

// Config holds the resolver configuration.
// Keys with an envconfig tag also fall back to the unprefixed name, so
// GEMINI_API_KEY works as well as CALRESOLVE_GEMINI_API_KEY.
type Config struct {
	// Generation model
	GeminiAPIKey          string        `envconfig:"GEMINI_API_KEY"`
	Model                 string        `envconfig:"MODEL" default:"gemini-2.0-flash"`
	Temperature           float32       `envconfig:"TEMPERATURE" default:"0"`
	GenerationTimeout     time.Duration `envconfig:"GENERATION_TIMEOUT" default:"30s"`
	GenerationMaxAttempts int           `envconfig:"GENERATION_MAX_ATTEMPTS" default:"3"`

	// Resolution policy
	TimeZone             string  `envconfig:"TIME_ZONE" default:"UTC"`
	MaxToolIterations    int     `envconfig:"MAX_TOOL_ITERATIONS" default:"5"`
	AutoResolveThreshold float64 `envconfig:"AUTO_RESOLVE_THRESHOLD" default:"0.9"`
	CandidateThreshold   float64 `envconfig:"CANDIDATE_THRESHOLD" default:"0.8"`
	PrefilterTopK        int     `envconfig:"PREFILTER_TOP_K" default:"10"`
	UpcomingLimit        int     `envconfig:"UPCOMING_LIMIT" default:"50"`

	// Calendar access
	CalendarTimeout    time.Duration `envconfig:"CALENDAR_TIMEOUT" default:"15s"`
	ClientCacheSize    int           `envconfig:"CLIENT_CACHE_SIZE" default:"64"`
	TokenDir           string        `envconfig:"TOKEN_DIR"`
	GoogleClientID     string        `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `envconfig:"GOOGLE_CLIENT_SECRET"`

	// HTTP transport
	RateLimit      float64 `envconfig:"RATE_LIMIT" default:"10"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"20"`
	TrustProxy     bool    `envconfig:"TRUST_PROXY"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects inconsistent thresholds and non-positive limits.
func (c *Config) Validate() error {
	var errs []error

	if c.Model == "" {
		errs = append(errs, errors.New("model must not be empty"))
	}
	if c.AutoResolveThreshold < 0 || c.AutoResolveThreshold > 1 {
		errs = append(errs, fmt.Errorf("auto-resolve threshold %.2f must be within [0, 1]", c.AutoResolveThreshold))
	}
	if c.CandidateThreshold < 0 || c.CandidateThreshold > 1 {
		errs = append(errs, fmt.Errorf("candidate threshold %.2f must be within [0, 1]", c.CandidateThreshold))
	}
	if c.CandidateThreshold > c.AutoResolveThreshold {
		errs = append(errs, fmt.Errorf("candidate threshold %.2f must not exceed auto-resolve threshold %.2f",
			c.CandidateThreshold, c.AutoResolveThreshold))
	}

	positive := []struct {
		name  string
		value int
	}{
		{"max tool iterations", c.MaxToolIterations},
		{"prefilter top-k", c.PrefilterTopK},
		{"upcoming limit", c.UpcomingLimit},
		{"generation max attempts", c.GenerationMaxAttempts},
		{"client cache size", c.ClientCacheSize},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", p.name, p.value))
		}
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate limit must not be negative, got %.2f", c.RateLimit))
	}
	if c.GenerationTimeout < 0 || c.CalendarTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Location returns the configured calendar time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}
