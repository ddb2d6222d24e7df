package session

import (
	"math"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/rs/zerolog"
)

// Environment variables read by the session factory.
const (
	EnvRetryTotal         = "SWANLAB_RETRY_TOTAL"
	EnvRetryBackoffFactor = "SWANLAB_RETRY_BACKOFF_FACTOR"
)

const (
	// DefaultRetryTotal is the default retry budget after the initial attempt.
	DefaultRetryTotal = 5

	// DefaultBackoffFactor is the default multiplier for the exponential
	// wait between retries, in seconds.
	DefaultBackoffFactor = 0.5
)

// RetryConfig holds the validated retry settings for a session. Both fields
// are non-negative once constructed; invalid input never survives resolution.
type RetryConfig struct {
	// Total bounds the number of retries after the initial attempt.
	Total int

	// BackoffFactor scales the exponential wait between retries: the n-th
	// retry waits BackoffFactor * 2^(n-1) seconds.
	BackoffFactor float64
}

// DefaultRetryConfig returns the settings used when no environment
// configuration is present.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Total:         DefaultRetryTotal,
		BackoffFactor: DefaultBackoffFactor,
	}
}

// rawRetryConfig carries the environment values as strings so malformed
// input reaches the defaulting helpers instead of failing the env parse.
type rawRetryConfig struct {
	Total         string `env:"SWANLAB_RETRY_TOTAL" envDefault:"5"`
	BackoffFactor string `env:"SWANLAB_RETRY_BACKOFF_FACTOR" envDefault:"0.5"`
}

// ParseRetryConfig resolves the retry configuration from an environment
// snapshot. A nil environ reads the process environment; keys absent from
// the snapshot use their defaults. Resolution never fails: values that do
// not parse, or parse negative, are replaced by their defaults and logged
// at warn level. The two settings resolve independently.
func ParseRetryConfig(environ map[string]string, log zerolog.Logger) RetryConfig {
	var raw rawRetryConfig
	if err := env.Parse(&raw, env.Options{Environment: environ}); err != nil {
		log.Warn().Err(err).Msg("reading retry environment failed, using defaults")
		return DefaultRetryConfig()
	}
	return RetryConfig{
		Total:         intOrDefault(raw.Total, DefaultRetryTotal, log, EnvRetryTotal),
		BackoffFactor: floatOrDefault(raw.BackoffFactor, DefaultBackoffFactor, log, EnvRetryBackoffFactor),
	}
}

// RetryConfigFromEnv resolves the retry configuration from the process
// environment.
func RetryConfigFromEnv(log zerolog.Logger) RetryConfig {
	return ParseRetryConfig(nil, log)
}

// intOrDefault parses raw as a non-negative integer, substituting def when
// the value does not parse or is negative.
func intOrDefault(raw string, def int, log zerolog.Logger, name string) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 0 {
		log.Warn().Str("name", name).Str("value", raw).Int("default", def).
			Msg("invalid retry setting, using default")
		return def
	}
	return v
}

// floatOrDefault parses raw as a non-negative finite real number,
// substituting def when the value does not parse or is out of range.
func floatOrDefault(raw string, def float64, log zerolog.Logger, name string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		log.Warn().Str("name", name).Str("value", raw).Float64("default", def).
			Msg("invalid retry setting, using default")
		return def
	}
	return v
}
