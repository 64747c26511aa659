// SPDX-License-Identifier: MIT

// Package envconfig reads the environment variables that configure the
// gpdist command-line tools.
//
//	GPDIST_DEBUG    log level: a boolean, or an integer n for slog.Level(-4n)
//	GPDIST_SEED     uint64 seed for sampling; 0 or unset draws a fresh seed
//	GPDIST_SAMPLES  default number of samples drawn by `mtnormal sample`
//	GPDIST_WORKERS  concurrent interpolation workers for `mtnormal grid`
//
// Invalid values are logged at warn level and replaced by the default.
package envconfig

import (
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Var returns the trimmed value of key with surrounding quotes removed.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// LogLevel reads GPDIST_DEBUG. Default: slog.LevelInfo.
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("GPDIST_DEBUG"); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			if b {
				level = slog.LevelDebug
			}
		} else if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			level = slog.Level(i * -4)
		} else {
			slog.Warn("invalid environment variable, using default", "key", "GPDIST_DEBUG", "value", s)
		}
	}

	return level
}

// Uint returns a reader for a non-negative integer with a default.
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			n, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
				return defaultValue
			}

			return uint(n)
		}

		return defaultValue
	}
}

// Uint64 returns a reader for a uint64 with a default.
func Uint64(key string, defaultValue uint64) func() uint64 {
	return func() uint64 {
		if s := Var(key); s != "" {
			n, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
				return defaultValue
			}

			return n
		}

		return defaultValue
	}
}

var (
	// Seed is the sampling seed; 0 means "pick one".
	Seed = Uint64("GPDIST_SEED", 0)

	// Samples is the default sample count.
	Samples = Uint("GPDIST_SAMPLES", 1)
)

// Workers reads GPDIST_WORKERS; 0 or unset means GOMAXPROCS.
func Workers() int {
	if n := Uint("GPDIST_WORKERS", 0)(); n > 0 {
		return int(n)
	}

	return runtime.GOMAXPROCS(0)
}

// EnvVar describes one setting.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every setting with its current value.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"GPDIST_DEBUG":   {"GPDIST_DEBUG", LogLevel(), "Show additional debug information (e.g. GPDIST_DEBUG=1)"},
		"GPDIST_SEED":    {"GPDIST_SEED", Seed(), "Seed for sampling (default: random)"},
		"GPDIST_SAMPLES": {"GPDIST_SAMPLES", Samples(), "Default number of samples (default: 1)"},
		"GPDIST_WORKERS": {"GPDIST_WORKERS", Workers(), "Concurrent interpolation workers (default: GOMAXPROCS)"},
	}
}
