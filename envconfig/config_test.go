package envconfig

import (
	"log/slog"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"false": slog.LevelInfo,
		"1":     slog.LevelDebug,
		"true":  slog.LevelDebug,
		"2":     slog.Level(-8),
		"-1":    slog.LevelWarn,
		"bogus": slog.LevelInfo,
	}
	for value, want := range cases {
		t.Run(value, func(t *testing.T) {
			t.Setenv("GPDIST_DEBUG", value)
			require.Equal(t, want, LogLevel())
		})
	}
}

func TestSeedAndSamples(t *testing.T) {
	t.Setenv("GPDIST_SEED", "")
	require.Equal(t, uint64(0), Seed())

	t.Setenv("GPDIST_SEED", "'42'")
	require.Equal(t, uint64(42), Seed())

	t.Setenv("GPDIST_SEED", "-3")
	require.Equal(t, uint64(0), Seed())

	t.Setenv("GPDIST_SAMPLES", " 5 ")
	require.Equal(t, uint(5), Samples())

	t.Setenv("GPDIST_SAMPLES", "five")
	require.Equal(t, uint(1), Samples())
}

func TestWorkers(t *testing.T) {
	t.Setenv("GPDIST_WORKERS", "3")
	require.Equal(t, 3, Workers())

	t.Setenv("GPDIST_WORKERS", "0")
	require.Equal(t, runtime.GOMAXPROCS(0), Workers())
}

func TestAsMap(t *testing.T) {
	t.Setenv("GPDIST_SEED", "9")
	m := AsMap()
	require.Len(t, m, 4)
	require.Equal(t, uint64(9), m["GPDIST_SEED"].Value)
}
