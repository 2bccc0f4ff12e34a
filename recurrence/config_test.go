package recurrence

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEngineConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    EngineConfig
		wantErr bool
	}{
		{
			name: "empty document keeps the defaults",
			yaml: "",
			want: DefaultEngineConfig,
		},
		{
			name: "preset with overrides",
			yaml: "preset: low-memory\nmax_empty_periods: 50\ncache:\n  ttl: 90s\n",
			want: func() EngineConfig {
				c := LowMemoryConfig
				c.MaxEmptyPeriods = 50
				c.CacheConfig.TTL = 90 * time.Second
				return c
			}(),
		},
		{
			name: "disable the cache",
			yaml: "cache_enabled: false\nmax_expansion_occurrences: 10\n",
			want: func() EngineConfig {
				c := DefaultEngineConfig
				c.CacheEnabled = false
				c.MaxExpansionOccurrences = 10
				return c
			}(),
		},
		{
			name:    "unknown preset",
			yaml:    "preset: turbo\n",
			wantErr: true,
		},
		{
			name:    "negative limit",
			yaml:    "max_empty_periods: -1\n",
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			yaml:    "cache: [\n",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEngineConfig([]byte(tt.yaml))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadEngineConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("preset: high-performance\n"), 0o600))

	got, err := LoadEngineConfig(path)
	require.NoError(t, err)
	assert.Equal(t, HighPerformanceConfig, got)

	_, err = LoadEngineConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	config := DisabledCacheConfig
	config.MaxEmptyPeriods = 3
	engine := NewEngineWithConfig(config, WithLogger(logger))

	masterStart := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	_, err := engine.Expand(masterStart, masterStart,
		RecurrenceInfo{RRULE: []string{"FREQ=YEARLY;BYMONTH=2;BYMONTHDAY=29;BYDAY=MO"}},
		masterStart, masterStart.AddDate(50, 0, 0))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "recurrence expansion capped")
}
