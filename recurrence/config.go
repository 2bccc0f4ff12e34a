package recurrence

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EngineConfig holds configuration options for the recurrence engine
type EngineConfig struct {
	// Cache configuration
	CacheEnabled bool        `yaml:"cache_enabled"`
	CacheConfig  CacheConfig `yaml:"cache"`

	// MaxExpansionOccurrences caps the occurrences Expand returns (0 = unlimited).
	MaxExpansionOccurrences int `yaml:"max_expansion_occurrences"`
	// MaxEmptyPeriods is the per-rule safety cap on consecutive periods without an
	// occurrence (0 = the generator's default).
	MaxEmptyPeriods int `yaml:"max_empty_periods"`
}

// DefaultEngineConfig provides sensible defaults for production use
var DefaultEngineConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig:  DefaultCacheConfig,

	MaxExpansionOccurrences: 1000,
}

// HighPerformanceConfig is optimized for high-traffic scenarios
var HighPerformanceConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:             30 * time.Minute,
		MaxEntries:      5000,
		CleanupInterval: 10 * time.Minute,
	},

	MaxExpansionOccurrences: 500,
	MaxEmptyPeriods:         1000,
}

// LowMemoryConfig is optimized for memory-constrained environments
var LowMemoryConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      100,
		CleanupInterval: 2 * time.Minute,
	},

	MaxExpansionOccurrences: 200,
}

// DisabledCacheConfig turns off caching entirely
var DisabledCacheConfig = EngineConfig{
	CacheEnabled: false,

	MaxExpansionOccurrences: 1000,
}

var presets = map[string]EngineConfig{
	"default":          DefaultEngineConfig,
	"high-performance": HighPerformanceConfig,
	"low-memory":       LowMemoryConfig,
	"disabled-cache":   DisabledCacheConfig,
}

// ParseEngineConfig reads a YAML document. An optional top-level "preset" key picks
// the base configuration (default, high-performance, low-memory, disabled-cache);
// the remaining keys override it.
func ParseEngineConfig(data []byte) (EngineConfig, error) {
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return EngineConfig{}, fmt.Errorf("failed to parse engine config: %w", err)
	}

	name := strings.ToLower(strings.TrimSpace(head.Preset))
	if name == "" {
		name = "default"
	}
	config, ok := presets[name]
	if !ok {
		return EngineConfig{}, fmt.Errorf("unknown engine config preset %q", head.Preset)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return EngineConfig{}, fmt.Errorf("failed to parse engine config: %w", err)
	}
	if config.MaxExpansionOccurrences < 0 || config.MaxEmptyPeriods < 0 {
		return EngineConfig{}, fmt.Errorf("engine config limits must not be negative")
	}
	return config, nil
}

// LoadEngineConfig reads a YAML config file. See ParseEngineConfig.
func LoadEngineConfig(path string) (EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("failed to read engine config: %w", err)
	}
	return ParseEngineConfig(data)
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger for the engine
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngineWithConfig creates a new recurrence engine with custom configuration
func NewEngineWithConfig(config EngineConfig, opts ...Option) *Engine {
	var cache *RecurrenceCache
	if config.CacheEnabled {
		cache = NewRecurrenceCache(config.CacheConfig)
	}

	e := &Engine{
		cache:  cache,
		config: config,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewEngineWithoutCache creates an engine that recomputes every call
func NewEngineWithoutCache(opts ...Option) *Engine {
	return NewEngineWithConfig(DisabledCacheConfig, opts...)
}
