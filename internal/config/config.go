// Package config provides configuration management for windowing operations
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Accepted values for MissingKeys
const (
	MissingKeysGroup = "group"
	MissingKeysDrop  = "drop"
)

// Accepted values for ReducerErrors
const (
	ReducerErrorsStrict     = "strict"
	ReducerErrorsBestEffort = "best_effort"
)

// Config represents the global configuration for windowing operations
type Config struct {
	// Parallel Processing Configuration
	ParallelThreshold        int `json:"parallel_threshold" yaml:"parallel_threshold"`                   // Minimum total rows to trigger parallel processing
	MinPartitionsForParallel int `json:"min_partitions_for_parallel" yaml:"min_partitions_for_parallel"` // Minimum partition count to trigger parallel processing
	WorkerPoolSize           int `json:"worker_pool_size" yaml:"worker_pool_size"`                       // Number of worker goroutines (0 = auto-detect)

	// Semantics Configuration
	MissingKeys   string `json:"missing_keys" yaml:"missing_keys"`     // "group" or "drop"
	ReducerErrors string `json:"reducer_errors" yaml:"reducer_errors"` // "strict" or "best_effort"

	// Debugging Configuration
	VerboseLogging    bool `json:"verbose_logging" yaml:"verbose_logging"`       // Enable per-operation debug logs
	MetricsCollection bool `json:"metrics_collection" yaml:"metrics_collection"` // Enable metrics collection
}

// Global configuration instance
var (
	globalConfig Config
	configMutex  sync.RWMutex
)

// Default configuration values
const (
	DefaultParallelThreshold        = 10000
	DefaultMinPartitionsForParallel = 4
)

func init() {
	globalConfig = NewConfig()
}

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		ParallelThreshold:        DefaultParallelThreshold,
		MinPartitionsForParallel: DefaultMinPartitionsForParallel,
		WorkerPoolSize:           0, // Auto-detect

		MissingKeys:   MissingKeysGroup,
		ReducerErrors: ReducerErrorsStrict,

		VerboseLogging:    false,
		MetricsCollection: false,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.ParallelThreshold <= 0 {
		return fmt.Errorf("ParallelThreshold must be positive, got %d", c.ParallelThreshold)
	}

	if c.MinPartitionsForParallel < 2 {
		return fmt.Errorf("MinPartitionsForParallel must be at least 2, got %d", c.MinPartitionsForParallel)
	}

	if c.WorkerPoolSize < 0 {
		return fmt.Errorf("WorkerPoolSize must be non-negative, got %d", c.WorkerPoolSize)
	}

	switch c.MissingKeys {
	case MissingKeysGroup, MissingKeysDrop:
	default:
		return fmt.Errorf("MissingKeys must be %q or %q, got %q", MissingKeysGroup, MissingKeysDrop, c.MissingKeys)
	}

	switch c.ReducerErrors {
	case ReducerErrorsStrict, ReducerErrorsBestEffort:
	default:
		return fmt.Errorf("ReducerErrors must be %q or %q, got %q",
			ReducerErrorsStrict, ReducerErrorsBestEffort, c.ReducerErrors)
	}

	return nil
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.ParallelThreshold == 0 {
		c.ParallelThreshold = defaults.ParallelThreshold
	}
	if c.MinPartitionsForParallel == 0 {
		c.MinPartitionsForParallel = defaults.MinPartitionsForParallel
	}
	if c.MissingKeys == "" {
		c.MissingKeys = defaults.MissingKeys
	}
	if c.ReducerErrors == "" {
		c.ReducerErrors = defaults.ReducerErrors
	}

	// Boolean fields keep their explicit value; false and unset are indistinguishable here.
	return c
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = config
}

// GetGlobalConfig returns the current global configuration
func GetGlobalConfig() Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// LoadFromJSON loads configuration from JSON data
func LoadFromJSON(data []byte) (Config, error) {
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromYAML loads configuration from YAML data
func LoadFromYAML(data []byte) (Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing YAML configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a file (supports JSON and YAML)
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		config, err = LoadFromJSON(data)
	case ".yaml", ".yml":
		config, err = LoadFromYAML(data)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config, nil
}

// LoadFromEnv loads configuration from WINDOWAGG_* environment variables on top of the defaults
func LoadFromEnv() Config {
	config := NewConfig()

	if val := os.Getenv("WINDOWAGG_PARALLEL_THRESHOLD"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.ParallelThreshold = parsed
		}
	}

	if val := os.Getenv("WINDOWAGG_MIN_PARTITIONS_FOR_PARALLEL"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.MinPartitionsForParallel = parsed
		}
	}

	if val := os.Getenv("WINDOWAGG_WORKER_POOL_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.WorkerPoolSize = parsed
		}
	}

	if val := os.Getenv("WINDOWAGG_MISSING_KEYS"); val != "" {
		config.MissingKeys = strings.ToLower(val)
	}

	if val := os.Getenv("WINDOWAGG_REDUCER_ERRORS"); val != "" {
		config.ReducerErrors = strings.ToLower(val)
	}

	if val := os.Getenv("WINDOWAGG_VERBOSE_LOGGING"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.VerboseLogging = parsed
		}
	}

	if val := os.Getenv("WINDOWAGG_METRICS_COLLECTION"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.MetricsCollection = parsed
		}
	}

	return config
}
