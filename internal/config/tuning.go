package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for the junction scene.
// Every field is optional; the Get* accessors supply defaults for anything
// omitted, so partial files are safe.
type TuningConfig struct {
	// Track state
	HistoryCapacity *int `json:"history_capacity,omitempty"`
	MaxMissedTicks  *int `json:"max_missed_ticks,omitempty"`

	// Tick scheduling
	TickDeadline *string `json:"tick_deadline,omitempty"` // duration string like "200ms"
	Parallelism  *int    `json:"parallelism,omitempty"`

	// Plate recognition
	AsyncRecognition     *bool   `json:"async_recognition,omitempty"`
	RecognitionWorkers   *int    `json:"recognition_workers,omitempty"`
	RecognitionQueueSize *int    `json:"recognition_queue_size,omitempty"`
	RecognitionTimeout   *string `json:"recognition_timeout,omitempty"` // duration string like "500ms"
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be at most 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.HistoryCapacity != nil && *c.HistoryCapacity < 2 {
		return fmt.Errorf("history_capacity must be at least 2, got %d", *c.HistoryCapacity)
	}
	if c.MaxMissedTicks != nil && *c.MaxMissedTicks < 1 {
		return fmt.Errorf("max_missed_ticks must be at least 1, got %d", *c.MaxMissedTicks)
	}
	if c.Parallelism != nil && *c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1, got %d", *c.Parallelism)
	}
	if c.RecognitionWorkers != nil && *c.RecognitionWorkers < 1 {
		return fmt.Errorf("recognition_workers must be at least 1, got %d", *c.RecognitionWorkers)
	}
	if c.RecognitionQueueSize != nil && *c.RecognitionQueueSize < 1 {
		return fmt.Errorf("recognition_queue_size must be at least 1, got %d", *c.RecognitionQueueSize)
	}

	for name, v := range map[string]*string{
		"tick_deadline":       c.TickDeadline,
		"recognition_timeout": c.RecognitionTimeout,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}

	return nil
}

// GetHistoryCapacity returns the history_capacity value or the default.
func (c *TuningConfig) GetHistoryCapacity() int {
	if c.HistoryCapacity == nil {
		return 10
	}
	return *c.HistoryCapacity
}

// GetMaxMissedTicks returns the max_missed_ticks value or the default.
func (c *TuningConfig) GetMaxMissedTicks() int {
	if c.MaxMissedTicks == nil {
		return 30
	}
	return *c.MaxMissedTicks
}

// GetTickDeadline parses and returns the TickDeadline as a time.Duration.
func (c *TuningConfig) GetTickDeadline() time.Duration {
	if c.TickDeadline == nil || *c.TickDeadline == "" {
		return 200 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.TickDeadline)
	if err != nil {
		return 200 * time.Millisecond // default on parse error
	}
	return d
}

// GetParallelism returns the parallelism value or the default.
func (c *TuningConfig) GetParallelism() int {
	if c.Parallelism == nil {
		return 8
	}
	return *c.Parallelism
}

// GetAsyncRecognition returns the async_recognition value or the default.
func (c *TuningConfig) GetAsyncRecognition() bool {
	if c.AsyncRecognition == nil {
		return false // default: recognise inline within the tick
	}
	return *c.AsyncRecognition
}

// GetRecognitionWorkers returns the recognition_workers value or the default.
func (c *TuningConfig) GetRecognitionWorkers() int {
	if c.RecognitionWorkers == nil {
		return 2
	}
	return *c.RecognitionWorkers
}

// GetRecognitionQueueSize returns the recognition_queue_size value or the default.
func (c *TuningConfig) GetRecognitionQueueSize() int {
	if c.RecognitionQueueSize == nil {
		return 64
	}
	return *c.RecognitionQueueSize
}

// GetRecognitionTimeout parses and returns the RecognitionTimeout as a time.Duration.
func (c *TuningConfig) GetRecognitionTimeout() time.Duration {
	if c.RecognitionTimeout == nil || *c.RecognitionTimeout == "" {
		return 500 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.RecognitionTimeout)
	if err != nil {
		return 500 * time.Millisecond // default on parse error
	}
	return d
}
