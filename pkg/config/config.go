// Package config loads the optional engine-tuning file query-tool accepts:
// worker pool size, default event window, and DFS-vs-BFS enumeration mode
// (§5's concurrency knobs). Loading follows the teacher corpus's
// defaults-then-override-then-validate shape (nornicdb/pkg/config's
// LoadFromEnv+Validate, glyphoxa/internal/config's Load+Validate), adapted
// from environment variables to a YAML file since this tool has no server
// process to configure.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// EnumerationMode names a traversal order for C6's embedding extension;
// see Config.EnumerationMode: pkg/enumerate does not read it.
type EnumerationMode string

const (
	EnumerationDFS EnumerationMode = "dfs"
	EnumerationBFS EnumerationMode = "bfs"
)

func (m EnumerationMode) IsValid() bool {
	return m == "" || m == EnumerationDFS || m == EnumerationBFS
}

// Config is the engine-tuning surface exposed to query-tool via
// --config. Every field has a zero-value-safe
// default applied by Default(), so an absent or partial file is valid.
type Config struct {
	// WorkerPoolSize is validated but not read by C5/C6/C7: their chunked
	// parallel loops start one goroutine per chunk with no errgroup limit.
	WorkerPoolSize int `yaml:"worker_pool_size"`

	// DefaultEventWindowSeconds, when > 0, is applied as the simulate
	// Options.Window when a query does not specify its own window.
	DefaultEventWindowSeconds uint64 `yaml:"default_event_window_seconds"`

	// EnumerationMode picks DFS (default, matches the original engine's
	// recursive extend_vertex) or BFS embedding extension in C6.
	// Reserved: pkg/enumerate.Count currently only implements the BFS walk
	// and does not read this field.
	EnumerationMode EnumerationMode `yaml:"enumeration_mode"`

	// Logging controls pkg/telemetry's base logger.
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig mirrors the subset of nornicdb's LoggingConfig this CLI
// tool actually uses.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns a Config with every field set to its production-safe
// default.
func Default() *Config {
	return &Config{
		WorkerPoolSize:            0,
		DefaultEventWindowSeconds: 0,
		EnumerationMode:           EnumerationDFS,
		Logging:                   LoggingConfig{Level: "info", JSON: false},
	}
}

// Load reads path, overlays it onto Default(), and validates the result.
// A missing file is not an error: query-tool treats "no config file" the
// same as an empty one.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader decodes YAML from r onto Default() and validates it.
// Exported separately from Load so tests can build a Config from a string
// literal without touching the filesystem.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cfg for internally inconsistent values.
func Validate(cfg *Config) error {
	if cfg.WorkerPoolSize < 0 {
		return fmt.Errorf("config: worker_pool_size must be >= 0, got %d", cfg.WorkerPoolSize)
	}
	if !cfg.EnumerationMode.IsValid() {
		return fmt.Errorf("config: enumeration_mode %q is invalid; valid values: dfs, bfs", cfg.EnumerationMode)
	}
	switch cfg.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: logging.level %q is invalid; valid values: debug, info, warn, error", cfg.Logging.Level)
	}
	return nil
}
