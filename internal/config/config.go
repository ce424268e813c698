// Package config handles reading and writing .mesa/config.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level structure for .mesa/config.yaml.
type Config struct {
	Version int           `yaml:"version"`
	Seed    uint64        `yaml:"seed"` // 0 picks a fresh seed per run
	Table   TableConfig   `yaml:"table"`
	Buffer  BufferConfig  `yaml:"buffer"`
	Log     LogConfig     `yaml:"log"`
	Cleanup CleanupConfig `yaml:"cleanup"`
}

// TableConfig shapes the dining philosophers table.
type TableConfig struct {
	Seats      int    `yaml:"seats"`
	Policy     string `yaml:"policy"`       // "parity" | "ordered"
	ThinkMaxMs int    `yaml:"think_max_ms"` // ms
	EatMaxMs   int    `yaml:"eat_max_ms"`   // ms
	Meals      int    `yaml:"meals"`        // per philosopher, 0 = unbounded
}

// BufferConfig shapes the ring buffer and its agents.
type BufferConfig struct {
	Capacity     int    `yaml:"capacity"`
	Producers    int    `yaml:"producers"`
	Consumers    int    `yaml:"consumers"`
	ProduceMaxMs int    `yaml:"produce_max_ms"` // ms
	ConsumeMaxMs int    `yaml:"consume_max_ms"` // ms
	Values       string `yaml:"values"`         // "random" | "sequential"
	Items        int    `yaml:"items"`          // per agent, 0 = unbounded
}

// LogConfig controls the per-run event log.
type LogConfig struct {
	Enabled bool `yaml:"enabled"`
}

// CleanupConfig controls pruning of old run directories.
type CleanupConfig struct {
	MaxAgeDays int `yaml:"max_age_days"`
}

// Value modes for BufferConfig.Values.
const (
	ValuesRandom     = "random"
	ValuesSequential = "sequential"
)

const configDir = ".mesa"
const configFile = "config.yaml"

// Dir returns the .mesa directory under the project root.
func Dir(root string) string {
	return filepath.Join(root, configDir)
}

// ReadConfig reads .mesa/config.yaml from the given project directory.
// dir is the project root (not .mesa/ itself). Fields absent from the file
// keep their DefaultConfig values.
func ReadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, configDir, configFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Load is ReadConfig that falls back to DefaultConfig when the project has
// no config file yet.
func Load(dir string) (*Config, error) {
	cfg, err := ReadConfig(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// WriteConfig writes cfg to .mesa/config.yaml in the given project directory.
// Creates the .mesa/ directory if it does not exist.
func WriteConfig(dir string, cfg *Config) error {
	dirPath := filepath.Join(dir, configDir)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	path := filepath.Join(dirPath, configFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Exists reports whether the project already has a config file.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, configDir, configFile))
	return err == nil
}

// DefaultConfig returns the classic setup: five philosophers thinking and
// eating for up to three seconds, and a seven-slot buffer fed with random
// values at up to one per second.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Table: TableConfig{
			Seats:      5,
			Policy:     "parity",
			ThinkMaxMs: 3000,
			EatMaxMs:   3000,
		},
		Buffer: BufferConfig{
			Capacity:     7,
			Producers:    1,
			Consumers:    1,
			ProduceMaxMs: 1000,
			ConsumeMaxMs: 1000,
			Values:       ValuesRandom,
		},
		Log: LogConfig{
			Enabled: true,
		},
		Cleanup: CleanupConfig{
			MaxAgeDays: 30,
		},
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Table.Seats < 2 {
		errs = append(errs, fmt.Errorf("table.seats must be at least 2, got %d", c.Table.Seats))
	}
	switch c.Table.Policy {
	case "", "parity", "ordered":
	default:
		errs = append(errs, fmt.Errorf("table.policy must be parity or ordered, got %q", c.Table.Policy))
	}
	if c.Table.ThinkMaxMs < 0 {
		errs = append(errs, fmt.Errorf("table.think_max_ms must not be negative, got %d", c.Table.ThinkMaxMs))
	}
	if c.Table.EatMaxMs < 0 {
		errs = append(errs, fmt.Errorf("table.eat_max_ms must not be negative, got %d", c.Table.EatMaxMs))
	}
	if c.Table.Meals < 0 {
		errs = append(errs, fmt.Errorf("table.meals must not be negative, got %d", c.Table.Meals))
	}
	if c.Buffer.Capacity < 1 {
		errs = append(errs, fmt.Errorf("buffer.capacity must be at least 1, got %d", c.Buffer.Capacity))
	}
	if c.Buffer.Producers < 0 {
		errs = append(errs, fmt.Errorf("buffer.producers must not be negative, got %d", c.Buffer.Producers))
	}
	if c.Buffer.Consumers < 0 {
		errs = append(errs, fmt.Errorf("buffer.consumers must not be negative, got %d", c.Buffer.Consumers))
	}
	if c.Buffer.ProduceMaxMs < 0 {
		errs = append(errs, fmt.Errorf("buffer.produce_max_ms must not be negative, got %d", c.Buffer.ProduceMaxMs))
	}
	if c.Buffer.ConsumeMaxMs < 0 {
		errs = append(errs, fmt.Errorf("buffer.consume_max_ms must not be negative, got %d", c.Buffer.ConsumeMaxMs))
	}
	switch c.Buffer.Values {
	case "", ValuesRandom, ValuesSequential:
	default:
		errs = append(errs, fmt.Errorf("buffer.values must be random or sequential, got %q", c.Buffer.Values))
	}
	if c.Buffer.Items < 0 {
		errs = append(errs, fmt.Errorf("buffer.items must not be negative, got %d", c.Buffer.Items))
	}
	if c.Cleanup.MaxAgeDays < 0 {
		errs = append(errs, fmt.Errorf("cleanup.max_age_days must not be negative, got %d", c.Cleanup.MaxAgeDays))
	}
	return errors.Join(errs...)
}

// ThinkMax returns the think delay bound.
func (t TableConfig) ThinkMax() time.Duration { return ms(t.ThinkMaxMs) }

// EatMax returns the eat delay bound.
func (t TableConfig) EatMax() time.Duration { return ms(t.EatMaxMs) }

// ProduceMax returns the producer delay bound.
func (b BufferConfig) ProduceMax() time.Duration { return ms(b.ProduceMaxMs) }

// ConsumeMax returns the consumer delay bound.
func (b BufferConfig) ConsumeMax() time.Duration { return ms(b.ConsumeMaxMs) }

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
