package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/anima-descriptors/engine/core"
	"gopkg.in/yaml.v3"
)

const (
	HashPolicyUsageID   = "usage_id"
	HashPolicyStructure = "structure"
)

/**
 * @brief Tunables of the descriptor pooling layer.
 */
type DescriptorConfig struct {
	/** @brief Allocations one native pool can serve before the chain grows. */
	MaxSetsPerPool uint32 `toml:"max_sets_per_pool" yaml:"max_sets_per_pool"`
	/** @brief Frames a released registry must stay untouched before it can be destroyed. */
	SafeFrames uint64 `toml:"safe_frames" yaml:"safe_frames"`
	/** @brief How pool chains are keyed: "usage_id" or "structure". */
	HashPolicy string `toml:"hash_policy" yaml:"hash_policy"`
	/** @brief Maximum number of registries destroyed by a single GC call. */
	ReclaimPerGC int `toml:"reclaim_per_gc" yaml:"reclaim_per_gc"`
}

type LoggingConfig struct {
	Level string `toml:"level" yaml:"level"`
	// "text", "json" or "logfmt"
	Format string `toml:"format" yaml:"format"`
}

/**
 * @brief Parameters of the headless frame-loop simulation.
 */
type SimulationConfig struct {
	Frames         int    `toml:"frames" yaml:"frames"`
	FramesInFlight int    `toml:"frames_in_flight" yaml:"frames_in_flight"`
	DrawsPerFrame  int    `toml:"draws_per_frame" yaml:"draws_per_frame"`
	Shapes         int    `toml:"shapes" yaml:"shapes"`
	Contexts       int    `toml:"contexts" yaml:"contexts"`
	Seed           uint64 `toml:"seed" yaml:"seed"`
}

type Config struct {
	Descriptors DescriptorConfig `toml:"descriptors" yaml:"descriptors"`
	Logging     LoggingConfig    `toml:"logging" yaml:"logging"`
	Simulation  SimulationConfig `toml:"simulation" yaml:"simulation"`
}

func Default() *Config {
	return &Config{
		Descriptors: DescriptorConfig{
			MaxSetsPerPool: 256,
			SafeFrames:     10,
			HashPolicy:     HashPolicyUsageID,
			ReclaimPerGC:   1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Simulation: SimulationConfig{
			Frames:         600,
			FramesInFlight: 3,
			DrawsPerFrame:  400,
			Shapes:         8,
			Contexts:       4,
			Seed:           1,
		},
	}
}

// Load reads a TOML or YAML file (picked by extension) on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config format '%s'", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	d := c.Descriptors
	if d.MaxSetsPerPool == 0 {
		return fmt.Errorf("%w: descriptors.max_sets_per_pool must be greater than zero", core.ErrInvalidConfig)
	}
	if d.HashPolicy != HashPolicyUsageID && d.HashPolicy != HashPolicyStructure {
		return fmt.Errorf("%w: descriptors.hash_policy must be '%s' or '%s', got '%s'", core.ErrInvalidConfig, HashPolicyUsageID, HashPolicyStructure, d.HashPolicy)
	}
	if d.ReclaimPerGC < 1 {
		return fmt.Errorf("%w: descriptors.reclaim_per_gc must be at least 1", core.ErrInvalidConfig)
	}
	switch c.Logging.Format {
	case "", "text", "json", "logfmt":
	default:
		return fmt.Errorf("%w: logging.format must be text, json or logfmt, got '%s'", core.ErrInvalidConfig, c.Logging.Format)
	}
	s := c.Simulation
	if s.FramesInFlight < 1 || s.Shapes < 1 || s.Contexts < 1 || s.DrawsPerFrame < 0 || s.Frames < 0 {
		return fmt.Errorf("%w: simulation parameters %+v", core.ErrInvalidConfig, s)
	}
	if uint64(s.FramesInFlight) > d.SafeFrames {
		return fmt.Errorf("%w: descriptors.safe_frames (%d) must cover simulation.frames_in_flight (%d)", core.ErrInvalidConfig, d.SafeFrames, s.FramesInFlight)
	}
	return nil
}

// Dump renders the effective configuration as YAML.
func (c *Config) Dump() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
