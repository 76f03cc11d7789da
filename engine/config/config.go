package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/Carmen-Shannon/oxy-anim/common"

	"gopkg.in/yaml.v3"
)

// Version is the only config.yaml version this build understands.
const Version = 1

const (
	DefaultTickRate  = 60
	DefaultTimeScale = 1.0
	DefaultRootBone  = "root"
)

// ErrUnsupportedVersion is returned when config.yaml declares a version other than Version.
var ErrUnsupportedVersion = errors.New("unsupported config version")

// Config is the engine configuration file.
type Config struct {
	Version int `yaml:"version"`

	// TickRate is the number of fixed steps per second the engine loop runs at.
	TickRate int `yaml:"tick_rate"`

	// TimeScale multiplies the delta handed to every controller. Zero means the default.
	TimeScale float64 `yaml:"time_scale"`

	// Workers sizes the scene update pool. Zero picks NumCPU-1.
	Workers int `yaml:"workers"`

	Profiling  bool   `yaml:"profiling"`
	RootMotion bool   `yaml:"root_motion"`
	RootBone   string `yaml:"root_bone"`

	// Definitions lists controller definition files, relative to the config file.
	Definitions []string `yaml:"definitions"`

	// Watch enables hot reload of the definitions' directories.
	Watch bool `yaml:"watch"`
}

// Default returns a Config with every field at its default.
//
// Returns:
//   - *Config: the default configuration
func Default() *Config {
	c := &Config{Version: Version}
	c.applyDefaults()
	return c
}

// Load reads and validates a config file. Relative definition paths are resolved against
// the directory holding the file.
//
// Parameters:
//   - path: the config file path
//
// Returns:
//   - *Config: the parsed configuration with defaults applied
//   - error: error if the file cannot be read, decoded or is the wrong version
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i, def := range cfg.Definitions {
		if !filepath.IsAbs(def) {
			cfg.Definitions[i] = filepath.Join(dir, def)
		}
	}
	return cfg, nil
}

// Parse decodes config data and applies defaults.
//
// Parameters:
//   - b: the YAML document
//
// Returns:
//   - *Config: the parsed configuration
//   - error: error if decoding fails or the version is unsupported
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	if cfg.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, cfg.Version)
	}
	if cfg.TickRate < 0 || cfg.TimeScale < 0 || cfg.Workers < 0 {
		return nil, fmt.Errorf("tick_rate, time_scale and workers must not be negative")
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.TickRate = common.Coalesce(c.TickRate, DefaultTickRate)
	c.TimeScale = common.Coalesce(c.TimeScale, DefaultTimeScale)
	c.Workers = common.Coalesce(c.Workers, max(runtime.NumCPU()-1, 1))
	c.RootBone = common.Coalesce(c.RootBone, DefaultRootBone)
}

// WatchDirs returns the distinct directories holding the configured definitions, sorted.
//
// Returns:
//   - []string: the directories to watch for hot reload
func (c *Config) WatchDirs() []string {
	seen := make(map[string]bool, len(c.Definitions))
	var dirs []string
	for _, def := range c.Definitions {
		dir := filepath.Dir(def)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs
}
