package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/anima-scene/engine/assets"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Log struct {
	// debug, info, warn, error or fatal
	Level string `toml:"level"`
}

type Scenes struct {
	// Descriptions are fetched from <BaseURL>/<scene>.xml when set.
	BaseURL string `toml:"base_url"`
	// Directory holding <scene>.xml, used when BaseURL is empty.
	Dir string `toml:"dir"`
	// Watch Dir and reload descriptions that change on disk.
	Watch bool `toml:"watch"`
	// Scene loaded by the host on start, if any.
	Start string `toml:"start"`
}

type Loader struct {
	Workers   int    `toml:"workers"`
	QueueSize int    `toml:"queue_size"`
	BundleDir string `toml:"bundle_dir"`
}

type Config struct {
	Log    Log    `toml:"log"`
	Scenes Scenes `toml:"scenes"`
	Loader Loader `toml:"loader"`
}

func Default() *Config {
	return &Config{
		Log: Log{Level: "info"},
		Scenes: Scenes{
			Dir: "assets/scenes",
		},
		Loader: Loader{
			Workers:   4,
			QueueSize: 64,
			BundleDir: "assets/bundles",
		},
	}
}

// Load reads the TOML file at path on top of the defaults and validates
// the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, strict.String())
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Loader.Workers < 1 {
		return fmt.Errorf("%w: loader.workers must be at least 1, got %d", ErrInvalidConfig, c.Loader.Workers)
	}
	if c.Loader.QueueSize < 0 {
		return fmt.Errorf("%w: loader.queue_size must not be negative, got %d", ErrInvalidConfig, c.Loader.QueueSize)
	}
	if c.Scenes.BaseURL == "" && c.Scenes.Dir == "" {
		return fmt.Errorf("%w: one of scenes.base_url or scenes.dir is required", ErrInvalidConfig)
	}
	if c.Scenes.BaseURL != "" {
		u, err := url.Parse(c.Scenes.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("%w: scenes.base_url %q is not an http(s) url", ErrInvalidConfig, c.Scenes.BaseURL)
		}
	}
	if c.Scenes.Watch && c.Scenes.Dir == "" {
		return fmt.Errorf("%w: scenes.watch needs scenes.dir", ErrInvalidConfig)
	}
	return nil
}

// PoolConfig returns the load pool settings.
func (c *Config) PoolConfig() assets.LoadPoolConfig {
	return assets.LoadPoolConfig{
		Workers:   c.Loader.Workers,
		QueueSize: c.Loader.QueueSize,
	}
}
