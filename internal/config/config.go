// Package config loads tool configuration from an optional TOML file,
// with command line flags taking precedence over file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the runtime settings of the stream engine and CLI.
type Config struct {
	// RefreshInterval is how often pending frames are drained into the
	// stream store.
	RefreshInterval time.Duration

	// InboxCapacity bounds the pending frame queue; zero means
	// unbounded. When full the oldest pending frames are dropped.
	InboxCapacity int

	// DateTime renders the time column as wall-clock timestamps
	// instead of elapsed seconds.
	DateTime bool

	// IndexOnRead writes a SQLite session index next to each trace
	// opened for reading.
	IndexOnRead bool
}

// Default returns a Config with default values.
func Default() Config {
	return Config{
		RefreshInterval: 250 * time.Millisecond,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive")
	}
	if c.InboxCapacity < 0 {
		return fmt.Errorf("inbox capacity must not be negative")
	}
	return nil
}

// fileConfig mirrors Config but uses strings for durations to make TOML friendly.
type fileConfig struct {
	RefreshInterval string `toml:"refresh_interval"`
	InboxCapacity   int    `toml:"inbox_capacity"`
	DateTime        *bool  `toml:"datetime"`
	IndexOnRead     *bool  `toml:"index_on_read"`
}

// DefaultPath returns the default configuration file path.
// Returns ~/.nfctrace/config.toml if user home directory is accessible.
func DefaultPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".nfctrace", "config.toml")
	}
	return ""
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// Load reads a TOML config file and applies it over cfg. Values for
// flags listed in changed keep their command line value.
func Load(path string, cfg *Config, changed map[string]bool) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if fc.RefreshInterval != "" && !changed["refresh-interval"] {
		d, err := time.ParseDuration(fc.RefreshInterval)
		if err != nil {
			return fmt.Errorf("parse refresh_interval: %w", err)
		}
		cfg.RefreshInterval = d
	}

	if fc.InboxCapacity > 0 && !changed["inbox-capacity"] {
		cfg.InboxCapacity = fc.InboxCapacity
	}

	if fc.DateTime != nil && !changed["datetime"] {
		cfg.DateTime = *fc.DateTime
	}

	if fc.IndexOnRead != nil && !changed["index"] {
		cfg.IndexOnRead = *fc.IndexOnRead
	}

	return nil
}
