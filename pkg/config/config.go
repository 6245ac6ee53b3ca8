// Package config loads and persists chatdeck settings. The theme mode is
// the one piece of state that survives a restart; everything else here is
// tunables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied when the file or a field is absent.
const (
	DefaultTheme        = "light"
	DefaultReplyDelayMS = 1000
)

// Config is the on-disk configuration, stored as YAML.
type Config struct {
	// Theme is "light" or "dark". Persisted whenever the user toggles.
	Theme string `yaml:"theme"`
	// ReplyDelayMS is the simulated bot latency in milliseconds.
	ReplyDelayMS int `yaml:"reply_delay_ms"`
	// LogFile, when set, receives the runtime log. Empty discards logs.
	LogFile string `yaml:"log_file,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{Theme: DefaultTheme, ReplyDelayMS: DefaultReplyDelayMS}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(base, "chatdeck", "config.yaml"), nil
}

// Load reads the config file, falling back to defaults when it is missing,
// then applies CHATDECK_* environment overrides (a .env file in the
// working directory is honored if present).
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Default(), fmt.Errorf("parsing %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// First run, defaults apply.
	default:
		return Default(), fmt.Errorf("reading %s: %w", path, err)
	}

	_ = godotenv.Load()
	applyEnv(&cfg)
	cfg.normalize()
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CHATDECK_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("CHATDECK_REPLY_DELAY_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.ReplyDelayMS = ms
		}
	}
	if v := os.Getenv("CHATDECK_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
}

func (c *Config) normalize() {
	if c.Theme != "light" && c.Theme != "dark" {
		c.Theme = DefaultTheme
	}
	if c.ReplyDelayMS <= 0 {
		c.ReplyDelayMS = DefaultReplyDelayMS
	}
}

// ReplyDelay returns the simulated bot latency as a duration.
func (c Config) ReplyDelay() time.Duration {
	return time.Duration(c.ReplyDelayMS) * time.Millisecond
}

// Save writes the config, creating parent directories as needed.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
