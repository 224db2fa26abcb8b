// Package config loads reviewer settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/model-critic/internal/gate"
	"github.com/danielpatrickdp/model-critic/internal/thresholds"
)

// #region types
// Config is the full reviewer configuration.
type Config struct {
	Thresholds thresholds.Thresholds `yaml:"thresholds"`
	Gate       gate.Config           `yaml:"gate"`
	Robustness RobustnessConfig      `yaml:"robustness"`
	Session    SessionConfig         `yaml:"session"`
	Remote     RemoteConfig          `yaml:"remote"`
	Server     ServerConfig          `yaml:"server"`
	Plot       PlotConfig            `yaml:"plot"`
	Log        LogConfig             `yaml:"log"`
}

// RobustnessConfig seeds the noise probe.
type RobustnessConfig struct {
	RandomState int64 `yaml:"random_state"`
}

// SessionConfig selects the snapshot backend.
type SessionConfig struct {
	Backend   string `yaml:"backend"` // sqlite | file
	Path      string `yaml:"path"`    // database file or directory
	Name      string `yaml:"name"`    // active session; empty disables saving
	CacheSize int    `yaml:"cache_size"`
}

// RemoteConfig points at a gRPC estimator server.
type RemoteConfig struct {
	Addr string `yaml:"addr"`
}

// ServerConfig is the HTTP listen address.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// PlotConfig is where plot data is written.
type PlotConfig struct {
	Dir string `yaml:"dir"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// #endregion types

// #region defaults
// Default returns a configuration that works without a file.
func Default() Config {
	return Config{
		Thresholds: thresholds.Default(),
		Gate:       gate.DefaultConfig(),
		Robustness: RobustnessConfig{RandomState: 42},
		Session: SessionConfig{
			Backend:   "sqlite",
			Path:      "critic.db",
			CacheSize: 64,
		},
		Remote: RemoteConfig{Addr: "localhost:50051"},
		Server: ServerConfig{Addr: ":8080"},
		Plot:   PlotConfig{Dir: "critic_plots"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// #endregion defaults

// #region load
// Load reads path over the defaults, then applies environment overrides.
// An empty path or a missing file yields the defaults plus overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

func applyEnv(cfg *Config) error {
	cfg.Session.Path = envOr("CRITIC_DB", cfg.Session.Path)
	cfg.Session.Name = envOr("CRITIC_SESSION", cfg.Session.Name)
	if dir := os.Getenv("CRITIC_SESSION_DIR"); dir != "" {
		cfg.Session.Backend = "file"
		cfg.Session.Path = dir
	}
	cfg.Remote.Addr = envOr("CRITIC_REMOTE_ADDR", cfg.Remote.Addr)
	if v := os.Getenv("CRITIC_RANDOM_STATE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("CRITIC_RANDOM_STATE: %w", err)
		}
		cfg.Robustness.RandomState = n
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion load
