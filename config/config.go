// Package config loads server configuration: built-in defaults, then an
// optional TOML file, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"multichat/chat"
	"multichat/preset"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	Port            string        `toml:"port"`
	LogLevel        string        `toml:"log_level"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`

	Store StoreConfig `toml:"store"`
	Chat  ChatConfig  `toml:"chat"`

	// BuiltIns overrides the shipped built-in presets when non-empty.
	BuiltIns preset.Catalog `toml:"builtin"`
}

type StoreConfig struct {
	Backend    string `toml:"backend"`
	FilePath   string `toml:"file_path"`
	SQLitePath string `toml:"sqlite_path"`
	// MirrorSQLite also writes every key to the SQLite database when the
	// file backend is primary.
	MirrorSQLite bool `toml:"mirror_sqlite"`

	PresetsKey       string `toml:"presets_key"`
	UsageKey         string `toml:"usage_key"`
	ConversationsKey string `toml:"conversations_key"`
}

type ChatConfig struct {
	// TokensPerSecond paces simulated replies; 0 disables pacing.
	TokensPerSecond float64 `toml:"tokens_per_second"`
	Burst           int     `toml:"burst"`
}

func Default() Config {
	return Config{
		Port:            "8080",
		LogLevel:        "info",
		ShutdownTimeout: 10 * time.Second,
		Store: StoreConfig{
			Backend:          BackendFile,
			FilePath:         "/data/presets.json",
			SQLitePath:       "/data/multichat.db",
			PresetsKey:       preset.DefaultPresetsKey,
			UsageKey:         preset.DefaultUsageKey,
			ConversationsKey: chat.DefaultKey,
		},
		Chat: ChatConfig{
			TokensPerSecond: 40,
			Burst:           8,
		},
	}
}

// Load builds the configuration. path may be empty; a named file that does
// not exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("PRESET_FILE"); v != "" {
		cfg.Store.FilePath = v
	}
	if v := os.Getenv("MULTICHAT_STORE"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("MULTICHAT_SQLITE"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := os.Getenv("MULTICHAT_MIRROR_SQLITE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MULTICHAT_MIRROR_SQLITE: %w", err)
		}
		cfg.Store.MirrorSQLite = b
	}
	if v := os.Getenv("MULTICHAT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	switch c.Store.Backend {
	case BackendFile:
		if c.Store.FilePath == "" {
			errs = append(errs, errors.New("store.file_path is required for the file backend"))
		}
	case BackendSQLite:
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	if (c.Store.Backend == BackendSQLite || c.Store.MirrorSQLite) && c.Store.SQLitePath == "" {
		errs = append(errs, errors.New("store.sqlite_path is required"))
	}
	if c.Chat.TokensPerSecond < 0 {
		errs = append(errs, errors.New("chat.tokens_per_second must not be negative"))
	}
	if c.Chat.Burst < 1 {
		errs = append(errs, errors.New("chat.burst must be at least 1"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	for _, s := range c.BuiltIns {
		if s.ID == "" || s.Name == "" {
			errs = append(errs, errors.New("builtin presets need an id and a name"))
			break
		}
	}
	return errors.Join(errs...)
}

// Catalog returns the configured built-in presets.
func (c Config) Catalog() preset.Catalog {
	if len(c.BuiltIns) > 0 {
		return c.BuiltIns
	}
	return preset.DefaultCatalog()
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}
