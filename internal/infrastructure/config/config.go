// Package config loads the workspace configuration from .essaycoach/config.yaml
// and applies environment overrides.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/document"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/feedback"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/messaging"
	"github.com/felixgeelhaar/essaycoach/pkg/storage"
)

// Storage drivers.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// AIConfig stores provider defaults for the built-in analysis backend.
type AIConfig struct {
	Provider   string        `yaml:"provider"`
	Model      string        `yaml:"model"`
	BaseURL    string        `yaml:"base_url,omitempty"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	Timeout    time.Duration `yaml:"timeout"`
}

// BackendConfig points at a remote analysis service. When URL is set it
// replaces the built-in provider backend.
type BackendConfig struct {
	URL   string `yaml:"url,omitempty"`
	Token string `yaml:"token,omitempty"`
}

// RealtimeConfig tunes the live analysis scheduler.
type RealtimeConfig struct {
	Debounce  time.Duration `yaml:"debounce"`
	MinLength int           `yaml:"min_length"`
}

// FeedbackConfig holds request defaults.
type FeedbackConfig struct {
	Tone         string `yaml:"tone"`
	DocumentType string `yaml:"document_type"`
}

// StorageConfig selects the document store.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	// Path overrides the database file for the sqlite driver.
	Path string `yaml:"path,omitempty"`
}

// LoggingConfig configures the log sink.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Config is the full workspace configuration.
type Config struct {
	AI        AIConfig                  `yaml:"ai"`
	Backend   BackendConfig             `yaml:"backend"`
	Realtime  RealtimeConfig            `yaml:"realtime"`
	Feedback  FeedbackConfig            `yaml:"feedback"`
	Storage   StorageConfig             `yaml:"storage"`
	Logging   LoggingConfig             `yaml:"logging"`
	Messaging messaging.MessagingConfig `yaml:"messaging"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		AI: AIConfig{
			Provider:   "ollama",
			Model:      "llama3",
			MaxRetries: 0,
			RetryDelay: time.Second,
			Timeout:    120 * time.Second,
		},
		Realtime: RealtimeConfig{
			Debounce:  2 * time.Second,
			MinLength: 50,
		},
		Feedback: FeedbackConfig{
			Tone:         feedback.DefaultTone,
			DocumentType: document.TypePersonalStatement,
		},
		Storage: StorageConfig{Driver: StorageFile},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads the workspace config, fills unset fields with defaults and
// applies environment overrides. A missing file yields the defaults.
func Load(root string) (*Config, error) {
	return LoadWithEnv(root, os.Getenv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(root string, getenv func(string) string) (*Config, error) {
	repo := storage.NewFilesystemRepository(root)

	cfg := Default()
	if _, err := repo.LoadYAML(context.Background(), storage.ConfigFile, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.fillDefaults()
	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to the workspace.
func Save(root string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	return storage.NewFilesystemRepository(root).SaveYAML(storage.ConfigFile, cfg)
}

// fillDefaults restores defaults for fields an explicit file left empty.
func (c *Config) fillDefaults() {
	def := Default()
	if c.AI.Provider == "" {
		c.AI.Provider = def.AI.Provider
	}
	if c.AI.RetryDelay <= 0 {
		c.AI.RetryDelay = def.AI.RetryDelay
	}
	if c.AI.Timeout <= 0 {
		c.AI.Timeout = def.AI.Timeout
	}
	if c.Realtime.Debounce <= 0 {
		c.Realtime.Debounce = def.Realtime.Debounce
	}
	if c.Feedback.Tone == "" {
		c.Feedback.Tone = def.Feedback.Tone
	}
	if c.Feedback.DocumentType == "" {
		c.Feedback.DocumentType = def.Feedback.DocumentType
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = def.Storage.Driver
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
}

// ApplyEnv overrides fields from ESSAYCOACH_* variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("ESSAYCOACH_AI_PROVIDER"); v != "" {
		c.AI.Provider = v
	}
	if v := getenv("ESSAYCOACH_AI_MODEL"); v != "" {
		c.AI.Model = v
	}
	if v := getenv("ESSAYCOACH_AI_BASE_URL"); v != "" {
		c.AI.BaseURL = v
	}
	if v := getenv("ESSAYCOACH_AI_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ESSAYCOACH_AI_MAX_RETRIES: %w", err)
		}
		c.AI.MaxRetries = n
	}
	if v := getenv("ESSAYCOACH_BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := getenv("ESSAYCOACH_BACKEND_TOKEN"); v != "" {
		c.Backend.Token = v
	}
	if v := getenv("ESSAYCOACH_STORAGE"); v != "" {
		c.Storage.Driver = v
	}
	if v := getenv("ESSAYCOACH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate rejects values the rest of the program cannot use.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageFile, StorageSQLite:
	default:
		return fmt.Errorf("unknown storage driver %q (use %s or %s)", c.Storage.Driver, StorageFile, StorageSQLite)
	}
	if c.AI.MaxRetries < 0 {
		return fmt.Errorf("ai.max_retries must not be negative")
	}
	if c.Realtime.MinLength < 0 {
		return fmt.Errorf("realtime.min_length must not be negative")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}
