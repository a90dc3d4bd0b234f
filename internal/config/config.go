package config

import (
	"fmt"
	"os"
	"time"

	"github.com/JaimeStill/adjuster/pkg/broker"
	"github.com/JaimeStill/adjuster/pkg/database"
	"github.com/JaimeStill/adjuster/pkg/llm"
	"github.com/JaimeStill/adjuster/pkg/storage"
	"github.com/pelletier/go-toml/v2"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvAdjusterEnv             = "ADJUSTER_ENV"
	EnvAdjusterShutdownTimeout = "ADJUSTER_SHUTDOWN_TIMEOUT"
	EnvAdjusterVersion         = "ADJUSTER_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "ADJUSTER_DB_HOST",
	Port:            "ADJUSTER_DB_PORT",
	Name:            "ADJUSTER_DB_NAME",
	User:            "ADJUSTER_DB_USER",
	Password:        "ADJUSTER_DB_PASSWORD",
	SSLMode:         "ADJUSTER_DB_SSL_MODE",
	AppName:         "ADJUSTER_DB_APP_NAME",
	MaxOpenConns:    "ADJUSTER_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "ADJUSTER_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "ADJUSTER_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "ADJUSTER_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "ADJUSTER_STORAGE_CONTAINER_NAME",
	ConnectionString: "ADJUSTER_STORAGE_CONNECTION_STRING",
	ServiceURL:       "ADJUSTER_STORAGE_SERVICE_URL",
}

var brokerEnv = &broker.Env{
	URL:           "ADJUSTER_BROKER_URL",
	Stream:        "ADJUSTER_BROKER_STREAM",
	SubjectPrefix: "ADJUSTER_BROKER_SUBJECT_PREFIX",
	MaxReconnects: "ADJUSTER_BROKER_MAX_RECONNECTS",
	ReconnectWait: "ADJUSTER_BROKER_RECONNECT_WAIT",
}

var modelEnv = &llm.Env{
	URL:         "ADJUSTER_MODEL_URL",
	ChatModel:   "ADJUSTER_MODEL_CHAT_MODEL",
	EmbedModel:  "ADJUSTER_MODEL_EMBED_MODEL",
	Temperature: "ADJUSTER_MODEL_TEMPERATURE",
	MaxTokens:   "ADJUSTER_MODEL_MAX_TOKENS",
	Timeout:     "ADJUSTER_MODEL_TIMEOUT",
}

// Config is the root configuration for the Adjuster service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	Broker          broker.Config   `toml:"broker"`
	Model           llm.Config      `toml:"model"`
	Pipeline        PipelineConfig  `toml:"pipeline"`
	API             APIConfig       `toml:"api"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the ADJUSTER_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvAdjusterEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Broker.Merge(&overlay.Broker)
	c.Model.Merge(&overlay.Model)
	c.Pipeline.Merge(&overlay.Pipeline)
	c.API.Merge(&overlay.API)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Broker.Finalize(brokerEnv); err != nil {
		return fmt.Errorf("broker: %w", err)
	}
	if err := c.Model.Finalize(modelEnv); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if err := c.Pipeline.Finalize(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if c.Database.AppName == "" {
		c.Database.AppName = "adjuster"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvAdjusterShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvAdjusterVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvAdjusterEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
