package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	YouTube    YouTubeConfig    `yaml:"youtube"`
	AI         AIConfig         `yaml:"ai"`
	Storage    StorageConfig    `yaml:"storage"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Port         int      `yaml:"port" env:"PORT"`
	AllowOrigins []string `yaml:"allow_origins"`
}

type YouTubeConfig struct {
	APIKey      string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	MaxComments int    `yaml:"max_comments"`
	// Endpoint overrides the Data API base URL; empty uses the public API.
	Endpoint string `yaml:"endpoint"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string `yaml:"model"`
	// BaseURL overrides the Gemini API base URL; empty uses the public API.
	BaseURL string `yaml:"base_url"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // sqlite or postgres
	DSN    string `yaml:"dsn" env:"DATABASE_URL"`
}

type MonitoringConfig struct {
	ProbeSchedule string `yaml:"probe_schedule"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format"` // text or json
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	DefaultPort        = 5000
	DefaultMaxComments = 100
	DefaultModel       = "gemini-3-flash-preview"
	DefaultSQLiteDSN   = "data/history.db"
	// Every five minutes; the scheduler parses schedules with a seconds field.
	DefaultProbeSchedule = "0 */5 * * * *"
)

// Load reads .env, then the YAML file named by CONFIG_FILE (config.yaml by
// default), then fills secrets from the environment and applies defaults.
// A missing default config.yaml is not an error; a missing CONFIG_FILE is.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config

	configFile := os.Getenv("CONFIG_FILE")
	explicit := configFile != ""
	if !explicit {
		configFile = "config.yaml"
	}

	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// environment-only configuration
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if c.YouTube.APIKey == "" {
		c.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" && c.Storage.DSN == "" {
		c.Storage.DSN = dsn
		if c.Storage.Driver == "" {
			c.Storage.Driver = DriverPostgres
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		c.Server.Port = p
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if len(c.Server.AllowOrigins) == 0 {
		c.Server.AllowOrigins = []string{"*"}
	}
	if c.YouTube.MaxComments == 0 {
		c.YouTube.MaxComments = DefaultMaxComments
	}
	if c.AI.Model == "" {
		c.AI.Model = DefaultModel
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverSQLite
	}
	if c.Storage.DSN == "" && c.Storage.Driver == DriverSQLite {
		c.Storage.DSN = DefaultSQLiteDSN
	}
	if c.Monitoring.ProbeSchedule == "" {
		c.Monitoring.ProbeSchedule = DefaultProbeSchedule
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

func (c *Config) validate() error {
	if c.YouTube.APIKey == "" {
		return fmt.Errorf("YouTube API key is required (set YOUTUBE_API_KEY or youtube.api_key)")
	}
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	if c.YouTube.MaxComments < 1 || c.YouTube.MaxComments > 100 {
		return fmt.Errorf("youtube.max_comments must be between 1 and 100, got %d", c.YouTube.MaxComments)
	}
	switch c.Storage.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported storage driver %q (use %s or %s)", c.Storage.Driver, DriverSQLite, DriverPostgres)
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("storage DSN is required for driver %s (set DATABASE_URL or storage.dsn)", c.Storage.Driver)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}
