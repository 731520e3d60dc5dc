// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (VINNIE_* prefix, plus GEMINI_API_KEY and
//     DATABASE_URL passthroughs)
//  2. Config file (~/.vinnie/config.yaml)
//  3. Default values
//
// Sensitive data (API key, database password) is never logged; see
// MarshalJSON.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel errors for configuration validation, checked with errors.Is().
var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the Gemini API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidHistoryWindow indicates the history window is out of range.
	ErrInvalidHistoryWindow = errors.New("invalid history window")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidLocale indicates the default locale is not supported.
	ErrInvalidLocale = errors.New("invalid locale")
)

const (
	// DefaultModelName is the generative model used for conversation turns.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultHistoryWindow is the number of recent turns loaded as context.
	DefaultHistoryWindow int32 = 200

	// MaxHistoryWindow is the absolute maximum to keep request payloads bounded.
	MaxHistoryWindow int32 = 10000

	// MinHistoryWindow is the minimum allowed history window.
	MinHistoryWindow int32 = 10
)

// DefaultAllowedExtensions is the attachment extension allow-list.
// Matches the set the service has always accepted.
var DefaultAllowedExtensions = []string{"png", "jpg", "jpeg", "pdf", "mp3", "wav", "txt"}

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON().
type Config struct {
	// Generative service
	GeminiAPIKey string `mapstructure:"gemini_api_key" json:"gemini_api_key"`
	ModelName    string `mapstructure:"model_name" json:"model_name"`

	// Conversation
	DefaultLocale     string   `mapstructure:"default_locale" json:"default_locale"`
	HistoryWindow     int32    `mapstructure:"history_window" json:"history_window"`
	AllowedExtensions []string `mapstructure:"allowed_extensions" json:"allowed_extensions"`
	UploadDir         string   `mapstructure:"upload_dir" json:"upload_dir"`

	// HTTP server
	ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`

	// PostgreSQL
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"`
	PostgresDBName   string `mapstructure:"postgres_dbname" json:"postgres_dbname"`
	PostgresSSLMode  string `mapstructure:"postgres_sslmode" json:"postgres_sslmode"`

	// Logging
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load reads configuration from defaults, config file, and environment.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("VINNIE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if dir, err := configDir(); err == nil {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// GEMINI_API_KEY is the conventional variable for the Gemini SDK;
	// honor it when the prefixed variable is unset.
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}

	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers default values for all settings.
func setDefaults(v *viper.Viper) {
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("default_locale", "en")
	v.SetDefault("history_window", DefaultHistoryWindow)
	v.SetDefault("allowed_extensions", DefaultAllowedExtensions)
	v.SetDefault("upload_dir", "")
	v.SetDefault("listen_addr", "127.0.0.1:8080")
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "vinnie")
	v.SetDefault("postgres_password", "")
	v.SetDefault("postgres_dbname", "vinnie")
	v.SetDefault("postgres_sslmode", "disable")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// configDir returns the configuration directory (~/.vinnie).
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".vinnie"), nil
}

// Validate checks the configuration for the serve command.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("%w: set GEMINI_API_KEY or VINNIE_GEMINI_API_KEY", ErrMissingAPIKey)
	}
	if strings.TrimSpace(c.ModelName) == "" {
		return ErrInvalidModelName
	}
	if c.HistoryWindow < MinHistoryWindow || c.HistoryWindow > MaxHistoryWindow {
		return fmt.Errorf("%w: %d not in [%d, %d]",
			ErrInvalidHistoryWindow, c.HistoryWindow, MinHistoryWindow, MaxHistoryWindow)
	}
	if c.DefaultLocale != "en" && c.DefaultLocale != "sw" {
		return fmt.Errorf("%w: %q", ErrInvalidLocale, c.DefaultLocale)
	}
	return c.ValidateStorage()
}

// ValidateStorage checks only the database settings (used by migrate).
func (c *Config) ValidateStorage() error {
	if c == nil {
		return ErrConfigNil
	}
	if strings.TrimSpace(c.PostgresHost) == "" {
		return ErrInvalidPostgresHost
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if strings.TrimSpace(c.PostgresDBName) == "" {
		return ErrInvalidPostgresDBName
	}
	return nil
}

// MarshalJSON masks sensitive fields so configs can be logged safely.
func (c *Config) MarshalJSON() ([]byte, error) {
	type alias Config
	masked := alias(*c)
	if masked.GeminiAPIKey != "" {
		masked.GeminiAPIKey = "***"
	}
	if masked.PostgresPassword != "" {
		masked.PostgresPassword = "***"
	}
	return json.Marshal(masked)
}
