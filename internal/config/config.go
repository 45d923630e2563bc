package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"debtors/internal/assistant"
	"debtors/internal/logger"
)

// DefaultConfigFile is read when present; every key can also come from the
// environment under its upper-case name.
const DefaultConfigFile = "config.yaml"

type Config struct {
	// Text generation
	LLMAPIKey      string  `mapstructure:"llm_api_key"`
	OpenAIAPIKey   string  `mapstructure:"openai_api_key"`
	LLMModel       string  `mapstructure:"llm_model"`
	LLMBaseURL     string  `mapstructure:"llm_base_url"`
	LLMTemperature float64 `mapstructure:"llm_temperature"`
	LLMMaxTokens   int     `mapstructure:"llm_max_tokens"`
	LLMMaxRetries  int     `mapstructure:"llm_max_retries"`

	// HTTP server
	ServerPort         int      `mapstructure:"server_port"`
	CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	MaxUploadMB        int64    `mapstructure:"max_upload_mb"`

	// Google Sheets
	GoogleSheetURL       string `mapstructure:"google_sheet_url"`
	GoogleSheetWorksheet string `mapstructure:"google_sheet_worksheet"`

	// Logging
	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
	LogTimeFormat string `mapstructure:"log_time_format"`
	LogOutput     string `mapstructure:"log_output"`
}

// Load reads DefaultConfigFile, or the file named by CONFIG_FILE, and the
// environment.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = DefaultConfigFile
	}
	return LoadFrom(path)
}

// LoadFrom reads configuration from path (optional) and the environment.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("llm_api_key", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("llm_model", "gpt-4o-mini")
	v.SetDefault("llm_base_url", "")
	v.SetDefault("llm_temperature", 0.3)
	v.SetDefault("llm_max_tokens", 1500)
	v.SetDefault("llm_max_retries", 2)
	v.SetDefault("server_port", 8080)
	v.SetDefault("cors_allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("max_upload_mb", 10)
	v.SetDefault("google_sheet_url", "")
	v.SetDefault("google_sheet_worksheet", "Risk")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("log_time_format", "2006-01-02T15:04:05Z07:00")
	v.SetDefault("log_output", "stderr")

	// Config file is optional
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("LOG_LEVEL %q is invalid", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.LogFormat)
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("SERVER_PORT %d is out of range", c.ServerPort)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be between 0 and 2")
	}
	if c.LLMMaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive")
	}
	if c.LLMMaxRetries < 0 {
		return fmt.Errorf("LLM_MAX_RETRIES must not be negative")
	}
	return nil
}

// APIKey returns LLM_API_KEY, falling back to OPENAI_API_KEY.
func (c *Config) APIKey() string {
	if c.LLMAPIKey != "" {
		return c.LLMAPIKey
	}
	return c.OpenAIAPIKey
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// GetOpenAIConfig returns the generator settings without the API key, which
// is supplied per session.
func (c *Config) GetOpenAIConfig() assistant.OpenAIConfig {
	return assistant.OpenAIConfig{
		BaseURL:     c.LLMBaseURL,
		Model:       c.LLMModel,
		Temperature: float32(c.LLMTemperature),
		MaxTokens:   c.LLMMaxTokens,
		MaxRetries:  c.LLMMaxRetries,
	}
}

// MaxUploadBytes is MaxUploadMB in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
