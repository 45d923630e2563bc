package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err, "a missing key or config file is not an error")

	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, int64(10), cfg.MaxUploadMB)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.APIKey())
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CorsAllowedOrigins)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-fallback")
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test,https://b.test")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, "sk-fallback", cfg.APIKey())
	assert.Equal(t, "gpt-4o", cfg.GetOpenAIConfig().Model)
	assert.Empty(t, cfg.GetOpenAIConfig().APIKey)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CorsAllowedOrigins)
	assert.Equal(t, "json", cfg.GetLoggerConfig().Format)

	t.Setenv("LLM_API_KEY", "sk-primary")
	cfg, err = LoadFrom("")
	require.NoError(t, err)
	assert.Equal(t, "sk-primary", cfg.APIKey())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "llm_model: local-model\nllm_base_url: http://localhost:11434/v1\nmax_upload_mb: 25\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "local-model", cfg.LLMModel)
	assert.Equal(t, "http://localhost:11434/v1", cfg.GetOpenAIConfig().BaseURL)
	assert.Equal(t, int64(25), cfg.MaxUploadMB)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "log level", key: "LOG_LEVEL", val: "loud"},
		{name: "log format", key: "LOG_FORMAT", val: "xml"},
		{name: "port", key: "SERVER_PORT", val: "70000"},
		{name: "upload size", key: "MAX_UPLOAD_MB", val: "0"},
		{name: "temperature", key: "LLM_TEMPERATURE", val: "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := LoadFrom("")

			require.Error(t, err)
			assert.Contains(t, err.Error(), "config validation failed")
		})
	}
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm_model: [unterminated\n"), 0o600))

	_, err := LoadFrom(path)

	assert.Error(t, err)
}
