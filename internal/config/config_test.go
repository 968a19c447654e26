package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/melivision/chatbot/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "sk-test", cfg.LLM.APIKey)
	require.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	require.Equal(t, 100, cfg.Store.MaxRows)
	require.Equal(t, "0.0.0.0:8080", cfg.Web.Host)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("LLM_SERVER", "http://localhost:8080/v1/chat/completions")
	t.Setenv("STORE_MAX_ROWS", "25")
	t.Setenv("LLM_RETRY_COUNT", "5")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "gpt-4o", cfg.LLM.Model)
	require.Equal(t, "http://localhost:8080/v1/chat/completions", cfg.LLM.ServerURL)
	require.Equal(t, 25, cfg.Store.MaxRows)
	require.Equal(t, 5, cfg.LLM.RetryCount)
}

func TestLoadRejectsZeroPreviewRows(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("WEB_PREVIEW_ROWS", "0")

	_, err := config.Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "preview_rows")
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := config.Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "OPENAI_API_KEY")
}
