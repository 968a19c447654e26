// Package config loads the service configuration from the environment with
// optional .env support.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the main application configuration struct.
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"`
	Store   StoreConfig   `mapstructure:"store"`
	Web     WebConfig     `mapstructure:"web"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// LLMConfig holds the settings for the model provider boundary.
type LLMConfig struct {
	ServerURL        string `mapstructure:"server_url"`
	Model            string `mapstructure:"model"`
	APIKey           string `mapstructure:"api_key"`
	TranslateTimeout int    `mapstructure:"translate_timeout"` // milliseconds
	AnswerTimeout    int    `mapstructure:"answer_timeout"`    // milliseconds
	RetryCount       int    `mapstructure:"retry_count"`
	RetryBackoff     int    `mapstructure:"retry_backoff"` // milliseconds
	DisableAnswers   bool   `mapstructure:"disable_answers"`
}

// StoreConfig holds the settings for the embedded database.
type StoreConfig struct {
	DBPath       string `mapstructure:"db_path"`
	DataDir      string `mapstructure:"data_dir"`
	QueryTimeout int    `mapstructure:"query_timeout"` // milliseconds
	MaxRows      int    `mapstructure:"max_rows"`
}

// WebConfig holds the settings for the HTTP surface.
type WebConfig struct {
	Host        string `mapstructure:"host"`
	PreviewRows int    `mapstructure:"preview_rows"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("llm.server_url", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.translate_timeout", 30000)
	v.SetDefault("llm.answer_timeout", 30000)
	v.SetDefault("llm.retry_count", 2)
	v.SetDefault("llm.retry_backoff", 500)
	v.SetDefault("store.db_path", "zarf/data/meli_vision.db")
	v.SetDefault("store.data_dir", "zarf/data/dados")
	v.SetDefault("store.query_timeout", 10000)
	v.SetDefault("store.max_rows", 100)
	v.SetDefault("web.host", "0.0.0.0:8080")
	v.SetDefault("web.preview_rows", 10)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	bindings := map[string]string{
		"llm.server_url":        "LLM_SERVER",
		"llm.model":             "LLM_MODEL",
		"llm.api_key":           "OPENAI_API_KEY",
		"llm.translate_timeout": "LLM_TRANSLATE_TIMEOUT",
		"llm.answer_timeout":    "LLM_ANSWER_TIMEOUT",
		"llm.retry_count":       "LLM_RETRY_COUNT",
		"llm.retry_backoff":     "LLM_RETRY_BACKOFF",
		"llm.disable_answers":   "LLM_DISABLE_ANSWERS",
		"store.db_path":         "STORE_DB_PATH",
		"store.data_dir":        "STORE_DATA_DIR",
		"store.query_timeout":   "STORE_QUERY_TIMEOUT",
		"store.max_rows":        "STORE_MAX_ROWS",
		"web.host":              "WEB_HOST",
		"web.preview_rows":      "WEB_PREVIEW_ROWS",
		"logging.level":         "LOG_LEVEL",
		"logging.format":        "LOG_FORMAT",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if cfg.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if cfg.Store.DataDir == "" {
		return fmt.Errorf("store.data_dir is required")
	}
	if cfg.Store.MaxRows <= 0 {
		return fmt.Errorf("store.max_rows must be positive")
	}
	if cfg.Web.PreviewRows <= 0 {
		return fmt.Errorf("web.preview_rows must be positive")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
