package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// BackendURLEnv overrides Config.BackendURL.
	BackendURLEnv = "ARTICLE_BACKEND_URL"
	// LLMAPIKeyEnv fills LLMConfig.APIKey when the file leaves it empty.
	LLMAPIKeyEnv = "LLM_API_KEY"
)

const defaultTimeout = 120 * time.Second

// Config holds client settings plus the optional LLM settings used by the
// preview backend.
type Config struct {
	BackendURL     string     `json:"backend_url"`
	TimeoutSeconds int        `json:"timeout_seconds,omitempty"`
	LLM            *LLMConfig `json:"llm,omitempty"`
	ServerAddr     string     `json:"server_addr,omitempty"`
}

// LLMConfig configures the model behind the preview backend.
type LLMConfig struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
}

// Timeout returns the per-request timeout, defaulting to two minutes.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load reads the JSON config at path, then applies a .env file and the
// environment on top. A missing config file is not an error.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Config{}, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if v := strings.TrimSpace(os.Getenv(BackendURLEnv)); v != "" {
		cfg.BackendURL = v
	}
	if cfg.LLM != nil && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = strings.TrimSpace(os.Getenv(LLMAPIKeyEnv))
	}
	return cfg, nil
}

// RequireBackend reports an error when no backend url is configured. Only the
// client commands need one; the preview backend does not.
func (c Config) RequireBackend() error {
	if c.BackendURL == "" {
		return fmt.Errorf("backend url missing; set backend_url in the config file or %s", BackendURLEnv)
	}
	return nil
}
