package config

import (
	"encoding/json"
	"os"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Auth      AuthConfig      `json:"auth"`
	LLM       LLMConfig       `json:"llm"`
	WebSearch WebSearchConfig `json:"websearch"`
	Chat      ChatConfig      `json:"chat"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int `json:"port"`
}

// AuthConfig holds authentication configuration. The JWT secret is never
// read from the JSON file; it comes from the environment (see ApplyEnv).
type AuthConfig struct {
	JWTSecret    string        `json:"-"`
	TokenTTL     time.Duration `json:"token_ttl"`
	DatabasePath string        `json:"database_path"`
}

// LLMConfig holds configuration for the LLM backend
type LLMConfig struct {
	Provider        string        `json:"provider"`
	Ollama          OllamaConfig  `json:"ollama"`
	DefaultTimeout  time.Duration `json:"default_timeout"`
	DefaultMaxToken int           `json:"default_max_tokens"`
}

// OllamaConfig holds specific configuration for Ollama integration
type OllamaConfig struct {
	Endpoint       string        `json:"endpoint"`
	Model          string        `json:"model"`
	MaxTokens      int           `json:"max_tokens"`
	TimeoutSeconds time.Duration `json:"timeout_seconds"`
}

// WebSearchConfig holds configuration for the live search provider.
// API keys come from the environment, not the JSON file.
type WebSearchConfig struct {
	Enabled        bool          `json:"enabled"`
	AutoDetect     bool          `json:"auto_detect"`
	Provider       string        `json:"provider"` // "serper" or "serpapi"
	Endpoint       string        `json:"endpoint"`
	APIKey         string        `json:"-"`
	Country        string        `json:"country"`
	Language       string        `json:"language"`
	ResultCount    int           `json:"result_count"`
	TimeoutSeconds time.Duration `json:"timeout_seconds"`
	RatePerMinute  int           `json:"rate_per_minute"`
}

// ChatConfig holds conversation handling configuration
type ChatConfig struct {
	MaxHistoryMessages int               `json:"max_history_messages"`
	Personas           map[string]string `json:"personas"`
	DefaultMode        string            `json:"default_mode"`
}

// LoadConfig loads configuration from a JSON file on top of the defaults
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := DefaultConfig()
	if err := json.NewDecoder(file).Decode(config); err != nil {
		return nil, err
	}

	config.ApplyEnv()
	return config, nil
}

// ApplyEnv pulls secrets from the environment so they never live in a
// config file shipped alongside client code.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("VETRO_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	switch c.WebSearch.Provider {
	case "serpapi":
		if v := os.Getenv("SERPAPI_KEY"); v != "" {
			c.WebSearch.APIKey = v
		}
	default:
		if v := os.Getenv("SERPER_API_KEY"); v != "" {
			c.WebSearch.APIKey = v
		}
	}
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Auth: AuthConfig{
			TokenTTL:     72 * time.Hour,
			DatabasePath: "./data/vetro.db",
		},
		LLM: LLMConfig{
			Provider: "ollama",
			Ollama: OllamaConfig{
				Endpoint:       "http://localhost:11434",
				Model:          "qwen3:14b",
				MaxTokens:      4096,
				TimeoutSeconds: 100,
			},
			DefaultTimeout:  100 * time.Second,
			DefaultMaxToken: 4096,
		},
		WebSearch: WebSearchConfig{
			Enabled:        true,
			AutoDetect:     true,
			Provider:       "serper",
			Endpoint:       "https://google.serper.dev/search",
			Country:        "in",
			Language:       "en",
			ResultCount:    10,
			TimeoutSeconds: 8,
			RatePerMinute:  20,
		},
		Chat: ChatConfig{
			MaxHistoryMessages: 10,
			DefaultMode:        "fast_chat",
			Personas: map[string]string{
				"vtu_academic": "You are a VTU academic tutor. Explain concepts the way a university examiner expects them: definitions first, then derivations, then a worked example. Prefer exam-relevant structure over casual chat.",
				"debugger":     "You are a senior software engineer doing a code review. Find the bug, explain the root cause in one or two sentences, then show the minimal fix.",
				"astrology":    "You are a friendly astrologer. Answer playfully and never present astrology as a factual science.",
				"fast_chat":    "",
			},
		},
	}
}
