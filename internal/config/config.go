package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Port string `toml:"port"`
	Mode string `toml:"mode"` // "dev" or "prod", feeds logger setup
}

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

type StorageConfig struct {
	Driver    string `toml:"driver"` // "memory" or "redis"
	Path      string `toml:"path"`   // JSON snapshot path for the memory driver
	RedisAddr string `toml:"redis_addr"`
}

type AnalysisConfig struct {
	SmoothingWindow int     `toml:"smoothing_window"`
	PeakThreshold   float64 `toml:"peak_threshold"`
}

type Config struct {
	Server   ServerConfig   `toml:"server"`
	LLM      LLMConfig      `toml:"llm"`
	Storage  StorageConfig  `toml:"storage"`
	Analysis AnalysisConfig `toml:"analysis"`
}

// Load reads TOML config from path and applies env-var overrides on top.
// A missing file is not an error: defaults plus env vars carry a fresh
// checkout.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML '%s': %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Port: "8000", Mode: "dev"},
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash-exp",
		},
		Storage: StorageConfig{
			Driver: "memory",
			Path:   "data/chats.json",
		},
		Analysis: AnalysisConfig{
			SmoothingWindow: 3,
			PeakThreshold:   0.7,
		},
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("SERVER_MODE"); v != "" {
		c.Server.Mode = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Storage.RedisAddr = v
	}
	if v := os.Getenv("SMOOTHING_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Analysis.SmoothingWindow = n
		}
	}
	if v := os.Getenv("PEAK_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Analysis.PeakThreshold = f
		}
	}
}
