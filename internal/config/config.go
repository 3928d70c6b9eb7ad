package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CallerEntry is one registered integration in the caller registry.
// Identity is the secret; the id is a denormalized label for logs and
// rate-limit bookkeeping.
type CallerEntry struct {
	ID          string `yaml:"id"`
	Secret      string `yaml:"secret"`
	Active      *bool  `yaml:"active"` // nil means active
	RateLimit   int    `yaml:"rate_limit"`
	DisplayName string `yaml:"display_name"`
	Owner       string `yaml:"owner"`
}

// IsActive treats an omitted active flag as true.
func (c CallerEntry) IsActive() bool {
	return c.Active == nil || *c.Active
}

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Upstream struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Origin  string `yaml:"origin"`
		Timeout string `yaml:"timeout"`
	} `yaml:"upstream"`
	Auth struct {
		AdminToken    string `yaml:"admin_token"`
		SessionToken  string `yaml:"session_token"`
		DesktopSecret string `yaml:"desktop_secret"`
		CodeTTL       string `yaml:"code_ttl"`
	} `yaml:"auth"`
	Origins struct {
		Frontend       []string `yaml:"frontend"`
		IssueAllowlist []string `yaml:"issue_allowlist"`
	} `yaml:"origins"`
	RateLimit struct {
		Window        string `yaml:"window"`
		DefaultLimit  int    `yaml:"default_limit"`
		FrontendLimit int    `yaml:"frontend_limit"`
	} `yaml:"rate_limit"`
	Callers []CallerEntry `yaml:"callers"`
	Redis   struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty or invalid.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
