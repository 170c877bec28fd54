package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/modelmux/modelmux/providers/ai/workersai"
)

// Config is the application configuration, merged from an optional YAML
// file, environment overrides, and defaults, in that precedence order
// (environment wins).
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Triage    TriageConfig    `yaml:"triage"`
	Cache     CacheConfig     `yaml:"cache"`
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// ProvidersConfig holds per-upstream credentials and endpoints. Empty
// values defer to each adapter's own environment lookup.
type ProvidersConfig struct {
	OpenAI    ProviderConfig  `yaml:"openai"`
	Anthropic ProviderConfig  `yaml:"anthropic"`
	Gemini    ProviderConfig  `yaml:"gemini"`
	WorkersAI WorkersAIConfig `yaml:"workers_ai"`
	Ollama    OllamaConfig    `yaml:"ollama"`
}

// ProviderConfig captures authentication for a key-based upstream.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// WorkersAIConfig captures the Cloudflare account binding.
type WorkersAIConfig struct {
	AccountID string `yaml:"account_id"`
	APIToken  string `yaml:"api_token"`
	BaseURL   string `yaml:"base_url"`
}

// OllamaConfig captures the local Ollama endpoint.
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"`
}

// TriageConfig tunes the complexity classifier.
type TriageConfig struct {
	Model    string   `yaml:"model"`
	CacheTTL Duration `yaml:"cache_ttl"`
}

// CacheConfig selects the verdict cache backing store. An empty Path
// keeps verdicts in memory.
type CacheConfig struct {
	Path string `yaml:"path"`
}

// Duration wraps time.Duration so YAML values like "15m" or "168h"
// parse with time.ParseDuration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped standard-library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Triage: TriageConfig{
			Model:    workersai.DefaultTriageModel,
			CacheTTL: Duration(7 * 24 * time.Hour),
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path if
// one exists, then environment overrides. An empty path skips the file
// step entirely; a path that does not exist is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Defaults plus environment only.
		case err != nil:
			return Config{}, fmt.Errorf("read config file %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file %q: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overwrites file and default values with non-empty environment
// variables. Provider variable names match what the adapters themselves
// read, so either layer can supply them.
func (c *Config) applyEnv() {
	overrideString(&c.Server.Addr, "MODELMUX_ADDR")
	overrideString(&c.Cache.Path, "MODELMUX_CACHE_PATH")
	overrideString(&c.Triage.Model, "MODELMUX_TRIAGE_MODEL")
	overrideDuration(&c.Triage.CacheTTL, "MODELMUX_TRIAGE_TTL")

	overrideString(&c.Providers.OpenAI.APIKey, "OPENAI_API_KEY")
	overrideString(&c.Providers.OpenAI.BaseURL, "OPENAI_API_BASE_URL")
	overrideString(&c.Providers.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	overrideString(&c.Providers.Anthropic.BaseURL, "ANTHROPIC_API_BASE_URL")
	overrideString(&c.Providers.Gemini.APIKey, "GEMINI_API_KEY")
	overrideString(&c.Providers.Gemini.BaseURL, "GEMINI_API_BASE_URL")
	overrideString(&c.Providers.WorkersAI.AccountID, "CF_ACCOUNT_ID")
	overrideString(&c.Providers.WorkersAI.APIToken, "CF_API_TOKEN")
	overrideString(&c.Providers.WorkersAI.BaseURL, "CF_API_BASE_URL")
	overrideString(&c.Providers.Ollama.BaseURL, "OLLAMA_BASE_URL")
}

// Validate performs sanity checks on the merged configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if strings.TrimSpace(c.Triage.Model) == "" {
		return fmt.Errorf("triage.model must not be empty")
	}
	if c.Triage.CacheTTL <= 0 {
		return fmt.Errorf("triage.cache_ttl must be positive, got %s", c.Triage.CacheTTL.Std())
	}
	return nil
}

func overrideString(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

func overrideDuration(target *Duration, key string) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		*target = Duration(parsed)
	}
}
