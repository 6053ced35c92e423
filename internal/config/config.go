// Package config loads scout configuration with multi-source priority:
//
//  1. Environment variables (SCOUT_ prefix, dots become underscores)
//  2. Config file (~/.scout/config.yaml)
//  3. Defaults
//
// The Anthropic API key is not managed here: the SDK reads ANTHROPIC_API_KEY
// from the environment itself.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrInvalidSearxURL indicates the SearXNG base URL does not parse.
	ErrInvalidSearxURL = errors.New("invalid searxng base URL")

	// ErrInvalidTokenBudget indicates a non-positive token budget.
	ErrInvalidTokenBudget = errors.New("invalid token budget")

	// ErrInvalidMaxTokens indicates a non-positive max tokens value.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrMissingDownloadsDir indicates an empty downloads directory.
	ErrMissingDownloadsDir = errors.New("missing downloads directory")
)

// SearxConfig holds the SearXNG backend settings.
type SearxConfig struct {
	// BaseURL is the SearXNG instance URL (e.g. http://localhost:8080).
	BaseURL string `mapstructure:"base_url"`

	// TimeoutSeconds bounds a single search request.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`

	// GeneralEngines are the engines used for general and wikipedia searches.
	GeneralEngines []string `mapstructure:"general_engines"`

	// ImageEngines are the engines used for image searches.
	ImageEngines []string `mapstructure:"image_engines"`
}

// DownloadsConfig holds the artifact store settings.
type DownloadsConfig struct {
	// Dir is the flat directory all artifacts and sidecars are written to.
	Dir string `mapstructure:"dir"`

	// TimeoutSeconds bounds a single download fetch.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Config is the root configuration object.
type Config struct {
	// Model is the preferred Anthropic model; FallbackModels are probed in
	// order when the preferred model is unavailable.
	Model          string   `mapstructure:"model"`
	FallbackModels []string `mapstructure:"fallback_models"`

	// MaxTokens caps assistant output per request.
	MaxTokens int `mapstructure:"max_tokens"`

	// TokenBudget caps the estimated input tokens of the send window.
	TokenBudget int `mapstructure:"token_budget"`

	// MaxResults is the default result count for search when the model
	// does not ask for a specific number.
	MaxResults int `mapstructure:"max_results"`

	Searx     SearxConfig     `mapstructure:"searxng"`
	Downloads DownloadsConfig `mapstructure:"downloads"`
	Log       LogConfig       `mapstructure:"log"`
}

// SearchTimeout returns the search timeout as a duration.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.Searx.TimeoutSeconds) * time.Second
}

// DownloadTimeout returns the download timeout as a duration.
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Downloads.TimeoutSeconds) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model", "claude-sonnet-4-5")
	v.SetDefault("fallback_models", []string{
		"claude-sonnet-4-0",
		"claude-3-7-sonnet-latest",
		"claude-3-5-haiku-latest",
	})
	v.SetDefault("max_tokens", 1024)
	v.SetDefault("token_budget", 16000)
	v.SetDefault("max_results", 5)

	v.SetDefault("searxng.base_url", "http://localhost:8080")
	v.SetDefault("searxng.timeout_seconds", 10)
	v.SetDefault("searxng.general_engines", []string{"google", "duckduckgo", "bing"})
	v.SetDefault("searxng.image_engines", []string{"google", "bing", "duckduckgo"})

	v.SetDefault("downloads.dir", "downloads")
	v.SetDefault("downloads.timeout_seconds", 30)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// Load reads configuration from defaults, an optional config file and the
// environment, then validates it.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.scout")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// SEARXNG_URL is the conventional override used by SearXNG deployments;
	// honour it alongside SCOUT_SEARXNG_BASE_URL.
	_ = v.BindEnv("searxng.base_url", "SCOUT_SEARXNG_BASE_URL", "SEARXNG_URL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks invariants that would otherwise fail far from startup.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Searx.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidSearxURL, c.Searx.BaseURL)
	}
	if c.TokenBudget <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTokenBudget, c.TokenBudget)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxTokens, c.MaxTokens)
	}
	if strings.TrimSpace(c.Downloads.Dir) == "" {
		return ErrMissingDownloadsDir
	}
	if c.Searx.TimeoutSeconds <= 0 {
		c.Searx.TimeoutSeconds = 10
	}
	if c.Downloads.TimeoutSeconds <= 0 {
		c.Downloads.TimeoutSeconds = 30
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 5
	}
	return nil
}

// Models returns the preferred model followed by the fallbacks, with
// duplicates removed while preserving order.
func (c *Config) Models() []string {
	seen := make(map[string]struct{}, 1+len(c.FallbackModels))
	out := make([]string, 0, 1+len(c.FallbackModels))
	for _, m := range append([]string{c.Model}, c.FallbackModels...) {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
