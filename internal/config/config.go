package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for ossi.
type Config struct {
	Environment         string
	LLM                 LLMConfig
	ConfidenceThreshold float64 // read by callers; the orchestrator never enforces it
	Prompts             PromptsConfig
	Store               StoreConfig
	Notification        NotificationConfig
	RateLimit           RateLimitConfig
	Log                 LogConfig
}

// LLMConfig controls the remote messages API and the retry budget.
type LLMConfig struct {
	BaseURL        string        // defaults to https://api.anthropic.com/v1
	APIKey         string        // expanded from env var by Load
	APIVersion     string        // anthropic-version header
	Model          string        // model identifier, e.g. "claude-sonnet-4-20250514"
	MaxTokens      int           // default max_tokens per request
	Timeout        time.Duration // per-request timeout
	MaxRetries     int           // total attempts per logical call
	BackoffBase    time.Duration // wait after the first failed attempt, doubled per attempt
	CostPerMillion float64       // USD per million tokens for the usage estimate
}

// PromptsConfig selects where system prompts are loaded from.
// Redis wins over the directory when both are set.
type PromptsConfig struct {
	Dir      string `yaml:"dir"`
	RedisURL string `yaml:"redis_url"`
	RedisKey string `yaml:"redis_key"`
}

// StoreConfig controls the classification audit log.
type StoreConfig struct {
	Path      string        // empty disables the log
	Retention time.Duration // records older than this are pruned
}

// NotificationConfig controls which escalation notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log", "slack" or "none"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// RateLimitConfig spaces outbound LLM requests that share one credential.
type RateLimitConfig struct {
	MinDelay time.Duration // zero disables spacing
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json; json is implied in production
}

const (
	defaultBaseURL        = "https://api.anthropic.com/v1"
	defaultAPIVersion     = "2023-06-01"
	defaultModel          = "claude-sonnet-4-20250514"
	defaultMaxTokens      = 4096
	defaultMaxRetries     = 3
	defaultCostPerMillion = 9.0
	defaultThreshold      = 0.7
	defaultPromptsDir     = "config/prompts"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Environment         string             `yaml:"environment"`
	LLM                 rawLLMConfig       `yaml:"llm"`
	ConfidenceThreshold *float64           `yaml:"confidence_threshold"`
	Prompts             *PromptsConfig     `yaml:"prompts"`
	Store               rawStoreConfig     `yaml:"store"`
	Notification        NotificationConfig `yaml:"notification"`
	RateLimit           rawRateLimitConfig `yaml:"rate_limit"`
	Log                 LogConfig          `yaml:"log"`
}

type rawLLMConfig struct {
	BaseURL        string   `yaml:"base_url"`
	APIKey         string   `yaml:"api_key"`
	APIVersion     string   `yaml:"api_version"`
	Model          string   `yaml:"model"`
	MaxTokens      int      `yaml:"max_tokens"`
	Timeout        string   `yaml:"timeout"`
	MaxRetries     int      `yaml:"max_retries"`
	BackoffBase    string   `yaml:"backoff_base"`
	CostPerMillion *float64 `yaml:"cost_per_million"`
}

type rawStoreConfig struct {
	Path      string `yaml:"path"`
	Retention string `yaml:"retention"`
}

type rawRateLimitConfig struct {
	MinDelay string `yaml:"min_delay"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML bytes. ${VAR} references are expanded from
// the environment and ANTHROPIC_API_KEY fills an empty llm.api_key.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	timeout, err := parseDuration("llm.timeout", raw.LLM.Timeout, 30*time.Second)
	if err != nil {
		return nil, err
	}
	backoff, err := parseDuration("llm.backoff_base", raw.LLM.BackoffBase, time.Second)
	if err != nil {
		return nil, err
	}
	retention, err := parseDuration("store.retention", raw.Store.Retention, 30*24*time.Hour)
	if err != nil {
		return nil, err
	}
	minDelay, err := parseDuration("rate_limit.min_delay", raw.RateLimit.MinDelay, 0)
	if err != nil {
		return nil, err
	}

	apiKey := raw.LLM.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	cfg := &Config{
		Environment: orDefault(raw.Environment, "development"),
		LLM: LLMConfig{
			BaseURL:        orDefault(raw.LLM.BaseURL, defaultBaseURL),
			APIKey:         apiKey,
			APIVersion:     orDefault(raw.LLM.APIVersion, defaultAPIVersion),
			Model:          orDefault(raw.LLM.Model, defaultModel),
			MaxTokens:      raw.LLM.MaxTokens,
			Timeout:        timeout,
			MaxRetries:     raw.LLM.MaxRetries,
			BackoffBase:    backoff,
			CostPerMillion: defaultCostPerMillion,
		},
		ConfidenceThreshold: defaultThreshold,
		Prompts:             PromptsConfig{Dir: defaultPromptsDir},
		Store: StoreConfig{
			Path:      raw.Store.Path,
			Retention: retention,
		},
		Notification: raw.Notification,
		RateLimit:    RateLimitConfig{MinDelay: minDelay},
		Log:          raw.Log,
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = defaultMaxTokens
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = defaultMaxRetries
	}
	if raw.LLM.CostPerMillion != nil {
		cfg.LLM.CostPerMillion = *raw.LLM.CostPerMillion
	}
	if raw.ConfidenceThreshold != nil {
		cfg.ConfidenceThreshold = *raw.ConfidenceThreshold
	}
	if raw.Prompts != nil {
		cfg.Prompts = *raw.Prompts
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
		if cfg.IsProduction() {
			cfg.Log.Format = "json"
		}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether environment is "production".
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func parseDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func validate(cfg *Config) error {
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key (or ANTHROPIC_API_KEY) is required")
	}
	if !strings.HasPrefix(cfg.LLM.BaseURL, "http://") && !strings.HasPrefix(cfg.LLM.BaseURL, "https://") {
		return fmt.Errorf("llm.base_url must be an http(s) URL, got %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.MaxTokens < 0 {
		return fmt.Errorf("llm.max_tokens must be positive, got %d", cfg.LLM.MaxTokens)
	}
	if cfg.LLM.MaxRetries < 0 || cfg.LLM.MaxRetries > 10 {
		return fmt.Errorf("llm.max_retries must be between 1 and 10, got %d", cfg.LLM.MaxRetries)
	}
	if cfg.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive, got %v", cfg.LLM.Timeout)
	}
	if cfg.LLM.BackoffBase <= 0 {
		return fmt.Errorf("llm.backoff_base must be positive, got %v", cfg.LLM.BackoffBase)
	}
	if cfg.LLM.CostPerMillion < 0 {
		return fmt.Errorf("llm.cost_per_million must not be negative, got %v", cfg.LLM.CostPerMillion)
	}
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be between 0 and 1, got %v", cfg.ConfidenceThreshold)
	}
	if cfg.RateLimit.MinDelay < 0 {
		return fmt.Errorf("rate_limit.min_delay must not be negative, got %v", cfg.RateLimit.MinDelay)
	}
	if cfg.Store.Retention <= 0 {
		return fmt.Errorf("store.retention must be positive, got %v", cfg.Store.Retention)
	}

	switch cfg.Notification.Type {
	case "log", "none":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be log, slack or none, got %q", cfg.Notification.Type)
	}

	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", cfg.Log.Format)
	}

	return nil
}
