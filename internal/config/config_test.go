package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	t.Setenv("TEST_OSSI_KEY", "sk-from-env")
	path := writeConfig(t, `
environment: production
llm:
  api_key: ${TEST_OSSI_KEY}
  model: claude-test
  max_tokens: 1000
  timeout: 10s
  max_retries: 4
  backoff_base: 500ms
  cost_per_million: 3
confidence_threshold: 0.8
prompts:
  dir: /etc/ossi/prompts
store:
  path: ossi.db
  retention: 48h
rate_limit:
  min_delay: 250ms
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "sk-from-env" {
		t.Errorf("APIKey = %q, want expanded env value", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "claude-test" || cfg.LLM.MaxTokens != 1000 || cfg.LLM.MaxRetries != 4 {
		t.Errorf("LLM = %+v", cfg.LLM)
	}
	if cfg.LLM.Timeout != 10*time.Second || cfg.LLM.BackoffBase != 500*time.Millisecond {
		t.Errorf("durations = %v / %v", cfg.LLM.Timeout, cfg.LLM.BackoffBase)
	}
	if cfg.LLM.CostPerMillion != 3 {
		t.Errorf("CostPerMillion = %v, want 3", cfg.LLM.CostPerMillion)
	}
	if cfg.ConfidenceThreshold != 0.8 {
		t.Errorf("ConfidenceThreshold = %v, want 0.8", cfg.ConfidenceThreshold)
	}
	if cfg.Prompts.Dir != "/etc/ossi/prompts" {
		t.Errorf("Prompts.Dir = %q", cfg.Prompts.Dir)
	}
	if cfg.Store.Path != "ossi.db" || cfg.Store.Retention != 48*time.Hour {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.RateLimit.MinDelay != 250*time.Millisecond {
		t.Errorf("MinDelay = %v", cfg.RateLimit.MinDelay)
	}
	if !cfg.IsProduction() || cfg.Log.Format != "json" {
		t.Errorf("production should imply json logs, got %q", cfg.Log.Format)
	}
}

func TestParse_Defaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-default")

	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.LLM.APIKey != "sk-default" {
		t.Errorf("APIKey = %q, want ANTHROPIC_API_KEY fallback", cfg.LLM.APIKey)
	}
	if cfg.LLM.BaseURL != defaultBaseURL || cfg.LLM.APIVersion != defaultAPIVersion || cfg.LLM.Model != defaultModel {
		t.Errorf("LLM defaults = %+v", cfg.LLM)
	}
	if cfg.LLM.MaxTokens != 4096 || cfg.LLM.MaxRetries != 3 {
		t.Errorf("MaxTokens/MaxRetries = %d/%d", cfg.LLM.MaxTokens, cfg.LLM.MaxRetries)
	}
	if cfg.LLM.Timeout != 30*time.Second || cfg.LLM.BackoffBase != time.Second {
		t.Errorf("Timeout/BackoffBase = %v/%v", cfg.LLM.Timeout, cfg.LLM.BackoffBase)
	}
	if cfg.LLM.CostPerMillion != 9.0 || cfg.ConfidenceThreshold != 0.7 {
		t.Errorf("cost/threshold = %v/%v", cfg.LLM.CostPerMillion, cfg.ConfidenceThreshold)
	}
	if cfg.Prompts.Dir != "config/prompts" {
		t.Errorf("Prompts.Dir = %q", cfg.Prompts.Dir)
	}
	if cfg.Store.Path != "" || cfg.Store.Retention != 30*24*time.Hour {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Notification.Type != "log" || cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("notification/log = %q/%q/%q", cfg.Notification.Type, cfg.Log.Level, cfg.Log.Format)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "llm: [broken")
	if _, err := Load(path); err == nil {
		t.Fatal("Load: expected error for invalid YAML")
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	tests := []struct {
		name    string
		content string
	}{
		{"missing api key", `llm: {model: m}`},
		{"bad timeout", `llm: {api_key: k, timeout: soon}`},
		{"zero timeout", `llm: {api_key: k, timeout: 0s}`},
		{"bad base url", `llm: {api_key: k, base_url: "ftp://x"}`},
		{"too many retries", `llm: {api_key: k, max_retries: 50}`},
		{"negative cost", `llm: {api_key: k, cost_per_million: -1}`},
		{"threshold above one", "llm: {api_key: k}\nconfidence_threshold: 1.5"},
		{"slack without webhook", "llm: {api_key: k}\nnotification: {type: slack}"},
		{"slack wrong host", "llm: {api_key: k}\nnotification: {type: slack, webhook_url: \"https://example.com/x\"}"},
		{"unknown notifier", "llm: {api_key: k}\nnotification: {type: pager}"},
		{"unknown log format", "llm: {api_key: k}\nlog: {format: xml}"},
		{"negative rate limit", "llm: {api_key: k}\nrate_limit: {min_delay: -1s}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.content)); err == nil {
				t.Fatalf("Parse(%q): expected validation error", tt.content)
			}
		})
	}
}

func TestParse_SlackNotification(t *testing.T) {
	cfg, err := Parse([]byte("llm: {api_key: k}\nnotification: {type: slack, webhook_url: \"https://hooks.slack.com/services/T/B/X\"}"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Notification.Type != "slack" {
		t.Errorf("Notification.Type = %q", cfg.Notification.Type)
	}
}
