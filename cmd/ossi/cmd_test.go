package main

import (
	"strings"
	"testing"

	"github.com/ossi-voice/ossi/internal/config"
	"github.com/ossi-voice/ossi/internal/model"
	"github.com/ossi-voice/ossi/internal/prompts"
)

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"Name", "Count"}, [][]string{{"triage", "3"}, {"short"}}, []columnAlignment{alignLeft, alignRight})
	for _, want := range []string{"NAME", "COUNT", "triage", "short"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("no headers should render nothing")
	}
}

func TestUsageTable(t *testing.T) {
	out := usageTable(model.UsageStats{TotalTokensUsed: 1_000_000, TotalAPICalls: 4, Model: "claude-test", EstimatedCostUSD: 9})
	for _, want := range []string{"claude-test", "1000000", "$9.000000"} {
		if !strings.Contains(out, want) {
			t.Errorf("usage table missing %q:\n%s", want, out)
		}
	}
}

func TestClassificationRows_NoKeywords(t *testing.T) {
	rows := classificationRows(model.FallbackClassification("Error: boom"))
	if rows[3][1] != "none" {
		t.Errorf("keywords cell = %q, want none", rows[3][1])
	}
	if rows[0][1] != "escalation" {
		t.Errorf("intent cell = %q", rows[0][1])
	}
}

func TestPersonaPrompt(t *testing.T) {
	catalog := prompts.NewCatalog(nil)

	got, err := personaPrompt(catalog, "Triage")
	if err != nil || got != catalog.Get(prompts.TriageSystem) {
		t.Errorf("triage persona = %q, %v", got, err)
	}
	if got, err := personaPrompt(catalog, ""); err != nil || got != "" {
		t.Errorf("empty persona = %q, %v", got, err)
	}
	if _, err := personaPrompt(catalog, "billing"); err == nil {
		t.Error("expected error for unknown persona")
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("  You are a receptionist.\nBe kind."); got != "You are a receptionist." {
		t.Errorf("firstLine = %q", got)
	}
	if got := firstLine(strings.Repeat("x", 100)); len(got) != 60 || !strings.HasSuffix(got, "...") {
		t.Errorf("long line = %q", got)
	}
}

func TestLoadConfig_EnvPath(t *testing.T) {
	t.Setenv("OSSI_CONFIG", t.TempDir()+"/missing.yaml")
	if _, err := loadConfig(""); err == nil || !strings.Contains(err.Error(), "missing.yaml") {
		t.Errorf("loadConfig should use OSSI_CONFIG, got %v", err)
	}
}

func TestLimiterKey_EndpointAndModel(t *testing.T) {
	a := &config.Config{}
	a.LLM.BaseURL = "https://api.anthropic.com"
	a.LLM.Model = "claude-sonnet-4-20250514"
	b := &config.Config{}
	b.LLM.BaseURL = a.LLM.BaseURL
	b.LLM.Model = "claude-3-5-haiku-20241022"

	if got, want := limiterKey(a), "https://api.anthropic.com|claude-sonnet-4-20250514"; got != want {
		t.Errorf("limiterKey = %q, want %q", got, want)
	}
	if limiterKey(a) == limiterKey(b) {
		t.Error("different models on one endpoint should not share a key")
	}
}
