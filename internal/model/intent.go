package model

import (
	"fmt"
	"strings"
)

// IntentType is the closed set of conversational intents a caller can be routed to.
type IntentType string

const (
	IntentReceptionist IntentType = "receptionist"
	IntentTriage       IntentType = "triage"
	IntentEscalation   IntentType = "escalation"
)

// IntentTypes lists every valid intent in display order.
var IntentTypes = []IntentType{IntentReceptionist, IntentTriage, IntentEscalation}

// ParseIntentType maps a wire value to an IntentType. Matching is case-insensitive.
func ParseIntentType(s string) (IntentType, error) {
	switch IntentType(strings.ToLower(strings.TrimSpace(s))) {
	case IntentReceptionist:
		return IntentReceptionist, nil
	case IntentTriage:
		return IntentTriage, nil
	case IntentEscalation:
		return IntentEscalation, nil
	}
	return "", fmt.Errorf("unknown intent %q", s)
}

// FallbackNextAction is the next action attached to every degraded classification.
const FallbackNextAction = "Escalate to human"

// IntentClassification is the validated, structured answer to "what does this caller want".
// Values are only built by the parse package or by FallbackClassification.
type IntentClassification struct {
	Intent           IntentType `json:"intent"`
	Confidence       float64    `json:"confidence"`
	Reasoning        string     `json:"reasoning"`
	NextAction       string     `json:"next_action"`
	DetectedKeywords []string   `json:"detected_keywords"`
}

// FallbackClassification returns the fail-safe classification used whenever
// the LLM answer cannot be trusted: route to a human with zero confidence.
func FallbackClassification(reason string) IntentClassification {
	return IntentClassification{
		Intent:           IntentEscalation,
		Confidence:       0.0,
		Reasoning:        reason,
		NextAction:       FallbackNextAction,
		DetectedKeywords: []string{},
	}
}
