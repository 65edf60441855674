package model

import (
	"context"
	"time"
)

// Transport performs a single POST /v1/messages call.
// Implementations return *HTTPError for non-2xx statuses and *ConnectionError
// when no status was received.
type Transport interface {
	Send(ctx context.Context, req MessageRequest) (*MessageResponse, error)
}

// PromptCatalog maps a prompt name to its system-prompt text.
type PromptCatalog interface {
	Get(name string) string
}

// ClassificationRecord is one row of the classification audit log.
// It never carries the caller's utterance or conversation turns.
type ClassificationRecord struct {
	ID         int64
	CallID     string
	Intent     IntentType
	Confidence float64
	Reasoning  string
	NextAction string
	Keywords   []string
	Degraded   bool
	TokensUsed int
	LatencyMS  float64
	CreatedAt  time.Time
}

// ClassificationLog stores classification outcomes for later review.
type ClassificationLog interface {
	Record(ctx context.Context, rec ClassificationRecord) error
	Recent(ctx context.Context, limit int) ([]ClassificationRecord, error)
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Escalation describes a call that was routed to a human.
type Escalation struct {
	CallID         string
	Classification IntentClassification
	Degraded       bool
	At             time.Time
}

// EscalationNotifier is told about every escalation outcome.
type EscalationNotifier interface {
	NotifyEscalation(ctx context.Context, e Escalation) error
}
