package notifier

import (
	"context"
	"log/slog"

	"github.com/ossi-voice/ossi/internal/model"
)

// Ensure LogNotifier implements model.EscalationNotifier.
var _ model.EscalationNotifier = (*LogNotifier)(nil)

// LogNotifier writes escalations to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each escalation via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyEscalation logs the escalation. Returns nil (stdout logging does not fail).
func (n *LogNotifier) NotifyEscalation(_ context.Context, e model.Escalation) error {
	n.logger.Warn("call escalated to human",
		"call_id", e.CallID,
		"degraded", e.Degraded,
		"confidence", e.Classification.Confidence,
		"reasoning", e.Classification.Reasoning,
		"keywords", e.Classification.DetectedKeywords,
	)
	return nil
}
