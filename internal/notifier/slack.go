package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ossi-voice/ossi/internal/model"
)

// Ensure SlackNotifier implements model.EscalationNotifier.
var _ model.EscalationNotifier = (*SlackNotifier)(nil)

// SlackNotifier posts escalation alerts to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts each escalation to Slack via webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// NotifyEscalation sends one Block Kit message. A 429 is retried once after Retry-After.
func (s *SlackNotifier) NotifyEscalation(ctx context.Context, e model.Escalation) error {
	body, err := json.Marshal(buildPayload(e))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(ctx, body)
	if err != nil {
		return err
	}

	if status == http.StatusTooManyRequests {
		s.logger.Warn("slack rate limited, retrying", "retry_after", retryAfter)
		select {
		case <-ctx.Done():
			return fmt.Errorf("slack retry cancelled: %w", ctx.Err())
		case <-time.After(retryAfter):
		}

		status, _, err = s.post(ctx, body)
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", status)
		}
		s.logger.Info("slack escalation sent", "call_id", e.CallID, "retried", true)
		return nil
	}

	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	s.logger.Info("slack escalation sent", "call_id", e.CallID)
	return nil
}

func (s *SlackNotifier) post(ctx context.Context, body []byte) (int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
	if secs <= 0 {
		secs = 1
	}
	return resp.StatusCode, time.Duration(secs) * time.Second, nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type   string      `json:"type"`
	Text   *slackText  `json:"text,omitempty"`
	Fields []slackText `json:"fields,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SendTestMessage sends a dummy escalation to verify the integration works.
func SendTestMessage(ctx context.Context, n model.EscalationNotifier) error {
	c := model.IntentClassification{
		Intent:           model.IntentEscalation,
		Confidence:       1,
		Reasoning:        "Test notification, integration verified",
		NextAction:       model.FallbackNextAction,
		DetectedKeywords: []string{"test"},
	}
	return n.NotifyEscalation(ctx, model.Escalation{
		CallID:         "test-001",
		Classification: c,
		At:             time.Now(),
	})
}

func buildPayload(e model.Escalation) slackPayload {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}

	title := "🚨 Call escalated: " + e.CallID
	cause := "Classified as escalation"
	if e.Degraded {
		title = "⚠️ Classifier fallback: " + e.CallID
		cause = "AI classification failed, routed to a human"
	}

	keywords := "none"
	if len(e.Classification.DetectedKeywords) > 0 {
		keywords = strings.Join(e.Classification.DetectedKeywords, ", ")
	}

	return slackPayload{Blocks: []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: title},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Cause:*\n" + cause},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Confidence:*\n%.2f", e.Classification.Confidence)},
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*At:*\n" + at.UTC().Format(time.RFC1123)},
				{Type: "mrkdwn", Text: "*Keywords:*\n" + keywords},
			},
		},
		{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Reasoning:* " + e.Classification.Reasoning},
		},
		{Type: "divider"},
	}}
}
