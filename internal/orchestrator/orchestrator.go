package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ossi-voice/ossi/internal/conversation"
	"github.com/ossi-voice/ossi/internal/model"
	"github.com/ossi-voice/ossi/internal/parse"
	"github.com/ossi-voice/ossi/internal/prompts"
	"github.com/ossi-voice/ossi/internal/usage"
)

// DefaultTemperature is used for classification and for chat completions
// that do not override it.
const DefaultTemperature = 0.7

// contextTurns is how many recent turns are rendered into a classification prompt.
const contextTurns = 3

// notifyTimeout bounds a single escalation notification.
const notifyTimeout = 10 * time.Second

// Reasons attached to degraded classifications.
const (
	reasonParseFailure = "Failed to parse AI response"
)

// Config holds the construction-time settings of an Orchestrator.
type Config struct {
	Model          string
	MaxTokens      int
	CostPerMillion float64
}

// Kind distinguishes a trusted classification from a fail-safe fallback.
type Kind int

const (
	Ok Kind = iota
	Degraded
)

func (k Kind) String() string {
	if k == Degraded {
		return "degraded"
	}
	return "ok"
}

// Result is the outcome of ClassifyIntent. Classification is always usable:
// for Degraded results it is the escalation fallback and Reason says why.
type Result struct {
	Kind           Kind
	Classification model.IntentClassification
	Reason         string
	TokensUsed     int
	Latency        time.Duration
}

// ChatOptions tunes a single ChatCompletion call.
type ChatOptions struct {
	System      string
	Temperature *float64 // nil means DefaultTemperature
	MaxTokens   int      // zero means Config.MaxTokens
}

// Orchestrator turns utterances into intent classifications and runs free-form
// chat completions. It is safe for concurrent use by many call sessions.
type Orchestrator struct {
	cfg       Config
	transport model.Transport
	prompts   model.PromptCatalog
	tracker   *usage.Tracker
	log       model.ClassificationLog
	notifier  model.EscalationNotifier
	logger    *slog.Logger
	pending   sync.WaitGroup
}

// New creates an Orchestrator. transport should already carry retry (and
// optionally rate limiting) decorators.
func New(cfg Config, transport model.Transport, catalog model.PromptCatalog, logger *slog.Logger) *Orchestrator {
	if cfg.CostPerMillion == 0 {
		cfg.CostPerMillion = usage.DefaultCostPerMillion
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:       cfg,
		transport: transport,
		prompts:   catalog,
		tracker:   usage.NewTracker(cfg.Model, cfg.CostPerMillion),
		logger:    logger,
	}
}

// SetClassificationLog enables the classification audit log.
func (o *Orchestrator) SetClassificationLog(l model.ClassificationLog) {
	o.log = l
}

// SetNotifier enables escalation notifications.
func (o *Orchestrator) SetNotifier(n model.EscalationNotifier) {
	o.notifier = n
}

// ClassifyIntent classifies utterance in the light of the last few turns of
// conv (which may be nil). It never fails: any transport, parse or validation
// problem yields a Degraded result routed to escalation. conv is not modified.
func (o *Orchestrator) ClassifyIntent(ctx context.Context, utterance string, conv *conversation.Context) (res Result) {
	start := time.Now()
	callID := ""
	if conv != nil {
		callID = conv.CallID
	}

	o.logger.Info("classifying intent",
		"call_id", callID,
		"utterance", truncate(utterance, 100),
		"has_context", conv.HasTurns(),
	)

	defer func() {
		if r := recover(); r != nil {
			res = degraded(fmt.Sprintf("Error: %v", r), time.Since(start))
			o.logger.Error("intent classification panicked", "call_id", callID, "panic", r)
		}
		o.finish(ctx, callID, res)
	}()

	req := model.MessageRequest{
		Model:       o.cfg.Model,
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: DefaultTemperature,
		Messages: []model.ChatMessage{
			{Role: model.RoleUser, Content: o.classificationPrompt(utterance, conv)},
		},
	}

	resp, err := o.transport.Send(ctx, req)
	if err != nil {
		return o.degrade(callID, fmt.Sprintf("Error: %v", err), err, time.Since(start))
	}

	classification, err := parse.Classification(resp)
	if err != nil {
		var pe *parse.ParseError
		if errors.As(err, &pe) {
			return o.degrade(callID, reasonParseFailure, err, time.Since(start))
		}
		return o.degrade(callID, fmt.Sprintf("Error: %v", err), err, time.Since(start))
	}

	tokens := resp.Usage.Total()
	o.tracker.Record(tokens)

	latency := time.Since(start)
	o.logger.Info("intent classified",
		"call_id", callID,
		"intent", classification.Intent,
		"confidence", classification.Confidence,
		"latency_ms", msec(latency),
		"tokens_used", tokens,
	)

	return Result{
		Kind:           Ok,
		Classification: classification,
		TokensUsed:     tokens,
		Latency:        latency,
	}
}

// ChatCompletion sends messages as one logical call and returns the reply.
// Errors are logged and returned; errors.As reaches the underlying kind.
func (o *Orchestrator) ChatCompletion(ctx context.Context, messages []model.ChatMessage, opts ChatOptions) (model.LLMResponse, error) {
	if len(messages) == 0 {
		return model.LLMResponse{}, fmt.Errorf("chat completion: no messages")
	}

	temperature := DefaultTemperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	maxTokens := o.cfg.MaxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}

	start := time.Now()
	resp, err := o.transport.Send(ctx, model.MessageRequest{
		Model:       o.cfg.Model,
		MaxTokens:   maxTokens,
		Messages:    messages,
		Temperature: temperature,
		System:      opts.System,
	})
	if err != nil {
		o.logger.Error("chat completion failed", "error", err)
		return model.LLMResponse{}, fmt.Errorf("chat completion: %w", err)
	}

	text, err := parse.Text(resp)
	if err != nil {
		o.logger.Error("chat completion failed", "error", err)
		return model.LLMResponse{}, fmt.Errorf("chat completion: %w", err)
	}

	tokens := resp.Usage.Total()
	o.tracker.Record(tokens)

	out := model.LLMResponse{
		Content:    text,
		TokensUsed: tokens,
		Model:      o.cfg.Model,
		Latency:    time.Since(start),
		Metadata: map[string]any{
			"input_tokens":  resp.Usage.InputTokens,
			"output_tokens": resp.Usage.OutputTokens,
		},
	}
	o.logger.Info("chat completion successful",
		"tokens_used", tokens,
		"latency_ms", out.LatencyMS(),
	)
	return out, nil
}

// Stats returns a snapshot of accumulated usage.
func (o *Orchestrator) Stats() model.UsageStats {
	return o.tracker.Stats()
}

// Wait blocks until in-flight escalation notifications have finished.
func (o *Orchestrator) Wait() {
	o.pending.Wait()
}

// classificationPrompt renders the system prompt, the recent turns of conv and the utterance.
func (o *Orchestrator) classificationPrompt(utterance string, conv *conversation.Context) string {
	var history strings.Builder
	if turns := conv.RecentTurns(contextTurns); len(turns) > 0 {
		history.WriteString("\n\nRecent conversation:\n")
		for _, t := range turns {
			fmt.Fprintf(&history, "%s: %s\n", t.Role, t.Content)
		}
	}

	system := ""
	if o.prompts != nil {
		system = o.prompts.Get(prompts.IntentClassification)
	}
	return system + "\n" + history.String() + "\nUser message: " + utterance
}

func (o *Orchestrator) degrade(callID, reason string, err error, latency time.Duration) Result {
	o.logger.Error("intent classification degraded",
		"call_id", callID,
		"reason", reason,
		"error", err,
	)
	return degraded(reason, latency)
}

func degraded(reason string, latency time.Duration) Result {
	return Result{
		Kind:           Degraded,
		Classification: model.FallbackClassification(reason),
		Reason:         reason,
		Latency:        latency,
	}
}

// finish records res in the classification log and fans out escalation notifications.
func (o *Orchestrator) finish(ctx context.Context, callID string, res Result) {
	c := res.Classification
	if o.log != nil {
		rec := model.ClassificationRecord{
			CallID:     callID,
			Intent:     c.Intent,
			Confidence: c.Confidence,
			Reasoning:  c.Reasoning,
			NextAction: c.NextAction,
			Keywords:   c.DetectedKeywords,
			Degraded:   res.Kind == Degraded,
			TokensUsed: res.TokensUsed,
			LatencyMS:  msec(res.Latency),
		}
		if err := o.log.Record(context.WithoutCancel(ctx), rec); err != nil {
			o.logger.Warn("failed to record classification", "call_id", callID, "error", err)
		}
	}

	if o.notifier == nil || c.Intent != model.IntentEscalation {
		return
	}

	e := model.Escalation{
		CallID:         callID,
		Classification: c,
		Degraded:       res.Kind == Degraded,
		At:             time.Now().UTC(),
	}
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	o.pending.Add(1)
	go func() {
		defer o.pending.Done()
		defer cancel()
		if err := o.notifier.NotifyEscalation(notifyCtx, e); err != nil {
			o.logger.Warn("escalation notification failed", "call_id", e.CallID, "error", err)
		}
	}()
}

func msec(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
