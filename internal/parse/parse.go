package parse

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ossi-voice/ossi/internal/model"
)

// IntentSchema is the JSON Schema every intent classification must satisfy.
// Extra properties are tolerated; the listed ones are enforced.
const IntentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["intent", "confidence", "reasoning", "next_action"],
  "properties": {
    "intent": {"type": "string", "enum": ["receptionist", "triage", "escalation"]},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "reasoning": {"type": "string"},
    "next_action": {"type": "string"},
    "detected_keywords": {"type": "array", "items": {"type": "string"}}
  }
}`

var intentSchema = jsonschema.MustCompileString("intent_classification.json", IntentSchema)

// ErrNoContent is returned when the response carries no content blocks.
var ErrNoContent = errors.New("response has no content")

// ParseError reports text that could not be decoded as JSON.
type ParseError struct {
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse classification: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError reports JSON that does not satisfy IntentSchema.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate classification: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Text returns the text of the first content block.
func Text(resp *model.MessageResponse) (string, error) {
	if resp == nil || len(resp.Content) == 0 {
		return "", ErrNoContent
	}
	return resp.Content[0].Text, nil
}

// rawClassification is the JSON shape returned by the LLM (matches IntentSchema).
type rawClassification struct {
	Intent           string   `json:"intent"`
	Confidence       float64  `json:"confidence"`
	Reasoning        string   `json:"reasoning"`
	NextAction       string   `json:"next_action"`
	DetectedKeywords []string `json:"detected_keywords"`
}

// Classification extracts, unwraps, decodes and validates an intent
// classification from a messages response.
func Classification(resp *model.MessageResponse) (model.IntentClassification, error) {
	text, err := Text(resp)
	if err != nil {
		return model.IntentClassification{}, &ParseError{Err: err}
	}
	return ClassificationText(text)
}

// ClassificationText is Classification for already extracted response text.
func ClassificationText(text string) (model.IntentClassification, error) {
	payload := StripCodeFence(text)

	var doc any
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return model.IntentClassification{}, &ParseError{Text: payload, Err: err}
	}
	if err := intentSchema.Validate(doc); err != nil {
		return model.IntentClassification{}, &ValidationError{Err: err}
	}

	var raw rawClassification
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return model.IntentClassification{}, &ParseError{Text: payload, Err: err}
	}

	intent, err := model.ParseIntentType(raw.Intent)
	if err != nil {
		return model.IntentClassification{}, &ValidationError{Err: err}
	}
	if raw.Confidence < 0 || raw.Confidence > 1 {
		return model.IntentClassification{}, &ValidationError{Err: fmt.Errorf("confidence %v outside [0, 1]", raw.Confidence)}
	}

	keywords := raw.DetectedKeywords
	if keywords == nil {
		keywords = []string{}
	}

	return model.IntentClassification{
		Intent:           intent,
		Confidence:       raw.Confidence,
		Reasoning:        raw.Reasoning,
		NextAction:       raw.NextAction,
		DetectedKeywords: keywords,
	}, nil
}
