package model

import "time"

// Conversation roles accepted by the messages endpoint.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one role/content pair sent to the LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MessageRequest mirrors the POST /v1/messages request body.
type MessageRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	System      string        `json:"system,omitempty"`
}

// ContentBlock is a single block of the response content array.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Usage is the token accounting reported by the service for one request.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns input plus output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// MessageResponse mirrors the relevant fields of the POST /v1/messages response body.
type MessageResponse struct {
	Content []ContentBlock `json:"content"`
	Usage   Usage          `json:"usage"`
}

// LLMResponse is the typed result of a free-form chat completion.
type LLMResponse struct {
	Content    string
	TokensUsed int
	Model      string
	Latency    time.Duration
	Metadata   map[string]any
}

// LatencyMS reports Latency in fractional milliseconds.
func (r LLMResponse) LatencyMS() float64 {
	return float64(r.Latency) / float64(time.Millisecond)
}

// UsageStats is a point-in-time snapshot of accumulated LLM usage.
type UsageStats struct {
	TotalTokensUsed  int64
	TotalAPICalls    int64
	Model            string
	EstimatedCostUSD float64
}
