package conversation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ossi-voice/ossi/internal/model"
)

// Turn is a single utterance in a call.
type Turn struct {
	Role      string         `yaml:"role"`
	Content   string         `yaml:"content"`
	Timestamp time.Time      `yaml:"timestamp"`
	Metadata  map[string]any `yaml:"metadata,omitempty"`
}

// Context is the state of one call session. It is owned by the caller and
// must not be mutated concurrently; the orchestrator only reads it.
type Context struct {
	CallID         string            `yaml:"call_id"`
	UserID         string            `yaml:"user_id,omitempty"`
	StartedAt      time.Time         `yaml:"started_at"`
	CurrentIntent  *model.IntentType `yaml:"current_intent,omitempty"`
	Turns          []Turn            `yaml:"turns"`
	PatientContext map[string]any    `yaml:"patient_context,omitempty"`
	Metadata       map[string]any    `yaml:"metadata,omitempty"`
}

// New starts a session context. An empty callID is replaced with a random UUID.
func New(callID string) *Context {
	if callID == "" {
		callID = uuid.NewString()
	}
	return &Context{
		CallID:         callID,
		StartedAt:      time.Now().UTC(),
		PatientContext: make(map[string]any),
		Metadata:       make(map[string]any),
	}
}

func checkRole(role string) error {
	if role != model.RoleUser && role != model.RoleAssistant {
		return fmt.Errorf("role must be %s or %s, got %q", model.RoleUser, model.RoleAssistant, role)
	}
	return nil
}

// AddTurn appends a turn stamped with the current time. Roles other than
// user and assistant are rejected and leave the context unchanged.
func (c *Context) AddTurn(role, content string, metadata map[string]any) error {
	if err := checkRole(role); err != nil {
		return err
	}
	c.Turns = append(c.Turns, Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	})
	return nil
}

// RecentTurns returns a copy of the last min(n, len) turns in their original order.
// n <= 0 yields an empty slice.
func (c *Context) RecentTurns(n int) []Turn {
	if c == nil || n <= 0 || len(c.Turns) == 0 {
		return []Turn{}
	}
	start := len(c.Turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(c.Turns)-start)
	copy(out, c.Turns[start:])
	return out
}

// HasTurns reports whether any turn has been recorded.
func (c *Context) HasTurns() bool {
	return c != nil && len(c.Turns) > 0
}
