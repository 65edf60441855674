package conversation

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a session context from a YAML fixture. Missing call IDs and
// timestamps are filled in the same way New and AddTurn would.
func LoadFile(path string) (*Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read conversation: %w", err)
	}

	var loaded Context
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse conversation: %w", err)
	}

	c := New(loaded.CallID)
	c.UserID = loaded.UserID
	c.CurrentIntent = loaded.CurrentIntent
	if !loaded.StartedAt.IsZero() {
		c.StartedAt = loaded.StartedAt
	}
	if loaded.PatientContext != nil {
		c.PatientContext = loaded.PatientContext
	}
	if loaded.Metadata != nil {
		c.Metadata = loaded.Metadata
	}

	now := time.Now().UTC()
	for i, t := range loaded.Turns {
		if err := checkRole(t.Role); err != nil {
			return nil, fmt.Errorf("turn %d: %w", i, err)
		}
		if t.Timestamp.IsZero() {
			t.Timestamp = now
		}
		c.Turns = append(c.Turns, t)
	}
	return c, nil
}
