// Package ticket models the persisted units of work driving the
// build/ship workflows. The ticket file is the single source of truth;
// in-memory tickets are caches re-synced after any external mutation.
package ticket

import (
	"fmt"
	"strings"
)

// Type classifies what layer a ticket touches.
type Type string

const (
	TypeSchema   Type = "schema"
	TypeEngine   Type = "engine"
	TypeBackend  Type = "backend"
	TypeFrontend Type = "frontend"
	TypeTest     Type = "test"
)

// validTypes is the closed set accepted at load time.
var validTypes = map[Type]bool{
	TypeSchema:   true,
	TypeEngine:   true,
	TypeBackend:  true,
	TypeFrontend: true,
	TypeTest:     true,
}

// Status is the ticket lifecycle state.
type Status string

const (
	StatusTodo  Status = "Todo"
	StatusDone  Status = "Done"
	StatusError Status = "Error"
)

// Ticket is one persisted unit of work.
type Ticket struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Type            Type   `json:"type"`
	EstimatedEffort int    `json:"estimatedEffort"`
	Status          Status `json:"status"`
	Error           string `json:"error,omitempty"`
	Category        string `json:"category,omitempty"`
}

// Validate rejects schema violations with a descriptive error instead of
// silently coercing.
func (t *Ticket) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("ticket missing required id")
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("ticket %s: missing required title", t.ID)
	}
	if !validTypes[t.Type] {
		return fmt.Errorf("ticket %s: invalid type %q (must be one of schema, engine, backend, frontend, test)", t.ID, t.Type)
	}
	if t.EstimatedEffort < 1 || t.EstimatedEffort > 10 {
		return fmt.Errorf("ticket %s: estimatedEffort %d out of range 1..10", t.ID, t.EstimatedEffort)
	}
	switch t.Status {
	case StatusTodo, StatusDone, StatusError:
	case "":
		t.Status = StatusTodo
	default:
		return fmt.Errorf("ticket %s: invalid status %q", t.ID, t.Status)
	}
	return nil
}

// Processable reports whether a build run should pick this ticket up.
// Done tickets are never reprocessed (idempotent resume).
func (t *Ticket) Processable() bool {
	return t.Status == StatusTodo || t.Status == StatusError
}

// MarkDone transitions the ticket to Done and clears any prior error.
func (t *Ticket) MarkDone() {
	t.Status = StatusDone
	t.Error = ""
}

// MarkError transitions the ticket to Error with a human-readable message.
func (t *Ticket) MarkError(msg string) {
	t.Status = StatusError
	t.Error = msg
}

// Reset transitions the ticket back to Todo and clears the error field.
func (t *Ticket) Reset() {
	t.Status = StatusTodo
	t.Error = ""
}
