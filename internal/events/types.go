package events

import (
	"fmt"
	"strings"
	"time"
)

// Event represents a single occurrence in the pipeline lifecycle
type Event struct {
	// Time is when the event occurred (set by bus on emit)
	Time time.Time `json:"time"`

	// Type identifies what happened
	Type EventType `json:"type"`

	// Unit is the batch or ticket this event relates to (empty for run-level events)
	Unit string `json:"unit,omitempty"`

	// Payload contains event-specific data (type varies by event)
	Payload any `json:"payload,omitempty"`

	// Error contains error message if this is a failure event
	Error string `json:"error,omitempty"`
}

// EventType is a string constant identifying the event category
type EventType string

// Run lifecycle events
const (
	RunStarted   EventType = "run.started"
	RunCompleted EventType = "run.completed"
	RunFailed    EventType = "run.failed"

	// Dry-run events (plan only, no agent invocation)
	RunDryRunStarted   EventType = "run.dryrun.started"
	RunDryRunCompleted EventType = "run.dryrun.completed"
)

// Unit lifecycle events (one unit = one batch or one ticket)
const (
	UnitStarted   EventType = "unit.started"
	UnitProcessed EventType = "unit.processed"
	UnitAccepted  EventType = "unit.accepted"
	UnitSkipped   EventType = "unit.skipped"
	UnitFailed    EventType = "unit.failed"
)

// Agent invocation events
const (
	AgentInvoked EventType = "agent.invoked"
	AgentDone    EventType = "agent.done"
)

// Validation gate events
const (
	ValidationStarted EventType = "validation.started"
	ValidationOK      EventType = "validation.ok"
	ValidationFail    EventType = "validation.fail"
)

// Git integration events
const (
	BranchCreated EventType = "git.branch.created"
	Committed     EventType = "git.committed"
	TreeReset     EventType = "git.tree.reset"
	BranchPushed  EventType = "git.branch.pushed"
	PRCreated     EventType = "pr.created"
)

// Ticket lifecycle events
const (
	TicketStarted      EventType = "ticket.started"
	TicketDone         EventType = "ticket.done"
	TicketError        EventType = "ticket.error"
	TicketsReset       EventType = "ticket.reset"
	TicketUnknownPhase EventType = "ticket.unknown_phase"
	ConfirmDeclined    EventType = "ticket.confirm.declined"
)

// NewEvent creates an event with the given type and unit
func NewEvent(eventType EventType, unit string) Event {
	return Event{
		Type: eventType,
		Unit: unit,
	}
}

// WithPayload returns a copy of the event with the payload set
func (e Event) WithPayload(payload any) Event {
	e.Payload = payload
	return e
}

// WithError returns a copy of the event with the error message set
func (e Event) WithError(err error) Event {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// IsFailure returns true if this is a failure event type
func (e Event) IsFailure() bool {
	return strings.HasSuffix(string(e.Type), ".failed") ||
		strings.HasSuffix(string(e.Type), ".fail") ||
		e.Type == TicketError
}

// String returns a human-readable representation of the event
func (e Event) String() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", e.Type))

	if e.Unit != "" {
		parts = append(parts, e.Unit)
	}
	if e.Error != "" {
		parts = append(parts, "error="+e.Error)
	}

	return strings.Join(parts, " ")
}
