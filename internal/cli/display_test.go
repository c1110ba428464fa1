package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mendtool/mend/internal/agent"
	"github.com/mendtool/mend/internal/batch"
	"github.com/mendtool/mend/internal/events"
	"github.com/mendtool/mend/internal/github"
	"github.com/mendtool/mend/internal/orchestrator"
	"github.com/mendtool/mend/internal/ticket"
)

func TestRenderSummaryCounts(t *testing.T) {
	result := &orchestrator.RunResult{
		Units: []orchestrator.UnitReport{
			{Unit: "app/auth", Outcome: orchestrator.OutcomeAccepted, ChangesKept: 2},
			{Unit: "lib", Outcome: orchestrator.OutcomeSkipped, Detail: "lint: 4 errors"},
			{Unit: "components", Outcome: orchestrator.OutcomeReverted, ChangesMade: 1},
		},
		TotalCostUSD: 1.25,
		TotalTokens:  agent.TokenUsage{Input: 900, Output: 100},
	}

	out := RenderSummary(result)
	assert.Contains(t, out, "Accepted:  1")
	assert.Contains(t, out, "Skipped:   1")
	assert.Contains(t, out, "No effect: 1")
	assert.Contains(t, out, "$1.25 (1000 tokens)")
	assert.Contains(t, out, "lint: 4 errors")
	assert.Contains(t, out, "reverted by validation autofix")
	assert.NotContains(t, out, "Failed:")
}

func TestRenderSummaryIncludesPR(t *testing.T) {
	result := &orchestrator.RunResult{
		Units: []orchestrator.UnitReport{
			{Unit: "lib", Outcome: orchestrator.OutcomeAccepted, ChangesKept: 1},
		},
		PR: &github.PRInfo{Number: 42, URL: "https://example.test/pr/42"},
	}

	out := RenderSummary(result)
	assert.Contains(t, out, "PR #42: https://example.test/pr/42")
}

func TestRenderSummaryTruncatesLongDiagnostics(t *testing.T) {
	detail := strings.Repeat("error line\n", 30)
	result := &orchestrator.RunResult{
		Units: []orchestrator.UnitReport{
			{Unit: "lib", Outcome: orchestrator.OutcomeSkipped, Detail: detail},
		},
	}

	out := RenderSummary(result)
	assert.Contains(t, out, "(20 more lines)")
}

func TestRenderPlan(t *testing.T) {
	out := RenderPlan([]batch.Batch{
		{Name: "app/auth", Files: []string{"a.ts", "b.ts"}},
		{Name: "lib (1/2)", Files: []string{"c.ts"}},
	})

	assert.Contains(t, out, "Plan: 2 batches")
	assert.Contains(t, out, "app/auth")
	assert.Contains(t, out, "lib (1/2)")
	assert.Contains(t, out, "Total: 3 files")
}

func TestRenderTicketStatus(t *testing.T) {
	doc := &ticket.Document{Tickets: []*ticket.Ticket{
		{ID: "FE-001", Title: "Login form", Status: ticket.StatusTodo},
		{ID: "SCHEMA-001", Title: "User table", Status: ticket.StatusDone},
		{ID: "BE-001", Title: "Endpoint", Status: ticket.StatusError, Error: "typecheck failed"},
	}}

	out := RenderTicketStatus(doc)

	// Phase-ordered: schema before backend before frontend.
	schemaIdx := strings.Index(out, "SCHEMA-001")
	beIdx := strings.Index(out, "BE-001")
	feIdx := strings.Index(out, "FE-001")
	assert.Less(t, schemaIdx, beIdx)
	assert.Less(t, beIdx, feIdx)

	assert.Contains(t, out, "typecheck failed")
	assert.Contains(t, out, "3 tickets: 1 done, 1 todo, 1 error")
}

func TestProgressHandlerLines(t *testing.T) {
	var out bytes.Buffer
	h := ProgressHandler(&out)

	h(events.NewEvent(events.UnitStarted, "app/auth"))
	h(events.NewEvent(events.UnitAccepted, "app/auth"))
	h(events.NewEvent(events.UnitSkipped, "lib"))
	h(events.NewEvent(events.TicketError, "BE-001"))

	s := out.String()
	assert.Contains(t, s, "app/auth accepted")
	assert.Contains(t, s, "lib skipped (validation failed)")
	assert.Contains(t, s, "BE-001 error")
	// Non-terminal writer gets no ANSI escapes.
	assert.NotContains(t, s, "\x1b[")
}
