package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/mendtool/mend/internal/batch"
	"github.com/mendtool/mend/internal/events"
	"github.com/mendtool/mend/internal/orchestrator"
	"github.com/mendtool/mend/internal/ticket"
)

// Styles contains the lipgloss styles for terminal output
type Styles struct {
	Accepted lipgloss.Style
	Skipped  lipgloss.Style
	Failed   lipgloss.Style
	Muted    lipgloss.Style
	Unit     lipgloss.Style
	Header   lipgloss.Style
}

// DefaultStyles returns the default output styles
func DefaultStyles() Styles {
	return Styles{
		Accepted: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Skipped:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Failed:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Unit:     lipgloss.NewStyle().Bold(true),
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
	}
}

// Status symbols
const (
	SymbolAccepted = "✓"
	SymbolSkipped  = "→"
	SymbolFailed   = "✗"
	SymbolWorking  = "●"
)

// ProgressHandler returns an event handler printing one line per
// pipeline milestone. Styling is applied only when w is a terminal.
func ProgressHandler(w io.Writer) events.Handler {
	styles := DefaultStyles()
	if f, ok := w.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		styles = Styles{}
	}

	return func(e events.Event) {
		switch e.Type {
		case events.UnitStarted, events.TicketStarted:
			fmt.Fprintf(w, "%s %s\n", styles.Muted.Render(SymbolWorking), styles.Unit.Render(e.Unit))
		case events.UnitAccepted:
			fmt.Fprintf(w, "%s %s accepted\n", styles.Accepted.Render(SymbolAccepted), e.Unit)
		case events.UnitSkipped:
			fmt.Fprintf(w, "%s %s skipped (validation failed)\n", styles.Skipped.Render(SymbolSkipped), e.Unit)
		case events.UnitFailed:
			fmt.Fprintf(w, "%s %s failed\n", styles.Failed.Render(SymbolFailed), e.Unit)
		case events.TicketDone:
			fmt.Fprintf(w, "%s %s done\n", styles.Accepted.Render(SymbolAccepted), e.Unit)
		case events.TicketError:
			fmt.Fprintf(w, "%s %s error\n", styles.Failed.Render(SymbolFailed), e.Unit)
		case events.BranchCreated:
			fmt.Fprintf(w, "%s\n", styles.Muted.Render(fmt.Sprintf("branch %v created", e.Payload)))
		case events.BranchPushed:
			fmt.Fprintf(w, "%s\n", styles.Muted.Render(fmt.Sprintf("branch %v pushed", e.Payload)))
		case events.PRCreated:
			if m, ok := e.Payload.(map[string]any); ok {
				fmt.Fprintf(w, "PR #%v opened: %v\n", m["number"], m["url"])
			}
		case events.ConfirmDeclined:
			fmt.Fprintf(w, "%s\n", styles.Muted.Render("halted before "+e.Unit))
		}
	}
}

// RenderSummary formats the end-of-run report. Printed on every exit
// path, including failures, so cost already incurred is always visible.
func RenderSummary(result *orchestrator.RunResult) string {
	var sb strings.Builder

	sb.WriteString("\nRun complete:\n")
	fmt.Fprintf(&sb, "  Accepted:  %d\n", result.Accepted())
	if n := result.Skipped(); n > 0 {
		fmt.Fprintf(&sb, "  Skipped:   %d\n", n)
	}
	if n := result.Failed(); n > 0 {
		fmt.Fprintf(&sb, "  Failed:    %d\n", n)
	}
	if n := result.Dropped(); n > 0 {
		fmt.Fprintf(&sb, "  No effect: %d\n", n)
	}
	fmt.Fprintf(&sb, "  Cost:      $%.2f (%d tokens)\n", result.TotalCostUSD, result.TotalTokens.Total())

	for _, u := range result.Units {
		switch u.Outcome {
		case orchestrator.OutcomeSkipped, orchestrator.OutcomeFailed:
			fmt.Fprintf(&sb, "\n  %s (%s):\n%s\n", u.Unit, u.Outcome, indent(firstLines(u.Detail, 10), "    "))
		case orchestrator.OutcomeReverted:
			fmt.Fprintf(&sb, "\n  %s: edits were reverted by validation autofix\n", u.Unit)
		}
	}

	if result.PR != nil {
		fmt.Fprintf(&sb, "\n  PR #%d: %s\n", result.PR.Number, result.PR.URL)
	}
	return sb.String()
}

// RenderPlan formats the dry-run batch plan.
func RenderPlan(batches []batch.Batch) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Plan: %d batches\n", len(batches))
	total := 0
	for _, b := range batches {
		fmt.Fprintf(&sb, "  %-32s %d files\n", b.Name, len(b.Files))
		total += len(b.Files)
	}
	fmt.Fprintf(&sb, "Total: %d files\n", total)
	return sb.String()
}

// RenderTicketStatus formats the tickets status table, phase-ordered.
func RenderTicketStatus(doc *ticket.Document) string {
	ordered := make([]*ticket.Ticket, len(doc.Tickets))
	copy(ordered, doc.Tickets)
	ticket.SortByPhase(ordered)

	var sb strings.Builder
	counts := map[ticket.Status]int{}

	for _, t := range ordered {
		counts[t.Status]++
		fmt.Fprintf(&sb, "  %-6s %-12s %-7s %s\n", statusSymbol(t.Status), t.ID, t.Status, t.Title)
		if t.Error != "" {
			fmt.Fprintf(&sb, "         %s\n", firstLines(t.Error, 1))
		}
	}

	fmt.Fprintf(&sb, "\n%d tickets: %d done, %d todo, %d error\n",
		len(ordered), counts[ticket.StatusDone], counts[ticket.StatusTodo], counts[ticket.StatusError])
	return sb.String()
}

func statusSymbol(s ticket.Status) string {
	switch s {
	case ticket.StatusDone:
		return SymbolAccepted
	case ticket.StatusError:
		return SymbolFailed
	default:
		return "·"
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// firstLines truncates diagnostics to keep the summary readable.
func firstLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[:n], "\n") + fmt.Sprintf("\n... (%d more lines)", len(lines)-n)
}
