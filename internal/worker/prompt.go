package worker

import (
	"fmt"
	"strings"

	"github.com/mendtool/mend/internal/batch"
	"github.com/mendtool/mend/internal/ticket"
)

// BatchPrompt builds the agent prompt for a quality-fix batch. The file
// list is the isolation boundary: the agent is told to touch only the
// listed files so one batch never bleeds into another.
func BatchPrompt(b batch.Batch) string {
	var sb strings.Builder

	sb.WriteString("Fix code quality issues in the following files. ")
	sb.WriteString("Address lint violations, type errors, unused code, and obvious bugs. ")
	sb.WriteString("Preserve behavior; do not add features or rewrite working logic.\n\n")
	sb.WriteString("Files to fix:\n")
	for _, f := range b.Files {
		sb.WriteString("- ")
		sb.WriteString(f)
		sb.WriteString("\n")
	}
	sb.WriteString("\nOnly modify the files listed above. ")
	sb.WriteString("If a file has no issues, leave it untouched.\n")

	return sb.String()
}

// TicketPrompt builds the agent prompt for one implementation ticket.
func TicketPrompt(t *ticket.Ticket) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Implement ticket %s: %s\n\n", t.ID, t.Title)
	if t.Description != "" {
		sb.WriteString(t.Description)
		sb.WriteString("\n\n")
	}
	fmt.Fprintf(&sb, "Ticket type: %s. ", t.Type)
	sb.WriteString("Implement it completely, including any tests the change needs. ")
	sb.WriteString("Keep the change scoped to this ticket; earlier tickets in the plan are already done.\n")

	return sb.String()
}

// CommitMessage formats the conventional commit message for an accepted
// quality-fix unit.
func CommitMessage(unitName string) string {
	return fmt.Sprintf("fix(quality): %s - improvements", unitName)
}

// TicketCommitMessage formats the commit message for a completed ticket.
func TicketCommitMessage(t *ticket.Ticket) string {
	return fmt.Sprintf("feat(%s): %s %s", t.Type, t.ID, t.Title)
}
