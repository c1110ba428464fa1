package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/mendtool/mend/internal/events"
	"github.com/mendtool/mend/internal/git"
	"github.com/mendtool/mend/internal/ticket"
	"github.com/mendtool/mend/internal/worker"
)

// Confirmer is the cooperative scheduling point between tickets in
// confirm mode. Declining halts the run; it never marks the pending
// ticket Error.
type Confirmer interface {
	Confirm(ctx context.Context, t *ticket.Ticket) (bool, error)
}

// TicketOptions selects build-run behavior.
type TicketOptions struct {
	// Reset transitions every ticket to Todo before the run starts
	Reset bool

	// NoCommit disables the per-ticket commit
	NoCommit bool
}

// TicketRunner drives the build and ship workflows over the persisted
// ticket file. The file is the single source of truth: it is persisted
// after every status transition, so a crash never silently loses a
// transition that already happened.
type TicketRunner struct {
	store   *ticket.Store
	proc    UnitProcessor
	gate    Validator
	git     Git
	bus     *events.Bus
	confirm Confirmer
	opts    TicketOptions
}

// NewTicketRunner wires a runner. confirm may be nil (no pause between
// tickets).
func NewTicketRunner(store *ticket.Store, proc UnitProcessor, gate Validator, g Git, bus *events.Bus, confirm Confirmer, opts TicketOptions) *TicketRunner {
	return &TicketRunner{
		store:   store,
		proc:    proc,
		gate:    gate,
		git:     g,
		bus:     bus,
		confirm: confirm,
		opts:    opts,
	}
}

func (r *TicketRunner) emit(e events.Event) {
	if r.bus != nil {
		r.bus.Emit(e)
	}
}

// Build processes every Todo or Error ticket in phase order. Done
// tickets are never reprocessed, so an interrupted run resumes where it
// left off. A ticket's failure is recorded and persisted immediately,
// then the run continues to the next ticket.
func (r *TicketRunner) Build(ctx context.Context) (*RunResult, error) {
	var doc *ticket.Document
	var err error

	if r.opts.Reset {
		doc, err = r.store.ResetAll()
		if err != nil {
			return nil, err
		}
		r.emit(events.NewEvent(events.TicketsReset, "").WithPayload(len(doc.Tickets)))
	} else {
		doc, err = r.store.Load()
		if err != nil {
			return nil, err
		}
	}

	ordered := make([]*ticket.Ticket, len(doc.Tickets))
	copy(ordered, doc.Tickets)
	ticket.SortByPhase(ordered)

	if unknown := ticket.UnknownPhase(ordered); len(unknown) > 0 {
		// Unknown prefixes are a deliberate catch-all, processed last
		// rather than rejected. Surface them so a typo'd prefix is
		// noticed instead of quietly reordered.
		r.emit(events.NewEvent(events.TicketUnknownPhase, "").WithPayload(unknown))
	}

	result := &RunResult{}
	started := false

	for _, t := range ordered {
		if !t.Processable() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if started && r.confirm != nil {
			ok, err := r.confirm.Confirm(ctx, t)
			if err != nil {
				return result, err
			}
			if !ok {
				r.emit(events.NewEvent(events.ConfirmDeclined, t.ID))
				break
			}
		}
		started = true

		report, infraErr := r.runTicket(ctx, doc, t)
		if infraErr != nil {
			return result, infraErr
		}
		result.record(report)
	}

	return result, nil
}

// Ship processes exactly one ticket. Unlike Build, a processing failure
// re-raises after being persisted, halting the command.
func (r *TicketRunner) Ship(ctx context.Context, ticketID string) (*RunResult, error) {
	doc, err := r.store.Load()
	if err != nil {
		return nil, err
	}

	t := doc.Find(ticketID)
	if t == nil {
		return nil, fmt.Errorf("ticket %s not found in %s", ticketID, r.store.Path())
	}
	if t.Status == ticket.StatusDone {
		return nil, fmt.Errorf("ticket %s is already Done; reset it first to re-run", ticketID)
	}

	result := &RunResult{}
	report, infraErr := r.runTicket(ctx, doc, t)
	if infraErr != nil {
		return result, infraErr
	}
	result.record(report)

	// The exit status must agree with what was persisted: any outcome
	// that marked the ticket Done (including edits an autofixing check
	// reverted) is a success here.
	if report.Outcome == OutcomeFailed {
		return result, fmt.Errorf("ticket %s failed: %s", ticketID, report.Detail)
	}
	return result, nil
}

// runTicket executes one ticket through process/validate/commit and
// persists the resulting status transition before returning. The error
// return is reserved for infrastructure failures (git or persistence);
// ticket-level failures land in the report with status Error.
func (r *TicketRunner) runTicket(ctx context.Context, doc *ticket.Document, t *ticket.Ticket) (UnitReport, error) {
	report := UnitReport{Unit: t.ID}
	r.emit(events.NewEvent(events.TicketStarted, t.ID).WithPayload(t.Title))

	baseline, err := changedSet(ctx, r.git)
	if err != nil {
		return report, err
	}

	res := r.proc.Process(ctx, t.ID, worker.TicketPrompt(t))
	report.Usage = res.Usage
	report.CostUSD = res.CostUSD

	if !res.Success {
		if err := r.discardAttempt(ctx, t.ID); err != nil {
			return report, err
		}
		return report, r.recordFailure(doc, t, &report, res.Err)
	}

	afterAgent, err := r.git.ChangedFiles(ctx)
	if err != nil {
		return report, err
	}
	report.ChangesMade = newSince(baseline, afterAgent)

	vres := r.gate.Narrow(ctx)
	if !vres.OK {
		if err := r.discardAttempt(ctx, t.ID); err != nil {
			return report, err
		}
		return report, r.recordFailure(doc, t, &report, "validation failed:\n"+vres.Diagnostics)
	}

	afterValidation, err := r.git.ChangedFiles(ctx)
	if err != nil {
		return report, err
	}
	report.ChangesKept = newSince(baseline, afterValidation)

	if !r.opts.NoCommit && report.ChangesKept > 0 {
		err := r.git.CommitAll(ctx, worker.TicketCommitMessage(t))
		if err != nil && !errors.Is(err, git.ErrNoChanges) {
			return report, fmt.Errorf("committing ticket %s: %w", t.ID, err)
		}
		if err == nil {
			r.emit(events.NewEvent(events.Committed, t.ID))
		}
	}

	if report.ChangesKept == 0 {
		if report.ChangesMade == 0 {
			report.Outcome = OutcomeNoEdits
		} else {
			report.Outcome = OutcomeReverted
		}
	} else {
		report.Outcome = OutcomeAccepted
	}

	// A ticket that validates cleanly is Done even when it needed no
	// edits; the plan may contain work the codebase already has.
	t.MarkDone()
	if err := r.store.Save(doc); err != nil {
		return report, fmt.Errorf("persisting ticket %s: %w", t.ID, err)
	}
	r.emit(events.NewEvent(events.TicketDone, t.ID))
	return report, nil
}

// discardAttempt resets the tree after a failed ticket. It is skipped in
// no-commit mode, where earlier tickets' changes sit uncommitted in the
// same tree and a reset would destroy them.
func (r *TicketRunner) discardAttempt(ctx context.Context, unit string) error {
	if r.opts.NoCommit {
		return nil
	}
	if err := r.git.DiscardChanges(ctx); err != nil {
		return fmt.Errorf("resetting working tree: %w", err)
	}
	r.emit(events.NewEvent(events.TreeReset, unit))
	return nil
}

// recordFailure marks the ticket Error and persists immediately, so a
// crash right after still finds the failure recorded.
func (r *TicketRunner) recordFailure(doc *ticket.Document, t *ticket.Ticket, report *UnitReport, msg string) error {
	report.Outcome = OutcomeFailed
	report.Detail = msg

	t.MarkError(msg)
	if err := r.store.Save(doc); err != nil {
		return fmt.Errorf("persisting ticket %s: %w", t.ID, err)
	}
	r.emit(events.NewEvent(events.TicketError, t.ID).WithPayload(msg))
	return nil
}
