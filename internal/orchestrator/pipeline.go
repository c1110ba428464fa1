package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/mendtool/mend/internal/batch"
	"github.com/mendtool/mend/internal/events"
	"github.com/mendtool/mend/internal/git"
	"github.com/mendtool/mend/internal/github"
	"github.com/mendtool/mend/internal/worker"
)

// PipelineOptions selects the integration mode for a fix run.
type PipelineOptions struct {
	// PRMode enables batched-PR integration: one working branch, one
	// commit per accepted unit, one pull request at the end. When false
	// the run is local-only: accepted changes stay uncommitted.
	PRMode bool

	// DryRun reports the plan without invoking the agent or touching git
	DryRun bool

	// BaseBranch is the branch the work branch forks from.
	// Empty means the branch current at invocation time.
	BaseBranch string

	// BranchName overrides the generated work branch name. Tests use it;
	// production runs leave it empty.
	BranchName string
}

// Pipeline is the sequential fold over batches for a quality-fix run.
type Pipeline struct {
	proc UnitProcessor
	gate Validator
	git  Git
	pr   PRCreator
	bus  *events.Bus
	opts PipelineOptions
}

// NewPipeline wires a pipeline. pr may be nil outside PR mode.
func NewPipeline(proc UnitProcessor, gate Validator, g Git, pr PRCreator, bus *events.Bus, opts PipelineOptions) *Pipeline {
	return &Pipeline{proc: proc, gate: gate, git: g, pr: pr, bus: bus, opts: opts}
}

func (p *Pipeline) emit(e events.Event) {
	if p.bus != nil {
		p.bus.Emit(e)
	}
}

// Run processes batches in builder order, never reordered: later units
// may rely on earlier units' committed state.
//
// Per unit: Pending -> Processing -> Validating -> {Accepted | Skipped}.
// A single unit's validation failure is not fatal; the pipeline aborts
// only on infrastructure failures. In PR mode a run with zero accepted
// units returns git.ErrNoChanges and never calls the PR collaborator.
func (p *Pipeline) Run(ctx context.Context, batches []batch.Batch) (*RunResult, error) {
	if p.opts.DryRun {
		return p.plan(batches), nil
	}

	result := &RunResult{}
	p.emit(events.NewEvent(events.RunStarted, "").WithPayload(len(batches)))

	if p.opts.PRMode {
		if err := p.openWorkBranch(ctx, result); err != nil {
			return result, err
		}
	}

	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		report, err := p.runUnit(ctx, b)
		if err != nil {
			return result, err
		}
		result.record(report)
	}

	if p.opts.PRMode {
		if err := p.finalize(ctx, result); err != nil {
			return result, err
		}
	}

	p.emit(events.NewEvent(events.RunCompleted, "").WithPayload(map[string]any{
		"accepted": result.Accepted(),
		"skipped":  result.Skipped(),
		"cost_usd": result.TotalCostUSD,
	}))
	return result, nil
}

// runUnit executes one batch through the per-unit state machine.
// The returned error is reserved for infrastructure failures; unit-level
// failures land in the report.
func (p *Pipeline) runUnit(ctx context.Context, b batch.Batch) (UnitReport, error) {
	report := UnitReport{Unit: b.Name}
	p.emit(events.NewEvent(events.UnitStarted, b.Name).WithPayload(len(b.Files)))

	baseline, err := changedSet(ctx, p.git)
	if err != nil {
		return report, err
	}

	res := p.proc.Process(ctx, b.Name, worker.BatchPrompt(b))
	report.Usage = res.Usage
	report.CostUSD = res.CostUSD

	if !res.Success {
		report.Outcome = OutcomeFailed
		report.Detail = res.Err
		p.emit(events.NewEvent(events.UnitFailed, b.Name).WithPayload(res.Err))
		return report, p.cleanSlate(ctx)
	}

	afterAgent, err := p.git.ChangedFiles(ctx)
	if err != nil {
		return report, err
	}
	report.ChangesMade = newSince(baseline, afterAgent)

	// Validation always runs, even when the unit claims no changes:
	// an earlier unit may have left the tree in a bad state.
	vres := p.gate.Narrow(ctx)
	if !vres.OK {
		report.Outcome = OutcomeSkipped
		report.Detail = vres.Diagnostics
		p.emit(events.NewEvent(events.UnitSkipped, b.Name).WithPayload(vres.Diagnostics))
		return report, p.cleanSlate(ctx)
	}

	afterValidation, err := p.git.ChangedFiles(ctx)
	if err != nil {
		return report, err
	}
	report.ChangesKept = newSince(baseline, afterValidation)

	if report.ChangesKept == 0 {
		// Dropped without a commit; an empty commit is never made.
		if report.ChangesMade == 0 {
			report.Outcome = OutcomeNoEdits
		} else {
			report.Outcome = OutcomeReverted
		}
		p.emit(events.NewEvent(events.UnitProcessed, b.Name).WithPayload(string(report.Outcome)))
		return report, nil
	}

	if p.opts.PRMode {
		if err := p.git.CommitAll(ctx, worker.CommitMessage(b.Name)); err != nil {
			return report, fmt.Errorf("committing unit %s: %w", b.Name, err)
		}
		p.emit(events.NewEvent(events.Committed, b.Name))
	}

	report.Outcome = OutcomeAccepted
	p.emit(events.NewEvent(events.UnitAccepted, b.Name).WithPayload(report.ChangesKept))
	return report, nil
}

// cleanSlate discards the working tree after a failed or skipped unit so
// nothing leaks into the next one. Local-only runs keep the tree as-is:
// earlier accepted units live there uncommitted, and a reset would
// destroy them.
func (p *Pipeline) cleanSlate(ctx context.Context) error {
	if !p.opts.PRMode {
		return nil
	}
	if err := p.git.DiscardChanges(ctx); err != nil {
		return fmt.Errorf("resetting working tree: %w", err)
	}
	p.emit(events.NewEvent(events.TreeReset, ""))
	return nil
}

func (p *Pipeline) openWorkBranch(ctx context.Context, result *RunResult) error {
	base := p.opts.BaseBranch
	if base == "" {
		current, err := p.git.CurrentBranch(ctx)
		if err != nil {
			return err
		}
		base = current
	}

	branch := p.opts.BranchName
	if branch == "" {
		branch = git.WorkBranchName("quality")
	}

	if err := p.git.CreateBranch(ctx, branch, base); err != nil {
		return err
	}

	result.Branch = branch
	result.BaseBranch = base
	p.emit(events.NewEvent(events.BranchCreated, "").WithPayload(branch))
	return nil
}

// finalize pushes the work branch and opens exactly one pull request.
// Zero accepted units is the distinguished no-changes condition; the PR
// collaborator is never called for an empty run. Push and PR errors
// propagate untouched: the local branch and commits stay intact as the
// recovery path.
func (p *Pipeline) finalize(ctx context.Context, result *RunResult) error {
	if result.Accepted() == 0 {
		p.emit(events.NewEvent(events.RunFailed, "").WithError(git.ErrNoChanges))
		return git.ErrNoChanges
	}

	// Boundary check: the comprehensive suite runs once over the final
	// tree before anything is published.
	if vres := p.gate.Comprehensive(ctx); !vres.OK {
		return fmt.Errorf("final validation failed:\n%s", vres.Diagnostics)
	}

	if err := p.git.Push(ctx, result.Branch); err != nil {
		return err
	}
	p.emit(events.NewEvent(events.BranchPushed, "").WithPayload(result.Branch))

	pr, err := p.pr.CreatePR(ctx, github.PRRequest{
		Title: fmt.Sprintf("fix(quality): automated improvements (%d units)", result.Accepted()),
		Body:  prBody(result),
		Head:  result.Branch,
		Base:  result.BaseBranch,
	})
	if err != nil {
		return err
	}
	result.PR = pr
	return nil
}

// plan reports what a run would do, with no side effects.
func (p *Pipeline) plan(batches []batch.Batch) *RunResult {
	p.emit(events.NewEvent(events.RunDryRunStarted, "").WithPayload(len(batches)))

	result := &RunResult{}
	for _, b := range batches {
		result.Units = append(result.Units, UnitReport{
			Unit:        b.Name,
			Outcome:     OutcomePlanned,
			ChangesMade: len(b.Files),
		})
	}

	p.emit(events.NewEvent(events.RunDryRunCompleted, ""))
	return result
}

// prBody summarizes all accepted units for the pull request description.
func prBody(result *RunResult) string {
	var sb strings.Builder

	sb.WriteString("Automated code quality improvements.\n\n## Accepted units\n\n")
	for _, u := range result.Units {
		if u.Outcome != OutcomeAccepted {
			continue
		}
		fmt.Fprintf(&sb, "- %s (%d files changed)\n", u.Unit, u.ChangesKept)
	}

	if n := result.Skipped() + result.Failed(); n > 0 {
		fmt.Fprintf(&sb, "\n%d unit(s) were skipped after failing validation; their changes were discarded.\n", n)
	}

	fmt.Fprintf(&sb, "\nTotal cost: $%.2f (%d tokens)\n", result.TotalCostUSD, result.TotalTokens.Total())
	return sb.String()
}
