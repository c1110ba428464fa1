// Package orchestrator drives the pipeline: units are processed strictly
// sequentially, validated, and accepted or skipped one at a time. The
// working tree is singleton mutable state; only one unit is ever in
// flight against it.
package orchestrator

import (
	"context"

	"github.com/mendtool/mend/internal/agent"
	"github.com/mendtool/mend/internal/github"
	"github.com/mendtool/mend/internal/validate"
	"github.com/mendtool/mend/internal/worker"
)

// UnitProcessor runs one isolated transformation. *worker.Processor
// satisfies it.
type UnitProcessor interface {
	Process(ctx context.Context, unitName, prompt string) worker.Result
}

// Validator is the accept/reject gate. *validate.Gate satisfies it.
type Validator interface {
	Narrow(ctx context.Context) validate.Result
	Comprehensive(ctx context.Context) validate.Result
}

// Git is the subset of git primitives the pipeline integrates through.
// *git.Session satisfies it.
type Git interface {
	CurrentBranch(ctx context.Context) (string, error)
	CreateBranch(ctx context.Context, branchName, fromBranch string) error
	CommitAll(ctx context.Context, message string) error
	DiscardChanges(ctx context.Context) error
	ChangedFiles(ctx context.Context) ([]string, error)
	Push(ctx context.Context, branchName string) error
}

// PRCreator opens the single pull request packaging a run's commits.
// *github.PRClient satisfies it.
type PRCreator interface {
	CreatePR(ctx context.Context, req github.PRRequest) (*github.PRInfo, error)
}

// Outcome is a unit's terminal state.
type Outcome string

const (
	// OutcomeAccepted means validation passed and changes survived
	OutcomeAccepted Outcome = "accepted"

	// OutcomeSkipped means validation failed; the unit's changes were
	// discarded and the pipeline moved on
	OutcomeSkipped Outcome = "skipped"

	// OutcomeNoEdits means the agent succeeded but edited nothing;
	// dropped without a commit, not an error
	OutcomeNoEdits Outcome = "no_edits"

	// OutcomeReverted means the agent edited files but validation's
	// autofix reverted every edit. Distinguished from OutcomeNoEdits so
	// the report never conflates the two.
	OutcomeReverted Outcome = "reverted"

	// OutcomeFailed means the transformation itself failed
	OutcomeFailed Outcome = "failed"

	// OutcomePlanned is used in dry runs only
	OutcomePlanned Outcome = "planned"
)

// UnitReport is the authoritative record of one unit's last attempt.
type UnitReport struct {
	// Unit is the batch or ticket display name
	Unit string

	// Outcome is the unit's terminal state
	Outcome Outcome

	// ChangesMade counts files the agent changed, measured before
	// validation could autofix-revert anything
	ChangesMade int

	// ChangesKept counts files still changed after validation
	ChangesKept int

	// Usage and CostUSD are accumulated even for failed units; a failed
	// invocation still cost money
	Usage   agent.TokenUsage
	CostUSD float64

	// Detail holds the failure message or validation diagnostics
	Detail string
}

// RunResult aggregates one pipeline invocation. It is ephemeral and
// derived; the ticket file is the durable record where one exists.
type RunResult struct {
	Units []UnitReport

	// Branch and BaseBranch are set in PR mode
	Branch     string
	BaseBranch string

	// PR is set when a pull request was opened
	PR *github.PRInfo

	TotalTokens  agent.TokenUsage
	TotalCostUSD float64
}

// Accepted counts units whose changes were kept.
func (r *RunResult) Accepted() int { return r.count(OutcomeAccepted) }

// Skipped counts units rejected by validation.
func (r *RunResult) Skipped() int { return r.count(OutcomeSkipped) }

// Failed counts units whose transformation failed outright.
func (r *RunResult) Failed() int { return r.count(OutcomeFailed) }

// Dropped counts units that produced no surviving changes.
func (r *RunResult) Dropped() int {
	return r.count(OutcomeNoEdits) + r.count(OutcomeReverted)
}

func (r *RunResult) count(o Outcome) int {
	n := 0
	for _, u := range r.Units {
		if u.Outcome == o {
			n++
		}
	}
	return n
}

func (r *RunResult) record(u UnitReport) {
	r.Units = append(r.Units, u)
	r.TotalTokens.Add(u.Usage)
	r.TotalCostUSD += u.CostUSD
}

// changedSet snapshots the working tree's changed files as a set.
func changedSet(ctx context.Context, g Git) (map[string]bool, error) {
	files, err := g.ChangedFiles(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(files))
	for _, f := range files {
		set[f] = true
	}
	return set, nil
}

// newSince counts files changed now that were not in the baseline.
// Measuring against a per-unit baseline keeps counts correct in
// local-only mode, where earlier units' uncommitted changes accumulate.
func newSince(baseline map[string]bool, now []string) int {
	n := 0
	for _, f := range now {
		if !baseline[f] {
			n++
		}
	}
	return n
}
