// Package worker runs one isolated transformation per unit: it builds the
// unit-scoped prompt, invokes the agent bounded by a turn budget, and
// measures what actually changed on disk.
package worker

import (
	"context"

	"github.com/mendtool/mend/internal/agent"
	"github.com/mendtool/mend/internal/events"
)

// TreeStatus reports uncommitted working-tree changes. *git.Session
// satisfies it; tests substitute a stub.
type TreeStatus interface {
	ChangedFiles(ctx context.Context) ([]string, error)
}

// Result is the authoritative record of one processing attempt.
type Result struct {
	// Unit is the batch or ticket display name
	Unit string

	// Success is false when the agent failed or reported an error outcome
	Success bool

	// FilesChanged counts working-tree files modified by the agent,
	// measured immediately after the invocation (before validation
	// autofix could revert anything)
	FilesChanged int

	// Usage holds token counts for the invocation
	Usage agent.TokenUsage

	// CostUSD is the invocation cost
	CostUSD float64

	// Err holds the failure message when Success is false
	Err string
}

// Config bounds a processor.
type Config struct {
	// Dir is the working directory units are processed in
	Dir string

	// MaxTurns bounds each agent invocation (0 = unlimited)
	MaxTurns int
}

// Deps bundles external dependencies for injection.
type Deps struct {
	Agent agent.Invoker
	Tree  TreeStatus
	Bus   *events.Bus
}

// Processor processes units one at a time. Isolation is a correctness
// requirement: each invocation is scoped to its own unit's files and
// never observes another unit's partial state, because the orchestrator
// runs strictly sequentially against a single working tree.
type Processor struct {
	cfg  Config
	deps Deps
}

// NewProcessor creates a processor with the given configuration.
func NewProcessor(cfg Config, deps Deps) *Processor {
	return &Processor{cfg: cfg, deps: deps}
}

// Process runs one isolated transformation. Agent failures come back as
// a failed Result, not a Go error; the orchestrator decides whether a
// failure is fatal for the run.
func (p *Processor) Process(ctx context.Context, unitName, prompt string) Result {
	result := Result{Unit: unitName}

	if p.deps.Bus != nil {
		p.deps.Bus.Emit(events.NewEvent(events.AgentInvoked, unitName))
	}

	agentResult, err := p.deps.Agent.Invoke(ctx, agent.Request{
		Prompt:   prompt,
		Dir:      p.cfg.Dir,
		MaxTurns: p.cfg.MaxTurns,
	})
	if err != nil {
		result.Err = err.Error()
		p.emitDone(result)
		return result
	}

	result.Usage = agentResult.Usage
	result.CostUSD = agentResult.CostUSD

	if !agentResult.Success {
		result.Err = "agent reported failure: " + agentResult.Output
		p.emitDone(result)
		return result
	}

	changed, err := p.deps.Tree.ChangedFiles(ctx)
	if err != nil {
		result.Err = "measuring changes: " + err.Error()
		p.emitDone(result)
		return result
	}

	result.Success = true
	result.FilesChanged = len(changed)
	p.emitDone(result)
	return result
}

func (p *Processor) emitDone(r Result) {
	if p.deps.Bus == nil {
		return
	}
	e := events.NewEvent(events.AgentDone, r.Unit).WithPayload(map[string]any{
		"files_changed": r.FilesChanged,
		"cost_usd":      r.CostUSD,
		"tokens":        r.Usage.Total(),
	})
	if r.Err != "" {
		e.Error = r.Err
	}
	p.deps.Bus.Emit(e)
}
