// Package validate runs the accept/reject checks gating each unit's
// changes. Check failure is a value consumed by the orchestrator's skip
// policy, never a Go error.
package validate

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/mendtool/mend/internal/config"
	"github.com/mendtool/mend/internal/events"
)

// Result is the outcome of a validation run.
type Result struct {
	// OK is true when every check passed
	OK bool

	// Diagnostics holds combined output of failed checks
	Diagnostics string
}

// Check is a single validation capability. Implementations may mutate
// files (autofix) as part of running.
type Check interface {
	Name() string
	Run(ctx context.Context, dir string) Result
}

// CommandCheck executes a shell command; exit zero means pass.
type CommandCheck struct {
	name    string
	command string
}

// NewCommandCheck wraps a configured check command.
func NewCommandCheck(cc config.CheckCommand) CommandCheck {
	name := cc.Name
	if name == "" {
		name = cc.Command
	}
	return CommandCheck{name: name, command: cc.Command}
}

// Name returns the check's display name.
func (c CommandCheck) Name() string { return c.name }

// Run executes the command via sh -c with combined output.
func (c CommandCheck) Run(ctx context.Context, dir string) Result {
	cmd := exec.CommandContext(ctx, "sh", "-c", c.command)
	cmd.Dir = dir

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	return Result{
		OK:          err == nil,
		Diagnostics: output.String(),
	}
}

// DefaultSuiteTimeout bounds one whole suite run.
const DefaultSuiteTimeout = 10 * time.Minute

// Gate holds the narrow (per-unit) and comprehensive (boundary) suites.
type Gate struct {
	narrow        []Check
	comprehensive []Check
	dir           string
	timeout       time.Duration
	bus           *events.Bus
}

// NewGate builds a gate from config for the given working directory.
func NewGate(cfg config.ChecksConfig, dir string, bus *events.Bus) *Gate {
	g := &Gate{
		dir:     dir,
		timeout: DefaultSuiteTimeout,
		bus:     bus,
	}
	for _, cc := range cfg.Narrow {
		g.narrow = append(g.narrow, NewCommandCheck(cc))
	}
	for _, cc := range cfg.Comprehensive {
		g.comprehensive = append(g.comprehensive, NewCommandCheck(cc))
	}
	return g
}

// NewGateWithChecks builds a gate from explicit checks. Intended for tests
// and callers substituting alternate validators.
func NewGateWithChecks(narrow, comprehensive []Check, dir string, bus *events.Bus) *Gate {
	return &Gate{
		narrow:        narrow,
		comprehensive: comprehensive,
		dir:           dir,
		timeout:       DefaultSuiteTimeout,
		bus:           bus,
	}
}

// Narrow runs the per-unit suite.
func (g *Gate) Narrow(ctx context.Context) Result {
	return g.run(ctx, g.narrow)
}

// Comprehensive runs the boundary superset. An empty comprehensive suite
// falls back to the narrow one.
func (g *Gate) Comprehensive(ctx context.Context) Result {
	checks := g.comprehensive
	if len(checks) == 0 {
		checks = g.narrow
	}
	return g.run(ctx, checks)
}

// run executes all checks and collects failures. Empty suites pass.
func (g *Gate) run(ctx context.Context, checks []Check) Result {
	if len(checks) == 0 {
		return Result{OK: true}
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if g.bus != nil {
		g.bus.Emit(events.NewEvent(events.ValidationStarted, ""))
	}

	var failures []string
	allPassed := true

	for _, check := range checks {
		result := check.Run(timeoutCtx, g.dir)
		if !result.OK {
			allPassed = false
			failures = append(failures, "=== "+check.Name()+" ===\n"+result.Diagnostics)
		}
	}

	combined := strings.Join(failures, "\n\n")
	if g.bus != nil {
		if allPassed {
			g.bus.Emit(events.NewEvent(events.ValidationOK, ""))
		} else {
			g.bus.Emit(events.NewEvent(events.ValidationFail, "").WithPayload(combined))
		}
	}

	return Result{OK: allPassed, Diagnostics: combined}
}
