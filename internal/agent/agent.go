// Package agent invokes the external AI agent CLI and consumes its
// structured event stream. The orchestration core only sees the final
// aggregate result; intermediate events are a display concern.
package agent

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// TokenUsage holds token counts from one agent invocation.
type TokenUsage struct {
	Input         int `json:"input"`
	Output        int `json:"output"`
	CacheCreation int `json:"cacheCreation"`
	CacheRead     int `json:"cacheRead"`
}

// Add accumulates other into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.Input += other.Input
	u.Output += other.Output
	u.CacheCreation += other.CacheCreation
	u.CacheRead += other.CacheRead
}

// Total returns the sum of all token counts.
func (u TokenUsage) Total() int {
	return u.Input + u.Output + u.CacheCreation + u.CacheRead
}

// Request describes one isolated transformation.
type Request struct {
	// Prompt is the natural-language task description
	Prompt string

	// Dir is the working directory the agent operates in
	Dir string

	// MaxTurns bounds the agent's interaction loop (0 = unlimited)
	MaxTurns int
}

// Result is the final aggregate record of one invocation.
type Result struct {
	// Success is false when the agent reported an error outcome
	Success bool

	// Output is the agent's final text response
	Output string

	// Turns is the number of interaction turns consumed
	Turns int

	// Usage holds token counts for the whole invocation
	Usage TokenUsage

	// CostUSD is the total cost reported by the agent
	CostUSD float64
}

// Invoker runs one isolated transformation.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (*Result, error)
}

// CLI invokes the agent binary with stream-json output.
type CLI struct {
	command string
}

// NewCLI creates an invoker for the given agent binary.
// If command is empty, defaults to "claude".
func NewCLI(command string) *CLI {
	if command == "" {
		command = "claude"
	}
	return &CLI{command: command}
}

// Invoke executes the agent CLI and parses its event stream.
// Agent-reported failures come back as Result{Success: false}, not as a
// Go error; errors are reserved for infrastructure failures (binary
// missing, stream unparseable, context cancelled).
func (c *CLI) Invoke(ctx context.Context, req Request) (*Result, error) {
	args := []string{
		"--dangerously-skip-permissions",
		"--output-format", "stream-json",
		"--verbose",
	}
	if req.MaxTurns > 0 {
		args = append(args, "--max-turns", strconv.Itoa(req.MaxTurns))
	}
	args = append(args, "-p", req.Prompt)

	cmd := exec.CommandContext(ctx, c.command, args...)
	cmd.Dir = req.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("agent stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting agent %s: %w", c.command, err)
	}

	result, parseErr := ParseStream(stdout)
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if parseErr != nil {
		if waitErr != nil {
			return nil, fmt.Errorf("agent failed: %w\nstderr: %s", waitErr, stderr.String())
		}
		return nil, fmt.Errorf("parsing agent stream: %w", parseErr)
	}
	// A nonzero exit with a well-formed result record means the agent ran
	// to completion and reported failure; the result is authoritative.
	if waitErr != nil && result.Success {
		return nil, fmt.Errorf("agent exited with error after reporting success: %w\nstderr: %s",
			waitErr, stderr.String())
	}

	return result, nil
}
