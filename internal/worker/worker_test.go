package worker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mendtool/mend/internal/agent"
	"github.com/mendtool/mend/internal/batch"
	"github.com/mendtool/mend/internal/ticket"
)

type stubInvoker struct {
	result *agent.Result
	err    error

	gotReq agent.Request
}

func (s *stubInvoker) Invoke(_ context.Context, req agent.Request) (*agent.Result, error) {
	s.gotReq = req
	return s.result, s.err
}

type stubTree struct {
	files []string
	err   error
}

func (s *stubTree) ChangedFiles(context.Context) ([]string, error) {
	return s.files, s.err
}

func TestProcessSuccess(t *testing.T) {
	inv := &stubInvoker{result: &agent.Result{
		Success: true,
		Usage:   agent.TokenUsage{Input: 100, Output: 50},
		CostUSD: 0.42,
	}}
	tree := &stubTree{files: []string{"a.ts", "b.ts"}}

	p := NewProcessor(
		Config{Dir: "/repo", MaxTurns: 30},
		Deps{Agent: inv, Tree: tree},
	)
	res := p.Process(context.Background(), "components", "fix stuff")

	assert.True(t, res.Success)
	assert.Equal(t, "components", res.Unit)
	assert.Equal(t, 2, res.FilesChanged)
	assert.Equal(t, 0.42, res.CostUSD)
	assert.Equal(t, 150, res.Usage.Total())

	// Invocation must carry the processor's working directory and bound.
	assert.Equal(t, "/repo", inv.gotReq.Dir)
	assert.Equal(t, 30, inv.gotReq.MaxTurns)
	assert.Equal(t, "fix stuff", inv.gotReq.Prompt)
}

func TestProcessAgentInfrastructureFailure(t *testing.T) {
	inv := &stubInvoker{err: errors.New("claude: executable not found")}

	p := NewProcessor(Config{Dir: "/repo"}, Deps{Agent: inv, Tree: &stubTree{}})
	res := p.Process(context.Background(), "lib", "fix stuff")

	assert.False(t, res.Success)
	assert.Contains(t, res.Err, "executable not found")
	assert.Zero(t, res.FilesChanged)
}

func TestProcessAgentReportedFailure(t *testing.T) {
	inv := &stubInvoker{result: &agent.Result{
		Success: false,
		Output:  "could not resolve type error",
		Usage:   agent.TokenUsage{Input: 10},
		CostUSD: 0.01,
	}}

	p := NewProcessor(Config{Dir: "/repo"}, Deps{Agent: inv, Tree: &stubTree{files: []string{"x"}}})
	res := p.Process(context.Background(), "lib", "fix stuff")

	assert.False(t, res.Success)
	assert.Contains(t, res.Err, "could not resolve type error")
	// Usage is still recorded: a failed invocation still cost money.
	assert.Equal(t, 0.01, res.CostUSD)
	assert.Equal(t, 10, res.Usage.Total())
}

func TestProcessTreeStatusFailure(t *testing.T) {
	inv := &stubInvoker{result: &agent.Result{Success: true}}
	tree := &stubTree{err: errors.New("not a git repository")}

	p := NewProcessor(Config{Dir: "/repo"}, Deps{Agent: inv, Tree: tree})
	res := p.Process(context.Background(), "lib", "fix stuff")

	assert.False(t, res.Success)
	assert.Contains(t, res.Err, "not a git repository")
}

func TestProcessNoChanges(t *testing.T) {
	inv := &stubInvoker{result: &agent.Result{Success: true}}

	p := NewProcessor(Config{Dir: "/repo"}, Deps{Agent: inv, Tree: &stubTree{}})
	res := p.Process(context.Background(), "lib", "fix stuff")

	// An agent that succeeds without editing anything is still a success;
	// acceptance is the orchestrator's call.
	assert.True(t, res.Success)
	assert.Zero(t, res.FilesChanged)
}

func TestBatchPromptListsOnlyBatchFiles(t *testing.T) {
	b := batch.Batch{
		Name:  "app/dashboard",
		Files: []string{"app/dashboard/page.tsx", "app/dashboard/layout.tsx"},
	}
	prompt := BatchPrompt(b)

	require.Contains(t, prompt, "- app/dashboard/page.tsx")
	require.Contains(t, prompt, "- app/dashboard/layout.tsx")
	assert.Contains(t, prompt, "Only modify the files listed above")
	assert.NotContains(t, prompt, "ticket")
}

func TestTicketPromptCarriesDescription(t *testing.T) {
	tk := &ticket.Ticket{
		ID:          "BE-003",
		Title:       "Rate limit login attempts",
		Description: "Add a sliding-window limiter to POST /api/login.",
		Type:        ticket.TypeBackend,
	}
	prompt := TicketPrompt(tk)

	assert.True(t, strings.HasPrefix(prompt, "Implement ticket BE-003: Rate limit login attempts"))
	assert.Contains(t, prompt, "sliding-window limiter")
	assert.Contains(t, prompt, "backend")
}

func TestCommitMessages(t *testing.T) {
	assert.Equal(t, "fix(quality): components (1/2) - improvements", CommitMessage("components (1/2)"))

	tk := &ticket.Ticket{ID: "FE-001", Title: "Add login form", Type: ticket.TypeFrontend}
	assert.Equal(t, "feat(frontend): FE-001 Add login form", TicketCommitMessage(tk))
}
