package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mendtool/mend/internal/agent"
	"github.com/mendtool/mend/internal/config"
	"github.com/mendtool/mend/internal/events"
	"github.com/mendtool/mend/internal/git"
	"github.com/mendtool/mend/internal/orchestrator"
	"github.com/mendtool/mend/internal/ticket"
	"github.com/mendtool/mend/internal/validate"
	"github.com/mendtool/mend/internal/worker"
)

// BuildOptions holds flags for the build command
type BuildOptions struct {
	Reset       bool   // Reset all tickets to Todo before running
	Confirm     bool   // Pause for confirmation between tickets
	NoCommit    bool   // Skip the per-ticket commit
	TicketsFile string // Ticket file override ("" = from config)
}

// NewBuildCmd creates the build command
func NewBuildCmd(app *App) *cobra.Command {
	var opts BuildOptions

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Process all pending tickets in phase order",
		Long: `Build processes every Todo or Error ticket from the ticket file,
sorted into phases (schema, engine, backend, frontend, test). Done
tickets are never reprocessed, so an interrupted run resumes where it
left off. Each completed ticket is committed independently unless
--no-commit is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunBuild(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Reset, "reset", false, "Reset all tickets to Todo before running")
	cmd.Flags().BoolVar(&opts.Confirm, "confirm", false, "Ask before starting each subsequent ticket")
	cmd.Flags().BoolVar(&opts.NoCommit, "no-commit", false, "Do not commit completed tickets")
	cmd.Flags().StringVar(&opts.TicketsFile, "tickets", "", "Path to the ticket file")

	return cmd
}

// RunBuild executes the ticket build workflow.
func (a *App) RunBuild(ctx context.Context, opts BuildOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	handler := NewSignalHandler(cancel)
	handler.Start()
	defer handler.Stop()

	runner, bus, err := a.wireTicketRunner(opts)
	if err != nil {
		return err
	}
	defer bus.Close()

	result, runErr := runner.Build(ctx)
	if result != nil {
		fmt.Print(RenderSummary(result))
	}
	return runErr
}

// wireTicketRunner assembles the shared build/ship dependency graph.
func (a *App) wireTicketRunner(opts BuildOptions) (*orchestrator.TicketRunner, *events.Bus, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("getting working directory: %w", err)
	}

	cfg, err := config.LoadConfig(wd)
	if err != nil {
		return nil, nil, err
	}

	ticketsFile := opts.TicketsFile
	if ticketsFile == "" {
		ticketsFile = cfg.Tickets.File
	}

	bus := events.NewBus()
	bus.Subscribe(ProgressHandler(os.Stdout))
	if a.verbose || cfg.LogLevel == "debug" {
		bus.Subscribe(events.LogHandler(events.LogConfig{IncludePayload: true}))
	}

	session := git.NewSession(wd)
	gate := validate.NewGate(cfg.Checks, wd, bus)
	proc := worker.NewProcessor(
		worker.Config{Dir: wd, MaxTurns: cfg.Agent.MaxTurns},
		worker.Deps{Agent: agent.NewCLI(cfg.Agent.Command), Tree: session, Bus: bus},
	)
	store := ticket.NewStore(afero.NewOsFs(), ticketsFile)

	var confirm orchestrator.Confirmer
	if opts.Confirm {
		confirm = newTerminalConfirmer(os.Stdin, os.Stdout)
	}

	runner := orchestrator.NewTicketRunner(store, proc, gate, session, bus, confirm, orchestrator.TicketOptions{
		Reset:    opts.Reset,
		NoCommit: opts.NoCommit,
	})
	return runner, bus, nil
}

// terminalConfirmer asks on the terminal before each subsequent ticket.
// Anything other than y/yes declines and halts the run. The reader lives
// on the struct so buffered type-ahead survives across prompts.
type terminalConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func newTerminalConfirmer(in io.Reader, out io.Writer) *terminalConfirmer {
	return &terminalConfirmer{in: bufio.NewReader(in), out: out}
}

func (c *terminalConfirmer) Confirm(ctx context.Context, t *ticket.Ticket) (bool, error) {
	fmt.Fprintf(c.out, "Continue with %s (%s)? [y/N] ", t.ID, t.Title)

	type answer struct {
		line string
		err  error
	}
	// The read runs in a goroutine so an interrupt unblocks the prompt.
	// A stale goroutine blocked on stdin is harmless after cancellation;
	// the process is exiting.
	ch := make(chan answer, 1)
	go func() {
		line, err := c.in.ReadString('\n')
		ch <- answer{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a := <-ch:
		if a.err != nil && a.line == "" {
			return false, a.err
		}
		switch strings.ToLower(strings.TrimSpace(a.line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}
