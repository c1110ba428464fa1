package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewShipCmd creates the ship command
func NewShipCmd(app *App) *cobra.Command {
	var noCommit bool
	var ticketsFile string

	cmd := &cobra.Command{
		Use:   "ship TICKET-ID",
		Short: "Process a single ticket",
		Long: `Ship processes exactly one ticket by id. Unlike build, a processing
failure halts the command with a non-zero exit after the failure has
been recorded in the ticket file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunShip(cmd.Context(), args[0], BuildOptions{
				NoCommit:    noCommit,
				TicketsFile: ticketsFile,
			})
		},
	}

	cmd.Flags().BoolVar(&noCommit, "no-commit", false, "Do not commit the completed ticket")
	cmd.Flags().StringVar(&ticketsFile, "tickets", "", "Path to the ticket file")

	return cmd
}

// RunShip executes the single-ticket workflow.
func (a *App) RunShip(ctx context.Context, ticketID string, opts BuildOptions) error {
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

	result, runErr := runner.Ship(ctx, ticketID)
	if result != nil && len(result.Units) > 0 {
		fmt.Print(RenderSummary(result))
	}
	return runErr
}
