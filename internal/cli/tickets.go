package cli

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mendtool/mend/internal/config"
	"github.com/mendtool/mend/internal/ticket"
)

// NewTicketsCmd creates the tickets command group
func NewTicketsCmd(app *App) *cobra.Command {
	var ticketsFile string

	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "Inspect and manage the ticket file",
	}
	cmd.PersistentFlags().StringVar(&ticketsFile, "tickets", "", "Path to the ticket file")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show every ticket's phase and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openTicketStore(ticketsFile)
			if err != nil {
				return err
			}
			doc, err := store.Load()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), RenderTicketStatus(doc))
			return nil
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Reset all tickets to Todo and clear errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openTicketStore(ticketsFile)
			if err != nil {
				return err
			}
			doc, err := store.ResetAll()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %d tickets to Todo.\n", len(doc.Tickets))
			return nil
		},
	}

	cmd.AddCommand(status, reset)
	return cmd
}

func openTicketStore(override string) (*ticket.Store, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	cfg, err := config.LoadConfig(wd)
	if err != nil {
		return nil, err
	}

	path := override
	if path == "" {
		path = cfg.Tickets.File
	}
	return ticket.NewStore(afero.NewOsFs(), path), nil
}
