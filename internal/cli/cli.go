// Package cli wires configuration, the event bus, and the orchestrator
// behind the mend command surface.
package cli

import (
	"github.com/spf13/cobra"
)

// App represents the CLI application with all wired dependencies
type App struct {
	rootCmd *cobra.Command

	// verbose streams lifecycle events to stderr
	verbose bool

	// Version information (set via ldflags in main)
	version string
	commit  string
	date    string
}

// New creates a new CLI application
func New() *App {
	app := &App{}
	app.setupRootCmd()
	return app
}

// Execute runs the CLI application
func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// SetVersion sets the version strings for the version command
func (a *App) SetVersion(version, commit, date string) {
	a.version = version
	a.commit = commit
	a.date = date
}

// Root exposes the root command for tests.
func (a *App) Root() *cobra.Command { return a.rootCmd }

// setupRootCmd configures the root Cobra command
func (a *App) setupRootCmd() {
	a.rootCmd = &cobra.Command{
		Use:   "mend",
		Short: "AI-assisted code modification pipeline",
		Long: `Mend drives batched, validation-gated code modification workflows:
quality fixes across a codebase and ticket-driven feature implementation,
optionally packaged into a single pull request.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	a.rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false,
		"Stream lifecycle events to stderr")

	a.rootCmd.AddCommand(
		NewFixCmd(a),
		NewBuildCmd(a),
		NewShipCmd(a),
		NewTicketsCmd(a),
		NewVersionCmd(a),
	)
}
