// Package cli implements the operator command line: posting batches, correction runs,
// legal collection reports and schema migrations.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	companyID string
	fixture   string
	actor     string
	verbose   bool

	out    io.Writer
	errOut io.Writer
}

// NewRootCommand builds the command tree writing results to out and logs to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	opts := &rootOptions{out: out, errOut: errOut}

	rootCmd := &cobra.Command{
		Use:   "engine",
		Short: "Fleet finance engine operator CLI",
		Long: `Operator CLI for the fleet finance engine.

Posts business events to the ledger, applies reconciliation corrections, prints the
legal collection aging report and migrates the database schema.

Commands run against PostgreSQL (PGSQL_URL) unless --fixture points at a JSON fixture,
in which case they run against an in-memory store seeded from it and nothing is persisted.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.PersistentFlags().StringVar(&opts.companyID, "company", "", "Company ID the command operates on")
	rootCmd.PersistentFlags().StringVar(&opts.fixture, "fixture", "", "Run against an in-memory store seeded from this JSON fixture (dry run)")
	rootCmd.PersistentFlags().StringVar(&opts.actor, "actor", "cli", "Actor recorded on every write")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(
		newPostCommand(opts),
		newCorrectionsCommand(opts),
		newLegalCommand(opts),
		newAccountsCommand(opts),
		newMigrateCommand(opts),
	)
	return rootCmd
}

// Execute runs the CLI against the process arguments and exits non-zero on failure.
func Execute() {
	rootCmd := NewRootCommand(os.Stdout, os.Stderr)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("Command execution failed", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func (o *rootOptions) logger() *slog.Logger {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(o.errOut, &slog.HandlerOptions{Level: level}))
}

func (o *rootOptions) requireCompany() error {
	if o.companyID == "" {
		return fmt.Errorf("--company is required")
	}
	return nil
}
