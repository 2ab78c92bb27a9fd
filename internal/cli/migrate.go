package cli

import (
	"fmt"

	"github.com/SscSPs/fleet_finance_engine/internal/platform/config"
	"github.com/SscSPs/fleet_finance_engine/pkg/database"
	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.fixture != "" {
				return fmt.Errorf("migrate cannot run against a fixture")
			}
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("PGSQL_URL is required")
			}
			return database.RunMigrations(cfg.DatabaseURL, path, opts.logger())
		},
	}

	cmd.Flags().StringVar(&path, "path", database.DefaultMigrationsPath, "Migrations source URL")
	return cmd
}
