package cli

import (
	"github.com/SscSPs/fleet_finance_engine/internal/dto"
	"github.com/spf13/cobra"
)

func newAccountsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage the posting accounts of a company",
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the posting accounts the company is missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireCompany(); err != nil {
				return err
			}
			ctx, rt, err := newRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			created, err := rt.services.Accounts.SeedDefaultChart(ctx, opts.companyID, opts.actor)
			if err != nil {
				return err
			}
			return writeJSON(opts.out, dto.SeedChartResponse{Created: dto.ToAccountResponses(created)})
		},
	}

	missingCmd := &cobra.Command{
		Use:   "missing",
		Short: "List the posting account codes the company has no active account for",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireCompany(); err != nil {
				return err
			}
			ctx, rt, err := newRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			missing, err := rt.services.Accounts.MissingAccounts(ctx, opts.companyID)
			if err != nil {
				return err
			}
			if missing == nil {
				missing = []string{}
			}
			return writeJSON(opts.out, dto.MissingAccountsResponse{MissingCodes: missing, Ready: len(missing) == 0})
		},
	}

	cmd.AddCommand(seedCmd, missingCmd)
	return cmd
}
