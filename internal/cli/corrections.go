package cli

import (
	"fmt"
	"log/slog"

	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
	"github.com/SscSPs/fleet_finance_engine/internal/dto"
	"github.com/spf13/cobra"
)

func newCorrectionsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corrections",
		Short: "Apply reconciliation corrections to contracts and payments",
	}
	cmd.AddCommand(newCorrectionsApplyCommand(opts), newCorrectionsRecomputeCommand(opts))
	return cmd
}

func newCorrectionsApplyCommand(opts *rootOptions) *cobra.Command {
	var (
		file         string
		suspendGuard bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a file of correction directives",
		Long: `Apply correction directives from a JSON file of the form
{"directives": [{"kind": "set_contract_amount", "contractNumber": "CNT-001", "newAmount": "6000"}, ...]}.

Directives run one at a time and best-effort. Every touched contract has its total paid
and balance due recomputed and is verified afterwards. The command exits non-zero when
any directive failed.

--suspend-overpayment-guard disables the database trigger that rejects overpayments for
the duration of the run. It is re-enabled when the run ends, even on failure.`,
		Example: `  engine corrections apply --company acme --file fixes.json
  engine corrections apply --company acme --file fixes.json --suspend-overpayment-guard`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireCompany(); err != nil {
				return err
			}
			var doc dto.CorrectionsFile
			if err := readJSONFile(file, &doc); err != nil {
				return err
			}
			if len(doc.Directives) == 0 {
				return fmt.Errorf("%s contains no directives", file)
			}

			ctx, rt, err := newRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			if suspendGuard {
				rt.logger.Warn("Overpayment guard will be suspended for this run", slog.String("actor", opts.actor))
			}
			report, err := rt.services.Reconciliation.ApplyCorrections(ctx, opts.companyID, doc.Directives, domain.CorrectionOptions{
				SuspendOverpaymentGuard: suspendGuard,
				Actor:                   opts.actor,
			})
			if err != nil {
				return err
			}
			if err := writeJSON(opts.out, report); err != nil {
				return err
			}
			return correctionRunError(report, len(doc.Directives))
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Directives file (- for stdin)")
	cmd.Flags().BoolVar(&suspendGuard, "suspend-overpayment-guard", false, "Disable the overpayment trigger while the run lasts (privileged)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newCorrectionsRecomputeCommand(opts *rootOptions) *cobra.Command {
	var contractNumber string

	cmd := &cobra.Command{
		Use:     "recompute",
		Short:   "Rederive a contract's total paid and balance due from its payments",
		Example: `  engine corrections recompute --company acme --contract CNT-001`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireCompany(); err != nil {
				return err
			}
			ctx, rt, err := newRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			contract, err := rt.services.Reconciliation.RecomputeContract(ctx, opts.companyID, contractNumber, opts.actor)
			if err != nil {
				return err
			}
			return writeJSON(opts.out, dto.ToContractResponse(contract))
		},
	}

	cmd.Flags().StringVar(&contractNumber, "contract", "", "Contract number")
	_ = cmd.MarkFlagRequired("contract")
	return cmd
}

// correctionRunError turns a finished report into the command's exit status. A guard that
// could not be re-enabled outranks directive failures.
func correctionRunError(report *domain.CorrectionReport, total int) error {
	if report.GuardRestoreError != "" {
		return fmt.Errorf("overpayment guard is still disabled and must be re-enabled manually: %s", report.GuardRestoreError)
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d directives failed", report.Failed, total)
	}
	return nil
}
