package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
	"github.com/SscSPs/fleet_finance_engine/internal/utils"
	"github.com/spf13/cobra"
)

func newLegalCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "legal",
		Short: "Legal collection reporting",
	}
	cmd.AddCommand(newLegalReportCommand(opts))
	return cmd
}

func newLegalReportCommand(opts *rootOptions) *cobra.Command {
	var (
		asOfStr string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the aging and provisioning report for receivables under legal procedure",
		Example: `  # Report as of today
  engine legal report --company acme

  # Month-end report as JSON
  engine legal report --company acme --as-of 2025-03-31 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireCompany(); err != nil {
				return err
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("unknown format %q, use table or json", format)
			}
			var asOf time.Time
			if asOfStr != "" {
				parsed, err := time.Parse("2006-01-02", asOfStr)
				if err != nil {
					return fmt.Errorf("invalid --as-of date format. Use YYYY-MM-DD: %w", err)
				}
				asOf = parsed
			}

			ctx, rt, err := newRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			report, err := rt.services.LegalCollection.Report(ctx, opts.companyID, asOf)
			if err != nil {
				return err
			}
			if format == "json" {
				return writeJSON(opts.out, report)
			}
			return writeLegalTable(opts.out, report, rt.cfg.CurrencyPrecision)
		},
	}

	cmd.Flags().StringVar(&asOfStr, "as-of", "", "Report date (YYYY-MM-DD, default: today)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	return cmd
}

func writeLegalTable(out io.Writer, report *domain.LegalCollectionReport, precision int32) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(out, "Legal collection report for %s as of %s\n\n", report.CompanyID, report.AsOf.Format("2006-01-02"))

	fmt.Fprintln(tw, "CONTRACT\tCASE\tDAYS\tRATE\tORIGINAL\tPROVISION\tNET\tCOLLECTED\tREMAINING\t")
	for _, item := range report.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			item.ContractNumber,
			item.CaseNumber,
			strconv.Itoa(item.DaysInLegal),
			utils.FormatPercent(item.ProvisionRate.Shift(2)),
			utils.FormatWithPrecision(item.OriginalDebt, precision),
			utils.FormatWithPrecision(item.ProvisionAmount, precision),
			utils.FormatWithPrecision(item.NetReceivable, precision),
			utils.FormatWithPrecision(item.CollectedAmount, precision),
			utils.FormatWithPrecision(item.RemainingAmount, precision),
		)
	}
	s := report.Summary
	fmt.Fprintf(tw, "TOTAL (%d)\t\t\t\t%s\t%s\t%s\t%s\t%s\t\n",
		s.TotalCases,
		utils.FormatWithPrecision(s.TotalOriginalDebt, precision),
		utils.FormatWithPrecision(s.TotalProvision, precision),
		utils.FormatWithPrecision(s.TotalNetReceivable, precision),
		utils.FormatWithPrecision(s.TotalCollected, precision),
		utils.FormatWithPrecision(s.TotalRemaining, precision),
	)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nCollection rate: %s\n", utils.FormatPercent(s.CollectionRate))
	if s.ContractsWithoutCase > 0 {
		fmt.Fprintf(out, "Contracts under legal procedure without a case: %d\n", s.ContractsWithoutCase)
	}

	fmt.Fprintln(out, "\nProvision buckets:")
	bw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(bw, "BUCKET\tRATE\tCOUNT\tORIGINAL\tPROVISION\t")
	for _, b := range s.Buckets {
		fmt.Fprintf(bw, "%s\t%s\t%d\t%s\t%s\t\n",
			b.Label,
			utils.FormatPercent(b.Rate.Shift(2)),
			b.Count,
			utils.FormatWithPrecision(b.OriginalDebt, precision),
			utils.FormatWithPrecision(b.ProvisionAmount, precision),
		)
	}
	return bw.Flush()
}
