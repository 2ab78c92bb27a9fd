package cli

import (
	"fmt"
	"log/slog"

	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
	"github.com/SscSPs/fleet_finance_engine/internal/dto"
	"github.com/spf13/cobra"
)

func newPostCommand(opts *rootOptions) *cobra.Command {
	var (
		file        string
		onDuplicate string
	)

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a batch of business events to the ledger",
		Long: `Post business events from a JSON file of the form
{"events": [{"type": "payroll", "payload": {...}}, ...], "onDuplicate": "skip"}.

Events are posted one at a time; a failing event is reported and the batch continues.
The command exits non-zero when any event failed.`,
		Example: `  # Post a month of payroll runs
  engine post --company acme --file payroll-2025-03.json

  # Repost after fixing source data, replacing existing entries
  engine post --company acme --file payroll-2025-03.json --on-duplicate supersede

  # Check a batch against a fixture chart without touching the database
  engine post --company acme --file events.json --fixture chart.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireCompany(); err != nil {
				return err
			}
			var req dto.PostBatchRequest
			if err := readJSONFile(file, &req); err != nil {
				return err
			}
			if onDuplicate != "" {
				req.OnDuplicate = domain.DuplicatePolicy(onDuplicate)
			}
			events, err := dto.DecodeEvents(req.Events)
			if err != nil {
				return err
			}

			ctx, rt, err := newRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.services.Ledger.PostBatch(ctx, opts.companyID, events, domain.PostOptions{
				OnDuplicate: req.OnDuplicate,
				Actor:       opts.actor,
			})
			if err != nil {
				return err
			}
			rt.logger.Info("Posting batch complete",
				slog.Int("succeeded", result.Succeeded),
				slog.Int("skipped", result.Skipped),
				slog.Int("failed", result.Failed),
				slog.Bool("dry_run", rt.dryRun),
			)
			if err := writeJSON(opts.out, dto.ToPostBatchResponse(result)); err != nil {
				return err
			}
			if result.Failed > 0 {
				return fmt.Errorf("%d of %d events failed", result.Failed, len(events))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Events file (- for stdin)")
	cmd.Flags().StringVar(&onDuplicate, "on-duplicate", "", "Duplicate policy: skip or supersede (overrides the file)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
