package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"knallbonbon/internal/adapters/scheduler"
	"knallbonbon/internal/log"
)

func newSweepCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire overdue promotions once and print the report",
		Long: `Runs a single expiry sweep: promoted waitlist entries whose confirmation
deadline has passed are expired and the freed slots move down the waitlist.
Intended for cron or a systemd timer when the in-process scheduler is not used.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.load(); err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer a.close(ctx, opts.logger)

			report, err := scheduler.NewSweeper(a.sweeper, opts.logger.WithField(log.FldComponent, "sweep")).RunOnce(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}
