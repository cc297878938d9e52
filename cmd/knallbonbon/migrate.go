package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"knallbonbon/internal/config"
	"knallbonbon/internal/infrastructure/database"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return withMigrator(opts, (*database.Migrator).Up)
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "down <steps>",
			Short: "Roll back the given number of migrations",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("migrate down: invalid step count %q", args[0])
				}
				return withMigrator(opts, func(mg *database.Migrator) error { return mg.Down(n) })
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(opts, func(mg *database.Migrator) error {
					version, dirty, ok, err := mg.Version()
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
						return nil
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%v)\n", version, dirty)
					return nil
				})
			},
		},
	)
	return cmd
}

func withMigrator(opts *rootOptions, fn func(*database.Migrator) error) error {
	if err := opts.load(); err != nil {
		return err
	}
	if opts.cfg.StoreDriver != config.DriverPostgres {
		return fmt.Errorf("migrate: STORE_DRIVER is %q, nothing to migrate", opts.cfg.StoreDriver)
	}
	mg, err := database.NewMigrator(opts.cfg.DatabaseURL, opts.cfg.MigrationsPath, opts.logger)
	if err != nil {
		return err
	}
	defer mg.Close()
	return fn(mg)
}
