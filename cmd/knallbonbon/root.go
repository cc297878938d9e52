package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"knallbonbon/internal/config"
	"knallbonbon/internal/log"
)

type rootOptions struct {
	configFile string
	cfg        *config.Config
	logger     *logrus.Entry
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "knallbonbon",
		Short:         "Registration and waitlist service for Knallbonbon events",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "",
		"config file (default: ./knallbonbon.yaml if present)")

	cmd.AddCommand(
		newServeCmd(opts),
		newSweepCmd(opts),
		newMigrateCmd(opts),
		newHashTokenCmd(),
	)
	return cmd
}

// load reads the configuration and sets up the logger. Commands that need
// either call it from RunE.
func (o *rootOptions) load() error {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.logger = log.New(cfg.LogLevel, cfg.LogFormat).WithField(log.FldVersion, version)
	return nil
}
