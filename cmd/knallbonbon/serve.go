package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"knallbonbon/internal/adapters/rest"
	"knallbonbon/internal/adapters/scheduler"
	"knallbonbon/internal/config"
	"knallbonbon/internal/infrastructure/database"
	"knallbonbon/internal/log"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var migrateFirst bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the expiry sweep",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.load(); err != nil {
				return err
			}
			return serve(cmd.Context(), opts.cfg, opts.logger, migrateFirst)
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", true, "apply pending migrations before starting")
	return cmd
}

func serve(parent context.Context, cfg *config.Config, logger *logrus.Entry, migrateFirst bool) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if migrateFirst && cfg.StoreDriver == config.DriverPostgres {
		if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
			return err
		}
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}

	sweeper := scheduler.NewSweeper(a.sweeper, logger.WithField(log.FldComponent, "scheduler"))
	go sweeper.Run(ctx, cfg.SweepInterval)

	if cfg.AdminTokenHash == "" {
		logger.Warn("ADMIN_TOKEN_HASH not set, admin API is locked")
	}
	httpLogger := logger.WithField(log.FldTransport, "HTTP")
	h := rest.NewHandler(a.events, a.waitlist, a.settings, sweeper, a.translator, cfg.AdminTokenHash, httpLogger)
	srv := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		httpLogger.WithField("addr", cfg.ListenAddress).Info("Starting listening port")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	go watchdog(ctx, logger)
	// Notify systemd that we are ready to go (if available)
	_, _ = daemon.SdNotify(false, "READY=1")

	select {
	case err = <-errs:
		logger.WithError(err).Error("HTTP server failed")
	case <-ctx.Done():
		logger.Info("Caught signal to stop. Shutting down.")
	}
	_, _ = daemon.SdNotify(false, "STOPPING=1")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		logger.WithError(serr).Warn("Graceful shutdown failed")
	}
	a.close(shutdownCtx, logger)
	logger.Info("Shutdown complete")
	return err
}

// watchdog pings the systemd watchdog while ctx is alive.
func watchdog(ctx context.Context, logger *logrus.Entry) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}
	logger.Info("Activating systemd watchdog goroutine")
	ticker := time.NewTicker(interval / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = daemon.SdNotify(false, "WATCHDOG=1")
		}
	}
}
