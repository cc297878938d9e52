package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"knallbonbon/internal/application"
	"knallbonbon/internal/config"
	"knallbonbon/internal/domain/entities"
	"knallbonbon/internal/infrastructure/database"
	"knallbonbon/internal/infrastructure/discord"
	"knallbonbon/internal/infrastructure/i18n"
	"knallbonbon/internal/infrastructure/mail"
	"knallbonbon/internal/infrastructure/memory"
	"knallbonbon/internal/infrastructure/notify"
	"knallbonbon/internal/infrastructure/tracing"
	"knallbonbon/internal/log"
	"knallbonbon/internal/ports/output"
)

// app wires ports: output adapters -> application (use cases).
type app struct {
	pool       *pgxpool.Pool
	tracing    *tracing.Provider
	dispatcher *notify.Dispatcher
	translator *i18n.Translator

	settings *application.SettingsService
	waitlist *application.WaitlistService
	events   *application.EventService
	sweeper  *application.Sweeper
}

func newApp(ctx context.Context, cfg *config.Config, logger *logrus.Entry) (*app, error) {
	a := &app{}

	tp, err := tracing.NewProvider(ctx, tracing.Config{
		Exporter:     cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		ServiceName:  "knallbonbon",
		Version:      version,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	a.tracing = tp

	store, settingsRepo, err := a.openStore(ctx, cfg, logger.WithField(log.FldComponent, "store"))
	if err != nil {
		a.close(ctx, logger)
		return nil, err
	}

	a.translator = i18n.NewTranslator(cfg.DefaultLocale, logger.WithField(log.FldComponent, "i18n"))
	channels, err := notificationChannels(cfg, a.translator, logger)
	if err != nil {
		a.close(ctx, logger)
		return nil, err
	}
	a.dispatcher = notify.NewDispatcher(notify.Config{
		Workers:     cfg.NotifyWorkers,
		MaxAttempts: cfg.NotifyMaxAttempts,
	}, logger.WithField(log.FldComponent, "notify"), channels...)

	appLogger := logger.WithField(log.FldComponent, "application")
	a.settings = application.NewSettingsService(settingsRepo, entities.Settings{
		ConfirmationDeadlineDays: cfg.ConfirmationDeadlineDays,
		EnableAutoPromotion:      cfg.EnableAutoPromotion,
	}, cfg.SettingsCacheTTL, appLogger)
	a.waitlist = application.NewWaitlistService(store, a.settings, a.dispatcher, cfg.DefaultLocale, appLogger)
	a.events = application.NewEventService(store, a.waitlist, a.settings, appLogger)
	a.sweeper = application.NewSweeper(store, a.waitlist, a.settings, cfg.SweepBatchSize, appLogger)
	return a, nil
}

func (a *app) openStore(ctx context.Context, cfg *config.Config, logger *logrus.Entry) (output.Store, output.SettingsRepository, error) {
	if cfg.StoreDriver == config.DriverMemory {
		logger.Warn("Using in-memory store, data is lost on exit")
		s := memory.New()
		return s, s.SettingsRepository(), nil
	}
	pool, err := database.NewPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	a.pool = pool
	s := database.NewStore(pool, logger)
	return s, s.SettingsRepository(), nil
}

// notificationChannels picks SMTP or the log for email and adds the Discord
// alerter when a webhook is configured.
func notificationChannels(cfg *config.Config, translator *i18n.Translator, logger *logrus.Entry) ([]notify.Channel, error) {
	mailLogger := logger.WithField(log.FldTransport, "mail")
	sender := mail.NewSender(mail.Config{
		Host:       cfg.SMTPHost,
		Port:       cfg.SMTPPort,
		Username:   cfg.SMTPUsername,
		Password:   cfg.SMTPPassword,
		From:       cfg.SMTPFrom,
		AdminEmail: cfg.AdminEmail,
	}, translator, mailLogger)

	var channels []notify.Channel
	if cfg.SMTPEnabled() {
		channels = append(channels, notify.Channel{Name: "mail", Sender: sender})
	} else {
		mailLogger.Warn("SMTP_HOST not set, emails are written to the log")
		channels = append(channels, notify.Channel{Name: "mail-log", Sender: mail.NewLogSender(sender, mailLogger)})
	}

	if cfg.DiscordEnabled() {
		alerter, err := discord.NewAlerter(cfg.DiscordWebhookID, cfg.DiscordWebhookToken, logger.WithField(log.FldTransport, "discord"))
		if err != nil {
			return nil, err
		}
		channels = append(channels, notify.Channel{Name: "discord", Sender: alerter})
	}
	return channels, nil
}

// close drains pending notifications, flushes spans and closes the pool.
func (a *app) close(ctx context.Context, logger *logrus.Entry) {
	if a.dispatcher != nil {
		if err := a.dispatcher.Close(ctx); err != nil {
			logger.WithError(err).Warn("Notifications left undelivered")
		}
	}
	if a.tracing != nil {
		if err := a.tracing.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("Tracing shutdown failed")
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
