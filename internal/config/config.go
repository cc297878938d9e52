package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	DatabaseURL    string
	StoreDriver    string
	MigrationsPath string
	ListenAddress  string

	LogLevel  string
	LogFormat string

	DefaultLocale  string
	AdminEmail     string
	AdminTokenHash string

	SweepInterval  time.Duration
	SweepBatchSize int

	ConfirmationDeadlineDays int
	EnableAutoPromotion      bool
	SettingsCacheTTL         time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	DiscordWebhookID    string
	DiscordWebhookToken string

	NotifyWorkers     int
	NotifyMaxAttempts int

	TracingExporter string
	OTLPEndpoint    string
}

var defaults = map[string]any{
	"DATABASE_URL":               "postgres://localhost:5432/knallbonbon?sslmode=disable",
	"STORE_DRIVER":               DriverPostgres,
	"MIGRATIONS_PATH":            "migrations",
	"LISTEN_ADDRESS":             ":8080",
	"LOG_LEVEL":                  "info",
	"LOG_FORMAT":                 "text",
	"DEFAULT_LOCALE":             "de",
	"SWEEP_INTERVAL":             "24h",
	"SWEEP_BATCH_SIZE":           100,
	"CONFIRMATION_DEADLINE_DAYS": 7,
	"ENABLE_AUTO_PROMOTION":      true,
	"SETTINGS_CACHE_TTL":         "1m",
	"SMTP_PORT":                  587,
	"NOTIFY_WORKERS":             2,
	"NOTIFY_MAX_ATTEMPTS":        3,
	"TRACING_EXPORTER":           "none",
	"OTLP_ENDPOINT":              "localhost:4317",
}

// Load reads .env (if present), the environment and an optional YAML file,
// then validates the result. An empty configFile looks for knallbonbon.yaml
// in the working directory.
func Load(configFile string) (*Config, error) {
	// .env is optional when variables come from the environment (Docker, systemd, CI).
	_ = godotenv.Load()

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("knallbonbon")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from v with environment overrides applied.
func FromViper(v *viper.Viper) (*Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:              v.GetString("DATABASE_URL"),
		StoreDriver:              strings.ToLower(v.GetString("STORE_DRIVER")),
		MigrationsPath:           v.GetString("MIGRATIONS_PATH"),
		ListenAddress:            v.GetString("LISTEN_ADDRESS"),
		LogLevel:                 v.GetString("LOG_LEVEL"),
		LogFormat:                v.GetString("LOG_FORMAT"),
		DefaultLocale:            v.GetString("DEFAULT_LOCALE"),
		AdminEmail:               v.GetString("ADMIN_EMAIL"),
		AdminTokenHash:           v.GetString("ADMIN_TOKEN_HASH"),
		SweepInterval:            v.GetDuration("SWEEP_INTERVAL"),
		SweepBatchSize:           v.GetInt("SWEEP_BATCH_SIZE"),
		ConfirmationDeadlineDays: v.GetInt("CONFIRMATION_DEADLINE_DAYS"),
		EnableAutoPromotion:      v.GetBool("ENABLE_AUTO_PROMOTION"),
		SettingsCacheTTL:         v.GetDuration("SETTINGS_CACHE_TTL"),
		SMTPHost:                 v.GetString("SMTP_HOST"),
		SMTPPort:                 v.GetInt("SMTP_PORT"),
		SMTPUsername:             v.GetString("SMTP_USERNAME"),
		SMTPPassword:             v.GetString("SMTP_PASSWORD"),
		SMTPFrom:                 v.GetString("SMTP_FROM"),
		DiscordWebhookID:         v.GetString("DISCORD_WEBHOOK_ID"),
		DiscordWebhookToken:      v.GetString("DISCORD_WEBHOOK_TOKEN"),
		NotifyWorkers:            v.GetInt("NOTIFY_WORKERS"),
		NotifyMaxAttempts:        v.GetInt("NOTIFY_MAX_ATTEMPTS"),
		TracingExporter:          strings.ToLower(v.GetString("TRACING_EXPORTER")),
		OTLPEndpoint:             v.GetString("OTLP_ENDPOINT"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SMTPEnabled reports whether emails go to a relay rather than the log.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

// DiscordEnabled reports whether organizer alerts are posted to Discord.
func (c *Config) DiscordEnabled() bool {
	return c.DiscordWebhookID != "" && c.DiscordWebhookToken != ""
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		parsed, err := url.Parse(c.DatabaseURL)
		if err != nil {
			return fmt.Errorf("config: invalid DATABASE_URL (%q): %w", c.DatabaseURL, err)
		}
		if parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("config: invalid DATABASE_URL (%q): missing scheme or host", c.DatabaseURL)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("config: STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.StoreDriver)
	}

	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: LISTEN_ADDRESS is required")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("config: SWEEP_INTERVAL must be positive")
	}
	if c.SweepBatchSize <= 0 {
		return fmt.Errorf("config: SWEEP_BATCH_SIZE must be positive")
	}
	if c.ConfirmationDeadlineDays < 1 {
		return fmt.Errorf("config: CONFIRMATION_DEADLINE_DAYS must be at least 1")
	}
	if c.SettingsCacheTTL < 0 {
		return fmt.Errorf("config: SETTINGS_CACHE_TTL must not be negative")
	}
	if c.NotifyMaxAttempts < 1 {
		return fmt.Errorf("config: NOTIFY_MAX_ATTEMPTS must be at least 1")
	}

	if c.SMTPEnabled() {
		if c.SMTPFrom == "" {
			return fmt.Errorf("config: SMTP_FROM is required when SMTP_HOST is set")
		}
		if c.AdminEmail == "" {
			return fmt.Errorf("config: ADMIN_EMAIL is required when SMTP_HOST is set")
		}
		if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
			return fmt.Errorf("config: SMTP_PORT out of range: %d", c.SMTPPort)
		}
	}
	if (c.DiscordWebhookID == "") != (c.DiscordWebhookToken == "") {
		return fmt.Errorf("config: DISCORD_WEBHOOK_ID and DISCORD_WEBHOOK_TOKEN must be set together")
	}

	switch c.TracingExporter {
	case "none", "stdout", "otlp":
	default:
		return fmt.Errorf("config: TRACING_EXPORTER must be none, stdout or otlp, got %q", c.TracingExporter)
	}
	return nil
}
