package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func memoryViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	v.Set("STORE_DRIVER", DriverMemory)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(memoryViper(nil))
	require.NoError(t, err)

	require.Equal(t, DriverMemory, cfg.StoreDriver)
	require.Equal(t, ":8080", cfg.ListenAddress)
	require.Equal(t, 24*time.Hour, cfg.SweepInterval)
	require.Equal(t, 100, cfg.SweepBatchSize)
	require.Equal(t, 7, cfg.ConfirmationDeadlineDays)
	require.True(t, cfg.EnableAutoPromotion)
	require.Equal(t, time.Minute, cfg.SettingsCacheTTL)
	require.Equal(t, "none", cfg.TracingExporter)
	require.False(t, cfg.SMTPEnabled())
	require.False(t, cfg.DiscordEnabled())
}

func TestFromViper_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SWEEP_INTERVAL", "15m")
	t.Setenv("ENABLE_AUTO_PROMOTION", "false")
	t.Setenv("TRACING_EXPORTER", "STDOUT")

	cfg, err := FromViper(memoryViper(nil))
	require.NoError(t, err)
	require.Equal(t, 15*time.Minute, cfg.SweepInterval)
	require.False(t, cfg.EnableAutoPromotion)
	require.Equal(t, "stdout", cfg.TracingExporter)
}

func TestFromViper_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
		wantErr   string
	}{
		{"unknown driver", map[string]any{"STORE_DRIVER": "sqlite"}, "STORE_DRIVER"},
		{"postgres without host", map[string]any{"STORE_DRIVER": DriverPostgres, "DATABASE_URL": "not a url"}, "DATABASE_URL"},
		{"empty listen address", map[string]any{"LISTEN_ADDRESS": " "}, "LISTEN_ADDRESS"},
		{"zero sweep interval", map[string]any{"SWEEP_INTERVAL": "0s"}, "SWEEP_INTERVAL"},
		{"zero batch size", map[string]any{"SWEEP_BATCH_SIZE": 0}, "SWEEP_BATCH_SIZE"},
		{"zero deadline days", map[string]any{"CONFIRMATION_DEADLINE_DAYS": 0}, "CONFIRMATION_DEADLINE_DAYS"},
		{"negative cache ttl", map[string]any{"SETTINGS_CACHE_TTL": "-1s"}, "SETTINGS_CACHE_TTL"},
		{"zero attempts", map[string]any{"NOTIFY_MAX_ATTEMPTS": 0}, "NOTIFY_MAX_ATTEMPTS"},
		{"smtp without from", map[string]any{"SMTP_HOST": "mail.example.org", "ADMIN_EMAIL": "orga@example.org"}, "SMTP_FROM"},
		{"smtp without admin", map[string]any{"SMTP_HOST": "mail.example.org", "SMTP_FROM": "noreply@example.org"}, "ADMIN_EMAIL"},
		{"smtp bad port", map[string]any{
			"SMTP_HOST": "mail.example.org", "SMTP_FROM": "noreply@example.org",
			"ADMIN_EMAIL": "orga@example.org", "SMTP_PORT": 70000,
		}, "SMTP_PORT"},
		{"discord id only", map[string]any{"DISCORD_WEBHOOK_ID": "123"}, "DISCORD_WEBHOOK"},
		{"unknown exporter", map[string]any{"TRACING_EXPORTER": "jaeger"}, "TRACING_EXPORTER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromViper(memoryViper(tt.overrides))
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestFromViper_Integrations(t *testing.T) {
	cfg, err := FromViper(memoryViper(map[string]any{
		"SMTP_HOST":             "mail.example.org",
		"SMTP_FROM":             "noreply@example.org",
		"ADMIN_EMAIL":           "orga@example.org",
		"DISCORD_WEBHOOK_ID":    "123",
		"DISCORD_WEBHOOK_TOKEN": "abc",
	}))
	require.NoError(t, err)
	require.True(t, cfg.SMTPEnabled())
	require.True(t, cfg.DiscordEnabled())
	require.Equal(t, 587, cfg.SMTPPort)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knallbonbon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("STORE_DRIVER: memory\nSWEEP_BATCH_SIZE: 25\nDEFAULT_LOCALE: en\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 25, cfg.SweepBatchSize)
	require.Equal(t, "en", cfg.DefaultLocale)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
