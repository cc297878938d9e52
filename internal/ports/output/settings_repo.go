package output

import (
	"context"

	"knallbonbon/internal/domain/entities"
)

type SettingsRepository interface {
	// Get returns the stored settings, or ok=false when none were saved.
	Get(ctx context.Context) (settings entities.Settings, ok bool, err error)
	Save(ctx context.Context, settings entities.Settings) error
}
