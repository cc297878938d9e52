package input

import (
	"context"

	"knallbonbon/internal/domain/entities"
)

type SettingsUseCase interface {
	Current(ctx context.Context) (entities.Settings, error)
	Update(ctx context.Context, settings entities.Settings) error
}
