package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"knallbonbon/internal/domain/entities"
	"knallbonbon/internal/ports/output"
)

var _ output.SettingsRepository = (*SettingsRepository)(nil)

// SettingsRepository stores the single settings row.
type SettingsRepository struct {
	q querier
}

func NewSettingsRepository(q querier) *SettingsRepository {
	return &SettingsRepository{q: q}
}

func (r *SettingsRepository) Get(ctx context.Context) (entities.Settings, bool, error) {
	var s entities.Settings
	err := r.q.QueryRow(ctx,
		`SELECT confirmation_deadline_days, enable_auto_promotion FROM knallbonbon_settings WHERE id = 1`,
	).Scan(&s.ConfirmationDeadlineDays, &s.EnableAutoPromotion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entities.Settings{}, false, nil
		}
		return entities.Settings{}, false, fmt.Errorf("get settings: %w", err)
	}
	return s, true, nil
}

func (r *SettingsRepository) Save(ctx context.Context, s entities.Settings) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO knallbonbon_settings (id, confirmation_deadline_days, enable_auto_promotion, updated_at)
		 VALUES (1, $1, $2, now())
		 ON CONFLICT (id) DO UPDATE
		 SET confirmation_deadline_days = EXCLUDED.confirmation_deadline_days,
		     enable_auto_promotion = EXCLUDED.enable_auto_promotion,
		     updated_at = now()`,
		s.ConfirmationDeadlineDays, s.EnableAutoPromotion,
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
