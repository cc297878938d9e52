package entities

import (
	"fmt"
	"time"

	"knallbonbon/internal/domain"
)

// DefaultConfirmationDeadlineDays is used when no settings were stored yet.
const DefaultConfirmationDeadlineDays = 7

// Settings are the per-deployment waitlist knobs. They are read at the
// moment a decision is taken, so a change only affects later promotions.
type Settings struct {
	ConfirmationDeadlineDays int  `json:"confirmationDeadlineDays"`
	EnableAutoPromotion      bool `json:"enableAutoPromotion"`
}

// DefaultSettings returns the settings used before an admin saved any.
func DefaultSettings() Settings {
	return Settings{
		ConfirmationDeadlineDays: DefaultConfirmationDeadlineDays,
		EnableAutoPromotion:      true,
	}
}

// Validate checks the settings values.
func (s Settings) Validate() error {
	if s.ConfirmationDeadlineDays <= 0 {
		return fmt.Errorf("%w: confirmationDeadlineDays must be positive", domain.ErrInvalidSettings)
	}
	return nil
}

// Deadline returns the end of a confirmation window opened at now.
func (s Settings) Deadline(now time.Time) time.Time {
	return now.AddDate(0, 0, s.ConfirmationDeadlineDays)
}
