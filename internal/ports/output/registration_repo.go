package output

import (
	"context"

	"knallbonbon/internal/domain"
	"knallbonbon/internal/domain/entities"
)

type RegistrationRepository interface {
	Create(ctx context.Context, registration *entities.Registration) error
	FindByID(ctx context.Context, id string) (*entities.Registration, error)
	FindByEventID(ctx context.Context, eventID string) ([]entities.Registration, error)
	FindByEventIDAndStatus(ctx context.Context, eventID string, status domain.Status) ([]entities.Registration, error)
	CountByEventIDAndStatus(ctx context.Context, eventID string, status domain.Status) (int, error)
	// HasConfirmed reports whether email already holds a confirmed
	// registration for the event.
	HasConfirmed(ctx context.Context, eventID, email string) (bool, error)
	// UpdateIfStatus persists registration only if the stored status still
	// equals expected. It returns false when the precondition failed.
	UpdateIfStatus(ctx context.Context, registration *entities.Registration, expected domain.Status) (bool, error)
}
