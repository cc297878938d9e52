package output

import (
	"context"

	"knallbonbon/internal/domain/entities"
)

type EventRepository interface {
	Create(ctx context.Context, event *entities.Event) error
	FindByID(ctx context.Context, id string) (*entities.Event, error)
	// FindByIDForUpdate loads the event and holds it exclusively until the
	// surrounding transaction ends. Capacity decisions are serialised on it.
	FindByIDForUpdate(ctx context.Context, id string) (*entities.Event, error)
	List(ctx context.Context) ([]entities.Event, error)
	Update(ctx context.Context, event *entities.Event) error
}
