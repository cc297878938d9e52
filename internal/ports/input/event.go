package input

import (
	"context"

	"knallbonbon/internal/domain/entities"
)

// Occupancy is the capacity picture of one event.
type Occupancy struct {
	EventID   string `json:"eventId"`
	Capacity  int    `json:"capacity"`
	Confirmed int    `json:"confirmed"`
	FreeSlots int    `json:"freeSlots"`
	Promoted  int    `json:"promoted"`
	Waiting   int    `json:"waiting"`
}

type EventUseCase interface {
	CreateEvent(ctx context.Context, event *entities.Event) error
	GetEventByID(ctx context.Context, id string) (*entities.Event, error)
	ListEvents(ctx context.Context) ([]entities.Event, error)
	// SetCapacity changes the capacity of an event. Freed slots are handed to
	// the waitlist when auto promotion is on.
	SetCapacity(ctx context.Context, id string, capacity int) (*entities.Event, error)
	GetOccupancy(ctx context.Context, id string) (*Occupancy, error)
	GetRegistrations(ctx context.Context, eventID string) ([]entities.Registration, error)
	GetWaitlist(ctx context.Context, eventID string) ([]entities.WaitlistEntry, error)
}
