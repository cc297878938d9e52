package application

import (
	"context"
	"fmt"

	"knallbonbon/internal/domain"
	"knallbonbon/internal/domain/entities"
	"knallbonbon/internal/ports/input"
	"knallbonbon/internal/ports/output"
)

// Ledger computes occupancy from confirmed registrations. It never writes.
// Bound to the repositories of a transaction, its answers are consistent
// with the writes that follow in the same transaction.
type Ledger struct {
	r output.Repositories
}

func NewLedger(r output.Repositories) *Ledger {
	return &Ledger{r: r}
}

// Occupancy is the number of confirmed registrations for the event.
func (l *Ledger) Occupancy(ctx context.Context, eventID string) (int, error) {
	n, err := l.r.Registrations.CountByEventIDAndStatus(ctx, eventID, domain.StatusConfirmed)
	if err != nil {
		return 0, fmt.Errorf("count confirmed: %w", err)
	}
	return n, nil
}

// FreeSlots is max(0, capacity - occupancy).
func (l *Ledger) FreeSlots(ctx context.Context, event *entities.Event) (int, error) {
	occupancy, err := l.Occupancy(ctx, event.ID)
	if err != nil {
		return 0, err
	}
	return event.FreeSlots(occupancy), nil
}

// Snapshot adds the promoted and waiting counts to occupancy and free slots.
// Callers deciding on a write must hold the event lock.
func (l *Ledger) Snapshot(ctx context.Context, event *entities.Event) (input.Occupancy, error) {
	confirmed, err := l.Occupancy(ctx, event.ID)
	if err != nil {
		return input.Occupancy{}, err
	}
	promoted, err := l.r.Waitlist.CountByEventIDAndStatus(ctx, event.ID, domain.StatusPromoted)
	if err != nil {
		return input.Occupancy{}, fmt.Errorf("count promoted: %w", err)
	}
	waiting, err := l.r.Waitlist.CountByEventIDAndStatus(ctx, event.ID, domain.StatusWaiting)
	if err != nil {
		return input.Occupancy{}, fmt.Errorf("count waiting: %w", err)
	}
	return input.Occupancy{
		EventID:   event.ID,
		Capacity:  event.Capacity,
		Confirmed: confirmed,
		FreeSlots: event.FreeSlots(confirmed),
		Promoted:  promoted,
		Waiting:   waiting,
	}, nil
}

// unreserved is the number of free slots not already held by an open
// confirmation window.
func unreserved(o input.Occupancy) int {
	if n := o.FreeSlots - o.Promoted; n > 0 {
		return n
	}
	return 0
}
