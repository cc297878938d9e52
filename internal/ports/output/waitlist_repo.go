package output

import (
	"context"
	"time"

	"knallbonbon/internal/domain"
	"knallbonbon/internal/domain/entities"
)

type WaitlistRepository interface {
	Create(ctx context.Context, entry *entities.WaitlistEntry) error
	FindByID(ctx context.Context, id string) (*entities.WaitlistEntry, error)
	// FindByEventIDAndStatus returns entries in queue order: submitted_at, then id.
	FindByEventIDAndStatus(ctx context.Context, eventID string, status domain.Status) ([]entities.WaitlistEntry, error)
	// FindNextWaiting returns the head of the queue, or nil when nobody waits.
	FindNextWaiting(ctx context.Context, eventID string) (*entities.WaitlistEntry, error)
	// FindOverdue returns up to limit promoted entries whose deadline is before now,
	// oldest deadline first.
	FindOverdue(ctx context.Context, now time.Time, limit int) ([]entities.WaitlistEntry, error)
	CountByEventIDAndStatus(ctx context.Context, eventID string, status domain.Status) (int, error)
	// HasOpen reports whether email has a waiting or promoted entry for the event.
	HasOpen(ctx context.Context, eventID, email string) (bool, error)
	// UpdateIfStatus persists entry only if the stored status still equals
	// expected. It returns false when the precondition failed.
	UpdateIfStatus(ctx context.Context, entry *entities.WaitlistEntry, expected domain.Status) (bool, error)
}
