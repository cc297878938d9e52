package entities

import (
	"time"

	"github.com/google/uuid"

	"knallbonbon/internal/domain"
)

// Registration is a confirmed, capacity-consuming signup. It counts toward
// occupancy only while Status is confirmed.
type Registration struct {
	ID              string
	EventID         string
	Contact         Contact
	Children        []Child
	Status          domain.Status
	WaitlistEntryID string // set when the registration came out of the waitlist
	CreatedAt       time.Time
	CancelledAt     time.Time
}

// NewRegistration builds a confirmed registration for an applicant.
func NewRegistration(eventID string, a Applicant, now time.Time) *Registration {
	return &Registration{
		ID:        NewID(),
		EventID:   eventID,
		Contact:   a.Contact,
		Children:  a.Children,
		Status:    domain.StatusConfirmed,
		CreatedAt: now,
	}
}

// Cancel marks a confirmed registration as cancelled.
func (r *Registration) Cancel(now time.Time) error {
	if r.Status != domain.StatusConfirmed {
		return domain.CheckTransition(r.Status, domain.StatusCancelled)
	}
	r.Status = domain.StatusCancelled
	r.CancelledAt = now
	return nil
}

// NewID returns a time-ordered identifier, so that sorting by ID follows
// insertion order.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
