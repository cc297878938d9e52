package entities

import (
	"fmt"
	"time"

	"knallbonbon/internal/domain"
)

// WaitlistEntry is a queued signup for an event that was full when it was
// submitted.
type WaitlistEntry struct {
	ID                   string
	EventID              string
	Contact              Contact
	Children             []Child
	Status               domain.Status
	SubmittedAt          time.Time
	PromotedAt           time.Time
	ConfirmationDeadline time.Time // set only while promoted (kept afterwards for audit)
	ConfirmedAt          time.Time
	ExpiredAt            time.Time
	CancelledAt          time.Time
}

// NewWaitlistEntry builds a waiting entry for an applicant.
func NewWaitlistEntry(eventID string, a Applicant, now time.Time) *WaitlistEntry {
	return &WaitlistEntry{
		ID:          NewID(),
		EventID:     eventID,
		Contact:     a.Contact,
		Children:    a.Children,
		Status:      domain.StatusWaiting,
		SubmittedAt: now,
	}
}

// Promote opens a confirmation window that closes at deadline.
func (w *WaitlistEntry) Promote(now, deadline time.Time) error {
	if err := domain.CheckTransition(w.Status, domain.StatusPromoted); err != nil {
		return err
	}
	w.Status = domain.StatusPromoted
	w.PromotedAt = now
	w.ConfirmationDeadline = deadline
	return nil
}

// Confirm accepts the promotion. The deadline itself is still inside the window.
func (w *WaitlistEntry) Confirm(now time.Time) error {
	if err := domain.CheckTransition(w.Status, domain.StatusConfirmed); err != nil {
		return err
	}
	if now.After(w.ConfirmationDeadline) {
		return fmt.Errorf("%w: confirmation window closed at %s", domain.ErrInvalidStateTransition, w.ConfirmationDeadline.Format(time.RFC3339))
	}
	w.Status = domain.StatusConfirmed
	w.ConfirmedAt = now
	return nil
}

// Expire closes a promotion whose deadline has passed.
func (w *WaitlistEntry) Expire(now time.Time) error {
	if err := domain.CheckTransition(w.Status, domain.StatusExpired); err != nil {
		return err
	}
	if !w.ConfirmationDeadline.Before(now) {
		return fmt.Errorf("%w: deadline %s not reached", domain.ErrInvalidStateTransition, w.ConfirmationDeadline.Format(time.RFC3339))
	}
	w.Status = domain.StatusExpired
	w.ExpiredAt = now
	return nil
}

// Cancel withdraws a waiting or promoted entry.
func (w *WaitlistEntry) Cancel(now time.Time) error {
	if err := domain.CheckTransition(w.Status, domain.StatusCancelled); err != nil {
		return err
	}
	w.Status = domain.StatusCancelled
	w.CancelledAt = now
	return nil
}

// ToRegistration converts a confirmed entry into the registration that
// consumes its slot.
func (w *WaitlistEntry) ToRegistration(now time.Time) *Registration {
	r := NewRegistration(w.EventID, Applicant{Contact: w.Contact, Children: w.Children}, now)
	r.WaitlistEntryID = w.ID
	return r
}
