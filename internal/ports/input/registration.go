package input

import (
	"context"

	"knallbonbon/internal/domain/entities"
)

// SubmitResult holds exactly one of Registration or WaitlistEntry.
type SubmitResult struct {
	Registration  *entities.Registration  `json:"registration,omitempty"`
	WaitlistEntry *entities.WaitlistEntry `json:"waitlistEntry,omitempty"`
}

// Waitlisted reports whether the submission landed on the waitlist.
func (r SubmitResult) Waitlisted() bool { return r.WaitlistEntry != nil }

type RegistrationUseCase interface {
	Submit(ctx context.Context, eventID string, applicant entities.Applicant) (*SubmitResult, error)
	// PromoteNext promotes the head of the waitlist if a slot is free. It
	// returns nil when nothing was promoted.
	PromoteNext(ctx context.Context, eventID string) (*entities.WaitlistEntry, error)
	Confirm(ctx context.Context, entryID string) (*entities.Registration, error)
	CancelRegistration(ctx context.Context, registrationID string) (*entities.Registration, error)
	CancelEntry(ctx context.Context, entryID string) (*entities.WaitlistEntry, error)
	GetRegistration(ctx context.Context, id string) (*entities.Registration, error)
	GetEntry(ctx context.Context, id string) (*entities.WaitlistEntry, error)
}
