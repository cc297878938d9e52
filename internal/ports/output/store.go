package output

import "context"

// Repositories groups the repositories that share one connection or
// transaction.
type Repositories struct {
	Events        EventRepository
	Registrations RegistrationRepository
	Waitlist      WaitlistRepository
}

// Store is the registration store: the single source of truth for events,
// registrations and waitlist entries.
type Store interface {
	// Repos returns repositories that run outside of any transaction.
	Repos() Repositories
	// WithinTx runs fn in one transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error
}
