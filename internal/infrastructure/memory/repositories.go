package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"knallbonbon/internal/domain"
	"knallbonbon/internal/domain/entities"
	"knallbonbon/internal/ports/output"
)

var (
	_ output.EventRepository        = (*eventRepo)(nil)
	_ output.RegistrationRepository = (*registrationRepo)(nil)
	_ output.WaitlistRepository     = (*waitlistRepo)(nil)
	_ output.SettingsRepository     = (*settingsRepo)(nil)
)

type eventRepo struct {
	store *Store
	inTx  bool
}

func (r *eventRepo) Create(_ context.Context, event *entities.Event) error {
	return r.store.with(r.inTx, func(st *state) error {
		if _, exists := st.events[event.ID]; exists {
			return fmt.Errorf("event %s already exists", event.ID)
		}
		st.events[event.ID] = *event
		return nil
	})
}

func (r *eventRepo) FindByID(_ context.Context, id string) (*entities.Event, error) {
	var out entities.Event
	err := r.store.with(r.inTx, func(st *state) error {
		e, ok := st.events[id]
		if !ok {
			return fmt.Errorf("get event %s: %w", id, domain.ErrEventNotFound)
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByIDForUpdate needs no extra locking: transactions already hold the
// store mutex.
func (r *eventRepo) FindByIDForUpdate(ctx context.Context, id string) (*entities.Event, error) {
	return r.FindByID(ctx, id)
}

func (r *eventRepo) List(_ context.Context) ([]entities.Event, error) {
	var out []entities.Event
	err := r.store.with(r.inTx, func(st *state) error {
		for _, e := range st.events {
			out = append(out, e)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b entities.Event) int {
		if c := a.StartsAt.Compare(b.StartsAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, err
}

func (r *eventRepo) Update(_ context.Context, event *entities.Event) error {
	return r.store.with(r.inTx, func(st *state) error {
		if _, ok := st.events[event.ID]; !ok {
			return fmt.Errorf("update event %s: %w", event.ID, domain.ErrEventNotFound)
		}
		st.events[event.ID] = *event
		return nil
	})
}

type registrationRepo struct {
	store *Store
	inTx  bool
}

func (r *registrationRepo) Create(_ context.Context, reg *entities.Registration) error {
	return r.store.with(r.inTx, func(st *state) error {
		if _, exists := st.registrations[reg.ID]; exists {
			return fmt.Errorf("registration %s already exists", reg.ID)
		}
		st.registrations[reg.ID] = *reg
		return nil
	})
}

func (r *registrationRepo) FindByID(_ context.Context, id string) (*entities.Registration, error) {
	var out entities.Registration
	err := r.store.with(r.inTx, func(st *state) error {
		reg, ok := st.registrations[id]
		if !ok {
			return fmt.Errorf("get registration %s: %w", id, domain.ErrRegistrationNotFound)
		}
		out = reg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *registrationRepo) filter(match func(entities.Registration) bool) []entities.Registration {
	var out []entities.Registration
	_ = r.store.with(r.inTx, func(st *state) error {
		for _, reg := range st.registrations {
			if match(reg) {
				out = append(out, reg)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b entities.Registration) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (r *registrationRepo) FindByEventID(_ context.Context, eventID string) ([]entities.Registration, error) {
	return r.filter(func(reg entities.Registration) bool { return reg.EventID == eventID }), nil
}

func (r *registrationRepo) FindByEventIDAndStatus(_ context.Context, eventID string, status domain.Status) ([]entities.Registration, error) {
	return r.filter(func(reg entities.Registration) bool {
		return reg.EventID == eventID && reg.Status == status
	}), nil
}

func (r *registrationRepo) CountByEventIDAndStatus(ctx context.Context, eventID string, status domain.Status) (int, error) {
	regs, err := r.FindByEventIDAndStatus(ctx, eventID, status)
	return len(regs), err
}

func (r *registrationRepo) HasConfirmed(_ context.Context, eventID, email string) (bool, error) {
	email = entities.NormalizeEmail(email)
	regs := r.filter(func(reg entities.Registration) bool {
		return reg.EventID == eventID && reg.Status == domain.StatusConfirmed && reg.Contact.Email == email
	})
	return len(regs) > 0, nil
}

func (r *registrationRepo) UpdateIfStatus(_ context.Context, reg *entities.Registration, expected domain.Status) (bool, error) {
	updated := false
	err := r.store.with(r.inTx, func(st *state) error {
		current, ok := st.registrations[reg.ID]
		if !ok {
			return fmt.Errorf("update registration %s: %w", reg.ID, domain.ErrRegistrationNotFound)
		}
		if current.Status != expected {
			return nil
		}
		st.registrations[reg.ID] = *reg
		updated = true
		return nil
	})
	return updated, err
}

type waitlistRepo struct {
	store *Store
	inTx  bool
}

func (r *waitlistRepo) Create(_ context.Context, entry *entities.WaitlistEntry) error {
	return r.store.with(r.inTx, func(st *state) error {
		if _, exists := st.entries[entry.ID]; exists {
			return fmt.Errorf("waitlist entry %s already exists", entry.ID)
		}
		st.entries[entry.ID] = *entry
		return nil
	})
}

func (r *waitlistRepo) FindByID(_ context.Context, id string) (*entities.WaitlistEntry, error) {
	var out entities.WaitlistEntry
	err := r.store.with(r.inTx, func(st *state) error {
		e, ok := st.entries[id]
		if !ok {
			return fmt.Errorf("get waitlist entry %s: %w", id, domain.ErrEntryNotFound)
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// queueOrder is FIFO by submission time, ties broken by ID.
func queueOrder(a, b entities.WaitlistEntry) int {
	if c := a.SubmittedAt.Compare(b.SubmittedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

func (r *waitlistRepo) filter(match func(entities.WaitlistEntry) bool, order func(a, b entities.WaitlistEntry) int) []entities.WaitlistEntry {
	var out []entities.WaitlistEntry
	_ = r.store.with(r.inTx, func(st *state) error {
		for _, e := range st.entries {
			if match(e) {
				out = append(out, e)
			}
		}
		return nil
	})
	slices.SortFunc(out, order)
	return out
}

func (r *waitlistRepo) FindByEventIDAndStatus(_ context.Context, eventID string, status domain.Status) ([]entities.WaitlistEntry, error) {
	return r.filter(func(e entities.WaitlistEntry) bool {
		return e.EventID == eventID && e.Status == status
	}, queueOrder), nil
}

func (r *waitlistRepo) FindNextWaiting(ctx context.Context, eventID string) (*entities.WaitlistEntry, error) {
	waiting, _ := r.FindByEventIDAndStatus(ctx, eventID, domain.StatusWaiting)
	if len(waiting) == 0 {
		return nil, nil
	}
	return &waiting[0], nil
}

func (r *waitlistRepo) FindOverdue(_ context.Context, now time.Time, limit int) ([]entities.WaitlistEntry, error) {
	out := r.filter(func(e entities.WaitlistEntry) bool {
		return e.Status == domain.StatusPromoted && e.ConfirmationDeadline.Before(now)
	}, func(a, b entities.WaitlistEntry) int {
		if c := a.ConfirmationDeadline.Compare(b.ConfirmationDeadline); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *waitlistRepo) CountByEventIDAndStatus(ctx context.Context, eventID string, status domain.Status) (int, error) {
	entries, err := r.FindByEventIDAndStatus(ctx, eventID, status)
	return len(entries), err
}

func (r *waitlistRepo) HasOpen(_ context.Context, eventID, email string) (bool, error) {
	email = entities.NormalizeEmail(email)
	open := r.filter(func(e entities.WaitlistEntry) bool {
		return e.EventID == eventID && e.Contact.Email == email && !e.Status.Terminal()
	}, queueOrder)
	return len(open) > 0, nil
}

func (r *waitlistRepo) UpdateIfStatus(_ context.Context, entry *entities.WaitlistEntry, expected domain.Status) (bool, error) {
	updated := false
	err := r.store.with(r.inTx, func(st *state) error {
		current, ok := st.entries[entry.ID]
		if !ok {
			return fmt.Errorf("update waitlist entry %s: %w", entry.ID, domain.ErrEntryNotFound)
		}
		if current.Status != expected {
			return nil
		}
		st.entries[entry.ID] = *entry
		updated = true
		return nil
	})
	return updated, err
}

type settingsRepo struct {
	store *Store
}

func (r *settingsRepo) Get(_ context.Context) (entities.Settings, bool, error) {
	var (
		out entities.Settings
		ok  bool
	)
	_ = r.store.with(false, func(st *state) error {
		if st.settings != nil {
			out, ok = *st.settings, true
		}
		return nil
	})
	return out, ok, nil
}

func (r *settingsRepo) Save(_ context.Context, settings entities.Settings) error {
	return r.store.with(false, func(st *state) error {
		st.settings = &settings
		return nil
	})
}
