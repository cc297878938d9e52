// Package memory provides an in-process registration store. Transactions are
// serialised by one mutex and rolled back by restoring a snapshot, which
// gives the same atomicity the PostgreSQL store gets from row locks.
package memory

import (
	"context"
	"maps"
	"sync"

	"knallbonbon/internal/domain/entities"
	"knallbonbon/internal/ports/output"
)

var _ output.Store = (*Store)(nil)

type state struct {
	events        map[string]entities.Event
	registrations map[string]entities.Registration
	entries       map[string]entities.WaitlistEntry
	settings      *entities.Settings
}

func (s *state) clone() *state {
	c := &state{
		events:        maps.Clone(s.events),
		registrations: maps.Clone(s.registrations),
		entries:       maps.Clone(s.entries),
	}
	if s.settings != nil {
		settings := *s.settings
		c.settings = &settings
	}
	return c
}

// Store keeps everything in maps guarded by mu.
type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store {
	return &Store{st: &state{
		events:        map[string]entities.Event{},
		registrations: map[string]entities.Registration{},
		entries:       map[string]entities.WaitlistEntry{},
	}}
}

// Repos returns repositories that lock per call.
func (s *Store) Repos() output.Repositories {
	return s.repos(false)
}

func (s *Store) repos(inTx bool) output.Repositories {
	return output.Repositories{
		Events:        &eventRepo{store: s, inTx: inTx},
		Registrations: &registrationRepo{store: s, inTx: inTx},
		Waitlist:      &waitlistRepo{store: s, inTx: inTx},
	}
}

// WithinTx holds the store lock for the whole of fn.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, r output.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	backup := s.st.clone()
	if err := fn(ctx, s.repos(true)); err != nil {
		s.st = backup
		return err
	}
	return nil
}

// SettingsRepository returns the settings repository backed by this store.
func (s *Store) SettingsRepository() output.SettingsRepository {
	return &settingsRepo{store: s}
}

// with runs fn on the current state, taking the lock unless the caller is
// inside WithinTx and holds it already.
func (s *Store) with(inTx bool, fn func(st *state) error) error {
	if !inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.st)
}
