package application

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"knallbonbon/internal/domain"
	"knallbonbon/internal/domain/entities"
	"knallbonbon/internal/infrastructure/memory"
	"knallbonbon/internal/log"
)

// recordingNotifier keeps every dispatched notification.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []entities.Notification
	err  error
}

func (r *recordingNotifier) Dispatch(_ context.Context, n entities.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.err
}

func (r *recordingNotifier) templates() []entities.TemplateID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.TemplateID, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.Template)
	}
	return out
}

func (r *recordingNotifier) byTemplate(tpl entities.TemplateID) []entities.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.Notification
	for _, n := range r.sent {
		if n.Template == tpl {
			out = append(out, n)
		}
	}
	return out
}

func (r *recordingNotifier) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store    *memory.Store
	settings *SettingsService
	waitlist *WaitlistService
	events   *EventService
	sweeper  *Sweeper
	notes    *recordingNotifier
	clock    *fakeClock
}

func newFixture(t testing.TB, settings entities.Settings) *fixture {
	t.Helper()
	logger := log.Discard()
	store := memory.New()
	f := &fixture{
		store: store,
		notes: &recordingNotifier{},
		clock: &fakeClock{now: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)},
	}
	f.settings = NewSettingsService(store.SettingsRepository(), settings, 0, logger)
	f.waitlist = NewWaitlistService(store, f.settings, f.notes, "de", logger, WithClock(f.clock.Now))
	f.events = NewEventService(store, f.waitlist, f.settings, logger)
	f.sweeper = NewSweeper(store, f.waitlist, f.settings, 0, logger)
	return f
}

func (f *fixture) createEvent(t testing.TB, capacity int) *entities.Event {
	t.Helper()
	ev := &entities.Event{Title: "Knallbonbon Sommerfest", Capacity: capacity}
	require.NoError(t, f.events.CreateEvent(context.Background(), ev))
	return ev
}

func applicant(name string) entities.Applicant {
	return entities.Applicant{
		Contact: entities.Contact{
			FirstName: name,
			LastName:  "Muster",
			Email:     fmt.Sprintf("%s@example.org", name),
		},
		Children: []entities.Child{{FirstName: name + "-Kind"}},
	}
}

type submission struct {
	reg   *entities.Registration
	entry *entities.WaitlistEntry
}

func (f *fixture) submit(t testing.TB, eventID, name string) submission {
	t.Helper()
	res, err := f.waitlist.Submit(context.Background(), eventID, applicant(name))
	require.NoError(t, err)
	return submission{reg: res.Registration, entry: res.WaitlistEntry}
}

func (f *fixture) entryStatus(t testing.TB, id string) domain.Status {
	t.Helper()
	e, err := f.waitlist.GetEntry(context.Background(), id)
	require.NoError(t, err)
	return e.Status
}

func (f *fixture) occupancy(t testing.TB, eventID string) int {
	t.Helper()
	occ, err := f.events.GetOccupancy(context.Background(), eventID)
	require.NoError(t, err)
	return occ.Confirmed
}
