package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"knallbonbon/internal/domain"
	"knallbonbon/internal/domain/entities"
)

func TestWaitlist_CancelExpireConfirmScenario(t *testing.T) {
	f := newFixture(t, entities.DefaultSettings())
	ctx := context.Background()
	ev := f.createEvent(t, 2)

	s1 := f.submit(t, ev.ID, "s1")
	s2 := f.submit(t, ev.ID, "s2")
	require.NotNil(t, s1.reg, "S1 should be confirmed directly")
	require.NotNil(t, s2.reg, "S2 should be confirmed directly")

	s3 := f.submit(t, ev.ID, "s3")
	s4 := f.submit(t, ev.ID, "s4")
	require.NotNil(t, s3.entry, "S3 should be waitlisted")
	require.NotNil(t, s4.entry, "S4 should be waitlisted")
	require.Equal(t, 2, f.occupancy(t, ev.ID))

	// Cancel S1: S3 is promoted with a deadline of now + 7 days.
	cancelledAt := f.clock.Now()
	_, err := f.waitlist.CancelRegistration(ctx, s1.reg.ID)
	require.NoError(t, err)

	promoted, err := f.waitlist.GetEntry(ctx, s3.entry.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPromoted, promoted.Status)
	require.Equal(t, cancelledAt.AddDate(0, 0, 7), promoted.ConfirmationDeadline)
	require.Equal(t, domain.StatusWaiting, f.entryStatus(t, s4.entry.ID))
	require.Len(t, f.notes.byTemplate(entities.TemplatePromotionNotice), 1)

	// S3 lets the deadline pass: the sweep expires S3 and promotes S4.
	f.clock.Advance(8 * 24 * time.Hour)
	report, err := f.sweeper.Sweep(ctx, f.clock.Now())
	require.NoError(t, err)
	require.Equal(t, []string{s3.entry.ID}, report.Expired)
	require.Equal(t, []string{s4.entry.ID}, report.Promoted)
	require.Empty(t, report.Failures)

	expired, err := f.waitlist.GetEntry(ctx, s3.entry.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusExpired, expired.Status)
	require.False(t, expired.ExpiredAt.IsZero())
	require.Len(t, f.notes.byTemplate(entities.TemplateAdminExpirationNotice), 1)

	// S4 confirms in time: occupancy is back at two.
	f.clock.Advance(24 * time.Hour)
	reg, err := f.waitlist.Confirm(ctx, s4.entry.ID)
	require.NoError(t, err)
	require.Equal(t, s4.entry.ID, reg.WaitlistEntryID)
	require.Equal(t, 2, f.occupancy(t, ev.ID))

	regs, err := f.events.GetRegistrations(ctx, ev.ID)
	require.NoError(t, err)
	confirmed := map[string]bool{}
	for _, r := range regs {
		if r.Status == domain.StatusConfirmed {
			confirmed[r.Contact.Email] = true
		}
	}
	require.Equal(t, map[string]bool{"s2@example.org": true, "s4@example.org": true}, confirmed)
	require.Len(t, f.notes.byTemplate(entities.TemplateConfirmationSuccess), 1)
	require.Len(t, f.notes.byTemplate(entities.TemplateAdminConfirmationNotice), 1)
}

func TestWaitlist_AutoPromotionDisabled(t *testing.T) {
	f := newFixture(t, entities.Settings{ConfirmationDeadlineDays: 3, EnableAutoPromotion: false})
	ctx := context.Background()
	ev := f.createEvent(t, 1)

	first := f.submit(t, ev.ID, "first")
	second := f.submit(t, ev.ID, "second")
	require.NotNil(t, second.entry)

	_, err := f.waitlist.CancelRegistration(ctx, first.reg.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusWaiting, f.entryStatus(t, second.entry.ID), "no promotion without the admin")
	require.Empty(t, f.notes.byTemplate(entities.TemplatePromotionNotice))

	// A new applicant must not jump the queue for the freed slot.
	third := f.submit(t, ev.ID, "third")
	require.NotNil(t, third.entry)

	entry, err := f.waitlist.PromoteNext(ctx, ev.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, second.entry.ID, entry.ID)
	require.Equal(t, f.clock.Now().AddDate(0, 0, 3), entry.ConfirmationDeadline)

	// The only slot is reserved now.
	entry, err = f.waitlist.PromoteNext(ctx, ev.ID)
	require.NoError(t, err)
	require.Nil(t, entry)
	require.Equal(t, domain.StatusWaiting, f.entryStatus(t, third.entry.ID))
}

func TestWaitlist_DuplicateSubmission(t *testing.T) {
	f := newFixture(t, entities.DefaultSettings())
	ctx := context.Background()
	ev := f.createEvent(t, 1)

	f.submit(t, ev.ID, "anna")
	a := applicant("anna")
	a.Contact.Email = "  ANNA@example.org "
	_, err := f.waitlist.Submit(ctx, ev.ID, a)
	require.ErrorIs(t, err, domain.ErrDuplicateSubmission)

	f.submit(t, ev.ID, "ben")
	_, err = f.waitlist.Submit(ctx, ev.ID, applicant("ben"))
	require.ErrorIs(t, err, domain.ErrDuplicateSubmission, "open waitlist entries count as well")

	other := f.createEvent(t, 1)
	f.submit(t, other.ID, "anna")
}

func TestWaitlist_ResubmitAfterCancel(t *testing.T) {
	f := newFixture(t, entities.DefaultSettings())
	ctx := context.Background()
	ev := f.createEvent(t, 1)

	first := f.submit(t, ev.ID, "anna")
	_, err := f.waitlist.CancelRegistration(ctx, first.reg.ID)
	require.NoError(t, err)

	again := f.submit(t, ev.ID, "anna")
	require.NotNil(t, again.reg)
}

func TestWaitlist_SubmitValidation(t *testing.T) {
	f := newFixture(t, entities.DefaultSettings())
	ctx := context.Background()
	ev := f.createEvent(t, 1)

	a := applicant("anna")
	a.Children = nil
	_, err := f.waitlist.Submit(ctx, ev.ID, a)
	require.ErrorIs(t, err, domain.ErrInvalidApplicant)

	_, err = f.waitlist.Submit(ctx, "missing", applicant("anna"))
	require.ErrorIs(t, err, domain.ErrEventNotFound)
	require.Empty(t, f.notes.templates())
}

func TestWaitlist_SubmitNotifications(t *testing.T) {
	f := newFixture(t, entities.DefaultSettings())
	ev := f.createEvent(t, 1)

	f.submit(t, ev.ID, "anna")
	f.submit(t, ev.ID, "ben")

	confirmations := f.notes.byTemplate(entities.TemplateUserConfirmation)
	require.Len(t, confirmations, 2)
	require.Equal(t, false, confirmations[0].Data["Waitlisted"])
	require.Equal(t, true, confirmations[1].Data["Waitlisted"])
	require.Equal(t, "anna@example.org", confirmations[0].Recipient.Email)
	require.Equal(t, "de", confirmations[0].Recipient.Locale)
	require.Equal(t, ev.Title, confirmations[0].Data["EventTitle"])

	admin := f.notes.byTemplate(entities.TemplateAdminNewRegistration)
	require.Len(t, admin, 2)
	require.Empty(t, admin[0].Recipient.Email, "the sender resolves the admin address")
}

func TestWaitlist_DispatchFailureDoesNotRollBack(t *testing.T) {
	f := newFixture(t, entities.DefaultSettings())
	f.notes.err = errors.New("queue full")
	ev := f.createEvent(t, 1)

	res := f.submit(t, ev.ID, "anna")
	require.NotNil(t, res.reg)
	require.Equal(t, 1, f.occupancy(t, ev.ID))
}

func TestWaitlist_FIFOPromotion(t *testing.T) {
	f := newFixture(t, entities.DefaultSettings())
	ctx := context.Background()
	ev := f.createEvent(t, 1)

	holder := f.submit(t, ev.ID, "holder")
	var queued []string
	for i := 0; i < 5; i++ {
		queued = append(queued, f.submit(t, ev.ID, fmt.Sprintf("w%d", i)).entry.ID)
	}

	waitlist, err := f.events.GetWaitlist(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, waitlist, 5)
	for i, e := range waitlist {
		require.Equal(t, queued[i], e.ID)
	}

	_, err = f.waitlist.CancelRegistration(ctx, holder.reg.ID)
	require.NoError(t, err)
	for i, id := range queued {
		require.Equal(t, domain.StatusPromoted, f.entryStatus(t, id), "entry %d should be next", i)
		// Withdrawing the promotion hands the slot to the next in line.
		_, err := f.waitlist.CancelEntry(ctx, id)
		require.NoError(t, err)
	}
}

func TestWaitlist_ConfirmTwice(t *testing.T) {
	f := newFixture(t, entities.DefaultSettings())
	ctx := context.Background()
	ev := f.createEvent(t, 1)

	holder := f.submit(t, ev.ID, "holder")
	waiting := f.submit(t, ev.ID, "waiting")
	_, err := f.waitlist.CancelRegistration(ctx, holder.reg.ID)
	require.NoError(t, err)

	_, err = f.waitlist.Confirm(ctx, waiting.entry.ID)
	require.NoError(t, err)
	_, err = f.waitlist.Confirm(ctx, waiting.entry.ID)
	require.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	regs, err := f.events.GetRegistrations(ctx, ev.ID)
	require.NoError(t, err)
	count := 0
	for _, r := range regs {
		if r.WaitlistEntryID == waiting.entry.ID {
			count++
		}
	}
	require.Equal(t, 1, count, "no duplicate registration")
}

func TestWaitlist_ConfirmWaitingEntryRejected(t *testing.T) {
	f := newFixture(t, entities.DefaultSettings())
	ev := f.createEvent(t, 1)

	f.submit(t, ev.ID, "holder")
	waiting := f.submit(t, ev.ID, "waiting")
	_, err := f.waitlist.Confirm(context.Background(), waiting.entry.ID)
	require.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestWaitlist_ConfirmAfterDeadlineRejected(t *testing.T) {
	f := newFixture(t, entities.Settings{ConfirmationDeadlineDays: 1, EnableAutoPromotion: true})
	ctx := context.Background()
	ev := f.createEvent(t, 1)

	holder := f.submit(t, ev.ID, "holder")
	waiting := f.submit(t, ev.ID, "waiting")
	_, err := f.waitlist.CancelRegistration(ctx, holder.reg.ID)
	require.NoError(t, err)

	f.clock.Advance(25 * time.Hour)
	_, err = f.waitlist.Confirm(ctx, waiting.entry.ID)
	require.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	require.Equal(t, domain.StatusPromoted, f.entryStatus(t, waiting.entry.ID), "left for the sweep")
}

func TestWaitlist_ConfirmWhenCapacityTaken(t *testing.T) {
	f := newFixture(t, entities.DefaultSettings())
	ctx := context.Background()
	ev := f.createEvent(t, 1)

	holder := f.submit(t, ev.ID, "holder")
	waiting := f.submit(t, ev.ID, "waiting")
	_, err := f.waitlist.CancelRegistration(ctx, holder.reg.ID)
	require.NoError(t, err)

	// An operator squeezes someone in directly through the store.
	direct := entities.NewRegistration(ev.ID, applicant("direct"), f.clock.Now())
	require.NoError(t, f.store.Repos().Registrations.Create(ctx, direct))

	_, err = f.waitlist.Confirm(ctx, waiting.entry.ID)
	require.ErrorIs(t, err, domain.ErrCapacityExceeded)
	require.Equal(t, domain.StatusPromoted, f.entryStatus(t, waiting.entry.ID))
	require.Equal(t, 1, f.occupancy(t, ev.ID))
}

func TestWaitlist_CancelEntry(t *testing.T) {
	f := newFixture(t, entities.DefaultSettings())
	ctx := context.Background()
	ev := f.createEvent(t, 1)

	f.submit(t, ev.ID, "holder")
	waiting := f.submit(t, ev.ID, "waiting")

	entry, err := f.waitlist.CancelEntry(ctx, waiting.entry.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, entry.Status)

	_, err = f.waitlist.CancelEntry(ctx, waiting.entry.ID)
	require.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	_, err = f.waitlist.CancelEntry(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestWaitlist_CancelRegistrationTwice(t *testing.T) {
	f := newFixture(t, entities.DefaultSettings())
	ctx := context.Background()
	ev := f.createEvent(t, 1)

	res := f.submit(t, ev.ID, "anna")
	_, err := f.waitlist.CancelRegistration(ctx, res.reg.ID)
	require.NoError(t, err)
	_, err = f.waitlist.CancelRegistration(ctx, res.reg.ID)
	require.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	require.Equal(t, 0, f.occupancy(t, ev.ID))
}

func TestWaitlist_PromoteNextIsSlotBySlot(t *testing.T) {
	f := newFixture(t, entities.Settings{ConfirmationDeadlineDays: 7, EnableAutoPromotion: false})
	ctx := context.Background()
	ev := f.createEvent(t, 2)

	a := f.submit(t, ev.ID, "a")
	b := f.submit(t, ev.ID, "b")
	w1 := f.submit(t, ev.ID, "w1")
	w2 := f.submit(t, ev.ID, "w2")
	w3 := f.submit(t, ev.ID, "w3")

	_, err := f.waitlist.CancelRegistration(ctx, a.reg.ID)
	require.NoError(t, err)
	_, err = f.waitlist.CancelRegistration(ctx, b.reg.ID)
	require.NoError(t, err)

	// Two free slots: exactly two promotions, however often it is called.
	for i := 0; i < 5; i++ {
		_, err := f.waitlist.PromoteNext(ctx, ev.ID)
		require.NoError(t, err)
	}
	require.Equal(t, domain.StatusPromoted, f.entryStatus(t, w1.entry.ID))
	require.Equal(t, domain.StatusPromoted, f.entryStatus(t, w2.entry.ID))
	require.Equal(t, domain.StatusWaiting, f.entryStatus(t, w3.entry.ID))
	require.Len(t, f.notes.byTemplate(entities.TemplatePromotionNotice), 2)

	occ, err := f.events.GetOccupancy(ctx, ev.ID)
	require.NoError(t, err)
	require.Equal(t, 2, occ.FreeSlots)
	require.Equal(t, 2, occ.Promoted)
	require.Equal(t, 1, occ.Waiting)
}

func TestWaitlist_ConcurrentSubmitsNeverOverbook(t *testing.T) {
	f := newFixture(t, entities.DefaultSettings())
	ctx := context.Background()
	ev := f.createEvent(t, 3)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.waitlist.Submit(ctx, ev.ID, applicant(fmt.Sprintf("c%d", i)))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	occ, err := f.events.GetOccupancy(ctx, ev.ID)
	require.NoError(t, err)
	require.Equal(t, 3, occ.Confirmed)
	require.Equal(t, n-3, occ.Waiting)
}

func TestWaitlist_ConfirmRacesExpire(t *testing.T) {
	f := newFixture(t, entities.Settings{ConfirmationDeadlineDays: 1, EnableAutoPromotion: false})
	ctx := context.Background()
	ev := f.createEvent(t, 1)

	holder := f.submit(t, ev.ID, "holder")
	waiting := f.submit(t, ev.ID, "waiting")
	_, err := f.waitlist.CancelRegistration(ctx, holder.reg.ID)
	require.NoError(t, err)
	_, err = f.waitlist.PromoteNext(ctx, ev.ID)
	require.NoError(t, err)

	entry, err := f.waitlist.GetEntry(ctx, waiting.entry.ID)
	require.NoError(t, err)
	afterDeadline := entry.ConfirmationDeadline.Add(time.Second)

	var (
		wg         sync.WaitGroup
		confirmErr error
		expired    bool
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, confirmErr = f.waitlist.Confirm(ctx, entry.ID)
	}()
	go func() {
		defer wg.Done()
		_, expired, _ = f.waitlist.expire(ctx, entry.ID, afterDeadline)
	}()
	wg.Wait()

	final := f.entryStatus(t, entry.ID)
	if expired {
		require.Equal(t, domain.StatusExpired, final)
		require.ErrorIs(t, confirmErr, domain.ErrInvalidStateTransition)
		require.Equal(t, 0, f.occupancy(t, ev.ID))
	} else {
		require.NoError(t, confirmErr)
		require.Equal(t, domain.StatusConfirmed, final)
		require.Equal(t, 1, f.occupancy(t, ev.ID))
	}
}
