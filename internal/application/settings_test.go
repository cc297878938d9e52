package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"knallbonbon/internal/domain"
	"knallbonbon/internal/domain/entities"
	"knallbonbon/internal/log"
)

type countingSettingsRepo struct {
	stored *entities.Settings
	gets   int
	err    error
}

func (r *countingSettingsRepo) Get(context.Context) (entities.Settings, bool, error) {
	r.gets++
	if r.err != nil {
		return entities.Settings{}, false, r.err
	}
	if r.stored == nil {
		return entities.Settings{}, false, nil
	}
	return *r.stored, true, nil
}

func (r *countingSettingsRepo) Save(_ context.Context, s entities.Settings) error {
	r.stored = &s
	return nil
}

func TestSettingsService_DefaultsWhenNothingStored(t *testing.T) {
	repo := &countingSettingsRepo{}
	svc := NewSettingsService(repo, entities.DefaultSettings(), 0, log.Discard())

	s, err := svc.Current(context.Background())
	require.NoError(t, err)
	require.Equal(t, entities.DefaultSettings(), s)
}

func TestSettingsService_CachesWithinTTL(t *testing.T) {
	repo := &countingSettingsRepo{}
	svc := NewSettingsService(repo, entities.DefaultSettings(), time.Minute, log.Discard())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Current(ctx)
		require.NoError(t, err)
	}
	require.Equal(t, 1, repo.gets)

	// An update is visible immediately.
	updated := entities.Settings{ConfirmationDeadlineDays: 2, EnableAutoPromotion: false}
	require.NoError(t, svc.Update(ctx, updated))
	s, err := svc.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, updated, s)
	require.Equal(t, 1, repo.gets)
}

func TestSettingsService_ExpiresAfterTTL(t *testing.T) {
	repo := &countingSettingsRepo{}
	svc := NewSettingsService(repo, entities.DefaultSettings(), 20*time.Millisecond, log.Discard())
	ctx := context.Background()

	_, err := svc.Current(ctx)
	require.NoError(t, err)

	// Another instance changed the stored row.
	repo.stored = &entities.Settings{ConfirmationDeadlineDays: 1, EnableAutoPromotion: true}
	require.Eventually(t, func() bool {
		s, err := svc.Current(ctx)
		return err == nil && s.ConfirmationDeadlineDays == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSettingsService_RejectsInvalid(t *testing.T) {
	repo := &countingSettingsRepo{}
	svc := NewSettingsService(repo, entities.DefaultSettings(), 0, log.Discard())

	err := svc.Update(context.Background(), entities.Settings{ConfirmationDeadlineDays: -1})
	require.ErrorIs(t, err, domain.ErrInvalidSettings)
	require.Nil(t, repo.stored)
}

func TestSettingsService_StoreError(t *testing.T) {
	repo := &countingSettingsRepo{err: errors.New("connection reset")}
	svc := NewSettingsService(repo, entities.DefaultSettings(), time.Minute, log.Discard())

	_, err := svc.Current(context.Background())
	require.Error(t, err)
}

func TestDeadlineChangeOnlyAffectsNewPromotions(t *testing.T) {
	f := newFixture(t, entities.DefaultSettings())
	ctx := context.Background()
	ev := f.createEvent(t, 2)

	a := f.submit(t, ev.ID, "a")
	b := f.submit(t, ev.ID, "b")
	w1 := f.submit(t, ev.ID, "w1")
	w2 := f.submit(t, ev.ID, "w2")

	_, err := f.waitlist.CancelRegistration(ctx, a.reg.ID)
	require.NoError(t, err)
	require.NoError(t, f.settings.Update(ctx, entities.Settings{ConfirmationDeadlineDays: 2, EnableAutoPromotion: true}))
	_, err = f.waitlist.CancelRegistration(ctx, b.reg.ID)
	require.NoError(t, err)

	first, err := f.waitlist.GetEntry(ctx, w1.entry.ID)
	require.NoError(t, err)
	second, err := f.waitlist.GetEntry(ctx, w2.entry.ID)
	require.NoError(t, err)
	now := f.clock.Now()
	require.Equal(t, now.AddDate(0, 0, 7), first.ConfirmationDeadline)
	require.Equal(t, now.AddDate(0, 0, 2), second.ConfirmationDeadline)
}
