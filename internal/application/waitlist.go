package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"knallbonbon/internal/domain"
	"knallbonbon/internal/domain/entities"
	"knallbonbon/internal/log"
	"knallbonbon/internal/ports/input"
	"knallbonbon/internal/ports/output"
)

var _ input.RegistrationUseCase = (*WaitlistService)(nil)

// WaitlistService runs submissions, promotions, confirmations and
// cancellations. Every capacity decision happens inside a store transaction
// that holds the event lock.
type WaitlistService struct {
	store    output.Store
	settings input.SettingsUseCase
	notify   *notifier
	logger   *logrus.Entry
	now      func() time.Time
}

// Option customises a WaitlistService.
type Option func(*WaitlistService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *WaitlistService) { s.now = now }
}

func NewWaitlistService(
	store output.Store,
	settings input.SettingsUseCase,
	notifications output.Notifier,
	defaultLocale string,
	logger *logrus.Entry,
	opts ...Option,
) *WaitlistService {
	s := &WaitlistService{
		store:    store,
		settings: settings,
		notify:   &notifier{out: notifications, defaultLocale: defaultLocale, logger: logger},
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit registers the applicant directly while unreserved slots are left
// and nobody is queued; otherwise the applicant joins the waitlist.
func (s *WaitlistService) Submit(ctx context.Context, eventID string, applicant entities.Applicant) (result *input.SubmitResult, err error) {
	ctx, span := tracer.Start(ctx, "waitlist.Submit", trace.WithAttributes(attribute.String("event.id", eventID)))
	defer func() { endSpan(span, err) }()

	if err := applicant.Normalize(); err != nil {
		return nil, err
	}
	now := s.now()
	result = &input.SubmitResult{}
	var event *entities.Event

	err = s.store.WithinTx(ctx, func(ctx context.Context, r output.Repositories) error {
		ev, err := r.Events.FindByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		event = ev
		if err := checkDuplicate(ctx, r, eventID, applicant.Contact.Email); err != nil {
			return err
		}
		occ, err := NewLedger(r).Snapshot(ctx, ev)
		if err != nil {
			return err
		}
		if unreserved(occ) > 0 && occ.Waiting == 0 {
			reg := entities.NewRegistration(eventID, applicant, now)
			if err := r.Registrations.Create(ctx, reg); err != nil {
				return fmt.Errorf("create registration: %w", err)
			}
			result.Registration = reg
			return nil
		}
		entry := entities.NewWaitlistEntry(eventID, applicant, now)
		if err := r.Waitlist.Create(ctx, entry); err != nil {
			return fmt.Errorf("create waitlist entry: %w", err)
		}
		result.WaitlistEntry = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger := s.logger.WithField(log.FldEvent, eventID)
	c := applicant.Contact
	if reg := result.Registration; reg != nil {
		logger.WithField(log.FldRegistration, reg.ID).Info("Registration confirmed")
		s.notify.toApplicant(ctx, entities.TemplateUserConfirmation, event, reg.ID, c, applicant.Children, map[string]any{"Waitlisted": false})
		s.notify.toAdmin(ctx, entities.TemplateAdminNewRegistration, event, reg.ID, c, applicant.Children, map[string]any{"Waitlisted": false})
		return result, nil
	}
	entry := result.WaitlistEntry
	logger.WithField(log.FldEntry, entry.ID).Info("Event full, applicant added to waitlist")
	s.notify.toApplicant(ctx, entities.TemplateUserConfirmation, event, entry.ID, c, applicant.Children, map[string]any{"Waitlisted": true})
	s.notify.toAdmin(ctx, entities.TemplateAdminNewRegistration, event, entry.ID, c, applicant.Children, map[string]any{"Waitlisted": true})
	return result, nil
}

func checkDuplicate(ctx context.Context, r output.Repositories, eventID, email string) error {
	registered, err := r.Registrations.HasConfirmed(ctx, eventID, email)
	if err != nil {
		return fmt.Errorf("check registrations: %w", err)
	}
	if registered {
		return domain.ErrDuplicateSubmission
	}
	queued, err := r.Waitlist.HasOpen(ctx, eventID, email)
	if err != nil {
		return fmt.Errorf("check waitlist: %w", err)
	}
	if queued {
		return domain.ErrDuplicateSubmission
	}
	return nil
}

// PromoteNext is the administrative promotion. It ignores
// EnableAutoPromotion but still promotes at most one entry and only into an
// unreserved free slot.
func (s *WaitlistService) PromoteNext(ctx context.Context, eventID string) (entry *entities.WaitlistEntry, err error) {
	ctx, span := tracer.Start(ctx, "waitlist.PromoteNext", trace.WithAttributes(attribute.String("event.id", eventID)))
	defer func() { endSpan(span, err) }()

	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	return s.promoteNext(ctx, eventID, settings)
}

// autoPromote hands a freed slot to the queue when auto promotion is on.
func (s *WaitlistService) autoPromote(ctx context.Context, eventID string, settings entities.Settings) (*entities.WaitlistEntry, error) {
	if !settings.EnableAutoPromotion {
		s.logger.WithField(log.FldEvent, eventID).Debug("Auto promotion disabled, slot left for manual promotion")
		return nil, nil
	}
	return s.promoteNext(ctx, eventID, settings)
}

func (s *WaitlistService) promoteNext(ctx context.Context, eventID string, settings entities.Settings) (*entities.WaitlistEntry, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	var (
		promoted *entities.WaitlistEntry
		event    *entities.Event
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, r output.Repositories) error {
		ev, err := r.Events.FindByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		event = ev
		occ, err := NewLedger(r).Snapshot(ctx, ev)
		if err != nil {
			return err
		}
		if unreserved(occ) == 0 {
			return nil
		}
		next, err := r.Waitlist.FindNextWaiting(ctx, eventID)
		if err != nil {
			return fmt.Errorf("find next waiting: %w", err)
		}
		if next == nil {
			return nil
		}
		if err := next.Promote(now, settings.Deadline(now)); err != nil {
			return err
		}
		ok, err := r.Waitlist.UpdateIfStatus(ctx, next, domain.StatusWaiting)
		if err != nil {
			return fmt.Errorf("promote entry: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: entry %s is no longer waiting", domain.ErrInvalidStateTransition, next.ID)
		}
		promoted = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	if promoted == nil {
		return nil, nil
	}

	s.logger.WithFields(logrus.Fields{
		log.FldEvent:    eventID,
		log.FldEntry:    promoted.ID,
		log.FldDeadline: promoted.ConfirmationDeadline,
	}).Info("Waitlist entry promoted")
	s.notify.toApplicant(ctx, entities.TemplatePromotionNotice, event, promoted.ID, promoted.Contact, promoted.Children, deadlineData(promoted.ConfirmationDeadline))
	return promoted, nil
}

// Confirm turns a promoted entry into a registration. The entry stays
// promoted when the slot was taken in the meantime.
func (s *WaitlistService) Confirm(ctx context.Context, entryID string) (reg *entities.Registration, err error) {
	ctx, span := tracer.Start(ctx, "waitlist.Confirm", trace.WithAttributes(attribute.String("entry.id", entryID)))
	defer func() { endSpan(span, err) }()

	now := s.now()
	var (
		entry *entities.WaitlistEntry
		event *entities.Event
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, r output.Repositories) error {
		e, ev, err := lockEntry(ctx, r, entryID)
		if err != nil {
			return err
		}
		event = ev
		if err := e.Confirm(now); err != nil {
			return err
		}
		occ, err := NewLedger(r).Snapshot(ctx, ev)
		if err != nil {
			return err
		}
		if occ.FreeSlots == 0 {
			return domain.ErrCapacityExceeded
		}
		ok, err := r.Waitlist.UpdateIfStatus(ctx, e, domain.StatusPromoted)
		if err != nil {
			return fmt.Errorf("confirm entry: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: entry %s is no longer promoted", domain.ErrInvalidStateTransition, e.ID)
		}
		reg = e.ToRegistration(now)
		if err := r.Registrations.Create(ctx, reg); err != nil {
			return fmt.Errorf("create registration: %w", err)
		}
		entry = e
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrCapacityExceeded) {
			s.logger.WithField(log.FldEntry, entryID).Warn("Confirmation rejected, no free slot left")
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		log.FldEvent:        event.ID,
		log.FldEntry:        entry.ID,
		log.FldRegistration: reg.ID,
	}).Info("Waitlist entry confirmed")
	s.notify.toApplicant(ctx, entities.TemplateConfirmationSuccess, event, reg.ID, entry.Contact, entry.Children, nil)
	s.notify.toAdmin(ctx, entities.TemplateAdminConfirmationNotice, event, reg.ID, entry.Contact, entry.Children, nil)
	return reg, nil
}

// lockEntry takes the event lock first and re-reads the entry under it, so
// that the status seen is the one the transaction will update.
func lockEntry(ctx context.Context, r output.Repositories, entryID string) (*entities.WaitlistEntry, *entities.Event, error) {
	e, err := r.Waitlist.FindByID(ctx, entryID)
	if err != nil {
		return nil, nil, err
	}
	ev, err := r.Events.FindByIDForUpdate(ctx, e.EventID)
	if err != nil {
		return nil, nil, err
	}
	e, err = r.Waitlist.FindByID(ctx, entryID)
	if err != nil {
		return nil, nil, err
	}
	return e, ev, nil
}

// CancelRegistration cancels a confirmed registration and hands the freed
// slot to the waitlist.
func (s *WaitlistService) CancelRegistration(ctx context.Context, registrationID string) (reg *entities.Registration, err error) {
	ctx, span := tracer.Start(ctx, "waitlist.CancelRegistration", trace.WithAttributes(attribute.String("registration.id", registrationID)))
	defer func() { endSpan(span, err) }()

	now := s.now()
	err = s.store.WithinTx(ctx, func(ctx context.Context, r output.Repositories) error {
		current, err := r.Registrations.FindByID(ctx, registrationID)
		if err != nil {
			return err
		}
		if _, err := r.Events.FindByIDForUpdate(ctx, current.EventID); err != nil {
			return err
		}
		if current, err = r.Registrations.FindByID(ctx, registrationID); err != nil {
			return err
		}
		if err := current.Cancel(now); err != nil {
			return err
		}
		ok, err := r.Registrations.UpdateIfStatus(ctx, current, domain.StatusConfirmed)
		if err != nil {
			return fmt.Errorf("cancel registration: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: registration %s is no longer confirmed", domain.ErrInvalidStateTransition, current.ID)
		}
		reg = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger := s.logger.WithFields(logrus.Fields{log.FldEvent: reg.EventID, log.FldRegistration: reg.ID})
	logger.Info("Registration cancelled")
	s.promoteAfterRelease(ctx, reg.EventID, logger)
	return reg, nil
}

// CancelEntry withdraws a waiting or promoted entry. A withdrawn promotion
// releases its reserved slot.
func (s *WaitlistService) CancelEntry(ctx context.Context, entryID string) (entry *entities.WaitlistEntry, err error) {
	ctx, span := tracer.Start(ctx, "waitlist.CancelEntry", trace.WithAttributes(attribute.String("entry.id", entryID)))
	defer func() { endSpan(span, err) }()

	now := s.now()
	var previous domain.Status
	err = s.store.WithinTx(ctx, func(ctx context.Context, r output.Repositories) error {
		e, _, err := lockEntry(ctx, r, entryID)
		if err != nil {
			return err
		}
		previous = e.Status
		if err := e.Cancel(now); err != nil {
			return err
		}
		ok, err := r.Waitlist.UpdateIfStatus(ctx, e, previous)
		if err != nil {
			return fmt.Errorf("cancel entry: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: entry %s changed concurrently", domain.ErrInvalidStateTransition, e.ID)
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger := s.logger.WithFields(logrus.Fields{log.FldEvent: entry.EventID, log.FldEntry: entry.ID, log.FldStatus: previous})
	logger.Info("Waitlist entry cancelled")
	if previous == domain.StatusPromoted {
		s.promoteAfterRelease(ctx, entry.EventID, logger)
	}
	return entry, nil
}

// promoteAfterRelease runs after a committed cancellation. Its failures are
// logged only: the cancellation itself already succeeded.
func (s *WaitlistService) promoteAfterRelease(ctx context.Context, eventID string, logger *logrus.Entry) {
	settings, err := s.settings.Current(ctx)
	if err != nil {
		logger.WithError(err).Error("Could not load settings for auto promotion")
		return
	}
	if _, err := s.autoPromote(ctx, eventID, settings); err != nil {
		logger.WithError(err).Error("Auto promotion after release failed")
	}
}

// expire moves one overdue promotion to expired. expired is false when the
// entry was no longer overdue (confirmed, cancelled or already expired by a
// concurrent run).
func (s *WaitlistService) expire(ctx context.Context, entryID string, now time.Time) (entry *entities.WaitlistEntry, expired bool, err error) {
	var event *entities.Event
	err = s.store.WithinTx(ctx, func(ctx context.Context, r output.Repositories) error {
		e, ev, err := lockEntry(ctx, r, entryID)
		if err != nil {
			return err
		}
		if e.Status != domain.StatusPromoted || !e.ConfirmationDeadline.Before(now) {
			return nil
		}
		if err := e.Expire(now); err != nil {
			return err
		}
		ok, err := r.Waitlist.UpdateIfStatus(ctx, e, domain.StatusPromoted)
		if err != nil {
			return fmt.Errorf("expire entry: %w", err)
		}
		if !ok {
			return nil
		}
		entry, event, expired = e, ev, true
		return nil
	})
	if err != nil || !expired {
		return nil, false, err
	}
	s.notify.toAdmin(ctx, entities.TemplateAdminExpirationNotice, event, entry.ID, entry.Contact, entry.Children, deadlineData(entry.ConfirmationDeadline))
	return entry, true, nil
}

func (s *WaitlistService) GetRegistration(ctx context.Context, id string) (*entities.Registration, error) {
	return s.store.Repos().Registrations.FindByID(ctx, id)
}

func (s *WaitlistService) GetEntry(ctx context.Context, id string) (*entities.WaitlistEntry, error) {
	return s.store.Repos().Waitlist.FindByID(ctx, id)
}
