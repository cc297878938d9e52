package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"knallbonbon/internal/domain"
	"knallbonbon/internal/domain/entities"
	"knallbonbon/internal/log"
	"knallbonbon/internal/ports/input"
	"knallbonbon/internal/ports/output"
)

var _ input.EventUseCase = (*EventService)(nil)

type EventService struct {
	store    output.Store
	waitlist *WaitlistService
	settings input.SettingsUseCase
	logger   *logrus.Entry
}

func NewEventService(
	store output.Store,
	waitlist *WaitlistService,
	settings input.SettingsUseCase,
	logger *logrus.Entry,
) *EventService {
	return &EventService{
		store:    store,
		waitlist: waitlist,
		settings: settings,
		logger:   logger,
	}
}

func (s *EventService) CreateEvent(ctx context.Context, event *entities.Event) error {
	event.Title = strings.TrimSpace(event.Title)
	if event.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidEvent)
	}
	if event.Capacity < 0 {
		return fmt.Errorf("%w: capacity must not be negative", domain.ErrInvalidEvent)
	}
	if !event.EndsAt.IsZero() && event.EndsAt.Before(event.StartsAt) {
		return fmt.Errorf("%w: event ends before it starts", domain.ErrInvalidEvent)
	}
	now := time.Now().UTC()
	if event.ID == "" {
		event.ID = entities.NewID()
	}
	event.CreatedAt, event.UpdatedAt = now, now
	if err := s.store.Repos().Events.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	s.logger.WithField(log.FldEvent, event.ID).Infof("Event '%s' created with %d slots", event.Title, event.Capacity)
	return nil
}

func (s *EventService) GetEventByID(ctx context.Context, id string) (*entities.Event, error) {
	return s.store.Repos().Events.FindByID(ctx, id)
}

func (s *EventService) ListEvents(ctx context.Context) ([]entities.Event, error) {
	return s.store.Repos().Events.List(ctx)
}

// SetCapacity never goes below the confirmed count. Each slot gained is
// offered to the waitlist one promotion at a time.
func (s *EventService) SetCapacity(ctx context.Context, id string, capacity int) (*entities.Event, error) {
	var (
		event  *entities.Event
		gained int
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, r output.Repositories) error {
		ev, err := r.Events.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		confirmed, err := NewLedger(r).Occupancy(ctx, id)
		if err != nil {
			return err
		}
		if capacity < confirmed {
			return fmt.Errorf("%w: %d confirmed, %d requested", domain.ErrCapacityBelowOccupancy, confirmed, capacity)
		}
		gained = capacity - ev.Capacity
		ev.Capacity = capacity
		ev.UpdatedAt = time.Now().UTC()
		if err := r.Events.Update(ctx, ev); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		event = ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger := s.logger.WithField(log.FldEvent, id)
	logger.Infof("Capacity set to %d", capacity)
	if gained <= 0 {
		return event, nil
	}
	settings, err := s.settings.Current(ctx)
	if err != nil {
		logger.WithError(err).Error("Could not load settings for auto promotion")
		return event, nil
	}
	for i := 0; i < gained; i++ {
		next, err := s.waitlist.autoPromote(ctx, id, settings)
		if err != nil {
			logger.WithError(err).Error("Auto promotion after capacity increase failed")
			break
		}
		if next == nil {
			break
		}
	}
	return event, nil
}

func (s *EventService) GetOccupancy(ctx context.Context, id string) (*input.Occupancy, error) {
	repos := s.store.Repos()
	event, err := repos.Events.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	occ, err := NewLedger(repos).Snapshot(ctx, event)
	if err != nil {
		return nil, err
	}
	return &occ, nil
}

func (s *EventService) GetRegistrations(ctx context.Context, eventID string) ([]entities.Registration, error) {
	if _, err := s.store.Repos().Events.FindByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.Repos().Registrations.FindByEventID(ctx, eventID)
}

func (s *EventService) GetWaitlist(ctx context.Context, eventID string) ([]entities.WaitlistEntry, error) {
	repos := s.store.Repos()
	if _, err := repos.Events.FindByID(ctx, eventID); err != nil {
		return nil, err
	}
	var all []entities.WaitlistEntry
	for _, status := range []domain.Status{domain.StatusPromoted, domain.StatusWaiting} {
		entries, err := repos.Waitlist.FindByEventIDAndStatus(ctx, eventID, status)
		if err != nil {
			return nil, fmt.Errorf("find %s entries: %w", status, err)
		}
		all = append(all, entries...)
	}
	return all, nil
}
