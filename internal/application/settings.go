package application

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"knallbonbon/internal/domain/entities"
	"knallbonbon/internal/ports/output"
)

const settingsCacheKey = "settings"

// SettingsService serves the waitlist settings. Values are cached for at most
// ttl so that a change made by an admin (or on another instance) is picked up
// by later decisions.
type SettingsService struct {
	repo     output.SettingsRepository
	defaults entities.Settings
	cache    *gocache.Cache
	ttl      time.Duration
	logger   *logrus.Entry
}

func NewSettingsService(
	repo output.SettingsRepository,
	defaults entities.Settings,
	ttl time.Duration,
	logger *logrus.Entry,
) *SettingsService {
	s := &SettingsService{
		repo:     repo,
		defaults: defaults,
		ttl:      ttl,
		logger:   logger,
	}
	if ttl > 0 {
		s.cache = gocache.New(ttl, 2*ttl)
	}
	return s
}

// Current returns the settings in force right now.
func (s *SettingsService) Current(ctx context.Context) (entities.Settings, error) {
	if s.cache != nil {
		if v, found := s.cache.Get(settingsCacheKey); found {
			if settings, ok := v.(entities.Settings); ok {
				return settings, nil
			}
		}
	}
	settings, ok, err := s.repo.Get(ctx)
	if err != nil {
		return entities.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	if !ok {
		settings = s.defaults
	}
	if s.cache != nil {
		s.cache.Set(settingsCacheKey, settings, gocache.DefaultExpiration)
	}
	return settings, nil
}

func (s *SettingsService) Update(ctx context.Context, settings entities.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(settingsCacheKey, settings, gocache.DefaultExpiration)
	}
	s.logger.WithFields(logrus.Fields{
		"confirmationDeadlineDays": settings.ConfirmationDeadlineDays,
		"enableAutoPromotion":      settings.EnableAutoPromotion,
	}).Info("Waitlist settings updated")
	return nil
}
