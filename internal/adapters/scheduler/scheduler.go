package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"knallbonbon/internal/log"
	"knallbonbon/internal/ports/input"
)

// ErrSweepRunning is returned when a sweep is requested while one is active.
var ErrSweepRunning = errors.New("sweep already running")

// Sweeper runs the expiry sweep at most once at a time, whether it is
// triggered by the ticker or by an operator.
type Sweeper struct {
	uc     input.SweepUseCase
	now    func() time.Time
	logger *logrus.Entry
	mu     sync.Mutex
}

func NewSweeper(uc input.SweepUseCase, logger *logrus.Entry) *Sweeper {
	return &Sweeper{
		uc:     uc,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// RunOnce sweeps now, or returns ErrSweepRunning without waiting.
func (s *Sweeper) RunOnce(ctx context.Context) (*input.SweepReport, error) {
	if !s.mu.TryLock() {
		return nil, ErrSweepRunning
	}
	defer s.mu.Unlock()

	started := time.Now()
	report, err := s.uc.Sweep(ctx, s.now())
	if err != nil {
		s.logger.WithError(err).Error("Sweep aborted")
		return report, err
	}
	s.logger.WithField(log.FldDuration, time.Since(started).String()).Debug("Sweep run completed")
	return report, nil
}

// Run sweeps once right away, then every interval until ctx is cancelled.
// Ticks that arrive while a sweep is still running are dropped.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	s.scheduled(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scheduled(ctx)
		}
	}
}

func (s *Sweeper) scheduled(ctx context.Context) {
	if _, err := s.RunOnce(ctx); errors.Is(err, ErrSweepRunning) {
		s.logger.Warn("Skipping scheduled sweep, previous run still active")
	}
}
