package application

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"knallbonbon/internal/log"
	"knallbonbon/internal/ports/input"
	"knallbonbon/internal/ports/output"
)

// DefaultSweepBatchSize bounds the work of a single sweep.
const DefaultSweepBatchSize = 100

var _ input.SweepUseCase = (*Sweeper)(nil)

// Sweeper expires promotions whose confirmation window has closed and
// cascades the released slots down the waitlist. Runs are idempotent: the
// query only ever matches entries that are still promoted and overdue.
type Sweeper struct {
	store     output.Store
	waitlist  *WaitlistService
	settings  input.SettingsUseCase
	batchSize int
	logger    *logrus.Entry
}

func NewSweeper(
	store output.Store,
	waitlist *WaitlistService,
	settings input.SettingsUseCase,
	batchSize int,
	logger *logrus.Entry,
) *Sweeper {
	if batchSize <= 0 {
		batchSize = DefaultSweepBatchSize
	}
	return &Sweeper{
		store:     store,
		waitlist:  waitlist,
		settings:  settings,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Sweep processes at most one batch of overdue promotions. A failing entry is
// recorded in the report and does not stop the batch; only a failure to list
// the batch is returned as error.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (report *input.SweepReport, err error) {
	ctx, span := tracer.Start(ctx, "sweeper.Sweep")
	defer func() { endSpan(span, err) }()

	report = &input.SweepReport{
		StartedAt: now,
		Expired:   []string{},
		Promoted:  []string{},
		Skipped:   []string{},
		Failures:  []input.SweepFailure{},
	}
	overdue, err := s.store.Repos().Waitlist.FindOverdue(ctx, now, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("find overdue promotions: %w", err)
	}
	report.Scanned = len(overdue)
	span.SetAttributes(attribute.Int("sweep.scanned", len(overdue)))
	if len(overdue) == 0 {
		s.logger.Debug("Sweep found no overdue promotions")
		return report, nil
	}

	for _, candidate := range overdue {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		logger := s.logger.WithFields(logrus.Fields{log.FldEvent: candidate.EventID, log.FldEntry: candidate.ID})

		entry, expired, err := s.waitlist.expire(ctx, candidate.ID, now)
		if err != nil {
			logger.WithError(err).Error("Could not expire promotion")
			report.Failures = append(report.Failures, input.SweepFailure{EntryID: candidate.ID, EventID: candidate.EventID, Error: err.Error()})
			continue
		}
		if !expired {
			logger.Debug("Promotion no longer overdue, skipped")
			report.Skipped = append(report.Skipped, candidate.ID)
			continue
		}
		report.Expired = append(report.Expired, entry.ID)
		logger.Info("Promotion expired")

		// Settings are read per entry so a change during a long batch applies
		// to the promotions that follow it.
		settings, err := s.settings.Current(ctx)
		if err != nil {
			logger.WithError(err).Error("Could not load settings for cascade promotion")
			report.Failures = append(report.Failures, input.SweepFailure{EntryID: entry.ID, EventID: entry.EventID, Error: err.Error()})
			continue
		}
		next, err := s.waitlist.autoPromote(ctx, entry.EventID, settings)
		if err != nil {
			logger.WithError(err).Error("Cascade promotion failed")
			report.Failures = append(report.Failures, input.SweepFailure{EntryID: entry.ID, EventID: entry.EventID, Error: err.Error()})
			continue
		}
		if next != nil {
			report.Promoted = append(report.Promoted, next.ID)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"scanned":  report.Scanned,
		"expired":  len(report.Expired),
		"promoted": len(report.Promoted),
		"failed":   len(report.Failures),
	}).Info("Sweep finished")
	return report, nil
}
