package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"knallbonbon/internal/log"
	"knallbonbon/internal/ports/input"
)

type stubSweep struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	err     error
}

func (s *stubSweep) Sweep(ctx context.Context, now time.Time) (*input.SweepReport, error) {
	s.calls.Add(1)
	if s.started != nil {
		s.started <- struct{}{}
		<-s.release
	}
	return &input.SweepReport{StartedAt: now}, s.err
}

func TestSweeper_RunOnce(t *testing.T) {
	uc := &stubSweep{}
	s := NewSweeper(uc, log.Discard())
	fixed := time.Date(2026, 6, 1, 3, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	report, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, fixed, report.StartedAt)
	require.EqualValues(t, 1, uc.calls.Load())
}

func TestSweeper_RunOncePropagatesError(t *testing.T) {
	uc := &stubSweep{err: errors.New("store unavailable")}
	s := NewSweeper(uc, log.Discard())

	_, err := s.RunOnce(context.Background())
	require.ErrorContains(t, err, "store unavailable")
}

func TestSweeper_RejectsOverlappingRun(t *testing.T) {
	uc := &stubSweep{started: make(chan struct{}), release: make(chan struct{})}
	s := NewSweeper(uc, log.Discard())

	done := make(chan error, 1)
	go func() {
		_, err := s.RunOnce(context.Background())
		done <- err
	}()
	<-uc.started

	_, err := s.RunOnce(context.Background())
	require.ErrorIs(t, err, ErrSweepRunning)

	close(uc.release)
	require.NoError(t, <-done)
	require.EqualValues(t, 1, uc.calls.Load())
}

func TestSweeper_RunStopsWithContext(t *testing.T) {
	uc := &stubSweep{}
	s := NewSweeper(uc, log.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		s.Run(ctx, 5*time.Millisecond)
		close(stopped)
	}()

	require.Eventually(t, func() bool { return uc.calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSweeper_RunSweepsOnStart(t *testing.T) {
	uc := &stubSweep{}
	s := NewSweeper(uc, log.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	s.Run(ctx, 24*time.Hour)

	require.EqualValues(t, 1, uc.calls.Load(), "a restart must not wait a full interval for the first sweep")
}
