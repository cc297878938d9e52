package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"

	"knallbonbon/internal/domain"
	"knallbonbon/internal/domain/entities"
	"knallbonbon/internal/log"
	"knallbonbon/internal/ports/output"
)

var (
	ErrQueueFull = errors.New("notify: queue full")
	ErrClosed    = errors.New("notify: dispatcher closed")
)

// Config tunes the dispatcher.
type Config struct {
	Workers      int
	QueueSize    int
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// SendTimeout bounds a single attempt.
	SendTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 500 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 10 * time.Second
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 30 * time.Second
	}
	return c
}

// Channel is a named Sender.
type Channel struct {
	Name   string
	Sender output.Sender
}

type job struct {
	channel Channel
	n       entities.Notification
	ctx     context.Context
}

// Dispatcher queues notifications and delivers them on a pool of workers.
// Each channel is retried on its own; a notification that still fails after
// MaxAttempts is logged and dropped.
type Dispatcher struct {
	cfg      Config
	channels []Channel
	logger   *logrus.Entry

	queue  chan job
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

var _ output.Notifier = (*Dispatcher)(nil)

func NewDispatcher(cfg Config, logger *logrus.Entry, channels ...Channel) *Dispatcher {
	cfg = cfg.withDefaults()
	d := &Dispatcher{
		cfg:      cfg,
		channels: channels,
		logger:   logger,
		queue:    make(chan job, cfg.QueueSize),
	}
	d.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go d.work()
	}
	return d
}

// Dispatch enqueues n once per channel. It never blocks.
func (d *Dispatcher) Dispatch(ctx context.Context, n entities.Notification) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	// Delivery outlives the request that triggered it.
	detached := context.WithoutCancel(ctx)
	for _, ch := range d.channels {
		select {
		case d.queue <- job{channel: ch, n: n, ctx: detached}:
		default:
			return fmt.Errorf("%w: %s via %s", ErrQueueFull, n.Template, ch.Name)
		}
	}
	return nil
}

// Close stops accepting notifications and waits for queued ones to be
// delivered or for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notify: drain: %w", ctx.Err())
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for j := range d.queue {
		d.deliver(j)
	}
}

func (d *Dispatcher) deliver(j job) {
	logger := d.logger.WithFields(logrus.Fields{
		log.FldTransport: j.channel.Name,
		log.FldTemplate:  j.n.Template,
		log.FldEvent:     j.n.EventID,
		log.FldEntry:     j.n.RefID,
	})

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = d.cfg.InitialDelay
	expo.MaxInterval = d.cfg.MaxDelay

	attempt := 0
	_, err := backoff.Retry(j.ctx, func() (struct{}, error) {
		attempt++
		ctx, cancel := context.WithTimeout(j.ctx, d.cfg.SendTimeout)
		defer cancel()
		return struct{}{}, j.channel.Sender.Send(ctx, j.n)
	},
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(d.cfg.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.WithError(err).WithField(log.FldAttempt, attempt).Warnf("Delivery failed, retrying in %s", next)
		}),
	)
	if err != nil {
		logger.WithError(fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, err)).
			WithField(log.FldAttempt, attempt).
			Error("Giving up on notification")
		return
	}
	logger.WithField(log.FldAttempt, attempt).Debug("Notification delivered")
}
