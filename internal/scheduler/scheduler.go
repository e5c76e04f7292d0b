// Package scheduler polls the store for due reminders, delivers them and
// advances each one to its next occurrence.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kishanx08/ticket-master/internal/delivery"
	"github.com/Kishanx08/ticket-master/internal/metrics"
	"github.com/Kishanx08/ticket-master/internal/models"
	"github.com/Kishanx08/ticket-master/internal/repository"
)

// Deliverer is satisfied by *delivery.Pipeline.
type Deliverer interface {
	Deliver(ctx context.Context, r *models.Reminder) delivery.Result
}

// Advancer is satisfied by *reminders.Service.
type Advancer interface {
	Advance(ctx context.Context, r *models.Reminder, now time.Time) (*models.Reminder, error)
}

type Scheduler struct {
	store         repository.ReminderStore
	deliverer     Deliverer
	advancer      Advancer
	metrics       *metrics.Metrics
	log           zerolog.Logger
	checkInterval time.Duration
	now           func() time.Time
	notifyCh      chan struct{}
}

type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.checkInterval = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func New(
	store repository.ReminderStore,
	deliverer Deliverer,
	advancer Advancer,
	m *metrics.Metrics,
	log zerolog.Logger,
	opts ...Option,
) *Scheduler {
	s := &Scheduler{
		store:         store,
		deliverer:     deliverer,
		advancer:      advancer,
		metrics:       m,
		log:           log,
		checkInterval: 30 * time.Second,
		now:           time.Now,
		notifyCh:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify triggers an immediate check. Non-blocking if a check is already pending.
func (s *Scheduler) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

// Start runs one tick right away and then one per interval until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info().Dur("interval", s.checkInterval).Msg("scheduler started")
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	s.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		case <-s.notifyCh:
			s.log.Debug().Msg("scheduler triggered by notification")
			s.Tick(ctx)
		}
	}
}

// Tick processes one snapshot of the due set. Each reminder is handled on
// its own; a failure or panic on one does not stop the rest.
func (s *Scheduler) Tick(ctx context.Context) {
	started := time.Now()
	defer func() {
		s.metrics.TickSecs.Observe(time.Since(started).Seconds())
	}()

	now := s.now()
	due, err := s.store.ListActiveDue(ctx, now)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list due reminders")
		return
	}
	s.metrics.Due.Set(float64(len(due)))
	if len(due) == 0 {
		return
	}
	s.log.Debug().Int("due", len(due)).Msg("processing due reminders")

	for _, r := range due {
		if ctx.Err() != nil {
			return
		}
		if err := s.fire(ctx, r); err != nil {
			s.log.Error().Err(err).Int("short_id", r.ShortID).Msg("failed to process reminder")
		}
	}
}

// fire delivers r and advances it from the time delivery finished, so a
// slow tick never schedules a successor in the past.
func (s *Scheduler) fire(ctx context.Context, r *models.Reminder) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	res := s.deliverer.Deliver(ctx, r)
	s.metrics.Fired.Inc()
	if !res.Delivered {
		s.log.Warn().Int("short_id", r.ShortID).Int("attempts", res.Attempts).Msg("reminder could not be delivered")
	}

	successor, err := s.advancer.Advance(ctx, r, s.now())
	if successor != nil {
		s.metrics.Spawned.Inc()
	}
	if err != nil {
		return fmt.Errorf("advance: %w", err)
	}
	return nil
}
