package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Kishanx08/ticket-master/internal/metrics"
	"github.com/Kishanx08/ticket-master/internal/repository"
)

// Cleanup removes inactive reminders once they have been untouched for the
// retention period. Deleting them is what frees their short ids.
type Cleanup struct {
	store     repository.ReminderStore
	retention time.Duration
	metrics   *metrics.Metrics
	log       zerolog.Logger
	now       func() time.Time
	cron      *cron.Cron
}

func NewCleanup(store repository.ReminderStore, retention time.Duration, m *metrics.Metrics, log zerolog.Logger) *Cleanup {
	return &Cleanup{
		store:     store,
		retention: retention,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

// Schedule registers the job on a standard five-field cron spec. It does not
// start the cron.
func (c *Cleanup) Schedule(ctx context.Context, spec string) error {
	c.cron = cron.New(cron.WithLogger(cronLogger{log: c.log}))
	if _, err := c.cron.AddFunc(spec, func() { c.Run(ctx) }); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", spec, err)
	}
	return nil
}

// Start runs the cron until ctx is done and waits for a running job to finish.
func (c *Cleanup) Start(ctx context.Context) {
	if c.cron == nil {
		return
	}
	c.cron.Start()
	c.log.Info().Int("entries", len(c.cron.Entries())).Msg("cleanup cron started")
	<-ctx.Done()
	<-c.cron.Stop().Done()
}

// Run deletes once and returns the number of rows removed.
func (c *Cleanup) Run(ctx context.Context) int64 {
	cutoff := c.now().Add(-c.retention)
	n, err := c.store.DeleteInactiveBefore(ctx, cutoff)
	if err != nil {
		c.log.Error().Err(err).Time("cutoff", cutoff).Msg("cleanup failed")
		return 0
	}
	c.metrics.Cleaned.Add(float64(n))
	c.log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("removed inactive reminders")
	return n
}

type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
