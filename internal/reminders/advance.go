package reminders

import (
	"context"
	"time"

	"github.com/Kishanx08/ticket-master/internal/cadence"
	"github.com/Kishanx08/ticket-master/internal/models"
	"github.com/Kishanx08/ticket-master/internal/timezone"
)

// Advance runs after r has been delivered (or delivery was given up on).
// A repeating reminder gets its successor created first; the fired row is
// retired last either way. A failed successor is logged and the fired row
// is still retired, so a reminder never fires twice.
//
// A row snoozed after it was delivered already spawned its successor the
// first time, so firing it again only retires it.
func (s *Service) Advance(ctx context.Context, r *models.Reminder, now time.Time) (successor *models.Reminder, err error) {
	log := s.log.With().Int("short_id", r.ShortID).Logger()

	if r.Repeat != nil && !r.Fired {
		next, ok := cadence.Next(*r.Repeat, now.In(timezone.Location(r.Timezone)))
		if ok {
			successor = r.Successor(next.UTC())
			if err := s.store.Create(ctx, successor); err != nil {
				log.Error().Err(err).Msg("failed to create successor")
				successor = nil
			} else {
				log.Info().Int("successor_short_id", successor.ShortID).Time("trigger_at", successor.TriggerAt).Msg("scheduled next occurrence")
			}
		} else {
			log.Warn().Str("cadence", r.Repeat.String()).Msg("repeat rule has no next occurrence")
		}
	}

	if _, err := s.retire(ctx, r, true); err != nil {
		return successor, err
	}
	return successor, nil
}
