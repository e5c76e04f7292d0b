package reminders

import (
	"context"
	"time"

	"github.com/Kishanx08/ticket-master/internal/cadence"
	"github.com/Kishanx08/ticket-master/internal/models"
	"github.com/Kishanx08/ticket-master/internal/timezone"
)

// Complete retires the reminder without a successor. A delivered reminder is
// settled so its snooze buttons stop working. done is true when it was
// already settled, in which case nothing is written.
func (s *Service) Complete(ctx context.Context, actorID int64, ref string) (r *models.Reminder, done bool, err error) {
	r, err = s.owned(ctx, actorID, ref)
	if err != nil {
		return nil, false, err
	}
	if !r.Active && !r.Fired {
		return r, true, nil
	}
	r, err = s.retire(ctx, r, false)
	if err != nil {
		return nil, false, err
	}
	s.log.Info().Int("short_id", r.ShortID).Msg("reminder completed")
	return r, false, nil
}

// Snooze moves a reminder to now+d and bumps its snooze count. A reminder
// that was just delivered goes back on the schedule under the same short id.
// Nothing else about the reminder changes.
func (s *Service) Snooze(ctx context.Context, actorID int64, ref string, d time.Duration) (*models.Reminder, error) {
	if d <= 0 {
		return nil, ErrPastTime
	}
	r, err := s.owned(ctx, actorID, ref)
	if err != nil {
		return nil, err
	}
	if !r.Active && !r.Fired {
		return nil, ErrInactive
	}

	at := s.now().Add(d).UTC()
	snoozed := true
	patch := models.ReminderPatch{
		TriggerAt:       &at,
		Snoozed:         &snoozed,
		IncrementSnooze: true,
	}
	if !r.Active {
		active := true
		patch.Active = &active
	}
	updated, err := s.store.Update(ctx, r.ID, patch)
	if err != nil {
		return nil, storeError(err)
	}
	s.log.Info().Int("short_id", updated.ShortID).Dur("snooze", d).Int("snooze_count", updated.SnoozeCount).Msg("reminder snoozed")
	return updated, nil
}

// RepeatNow schedules one more occurrence from now using the reminder's
// cadence, or daily when it has none, and retires the reminder. It works on
// reminders that already fired.
func (s *Service) RepeatNow(ctx context.Context, actorID int64, ref string) (*models.Reminder, error) {
	r, err := s.owned(ctx, actorID, ref)
	if err != nil {
		return nil, err
	}

	c := models.Cadence{}
	if r.Repeat != nil {
		c = *r.Repeat
	} else if c, err = models.NewCadence(models.CadenceDaily, ""); err != nil {
		return nil, err
	}

	next, ok := cadence.Next(c, s.now().In(timezone.Location(r.Timezone)))
	if !ok {
		return nil, ErrNoNextInstant
	}

	successor := r.Successor(next.UTC())
	if err := s.store.Create(ctx, successor); err != nil {
		return nil, storeError(err)
	}
	if r.Active || r.Fired {
		if _, err := s.retire(ctx, r, false); err != nil {
			return nil, err
		}
	}
	s.log.Info().Int("short_id", r.ShortID).Int("successor_short_id", successor.ShortID).Msg("reminder repeated")
	return successor, nil
}

// retire deactivates r. fired marks a retirement by delivery, which the
// owner may still undo with a snooze.
func (s *Service) retire(ctx context.Context, r *models.Reminder, fired bool) (*models.Reminder, error) {
	inactive := false
	updated, err := s.store.Update(ctx, r.ID, models.ReminderPatch{Active: &inactive, Fired: &fired})
	if err != nil {
		return nil, storeError(err)
	}
	return updated, nil
}
