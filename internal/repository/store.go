package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Kishanx08/ticket-master/internal/models"
)

var (
	ErrNotFound         = errors.New("reminder not found")
	ErrPastTrigger      = errors.New("trigger time is not in the future")
	ErrShortIDExhausted = errors.New("could not allocate a free short id")
)

const (
	MinShortID = 1000
	MaxShortID = 9999

	DefaultMaxShortIDAttempts = 10
)

// All store interfaces in one file
type (
	// ReminderStore persists reminders. Both backends behave identically.
	ReminderStore interface {
		// Create assigns ID, ShortID and timestamps, and stores r as active.
		Create(ctx context.Context, r *models.Reminder) error
		// Get resolves a 4-digit short id or a UUID.
		Get(ctx context.Context, ref string) (*models.Reminder, error)
		ListActiveDue(ctx context.Context, now time.Time) ([]*models.Reminder, error)
		// ListByOwner returns active reminders ordered by trigger time.
		// communityID 0 matches every community.
		ListByOwner(ctx context.Context, ownerID, communityID int64) ([]*models.Reminder, error)
		Update(ctx context.Context, id string, patch models.ReminderPatch) (*models.Reminder, error)
		Delete(ctx context.Context, id string) (*models.Reminder, error)
		DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}

	// CommunityStore keeps the per-community fallback delivery chat.
	CommunityStore interface {
		FallbackChat(ctx context.Context, communityID int64) (int64, bool, error)
		SetFallbackChat(ctx context.Context, communityID, chatID int64) error
	}

	// SettingsStore keeps per-user preferences. Today that is only an
	// explicit timezone, which wins over the one guessed from the locale.
	SettingsStore interface {
		Get(ctx context.Context, userID int64) (*models.UserSettings, bool, error)
		SetTimezone(ctx context.Context, userID int64, zone string) error
	}
)

type options struct {
	now         func() time.Time
	shortID     func() int
	maxAttempts int
}

type Option func(*options)

// WithClock replaces time.Now for timestamps and the past-trigger check.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithShortIDSource replaces the random short id generator.
func WithShortIDSource(next func() int) Option {
	return func(o *options) { o.shortID = next }
}

// WithMaxAttempts bounds short id collision retries.
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		now:         time.Now,
		shortID:     randomShortID,
		maxAttempts: DefaultMaxShortIDAttempts,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func randomShortID() int {
	return MinShortID + rand.Intn(MaxShortID-MinShortID+1)
}

var reShortID = regexp.MustCompile(`^\d{4}$`)

// parseRef splits a user reference into a short id or a UUID.
func parseRef(ref string) (shortID int, id uuid.UUID, ok bool) {
	if reShortID.MatchString(ref) {
		n, _ := strconv.Atoi(ref)
		return n, uuid.Nil, true
	}
	parsed, err := uuid.Parse(ref)
	if err != nil {
		return 0, uuid.Nil, false
	}
	return 0, parsed, true
}

// prepareCreate stamps r for insertion.
func (o options) prepareCreate(r *models.Reminder) error {
	now := o.now().UTC().Truncate(time.Millisecond)
	if !r.TriggerAt.After(now) {
		return ErrPastTrigger
	}
	r.ID = uuid.NewString()
	r.Active = true
	r.Fired = false
	r.Snoozed = false
	r.SnoozeCount = 0
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// allocate retries insert with fresh short ids until it stops colliding.
func (o options) allocate(r *models.Reminder, insert func() error, isCollision func(error) bool) error {
	for attempt := 0; attempt < o.maxAttempts; attempt++ {
		r.ShortID = o.shortID()
		err := insert()
		if err == nil {
			return nil
		}
		if !isCollision(err) {
			r.ShortID = 0
			return fmt.Errorf("failed to insert reminder: %w", err)
		}
	}
	r.ShortID = 0
	return ErrShortIDExhausted
}

// preparePatch validates a patch against the clock.
func (o options) preparePatch(patch models.ReminderPatch) (time.Time, error) {
	now := o.now().UTC().Truncate(time.Millisecond)
	if patch.TriggerAt != nil && !patch.TriggerAt.After(now) {
		return now, ErrPastTrigger
	}
	return now, nil
}

func cadenceColumns(c *models.Cadence) (kind, expr *string) {
	if c == nil {
		return nil, nil
	}
	k := string(c.Kind())
	kind = &k
	if e := c.Expr(); e != "" {
		expr = &e
	}
	return kind, expr
}

func cadenceFromColumns(kind, expr *string) (*models.Cadence, error) {
	if kind == nil {
		return nil, nil
	}
	var e string
	if expr != nil {
		e = *expr
	}
	c, err := models.NewCadence(models.CadenceKind(*kind), e)
	if err != nil {
		return nil, fmt.Errorf("stored cadence %q: %w", *kind, err)
	}
	return &c, nil
}
