// Package reminders implements the user-facing reminder operations and the
// advance step the scheduler runs after a reminder fires.
package reminders

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/Kishanx08/ticket-master/internal/calendar"
	"github.com/Kishanx08/ticket-master/internal/cadence"
	"github.com/Kishanx08/ticket-master/internal/models"
	"github.com/Kishanx08/ticket-master/internal/repository"
	"github.com/Kishanx08/ticket-master/internal/timeparse"
	"github.com/Kishanx08/ticket-master/internal/timezone"
)

type Service struct {
	store  repository.ReminderStore
	parser *timeparse.Parser
	now    func() time.Time
	log    zerolog.Logger
}

type Option func(*Service)

// WithClock pins the clock used for parsing and validation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.parser.Now = now
	}
}

func NewService(store repository.ReminderStore, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		parser: timeparse.New(),
		now:    time.Now,
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateRequest struct {
	OwnerID       int64
	OwnerName     string
	CommunityID   int64
	DestinationID int64
	// Locale picks the zone when Timezone is empty.
	Locale   string
	Timezone string
	When     string
	Message  string
	// Repeat is "", a fixed kind, or an "every ..." expression.
	Repeat string
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Reminder, error) {
	message, err := validateMessage(req.Message)
	if err != nil {
		return nil, err
	}

	zone := req.Timezone
	if zone == "" {
		zone = timezone.Resolve(req.Locale)
	}
	at, err := s.parseFuture(req.When, zone)
	if err != nil {
		return nil, err
	}

	var repeat *models.Cadence
	if strings.TrimSpace(req.Repeat) != "" {
		c, err := models.ParseCadence(req.Repeat)
		if err != nil {
			return nil, err
		}
		if !cadence.Valid(c) {
			return nil, ErrUnknownCadence
		}
		repeat = &c
	}

	r := &models.Reminder{
		OwnerID:            req.OwnerID,
		OwnerName:          req.OwnerName,
		CommunityID:        req.CommunityID,
		DestinationID:      req.DestinationID,
		Message:            message,
		TriggerAt:          at.UTC(),
		OriginalExpression: strings.TrimSpace(req.When),
		Timezone:           zone,
		Repeat:             repeat,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, storeError(err)
	}
	s.log.Info().Int("short_id", r.ShortID).Int64("owner_id", r.OwnerID).Time("trigger_at", r.TriggerAt).Msg("reminder created")
	return r, nil
}

type Filter string

const (
	FilterAll       Filter = "all"
	FilterToday     Filter = "today"
	FilterWeek      Filter = "week"
	FilterRepeating Filter = "repeating"
)

type Sort string

const (
	SortTime    Sort = "time"
	SortCreated Sort = "created"
)

type ListRequest struct {
	OwnerID     int64
	CommunityID int64
	Filter      Filter
	Sort        Sort
	// Zone decides where "today" starts.
	Zone string
}

// List returns the owner's active reminders. SortTime is soonest first,
// SortCreated is newest first.
func (s *Service) List(ctx context.Context, req ListRequest) ([]*models.Reminder, error) {
	all, err := s.store.ListByOwner(ctx, req.OwnerID, req.CommunityID)
	if err != nil {
		return nil, err
	}

	today := calendar.StartOfDay(s.now().In(timezone.Location(req.Zone)))
	tomorrow := today.AddDate(0, 0, 1)
	weekEnd := today.AddDate(0, 0, 7)

	var out []*models.Reminder
	for _, r := range all {
		switch req.Filter {
		case FilterToday:
			if r.TriggerAt.Before(today) || !r.TriggerAt.Before(tomorrow) {
				continue
			}
		case FilterWeek:
			if r.TriggerAt.Before(today) || !r.TriggerAt.Before(weekEnd) {
				continue
			}
		case FilterRepeating:
			if r.Repeat == nil {
				continue
			}
		}
		out = append(out, r)
	}

	if req.Sort == SortCreated {
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out, nil
}

// Info returns a reminder the actor owns, active or not.
func (s *Service) Info(ctx context.Context, actorID int64, ref string) (*models.Reminder, error) {
	return s.owned(ctx, actorID, ref)
}

func (s *Service) Delete(ctx context.Context, actorID int64, ref string) (*models.Reminder, error) {
	r, err := s.owned(ctx, actorID, ref)
	if err != nil {
		return nil, err
	}
	deleted, err := s.store.Delete(ctx, r.ID)
	if err != nil {
		return nil, storeError(err)
	}
	s.log.Info().Int("short_id", deleted.ShortID).Msg("reminder deleted")
	return deleted, nil
}

type EditRequest struct {
	ActorID int64
	Ref     string
	Message *string
	When    *string
}

// Edit changes the message and/or time of an active reminder. A new time is
// parsed in the reminder's own zone.
func (s *Service) Edit(ctx context.Context, req EditRequest) (*models.Reminder, error) {
	if req.Message == nil && req.When == nil {
		return nil, ErrNothingToEdit
	}
	r, err := s.owned(ctx, req.ActorID, req.Ref)
	if err != nil {
		return nil, err
	}
	if !r.Active {
		return nil, ErrInactive
	}

	var patch models.ReminderPatch
	if req.Message != nil {
		message, err := validateMessage(*req.Message)
		if err != nil {
			return nil, err
		}
		patch.Message = &message
	}
	if req.When != nil {
		at, err := s.parseFuture(*req.When, r.Timezone)
		if err != nil {
			return nil, err
		}
		at = at.UTC()
		expr := strings.TrimSpace(*req.When)
		patch.TriggerAt = &at
		patch.OriginalExpression = &expr
	}

	updated, err := s.store.Update(ctx, r.ID, patch)
	if err != nil {
		return nil, storeError(err)
	}
	return updated, nil
}

// SnoozeFor snoozes by a typed amount: a bare duration ("15m", "2h") or any
// time expression, which is turned into the distance from now.
func (s *Service) SnoozeFor(ctx context.Context, actorID int64, ref, expr string) (*models.Reminder, error) {
	d, ok := timeparse.Duration(expr)
	if !ok {
		r, err := s.owned(ctx, actorID, ref)
		if err != nil {
			return nil, err
		}
		at, err := s.parseFuture(expr, r.Timezone)
		if err != nil {
			return nil, err
		}
		d = at.Sub(s.now())
	}
	if d <= 0 {
		return nil, ErrPastTime
	}
	return s.Snooze(ctx, actorID, ref, d)
}

// SplitWhen finds the longest leading run of words in text that parses as a
// time expression and returns it with the remaining words. At least one word
// is always left over for the message.
func (s *Service) SplitWhen(text, zone string) (when, rest string, ok bool) {
	words := strings.Fields(text)
	for i := len(words) - 1; i >= 1; i-- {
		candidate := strings.Join(words[:i], " ")
		if _, parsed := s.parser.Parse(candidate, zone); parsed {
			return candidate, strings.Join(words[i:], " "), true
		}
	}
	return "", "", false
}

func (s *Service) owned(ctx context.Context, actorID int64, ref string) (*models.Reminder, error) {
	r, err := s.store.Get(ctx, strings.TrimSpace(ref))
	if err != nil {
		return nil, err
	}
	if r.OwnerID != actorID {
		return nil, ErrNotOwner
	}
	return r, nil
}

func (s *Service) parseFuture(expr, zone string) (time.Time, error) {
	at, ok := s.parser.Parse(expr, zone)
	if !ok {
		return time.Time{}, ErrInvalidTime
	}
	if !at.After(s.now()) {
		return time.Time{}, ErrPastTime
	}
	return at, nil
}

func validateMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > models.MaxMessageLength {
		return "", ErrMessageTooLong
	}
	return message, nil
}

func storeError(err error) error {
	if errors.Is(err, repository.ErrPastTrigger) {
		return ErrPastTime
	}
	return err
}
