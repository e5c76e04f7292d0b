package reminders

import (
	"errors"

	"github.com/Kishanx08/ticket-master/internal/models"
	"github.com/Kishanx08/ticket-master/internal/repository"
)

var (
	ErrInvalidTime    = errors.New("could not understand that time")
	ErrPastTime       = errors.New("that time is not in the future")
	ErrEmptyMessage   = errors.New("reminder message is empty")
	ErrMessageTooLong = errors.New("reminder message is too long")
	ErrNotOwner       = errors.New("only the owner can change this reminder")
	ErrInactive       = errors.New("reminder is no longer active")
	ErrNoNextInstant  = errors.New("repeat rule has no next occurrence")
	ErrNothingToEdit  = errors.New("nothing to edit")

	ErrCustomCadenceRequired = models.ErrCustomCadenceRequired
	ErrUnknownCadence        = models.ErrUnknownCadence
	ErrNotFound              = repository.ErrNotFound
	ErrShortIDExhausted      = repository.ErrShortIDExhausted
)

var userErrors = []error{
	ErrInvalidTime,
	ErrPastTime,
	ErrEmptyMessage,
	ErrMessageTooLong,
	ErrNotOwner,
	ErrInactive,
	ErrNoNextInstant,
	ErrNothingToEdit,
	ErrCustomCadenceRequired,
	ErrUnknownCadence,
	ErrNotFound,
	ErrShortIDExhausted,
}

// IsUserError reports whether err should be shown to the user as-is rather
// than logged as an internal failure.
func IsUserError(err error) bool {
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
