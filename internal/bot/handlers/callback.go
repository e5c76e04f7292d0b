package handlers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kishanx08/ticket-master/internal/delivery"
	"github.com/Kishanx08/ticket-master/internal/models"
	"github.com/Kishanx08/ticket-master/internal/reminders"
	"github.com/Kishanx08/ticket-master/internal/timezone"
)

// HandleCallbackQuery serves the buttons under a delivered reminder. Every
// outcome is answered with a pop-up alert.
func (h *Handlers) HandleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.From == nil {
		return
	}
	action, shortID, ok := delivery.ParseCallback(callback.Data)
	if !ok {
		h.answerCallback(callback.ID, "")
		return
	}
	ref := strconv.Itoa(shortID)
	log := h.log.With().Int("short_id", shortID).Str("action", action).Int64("user_id", callback.From.ID).Logger()

	var (
		text   string
		retire bool
		err    error
	)
	switch action {
	case delivery.ActionComplete:
		var done bool
		_, done, err = h.svc.Complete(ctx, callback.From.ID, ref)
		if done {
			text = "✅ This reminder was already completed."
		} else {
			text = "✅ Reminder completed."
		}
		retire = true
	case delivery.ActionSnooze15:
		text, err = h.snooze(ctx, callback.From.ID, ref, 15*time.Minute)
	case delivery.ActionSnooze60:
		text, err = h.snooze(ctx, callback.From.ID, ref, time.Hour)
	case delivery.ActionRepeat:
		var next *models.Reminder
		next, err = h.svc.RepeatNow(ctx, callback.From.ID, ref)
		if err == nil {
			h.notify()
			text = fmt.Sprintf("🔁 Repeating on %s (ID %d).", formatIn(next), next.ShortID)
		}
		retire = true
	}

	if err != nil {
		if !reminders.IsUserError(err) {
			log.Error().Err(err).Msg("reminder button failed")
			h.answerCallback(callback.ID, "❌ Something went wrong. Please try again.")
			return
		}
		h.answerCallback(callback.ID, "❌ "+userMessage(err))
		return
	}
	log.Debug().Msg("reminder button handled")
	h.answerCallback(callback.ID, text)

	if retire {
		h.clearButtons(callback.Message)
	}
}

func (h *Handlers) snooze(ctx context.Context, actorID int64, ref string, d time.Duration) (string, error) {
	r, err := h.svc.Snooze(ctx, actorID, ref, d)
	if err != nil {
		return "", err
	}
	h.notify()
	return fmt.Sprintf("😴 Snoozed until %s.", formatIn(r)), nil
}

func formatIn(r *models.Reminder) string {
	return r.TriggerAt.In(timezone.Location(r.Timezone)).Format(displayLayout)
}

func (h *Handlers) answerCallback(callbackID, text string) {
	answer := tgbotapi.NewCallback(callbackID, text)
	if text != "" {
		answer = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}
	if _, err := h.api.Request(answer); err != nil {
		h.log.Error().Err(err).Msg("failed to answer callback")
	}
}

// clearButtons drops the keyboard from a notification whose reminder is
// retired, so it cannot be pressed again.
func (h *Handlers) clearButtons(msg *tgbotapi.Message) {
	if msg == nil || msg.Chat == nil {
		return
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(msg.Chat.ID, msg.MessageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	if _, err := h.api.Request(edit); err != nil {
		h.log.Warn().Err(err).Int64("chat_id", msg.Chat.ID).Msg("failed to clear reminder buttons")
	}
}
