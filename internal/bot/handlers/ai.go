package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kishanx08/ticket-master/internal/reminders"
	"github.com/Kishanx08/ticket-master/internal/timezone"
)

func (h *Handlers) handleAIMessage(ctx context.Context, msg *tgbotapi.Message) {
	if h.ai == nil {
		h.sendMessage(msg.Chat.ID, "I only understand commands here. Use /help to see them.")
		return
	}

	zone := timezone.Location(h.zoneFor(ctx, msg.From))
	ext, err := h.ai.ExtractReminder(ctx, msg.Text, zone)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("failed to extract reminder")
		h.sendMessage(msg.Chat.ID, "Sorry, I could not understand that. Try /remind or /help.")
		return
	}

	h.log.Debug().
		Bool("is_reminder", ext.IsReminder).
		Str("when", ext.When).
		Str("repeat", ext.Repeat).
		Str("raw", ext.RawResponse).
		Msg("extracted reminder")

	if !ext.Complete() {
		reply := ext.Reply
		if reply == "" {
			reply = "What should I remind you about, and when?"
		}
		h.sendMessage(msg.Chat.ID, reply)
		return
	}

	h.createReminder(ctx, msg, reminders.CreateRequest{
		When:    ext.When,
		Message: ext.Message,
		Repeat:  ext.Repeat,
	})
}
