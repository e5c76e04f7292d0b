package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kishanx08/ticket-master/internal/timezone"
)

// explicitZone is the zone the user set with /timezone, or "".
func (h *Handlers) explicitZone(ctx context.Context, userID int64) string {
	if h.settings == nil {
		return ""
	}
	settings, _, err := h.settings.Get(ctx, userID)
	if err != nil {
		h.log.Warn().Err(err).Int64("user_id", userID).Msg("failed to load user settings")
		return ""
	}
	return settings.Zone()
}

// zoneFor picks the user's explicit zone, falling back to their locale.
func (h *Handlers) zoneFor(ctx context.Context, u *tgbotapi.User) string {
	if zone := h.explicitZone(ctx, u.ID); zone != "" {
		return zone
	}
	return timezone.Resolve(u.LanguageCode)
}

func (h *Handlers) handleTimezone(ctx context.Context, msg *tgbotapi.Message) {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		zone := h.zoneFor(ctx, msg.From)
		source := "guessed from your Telegram language"
		if h.explicitZone(ctx, msg.From.ID) != "" {
			source = "set by you"
		}
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("🌍 Your timezone is %s (%s), %s.\nChange it with /timezone Area/City, e.g. /timezone Europe/Berlin.",
			timezone.DisplayName(zone), zone, source))
		return
	}
	if h.settings == nil {
		h.sendMessage(msg.Chat.ID, "Timezone settings are not available.")
		return
	}

	zone := arg
	if strings.EqualFold(arg, "auto") || strings.EqualFold(arg, "reset") {
		zone = ""
	} else if loc, err := time.LoadLocation(arg); err != nil || arg == "Local" {
		h.sendMessage(msg.Chat.ID, "❌ Unknown timezone. Use an IANA name like Europe/Berlin or America/New_York.")
		return
	} else {
		zone = loc.String()
	}

	if err := h.settings.SetTimezone(ctx, msg.From.ID, zone); err != nil {
		h.replyError(msg.Chat.ID, err, "save timezone")
		return
	}
	if zone == "" {
		h.sendMessage(msg.Chat.ID, "✅ Timezone reset. I will guess it from your Telegram language again.")
		return
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("✅ Timezone set to %s. New reminders use it; existing ones keep their zone.", zone))
}
