package delivery

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kishanx08/ticket-master/internal/cadence"
	"github.com/Kishanx08/ticket-master/internal/format"
	"github.com/Kishanx08/ticket-master/internal/models"
	"github.com/Kishanx08/ticket-master/internal/timezone"
)

// Button actions carried in callback data as "rem:<action>:<shortID>".
const (
	ActionComplete = "complete"
	ActionSnooze15 = "snooze15"
	ActionSnooze60 = "snooze60"
	ActionRepeat   = "repeat"

	callbackPrefix = "rem"
)

const timeLayout = "Mon, Jan 2 2006 15:04 MST"

func CallbackData(action string, shortID int) string {
	return fmt.Sprintf("%s:%s:%d", callbackPrefix, action, shortID)
}

// ParseCallback is the inverse of CallbackData.
func ParseCallback(data string) (action string, shortID int, ok bool) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != callbackPrefix {
		return "", 0, false
	}
	switch parts[1] {
	case ActionComplete, ActionSnooze15, ActionSnooze60, ActionRepeat:
	default:
		return "", 0, false
	}
	id, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, false
	}
	return parts[1], id, true
}

// Keyboard is the inline keyboard attached to every notification.
func Keyboard(shortID int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Complete", CallbackData(ActionComplete, shortID)),
			tgbotapi.NewInlineKeyboardButtonData("🔁 Repeat", CallbackData(ActionRepeat, shortID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("😴 15 min", CallbackData(ActionSnooze15, shortID)),
			tgbotapi.NewInlineKeyboardButtonData("😴 1 hour", CallbackData(ActionSnooze60, shortID)),
		),
	)
}

// Render builds the notification card. direct is true for the owner's
// private chat, where the owner does not need to be mentioned.
func Render(r *models.Reminder, direct bool) format.ParseResult {
	loc := timezone.Location(r.Timezone)
	var b format.Builder

	if direct {
		b.Bold("⏰ Reminder")
	} else {
		b.Bold("⏰ Reminder for ").Mention(ownerLabel(r), r.OwnerID)
	}
	b.Line().Line().Text(r.Message).Line().Line()

	b.Bold("Set by: ").Mention(ownerLabel(r), r.OwnerID).Line()
	b.Bold("Set on: ").Text(r.CreatedAt.In(loc).Format(timeLayout)).Line()
	b.Bold("Original time: ").Text(r.TriggerAt.In(loc).Format(timeLayout)).Line()
	if r.Snoozed {
		b.Bold("Snoozed: ").Text(fmt.Sprintf("%d time(s)", r.SnoozeCount)).Line()
	}
	if r.Repeat != nil {
		b.Bold("Repeats: ").Text(cadence.Describe(r.Repeat)).Line()
	}
	b.Line().Italic("Reminder ID: ").Code(strconv.Itoa(r.ShortID))

	return b.Result()
}

func ownerLabel(r *models.Reminder) string {
	if r.OwnerName != "" {
		return r.OwnerName
	}
	return "user " + strconv.FormatInt(r.OwnerID, 10)
}
