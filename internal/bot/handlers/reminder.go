package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kishanx08/ticket-master/internal/cadence"
	"github.com/Kishanx08/ticket-master/internal/format"
	"github.com/Kishanx08/ticket-master/internal/models"
	"github.com/Kishanx08/ticket-master/internal/reminders"
	"github.com/Kishanx08/ticket-master/internal/timezone"
)

const (
	// listLimit caps how many reminders one /reminders reply shows.
	listLimit = 25

	displayLayout = "Mon, Jan 2 2006 15:04 MST"
)

func (h *Handlers) handleRemind(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		h.sendMessage(msg.Chat.ID, "Usage: /remind [to:<chat>] <when> <message> [| <repeat>]\nExample: /remind tomorrow at 3pm call the bank")
		return
	}

	head, repeat, _ := strings.Cut(args, "|")
	var target int64
	if ref, rest, ok := cutTarget(head); ok {
		chatID, err := h.resolveChat(ref, msg.From.ID, false)
		if err != nil {
			h.sendMessage(msg.Chat.ID, "❌ "+chatErrorMessage(err))
			return
		}
		target, head = chatID, rest
	}
	when, message, ok := h.svc.SplitWhen(head, h.zoneFor(ctx, msg.From))
	if !ok {
		h.sendMessage(msg.Chat.ID, "❌ "+userMessage(reminders.ErrInvalidTime))
		return
	}

	req := reminders.CreateRequest{
		When:    when,
		Message: message,
		Repeat:  strings.TrimSpace(repeat),
	}
	if target != 0 {
		req.DestinationID = target
		if msg.Chat.IsPrivate() {
			req.CommunityID = target
		}
	}
	h.createReminder(ctx, msg, req)
}

// createReminder fills in who and where from msg and replies with the
// confirmation card. A destination already set on req is kept.
func (h *Handlers) createReminder(ctx context.Context, msg *tgbotapi.Message, req reminders.CreateRequest) {
	req.OwnerID = msg.From.ID
	req.OwnerName = displayName(msg.From)
	if req.CommunityID == 0 {
		req.CommunityID = msg.Chat.ID
	}
	if req.DestinationID == 0 {
		req.DestinationID = msg.Chat.ID
	}
	req.Locale = msg.From.LanguageCode
	req.Timezone = h.explicitZone(ctx, msg.From.ID)

	r, err := h.svc.Create(ctx, req)
	if err != nil {
		h.replyError(msg.Chat.ID, err, "create reminder")
		return
	}
	h.notify()

	fields := []format.Field{
		{Name: "When", Value: r.TriggerAt.In(timezone.Location(r.Timezone)).Format(displayLayout)},
		{Name: "In", Value: humanizeUntil(r.TriggerAt.Sub(h.now()))},
	}
	if r.Repeat != nil {
		fields = append(fields, format.Field{Name: "Repeats", Value: cadence.Describe(r.Repeat)})
	}
	fields = append(fields, format.Field{Name: "ID", Value: strconv.Itoa(r.ShortID), Code: true})

	h.sendFormatted(msg.Chat.ID, format.Embed{
		Title:       "✅ Reminder set",
		Description: r.Message,
		Fields:      fields,
		Footer:      "Use the ID with /reminder, /editreminder, /snooze or /delreminder.",
	}.Render())
}

func (h *Handlers) handleReminderList(ctx context.Context, msg *tgbotapi.Message) {
	req := reminders.ListRequest{
		OwnerID: msg.From.ID,
		Filter:  reminders.FilterAll,
		Sort:    reminders.SortTime,
		Zone:    h.zoneFor(ctx, msg.From),
	}
	if !msg.Chat.IsPrivate() {
		req.CommunityID = msg.Chat.ID
	}
	for _, arg := range strings.Fields(strings.ToLower(msg.CommandArguments())) {
		switch arg {
		case string(reminders.FilterAll), string(reminders.FilterToday), string(reminders.FilterWeek), string(reminders.FilterRepeating):
			req.Filter = reminders.Filter(arg)
		case string(reminders.SortTime), string(reminders.SortCreated):
			req.Sort = reminders.Sort(arg)
		default:
			h.sendMessage(msg.Chat.ID, "Usage: /reminders [all|today|week|repeating] [time|created]")
			return
		}
	}

	list, err := h.svc.List(ctx, req)
	if err != nil {
		h.replyError(msg.Chat.ID, err, "list reminders")
		return
	}
	if len(list) == 0 {
		if req.Filter == reminders.FilterAll {
			h.sendMessage(msg.Chat.ID, "📝 You have no active reminders.")
		} else {
			h.sendMessage(msg.Chat.ID, fmt.Sprintf("📝 No reminders found for filter: %s", req.Filter))
		}
		return
	}

	h.sendFormatted(msg.Chat.ID, renderList(list, req.Filter))
}

func renderList(list []*models.Reminder, filter reminders.Filter) format.ParseResult {
	var b format.Builder
	b.Bold(fmt.Sprintf("⏰ Your reminders (%d)", len(list)))
	if filter != reminders.FilterAll {
		b.Text(" - " + string(filter))
	}
	b.Line().Line()

	shown := list
	if len(shown) > listLimit {
		shown = shown[:listLimit]
	}
	for _, r := range shown {
		b.Code(strconv.Itoa(r.ShortID)).Text(" " + truncate(r.Message, 50)).Line()
		b.Text("   📅 " + r.TriggerAt.In(timezone.Location(r.Timezone)).Format(displayLayout))
		if r.Repeat != nil {
			b.Text(" 🔁 " + cadence.Describe(r.Repeat))
		}
		if r.Snoozed {
			b.Text(" 😴")
		}
		b.Line()
	}
	if len(list) > listLimit {
		b.Line().Italic(fmt.Sprintf("Showing first %d reminders. Use filters to narrow down results.", listLimit))
	}
	return b.Result()
}

func (h *Handlers) handleReminderInfo(ctx context.Context, msg *tgbotapi.Message) {
	ref := strings.TrimSpace(msg.CommandArguments())
	if ref == "" {
		h.sendMessage(msg.Chat.ID, "Usage: /reminder <id>")
		return
	}
	r, err := h.svc.Info(ctx, msg.From.ID, ref)
	if err != nil {
		h.replyError(msg.Chat.ID, err, "get reminder")
		return
	}
	h.sendFormatted(msg.Chat.ID, renderInfo(r))
}

func renderInfo(r *models.Reminder) format.ParseResult {
	loc := timezone.Location(r.Timezone)
	status := "Active"
	if !r.Active {
		status = "Inactive"
	}
	fields := []format.Field{
		{Name: "ID", Value: strconv.Itoa(r.ShortID), Code: true},
		{Name: "Status", Value: status},
		{Name: "When", Value: r.TriggerAt.In(loc).Format(displayLayout)},
		{Name: "Timezone", Value: timezone.DisplayName(r.Timezone)},
		{Name: "Typed as", Value: r.OriginalExpression},
		{Name: "Repeats", Value: cadence.Describe(r.Repeat)},
	}
	if r.SnoozeCount > 0 {
		fields = append(fields, format.Field{Name: "Snoozed", Value: fmt.Sprintf("%d time(s)", r.SnoozeCount)})
	}
	fields = append(fields, format.Field{Name: "Created", Value: r.CreatedAt.In(loc).Format(displayLayout)})

	return format.Embed{
		Title:       "📋 Reminder details",
		Description: r.Message,
		Fields:      fields,
	}.Render()
}

func (h *Handlers) handleReminderDelete(ctx context.Context, msg *tgbotapi.Message) {
	ref := strings.TrimSpace(msg.CommandArguments())
	if ref == "" {
		h.sendMessage(msg.Chat.ID, "Usage: /delreminder <id>")
		return
	}
	r, err := h.svc.Delete(ctx, msg.From.ID, ref)
	if err != nil {
		h.replyError(msg.Chat.ID, err, "delete reminder")
		return
	}
	h.sendFormatted(msg.Chat.ID, format.Embed{
		Title:       "🗑 Reminder deleted",
		Description: r.Message,
		Fields:      []format.Field{{Name: "ID", Value: strconv.Itoa(r.ShortID), Code: true}},
	}.Render())
}

func (h *Handlers) handleReminderEdit(ctx context.Context, msg *tgbotapi.Message) {
	const usage = "Usage: /editreminder <id> message <new message>\n       /editreminder <id> time <new time>"
	parts := strings.Fields(msg.CommandArguments())
	if len(parts) < 3 {
		h.sendMessage(msg.Chat.ID, usage)
		return
	}
	value := strings.Join(parts[2:], " ")
	req := reminders.EditRequest{ActorID: msg.From.ID, Ref: parts[0]}
	switch strings.ToLower(parts[1]) {
	case "message", "msg":
		req.Message = &value
	case "time", "when":
		req.When = &value
	default:
		h.sendMessage(msg.Chat.ID, usage)
		return
	}

	r, err := h.svc.Edit(ctx, req)
	if err != nil {
		h.replyError(msg.Chat.ID, err, "update reminder")
		return
	}
	if req.When != nil {
		h.notify()
	}
	h.sendFormatted(msg.Chat.ID, format.Embed{
		Title:       "✏️ Reminder updated",
		Description: r.Message,
		Fields: []format.Field{
			{Name: "When", Value: r.TriggerAt.In(timezone.Location(r.Timezone)).Format(displayLayout)},
			{Name: "ID", Value: strconv.Itoa(r.ShortID), Code: true},
		},
	}.Render())
}

func (h *Handlers) handleSnooze(ctx context.Context, msg *tgbotapi.Message) {
	ref, amount, _ := strings.Cut(strings.TrimSpace(msg.CommandArguments()), " ")
	amount = strings.TrimSpace(amount)
	if ref == "" || amount == "" {
		h.sendMessage(msg.Chat.ID, "Usage: /snooze <id> <duration>\nExample: /snooze 1234 15m")
		return
	}
	r, err := h.svc.SnoozeFor(ctx, msg.From.ID, ref, amount)
	if err != nil {
		h.replyError(msg.Chat.ID, err, "snooze reminder")
		return
	}
	h.notify()
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("😴 Reminder %d snoozed until %s",
		r.ShortID, r.TriggerAt.In(timezone.Location(r.Timezone)).Format(displayLayout)))
}

// handleFallback sets where this group's reminders go when neither the
// owner's private chat nor their destination accepts them: another chat
// named as an argument, or the group itself. The caller must be an admin of
// the group and of the named chat.
func (h *Handlers) handleFallback(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.Chat.IsGroup() && !msg.Chat.IsSuperGroup() {
		h.sendMessage(msg.Chat.ID, "Use /fallback inside the group whose reminders it should cover.")
		return
	}
	if err := h.checkMember(msg.Chat.ID, msg.From.ID, true); err != nil {
		if errors.Is(err, errNotAdmin) {
			h.sendMessage(msg.Chat.ID, "❌ Only group admins can change the fallback chat.")
		} else {
			h.sendMessage(msg.Chat.ID, "❌ "+chatErrorMessage(err))
		}
		return
	}

	chatID := msg.Chat.ID
	if ref := strings.TrimSpace(msg.CommandArguments()); ref != "" {
		var err error
		if chatID, err = h.resolveChat(ref, msg.From.ID, true); err != nil {
			h.sendMessage(msg.Chat.ID, "❌ "+chatErrorMessage(err))
			return
		}
	}

	if err := h.communities.SetFallbackChat(ctx, msg.Chat.ID, chatID); err != nil {
		h.replyError(msg.Chat.ID, err, "set fallback chat")
		return
	}
	if h.fallbacks != nil {
		h.fallbacks.ForgetFallback(msg.Chat.ID)
	}
	h.log.Info().Int64("community_id", msg.Chat.ID).Int64("fallback_chat_id", chatID).Msg("fallback chat set")
	if chatID == msg.Chat.ID {
		h.sendMessage(msg.Chat.ID, "✅ Reminders from this group that cannot be delivered anywhere else will be posted here.")
		return
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("✅ Reminders from this group that cannot be delivered anywhere else will be posted to chat %d.", chatID))
}

func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	return name
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}

// humanizeUntil renders d as "2d 3h", "45m" or "less than a minute".
func humanizeUntil(d time.Duration) string {
	if d < time.Minute {
		return "less than a minute"
	}
	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	minutes := int(d % time.Hour / time.Minute)

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 && days == 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	return strings.Join(parts, " ")
}
