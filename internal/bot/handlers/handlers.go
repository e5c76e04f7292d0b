package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/Kishanx08/ticket-master/internal/ai"
	"github.com/Kishanx08/ticket-master/internal/format"
	"github.com/Kishanx08/ticket-master/internal/reminders"
	"github.com/Kishanx08/ticket-master/internal/repository"
)

// API is the part of *tgbotapi.BotAPI the handlers use.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
}

// Extractor reads reminder fields out of free text.
type Extractor interface {
	ExtractReminder(ctx context.Context, text string, zone *time.Location) (*ai.Extraction, error)
}

// FallbackCache is told when a community's fallback chat changes.
type FallbackCache interface {
	ForgetFallback(communityID int64)
}

type Deps struct {
	Service     *reminders.Service
	Communities repository.CommunityStore
	// Settings is optional; without it zones come from the locale only.
	Settings  repository.SettingsStore
	Fallbacks FallbackCache
	// AI is nil when free-text parsing is disabled.
	AI Extractor
	// Notify wakes the scheduler after a reminder was created or moved.
	Notify func()
	Now    func() time.Time
}

type Handlers struct {
	api         API
	svc         *reminders.Service
	communities repository.CommunityStore
	settings    repository.SettingsStore
	fallbacks   FallbackCache
	ai          Extractor
	notify      func()
	now         func() time.Time
	log         zerolog.Logger
}

func New(api API, deps Deps, log zerolog.Logger) *Handlers {
	notify := deps.Notify
	if notify == nil {
		notify = func() {}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Handlers{
		api:         api,
		svc:         deps.Service,
		communities: deps.Communities,
		settings:    deps.Settings,
		fallbacks:   deps.Fallbacks,
		ai:          deps.AI,
		notify:      notify,
		now:         now,
		log:         log,
	}
}

func (h *Handlers) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	switch msg.Command() {
	case "start":
		h.handleStart(ctx, msg)
	case "help":
		h.handleHelp(ctx, msg)
	case "remind":
		h.handleRemind(ctx, msg)
	case "reminders":
		h.handleReminderList(ctx, msg)
	case "reminder":
		h.handleReminderInfo(ctx, msg)
	case "delreminder":
		h.handleReminderDelete(ctx, msg)
	case "editreminder":
		h.handleReminderEdit(ctx, msg)
	case "snooze":
		h.handleSnooze(ctx, msg)
	case "fallback":
		h.handleFallback(ctx, msg)
	case "timezone":
		h.handleTimezone(ctx, msg)
	default:
		h.sendMessage(msg.Chat.ID, "Unknown command. Use /help to see what I can do.")
	}
}

func (h *Handlers) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() || strings.TrimSpace(msg.Text) == "" {
		return
	}
	h.handleAIMessage(ctx, msg)
}

func (h *Handlers) sendMessage(chatID int64, text string) {
	if _, err := h.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}

func (h *Handlers) sendFormatted(chatID int64, r format.ParseResult) {
	if _, err := h.api.Send(format.Message(chatID, r)); err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}

// replyError shows user errors as-is and hides everything else behind a
// generic message.
func (h *Handlers) replyError(chatID int64, err error, action string) {
	if reminders.IsUserError(err) {
		h.sendMessage(chatID, "❌ "+userMessage(err))
		return
	}
	h.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to " + action)
	h.sendMessage(chatID, "❌ Failed to "+action+". Please try again.")
}

const timeHint = `Please use formats like "in 30m", "tomorrow at 3pm", or "2024-12-25 15:30".`

func userMessage(err error) string {
	switch {
	case errors.Is(err, reminders.ErrInvalidTime):
		return "Invalid time format. " + timeHint
	case errors.Is(err, reminders.ErrPastTime):
		return "Reminder time must be in the future."
	case errors.Is(err, reminders.ErrCustomCadenceRequired):
		return `Custom repeat needs a pattern, e.g. "every 2 days" or "every monday".`
	case errors.Is(err, reminders.ErrUnknownCadence):
		return `Unknown repeat. Use daily, weekly, monthly, yearly, or a pattern like "every 2 days" or "every monday".`
	case errors.Is(err, reminders.ErrEmptyMessage):
		return "Please provide a reminder message."
	case errors.Is(err, reminders.ErrMessageTooLong):
		return "Reminder message is too long."
	case errors.Is(err, reminders.ErrNotFound):
		return "Reminder not found."
	case errors.Is(err, reminders.ErrNotOwner):
		return "You can only manage your own reminders."
	case errors.Is(err, reminders.ErrInactive):
		return "This reminder is no longer active."
	case errors.Is(err, reminders.ErrNothingToEdit):
		return "Please provide either a new message or new time to edit."
	case errors.Is(err, reminders.ErrShortIDExhausted):
		return "Could not allocate a reminder ID. Please try again."
	case errors.Is(err, reminders.ErrNoNextInstant):
		return "That repeat pattern has no next occurrence."
	default:
		return err.Error()
	}
}

func (h *Handlers) handleStart(_ context.Context, msg *tgbotapi.Message) {
	var b format.Builder
	b.Text("👋 Hi ").Text(msg.From.FirstName).Text("!").Line().Line().
		Text("I send you reminders at the time you ask for, in your own timezone. For example:").Line().
		Code("/remind in 30m stretch").Line().
		Code("/remind tomorrow at 3pm call the bank").Line().
		Code("/remind next monday at 9am standup | weekly").Line().Line().
		Text("Use /help to see every command.")
	h.sendFormatted(msg.Chat.ID, b.Result())
}

func (h *Handlers) handleHelp(_ context.Context, msg *tgbotapi.Message) {
	var b format.Builder
	b.Bold("📖 Commands").Line().Line()
	for _, c := range helpLines {
		b.Code(c.usage).Text(" - " + c.text).Line()
	}
	b.Line().Text("Times: ").Text(`"in 30m", "at 5pm", "tomorrow at 3pm", "next friday", "2024-12-25 15:30".`).Line().
		Text("Repeats: daily, weekly, monthly, yearly, \"every 2 days\", \"every mon, wed\".")
	if h.ai != nil {
		b.Line().Line().Text("💡 You can also just tell me what to remind you about.")
	}
	h.sendFormatted(msg.Chat.ID, b.Result())
}

var helpLines = []struct{ usage, text string }{
	{"/remind [to:<chat>] <when> <message> [| <repeat>]", "create a reminder, optionally posted to another chat"},
	{"/reminders [all|today|week|repeating] [time|created]", "list your reminders"},
	{"/reminder <id>", "show one reminder"},
	{"/editreminder <id> message|time <value>", "change a reminder"},
	{"/snooze <id> <duration>", "push a reminder back"},
	{"/delreminder <id>", "delete a reminder"},
	{"/timezone [Area/City]", "show or set your timezone"},
	{"/fallback [chat]", "where this group's reminders go when their chat fails (admins)"},
}
