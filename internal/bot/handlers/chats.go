package handlers

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	errBadChatRef   = errors.New("bad chat reference")
	errUnknownChat  = errors.New("unknown chat")
	errNotMember    = errors.New("not a member")
	errNotAdmin     = errors.New("not an admin")
	errMemberLookup = errors.New("member lookup failed")
)

var reChatUsername = regexp.MustCompile(`^@[A-Za-z][A-Za-z0-9_]{3,31}$`)

// cutTarget splits a leading "to:<chat>" off a /remind argument string.
func cutTarget(args string) (ref, rest string, ok bool) {
	args = strings.TrimSpace(args)
	first, rest, _ := strings.Cut(args, " ")
	if len(first) < 3 || !strings.EqualFold(first[:3], "to:") {
		return "", args, false
	}
	return first[3:], strings.TrimSpace(rest), true
}

// resolveChat turns a numeric chat id or an @username into a chat id, and
// checks that userID belongs to that chat.
func (h *Handlers) resolveChat(ref string, userID int64, needAdmin bool) (int64, error) {
	var chatID int64
	switch {
	case reChatUsername.MatchString(ref):
		chat, err := h.api.GetChat(tgbotapi.ChatInfoConfig{
			ChatConfig: tgbotapi.ChatConfig{SuperGroupUsername: ref},
		})
		if err != nil {
			h.log.Warn().Err(err).Str("chat", ref).Msg("failed to look up chat")
			return 0, errUnknownChat
		}
		chatID = chat.ID
	default:
		id, err := strconv.ParseInt(ref, 10, 64)
		if err != nil || id == 0 {
			return 0, errBadChatRef
		}
		chatID = id
	}
	if err := h.checkMember(chatID, userID, needAdmin); err != nil {
		return 0, err
	}
	return chatID, nil
}

func (h *Handlers) checkMember(chatID, userID int64, needAdmin bool) error {
	member, err := h.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to get chat member")
		return errMemberLookup
	}
	switch {
	case member.HasLeft() || member.WasKicked():
		return errNotMember
	case needAdmin && !member.IsAdministrator() && !member.IsCreator():
		return errNotAdmin
	}
	return nil
}

func chatErrorMessage(err error) string {
	switch {
	case errors.Is(err, errBadChatRef):
		return "Name the chat by its numeric id or its @username."
	case errors.Is(err, errUnknownChat):
		return "I could not find that chat. Make sure I was added to it."
	case errors.Is(err, errNotMember):
		return "You are not a member of that chat."
	case errors.Is(err, errNotAdmin):
		return "You need to be an admin of that chat."
	default:
		return "Failed to check your permissions. Please try again."
	}
}
