// Package delivery sends due reminders to the first chat that accepts them:
// the owner's private chat, then the reminder's destination, then the
// community's fallback chat.
package delivery

import (
	"context"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Kishanx08/ticket-master/internal/format"
	"github.com/Kishanx08/ticket-master/internal/metrics"
	"github.com/Kishanx08/ticket-master/internal/models"
	"github.com/Kishanx08/ticket-master/internal/repository"
)

// Sender is the part of *tgbotapi.BotAPI the pipeline needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Destination string

const (
	DestinationDM       Destination = "dm"
	DestinationChannel  Destination = "channel"
	DestinationFallback Destination = "fallback"
)

type Result struct {
	Delivered   bool
	Destination Destination
	ChatID      int64
	MessageID   int
	Attempts    int
}

type Config struct {
	RatePerSec int
	CacheTTL   time.Duration
}

type Pipeline struct {
	sender      Sender
	communities repository.CommunityStore
	limiter     *rate.Limiter
	fallbacks   *cache.Cache
	metrics     *metrics.Metrics
	log         zerolog.Logger
}

func New(sender Sender, communities repository.CommunityStore, m *metrics.Metrics, log zerolog.Logger, cfg Config) *Pipeline {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 25
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &Pipeline{
		sender:      sender,
		communities: communities,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		fallbacks:   cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		metrics:     m,
		log:         log,
	}
}

// Deliver tries each destination once, in order, skipping chats already
// tried. Failures are logged, never returned.
func (p *Pipeline) Deliver(ctx context.Context, r *models.Reminder) Result {
	log := p.log.With().Int("short_id", r.ShortID).Logger()
	tried := make(map[int64]bool, 3)
	var res Result

	attempt := func(dest Destination, chatID int64) bool {
		if chatID == 0 || tried[chatID] {
			return false
		}
		tried[chatID] = true
		res.Attempts++

		if err := p.limiter.Wait(ctx); err != nil {
			log.Warn().Err(err).Str("destination", string(dest)).Msg("delivery aborted")
			return false
		}
		msg := format.Message(chatID, Render(r, dest == DestinationDM))
		msg.ReplyMarkup = Keyboard(r.ShortID)

		sent, err := p.sender.Send(msg)
		if err != nil {
			p.count(dest, "error")
			log.Warn().Err(err).Str("destination", string(dest)).Int64("chat_id", chatID).Msg("delivery failed")
			return false
		}
		p.count(dest, "ok")
		res = Result{Delivered: true, Destination: dest, ChatID: chatID, MessageID: sent.MessageID, Attempts: res.Attempts}
		return true
	}

	if attempt(DestinationDM, r.OwnerID) || attempt(DestinationChannel, r.DestinationID) {
		return res
	}
	if ctx.Err() == nil {
		if chatID, ok := p.fallbackChat(ctx, r.CommunityID); ok && attempt(DestinationFallback, chatID) {
			return res
		}
	}

	p.count("none", "exhausted")
	log.Error().Int("attempts", res.Attempts).Msg("reminder could not be delivered to any destination")
	return res
}

func (p *Pipeline) fallbackChat(ctx context.Context, communityID int64) (int64, bool) {
	if communityID == 0 || p.communities == nil {
		return 0, false
	}
	key := strconv.FormatInt(communityID, 10)
	if v, found := p.fallbacks.Get(key); found {
		chatID := v.(int64)
		return chatID, chatID != 0
	}
	chatID, ok, err := p.communities.FallbackChat(ctx, communityID)
	if err != nil {
		p.log.Warn().Err(err).Int64("community_id", communityID).Msg("fallback chat lookup failed")
		return 0, false
	}
	if !ok {
		chatID = 0
	}
	p.fallbacks.Set(key, chatID, cache.DefaultExpiration)
	return chatID, ok
}

// ForgetFallback drops the cached fallback chat after it changes.
func (p *Pipeline) ForgetFallback(communityID int64) {
	p.fallbacks.Delete(strconv.FormatInt(communityID, 10))
}

func (p *Pipeline) count(dest Destination, result string) {
	if p.metrics == nil {
		return
	}
	p.metrics.Deliveries.WithLabelValues(string(dest), result).Inc()
}
