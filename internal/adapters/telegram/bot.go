// Package telegram adapts the chat platform behind the core's ports: the
// inbound message feed, the reply notifier and the origin-message existence
// check. Without a bot token the adapter runs disabled and the core keeps
// tracking headless.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"signalTracker/internal/ports"
)

// Bot wraps the Telegram API client and implements ports.Notifier,
// ports.MessageChecker and ports.MessageFeed.
type Bot struct {
	api       *tgbotapi.BotAPI
	probeChat int64
	enabled   bool
	logger    ports.Logger
	// offset is the next update ID to poll from. Backlog advances it past
	// the drained updates so Start does not redeliver them.
	offset int
}

// Config holds configuration for the Telegram adapter.
type Config struct {
	BotToken string
	// ProbeChatID is the log channel the existence check copies messages
	// into. The copy is deleted immediately after.
	ProbeChatID int64
	Logger      ports.Logger
}

// New creates the Telegram adapter. An empty token yields a disabled bot:
// notifications become no-ops, existence checks report true and the feed
// never delivers.
func New(cfg Config) (*Bot, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Telegram adapter")
	}
	if cfg.BotToken == "" {
		cfg.Logger.Warn(context.Background(), "No bot token configured, Telegram adapter disabled")
		return &Bot{enabled: false, logger: cfg.Logger}, nil
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	cfg.Logger.Info(context.Background(), "Telegram bot connected", map[string]interface{}{"username": api.Self.UserName})

	return &Bot{
		api:       api,
		probeChat: cfg.ProbeChatID,
		enabled:   true,
		logger:    cfg.Logger,
	}, nil
}

// Enabled reports whether the adapter holds a live connection.
func (b *Bot) Enabled() bool { return b.enabled }

// Backlog drains the updates Telegram queued while the bot was offline and
// returns their text messages. Call before Start; the poll offset moves past
// everything drained here. Telegram keeps undelivered updates for 24 hours,
// which is the only history a bot can see.
func (b *Bot) Backlog(ctx context.Context) ([]ports.InboundMessage, error) {
	if !b.enabled {
		return nil, nil
	}

	var backlog []ports.InboundMessage
	for {
		updateCfg := tgbotapi.NewUpdate(b.offset)
		updateCfg.Limit = 100
		updates, err := b.api.GetUpdates(updateCfg)
		if err != nil {
			return backlog, fmt.Errorf("failed to fetch queued updates: %w", err)
		}
		if len(updates) == 0 {
			return backlog, nil
		}
		for _, update := range updates {
			b.offset = update.UpdateID + 1
			if inbound, ok := toInbound(update); ok {
				backlog = append(backlog, inbound)
			}
		}
	}
}

// Start begins long-polling for updates and forwards text messages. The
// channel closes when ctx is cancelled. A disabled bot returns a channel
// that never delivers.
func (b *Bot) Start(ctx context.Context) (<-chan ports.InboundMessage, error) {
	out := make(chan ports.InboundMessage)
	if !b.enabled {
		go func() {
			<-ctx.Done()
			close(out)
		}()
		return out, nil
	}

	updateCfg := tgbotapi.NewUpdate(b.offset)
	updateCfg.Timeout = 30
	updates := b.api.GetUpdatesChan(updateCfg)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				b.api.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				inbound, ok := toInbound(update)
				if !ok {
					continue
				}
				select {
				case out <- inbound:
				case <-ctx.Done():
					b.api.StopReceivingUpdates()
					return
				}
			}
		}
	}()
	return out, nil
}

// toInbound extracts the text message or channel post from an update.
func toInbound(update tgbotapi.Update) (ports.InboundMessage, bool) {
	msg := update.Message
	if msg == nil && update.ChannelPost != nil {
		msg = update.ChannelPost
	}
	if msg == nil || msg.Text == "" {
		return ports.InboundMessage{}, false
	}
	inbound := ports.InboundMessage{
		MessageRef: strconv.Itoa(msg.MessageID),
		ChannelRef: strconv.FormatInt(msg.Chat.ID, 10),
		Text:       msg.Text,
	}
	if msg.From != nil {
		inbound.AuthorRef = strconv.FormatInt(msg.From.ID, 10)
	}
	return inbound, true
}

// Notify posts text in reply to the originating signal message.
func (b *Bot) Notify(ctx context.Context, channelRef, originMessageRef, text string) error {
	if !b.enabled {
		return nil
	}
	chatID, messageID, err := parseRefs(channelRef, originMessageRef)
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = messageID
	if _, err := b.api.Send(msg); err != nil {
		// The origin may have been deleted between the check and the reply.
		// Fall back to a plain channel message so the update is not lost.
		if strings.Contains(err.Error(), "replied message not found") {
			msg.ReplyToMessageID = 0
			if _, retryErr := b.api.Send(msg); retryErr == nil {
				return nil
			}
		}
		return fmt.Errorf("failed to send notification to chat %s: %w", channelRef, err)
	}
	return nil
}

// StillExists probes whether the originating message is still present by
// copying it into the probe channel and deleting the copy. The bot API has
// no message fetch, so the copy is the only observable signal. Any outcome
// other than a definite "message to copy not found" reports true.
func (b *Bot) StillExists(ctx context.Context, channelRef, originMessageRef string) bool {
	if !b.enabled || b.probeChat == 0 {
		return true
	}
	chatID, messageID, err := parseRefs(channelRef, originMessageRef)
	if err != nil {
		b.logger.Warn(ctx, "Unparsable refs in existence check", map[string]interface{}{"channel": channelRef, "message": originMessageRef})
		return true
	}

	copyCfg := tgbotapi.NewCopyMessage(b.probeChat, chatID, messageID)
	copyCfg.DisableNotification = true
	copied, err := b.api.CopyMessage(copyCfg)
	if err != nil {
		if strings.Contains(err.Error(), "message to copy not found") {
			return false
		}
		b.logger.Debug(ctx, "Existence probe inconclusive", map[string]interface{}{"error": err.Error(), "message": originMessageRef})
		return true
	}

	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(b.probeChat, copied.MessageID)); err != nil {
		b.logger.Debug(ctx, "Failed to delete probe copy", map[string]interface{}{"error": err.Error()})
	}
	return true
}

func parseRefs(channelRef, messageRef string) (int64, int, error) {
	chatID, err := strconv.ParseInt(channelRef, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid channel ref %q: %w", channelRef, err)
	}
	messageID, err := strconv.Atoi(messageRef)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid message ref %q: %w", messageRef, err)
	}
	return chatID, messageID, nil
}
