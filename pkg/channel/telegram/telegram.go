// Package telegram bridges Telegram updates into watcher events and
// sends reservation inquiries back as direct messages.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/DamirAkzhigitov/offer-parser/pkg/channel"
	"github.com/DamirAkzhigitov/offer-parser/pkg/config"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

const channelName = "telegram"
const messagePreviewLimit = 240

// Adapter bridges Telegram long polling into watcher events.
type Adapter struct {
	cfg config.TelegramConfig
	log *slog.Logger

	mu  sync.RWMutex
	bot *telego.Bot
}

// NewAdapter validates Telegram configuration and constructs an adapter instance.
func NewAdapter(cfg config.TelegramConfig, log *slog.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram.token is required")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Adapter{
		cfg: cfg,
		log: log.With("component", "channel.telegram"),
	}, nil
}

// Name returns the channel identifier used in logs and status output.
func (a *Adapter) Name() string {
	return channelName
}

// Run starts Telegram long polling and fans each resolvable update out
// to the handler on its own goroutine, so one slow pipeline does not
// starve the event stream.
func (a *Adapter) Run(ctx context.Context, handler channel.Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}

	bot, err := telego.NewBot(strings.TrimSpace(a.cfg.Token))
	if err != nil {
		return fmt.Errorf("initialize telegram bot: %w", err)
	}

	a.setBot(bot)
	defer a.setBot(nil)

	updates, err := bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("start long polling: %w", err)
	}

	a.log.Info("Telegram channel started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				if err := ctx.Err(); err != nil {
					return nil
				}
				return errors.New("telegram updates channel closed")
			}

			message := update.Message
			if message == nil {
				message = update.ChannelPost
			}
			if message == nil {
				continue
			}

			event, err := resolveEvent(message)
			if err != nil {
				a.log.Debug("Ignoring update with unrecognized chat shape", "error", err)
				continue
			}
			if strings.TrimSpace(event.Text) == "" {
				continue
			}

			a.log.Info("Received message",
				"chat_id", event.ChatID,
				"sender_id", event.SenderID,
				"has_sender", event.HasSender,
				"content", previewText(event.Text),
			)

			go handler(ctx, event)
		}
	}
}

// SendDirectMessage delivers text to a user's private chat. It fails
// when the adapter is not running.
func (a *Adapter) SendDirectMessage(ctx context.Context, userID int64, text string) error {
	bot := a.currentBot()
	if bot == nil {
		return errors.New("telegram bot is not running")
	}

	if _, err := bot.SendMessage(ctx, tu.Message(tu.ID(userID), text)); err != nil {
		return fmt.Errorf("send direct message: %w", err)
	}
	a.log.Info("Sent direct message", "user_id", userID, "content", previewText(text))

	return nil
}

// resolveEvent maps one Telegram message onto the unified identifier
// space. Messages without a sender keep HasSender false so the
// pipeline owns the drop policy.
func resolveEvent(message *telego.Message) (channel.Event, error) {
	chatID, err := normalizeChatID(message.Chat)
	if err != nil {
		return channel.Event{}, err
	}

	event := channel.Event{
		ChatID: chatID,
		Text:   message.Text,
	}
	if message.From != nil {
		event.SenderID = message.From.ID
		event.HasSender = true
	}

	return event, nil
}

// Channels and supergroups below this offset collide with group ids,
// so raw positive ids are pushed past it.
const channelIDOffset = int64(-1_000_000_000_000)

// normalizeChatID maps the three Telegram chat shapes onto one signed
// identifier space: private chats keep the user id, basic groups are
// negated, channels and supergroups are offset. Ids the Bot API has
// already normalized (negative) pass through unchanged.
func normalizeChatID(chat telego.Chat) (int64, error) {
	switch chat.Type {
	case telego.ChatTypePrivate:
		return chat.ID, nil
	case telego.ChatTypeGroup:
		if chat.ID > 0 {
			return -chat.ID, nil
		}
		return chat.ID, nil
	case telego.ChatTypeSupergroup, telego.ChatTypeChannel:
		if chat.ID > 0 {
			return channelIDOffset - chat.ID, nil
		}
		return chat.ID, nil
	default:
		return 0, fmt.Errorf("unrecognized chat type %q", chat.Type)
	}
}

func (a *Adapter) setBot(bot *telego.Bot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bot = bot
}

func (a *Adapter) currentBot() *telego.Bot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.bot
}

// previewText returns a bounded log-safe preview of message text.
func previewText(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= messagePreviewLimit {
		return trimmed
	}

	return trimmed[:messagePreviewLimit] + "..."
}
