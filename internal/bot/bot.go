// Package bot implements the Telegram command surface and artifact delivery.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bilidyn/internal/config"
	"bilidyn/internal/model"
	"bilidyn/internal/store"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Source is the part of the feed source the bot needs: priming a new
// subscription's dedup window so history is not re-announced.
type Source interface {
	Dynamics(ctx context.Context, ownerID int64) ([]*model.Dynamic, error)
}

// templateCache is the render-pipeline surface exposed to chat commands.
type templateCache interface {
	Reload() error
	Styles() []string
}

// Bot handles user commands and delivers rendered dynamics.
type Bot struct {
	api       telegramAPI
	store     store.Store
	source    Source
	templates templateCache
	cfg       *config.Config
	log       *slog.Logger
}

// New creates a Bot with the given Telegram token and collaborators.
func New(token string, st store.Store, source Source, templates templateCache, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:       api,
		store:     st,
		source:    source,
		templates: templates,
		cfg:       cfg,
		log:       log,
	}, nil
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if !b.cfg.IsUserAllowed(update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

// SendMessage delivers a plain text message to a subscriber key.
func (b *Bot) SendMessage(subscriber string, text string) error {
	chatID, err := chatIDForKey(subscriber)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendPhoto delivers a rendered card image to a subscriber key.
func (b *Bot) SendPhoto(subscriber string, photo []byte, caption string) error {
	chatID, err := chatIDForKey(subscriber)
	if err != nil {
		return err
	}
	cfg := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "dynamic.jpg", Bytes: photo})
	cfg.Caption = caption
	if _, err := b.api.Send(cfg); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}
	return nil
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID
	key := chatKey(msg.Chat).String()

	b.log.Debug("command", "cmd", cmd, "args", args, "subscriber", key)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "sub":
		b.handleSub(ctx, chatID, key, args)
	case "unsub":
		b.handleUnsub(chatID, key, args)
	case "list":
		b.handleList(chatID, key)
	case "filter":
		b.handleFilter(chatID, key, args)
	case "unsub_all":
		b.handleUnsubAll(chatID, args)
	case "reload_templates":
		b.handleReload(chatID)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}

// chatKey derives the structured subscriber key for a chat.
func chatKey(chat *tgbotapi.Chat) model.SubscriberKey {
	kind := "GroupMessage"
	switch {
	case chat.IsPrivate():
		kind = "PrivateMessage"
	case chat.IsChannel():
		kind = "ChannelMessage"
	}
	return model.SubscriberKey{
		Transport: "telegram",
		Kind:      kind,
		Scope:     strconv.FormatInt(chat.ID, 10),
	}
}

// chatIDForKey recovers the numeric chat ID from a subscriber key.
func chatIDForKey(subscriber string) (int64, error) {
	key, err := model.ParseSubscriberKey(subscriber)
	if err != nil {
		return 0, err
	}
	chatID, err := strconv.ParseInt(key.Scope, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("non-numeric chat scope %q", key.Scope)
	}
	return chatID, nil
}
