package bot

import (
	"context"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"keyword_notify/internal/config"
	"keyword_notify/internal/matchlog"
	"keyword_notify/internal/rules"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Backfiller loads a channel's recent history as a bulk load.
type Backfiller interface {
	Backfill(ctx context.Context, channelID string) (int, error)
}

// BotFilter toggles whether messages from bot accounts are ignored.
type BotFilter interface {
	IgnoreBots() bool
	SetIgnoreBots(v bool)
}

// Bot is the Telegram bot that edits the keyword rules and browses the match log.
type Bot struct {
	api      telegramAPI
	rules    *rules.Store
	matches  *matchlog.Log
	backfill Backfiller
	bots     BotFilter
	cfg      *config.Config
	log      *slog.Logger
}

// New creates a Bot on top of an authorized Telegram API client.
func New(api *tgbotapi.BotAPI, store *rules.Store, matches *matchlog.Log, backfill Backfiller, bots BotFilter, cfg *config.Config, log *slog.Logger) *Bot {
	return &Bot{
		api:      api,
		rules:    store,
		matches:  matches,
		backfill: backfill,
		bots:     bots,
		cfg:      cfg,
		log:      log,
	}
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
			if update.CallbackQuery != nil {
				if update.CallbackQuery.From == nil || !b.cfg.IsUserAllowed(update.CallbackQuery.From.ID) {
					continue
				}
				b.handleCallback(ctx, update.CallbackQuery)
				continue
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if update.Message.From == nil || !b.cfg.IsUserAllowed(update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", msg.ChatID, "error", err)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case cmdRules:
		b.handleRules(chatID)
	case "add":
		b.handleAdd(ctx, chatID, args)
	case "edit":
		b.handleEdit(ctx, chatID, args)
	case "scope":
		b.handleScope(ctx, chatID, args)
	case "remove":
		b.handleRemove(ctx, chatID, args)
	case cmdLog:
		b.handleLog(chatID, args)
	case cmdRmLog:
		b.handleRmLog(ctx, chatID, args)
	case "backfill":
		b.handleBackfill(ctx, chatID, args)
	case "bots":
		b.handleBots(chatID, args)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
