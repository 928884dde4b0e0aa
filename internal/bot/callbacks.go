package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cmdRules  = "rules"
	cmdLog    = "log"
	cmdRmLog  = "rmlog"
	cmdRmRule = "rmrule"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Send(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	action, arg, ok := strings.Cut(cb.Data, ":")
	if !ok || arg == "" {
		return
	}

	b.log.Info("callback",
		"action", action,
		"arg", arg,
		"chat_id", chatID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	switch action {
	case cmdRmLog:
		b.handleRmLog(ctx, chatID, arg)
	case cmdRmRule:
		b.handleRemoveButton(ctx, chatID, arg)
	case cmdLog:
		b.handleLog(chatID, arg)
	}
}
