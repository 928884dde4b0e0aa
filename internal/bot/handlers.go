package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"keyword_notify/internal/filter"
	"keyword_notify/internal/model"
	"keyword_notify/internal/notifier"
	"keyword_notify/internal/rules"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to KeywordNotify!

Get a silent alert whenever a Discord message matches one of your regex rules.

Quick start:
1. /add <pattern> — add a rule
2. /scope <n> deny <channel_id> — skip a channel
3. /log — browse recent matches

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Rules:
/rules — show all rules
/add [pattern] — add a rule (regex, empty rules are inactive)
/edit <n> <pattern> — change the pattern of rule n
/scope <n> allow|deny [ids...] — set channel, guild or user IDs
/remove <n> — delete rule n

Match log:
/log [page] — show recent matches, newest first
/rmlog <message_id> — remove a match from the log

Other:
/backfill <channel_id> — scan recent history without alerts
/bots [on|off] — match messages from bot accounts (off by default)

Scope: deny skips the listed IDs, allow checks only the listed IDs.
An allow rule listing a bot's user ID matches that bot even when bots are ignored.`)
}

func (b *Bot) handleRules(chatID int64) {
	rs := b.rules.List()
	msg := tgbotapi.NewMessage(chatID, FormatRuleList(rs))
	msg.DisableWebPagePreview = true
	if len(rs) > 0 {
		var rows [][]tgbotapi.InlineKeyboardButton
		for i, r := range rs {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("Remove #%d", i+1),
					fmt.Sprintf("%s:%d:%s", cmdRmRule, i+1, RuleToken(r))),
			))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	b.send(msg)
}

func (b *Bot) handleAdd(ctx context.Context, chatID int64, args string) {
	if args != "" {
		if err := filter.ValidateRegex(args); err != nil {
			b.reply(chatID, fmt.Sprintf("Invalid regex: %v", err))
			return
		}
	}

	idx, err := b.rules.Add(ctx, model.NewRule(args))
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to save rule: %v", err))
		return
	}

	if args == "" {
		b.reply(chatID, fmt.Sprintf("Rule #%d added. It is inactive until you set a pattern with /edit %d <pattern>.", idx+1, idx+1))
		return
	}
	b.reply(chatID, fmt.Sprintf("Rule #%d added: /%s/ (everywhere)", idx+1, args))
}

func (b *Bot) handleEdit(ctx context.Context, chatID int64, args string) {
	idx, pattern, err := ParseEditArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	if err := filter.ValidateRegex(pattern); err != nil {
		b.reply(chatID, fmt.Sprintf("Invalid regex: %v", err))
		return
	}

	if err := b.rules.SetPattern(ctx, idx, pattern); err != nil {
		b.replyRuleError(chatID, idx, err)
		return
	}
	b.reply(chatID, fmt.Sprintf("Rule #%d pattern set to /%s/.", idx+1, pattern))
}

func (b *Bot) handleScope(ctx context.Context, chatID int64, args string) {
	parsed, err := ParseScopeArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	if err := b.rules.SetScope(ctx, parsed.Index, parsed.Mode, parsed.IDs); err != nil {
		b.replyRuleError(chatID, parsed.Index, err)
		return
	}

	r := model.Rule{ScopeMode: parsed.Mode, ScopeIDs: parsed.IDs}
	b.reply(chatID, fmt.Sprintf("Rule #%d scope: %s", parsed.Index+1, scopeLabel(r)))
}

func (b *Bot) handleRemove(ctx context.Context, chatID int64, args string) {
	idx, err := ParseIndexArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /remove <n>")
		return
	}

	removed, err := b.rules.Remove(ctx, idx)
	if err != nil {
		b.replyRuleError(chatID, idx, err)
		return
	}
	b.reply(chatID, fmt.Sprintf("Rule #%d %s deleted.", idx+1, patternLabel(removed.Pattern)))
}

// handleRemoveButton handles "<n>:<token>" from a /rules keyboard. The rule
// is deleted only if it still has the token the button was built with.
func (b *Bot) handleRemoveButton(ctx context.Context, chatID int64, arg string) {
	n, token, ok := strings.Cut(arg, ":")
	if !ok || token == "" {
		return
	}
	idx, err := ParseIndexArg(n)
	if err != nil {
		return
	}

	removed, err := b.rules.RemoveIf(ctx, idx, func(r model.Rule) bool {
		return RuleToken(r) == token
	})
	if errors.Is(err, rules.ErrChanged) || errors.Is(err, rules.ErrNotFound) {
		b.reply(chatID, "The rule list has changed since these buttons were sent. Use /rules again.")
		return
	}
	if err != nil {
		b.replyRuleError(chatID, idx, err)
		return
	}
	b.reply(chatID, fmt.Sprintf("Rule #%d %s deleted.", idx+1, patternLabel(removed.Pattern)))
}

func (b *Bot) replyRuleError(chatID int64, idx int, err error) {
	if errors.Is(err, rules.ErrNotFound) {
		b.reply(chatID, fmt.Sprintf("Rule #%d not found.", idx+1))
		return
	}
	b.reply(chatID, fmt.Sprintf("Error: %v", err))
}

func (b *Bot) handleLog(chatID int64, args string) {
	page, err := ParsePageArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /log [page]")
		return
	}

	entries, pages := LogPage(b.matches.Entries(), page)
	if pages == 0 {
		b.reply(chatID, "The match log is empty.")
		return
	}
	if len(entries) == 0 {
		b.reply(chatID, fmt.Sprintf("Page %d not found, the log has %d page(s).", page, pages))
		return
	}

	b.reply(chatID, fmt.Sprintf("Match log, page %d/%d:", page, pages))

	patterns := b.rules.Patterns()
	for _, e := range entries {
		msg := tgbotapi.NewMessage(chatID, FormatLogEntry(e, patterns))
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Delete", cmdRmLog+":"+e.ID),
			tgbotapi.NewInlineKeyboardButtonURL("Jump", notifier.JumpURL(e)),
		))
		b.send(msg)
	}

	if page < pages {
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("%d older page(s) left.", pages-page))
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Older", fmt.Sprintf("%s:%d", cmdLog, page+1)),
		))
		b.send(msg)
	}
}

func (b *Bot) handleRmLog(ctx context.Context, chatID int64, args string) {
	id := strings.TrimSpace(args)
	if id == "" {
		b.reply(chatID, "Usage: /rmlog <message_id>")
		return
	}
	if !b.matches.Delete(ctx, id) {
		b.reply(chatID, fmt.Sprintf("Message %s is not in the log.", id))
		return
	}
	b.reply(chatID, fmt.Sprintf("Message %s removed from the log.", id))
}

func (b *Bot) handleBackfill(ctx context.Context, chatID int64, args string) {
	id := strings.TrimSpace(args)
	if id == "" {
		b.reply(chatID, "Usage: /backfill <channel_id>")
		return
	}

	before := len(b.matches.Entries())
	n, err := b.backfill.Backfill(ctx, id)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to load history: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Scanned %d message(s) in %s, log now holds %d match(es) (was %d).",
		n, id, len(b.matches.Entries()), before))
}

func (b *Bot) handleBots(chatID int64, args string) {
	switch strings.ToLower(strings.TrimSpace(args)) {
	case "":
	case "on":
		b.bots.SetIgnoreBots(false)
	case "off":
		b.bots.SetIgnoreBots(true)
	default:
		b.reply(chatID, "Usage: /bots [on|off]")
		return
	}

	if b.bots.IgnoreBots() {
		b.reply(chatID, "Bot messages are ignored.")
		return
	}
	b.reply(chatID, "Bot messages are matched.")
}
