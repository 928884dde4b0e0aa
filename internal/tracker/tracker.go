// Package tracker ties the rule store, matcher, match log and notifier
// together for the lifetime of one watcher session.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/samber/mo"

	"keyword_notify/internal/filter"
	"keyword_notify/internal/matchlog"
	"keyword_notify/internal/model"
	"keyword_notify/internal/rules"
)

// Host resolves identifiers against the chat application's state.
type Host interface {
	Channel(channelID string) mo.Option[model.Channel]
	Guild(guildID string) mo.Option[model.Guild]
	CurrentUserID(ctx context.Context) (string, error)
}

// Notifier raises an alert for a live match.
type Notifier interface {
	Notify(ctx context.Context, msg model.Message, guild mo.Option[model.Guild], channel mo.Option[model.Channel])
}

// Tracker evaluates incoming messages and records matches.
type Tracker struct {
	rules      *rules.Store
	matches    *matchlog.Log
	notifier   Notifier
	host       Host
	log        *slog.Logger
	ignoreBots atomic.Bool
	selfID     atomic.Value
}

// New creates a Tracker. Start must be called before messages are applied.
func New(store *rules.Store, matches *matchlog.Log, notifier Notifier, host Host, ignoreBots bool, log *slog.Logger) *Tracker {
	t := &Tracker{
		rules:    store,
		matches:  matches,
		notifier: notifier,
		host:     host,
		log:      log,
	}
	t.ignoreBots.Store(ignoreBots)
	t.selfID.Store("")
	return t
}

// Start loads persisted rules and log and resolves the current user.
func (t *Tracker) Start(ctx context.Context) error {
	if err := t.rules.Load(ctx); err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	if err := t.matches.Load(ctx); err != nil {
		return fmt.Errorf("load match log: %w", err)
	}
	id, err := t.host.CurrentUserID(ctx)
	if err != nil {
		return fmt.Errorf("resolve current user: %w", err)
	}
	t.selfID.Store(id)

	t.log.Info("tracker started",
		"rules", len(t.rules.List()),
		"log_entries", len(t.matches.Entries()),
		"self_id", id,
	)
	return nil
}

// SetIgnoreBots toggles whether bot authors are skipped.
func (t *Tracker) SetIgnoreBots(v bool) {
	t.ignoreBots.Store(v)
}

// IgnoreBots reports whether bot authors are skipped.
func (t *Tracker) IgnoreBots() bool {
	return t.ignoreBots.Load()
}

// Apply tests msg against the rules. A match from anyone but the current
// user is logged; it is also notified unless fromCache is set.
// It reports whether msg matched.
func (t *Tracker) Apply(ctx context.Context, msg model.Message, fromCache bool) bool {
	if !filter.Match(msg, t.rules.List(), t.ignoreBots.Load()) {
		return false
	}

	if msg.Author.ID == t.selfID.Load().(string) {
		t.log.Debug("skip own message", "message_id", msg.ID)
		return true
	}

	if fromCache && t.matches.Dismissed(msg.ID) {
		t.log.Debug("skip dismissed match", "message_id", msg.ID)
		return true
	}

	if t.matches.Add(ctx, msg) {
		t.log.Info("keyword match",
			"message_id", msg.ID,
			"channel_id", msg.ChannelID,
			"author_id", msg.Author.ID,
			"from_cache", fromCache,
		)
	}

	if !fromCache {
		channel := t.host.Channel(msg.ChannelID)
		guildID := msg.GuildID
		if c, ok := channel.Get(); ok && guildID == "" {
			guildID = c.GuildID
		}
		guild := mo.None[model.Guild]()
		if guildID != "" {
			guild = t.host.Guild(guildID)
		}
		t.notifier.Notify(ctx, msg, guild, channel)
	}
	return true
}
