// Package fetcher loads recent channel history from Discord.
package fetcher

import (
	"context"
	"fmt"
	"slices"

	"github.com/bwmarrin/discordgo"

	"keyword_notify/internal/discord"
	"keyword_notify/internal/model"
)

// MaxLimit is the largest page Discord returns for channel history.
const MaxLimit = 100

// HistoryClient is the discordgo REST call used to read channel history.
type HistoryClient interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
}

// ChannelLookup resolves a channel, over REST if it is not cached.
type ChannelLookup interface {
	ChannelContext(ctx context.Context, channelID string) (*discordgo.Channel, error)
}

// Fetcher downloads and normalizes channel history.
type Fetcher struct {
	client   HistoryClient
	channels ChannelLookup
	limit    int
}

// New creates a Fetcher returning at most limit messages per channel.
// limit is clamped to 1..MaxLimit.
func New(client HistoryClient, channels ChannelLookup, limit int) *Fetcher {
	return &Fetcher{
		client:   client,
		channels: channels,
		limit:    min(max(limit, 1), MaxLimit),
	}
}

// Fetch returns the most recent messages of a channel, oldest first.
func (f *Fetcher) Fetch(ctx context.Context, channelID string) ([]model.Message, error) {
	raw, err := f.client.ChannelMessages(channelID, f.limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch channel %s history: %w", channelID, err)
	}

	// History payloads carry no guild ID. It is looked up once per channel.
	var guildID string
	resolved := false

	msgs := make([]model.Message, 0, len(raw))
	for _, m := range raw {
		if m == nil {
			continue
		}
		if m.ChannelID == "" {
			m.ChannelID = channelID
		}
		if m.GuildID == "" {
			if !resolved {
				guildID = f.guildOf(ctx, channelID)
				resolved = true
			}
			m.GuildID = guildID
		}
		msgs = append(msgs, discord.ConvertMessage(m, nil))
	}
	// Discord returns newest first.
	slices.Reverse(msgs)
	return msgs, nil
}

// guildOf returns the channel's guild ID, or "" for DMs and failed lookups.
func (f *Fetcher) guildOf(ctx context.Context, channelID string) string {
	c, err := f.channels.ChannelContext(ctx, channelID)
	if err != nil || c == nil {
		return ""
	}
	return c.GuildID
}
