package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/mo"

	"keyword_notify/internal/model"
)

// State is the subset of the discordgo state cache the host reads.
type State interface {
	Channel(channelID string) (*discordgo.Channel, error)
	Guild(guildID string) (*discordgo.Guild, error)
}

// UserFetcher fetches a user over REST.
type UserFetcher interface {
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
}

// Host answers lookups from the gateway's state cache. Nothing is fetched
// over REST except the current user.
type Host struct {
	state State
	users UserFetcher
}

// NewHost creates a Host over a state cache and a REST client.
func NewHost(state State, users UserFetcher) *Host {
	return &Host{state: state, users: users}
}

// Channel returns the cached channel, if any.
func (h *Host) Channel(channelID string) mo.Option[model.Channel] {
	c, err := h.state.Channel(channelID)
	if err != nil || c == nil {
		return mo.None[model.Channel]()
	}
	return mo.Some(ConvertChannel(c))
}

// Guild returns the cached guild, if any.
func (h *Host) Guild(guildID string) mo.Option[model.Guild] {
	g, err := h.state.Guild(guildID)
	if err != nil || g == nil {
		return mo.None[model.Guild]()
	}
	return mo.Some(model.Guild{ID: g.ID, Name: g.Name})
}

// HasChannel reports whether the channel is in the state cache.
func (h *Host) HasChannel(channelID string) bool {
	return h.Channel(channelID).IsPresent()
}

// CurrentUserID returns the ID of the account the session is logged in as.
func (h *Host) CurrentUserID(ctx context.Context) (string, error) {
	u, err := h.users.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("fetch current user: %w", err)
	}
	return u.ID, nil
}
