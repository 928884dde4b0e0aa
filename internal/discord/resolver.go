package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// RESTChannels fetches a channel over REST.
type RESTChannels interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// Resolver looks channels up in the state cache and falls back to REST for
// channels the gateway has not delivered yet. REST results are remembered.
type Resolver struct {
	state ChannelResolver
	rest  RESTChannels

	mu      sync.Mutex
	fetched map[string]*discordgo.Channel
}

// NewResolver creates a Resolver over a state cache and a REST client.
func NewResolver(state ChannelResolver, rest RESTChannels) *Resolver {
	return &Resolver{
		state:   state,
		rest:    rest,
		fetched: make(map[string]*discordgo.Channel),
	}
}

// ChannelContext returns the channel from the state cache, from an earlier
// REST lookup or from a new REST request, in that order.
func (r *Resolver) ChannelContext(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	if c, err := r.state.Channel(channelID); err == nil && c != nil {
		return c, nil
	}

	r.mu.Lock()
	c, ok := r.fetched[channelID]
	r.mu.Unlock()
	if ok {
		return c, nil
	}

	c, err := r.rest.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch channel %s: %w", channelID, err)
	}
	r.mu.Lock()
	r.fetched[channelID] = c
	r.mu.Unlock()
	return c, nil
}

// Channel implements ChannelResolver.
func (r *Resolver) Channel(channelID string) (*discordgo.Channel, error) {
	return r.ChannelContext(context.Background(), channelID)
}
