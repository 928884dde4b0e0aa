package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"keyword_notify/internal/dispatch"
)

// Gateway feeds live Discord messages into a dispatch pipeline.
type Gateway struct {
	session  *discordgo.Session
	pipeline *dispatch.Pipeline
	log      *slog.Logger
	ctx      context.Context
}

// NewGateway creates a bot session and registers its event handlers.
// The connection is not opened until Open.
func NewGateway(token string, pipeline *dispatch.Pipeline, log *slog.Logger) (*Gateway, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	g := &Gateway{
		session:  session,
		pipeline: pipeline,
		log:      log,
		ctx:      context.Background(),
	}
	session.AddHandler(g.handleMessageCreate)
	session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		log.Info("discord ready", "user", r.User.Username, "guilds", len(r.Guilds))
	})
	return g, nil
}

// Session returns the underlying discordgo session.
func (g *Gateway) Session() *discordgo.Session {
	return g.session
}

// Host returns lookups backed by this gateway's state cache.
func (g *Gateway) Host() *Host {
	return NewHost(g.session.State, g.session)
}

// Open connects to the gateway. Events dispatched afterwards carry ctx.
func (g *Gateway) Open(ctx context.Context) error {
	g.ctx = ctx
	if err := g.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	return nil
}

// Close disconnects from the gateway.
func (g *Gateway) Close() {
	if err := g.session.Close(); err != nil {
		g.log.Error("close discord session", "error", err)
	}
}

func (g *Gateway) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil {
		return
	}
	g.messageCreated(g.ctx, m.Message, s.State)
}

func (g *Gateway) messageCreated(ctx context.Context, m *discordgo.Message, channels ChannelResolver) {
	msg := ConvertMessage(m, channels)
	g.pipeline.Dispatch(ctx, dispatch.Event{Type: dispatch.MessageCreate, Message: &msg})
}
