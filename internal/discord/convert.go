// Package discord adapts a discordgo session to the watcher: it normalizes
// messages, answers channel and guild lookups from the session state and
// turns gateway events into dispatch events.
package discord

import (
	"github.com/bwmarrin/discordgo"

	"keyword_notify/internal/model"
)

// ChannelResolver looks up a channel's guild when a payload omits it.
type ChannelResolver interface {
	Channel(channelID string) (*discordgo.Channel, error)
}

// ConvertMessage normalizes m. When the payload carries no guild ID it is
// taken from the channel, if the resolver knows it.
func ConvertMessage(m *discordgo.Message, channels ChannelResolver) model.Message {
	out := model.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
	if m.Author != nil {
		out.Author = model.Author{
			ID:            m.Author.ID,
			Username:      m.Author.Username,
			Discriminator: m.Author.Discriminator,
			Avatar:        m.Author.Avatar,
			Bot:           m.Author.Bot,
		}
	}
	for _, e := range m.Embeds {
		if e == nil {
			continue
		}
		embed := model.Embed{Title: e.Title, Description: e.Description}
		for _, f := range e.Fields {
			if f == nil {
				continue
			}
			embed.Fields = append(embed.Fields, model.EmbedField{Name: f.Name, Value: f.Value})
		}
		out.Embeds = append(out.Embeds, embed)
	}
	if out.GuildID == "" && channels != nil {
		if c, err := channels.Channel(m.ChannelID); err == nil && c != nil {
			out.GuildID = c.GuildID
		}
	}
	return out
}

// ConvertChannel maps a discordgo channel onto the domain type.
func ConvertChannel(c *discordgo.Channel) model.Channel {
	return model.Channel{
		ID:      c.ID,
		GuildID: c.GuildID,
		Name:    c.Name,
		Kind:    channelKind(c.Type),
	}
}

func channelKind(t discordgo.ChannelType) model.ChannelKind {
	switch t {
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews:
		return model.ChannelGuildText
	case discordgo.ChannelTypeDM:
		return model.ChannelDM
	case discordgo.ChannelTypeGroupDM:
		return model.ChannelGroupDM
	case discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildPrivateThread,
		discordgo.ChannelTypeGuildNewsThread:
		return model.ChannelThread
	default:
		return model.ChannelOther
	}
}
