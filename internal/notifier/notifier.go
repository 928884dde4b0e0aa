// Package notifier delivers keyword match alerts to a Telegram chat.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/mo"

	"keyword_notify/internal/model"
)

// Title heads every notification.
const Title = "[KeywordNotify] Detected message!"

const (
	maxContentRunes = 700
	// Telegram rejects photo captions longer than this.
	maxCaptionRunes = 1024
)

var kindLabels = map[model.ChannelKind]string{
	model.ChannelDM:      "Direct Channel",
	model.ChannelGroupDM: "Group DM",
}

// Sender is the subset of the Telegram API used to deliver notifications.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ChannelChecker reports whether the host currently knows a channel.
type ChannelChecker interface {
	HasChannel(channelID string) bool
}

// Notifier sends a silent alert for every matched live message.
type Notifier struct {
	api      Sender
	chatID   int64
	channels ChannelChecker
	log      *slog.Logger
}

// New creates a Notifier that posts to chatID.
func New(api Sender, chatID int64, channels ChannelChecker, log *slog.Logger) *Notifier {
	return &Notifier{api: api, chatID: chatID, channels: channels, log: log}
}

// Notify sends the alert for msg. Delivery errors are logged and dropped.
// The avatar photo is skipped when the text does not fit in a caption.
func (n *Notifier) Notify(_ context.Context, msg model.Message, guild mo.Option[model.Guild], channel mo.Option[model.Channel]) {
	text := FormatNotification(msg, guild, channel)
	markup := n.jumpMarkup(msg)

	var c tgbotapi.Chattable
	if avatar := AvatarURL(msg.Author); avatar != "" && utf8.RuneCountInString(text) <= maxCaptionRunes {
		photo := tgbotapi.NewPhoto(n.chatID, tgbotapi.FileURL(avatar))
		photo.Caption = text
		photo.DisableNotification = true
		if markup != nil {
			photo.ReplyMarkup = *markup
		}
		c = photo
	} else {
		m := tgbotapi.NewMessage(n.chatID, text)
		m.DisableNotification = true
		m.DisableWebPagePreview = true
		if markup != nil {
			m.ReplyMarkup = *markup
		}
		c = m
	}

	if _, err := n.api.Send(c); err != nil {
		n.log.Error("send notification", "message_id", msg.ID, "channel_id", msg.ChannelID, "error", err)
		return
	}
	n.log.Debug("notification sent", "message_id", msg.ID, "author_id", msg.Author.ID)
}

func (n *Notifier) jumpMarkup(msg model.Message) *tgbotapi.InlineKeyboardMarkup {
	if n.channels == nil || !n.channels.HasChannel(msg.ChannelID) {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Jump to message", JumpURL(msg)),
		),
	)
	return &markup
}

// FormatNotification renders the alert body for a matched message.
func FormatNotification(msg model.Message, guild mo.Option[model.Guild], channel mo.Option[model.Channel]) string {
	var b strings.Builder
	b.WriteString(Title)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Username: %s\n", DisplayName(msg.Author))
	fmt.Fprintf(&b, "ID: %s\n", msg.Author.ID)
	fmt.Fprintf(&b, "Content: %s\n", truncate(msg.Content, maxContentRunes))
	if g, ok := guild.Get(); ok && g.Name != "" {
		fmt.Fprintf(&b, "Guild: %s\n", g.Name)
	}
	fmt.Fprintf(&b, "Channel: %s", ChannelLabel(channel))
	return b.String()
}

// DisplayName returns the username, suffixed with the discriminator unless
// it is the default "0".
func DisplayName(a model.Author) string {
	if a.Discriminator == "" || a.Discriminator == "0" {
		return a.Username
	}
	return a.Username + "#" + a.Discriminator
}

// ChannelLabel returns the channel name, or a fixed label for unnamed
// direct and group channels.
func ChannelLabel(channel mo.Option[model.Channel]) string {
	c, ok := channel.Get()
	if !ok {
		return "Unknown Channel"
	}
	if c.Name != "" {
		return c.Name
	}
	if label, ok := kindLabels[c.Kind]; ok {
		return label
	}
	return c.ID
}

// JumpURL links to the message in the Discord client.
func JumpURL(msg model.Message) string {
	guild := msg.GuildID
	if guild == "" {
		guild = "@me"
	}
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guild, msg.ChannelID, msg.ID)
}

// AvatarURL returns the CDN URL of the author's avatar, or "" if unset.
func AvatarURL(a model.Author) string {
	if a.ID == "" || a.Avatar == "" {
		return ""
	}
	return discordgo.EndpointUserAvatar(a.ID, a.Avatar)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
