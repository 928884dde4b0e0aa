package notifier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/samber/mo"

	"keyword_notify/internal/model"
)

type mockSender struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
	err  error
}

func (m *mockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, c)
	return tgbotapi.Message{}, m.err
}

type knownChannels map[string]bool

func (k knownChannels) HasChannel(id string) bool { return k[id] }

func newTestNotifier(sender *mockSender, channels ChannelChecker) *Notifier {
	return New(sender, 42, channels, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFormatNotification(t *testing.T) {
	msg := model.Message{
		ID:        "m1",
		ChannelID: "c1",
		GuildID:   "g1",
		Author:    model.Author{ID: "u1", Username: "alice", Discriminator: "1234"},
		Content:   "this is urgent",
	}

	tests := []struct {
		name    string
		msg     model.Message
		guild   mo.Option[model.Guild]
		channel mo.Option[model.Channel]
		want    string
	}{
		{
			name:    "guild channel",
			msg:     msg,
			guild:   mo.Some(model.Guild{ID: "g1", Name: "Ops"}),
			channel: mo.Some(model.Channel{ID: "c1", Name: "alerts", Kind: model.ChannelGuildText}),
			want: Title + "\n\n" +
				"Username: alice#1234\nID: u1\nContent: this is urgent\nGuild: Ops\nChannel: alerts",
		},
		{
			name:    "direct message without guild",
			msg:     msg,
			guild:   mo.None[model.Guild](),
			channel: mo.Some(model.Channel{ID: "c1", Kind: model.ChannelDM}),
			want: Title + "\n\n" +
				"Username: alice#1234\nID: u1\nContent: this is urgent\nChannel: Direct Channel",
		},
		{
			name:    "unnamed group dm",
			msg:     msg,
			guild:   mo.None[model.Guild](),
			channel: mo.Some(model.Channel{ID: "c1", Kind: model.ChannelGroupDM}),
			want: Title + "\n\n" +
				"Username: alice#1234\nID: u1\nContent: this is urgent\nChannel: Group DM",
		},
		{
			name:    "unknown channel",
			msg:     msg,
			guild:   mo.None[model.Guild](),
			channel: mo.None[model.Channel](),
			want: Title + "\n\n" +
				"Username: alice#1234\nID: u1\nContent: this is urgent\nChannel: Unknown Channel",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatNotification(tt.msg, tt.guild, tt.channel)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FormatNotification() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name   string
		author model.Author
		want   string
	}{
		{name: "legacy discriminator", author: model.Author{Username: "bob", Discriminator: "0420"}, want: "bob#0420"},
		{name: "default discriminator", author: model.Author{Username: "bob", Discriminator: "0"}, want: "bob"},
		{name: "no discriminator", author: model.Author{Username: "bob"}, want: "bob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, DisplayName(tt.author)); diff != "" {
				t.Errorf("DisplayName() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestJumpURL(t *testing.T) {
	tests := []struct {
		name string
		msg  model.Message
		want string
	}{
		{
			name: "guild message",
			msg:  model.Message{ID: "3", ChannelID: "2", GuildID: "1"},
			want: "https://discord.com/channels/1/2/3",
		},
		{
			name: "direct message",
			msg:  model.Message{ID: "3", ChannelID: "2"},
			want: "https://discord.com/channels/@me/2/3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, JumpURL(tt.msg)); diff != "" {
				t.Errorf("JumpURL() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNotifySendsSilentPhotoWithJumpButton(t *testing.T) {
	sender := &mockSender{}
	n := newTestNotifier(sender, knownChannels{"c1": true})

	msg := model.Message{
		ID: "m1", ChannelID: "c1", GuildID: "g1",
		Author:  model.Author{ID: "u1", Username: "alice", Avatar: "abc"},
		Content: "urgent",
	}
	n.Notify(context.Background(), msg, mo.None[model.Guild](), mo.None[model.Channel]())

	if diff := cmp.Diff(1, len(sender.sent)); diff != "" {
		t.Fatalf("send count mismatch (-want +got):\n%s", diff)
	}
	photo, ok := sender.sent[0].(tgbotapi.PhotoConfig)
	if !ok {
		t.Fatalf("expected PhotoConfig, got %T", sender.sent[0])
	}
	if !photo.DisableNotification {
		t.Error("notification is not silent")
	}
	if diff := cmp.Diff(int64(42), photo.ChatID); diff != "" {
		t.Errorf("chat mismatch (-want +got):\n%s", diff)
	}
	if url, ok := photo.File.(tgbotapi.FileURL); !ok || !strings.HasSuffix(string(url), "/avatars/u1/abc.png") {
		t.Errorf("unexpected avatar file %v", photo.File)
	}
	markup, ok := photo.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("expected inline keyboard, got %T", photo.ReplyMarkup)
	}
	btn := markup.InlineKeyboard[0][0]
	if btn.URL == nil || *btn.URL != "https://discord.com/channels/g1/c1/m1" {
		t.Errorf("unexpected jump button %+v", btn)
	}
}

func TestNotifyWithoutAvatarOrKnownChannel(t *testing.T) {
	sender := &mockSender{}
	n := newTestNotifier(sender, knownChannels{})

	msg := model.Message{ID: "m1", ChannelID: "c9", Author: model.Author{ID: "u1", Username: "alice"}, Content: "urgent"}
	n.Notify(context.Background(), msg, mo.None[model.Guild](), mo.None[model.Channel]())

	if diff := cmp.Diff(1, len(sender.sent)); diff != "" {
		t.Fatalf("send count mismatch (-want +got):\n%s", diff)
	}
	m, ok := sender.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("expected MessageConfig, got %T", sender.sent[0])
	}
	if !m.DisableNotification {
		t.Error("notification is not silent")
	}
	if m.ReplyMarkup != nil {
		t.Errorf("expected no jump button for unknown channel, got %+v", m.ReplyMarkup)
	}
}

func TestNotifyLongCaptionFallsBackToText(t *testing.T) {
	sender := &mockSender{}
	n := newTestNotifier(sender, knownChannels{"c1": true})

	msg := model.Message{
		ID: "m1", ChannelID: "c1", GuildID: "g1",
		Author: model.Author{
			ID:            "12345678901234567890",
			Username:      strings.Repeat("u", 32),
			Discriminator: "1234",
			Avatar:        "abc",
		},
		Content: strings.Repeat("x", 2000),
	}
	guild := mo.Some(model.Guild{ID: "g1", Name: strings.Repeat("g", 100)})
	channel := mo.Some(model.Channel{ID: "c1", Name: strings.Repeat("c", 100), Kind: model.ChannelGuildText})

	if got := utf8.RuneCountInString(FormatNotification(msg, guild, channel)); got <= maxCaptionRunes {
		t.Fatalf("expected text over the caption limit, got %d runes", got)
	}

	n.Notify(context.Background(), msg, guild, channel)

	if diff := cmp.Diff(1, len(sender.sent)); diff != "" {
		t.Fatalf("send count mismatch (-want +got):\n%s", diff)
	}
	m, ok := sender.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("expected MessageConfig, got %T", sender.sent[0])
	}
	if !m.DisableNotification {
		t.Error("notification is not silent")
	}
	if _, ok := m.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); !ok {
		t.Errorf("expected jump button, got %T", m.ReplyMarkup)
	}
	if got := utf8.RuneCountInString(m.Text); got > 4096 {
		t.Errorf("message text has %d runes, over the 4096 limit", got)
	}
}

func TestNotifySwallowsSendErrors(t *testing.T) {
	sender := &mockSender{err: errors.New("forbidden")}
	n := newTestNotifier(sender, nil)

	n.Notify(context.Background(), model.Message{ID: "m1", ChannelID: "c1"}, mo.None[model.Guild](), mo.None[model.Channel]())

	if diff := cmp.Diff(1, len(sender.sent)); diff != "" {
		t.Errorf("expected exactly one attempt (-want +got):\n%s", diff)
	}
}
