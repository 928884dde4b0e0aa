// Package model defines the domain types used across the application.
package model

import "time"

// ScopeMode defines whether a rule applies only inside its scope list or
// everywhere except it.
type ScopeMode string

// Supported scope modes.
const (
	ScopeAllow ScopeMode = "allow"
	ScopeDeny  ScopeMode = "deny"
)

// Rule is a keyword pattern with an optional channel/user/guild scope.
// An empty Pattern disables the rule.
type Rule struct {
	Pattern   string    `json:"pattern"`
	ScopeIDs  []string  `json:"scope_ids"`
	ScopeMode ScopeMode `json:"scope_mode"`
}

// NewRule returns a rule with the default scope: deny mode with an empty
// list, which applies everywhere.
func NewRule(pattern string) Rule {
	return Rule{Pattern: pattern, ScopeIDs: []string{}, ScopeMode: ScopeDeny}
}

// Active reports whether the rule takes part in matching.
func (r Rule) Active() bool {
	return r.Pattern != ""
}

// Author is the sender of a chat message.
type Author struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator,omitempty"`
	Avatar        string `json:"avatar,omitempty"`
	Bot           bool   `json:"bot,omitempty"`
}

// EmbedField is a single name/value pair of an embed.
type EmbedField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Embed is the text-bearing part of a rich message embed.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

// Message is the normalized record of a chat message. It is also the entry
// type of the match log.
type Message struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	GuildID   string    `json:"guild_id,omitempty"`
	Author    Author    `json:"author"`
	Content   string    `json:"content"`
	Embeds    []Embed   `json:"embeds,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ChannelKind classifies a channel for display purposes.
type ChannelKind string

// Supported channel kinds.
const (
	ChannelGuildText ChannelKind = "guild_text"
	ChannelDM        ChannelKind = "dm"
	ChannelGroupDM   ChannelKind = "group_dm"
	ChannelThread    ChannelKind = "thread"
	ChannelOther     ChannelKind = "other"
)

// Channel is a chat channel known to the host.
type Channel struct {
	ID      string
	GuildID string
	Name    string
	Kind    ChannelKind
}

// Guild is a chat server known to the host.
type Guild struct {
	ID   string
	Name string
}
