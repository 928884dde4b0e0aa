// Package filter implements the message matching engine.
package filter

import (
	"fmt"
	"regexp"

	"github.com/samber/lo"

	"keyword_notify/internal/model"
)

// Match checks whether a message satisfies at least one active rule.
// Bot messages are skipped when ignoreBots is set, unless an active
// allow-mode rule lists the bot's user ID.
// Deny-mode rules skip messages whose channel, author or guild is listed.
// Allow-mode rules skip messages where none of them is listed.
func Match(msg model.Message, rules []model.Rule, ignoreBots bool) bool {
	if ignoreBots && msg.Author.Bot && !botAllowListed(msg.Author.ID, rules) {
		return false
	}

	matched := false
	for _, r := range rules {
		if !r.Active() || !inScope(msg, r) {
			continue
		}
		if matchesRule(msg, r.Pattern) {
			matched = true
		}
	}
	return matched
}

func botAllowListed(authorID string, rules []model.Rule) bool {
	return lo.ContainsBy(rules, func(r model.Rule) bool {
		return r.Active() && r.ScopeMode == model.ScopeAllow && lo.Contains(r.ScopeIDs, authorID)
	})
}

func inScope(msg model.Message, r model.Rule) bool {
	listed := lo.Contains(r.ScopeIDs, msg.ChannelID) ||
		lo.Contains(r.ScopeIDs, msg.Author.ID) ||
		(msg.GuildID != "" && lo.Contains(r.ScopeIDs, msg.GuildID))

	if r.ScopeMode == model.ScopeAllow {
		return listed
	}
	return !listed
}

func matchesRule(msg model.Message, pattern string) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	if re.MatchString(msg.Content) {
		return true
	}
	for _, e := range msg.Embeds {
		if re.MatchString(e.Title) || re.MatchString(e.Description) {
			return true
		}
		for _, f := range e.Fields {
			if re.MatchString(f.Name) || re.MatchString(f.Value) {
				return true
			}
		}
	}
	return false
}

// ValidateRegex checks whether a pattern is a valid regular expression.
func ValidateRegex(pattern string) error {
	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	return nil
}
