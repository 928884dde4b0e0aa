// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	DiscordBotToken  string
	TelegramBotToken string
	NotifyChatID     int64
	DatabasePath     string
	LogLevel         string
	AllowedUsers     []int64
	IgnoreBots       bool
	BackfillChannels []string
	BackfillInterval time.Duration
	BackfillLimit    int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	discordToken := os.Getenv("DISCORD_BOT_TOKEN")
	if discordToken == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	rawChat := os.Getenv("NOTIFY_CHAT_ID")
	if rawChat == "" {
		return nil, fmt.Errorf("NOTIFY_CHAT_ID is required")
	}
	chatID, err := strconv.ParseInt(strings.TrimSpace(rawChat), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_CHAT_ID %q: %w", rawChat, err)
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/keyword_notify.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	var allowedUsers []int64
	for _, s := range splitList(os.Getenv("ALLOWED_USERS")) {
		uid, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
		}
		allowedUsers = append(allowedUsers, uid)
	}

	ignoreBots := true
	if raw := os.Getenv("IGNORE_BOTS"); raw != "" {
		ignoreBots, err = strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid IGNORE_BOTS %q: %w", raw, err)
		}
	}

	interval := 10 * time.Minute
	if raw := os.Getenv("BACKFILL_INTERVAL"); raw != "" {
		interval, err = time.ParseDuration(raw)
		if err != nil || interval < 0 {
			return nil, fmt.Errorf("invalid BACKFILL_INTERVAL %q", raw)
		}
	}

	limit := 50
	if raw := os.Getenv("BACKFILL_LIMIT"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 100 {
			return nil, fmt.Errorf("BACKFILL_LIMIT must be between 1 and 100")
		}
	}

	return &Config{
		DiscordBotToken:  discordToken,
		TelegramBotToken: token,
		NotifyChatID:     chatID,
		DatabasePath:     dbPath,
		LogLevel:         logLevel,
		AllowedUsers:     allowedUsers,
		IgnoreBots:       ignoreBots,
		BackfillChannels: splitList(os.Getenv("BACKFILL_CHANNELS")),
		BackfillInterval: interval,
		BackfillLimit:    limit,
	}, nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
