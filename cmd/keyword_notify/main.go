package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"keyword_notify/internal/bot"
	"keyword_notify/internal/config"
	"keyword_notify/internal/discord"
	"keyword_notify/internal/dispatch"
	"keyword_notify/internal/fetcher"
	"keyword_notify/internal/matchlog"
	"keyword_notify/internal/notifier"
	"keyword_notify/internal/rules"
	"keyword_notify/internal/scheduler"
	"keyword_notify/internal/storage"
	"keyword_notify/internal/tracker"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Could not load .env file, continuing with system env vars")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	kv, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = kv.Close() }()

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Error("create telegram api", "error", err)
		os.Exit(1)
	}

	pipeline := dispatch.NewPipeline(nil)
	gateway, err := discord.NewGateway(cfg.DiscordBotToken, pipeline, log)
	if err != nil {
		log.Error("create discord session", "error", err)
		os.Exit(1)
	}
	host := gateway.Host()

	store := rules.NewStore(kv)
	matches := matchlog.New(kv, log)
	alerts := notifier.New(api, cfg.NotifyChatID, host, log)
	trk := tracker.New(store, matches, alerts, host, cfg.IgnoreBots, log)
	pipeline.Use(dispatch.NewInterceptor(trk).Middleware())

	session := gateway.Session()
	sched := scheduler.New(
		fetcher.New(session, discord.NewResolver(session.State, session), cfg.BackfillLimit),
		pipeline,
		cfg.BackfillChannels,
		cfg.BackfillInterval,
		log,
	)

	b := bot.New(api, store, matches, sched, trk, cfg, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := trk.Start(ctx); err != nil {
		log.Error("start tracker", "error", err)
		os.Exit(1)
	}

	if err := gateway.Open(ctx); err != nil {
		log.Error("connect discord", "error", err)
		os.Exit(1)
	}
	defer gateway.Close()

	log.Info("starting bot", "telegram_user", api.Self.UserName)

	go sched.Run(ctx)

	b.Run(ctx)

	log.Info("bot stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
