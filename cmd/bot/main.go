package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/arsal072-sys/protonsms072/internal/config"
	"github.com/arsal072-sys/protonsms072/internal/engine"
	"github.com/arsal072-sys/protonsms072/internal/feed"
	"github.com/arsal072-sys/protonsms072/internal/notifier"
	"github.com/arsal072-sys/protonsms072/internal/otp"
	"github.com/arsal072-sys/protonsms072/internal/poller"
	"github.com/arsal072-sys/protonsms072/internal/storage"
)

func main() {
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

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	tg, err := notifier.NewTelegram(cfg.BotToken, cfg.ChatID, cfg.SupportURL, cfg.NumbersURL, log)
	if err != nil {
		log.Error("create notifier", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	wm, err := engine.LoadWatermark(ctx, store, cfg.FeedName, cfg.Strategy, cfg.Capacity)
	if err != nil {
		log.Error("load watermark", "feed", cfg.FeedName, "error", err)
		os.Exit(1)
	}

	fetcher := feed.NewFetcher(http.DefaultClient, cfg.PanelURL, cfg.SessionID, cfg.WindowSize)
	sampler := feed.NewSampler(fetcher, log)
	eng := engine.New(cfg.FeedName, sampler, otp.Default(), tg, store, wm, log)

	p := poller.New(eng, tg, log)
	p.SetIntervals(cfg.PollInterval, cfg.AuthRetryInterval)

	log.Info("starting otp bot",
		"feed", cfg.FeedName,
		"panel", cfg.PanelURL,
		"strategy", string(cfg.Strategy),
		"interval", cfg.PollInterval,
	)

	p.Run(ctx)

	log.Info("otp bot stopped")
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
