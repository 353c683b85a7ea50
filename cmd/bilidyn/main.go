package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"bilidyn/internal/bot"
	"bilidyn/internal/config"
	"bilidyn/internal/detector"
	"bilidyn/internal/feedsource"
	"bilidyn/internal/render"
	"bilidyn/internal/scheduler"
	"bilidyn/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	dataPath := cfg.DataPath
	if dataPath == "" {
		dataPath, err = store.DefaultPath()
		if err != nil {
			log.Error("resolve data path", "error", err)
			os.Exit(1)
		}
	}

	st, err := store.Open(dataPath, log)
	if err != nil {
		log.Error("open subscription store", "path", dataPath, "error", err)
		os.Exit(1)
	}

	source := feedsource.New(http.DefaultClient, cfg.BiliCookie)

	backend := render.NewHTTPBackend(http.DefaultClient, cfg.RenderServiceURL)
	pipeline, err := render.New(backend, render.Config{
		TemplateDir:   cfg.TemplateDir,
		Style:         cfg.TemplateStyle,
		FallbackImage: cfg.FallbackImage,
		MaxAttempts:   cfg.MaxAttempts,
		RetryDelay:    cfg.RetryDelay,
	}, log)
	if err != nil {
		log.Error("create render pipeline", "dir", cfg.TemplateDir, "error", err)
		os.Exit(1)
	}

	b, err := bot.New(cfg.TelegramBotToken, st, source, pipeline, cfg, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	det := detector.New(st, log)
	sched := scheduler.New(st, source, det, pipeline, b, log)
	sched.SetTickInterval(cfg.PollInterval)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting bot", "data", dataPath, "poll_interval", cfg.PollInterval)

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
