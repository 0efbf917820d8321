// cmd/diet-bot/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"diet-diary-bot/internal/ai"
	"diet-diary-bot/internal/bot"
	"diet-diary-bot/internal/config"
	"diet-diary-bot/internal/dedup"
	"diet-diary-bot/internal/pending"
	"diet-diary-bot/internal/speech"
	"diet-diary-bot/internal/storage"
	"diet-diary-bot/internal/telegram"
)

var (
	configPath = flag.String("config", "", "Directory containing config.yaml")
	dbPath     = flag.String("db-path", "", "Database path (overrides config)")
	version    = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("diet-diary-bot version 1.0.0")
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	stor, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer stor.Close()

	tg := telegram.NewClient(nil, cfg.Telegram.BaseURL, cfg.Telegram.Token)
	aiClient := ai.NewClient(ai.Config{
		BaseURL: cfg.AI.BaseURL,
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout,
	}, logger.Named("ai"))
	transcriber := speech.NewTranscriber(speech.Config{
		BaseURL:  cfg.Speech.BaseURL,
		APIKey:   cfg.Speech.APIKey,
		Model:    cfg.Speech.Model,
		Language: cfg.Speech.Language,
		Timeout:  cfg.Speech.Timeout,
	}, logger.Named("speech"))

	controller := bot.NewController(
		tg, aiClient, transcriber, stor,
		pending.New(cfg.Pending.TTL),
		dedup.New(cfg.Dedup.Capacity),
		logger.Named("bot"),
		bot.Options{
			PollTimeout:  cfg.Telegram.PollTimeout,
			FileMaxBytes: cfg.Telegram.FileMaxBytes,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	me, err := tg.GetMe(ctx)
	if err != nil {
		logger.Fatal("failed to reach Telegram", zap.Error(err))
	}
	logger.Info("starting diet diary bot",
		zap.String("bot_username", me.Username),
		zap.String("db_path", cfg.DBPath))

	if err := controller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("bot stopped", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
