package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"kit-telegram/ai"
	"kit-telegram/bot"
	"kit-telegram/config"
	"kit-telegram/store"
	"kit-telegram/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()

	st, err := store.New(cfg.Store.DataDir, cfg.Store.UsersFile, cfg.Store.AssetsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}

	aiClient := ai.NewClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, cfg.Brand.URL, cfg.Brand.Name)

	b, err := bot.New(cfg, st, aiClient)
	if err != nil {
		log.Fatal().Err(err).Msg("bot init failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := startHeartbeat(cfg, b)
	if scheduler != nil {
		defer func() { _ = scheduler.Shutdown() }()
	}

	if cfg.Webhook.Enabled {
		runWebhook(ctx, cfg, b)
	} else {
		if err := b.DeleteWebhook(); err != nil {
			log.Warn().Err(err).Msg("webhook cleanup failed")
		}
		b.Start(ctx)
	}

	log.Info().Msg("shutdown complete")
}

func runWebhook(ctx context.Context, cfg *config.Config, b *bot.Bot) {
	if cfg.Webhook.BaseURL == "" {
		log.Fatal().Msg("WEBHOOK_BASE_URL is required in webhook mode")
	}
	if err := b.SetWebhook(cfg.Webhook.BaseURL, cfg.Webhook.Secret); err != nil {
		log.Fatal().Err(err).Msg("webhook registration failed")
	}

	srv := web.NewServer(cfg.Webhook.Port, cfg.Webhook.Secret, b)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("webhook server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("server shutdown failed")
	}
}

// startHeartbeat pings the configured chat on an interval so an external
// watcher (or just the admin) can see the process is alive.
func startHeartbeat(cfg *config.Config, b *bot.Bot) gocron.Scheduler {
	if !cfg.Heartbeat.Enabled || cfg.Heartbeat.ChatID == 0 {
		return nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Warn().Err(err).Msg("heartbeat scheduler init failed")
		return nil
	}

	interval := time.Duration(cfg.Heartbeat.IntervalSec) * time.Second
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			text := "✅ Бот активен | " + time.Now().Format("2006-01-02 15:04:05")
			if err := b.Notify(cfg.Heartbeat.ChatID, text); err != nil {
				log.Warn().Err(err).Msg("heartbeat send failed")
			}
		}),
	)
	if err != nil {
		log.Warn().Err(err).Msg("heartbeat job failed")
		return nil
	}

	scheduler.Start()

	if cfg.Heartbeat.Immediate {
		text := "✅ Бот запущен и активен (старт: " + time.Now().Format("2006-01-02 15:04:05") + ")"
		if err := b.Notify(cfg.Heartbeat.ChatID, text); err != nil {
			log.Warn().Err(err).Msg("startup ping failed")
		}
	}

	return scheduler
}
