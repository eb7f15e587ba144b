package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"clubhub/internal/club"
	"clubhub/internal/config"
	"clubhub/internal/event"
	"clubhub/internal/identity"
	"clubhub/internal/mailer"
	"clubhub/internal/queue"
	"clubhub/internal/store"
)

// Worker consumes registration notifications and mails participants, and
// sweeps event statuses forward on a ticker.
func main() {
	cfg := config.Load()
	log := zerolog.New(os.Stdout).With().Timestamp().Str("component", "worker").Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("shutdown signal received")
		cancel()
	}()

	// The in-memory queue is process-local; a worker consuming its own empty
	// queue would never see the API's messages.
	if cfg.QueueBackend == "memory" {
		log.Fatal().Msg("QUEUE_BACKEND=memory is process-local; the worker requires the redis queue")
	}

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	q := queue.NewRedisQueue(redisClient.Client, "clubhub:notifications")

	userRepo := identity.NewPostgresRepository(db.Client)
	clubRepo := club.NewPostgresRepository(db.Client)
	eventRepo := event.NewPostgresRepository(db.Client)
	events := event.NewService(eventRepo, clubRepo, nil, nil, log)

	mail := mailer.New(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPPassword, log)

	go sweepLoop(ctx, events, cfg.SweepInterval, log)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("queue consume init failed")
	}

	log.Info().Msg("worker started, waiting for messages")
	for msg := range messages {
		if msg.Type != "registration" {
			continue
		}

		var payload event.RegistrationMessage
		if err := json.Unmarshal(msg.Body, &payload); err != nil {
			log.Warn().Err(err).Msg("malformed registration message")
			continue
		}

		user, err := userRepo.GetByID(ctx, payload.UserID)
		if err != nil {
			log.Warn().Err(err).Str("user_id", payload.UserID).Msg("fetch user failed")
			continue
		}
		ev, err := eventRepo.Get(ctx, payload.EventID)
		if err != nil {
			log.Warn().Err(err).Str("event_id", payload.EventID).Msg("fetch event failed")
			continue
		}

		if err := mail.SendRegistrationMail(user.Email, ev.Title, payload.Kind); err != nil {
			log.Warn().Err(err).Str("to", user.Email).Msg("send mail failed")
			continue
		}
		log.Info().Str("to", user.Email).Str("event_id", ev.ID).Str("kind", payload.Kind).Msg("notification sent")
	}

	log.Info().Msg("worker stopped")
}

// sweepLoop advances event statuses from the clock until ctx is cancelled.
func sweepLoop(ctx context.Context, events *event.Service, interval time.Duration, log zerolog.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := events.Sweep(ctx, now.UTC()); err != nil {
				log.Warn().Err(err).Msg("status sweep failed")
			}
		}
	}
}
