package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/campo-social/notification/internal/application"
	"github.com/campo-social/notification/internal/config"
	"github.com/campo-social/notification/internal/domain"
	"github.com/campo-social/notification/internal/infrastructure/directory"
	"github.com/campo-social/notification/internal/infrastructure/fcm"
	"github.com/campo-social/notification/internal/infrastructure/postgres"
	notifkafka "github.com/campo-social/notification/internal/kafka"
	"github.com/campo-social/notification/internal/ratelimit"
	"github.com/campo-social/notification/internal/reaper"
	transporthttp "github.com/campo-social/notification/internal/transport/http"
)

func main() {
	// ── Logging ──────────────────────────────────────────────────────────────
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// ── Config ───────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.Server.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().Str("env", cfg.Server.Env).Str("port", cfg.Server.Port).Msg("starting notification service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Database ─────────────────────────────────────────────────────────────
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("postgres ping failed")
	}
	log.Info().Msg("postgres connected")

	repo := postgres.New(pool)

	// ── Collaborators ────────────────────────────────────────────────────────
	accounts := directory.New(cfg.Directory.BaseURL, cfg.Directory.ServiceToken)

	sender, err := fcm.New(ctx, cfg.FCM.CredentialsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init push provider")
	}

	producer, err := notifkafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.CreatedTopic)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create kafka producer")
	}
	defer producer.Close()

	// ── Rate limiter ─────────────────────────────────────────────────────────
	window := time.Duration(cfg.Limits.WindowSeconds) * time.Second
	var limiter domain.RateLimiter
	if cfg.Limits.Mode == "memory" {
		mem := ratelimit.NewMemoryLimiter(window, cfg.Limits.Threshold)
		go mem.Run(ctx, time.Duration(cfg.Limits.PruneSeconds)*time.Second)
		limiter = mem
		log.Warn().Msg("in-memory rate limiter selected: single-instance deployments only")
	} else {
		limiter = ratelimit.NewStoreLimiter(repo, window, cfg.Limits.Threshold)
	}

	// ── Application ──────────────────────────────────────────────────────────
	loc, err := time.LoadLocation(cfg.Reaper.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Reaper.Timezone).Msg("invalid timezone")
	}

	engine := application.NewDeliveryEngine(repo, accounts, sender)
	svc := application.NewService(repo, accounts, limiter, engine, producer, loc)

	// ── Trigger dispatcher (Kafka consumer) ──────────────────────────────────
	topics := []string{cfg.Kafka.CreatedTopic, cfg.Kafka.CommandTopic}
	consumer, err := notifkafka.New(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroupID, topics, svc)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create kafka consumer")
	}
	go consumer.Start(ctx)
	log.Info().Strs("topics", topics).Msg("kafka consumer started")

	// ── Expiry reaper (daily) ────────────────────────────────────────────────
	sweeper := reaper.New(repo, cfg.Reaper.BatchLimit, cfg.Reaper.Hour, loc)
	go sweeper.Run(ctx)

	// ── HTTP server ──────────────────────────────────────────────────────────
	handler := transporthttp.NewHandler(svc)
	router := transporthttp.NewRouter(handler, cfg.Auth.JWTSecret)

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := router.Start(":" + cfg.Server.Port); err != nil {
			log.Info().Msg("HTTP server stopped")
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	<-ctx.Done()
	log.Info().Msg("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := router.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("notification service stopped")
}
