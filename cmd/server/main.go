package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/GildaBit/replog/internal/api"
	"github.com/GildaBit/replog/internal/api/middleware"
	"github.com/GildaBit/replog/internal/config"
	"github.com/GildaBit/replog/internal/gossip"
	"github.com/GildaBit/replog/internal/handlers"
	"github.com/GildaBit/replog/internal/metrics"
	"github.com/GildaBit/replog/internal/models"
	"github.com/GildaBit/replog/internal/replication"
	"github.com/GildaBit/replog/internal/store"
	"github.com/GildaBit/replog/internal/transport"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("invalid configuration")
	}

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Str("node", cfg.NodeID).
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Str("node", cfg.NodeID).
			Logger()
	}

	ctx := context.Background()

	// Optional message archive (postgres or sqlite)
	archive, err := store.OpenArchive(ctx, cfg.ArchiveURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("archive connection failed")
	}
	if archive != nil {
		defer archive.Close()
		logger.Info().Str("url", cfg.ArchiveURL).Msg("archive enabled")
	}

	// Optional Redis (rate limiting)
	var redisStore *store.RedisStore
	if cfg.RedisURL != "" {
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		logger.Info().Msg("connected to Redis")
	}

	// Replicated state
	view := cfg.BuildCluster()
	log := store.NewMessageLog(cfg.NodeID)

	// Every accepted message counts once and, if configured, goes to the
	// archive in the background.
	save := func(models.Message) {}
	if archive != nil {
		save = store.AsyncSaver(archive, func(err error) {
			logger.Warn().Err(err).Msg("archive save failed")
		})
	}
	log.OnAppend(func(msg models.Message) {
		metrics.MessagesAccepted.Inc()
		save(msg)
	})

	// Replication stack for the configured mode
	tr := transport.NewHTTPTransport()
	var repl replication.Replicator
	var scheduler *gossip.Scheduler

	switch cfg.Mode {
	case config.ModeQuorum:
		repl = replication.NewQuorumReplicator(log, view, tr, cfg.ReplicateTimeout, logger)
	case config.ModeGossip:
		repl = replication.NewGossipReplicator(log, view, logger)
		scheduler = gossip.NewScheduler(log, view, tr, gossip.Config{
			MinInterval: cfg.GossipIntervalMin,
			MaxInterval: cfg.GossipIntervalMax,
			Fanout:      cfg.GossipFanout,
			CallTimeout: cfg.ReplicateTimeout,
		}, logger)
	}

	logger.Info().
		Str("mode", cfg.Mode).
		Int("replicas", view.Size()).
		Int("quorum", view.QuorumSize()).
		Msg("cluster configured")

	// HTTP surface
	h := handlers.NewHandler(log, repl, view, archive, redisStore, tr.Liveness, logger)

	var limiter *middleware.RateLimiter
	if redisStore != nil {
		limiter = middleware.NewRateLimiter(redisStore.Client(), logger, middleware.RateLimiterConfig{
			Whitelist: cfg.RateLimitWhitelist,
		})
	} else {
		limiter = middleware.NewRateLimiter(nil, logger, middleware.RateLimiterConfig{})
	}

	router := api.NewRouter(logger, h, limiter)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if scheduler != nil {
		scheduler.Start()
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting replog node")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down node...")

	if scheduler != nil {
		scheduler.Stop()
	}

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("node stopped")
}
