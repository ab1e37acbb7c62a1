// CIPHER honeypot server — detects scam conversations, engages the scammer
// with a persona-driven agent, harvests intelligence and profiles senders.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/honeypot-labs/cipher/pkg/agent"
	"github.com/honeypot-labs/cipher/pkg/agent/reflection"
	"github.com/honeypot-labs/cipher/pkg/api"
	"github.com/honeypot-labs/cipher/pkg/callback"
	"github.com/honeypot-labs/cipher/pkg/config"
	"github.com/honeypot-labs/cipher/pkg/database"
	"github.com/honeypot-labs/cipher/pkg/detection"
	"github.com/honeypot-labs/cipher/pkg/engagement"
	"github.com/honeypot-labs/cipher/pkg/events"
	"github.com/honeypot-labs/cipher/pkg/llm"
	"github.com/honeypot-labs/cipher/pkg/persona"
	"github.com/honeypot-labs/cipher/pkg/profile"
	"github.com/honeypot-labs/cipher/pkg/session"
	"github.com/honeypot-labs/cipher/pkg/version"
)

// shutdownTimeout bounds how long in-flight HTTP requests may run once a
// termination signal arrives.
const shutdownTimeout = 10 * time.Second

// redisPingTimeout bounds the startup connectivity check.
const redisPingTimeout = 5 * time.Second

func main() {
	// Load .env when present; containerized deployments set real env vars.
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using process environment")
	}

	// 1. Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel)

	slog.Info("Starting CIPHER",
		"version", version.Full(),
		"addr", cfg.Addr(),
		"engagement_enabled", cfg.EngagementEnabled)

	ctx := context.Background()

	// 2. Session store and event bus: Redis when configured, in-memory
	// otherwise. Both sides must match — sessions and events share the
	// deployment topology.
	var (
		sessions    session.Store
		bus         events.Bus
		redisClient *redis.Client
		janitor     *session.Janitor
	)
	if cfg.RedisURL != "" {
		opts, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			slog.Error("Invalid REDIS_URL", "error", parseErr)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		pingErr := redisClient.Ping(pingCtx).Err()
		cancel()
		if pingErr != nil {
			slog.Error("Failed to connect to Redis", "error", pingErr)
			os.Exit(1)
		}

		sessions = session.NewRedisStore(redisClient, cfg.RedisKeyPrefix, cfg.SessionTTL)
		bus = events.NewRedisBus(redisClient)
		slog.Info("Connected to Redis", "key_prefix", cfg.RedisKeyPrefix)
	} else {
		memStore := session.NewMemoryStore(cfg.SessionTTL)
		janitor = session.NewJanitor(memStore, cfg.CleanupInterval)
		janitor.Start(ctx)

		sessions = memStore
		bus = events.NewMemoryBus()
		slog.Info("Using in-memory session store and event bus")
	}

	// 3. Profile store: Postgres when configured, in-memory otherwise.
	var (
		profiles profile.Store
		dbClient *database.Client
	)
	if cfg.DatabaseURL != "" {
		dbClient, err = database.NewClient(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		profiles = profile.NewPostgresStore(dbClient.DB())
		slog.Info("Connected to PostgreSQL profile store")
	} else {
		profiles = profile.NewMemoryStore()
		slog.Info("Using in-memory profile store")
	}

	// 4. Personas and the generation pipeline. The default persona is
	// loaded eagerly so a broken YAML fails the boot, not the first turn.
	personas := persona.NewEngine(cfg.PersonaDir)
	if _, err := personas.Load(cfg.DefaultPersonaID); err != nil {
		slog.Error("Default persona failed to load",
			"persona_id", cfg.DefaultPersonaID,
			"dir", cfg.PersonaDir,
			"error", err)
		os.Exit(1)
	}

	generator := llm.NewOllamaClient(llm.OllamaConfig{
		BaseURL: cfg.OllamaBaseURL,
		Model:   cfg.OllamaModel,
		Timeout: cfg.RequestTimeout,
	})
	retrier := reflection.NewRetrier(cfg.AgentMaxRetries, cfg.GenerationTimeout, cfg.RetryDelay)
	responder := agent.New(personas, generator, retrier)

	// 5. Detection, completion callback, engagement controller
	engine := detection.NewEngine(nil)
	reporter := callback.NewDispatcher(cfg.CallbackURL, callback.DefaultMaxAttempts, cfg.CallbackRetryDelay)
	controller := engagement.NewController(sessions, engine, responder, reporter, bus, cfg.DefaultPersonaID, cfg.MaxSessionMessages)

	// 6. Bus consumers. Subscriptions must be registered before Start.
	aggregator := profile.NewAggregator(profiles, cfg.EngagementGap)
	aggregator.Register(bus)

	hub := api.NewWSHub()
	hub.Register(bus)

	if err := bus.Start(ctx); err != nil {
		slog.Error("Failed to start event bus", "error", err)
		os.Exit(1)
	}

	// 7. HTTP server
	server := api.NewServer(cfg, controller, engine, sessions, profiles, dbClient, hub)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- err
		}
	}()

	slog.Info("CIPHER started",
		"persona", cfg.DefaultPersonaID,
		"max_turns", cfg.MaxSessionMessages)

	// 8. Wait for a shutdown signal or a server failure
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 9. Graceful shutdown in reverse dependency order: stop accepting
	// requests, drain the bus, drop feed clients, then close stores.
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
	if err := bus.Close(); err != nil {
		slog.Error("Event bus close error", "error", err)
	}
	hub.Close()
	if janitor != nil {
		janitor.Stop()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("Redis close error", "error", err)
		}
	}
	if dbClient != nil {
		if err := dbClient.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	}

	slog.Info("Shutdown complete")
}

// setupLogging replaces the default logger with one honoring LOG_LEVEL.
// Config validation already rejected unknown levels.
func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
