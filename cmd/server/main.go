package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/yaxxerr/ai-security-system/internal/app"
	"github.com/yaxxerr/ai-security-system/internal/broadcast"
	"github.com/yaxxerr/ai-security-system/internal/config"
	"github.com/yaxxerr/ai-security-system/internal/database"
	"github.com/yaxxerr/ai-security-system/internal/logging"
	"github.com/yaxxerr/ai-security-system/internal/redis"
	"github.com/yaxxerr/ai-security-system/internal/server"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(cfg *config.Config) *redis.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(cfg *config.Config, srv *server.Server, router *broadcast.Router, relay *broadcast.Relay) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		relay.Shutdown()
		router.Shutdown()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(cfg)
	defer func() { _ = redisClient.Close() }()

	cameraRepo := database.NewCameraRepo(pool)
	incidentRepo := database.NewIncidentRepo(pool)
	alertRepo := database.NewAlertRepo(pool)
	reportRepo := database.NewReportRepo(pool)
	verificationRepo := database.NewVerificationLogRepo(pool)

	registry := broadcast.NewRegistry()
	router := broadcast.NewRouter(registry)

	relay := broadcast.NewRelay(redisClient)
	router.AttachRelay(relay)
	relay.Start(context.Background(), router)

	appSvc := app.NewService(cameraRepo, incidentRepo, alertRepo, reportRepo, verificationRepo, router, clock)

	healthChecks := []server.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "redis", Check: redisClient.Ping},
	}

	srv := server.NewServer(cfg, appSvc, registry, clock, healthChecks)

	done := runGracefulShutdown(cfg, srv, router, relay)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
