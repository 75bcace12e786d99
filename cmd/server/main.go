package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Rrens/teamspace/internal/api"
	"github.com/Rrens/teamspace/internal/config"
	"github.com/Rrens/teamspace/internal/domain"
	"github.com/Rrens/teamspace/internal/logger"
	"github.com/Rrens/teamspace/internal/repository/postgres"
	"github.com/Rrens/teamspace/internal/repository/redis"
	"github.com/Rrens/teamspace/internal/repository/sqlite"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file - try multiple locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	logCloser, err := logger.Setup(cfg.Logging, cfg.App.Env)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer logCloser.Close()

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("env", cfg.App.Env).
		Msg("Starting teamspace API server")

	ctx := context.Background()

	// Initialize database
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.MigrationsSource != "" {
		if err := postgres.RunMigrations(cfg.Database.DSN(), cfg.Database.MigrationsSource); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	// Initialize Redis
	redisClient, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// Initialize audit store
	auditStore, auditCloser, err := openAuditStore(ctx, cfg, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open audit store")
	}
	defer auditCloser.Close()

	// Initialize router
	router := api.NewRouter(cfg, db, redisClient, auditStore)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openAuditStore(ctx context.Context, cfg *config.Config, db *postgres.DB) (domain.AuditRepository, io.Closer, error) {
	switch cfg.Audit.Backend {
	case "sqlite":
		openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		store, err := sqlite.Open(openCtx, cfg.Audit.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", cfg.Audit.SQLitePath).Msg("Audit trail stored in sqlite")
		return store, store, nil
	default:
		return postgres.NewAuditRepository(db), nopCloser{}, nil
	}
}
