package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/joshua-takyi/eventhub/internal/config"
	"github.com/joshua-takyi/eventhub/internal/connect"
	"github.com/joshua-takyi/eventhub/internal/container"
	"github.com/joshua-takyi/eventhub/internal/helpers"
	"github.com/joshua-takyi/eventhub/internal/queue"
	"github.com/joshua-takyi/eventhub/internal/routes"
)

func main() {
	// Load environment variables
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("Starting eventhub API server", "environment", cfg.Environment)

	ctx := context.Background()

	supaClient, err := connect.Supabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to Supabase", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to Supabase successfully")

	mongoClient, err := connect.MongoDB(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to MongoDB successfully")

	cld, err := connect.Cloudinary(cfg)
	if err != nil {
		logger.Error("Failed to connect to Cloudinary", "error", err)
		os.Exit(1)
	}
	if cld == nil {
		logger.Warn("Cloudinary not configured, local image uploads disabled")
	}

	clients := container.Clients{
		Supabase:   supaClient,
		MongoDB:    mongoClient,
		Cloudinary: cld,
	}

	if rdb, err := connect.Redis(ctx, cfg); err != nil {
		logger.Warn("Redis unavailable, rate limiting disabled", "error", err)
	} else if rdb == nil {
		logger.Info("REDIS_URL not set, rate limiting disabled")
	} else {
		clients.Redis = rdb
		defer rdb.Close()
	}

	if cfg.RabbitMQURL != "" {
		pub, err := queue.NewPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, domain events disabled", "error", err)
		} else {
			clients.Publisher = pub
			defer pub.Close()
		}
	}

	validator, err := helpers.NewTokenValidator(ctx, cfg.SupabaseURL, logger)
	if err != nil {
		logger.Error("Failed to load signing keys", "error", err)
		os.Exit(1)
	}
	defer validator.Close()

	appContainer := container.NewContainer(cfg, logger, clients)

	indexCtx, cancelIndexes := context.WithTimeout(ctx, 30*time.Second)
	if err := appContainer.Mongo.EnsureIndexes(indexCtx); err != nil {
		logger.Error("Failed to ensure indexes", "error", err)
		cancelIndexes()
		os.Exit(1)
	}
	cancelIndexes()

	router := routes.SetupRoutes(appContainer, validator)

	server := newServer(":"+cfg.Port, router)

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if err := connect.MongoDBDisconnect(mongoClient); err != nil {
		logger.Error("Error disconnecting from MongoDB", "error", err)
	}

	logger.Info("Server exited")
}

func parseLevel(s string, fallback slog.Level) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return fallback
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLevel(cfg.LogLevel, slog.LevelInfo),
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLevel(cfg.LogLevel, slog.LevelDebug),
		})
	}

	return slog.New(handler)
}
