// Command notifier consumes booking lifecycle messages and emits one
// notification line per message for the addressed party.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/joshua-takyi/eventhub/internal/config"
	"github.com/joshua-takyi/eventhub/internal/queue"
)

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadNotifierConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, nil)
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	}
	logger := slog.New(handler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := queue.NewConsumer(queue.ConsumerConfig{
		URL:    cfg.RabbitMQURL,
		Queue:  cfg.NotifierQueue,
		Logger: logger,
	})

	logger.Info("Notifier starting", "queue", cfg.NotifierQueue)
	if err := consumer.Run(ctx, notify(logger)); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Notifier stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("Notifier exited")
}
