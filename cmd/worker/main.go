package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/rideshare/config"
	"github.com/Domenick1991/rideshare/internal/cache"
	"github.com/Domenick1991/rideshare/internal/delivery"
	"github.com/Domenick1991/rideshare/internal/kafka"
	"github.com/Domenick1991/rideshare/internal/logging"
	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

// run returns the exit code so deferred closes happen before the process exits.
func run() int {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Printf("load config: %v", err)
		return 1
	}
	logger := logging.NewLogger(cfg.Log.Level)
	if !cfg.Kafka.Enabled() {
		logger.Error("worker needs kafka.brokers")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []delivery.WorkerOption{
		delivery.WithLogger(logger),
		delivery.WithRetry(cfg.Notifications.MaxAttempts, cfg.Notifications.RetryBackoff),
	}
	if cfg.Redis.Enabled() {
		redisCache := cache.NewRedisCache(cfg.Redis)
		defer redisCache.Close()
		opts = append(opts, delivery.WithDeduper(redisCache))
	}
	worker := delivery.NewWorker(delivery.NewSender(delivery.NewLogTransport(logger), logger), opts...)

	subscriber := kafka.NewNotificationSubscriber(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, logger)
	defer subscriber.Close()

	logger.Info("delivery worker started", "topic", cfg.Kafka.NotificationsTopic, "group_id", cfg.Kafka.GroupID)
	for {
		err := subscriber.Run(ctx, worker.Handle)
		if ctx.Err() != nil {
			logger.Info("delivery worker stopped")
			return 0
		}
		if errors.Is(err, context.DeadlineExceeded) {
			continue
		}
		logger.Error("subscription stopped, restarting", "error", err)
		select {
		case <-ctx.Done():
			return 0
		case <-time.After(5 * time.Second):
		}
	}
}
