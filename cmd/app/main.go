package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/rideshare/config"
	"github.com/Domenick1991/rideshare/internal/bootstrap"
	"github.com/Domenick1991/rideshare/internal/cache"
	"github.com/Domenick1991/rideshare/internal/kafka"
	"github.com/Domenick1991/rideshare/internal/logging"
	"github.com/Domenick1991/rideshare/internal/repository/memory"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

// run returns the exit code so the deferred pool, cache and producer closes
// happen before the process exits.
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]bootstrap.HealthCheck{}
	var repos bootstrap.Repositories
	switch cfg.Database.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage, data is lost on restart")
		repos = bootstrap.MemoryRepositories(memory.New())
	default:
		poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
		if err != nil {
			logger.Error("parse database dsn", "error", err)
			return 1
		}
		if cfg.Database.MaxConns > 0 {
			poolCfg.MaxConns = cfg.Database.MaxConns
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			logger.Error("connect postgres", "error", err)
			return 1
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Warn("postgres not reachable yet", "error", err)
		}
		checks["postgres"] = pool.Ping
		repos = bootstrap.PostgresRepositories(pool)
	}

	var infra bootstrap.Infra
	if cfg.Redis.Enabled() {
		redisCache := cache.NewRedisCache(cfg.Redis)
		defer redisCache.Close()
		infra.Cache = redisCache
		checks["redis"] = redisCache.Ping
	}
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			logger.Warn("kafka not reachable, delivery events will fail until it is", "error", err)
		}
		infra.Publisher = producer
	}

	app := bootstrap.NewApp(cfg, logger, repos, infra)
	if err := bootstrap.Run(ctx, cfg, logger, app, checks); err != nil {
		logger.Error("server error", "error", err)
		return 1
	}
	return 0
}
