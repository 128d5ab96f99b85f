package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	database "github.com/FACorreiaa/go-vietspot-suggestions/app/db"
	"github.com/FACorreiaa/go-vietspot-suggestions/config"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/place"
)

// Rebuilds the Redis GEO set used for nearby search from the places table.
// The API does the same at startup; this is for refreshing after an import.
func main() {
	limit := flag.Int("limit", 0, "maximum places to index (0 uses chat.candidatePoolLimit)")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *limit <= 0 {
		*limit = cfg.Chat.CandidatePoolLimit
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}
	pool, err := database.Init(ctx, dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	if !database.WaitForDB(ctx, pool, logger) {
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Repositories.Redis.Addr,
		DB:   cfg.Repositories.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to reach redis", slog.String("addr", cfg.Repositories.Redis.Addr), slog.Any("error", err))
		os.Exit(1)
	}

	idx := place.NewRedisGeoIndex(rdb, cfg.Repositories.Redis.GeoKey, logger)
	n, err := idx.Rebuild(ctx, place.NewRepository(pool, logger), *limit)
	if err != nil {
		logger.Error("Geo index rebuild failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Geo index rebuilt", slog.Int("places", n), slog.String("key", cfg.Repositories.Redis.GeoKey))
}
