package container

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	database "github.com/FACorreiaa/go-vietspot-suggestions/app/db"
	appMiddleware "github.com/FACorreiaa/go-vietspot-suggestions/app/middleware"
	"github.com/FACorreiaa/go-vietspot-suggestions/config"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/chat"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/composer"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/events"
	generativeAI "github.com/FACorreiaa/go-vietspot-suggestions/internal/api/generative_ai"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/intent"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/itinerary"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/place"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/scoring"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/semantic"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/weather"
)

// Container holds all application dependencies.
type Container struct {
	Config           *config.Config
	Logger           *slog.Logger
	Pool             *pgxpool.Pool
	Redis            *redis.Client
	NATS             *nats.Conn
	ChatHandler      *chat.HandlerImpl
	ItineraryHandler *itinerary.HandlerImpl
	KeyProvider      appMiddleware.KeyProvider
	RateLimiter      *appMiddleware.RateLimiter
}

// NewContainer opens the store, the optional geo index and event bus, and
// wires every service of the recommendation pipeline.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("database config: %w", err)
	}

	pool, err := database.Init(ctx, dbConfig.ConnectionURL, logger)
	if err != nil {
		return nil, err
	}
	c := &Container{Config: cfg, Logger: logger, Pool: pool}

	ai, err := generativeAI.NewAIClient(ctx, cfg.LLM, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("generative ai client: %w", err)
	}

	placeRepo := place.NewRepository(pool, logger)
	placeOpts := []place.Option{
		place.WithCities(slices.Sorted(maps.Keys(cfg.Itinerary.CityVariants))),
	}
	if cfg.Repositories.Redis.Enabled {
		c.Redis = redis.NewClient(&redis.Options{
			Addr: cfg.Repositories.Redis.Addr,
			DB:   cfg.Repositories.Redis.DB,
		})
		geoIndex := place.NewRedisGeoIndex(c.Redis, cfg.Repositories.Redis.GeoKey, logger)
		n, err := geoIndex.Rebuild(ctx, placeRepo, cfg.Chat.CandidatePoolLimit)
		if err != nil {
			// nearby search still works against PostGIS
			logger.WarnContext(ctx, "Geo index rebuild failed, using database radius search", slog.Any("error", err))
		} else {
			logger.InfoContext(ctx, "Geo index rebuilt", slog.Int("places", n))
			placeOpts = append(placeOpts, place.WithGeoIndex(geoIndex))
		}
	}
	placeService := place.NewService(placeRepo, place.NewCategoryDetector(cfg.Categories), logger, placeOpts...)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Nats.Enabled {
		conn, err := events.Connect(cfg.Nats.URL, cfg.Nats.MaxReconnects, cfg.Nats.ReconnectWait, logger)
		if err != nil {
			logger.WarnContext(ctx, "NATS unavailable, search events disabled", slog.Any("error", err))
		} else {
			c.NATS = conn
			publisher = events.NewNATSPublisher(conn, cfg.Nats.Subject, logger)
		}
	}

	scorer := scoring.NewService(cfg.Scoring)
	weatherClient := weather.NewClient(cfg.Weather, logger)
	planner := itinerary.NewService(placeService, weatherClient, scorer, ai, cfg.Itinerary, logger)

	chatService := chat.NewService(
		intent.NewService(ai, logger),
		placeService,
		semantic.NewService(ai, cfg.Semantic.CacheTTL, logger),
		scorer,
		composer.NewService(ai, logger),
		weatherClient,
		planner,
		ai,
		publisher,
		cfg.Chat,
		logger,
	)

	c.ChatHandler = chat.NewHandler(chatService, logger)
	c.ItineraryHandler = itinerary.NewHandler(planner, itinerary.NewCacheStore(cfg.Itinerary.SavedTTL), logger)
	c.KeyProvider = appMiddleware.NewEnvKeyProvider(cfg.Auth.JWTSecretEnv, cfg.Auth.KeyCacheTTL)
	c.RateLimiter = appMiddleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, 0, logger)
	return c, nil
}

// Close releases all resources held by the container.
func (c *Container) Close() {
	if c.NATS != nil {
		if err := c.NATS.Drain(); err != nil {
			c.Logger.Warn("NATS drain failed", slog.Any("error", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("Redis close failed", slog.Any("error", err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready.
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}
