package place

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/geo"
)

// GeoIndex answers radius queries with place ids, nearest first.
type GeoIndex interface {
	Nearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]string, error)
}

var _ GeoIndex = (*RedisGeoIndex)(nil)

// RedisGeoIndex keeps place coordinates in a Redis GEO set.
type RedisGeoIndex struct {
	client redis.Cmdable
	key    string
	logger *slog.Logger
}

func NewRedisGeoIndex(client redis.Cmdable, key string, logger *slog.Logger) *RedisGeoIndex {
	if key == "" {
		key = "places:geo"
	}
	return &RedisGeoIndex{client: client, key: key, logger: logger}
}

// Rebuild replaces the GEO set with every place that has readable
// coordinates and returns the number indexed.
func (g *RedisGeoIndex) Rebuild(ctx context.Context, repo Repository, limit int) (int, error) {
	ctx, span := otel.Tracer("PlaceGeoIndex").Start(ctx, "Rebuild")
	defer span.End()

	records, err := repo.FetchAll(ctx, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Fetch failed")
		return 0, fmt.Errorf("load places for geo index: %w", err)
	}

	locations := make([]*redis.GeoLocation, 0, len(records))
	for _, r := range records {
		c := geo.ParseCoordinates(r.Coordinates)
		if c == nil {
			continue
		}
		locations = append(locations, &redis.GeoLocation{
			Name:      r.ID,
			Longitude: c.Lon,
			Latitude:  c.Lat,
		})
	}

	if err := g.client.Del(ctx, g.key).Err(); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("clear geo index: %w", err)
	}
	const chunk = 500
	for start := 0; start < len(locations); start += chunk {
		end := min(start+chunk, len(locations))
		if err := g.client.GeoAdd(ctx, g.key, locations[start:end]...).Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "GeoAdd failed")
			return start, fmt.Errorf("populate geo index: %w", err)
		}
	}

	g.logger.InfoContext(ctx, "Geo index rebuilt",
		slog.String("key", g.key),
		slog.Int("places", len(records)),
		slog.Int("indexed", len(locations)))
	span.SetAttributes(attribute.Int("indexed", len(locations)))
	span.SetStatus(codes.Ok, "Geo index rebuilt")
	return len(locations), nil
}

func (g *RedisGeoIndex) Nearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]string, error) {
	ctx, span := otel.Tracer("PlaceGeoIndex").Start(ctx, "Nearby", trace.WithAttributes(
		attribute.Float64("radius_km", radiusKm),
	))
	defer span.End()

	results, err := g.client.GeoRadius(ctx, g.key, lon, lat, &redis.GeoRadiusQuery{
		Radius: radiusKm,
		Unit:   "km",
		Sort:   "ASC",
		Count:  limit,
	}).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "GeoRadius failed")
		return nil, fmt.Errorf("geo radius: %w", err)
	}

	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Name)
	}
	span.SetAttributes(attribute.Int("results.count", len(ids)))
	return ids, nil
}
