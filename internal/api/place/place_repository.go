package place

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-vietspot-suggestions/app/observability/metrics"
)

// Record is a places row as stored. Coordinates is kept raw because stored
// values come in several shapes; the service normalizes them.
type Record struct {
	ID           string
	Name         string
	Address      string
	Category     string
	Rating       *float64
	RatingCount  int
	NumCheckins  int
	Coordinates  []byte
	OpeningHours string
	About        string
	Phone        string
	Website      string
	PriceLevel   *int
}

// TextFilter drives keyword search. Terms match name or address, AddressTerms
// and Location match the address only, Categories match the category tag.
type TextFilter struct {
	Terms        []string
	AddressTerms []string
	Categories   []string
	Location     string
	MinRating    *float64
	MaxRating    *float64
	Limit        int
}

// DB is the subset of pgxpool.Pool used by the repository.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Repository interface {
	SearchText(ctx context.Context, filter TextFilter) ([]Record, error)
	SearchRadius(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]Record, error)
	FetchAll(ctx context.Context, limit int) ([]Record, error)
	FetchByIDs(ctx context.Context, ids []string) ([]Record, error)
	FetchByAddress(ctx context.Context, pattern string, limit int) ([]Record, error)
	ImagesForPlace(ctx context.Context, placeID string, limit int) ([]string, error)
}

var _ Repository = (*RepositoryImpl)(nil)

type RepositoryImpl struct {
	logger *slog.Logger
	db     DB
}

func NewRepository(db DB, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		db:     db,
	}
}

var placeColumns = []string{
	"id",
	"name",
	"COALESCE(address, '')",
	"COALESCE(category, '')",
	"rating",
	"COALESCE(rating_count, 0)",
	"COALESCE(num_checkins, 0)",
	"coordinates::text",
	"COALESCE(opening_hours, '')",
	"COALESCE(about, '')",
	"COALESCE(phone, '')",
	"COALESCE(website, '')",
	"price_level",
}

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

func (r *RepositoryImpl) SearchText(ctx context.Context, filter TextFilter) ([]Record, error) {
	ctx, span := otel.Tracer("PlaceRepository").Start(ctx, "SearchText", trace.WithAttributes(
		attribute.Int("terms.count", len(filter.Terms)),
		attribute.Int("address_terms.count", len(filter.AddressTerms)),
		attribute.StringSlice("categories", filter.Categories),
		attribute.String("location", filter.Location),
	))
	defer span.End()

	match := sq.Or{}
	for _, t := range filter.Terms {
		pattern := likePattern(t)
		match = append(match, sq.ILike{"name": pattern}, sq.ILike{"address": pattern})
	}
	for _, t := range filter.AddressTerms {
		match = append(match, sq.ILike{"address": likePattern(t)})
	}
	for _, c := range filter.Categories {
		match = append(match, sq.ILike{"category": likePattern(c)})
	}

	q := psql().Select(placeColumns...).From("places")
	if len(match) > 0 {
		q = q.Where(match)
	}
	if filter.Location != "" {
		q = q.Where(sq.ILike{"address": likePattern(filter.Location)})
	}
	if filter.MinRating != nil {
		q = q.Where(sq.GtOrEq{"rating": *filter.MinRating})
	}
	if filter.MaxRating != nil {
		q = q.Where(sq.LtOrEq{"rating": *filter.MaxRating})
	}
	q = q.OrderBy("rating DESC NULLS LAST", "rating_count DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to build query")
		return nil, fmt.Errorf("failed to build keyword query: %w", err)
	}
	return r.queryRecords(ctx, span, "SearchText", query, args...)
}

func (r *RepositoryImpl) SearchRadius(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]Record, error) {
	ctx, span := otel.Tracer("PlaceRepository").Start(ctx, "SearchRadius", trace.WithAttributes(
		attribute.Float64("lat", lat),
		attribute.Float64("lon", lon),
		attribute.Float64("radius_km", radiusKm),
	))
	defer span.End()

	query := `
		SELECT ` + strings.Join(placeColumns, ", ") + `
		FROM places
		WHERE location IS NOT NULL
		  AND ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3 * 1000)
		ORDER BY ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography)
		LIMIT $4`
	return r.queryRecords(ctx, span, "SearchRadius", query, lon, lat, radiusKm, limit)
}

func (r *RepositoryImpl) FetchAll(ctx context.Context, limit int) ([]Record, error) {
	ctx, span := otel.Tracer("PlaceRepository").Start(ctx, "FetchAll", trace.WithAttributes(
		attribute.Int("limit", limit),
	))
	defer span.End()

	q := psql().Select(placeColumns...).From("places").OrderBy("id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to build fetch-all query: %w", err)
	}
	return r.queryRecords(ctx, span, "FetchAll", query, args...)
}

func (r *RepositoryImpl) FetchByIDs(ctx context.Context, ids []string) ([]Record, error) {
	ctx, span := otel.Tracer("PlaceRepository").Start(ctx, "FetchByIDs", trace.WithAttributes(
		attribute.Int("ids.count", len(ids)),
	))
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := psql().Select(placeColumns...).From("places").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to build fetch-by-ids query: %w", err)
	}
	return r.queryRecords(ctx, span, "FetchByIDs", query, args...)
}

func (r *RepositoryImpl) FetchByAddress(ctx context.Context, pattern string, limit int) ([]Record, error) {
	ctx, span := otel.Tracer("PlaceRepository").Start(ctx, "FetchByAddress", trace.WithAttributes(
		attribute.String("pattern", pattern),
		attribute.Int("limit", limit),
	))
	defer span.End()

	q := psql().Select(placeColumns...).From("places").
		Where(sq.ILike{"address": likePattern(pattern)}).
		OrderBy("rating DESC NULLS LAST")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to build address query: %w", err)
	}
	return r.queryRecords(ctx, span, "FetchByAddress", query, args...)
}

func (r *RepositoryImpl) ImagesForPlace(ctx context.Context, placeID string, limit int) ([]string, error) {
	ctx, span := otel.Tracer("PlaceRepository").Start(ctx, "ImagesForPlace", trace.WithAttributes(
		attribute.String("place.id", placeID),
	))
	defer span.End()

	query := `SELECT url FROM images WHERE place_id = $1 ORDER BY created_at DESC LIMIT $2`
	start := time.Now()
	rows, err := r.db.Query(ctx, query, placeID, limit)
	r.observe(ctx, "ImagesForPlace", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Query failed")
		return nil, fmt.Errorf("failed to query images for place %s: %w", placeID, err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan image row: %w", err)
		}
		urls = append(urls, url)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating image rows: %w", err)
	}
	return urls, nil
}

func (r *RepositoryImpl) queryRecords(ctx context.Context, span trace.Span, method, query string, args ...any) ([]Record, error) {
	l := r.logger.With(slog.String("method", method))

	start := time.Now()
	rows, err := r.db.Query(ctx, query, args...)
	r.observe(ctx, method, start, err)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query places", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Query failed")
		return nil, fmt.Errorf("failed to query places (%s): %w", method, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var coords *string
		err := rows.Scan(
			&rec.ID, &rec.Name, &rec.Address, &rec.Category,
			&rec.Rating, &rec.RatingCount, &rec.NumCheckins, &coords,
			&rec.OpeningHours, &rec.About, &rec.Phone, &rec.Website,
			&rec.PriceLevel,
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Scan failed")
			return nil, fmt.Errorf("failed to scan place row: %w", err)
		}
		if coords != nil {
			rec.Coordinates = []byte(*coords)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating place rows: %w", err)
	}

	l.DebugContext(ctx, "Places fetched", slog.Int("count", len(records)))
	span.SetAttributes(attribute.Int("results.count", len(records)))
	span.SetStatus(codes.Ok, "Places fetched")
	return records, nil
}

func (r *RepositoryImpl) observe(ctx context.Context, method string, start time.Time, err error) {
	m := metrics.Get()
	attrs := metric.WithAttributes(attribute.String("method", method))
	m.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		m.DbQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps a term for a case-insensitive substring match.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
