package place

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/geo"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/types"
)

const (
	nameMatchWeight     = 2
	addressMatchWeight  = 1
	categoryMatchWeight = 10
)

type Service interface {
	SearchByKeywords(ctx context.Context, q types.KeywordQuery) ([]types.Candidate, error)
	SearchNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]types.Candidate, error)
	GetAll(ctx context.Context, limit int) ([]types.Candidate, error)
	GetByIDs(ctx context.Context, ids []string) ([]types.Candidate, error)
	FindByCity(ctx context.Context, city string, variants []string, primaryLimit, variantLimit int) ([]types.Candidate, error)
	ImagesForPlace(ctx context.Context, placeID string, limit int) ([]string, error)
}

var _ Service = (*ServiceImpl)(nil)

type ServiceImpl struct {
	logger     *slog.Logger
	repo       Repository
	categories *CategoryDetector
	cities     []string
	geoIndex   GeoIndex
}

type Option func(*ServiceImpl)

// WithGeoIndex routes nearby lookups through an external geo index, falling
// back to the database on error.
func WithGeoIndex(idx GeoIndex) Option {
	return func(s *ServiceImpl) { s.geoIndex = idx }
}

// WithCities registers city names treated as location-only search terms.
func WithCities(cities []string) Option {
	return func(s *ServiceImpl) { s.cities = append(s.cities, cities...) }
}

func NewService(repo Repository, categories *CategoryDetector, logger *slog.Logger, opts ...Option) *ServiceImpl {
	s := &ServiceImpl{
		logger:     logger,
		repo:       repo,
		categories: categories,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SearchByKeywords runs a text search and ranks hits by MatchScore. When the
// terms name a category, the result is restricted to that category unless no
// row carries it.
func (s *ServiceImpl) SearchByKeywords(ctx context.Context, q types.KeywordQuery) ([]types.Candidate, error) {
	ctx, span := otel.Tracer("PlaceService").Start(ctx, "SearchByKeywords", trace.WithAttributes(
		attribute.StringSlice("terms", q.Terms),
		attribute.String("location", q.Location),
		attribute.String("category", q.Category),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "SearchByKeywords"))

	var nameTerms, addressTerms []string
	seen := make(map[string]struct{}, len(q.Terms))
	for _, raw := range q.Terms {
		t := strings.ToLower(strings.TrimSpace(raw))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if isLocationTerm(t, q.Location, s.cities) {
			addressTerms = append(addressTerms, t)
		} else {
			nameTerms = append(nameTerms, t)
		}
	}

	detected := s.categories.Detect(append(append([]string{}, nameTerms...), q.Category)...)
	if q.Category != "" && len(s.categories.Detect(q.Category)) == 0 {
		detected = append(detected, q.Category)
	}

	records, err := s.repo.SearchText(ctx, TextFilter{
		Terms:        nameTerms,
		AddressTerms: addressTerms,
		Categories:   detected,
		Location:     strings.TrimSpace(q.Location),
		MinRating:    q.MinRating,
		MaxRating:    q.MaxRating,
		Limit:        q.Limit,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Keyword search failed")
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	candidates := make([]types.Candidate, 0, len(records))
	var inCat []types.Candidate
	for _, rec := range records {
		c := types.Candidate{Place: s.toPlace(rec)}
		name := strings.ToLower(c.Name)
		addr := strings.ToLower(c.Address)
		for _, t := range nameTerms {
			if strings.Contains(name, t) {
				c.MatchScore += nameMatchWeight
			}
			if strings.Contains(addr, t) {
				c.MatchScore += addressMatchWeight
			}
		}
		for _, t := range addressTerms {
			if strings.Contains(addr, t) {
				c.MatchScore += addressMatchWeight
			}
		}
		if len(detected) > 0 && inCategory(c.Category, detected) {
			c.MatchScore += categoryMatchWeight
			inCat = append(inCat, c)
		}
		candidates = append(candidates, c)
	}
	if len(inCat) > 0 {
		candidates = inCat
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MatchScore > candidates[j].MatchScore
	})

	l.DebugContext(ctx, "Keyword search complete",
		slog.Int("rows", len(records)),
		slog.Int("results", len(candidates)),
		slog.Any("categories", detected))
	span.SetAttributes(attribute.Int("results.count", len(candidates)))
	span.SetStatus(codes.Ok, "Keyword search complete")
	return candidates, nil
}

// SearchNearby returns places within radiusKm of (lat, lon), nearest first.
// Distances are recomputed from normalized coordinates and rows whose
// coordinates cannot be read are dropped.
func (s *ServiceImpl) SearchNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]types.Candidate, error) {
	ctx, span := otel.Tracer("PlaceService").Start(ctx, "SearchNearby", trace.WithAttributes(
		attribute.Float64("lat", lat),
		attribute.Float64("lon", lon),
		attribute.Float64("radius_km", radiusKm),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "SearchNearby"))

	if !isFinite(lat) || !isFinite(lon) || radiusKm <= 0 {
		return nil, nil
	}

	records, err := s.nearbyRecords(ctx, lat, lon, radiusKm, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Nearby search failed")
		return nil, fmt.Errorf("nearby search: %w", err)
	}

	candidates := make([]types.Candidate, 0, len(records))
	for _, rec := range records {
		p := s.toPlace(rec)
		if p.Coordinates == nil {
			continue
		}
		d := geo.DistanceKm(lat, lon, p.Coordinates.Lat, p.Coordinates.Lon)
		if math.IsInf(d, 0) || d > radiusKm {
			continue
		}
		d = geo.Round(d, 2)
		candidates = append(candidates, types.Candidate{Place: p, DistanceKm: &d})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return *candidates[i].DistanceKm < *candidates[j].DistanceKm
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	l.DebugContext(ctx, "Nearby search complete", slog.Int("rows", len(records)), slog.Int("results", len(candidates)))
	span.SetStatus(codes.Ok, "Nearby search complete")
	return candidates, nil
}

func (s *ServiceImpl) nearbyRecords(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]Record, error) {
	if s.geoIndex != nil {
		ids, err := s.geoIndex.Nearby(ctx, lat, lon, radiusKm, limit)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "Geo index lookup failed, using database", slog.Any("error", err))
		case len(ids) > 0:
			return s.repo.FetchByIDs(ctx, ids)
		default:
			// the index is only rebuilt at startup, so newer places may be missing
			s.logger.DebugContext(ctx, "Geo index returned no places, using database")
		}
	}
	return s.repo.SearchRadius(ctx, lat, lon, radiusKm, limit)
}

func (s *ServiceImpl) GetAll(ctx context.Context, limit int) ([]types.Candidate, error) {
	ctx, span := otel.Tracer("PlaceService").Start(ctx, "GetAll")
	defer span.End()

	records, err := s.repo.FetchAll(ctx, limit)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("fetch all places: %w", err)
	}
	return s.toCandidates(records), nil
}

// GetByIDs preserves the order of ids and skips unknown ones.
func (s *ServiceImpl) GetByIDs(ctx context.Context, ids []string) ([]types.Candidate, error) {
	ctx, span := otel.Tracer("PlaceService").Start(ctx, "GetByIDs", trace.WithAttributes(
		attribute.Int("ids.count", len(ids)),
	))
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}
	records, err := s.repo.FetchByIDs(ctx, ids)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("fetch places by id: %w", err)
	}
	byID := make(map[string]Record, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}
	out := make([]types.Candidate, 0, len(records))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, types.Candidate{Place: s.toPlace(r)})
			delete(byID, id)
		}
	}
	return out, nil
}

// FindByCity collects places whose address mentions city or one of its
// variant spellings, deduplicated by id.
func (s *ServiceImpl) FindByCity(ctx context.Context, city string, variants []string, primaryLimit, variantLimit int) ([]types.Candidate, error) {
	ctx, span := otel.Tracer("PlaceService").Start(ctx, "FindByCity", trace.WithAttributes(
		attribute.String("city", city),
		attribute.StringSlice("variants", variants),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "FindByCity"), slog.String("city", city))

	records, err := s.repo.FetchByAddress(ctx, city, primaryLimit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "City lookup failed")
		return nil, fmt.Errorf("find places in %s: %w", city, err)
	}

	seen := make(map[string]struct{}, len(records))
	out := make([]types.Candidate, 0, len(records))
	add := func(recs []Record) {
		for _, r := range recs {
			if _, dup := seen[r.ID]; dup {
				continue
			}
			seen[r.ID] = struct{}{}
			out = append(out, types.Candidate{Place: s.toPlace(r)})
		}
	}
	add(records)

	for _, v := range variants {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(city)) {
			continue
		}
		recs, err := s.repo.FetchByAddress(ctx, v, variantLimit)
		if err != nil {
			l.WarnContext(ctx, "Variant lookup failed", slog.String("variant", v), slog.Any("error", err))
			continue
		}
		add(recs)
	}

	l.DebugContext(ctx, "City lookup complete", slog.Int("results", len(out)))
	span.SetStatus(codes.Ok, "City lookup complete")
	return out, nil
}

func (s *ServiceImpl) ImagesForPlace(ctx context.Context, placeID string, limit int) ([]string, error) {
	if placeID == "" || limit <= 0 {
		return nil, nil
	}
	return s.repo.ImagesForPlace(ctx, placeID, limit)
}

func (s *ServiceImpl) toCandidates(records []Record) []types.Candidate {
	out := make([]types.Candidate, 0, len(records))
	for _, r := range records {
		out = append(out, types.Candidate{Place: s.toPlace(r)})
	}
	return out
}

func (s *ServiceImpl) toPlace(r Record) types.Place {
	p := types.Place{
		ID:           r.ID,
		Name:         r.Name,
		Address:      r.Address,
		Category:     r.Category,
		Rating:       r.Rating,
		RatingCount:  r.RatingCount,
		NumCheckins:  r.NumCheckins,
		OpeningHours: r.OpeningHours,
		About:        r.About,
		Phone:        r.Phone,
		Website:      r.Website,
		PriceLevel:   r.PriceLevel,
	}
	if len(r.Coordinates) > 0 {
		p.Coordinates = geo.ParseCoordinates(r.Coordinates)
		if p.Coordinates == nil {
			s.logger.Debug("Unreadable coordinates", slog.String("place_id", r.ID))
		}
	}
	return p
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
