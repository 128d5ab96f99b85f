package itinerary

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-vietspot-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-vietspot-suggestions/config"
	generativeAI "github.com/FACorreiaa/go-vietspot-suggestions/internal/api/generative_ai"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/jsonextract"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/place"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/scoring"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/weather"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/types"
)

const (
	MinDays = 1
	MaxDays = 7

	fallbackDuration = 90
)

var fallbackSlots = []string{"08:30", "10:30", "14:00", "16:00", "18:00"}

type Service interface {
	Generate(ctx context.Context, req types.ItineraryRequest) *types.ItineraryResponse
}

var _ Service = (*ServiceImpl)(nil)

type ServiceImpl struct {
	logger    *slog.Logger
	places    place.Service
	weather   weather.Provider
	scorer    *scoring.Service
	generator generativeAI.TextGenerator
	cfg       config.ItineraryConfig
}

func NewService(places place.Service, weatherProvider weather.Provider, scorer *scoring.Service,
	generator generativeAI.TextGenerator, cfg config.ItineraryConfig, logger *slog.Logger) *ServiceImpl {
	if cfg.MaxPromptPlaces <= 0 {
		cfg.MaxPromptPlaces = 80
	}
	if cfg.PrimaryQueryLimit <= 0 {
		cfg.PrimaryQueryLimit = 100
	}
	if cfg.VariantQueryLimit <= 0 {
		cfg.VariantQueryLimit = 50
	}
	return &ServiceImpl{
		logger:    logger,
		places:    places,
		weather:   weatherProvider,
		scorer:    scorer,
		generator: generator,
		cfg:       cfg,
	}
}

// Generate builds a day-by-day plan from the places stored for the
// destination. It always returns a plan: an empty pool gives an empty
// itinerary and an unusable generator answer gives the fallback plan.
func (s *ServiceImpl) Generate(ctx context.Context, req types.ItineraryRequest) *types.ItineraryResponse {
	req.Destination = strings.TrimSpace(req.Destination)
	req.NumDays = max(MinDays, min(MaxDays, req.NumDays))

	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Generate", trace.WithAttributes(
		attribute.String("destination", req.Destination),
		attribute.Int("num_days", req.NumDays),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Generate"), slog.String("destination", req.Destination))

	variants := cityVariants(req.Destination, s.cfg.CityVariants)
	pool, err := s.places.FindByCity(ctx, req.Destination, variants, s.cfg.PrimaryQueryLimit, s.cfg.VariantQueryLimit)
	if err != nil {
		l.ErrorContext(ctx, "Failed to load places for destination", slog.Any("error", err))
		span.RecordError(err)
		pool = nil
	}
	w := s.weather.ByCity(ctx, req.Destination)

	if len(pool) == 0 {
		l.InfoContext(ctx, "No places found for destination")
		span.SetStatus(codes.Ok, "Empty pool")
		return emptyPlan(req)
	}
	span.SetAttributes(attribute.Int("pool.size", len(pool)))

	if req.HasUserLocation() {
		pool = scoring.AttachDistances(pool, *req.UserLat, *req.UserLon)
		pool = s.scorer.Rank(pool, true, 0)
	}

	text, err := s.generator.GenerateStructured(ctx, planPrompt(req, pool, s.cfg.MaxPromptPlaces, w))
	if err != nil {
		l.WarnContext(ctx, "Itinerary generation failed, using fallback plan", slog.Any("error", err))
		span.RecordError(err)
		return s.fallback(ctx, req, pool, w, "generator")
	}

	var plan types.ItineraryResponse
	strategy, err := jsonextract.Decode(text, &plan, jsonextract.DocumentStrategies...)
	if err != nil {
		l.WarnContext(ctx, "Unreadable itinerary output, using fallback plan",
			slog.Any("error", err), slog.Int("response_len", len(text)))
		span.RecordError(err)
		return s.fallback(ctx, req, pool, w, "parse")
	}
	if len(plan.Itinerary) == 0 {
		l.WarnContext(ctx, "Generated itinerary has no days, using fallback plan")
		return s.fallback(ctx, req, pool, w, "empty_plan")
	}

	finishPlan(&plan, req, pool, w)
	l.InfoContext(ctx, "Itinerary generated",
		slog.String("strategy", strategy),
		slog.Int("days", len(plan.Itinerary)),
		slog.Int("total_places", plan.TotalPlaces))
	span.SetStatus(codes.Ok, "Itinerary generated")
	return &plan
}

func emptyPlan(req types.ItineraryRequest) *types.ItineraryResponse {
	return &types.ItineraryResponse{
		Destination: req.Destination,
		NumDays:     req.NumDays,
		Itinerary:   []types.DayItinerary{},
		Summary:     fmt.Sprintf("Không tìm thấy địa điểm nào tại %s", req.Destination),
		TotalPlaces: 0,
		Tips:        []string{"Vui lòng thử lại với tên thành phố khác"},
	}
}

// finishPlan ties generated activities back to stored places, removes repeats
// while unused places remain, orders each day and fills the totals.
func finishPlan(plan *types.ItineraryResponse, req types.ItineraryRequest, pool []types.Candidate, w *types.Weather) {
	byID := make(map[string]types.Candidate, len(pool))
	byName := make(map[string]types.Candidate, len(pool))
	for _, c := range pool {
		byID[c.ID] = c
		key := nameKey(c.Name)
		if _, ok := byName[key]; !ok {
			byName[key] = c
		}
	}

	if plan.Destination == "" {
		plan.Destination = req.Destination
	}
	plan.NumDays = req.NumDays
	if len(plan.Itinerary) > req.NumDays {
		plan.Itinerary = plan.Itinerary[:req.NumDays]
	}

	used := make(map[string]struct{}, len(pool))
	total := 0
	for d := range plan.Itinerary {
		day := &plan.Itinerary[d]
		if day.Day <= 0 {
			day.Day = d + 1
		}
		if strings.TrimSpace(day.Theme) == "" {
			day.Theme = fmt.Sprintf("Khám phá %s - Ngày %d", req.Destination, day.Day)
		}

		kept := make([]types.ActivityDetail, 0, len(day.Activities))
		for _, act := range day.Activities {
			c, ok := byID[act.PlaceID]
			if !ok {
				c, ok = byName[nameKey(act.PlaceName)]
			}
			if ok {
				act = withPlace(act, c.Place)
				if _, dup := used[c.ID]; dup && len(used) < len(pool) {
					continue
				}
				used[c.ID] = struct{}{}
			}
			kept = append(kept, act)
		}

		day.Activities = optimizeDayRoute(kept)
		day.TotalActivities = len(day.Activities)
		dist := dayDistanceKm(day.Activities)
		day.EstimatedDistanceKm = &dist
		total += day.TotalActivities
	}
	plan.TotalPlaces = total

	if strings.TrimSpace(plan.Summary) == "" {
		plan.Summary = fmt.Sprintf("Lịch trình %d ngày tại %s", req.NumDays, req.Destination)
	}
	if len(plan.Tips) == 0 {
		plan.Tips = defaultTips(w)
	}
	if plan.EstimatedBudget == "" && req.MaxBudget != nil && *req.MaxBudget > 0 {
		plan.EstimatedBudget = formatBudget(*req.MaxBudget)
	}
}

func nameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// withPlace fills an activity from the stored place. Stored coordinates win
// over generated ones.
func withPlace(act types.ActivityDetail, p types.Place) types.ActivityDetail {
	act.PlaceID = p.ID
	if act.PlaceName == "" {
		act.PlaceName = p.Name
	}
	if act.Address == "" {
		act.Address = p.Address
	}
	if act.Category == "" {
		act.Category = p.Category
	}
	if act.Rating == nil && p.Rating != nil {
		r := *p.Rating
		act.Rating = &r
	}
	if p.Coordinates != nil {
		lat, lon := p.Coordinates.Lat, p.Coordinates.Lon
		act.Latitude, act.Longitude = &lat, &lon
	}
	return act
}

func defaultTips(w *types.Weather) []string {
	tips := []string{"Mang theo nước", "Đi giày thoải mái"}
	if advice := weather.Advice(w); advice != "" {
		tips = append([]string{advice}, tips...)
	}
	return tips
}

func (s *ServiceImpl) fallback(ctx context.Context, req types.ItineraryRequest, pool []types.Candidate, w *types.Weather, reason string) *types.ItineraryResponse {
	metrics.Get().LLMFallbacksTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("component", "itinerary"),
		attribute.String("reason", reason)))
	return fallbackPlan(req, pool, w)
}

// fallbackPlan spreads the pool over the requested days in fixed time slots.
// Places are not repeated until every place has been used once. In rain or
// heat indoor places go first.
func fallbackPlan(req types.ItineraryRequest, pool []types.Candidate, w *types.Weather) *types.ItineraryResponse {
	if len(pool) == 0 {
		return emptyPlan(req)
	}

	ordered := make([]types.Candidate, len(pool))
	copy(ordered, pool)
	if preferIndoor(w) {
		sort.SliceStable(ordered, func(i, j int) bool {
			return isLikelyIndoor(ordered[i].Place) && !isLikelyIndoor(ordered[j].Place)
		})
	}

	perDay := max(1, min(len(fallbackSlots), len(ordered)/req.NumDays))
	used := make(map[string]struct{}, len(ordered))
	repeat := 0

	next := func(slot string) types.Candidate {
		firstUnused := -1
		for i, c := range ordered {
			if _, ok := used[c.ID]; ok {
				continue
			}
			if firstUnused == -1 {
				firstUnused = i
			}
			if isOpenAt(c.OpeningHours, slot) {
				used[c.ID] = struct{}{}
				return c
			}
		}
		if firstUnused >= 0 {
			c := ordered[firstUnused]
			used[c.ID] = struct{}{}
			return c
		}
		c := ordered[repeat%len(ordered)]
		repeat++
		return c
	}

	days := make([]types.DayItinerary, 0, req.NumDays)
	total := 0
	for n := 1; n <= req.NumDays; n++ {
		activities := make([]types.ActivityDetail, 0, perDay)
		for k := 0; k < perDay; k++ {
			slot := fallbackSlots[k]
			activities = append(activities, fallbackActivity(next(slot).Place, slot))
		}
		dist := dayDistanceKm(activities)
		days = append(days, types.DayItinerary{
			Day:                 n,
			Theme:               fmt.Sprintf("Khám phá %s - Ngày %d", req.Destination, n),
			Activities:          activities,
			TotalActivities:     len(activities),
			EstimatedDistanceKm: &dist,
		})
		total += len(activities)
	}

	resp := &types.ItineraryResponse{
		Destination: req.Destination,
		NumDays:     req.NumDays,
		Itinerary:   days,
		Summary:     fmt.Sprintf("Lịch trình %d ngày tại %s", req.NumDays, req.Destination),
		TotalPlaces: total,
		Tips:        defaultTips(w),
	}
	if req.MaxBudget != nil && *req.MaxBudget > 0 {
		resp.EstimatedBudget = formatBudget(*req.MaxBudget)
	}
	return resp
}

func fallbackActivity(p types.Place, slot string) types.ActivityDetail {
	desc := "Tham quan " + p.Name
	if p.Rating != nil {
		desc += " (⭐" + strconv.FormatFloat(*p.Rating, 'f', -1, 64) + ")"
	}
	act := types.ActivityDetail{
		Time:            slot,
		DurationMinutes: fallbackDuration,
		ActivityType:    "visit",
		PlaceName:       p.Name,
		Description:     desc,
	}
	return withPlace(act, p)
}
