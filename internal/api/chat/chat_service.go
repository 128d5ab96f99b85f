package chat

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-vietspot-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-vietspot-suggestions/config"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/composer"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/events"
	generativeAI "github.com/FACorreiaa/go-vietspot-suggestions/internal/api/generative_ai"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/intent"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/itinerary"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/place"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/scoring"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/semantic"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/weather"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/types"
)

const (
	NoResultsAnswer      = "Xin lỗi, tôi không tìm thấy địa điểm nào phù hợp với yêu cầu của bạn. Vui lòng thử lại với tiêu chí khác."
	ApologyAnswer        = "Xin lỗi, đã có lỗi xảy ra khi xử lý yêu cầu của bạn. Vui lòng thử lại sau."
	GeneralFailureAnswer = "Xin lỗi, tôi không thể trả lời câu hỏi này lúc này. Vui lòng thử lại."

	queryTypeItinerary = "itinerary"
)

type Service interface {
	Chat(ctx context.Context, req types.ChatRequest) *types.ChatResponse
	Config() types.ChatConfigResponse
}

var _ Service = (*ServiceImpl)(nil)

type ServiceImpl struct {
	logger     *slog.Logger
	cfg        config.ChatConfig
	classifier intent.Service
	places     place.Service
	ranker     semantic.Service
	scorer     *scoring.Service
	composer   composer.Service
	weather    weather.Provider
	planner    itinerary.Service
	grounded   generativeAI.GroundedGenerator
	events     events.Publisher
}

func NewService(
	classifier intent.Service,
	places place.Service,
	ranker semantic.Service,
	scorer *scoring.Service,
	composerService composer.Service,
	weatherProvider weather.Provider,
	planner itinerary.Service,
	grounded generativeAI.GroundedGenerator,
	publisher events.Publisher,
	cfg config.ChatConfig,
	logger *slog.Logger,
) *ServiceImpl {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ServiceImpl{
		logger:     logger,
		cfg:        cfg,
		classifier: classifier,
		places:     places,
		ranker:     ranker,
		scorer:     scorer,
		composer:   composerService,
		weather:    weatherProvider,
		planner:    planner,
		grounded:   grounded,
		events:     publisher,
	}
}

func (s *ServiceImpl) Config() types.ChatConfigResponse {
	w := s.scorer.Weights()
	return types.ChatConfigResponse{
		DefaultNearbyRadiusKm:      s.cfg.DefaultNearbyRadiusKm,
		DefaultNearbyRadiusKmShort: s.cfg.DefaultNearbyRadiusKmShort,
		TopNSemanticResults:        s.cfg.TopNSemanticResults,
		TopKFinalResults:           s.cfg.TopKFinalResults,
		Weights: map[string]float64{
			"semantic":   w.Semantic,
			"distance":   w.Distance,
			"rating":     w.Rating,
			"popularity": w.Popularity,
		},
	}
}

// Chat answers one user message. It never fails: errors and panics below the
// classifier turn into an apology with no places.
func (s *ServiceImpl) Chat(ctx context.Context, req types.ChatRequest) *types.ChatResponse {
	start := time.Now()
	ctx, span := otel.Tracer("ChatService").Start(ctx, "Chat", trace.WithAttributes(
		attribute.String("session.id", req.SessionID),
		attribute.Bool("user_location", req.HasUserLocation()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Chat"), slog.String("session_id", req.SessionID))

	var userLoc *types.UserLocation
	if req.HasUserLocation() {
		userLoc = &types.UserLocation{Lat: *req.UserLat, Lon: *req.UserLon}
	}

	in := s.classifier.Classify(ctx, req.Message)
	span.SetAttributes(attribute.String("query_type", string(in.QueryType)))
	l.InfoContext(ctx, "Query classified",
		slog.String("query_type", string(in.QueryType)),
		slog.Any("keywords", in.Keywords),
		slog.String("location", in.Location()),
		slog.Bool("needs_semantic", in.NeedsSemanticSearch))

	resp, err := s.safely(func() (*types.ChatResponse, error) {
		switch in.QueryType {
		case types.QueryTypeGeneral:
			return s.answerGeneral(ctx, req.Message), nil
		case types.QueryTypeItinerary:
			return s.planItinerary(ctx, req, in), nil
		default:
			return s.recommend(ctx, req, in)
		}
	})
	if err != nil {
		l.ErrorContext(ctx, "Chat pipeline failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Pipeline failed")
		resp = &types.ChatResponse{
			Answer:    ApologyAnswer,
			Places:    []types.PlaceInfo{},
			QueryType: string(in.QueryType),
		}
	} else {
		span.SetStatus(codes.Ok, "Chat answered")
	}
	resp.UserLocation = userLoc

	m := metrics.Get()
	attrs := metric.WithAttributes(attribute.String("query_type", resp.QueryType))
	m.ChatRequestsTotal.Add(ctx, 1, attrs)
	m.ChatDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	return resp
}

func (s *ServiceImpl) safely(fn func() (*types.ChatResponse, error)) (resp *types.ChatResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered from panic in chat pipeline",
				slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
			resp, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func (s *ServiceImpl) answerGeneral(ctx context.Context, message string) *types.ChatResponse {
	prompt := fmt.Sprintf(`
Bạn là trợ lý du lịch thông minh của VietSpot. Hãy trả lời câu hỏi sau một cách thân thiện và hữu ích:

Câu hỏi: %s

Trả lời bằng tiếng Việt, ngắn gọn và dễ hiểu.
`, message)

	answer, err := s.grounded.GenerateGrounded(ctx, prompt)
	if err != nil || strings.TrimSpace(answer) == "" {
		s.logger.WarnContext(ctx, "Grounded answer failed", slog.Any("error", err))
		answer = GeneralFailureAnswer
	}
	return &types.ChatResponse{
		Answer:    answer,
		Places:    []types.PlaceInfo{},
		QueryType: string(types.QueryTypeGeneral),
	}
}

func (s *ServiceImpl) planItinerary(ctx context.Context, req types.ChatRequest, in types.Intent) *types.ChatResponse {
	destination := in.LocationMentioned
	if destination == "" {
		destination = in.City
	}
	if destination == "" {
		destination = s.cfg.DefaultDestination
	}
	days := 1
	if in.NumDays != nil {
		days = *in.NumDays
	}
	days = max(itinerary.MinDays, min(itinerary.MaxDays, days))

	itReq := types.ItineraryRequest{
		Destination: destination,
		NumDays:     days,
		Preferences: in.Keywords,
		Budget:      in.PriceRange,
		MaxBudget:   in.BudgetAmount,
	}
	if req.HasUserLocation() {
		itReq.UserLat, itReq.UserLon = req.UserLat, req.UserLon
	}

	plan := s.planner.Generate(ctx, itReq)
	places := itineraryPlaces(plan)
	return &types.ChatResponse{
		Answer:      formatItineraryAnswer(plan, destination, days),
		Places:      places,
		QueryType:   queryTypeItinerary,
		TotalPlaces: len(places),
		Itinerary:   plan,
	}
}

func (s *ServiceImpl) recommend(ctx context.Context, req types.ChatRequest, in types.Intent) (*types.ChatResponse, error) {
	l := s.logger.With(slog.String("method", "recommend"))
	hasLoc := req.HasUserLocation()

	candidates, err := s.retrieve(ctx, req, in)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &types.ChatResponse{
			Answer:    NoResultsAnswer,
			Places:    []types.PlaceInfo{},
			QueryType: string(in.QueryType),
		}, nil
	}
	poolSize := len(candidates)

	if in.NeedsSemanticSearch {
		topN := s.cfg.TopNSemanticResults
		if in.NumberOfPlaces != nil {
			topN = max(*in.NumberOfPlaces*2, topN)
		}
		query := semanticQuery(in, req.Message)
		l.DebugContext(ctx, "Semantic ranking", slog.String("query", query), slog.Int("top_n", topN))
		candidates = s.ranker.RankByQuery(ctx, query, candidates, topN)
		candidates = filterByAddress(candidates, in.LocationMentioned)
	}

	var w *types.Weather
	switch {
	case hasLoc:
		w = s.weather.ByCoords(ctx, *req.UserLat, *req.UserLon)
	case in.LocationMentioned != "":
		w = s.weather.ByCity(ctx, in.LocationMentioned)
	case in.City != "":
		w = s.weather.ByCity(ctx, in.City)
	}

	if hasLoc {
		candidates = scoring.AttachDistances(candidates, *req.UserLat, *req.UserLon)
	}
	requested := s.cfg.TopKFinalResults
	if in.NumberOfPlaces != nil && *in.NumberOfPlaces > 0 {
		requested = *in.NumberOfPlaces
	}
	ranked := s.scorer.Rank(candidates, hasLoc, requested*max(1, s.cfg.OversampleFactor))

	selected, answer := s.composer.SelectAndRespond(ctx, req.Message, ranked, requested, w, in.OriginalLanguage)
	s.attachImages(ctx, selected)

	places := make([]types.PlaceInfo, 0, len(selected))
	ids := make([]string, 0, len(selected))
	for _, c := range selected {
		places = append(places, types.NewPlaceInfo(c, w))
		ids = append(ids, c.ID)
	}

	s.events.SearchCompleted(ctx, events.SearchCompleted{
		SessionID:   req.SessionID,
		Query:       req.Message,
		QueryType:   string(in.QueryType),
		Location:    in.Location(),
		Candidates:  poolSize,
		Returned:    len(places),
		PlaceIDs:    ids,
		HasLocation: hasLoc,
	})

	return &types.ChatResponse{
		Answer:      answer,
		Places:      places,
		QueryType:   string(in.QueryType),
		TotalPlaces: len(places),
	}, nil
}

// retrieve picks the candidate pool for the intent. A failed or empty
// targeted search falls back to the general pool.
func (s *ServiceImpl) retrieve(ctx context.Context, req types.ChatRequest, in types.Intent) ([]types.Candidate, error) {
	l := s.logger.With(slog.String("method", "retrieve"))

	var candidates []types.Candidate
	switch {
	case in.QueryType == types.QueryTypeNearby && req.HasUserLocation():
		radius := s.cfg.DefaultNearbyRadiusKm
		if in.RadiusKm != nil && *in.RadiusKm > 0 {
			radius = *in.RadiusKm
		}
		found, err := s.places.SearchNearby(ctx, *req.UserLat, *req.UserLon, radius, s.cfg.NearbyLimit)
		if err != nil {
			l.WarnContext(ctx, "Nearby search failed", slog.Any("error", err))
		}
		candidates = filterByRating(found, in.MinRating, in.MaxRating)

	case in.QueryType == types.QueryTypeSpecific:
		terms := append(append([]string{}, in.Keywords...), in.KeywordVariants...)
		found, err := s.places.SearchByKeywords(ctx, types.KeywordQuery{
			Terms:     terms,
			Location:  in.LocationMentioned,
			Category:  in.Category,
			MinRating: in.MinRating,
			MaxRating: in.MaxRating,
		})
		if err != nil {
			l.WarnContext(ctx, "Keyword search failed", slog.Any("error", err))
		}
		candidates = found
	}

	if len(candidates) > 0 {
		return candidates, nil
	}

	l.DebugContext(ctx, "Targeted search empty, loading general pool")
	all, err := s.places.GetAll(ctx, s.cfg.CandidatePoolLimit)
	if err != nil {
		return nil, fmt.Errorf("load candidate pool: %w", err)
	}
	return all, nil
}

// attachImages loads up to MaxImagesPerPlace images per selected place with
// bounded concurrency. A failed lookup leaves that place without images.
func (s *ServiceImpl) attachImages(ctx context.Context, selected []types.Candidate) {
	if len(selected) == 0 || s.cfg.MaxImagesPerPlace <= 0 {
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.cfg.ImageFetchConcurrency))
	for i := range selected {
		g.Go(func() error {
			urls, err := s.places.ImagesForPlace(gctx, selected[i].ID, s.cfg.MaxImagesPerPlace)
			if err != nil {
				s.logger.WarnContext(gctx, "Failed to load images", slog.String("place_id", selected[i].ID), slog.Any("error", err))
				return nil
			}
			selected[i].Images = urls
			return nil
		})
	}
	_ = g.Wait()
}
