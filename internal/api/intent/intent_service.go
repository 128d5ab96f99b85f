package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-vietspot-suggestions/app/observability/metrics"
	generativeAI "github.com/FACorreiaa/go-vietspot-suggestions/internal/api/generative_ai"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/jsonextract"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/types"
)

type Service interface {
	Classify(ctx context.Context, utterance string) types.Intent
}

var _ Service = (*ServiceImpl)(nil)

type ServiceImpl struct {
	logger    *slog.Logger
	generator generativeAI.TextGenerator
}

func NewService(generator generativeAI.TextGenerator, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		generator: generator,
	}
}

var queryTypeAliases = map[string]types.QueryType{
	"general":           types.QueryTypeGeneral,
	"general_query":     types.QueryTypeGeneral,
	"nearby":            types.QueryTypeNearby,
	"nearby_search":     types.QueryTypeNearby,
	"specific":          types.QueryTypeSpecific,
	"specific_search":   types.QueryTypeSpecific,
	"itinerary":         types.QueryTypeItinerary,
	"itinerary_request": types.QueryTypeItinerary,
}

// Classify never fails: a generator error or unreadable output yields the
// fallback intent, a specific search over the raw utterance.
func (s *ServiceImpl) Classify(ctx context.Context, utterance string) types.Intent {
	ctx, span := otel.Tracer("IntentService").Start(ctx, "Classify", trace.WithAttributes(
		attribute.Int("utterance.length", len(utterance)),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Classify"))

	if strings.TrimSpace(utterance) == "" {
		span.SetAttributes(attribute.String("query_type", string(types.QueryTypeGeneral)))
		return types.Intent{QueryType: types.QueryTypeGeneral, Keywords: []string{}}
	}

	text, err := s.generator.GenerateText(ctx, classificationPrompt(utterance))
	if err != nil {
		l.WarnContext(ctx, "Intent generator failed, using fallback", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Generator failed")
		return s.fallback(ctx, utterance)
	}

	intent, err := parseIntent(text)
	if err != nil {
		l.WarnContext(ctx, "Unreadable intent output, using fallback",
			slog.Any("error", err),
			slog.String("raw", truncate(text, 300)))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Parse failed")
		return s.fallback(ctx, utterance)
	}

	l.DebugContext(ctx, "Intent classified",
		slog.String("query_type", string(intent.QueryType)),
		slog.Any("keywords", intent.Keywords),
		slog.String("location", intent.Location()),
		slog.Bool("needs_semantic", intent.NeedsSemanticSearch))
	span.SetAttributes(attribute.String("query_type", string(intent.QueryType)))
	span.SetStatus(codes.Ok, "Intent classified")
	return intent
}

// Fallback is the intent used whenever classification cannot complete.
func Fallback(utterance string) types.Intent {
	return types.Intent{
		QueryType:           types.QueryTypeSpecific,
		Keywords:            []string{},
		NeedsSemanticSearch: true,
		VietnameseQuery:     utterance,
		CorrectedQuery:      utterance,
	}
}

func (s *ServiceImpl) fallback(ctx context.Context, utterance string) types.Intent {
	metrics.Get().LLMFallbacksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("component", "intent")))
	return Fallback(utterance)
}

type rawIntent struct {
	QueryType           string      `json:"query_type"`
	Keywords            []string    `json:"keywords"`
	KeywordVariants     []string    `json:"keyword_variants"`
	LocationMentioned   *string     `json:"location_mentioned"`
	City                *string     `json:"city"`
	District            *string     `json:"district"`
	MinRating           looseNumber `json:"min_rating"`
	MaxRating           looseNumber `json:"max_rating"`
	PriceRange          *string     `json:"price_range"`
	Category            *string     `json:"category"`
	RadiusKm            looseNumber `json:"radius_km"`
	NumberOfPlaces      looseNumber `json:"number_of_places"`
	NumDays             looseNumber `json:"num_days"`
	BudgetAmount        looseNumber `json:"budget_amount"`
	NeedsSemanticSearch *bool       `json:"needs_semantic_search"`
	VietnameseQuery     string      `json:"vietnamese_query"`
	CorrectedQuery      string      `json:"corrected_query"`
	OriginalLanguage    *string     `json:"original_language"`
}

func parseIntent(text string) (types.Intent, error) {
	var raw rawIntent
	if _, err := jsonextract.Decode(text, &raw, jsonextract.ClassifierStrategies...); err != nil {
		return types.Intent{}, err
	}

	qt, ok := queryTypeAliases[strings.ToLower(strings.TrimSpace(raw.QueryType))]
	if !ok {
		return types.Intent{}, fmt.Errorf("unknown query_type %q", raw.QueryType)
	}

	intent := types.Intent{
		QueryType:           qt,
		Keywords:            cleanList(raw.Keywords),
		KeywordVariants:     cleanList(raw.KeywordVariants),
		LocationMentioned:   deref(raw.LocationMentioned),
		City:                deref(raw.City),
		District:            deref(raw.District),
		MinRating:           raw.MinRating.rating(),
		MaxRating:           raw.MaxRating.rating(),
		PriceRange:          deref(raw.PriceRange),
		Category:            deref(raw.Category),
		RadiusKm:            raw.RadiusKm.positive(),
		NumberOfPlaces:      raw.NumberOfPlaces.count(),
		NumDays:             raw.NumDays.count(),
		BudgetAmount:        raw.BudgetAmount.count(),
		NeedsSemanticSearch: raw.NeedsSemanticSearch != nil && *raw.NeedsSemanticSearch,
		VietnameseQuery:     strings.TrimSpace(raw.VietnameseQuery),
		CorrectedQuery:      strings.TrimSpace(raw.CorrectedQuery),
		OriginalLanguage:    strings.ToLower(deref(raw.OriginalLanguage)),
	}
	if intent.MinRating != nil && intent.MaxRating != nil && *intent.MinRating > *intent.MaxRating {
		intent.MinRating, intent.MaxRating = intent.MaxRating, intent.MinRating
	}
	return intent, nil
}

// looseNumber accepts a JSON number, a numeric string or null.
type looseNumber struct {
	value *float64
}

func (n *looseNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			// Free text such as "không rõ" carries no number.
			return nil
		}
		n.value = &v
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.value = &v
	return nil
}

func (n looseNumber) valid() bool {
	return n.value != nil && !math.IsNaN(*n.value) && !math.IsInf(*n.value, 0)
}

func (n looseNumber) rating() *float64 {
	if !n.valid() {
		return nil
	}
	v := math.Min(math.Max(*n.value, 0), 5)
	return &v
}

func (n looseNumber) positive() *float64 {
	if !n.valid() || *n.value <= 0 {
		return nil
	}
	v := *n.value
	return &v
}

func (n looseNumber) count() *int {
	if !n.valid() || *n.value < 1 {
		return nil
	}
	v := int(math.Round(*n.value))
	return &v
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	v := strings.TrimSpace(*s)
	if strings.EqualFold(v, "null") || strings.EqualFold(v, "none") {
		return ""
	}
	return v
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
