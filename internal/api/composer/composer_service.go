package composer

import (
	"context"
	"log/slog"
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

const (
	NotFoundAnswer = "Xin lỗi, tôi không tìm thấy địa điểm nào phù hợp với yêu cầu của bạn."
	GenericAnswer  = "Dưới đây là các địa điểm gợi ý cho bạn."
)

type Service interface {
	SelectAndRespond(ctx context.Context, utterance string, candidates []types.Candidate, maxPlaces int, weather *types.Weather, language string) ([]types.Candidate, string)
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

type selection struct {
	SelectedIndices []any  `json:"selected_indices"`
	Answer          string `json:"answer"`
}

// SelectAndRespond asks the generator to pick at most maxPlaces candidates and
// write the answer in one call. The selection is never empty when candidates
// is not.
func (s *ServiceImpl) SelectAndRespond(ctx context.Context, utterance string, candidates []types.Candidate, maxPlaces int, weather *types.Weather, language string) ([]types.Candidate, string) {
	ctx, span := otel.Tracer("ComposerService").Start(ctx, "SelectAndRespond", trace.WithAttributes(
		attribute.Int("candidates.count", len(candidates)),
		attribute.Int("max_places", maxPlaces),
		attribute.String("language", language),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "SelectAndRespond"))

	if len(candidates) == 0 {
		return nil, NotFoundAnswer
	}
	if maxPlaces <= 0 {
		maxPlaces = 5
	}

	prompt, err := selectionPrompt(utterance, candidates, maxPlaces, weather, language)
	if err != nil {
		span.RecordError(err)
		return s.fallback(ctx, candidates, maxPlaces, ""), GenericAnswer
	}

	text, err := s.generator.GenerateText(ctx, prompt)
	if err != nil {
		l.WarnContext(ctx, "Composer generator failed, using top candidates", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Generator failed")
		return s.fallback(ctx, candidates, maxPlaces, "generator"), GenericAnswer
	}

	var sel selection
	if _, err := jsonextract.Decode(text, &sel, jsonextract.ClassifierStrategies...); err != nil {
		l.WarnContext(ctx, "Unreadable composer output, using top candidates", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Parse failed")
		return s.fallback(ctx, candidates, maxPlaces, "parse"), GenericAnswer
	}

	answer := strings.TrimSpace(sel.Answer)
	if answer == "" {
		answer = GenericAnswer
	}

	selected := pick(candidates, sel.SelectedIndices, maxPlaces)
	if len(selected) == 0 {
		l.InfoContext(ctx, "Empty selection, using top candidates")
		return s.fallback(ctx, candidates, maxPlaces, "empty_selection"), answer
	}

	l.DebugContext(ctx, "Places selected", slog.Int("selected", len(selected)))
	span.SetAttributes(attribute.Int("selected.count", len(selected)))
	span.SetStatus(codes.Ok, "Places selected")
	return selected, answer
}

// pick resolves generator indices against candidates, dropping out-of-range,
// non-integer and repeated ones.
func pick(candidates []types.Candidate, indices []any, maxPlaces int) []types.Candidate {
	seen := make(map[int]struct{}, len(indices))
	out := make([]types.Candidate, 0, min(maxPlaces, len(indices)))
	for _, raw := range indices {
		f, ok := raw.(float64)
		if !ok || f != float64(int(f)) {
			continue
		}
		idx := int(f)
		if idx < 0 || idx >= len(candidates) {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, candidates[idx])
		if len(out) == maxPlaces {
			break
		}
	}
	return out
}

func (s *ServiceImpl) fallback(ctx context.Context, candidates []types.Candidate, maxPlaces int, reason string) []types.Candidate {
	if reason != "" {
		metrics.Get().LLMFallbacksTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("component", "composer"),
			attribute.String("reason", reason)))
	}
	n := min(maxPlaces, len(candidates))
	out := make([]types.Candidate, n)
	copy(out, candidates[:n])
	return out
}
