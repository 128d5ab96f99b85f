package semantic

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-vietspot-suggestions/app/observability/metrics"
	generativeAI "github.com/FACorreiaa/go-vietspot-suggestions/internal/api/generative_ai"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/types"
)

type Service interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Rank(ctx context.Context, queryVec []float32, candidates []types.Candidate, topK int, includeUnscored bool) []types.Candidate
	RankByQuery(ctx context.Context, query string, candidates []types.Candidate, topK int) []types.Candidate
}

var _ Service = (*ServiceImpl)(nil)

type ServiceImpl struct {
	logger   *slog.Logger
	embedder generativeAI.Embedder
	cache    *cache.Cache
}

func NewService(embedder generativeAI.Embedder, ttl time.Duration, logger *slog.Logger) *ServiceImpl {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ServiceImpl{
		logger:   logger,
		embedder: embedder,
		cache:    cache.New(ttl, 2*ttl),
	}
}

func (s *ServiceImpl) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.embedder.EmbedText(ctx, text)
}

// RankByQuery embeds query and ranks candidates against it. Any embedding
// failure leaves the input order untouched, truncated to topK.
func (s *ServiceImpl) RankByQuery(ctx context.Context, query string, candidates []types.Candidate, topK int) []types.Candidate {
	ctx, span := otel.Tracer("SemanticService").Start(ctx, "RankByQuery", trace.WithAttributes(
		attribute.String("query", query),
		attribute.Int("candidates.count", len(candidates)),
		attribute.Int("top_k", topK),
	))
	defer span.End()

	if len(candidates) == 0 {
		return nil
	}
	vec, err := s.Embed(ctx, query)
	if err != nil || len(vec) == 0 {
		s.logger.WarnContext(ctx, "Query embedding failed, keeping input order", slog.Any("error", err))
		span.SetStatus(codes.Error, "Query embedding failed")
		metrics.Get().LLMFallbacksTotal.Add(ctx, 1)
		return truncate(candidates, topK)
	}
	return s.Rank(ctx, vec, candidates, topK, false)
}

// Rank orders candidates by cosine similarity to queryVec. Candidates with no
// descriptive text are dropped, or appended unscored when includeUnscored is
// set.
func (s *ServiceImpl) Rank(ctx context.Context, queryVec []float32, candidates []types.Candidate, topK int, includeUnscored bool) []types.Candidate {
	l := s.logger.With(slog.String("method", "Rank"))

	var scored, unscored []types.Candidate
	var texts, ids []string
	for _, c := range candidates {
		text := documentText(c.Place)
		if text == "" {
			unscored = append(unscored, c)
			continue
		}
		scored = append(scored, c)
		texts = append(texts, text)
		ids = append(ids, c.ID)
	}
	if len(scored) == 0 {
		if includeUnscored {
			return truncate(unscored, topK)
		}
		return nil
	}

	vectors, err := s.documentVectors(ctx, ids, texts)
	if err != nil {
		l.WarnContext(ctx, "Document embedding failed, keeping input order", slog.Any("error", err))
		metrics.Get().LLMFallbacksTotal.Add(ctx, 1)
		return truncate(candidates, topK)
	}

	out := make([]types.Candidate, len(scored), len(scored)+len(unscored))
	for i, c := range scored {
		sim := clamp01(Cosine(queryVec, vectors[i]))
		c.SemanticScore = &sim
		out[i] = c
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].SemanticScore > *out[j].SemanticScore
	})
	if includeUnscored {
		out = append(out, unscored...)
	}

	l.DebugContext(ctx, "Semantic ranking complete",
		slog.Int("scored", len(scored)),
		slog.Int("unscored", len(unscored)))
	return truncate(out, topK)
}

func (s *ServiceImpl) documentVectors(ctx context.Context, ids, texts []string) ([][]float32, error) {
	key := fingerprint(ids, texts)
	if v, ok := s.cache.Get(key); ok {
		metrics.Get().EmbeddingCacheHits.Add(ctx, 1)
		return v.([][]float32), nil
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(texts))
	}
	s.cache.SetDefault(key, vectors)
	return vectors, nil
}

func documentText(p types.Place) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Name, p.About, p.Category} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// fingerprint identifies an ordered candidate set.
func fingerprint(ids, texts []string) string {
	h := sha256.New()
	for i := range ids {
		h.Write([]byte(ids[i]))
		h.Write([]byte{0})
		h.Write([]byte(texts[i]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Cosine returns the cosine similarity of a and b, or 0 when either is empty,
// zero or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncate(c []types.Candidate, topK int) []types.Candidate {
	if topK > 0 && len(c) > topK {
		return c[:topK]
	}
	return c
}
