package generativeAI

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-vietspot-suggestions/app/observability/metrics"
)

// maxEmbedBatch is the number of texts sent per EmbedContent call.
const maxEmbedBatch = 100

// EmbedText embeds a search query.
func (ai *AIClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := ai.embed(ctx, []string{text}, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds place documents, chunked to the API batch limit. The
// result is index-aligned with texts.
func (ai *AIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxEmbedBatch {
		end := min(start+maxEmbedBatch, len(texts))
		vectors, err := ai.embed(ctx, texts[start:end], "RETRIEVAL_DOCUMENT")
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (ai *AIClient) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "Embed", trace.WithAttributes(
		attribute.Int("texts.count", len(texts)),
		attribute.String("model", ai.embeddingModel),
		attribute.String("task_type", taskType),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, ai.timeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}

	start := time.Now()
	resp, err := ai.client.Models.EmbedContent(ctx, ai.embeddingModel, contents, &genai.EmbedContentConfig{
		TaskType: taskType,
	})
	metrics.Get().LLMCallDurationSeconds.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("operation", "Embed")))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to embed content")
		ai.logger.WarnContext(ctx, "Embedding call failed", slog.Int("texts", len(texts)), slog.Any("error", err))
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		err = fmt.Errorf("embedding count mismatch: got %d, want %d", len(resp.Embeddings), len(texts))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Embedding count mismatch")
		return nil, err
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e != nil {
			vectors[i] = e.Values
		}
	}
	span.SetStatus(codes.Ok, "Embeddings generated")
	return vectors, nil
}
