package generativeAI

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-vietspot-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-vietspot-suggestions/config"
)

// TextGenerator produces free text or JSON-bearing text from a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateStructured(ctx context.Context, prompt string) (string, error)
}

// GroundedGenerator answers general questions with web search grounding.
type GroundedGenerator interface {
	GenerateGrounded(ctx context.Context, prompt string) (string, error)
}

// Embedder maps text into a fixed-length vector space.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

var (
	_ TextGenerator     = (*AIClient)(nil)
	_ GroundedGenerator = (*AIClient)(nil)
	_ Embedder          = (*AIClient)(nil)
)

var ErrEmptyResponse = errors.New("generator returned an empty response")

type AIClient struct {
	client         *genai.Client
	model          string
	embeddingModel string
	temperature    float32
	timeout        time.Duration
	logger         *slog.Logger
}

func NewAIClient(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (*AIClient, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "NewAIClient")
	defer span.End()

	apiKey := os.Getenv("GOOGLE_GEMINI_API_KEY")
	if apiKey == "" {
		err := fmt.Errorf("GOOGLE_GEMINI_API_KEY environment variable is not set")
		span.RecordError(err)
		span.SetStatus(codes.Error, "API key not set")
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create Gemini client")
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	span.SetStatus(codes.Ok, "AI client created successfully")
	return &AIClient{
		client:         client,
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		temperature:    cfg.Temperature,
		timeout:        cfg.Timeout,
		logger:         logger,
	}, nil
}

// GenerateText sends a single-turn prompt and returns the response text.
func (ai *AIClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	return ai.generate(ctx, "GenerateText", prompt, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(ai.temperature),
	})
}

// GenerateStructured asks the model for a JSON response body.
func (ai *AIClient) GenerateStructured(ctx context.Context, prompt string) (string, error) {
	return ai.generate(ctx, "GenerateStructured", prompt, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(ai.temperature),
		ResponseMIMEType: "application/json",
	})
}

// GenerateGrounded enables the Google Search tool for open-domain questions.
func (ai *AIClient) GenerateGrounded(ctx context.Context, prompt string) (string, error) {
	return ai.generate(ctx, "GenerateGrounded", prompt, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(ai.temperature),
		Tools:       []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
}

func (ai *AIClient) generate(ctx context.Context, op, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, op, trace.WithAttributes(
		attribute.Int("prompt.length", len(prompt)),
		attribute.String("model", ai.model),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, ai.timeout)
	defer cancel()

	start := time.Now()
	result, err := ai.client.Models.GenerateContent(ctx, ai.model, genai.Text(prompt), cfg)
	metrics.Get().LLMCallDurationSeconds.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("operation", op)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to generate content")
		ai.logger.WarnContext(ctx, "Generator call failed", slog.String("operation", op), slog.Any("error", err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	text := result.Text()
	if text == "" {
		span.SetStatus(codes.Error, "Empty response")
		return "", fmt.Errorf("%s: %w", op, ErrEmptyResponse)
	}
	span.SetAttributes(attribute.Int("response.length", len(text)))
	span.SetStatus(codes.Ok, "Content generated successfully")
	return text, nil
}
