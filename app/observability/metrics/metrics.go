package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	ChatRequestsTotal      metric.Int64Counter
	ChatDurationSeconds    metric.Float64Histogram
	LLMCallDurationSeconds metric.Float64Histogram
	LLMFallbacksTotal      metric.Int64Counter
	EmbeddingCacheHits     metric.Int64Counter
	DbQueryDurationSeconds metric.Float64Histogram
	DbQueryErrorsTotal     metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider, so it must run
// after the tracer package installed the prometheus exporter. Before that the
// instruments are bound to otel's no-op provider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("VietSpot")
		var err error
		m := &AppMetrics{}

		m.ChatRequestsTotal, err = meter.Int64Counter(
			"chat_requests_total",
			metric.WithDescription("Total number of chat requests by resolved query type"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create chat_requests_total: %v", err)
		}

		m.ChatDurationSeconds, err = meter.Float64Histogram(
			"chat_pipeline_duration_seconds",
			metric.WithDescription("End-to-end duration of the recommendation pipeline"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create chat_pipeline_duration_seconds: %v", err)
		}

		m.LLMCallDurationSeconds, err = meter.Float64Histogram(
			"llm_call_duration_seconds",
			metric.WithDescription("Duration of generator and embedding calls"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create llm_call_duration_seconds: %v", err)
		}

		m.LLMFallbacksTotal, err = meter.Int64Counter(
			"llm_fallbacks_total",
			metric.WithDescription("Times a component used its deterministic fallback"),
			metric.WithUnit("{fallback}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create llm_fallbacks_total: %v", err)
		}

		m.EmbeddingCacheHits, err = meter.Int64Counter(
			"embedding_cache_hits_total",
			metric.WithDescription("Candidate-set embedding cache hits"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create embedding_cache_hits_total: %v", err)
		}

		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		m.DbQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the global AppMetrics, initializing it on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}
