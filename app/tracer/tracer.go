package tracer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/FACorreiaa/go-vietspot-suggestions/app/observability/metrics"
)

const ServiceName = "vietspot-api"

// Providers holds the installed otel providers so they can be flushed on
// shutdown.
type Providers struct {
	tp *trace.TracerProvider
	mp *metric.MeterProvider
}

// InitTracingAndMetrics installs the global TracerProvider and a MeterProvider
// backed by the prometheus exporter, then creates the app instruments.
func InitTracingAndMetrics(version string) (*Providers, error) {
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(ServiceName),
		semconv.ServiceVersionKey.String(version),
	)

	tp := trace.NewTracerProvider(trace.WithResource(res))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
	otel.SetMeterProvider(mp)

	metrics.InitAppMetrics()
	return &Providers{tp: tp, mp: mp}, nil
}

// Shutdown flushes both providers.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return errors.Join(p.tp.Shutdown(ctx), p.mp.Shutdown(ctx))
}

// ServeMetrics exposes /metrics on its own port until ctx ends.
func ServeMetrics(ctx context.Context, port string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Serving prometheus metrics", slog.String("address", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Metrics server failed", slog.Any("error", err))
	}
}
