// Package events publishes search analytics. Publishing is fire-and-forget:
// a broker outage never affects a chat response.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultSubject = "vietspot.search.completed"

// SearchCompleted describes one finished chat search.
type SearchCompleted struct {
	SessionID   string    `json:"session_id,omitempty"`
	Query       string    `json:"query"`
	QueryType   string    `json:"query_type"`
	Location    string    `json:"location,omitempty"`
	Candidates  int       `json:"candidates"`
	Returned    int       `json:"returned"`
	PlaceIDs    []string  `json:"place_ids"`
	HasLocation bool      `json:"has_user_location"`
	DurationMs  int64     `json:"duration_ms"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type Publisher interface {
	SearchCompleted(ctx context.Context, evt SearchCompleted)
}

// Connector is the slice of *nats.Conn the publisher needs.
type Connector interface {
	Publish(subject string, data []byte) error
}

var (
	_ Publisher = (*NATSPublisher)(nil)
	_ Publisher = NopPublisher{}
	_ Connector = (*nats.Conn)(nil)
)

type NATSPublisher struct {
	conn    Connector
	subject string
	logger  *slog.Logger
}

func NewNATSPublisher(conn Connector, subject string, logger *slog.Logger) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{conn: conn, subject: subject, logger: logger}
}

func (p *NATSPublisher) SearchCompleted(ctx context.Context, evt SearchCompleted) {
	_, span := otel.Tracer("EventPublisher").Start(ctx, "SearchCompleted")
	defer span.End()
	span.SetAttributes(attribute.String("subject", p.subject), attribute.String("query_type", evt.QueryType))

	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	if evt.PlaceIDs == nil {
		evt.PlaceIDs = []string{}
	}
	data, err := json.Marshal(evt)
	if err != nil {
		span.RecordError(err)
		p.logger.WarnContext(ctx, "Failed to encode search event", slog.Any("error", err))
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		span.RecordError(err)
		p.logger.WarnContext(ctx, "Failed to publish search event", slog.String("subject", p.subject), slog.Any("error", err))
	}
}

// NopPublisher drops every event. Used when NATS is disabled.
type NopPublisher struct{}

func (NopPublisher) SearchCompleted(context.Context, SearchCompleted) {}

// Connect dials NATS with reconnect handlers that log through logger.
func Connect(url string, maxReconnects int, reconnectWait time.Duration, logger *slog.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("vietspot-api"),
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", slog.Any("error", err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}
	return nc, nil
}
