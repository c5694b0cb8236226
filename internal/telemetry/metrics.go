package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute keys shared by the ticket metrics.
const (
	CategoryKey = attribute.Key("ticket.category")
	StatusKey   = attribute.Key("ticket.status")
)

// TicketMetrics counts the interesting edges of the submission pipeline.
// Wired to whatever meter provider the host process installs; with none
// installed the calls are no-ops.
type TicketMetrics struct {
	TicketsCreated     metric.Int64Counter
	TicketsClosed      metric.Int64Counter
	MessagesAppended   metric.Int64Counter
	ValidationFailures metric.Int64Counter
	CacheInvalidations metric.Int64Counter
}

func NewTicketMetrics() (*TicketMetrics, error) {
	meter := otel.Meter("ticketforge")
	m := &TicketMetrics{}
	var err error

	m.TicketsCreated, err = meter.Int64Counter("tickets.created.total",
		metric.WithDescription("Tickets created"),
		metric.WithUnit("{tickets}"),
	)
	if err != nil {
		return nil, err
	}
	m.TicketsClosed, err = meter.Int64Counter("tickets.closed.total",
		metric.WithDescription("Tickets closed"),
		metric.WithUnit("{tickets}"),
	)
	if err != nil {
		return nil, err
	}
	m.MessagesAppended, err = meter.Int64Counter("tickets.messages.total",
		metric.WithDescription("Messages appended to tickets"),
		metric.WithUnit("{messages}"),
	)
	if err != nil {
		return nil, err
	}
	m.ValidationFailures, err = meter.Int64Counter("tickets.validation_failures.total",
		metric.WithDescription("Submissions rejected by field validation"),
		metric.WithUnit("{submissions}"),
	)
	if err != nil {
		return nil, err
	}
	m.CacheInvalidations, err = meter.Int64Counter("tickets.cache_invalidations.total",
		metric.WithDescription("Category cache buckets dropped after schema mutations"),
		metric.WithUnit("{invalidations}"),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *TicketMetrics) Created(ctx context.Context, category string) {
	m.TicketsCreated.Add(ctx, 1, metric.WithAttributes(CategoryKey.String(category)))
}

func (m *TicketMetrics) Closed(ctx context.Context, category string) {
	m.TicketsClosed.Add(ctx, 1, metric.WithAttributes(CategoryKey.String(category)))
}

func (m *TicketMetrics) Message(ctx context.Context) {
	m.MessagesAppended.Add(ctx, 1)
}

func (m *TicketMetrics) ValidationFailed(ctx context.Context, category string) {
	m.ValidationFailures.Add(ctx, 1, metric.WithAttributes(CategoryKey.String(category)))
}

func (m *TicketMetrics) CacheInvalidated(ctx context.Context) {
	m.CacheInvalidations.Add(ctx, 1)
}
