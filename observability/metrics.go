package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics holds the instruments recorded by the orchestrators.
type PipelineMetrics struct {
	received         metric.Int64Counter
	dropped          metric.Int64Counter
	delivered        metric.Int64Counter
	failures         metric.Int64Counter
	retries          metric.Int64Counter
	deliveryDuration metric.Float64Histogram
}

// NewPipelineMetrics creates metric instruments on the given meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	received, err := meter.Int64Counter("fluxmux.messages.received",
		metric.WithDescription("Messages pulled from the source channel"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fluxmux.messages.received counter: %w", err)
	}

	dropped, err := meter.Int64Counter("fluxmux.messages.dropped",
		metric.WithDescription("Messages dropped or held by a stage"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fluxmux.messages.dropped counter: %w", err)
	}

	delivered, err := meter.Int64Counter("fluxmux.messages.delivered",
		metric.WithDescription("Messages accepted by a sink"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fluxmux.messages.delivered counter: %w", err)
	}

	failures, err := meter.Int64Counter("fluxmux.delivery.failures",
		metric.WithDescription("Messages a sink did not accept"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fluxmux.delivery.failures counter: %w", err)
	}

	retries, err := meter.Int64Counter("fluxmux.delivery.retries",
		metric.WithDescription("Delivery attempts after the first"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fluxmux.delivery.retries counter: %w", err)
	}

	deliveryDuration, err := meter.Float64Histogram("fluxmux.delivery.duration",
		metric.WithDescription("Time spent delivering one message, retries included"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fluxmux.delivery.duration histogram: %w", err)
	}

	return &PipelineMetrics{
		received:         received,
		dropped:          dropped,
		delivered:        delivered,
		failures:         failures,
		retries:          retries,
		deliveryDuration: deliveryDuration,
	}, nil
}

// RecordReceived counts a message pulled from the source.
func (m *PipelineMetrics) RecordReceived(ctx context.Context) {
	if m == nil {
		return
	}
	m.received.Add(ctx, 1)
}

// RecordDropped counts a message that stopped at stage.
func (m *PipelineMetrics) RecordDropped(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordDelivered counts a message accepted by sink.
func (m *PipelineMetrics) RecordDelivered(ctx context.Context, sink string) {
	if m == nil {
		return
	}
	m.delivered.Add(ctx, 1, metric.WithAttributes(attribute.String("sink", sink)))
}

// RecordFailure counts a message sink gave up on.
func (m *PipelineMetrics) RecordFailure(ctx context.Context, sink string) {
	if m == nil {
		return
	}
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("sink", sink)))
}

// RecordRetry counts one retried delivery attempt.
func (m *PipelineMetrics) RecordRetry(ctx context.Context, sink string) {
	if m == nil {
		return
	}
	m.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("sink", sink)))
}

// RecordDeliveryDuration records how long delivering one message took.
func (m *PipelineMetrics) RecordDeliveryDuration(ctx context.Context, sink string, d time.Duration) {
	if m == nil {
		return
	}
	m.deliveryDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("sink", sink)))
}
