package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	MetricWritesAccepted   = "tracefwd.writes.accepted"
	MetricEnvelopesDropped = "tracefwd.envelopes.dropped"
	MetricEnvelopesSent    = "tracefwd.envelopes.sent"
	MetricBytesSent        = "tracefwd.bytes.sent"
	MetricSendFailures     = "tracefwd.send.failures"
	MetricErrors           = "tracefwd.errors"
	MetricSendLatency      = "tracefwd.send.duration"
)

// OTelPublisher records pipeline events on OpenTelemetry instruments.
// Instruments are created once; Publish never blocks.
type OTelPublisher struct {
	writes    metric.Int64Counter
	dropped   metric.Int64Counter
	sent      metric.Int64Counter
	bytesSent metric.Int64Counter
	failures  metric.Int64Counter
	errors    metric.Int64Counter
	latency   metric.Float64Histogram
}

func NewOTelPublisher(meter metric.Meter) (*OTelPublisher, error) {
	p := &OTelPublisher{}
	var err error

	counters := []struct {
		name string
		desc string
		dst  *metric.Int64Counter
	}{
		{MetricWritesAccepted, "Envelopes handed to the transport", &p.writes},
		{MetricEnvelopesDropped, "Envelopes rejected by the size gate", &p.dropped},
		{MetricEnvelopesSent, "Envelopes acknowledged by the transport", &p.sent},
		{MetricBytesSent, "Payload bytes acknowledged by the transport", &p.bytesSent},
		{MetricSendFailures, "Sends that completed with an error", &p.failures},
		{MetricErrors, "Forwarder errors by context", &p.errors},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("failed to create counter %s: %w", c.name, err)
		}
	}

	p.latency, err = meter.Float64Histogram(MetricSendLatency,
		metric.WithDescription("Time from hand-off to transport acknowledgement"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", MetricSendLatency, err)
	}
	return p, nil
}

func (p *OTelPublisher) Publish(event TelemetryEvent) {
	ctx := context.Background()

	switch e := event.(type) {
	case WriteAccepted:
		p.writes.Add(ctx, 1)
	case EnvelopeDropped:
		p.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", e.Reason)))
	case EnvelopeSent:
		p.sent.Add(ctx, 1)
		p.bytesSent.Add(ctx, int64(e.Bytes))
		p.latency.Record(ctx, float64(e.Latency.Microseconds())/1000,
			metric.WithAttributes(attribute.String("status", "success")))
	case SendFailed:
		p.failures.Add(ctx, 1)
		p.latency.Record(ctx, float64(e.Latency.Microseconds())/1000,
			metric.WithAttributes(attribute.String("status", "error")))
	case ForwarderError:
		p.errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("error.context", e.Context),
			attribute.String("error.severity", e.Severity.String())))
	}
}
