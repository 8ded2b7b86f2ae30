package telemetry

// NoopPublisher is a telemetry publisher that does nothing
// Useful for testing or when telemetry is disabled
type NoopPublisher struct{}

// NewNoopPublisher creates a new no-op telemetry publisher
func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

// Publish does nothing
func (n *NoopPublisher) Publish(event TelemetryEvent) {}

// MultiPublisher fans every event out to each of its publishers in order.
type MultiPublisher []TelemetryPublisher

func NewMultiPublisher(publishers ...TelemetryPublisher) MultiPublisher {
	out := make(MultiPublisher, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (m MultiPublisher) Publish(event TelemetryEvent) {
	for _, p := range m {
		p.Publish(event)
	}
}
