package telemetry

import "time"

type TelemetryEvent interface {
	Timestamp() time.Time // When the event occurred
	EventType() string    // For categorization/filtering
}

// WriteAccepted is published when an envelope passed the size gate and was
// handed to the transport.
type WriteAccepted struct {
	timestamp time.Time
	Bytes     int
}

func (e WriteAccepted) Timestamp() time.Time { return e.timestamp }
func (e WriteAccepted) EventType() string    { return "write_accepted" }

func NewWriteAccepted(bytes int) WriteAccepted {
	return WriteAccepted{timestamp: time.Now(), Bytes: bytes}
}

type EnvelopeDropped struct {
	timestamp time.Time
	Reason    string // "undersized", "oversized", "unserializable"
	Size      int
}

func (e EnvelopeDropped) Timestamp() time.Time { return e.timestamp }
func (e EnvelopeDropped) EventType() string    { return "envelope_dropped" }

func NewEnvelopeDropped(reason string, size int) EnvelopeDropped {
	return EnvelopeDropped{timestamp: time.Now(), Reason: reason, Size: size}
}

type EnvelopeSent struct {
	timestamp time.Time
	Bytes     int
	Latency   time.Duration // Hand-off to transport acknowledgement
}

func (e EnvelopeSent) Timestamp() time.Time { return e.timestamp }
func (e EnvelopeSent) EventType() string    { return "envelope_sent" }

func NewEnvelopeSent(bytes int, latency time.Duration) EnvelopeSent {
	return EnvelopeSent{timestamp: time.Now(), Bytes: bytes, Latency: latency}
}

type SendFailed struct {
	timestamp time.Time
	Err       error
	Latency   time.Duration
}

func (e SendFailed) Timestamp() time.Time { return e.timestamp }
func (e SendFailed) EventType() string    { return "send_failed" }

func NewSendFailed(err error, latency time.Duration) SendFailed {
	return SendFailed{timestamp: time.Now(), Err: err, Latency: latency}
}

type LifecycleChanged struct {
	timestamp time.Time
	State     string // "stopped", "running", "disposed"
}

func (e LifecycleChanged) Timestamp() time.Time { return e.timestamp }
func (e LifecycleChanged) EventType() string    { return "lifecycle_changed" }

func NewLifecycleChanged(state string) LifecycleChanged {
	return LifecycleChanged{timestamp: time.Now(), State: state}
}

type ForwarderError struct {
	timestamp time.Time
	Err       error
	Context   string // Additional context (e.g., "transport_close", "drain")
	Severity  ErrorSeverity
}

func (e ForwarderError) Timestamp() time.Time { return e.timestamp }
func (e ForwarderError) EventType() string    { return "forwarder_error" }

func NewForwarderError(err error, context string, severity ErrorSeverity) ForwarderError {
	return ForwarderError{
		timestamp: time.Now(),
		Err:       err,
		Context:   context,
		Severity:  severity,
	}
}

type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
	ErrorSeverityCritical
)

func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	case ErrorSeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

type TelemetryPublisher interface {
	// Publish sends a telemetry event to the aggregator.
	// This is a non-blocking, fire-and-forget call.
	Publish(event TelemetryEvent)
}
