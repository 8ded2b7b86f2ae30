package forwarder

import (
	"time"

	"trace-forwarder/pkg/telemetry"
)

// TelemetrySink is a thin adapter for emitting structured telemetry.
type TelemetrySink interface {
	Start()
	Stop()
	EmitWriteAccepted(bytes int)
	EmitDropped(reason string, size int)
	EmitSent(bytes int, latency time.Duration)
	EmitSendFailed(err error, latency time.Duration)
	EmitLifecycle(state string)
	EmitError(err error, where string, severity telemetry.ErrorSeverity)
}
