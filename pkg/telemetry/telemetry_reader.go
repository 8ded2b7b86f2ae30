package telemetry

type Snapshot struct {
	// Core counters
	WritesAccepted   uint64
	EnvelopesSent    uint64
	EnvelopesDropped uint64
	SendFailures     uint64
	BytesSent        uint64
	ErrorsTotal      uint64
	InFlight         int64

	DroppedByReason map[string]uint64

	// Lifecycle
	State string

	// Rate metrics
	WritesPerSecond float64
	SendsPerSecond  float64

	// Latency metrics
	AvgLatencyMs float64
	P95LatencyMs float64

	// System metrics
	UptimeSeconds      float64
	ChannelUtilization float64

	// Error breakdown
	ErrorsByType     map[string]uint64
	ErrorsBySeverity map[ErrorSeverity]uint64
	RecentErrors     []string
}

type TelemetryReader interface {
	Snapshot() Snapshot
}
