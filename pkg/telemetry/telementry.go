// Package telemetry carries typed pipeline events from the forwarder to
// whoever watches it: an in-process aggregator, OpenTelemetry instruments,
// or nothing at all.
package telemetry

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Clock interface allows for deterministic testing
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Config for telemetry settings
type Config struct {
	BufferSize        int
	MaxRecentErrors   int
	RateWindowSeconds int
	LatencySamples    int
}

func DefaultConfig() Config {
	return Config{
		BufferSize:        1000,
		MaxRecentErrors:   50,
		RateWindowSeconds: 10,
		LatencySamples:    100,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BufferSize <= 0 {
		c.BufferSize = d.BufferSize
	}
	if c.MaxRecentErrors <= 0 {
		c.MaxRecentErrors = d.MaxRecentErrors
	}
	if c.RateWindowSeconds <= 0 {
		c.RateWindowSeconds = d.RateWindowSeconds
	}
	if c.LatencySamples <= 0 {
		c.LatencySamples = d.LatencySamples
	}
	return c
}

// Aggregator is the core stateful component that processes telemetry events
type Aggregator struct {
	mu    sync.RWMutex
	clock Clock
	cfg   Config

	writesAccepted   uint64
	envelopesSent    uint64
	envelopesDropped uint64
	sendFailures     uint64
	bytesSent        uint64
	errorsTotal      uint64

	droppedByReason  map[string]uint64
	errorsByType     map[string]uint64
	errorsBySeverity map[ErrorSeverity]uint64

	state string

	// Rate windows
	writeTimes []time.Time
	sendTimes  []time.Time

	// Recent errors (ring buffer)
	recentErrors []string
	errorIndex   int

	// Latency samples (ring buffer)
	latencies    []time.Duration
	latencyIndex int

	eventCh  chan TelemetryEvent
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	startTime time.Time
}

// NewAggregator creates a new telemetry aggregator
func NewAggregator(clock Clock, cfg Config) *Aggregator {
	if clock == nil {
		clock = RealClock{}
	}
	cfg = cfg.withDefaults()

	return &Aggregator{
		clock:            clock,
		cfg:              cfg,
		state:            "stopped",
		droppedByReason:  make(map[string]uint64),
		errorsByType:     make(map[string]uint64),
		errorsBySeverity: make(map[ErrorSeverity]uint64),
		writeTimes:       make([]time.Time, 0, cfg.RateWindowSeconds*10),
		sendTimes:        make([]time.Time, 0, cfg.RateWindowSeconds*10),
		recentErrors:     make([]string, cfg.MaxRecentErrors),
		latencies:        make([]time.Duration, cfg.LatencySamples),
		eventCh:          make(chan TelemetryEvent, cfg.BufferSize),
		done:             make(chan struct{}),
		startTime:        clock.Now(),
	}
}

// Start begins processing telemetry events
func (a *Aggregator) Start(ctx context.Context) {
	a.wg.Add(1)
	go a.processEvents(ctx)
}

// Stop shuts the aggregator down. Events still buffered are applied first.
func (a *Aggregator) Stop() {
	a.stopOnce.Do(func() { close(a.done) })
	a.wg.Wait()
}

// Publish implements TelemetryPublisher interface
func (a *Aggregator) Publish(event TelemetryEvent) {
	select {
	case a.eventCh <- event:
	default:
		// Full: drop rather than stall the write path.
	}
}

// Snapshot implements TelemetryReader interface
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	now := a.clock.Now()
	avgLatency, p95Latency := a.calculateLatencyMetrics()

	inFlight := int64(a.writesAccepted) - int64(a.envelopesSent) - int64(a.sendFailures)
	if inFlight < 0 {
		inFlight = 0
	}

	recentErrors := make([]string, 0)
	for i := 0; i < len(a.recentErrors); i++ {
		idx := (a.errorIndex - i - 1 + len(a.recentErrors)) % len(a.recentErrors)
		if a.recentErrors[idx] != "" {
			recentErrors = append(recentErrors, a.recentErrors[idx])
		}
	}

	return Snapshot{
		WritesAccepted:     a.writesAccepted,
		EnvelopesSent:      a.envelopesSent,
		EnvelopesDropped:   a.envelopesDropped,
		SendFailures:       a.sendFailures,
		BytesSent:          a.bytesSent,
		ErrorsTotal:        a.errorsTotal,
		InFlight:           inFlight,
		DroppedByReason:    copyMap(a.droppedByReason),
		State:              a.state,
		WritesPerSecond:    a.calculateRate(a.writeTimes, now),
		SendsPerSecond:     a.calculateRate(a.sendTimes, now),
		AvgLatencyMs:       avgLatency,
		P95LatencyMs:       p95Latency,
		UptimeSeconds:      now.Sub(a.startTime).Seconds(),
		ChannelUtilization: float64(len(a.eventCh)) / float64(cap(a.eventCh)) * 100,
		ErrorsByType:       copyMap(a.errorsByType),
		ErrorsBySeverity:   copyMap(a.errorsBySeverity),
		RecentErrors:       recentErrors,
	}
}

func (a *Aggregator) processEvents(ctx context.Context) {
	defer a.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.done:
			a.drainPending()
			return
		case event := <-a.eventCh:
			a.handleEvent(event)
		}
	}
}

func (a *Aggregator) drainPending() {
	for {
		select {
		case event := <-a.eventCh:
			a.handleEvent(event)
		default:
			return
		}
	}
}

func (a *Aggregator) handleEvent(event TelemetryEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()

	switch e := event.(type) {
	case WriteAccepted:
		a.writesAccepted++
		a.writeTimes = a.addTime(a.writeTimes, now)

	case EnvelopeDropped:
		a.envelopesDropped++
		a.droppedByReason[e.Reason]++

	case EnvelopeSent:
		a.envelopesSent++
		a.bytesSent += uint64(e.Bytes)
		a.sendTimes = a.addTime(a.sendTimes, now)
		a.addLatency(e.Latency)

	case SendFailed:
		a.sendFailures++
		a.recordError("send", ErrorSeverityWarning, e.Err)

	case LifecycleChanged:
		a.state = e.State

	case ForwarderError:
		a.recordError(e.Context, e.Severity, e.Err)
	}
}

func (a *Aggregator) recordError(kind string, severity ErrorSeverity, err error) {
	a.errorsTotal++
	a.errorsByType[kind]++
	a.errorsBySeverity[severity]++
	msg := kind
	if err != nil {
		msg = err.Error()
	}
	a.recentErrors[a.errorIndex] = msg
	a.errorIndex = (a.errorIndex + 1) % len(a.recentErrors)
}

func (a *Aggregator) addTime(times []time.Time, t time.Time) []time.Time {
	cutoff := t.Add(-time.Duration(a.cfg.RateWindowSeconds) * time.Second)
	for len(times) > 0 && times[0].Before(cutoff) {
		times = times[1:]
	}
	return append(times, t)
}

func (a *Aggregator) addLatency(latency time.Duration) {
	a.latencies[a.latencyIndex] = latency
	a.latencyIndex = (a.latencyIndex + 1) % len(a.latencies)
}

func (a *Aggregator) calculateRate(times []time.Time, now time.Time) float64 {
	if len(times) == 0 {
		return 0.0
	}

	cutoff := now.Add(-time.Duration(a.cfg.RateWindowSeconds) * time.Second)
	count := 0
	for _, t := range times {
		if t.After(cutoff) {
			count++
		}
	}

	return float64(count) / float64(a.cfg.RateWindowSeconds)
}

func (a *Aggregator) calculateLatencyMetrics() (float64, float64) {
	valid := make([]time.Duration, 0, len(a.latencies))
	for _, lat := range a.latencies {
		if lat > 0 {
			valid = append(valid, lat)
		}
	}
	if len(valid) == 0 {
		return 0.0, 0.0
	}

	var sum time.Duration
	for _, lat := range valid {
		sum += lat
	}
	avg := float64(sum) / float64(len(valid)) / float64(time.Millisecond)

	sort.Slice(valid, func(i, j int) bool { return valid[i] < valid[j] })
	idx := int(float64(len(valid))*0.95+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(valid) {
		idx = len(valid) - 1
	}
	p95 := float64(valid[idx]) / float64(time.Millisecond)

	return avg, p95
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
