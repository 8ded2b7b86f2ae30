package forwarder

import (
	"sync"
	"time"

	"trace-forwarder/pkg/telemetry"
)

const telemetryBuffer = 200

// telemetrySinkImpl is a buffered adapter around TelemetryPublisher. Emitting
// never blocks the caller: events are dropped when the buffer is full.
type telemetrySinkImpl struct {
	pub  telemetry.TelemetryPublisher
	ch   chan telemetry.TelemetryEvent
	done chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewTelemetrySink constructs a TelemetrySink for the provided publisher. A
// nil publisher yields a sink that discards everything.
func NewTelemetrySink(pub telemetry.TelemetryPublisher) TelemetrySink {
	return &telemetrySinkImpl{
		pub:  pub,
		ch:   make(chan telemetry.TelemetryEvent, telemetryBuffer),
		done: make(chan struct{}),
	}
}

func (t *telemetrySinkImpl) Start() {
	if t.pub == nil {
		return
	}
	t.startOnce.Do(func() {
		t.wg.Add(1)
		go t.run()
	})
}

func (t *telemetrySinkImpl) run() {
	defer t.wg.Done()
	for {
		select {
		case ev := <-t.ch:
			t.pub.Publish(ev)
		case <-t.done:
			for {
				select {
				case ev := <-t.ch:
					t.pub.Publish(ev)
				default:
					return
				}
			}
		}
	}
}

// Stop flushes buffered events to the publisher and ends the goroutine.
func (t *telemetrySinkImpl) Stop() {
	t.stopOnce.Do(func() { close(t.done) })
	t.wg.Wait()
}

func (t *telemetrySinkImpl) EmitRaw(event telemetry.TelemetryEvent) {
	if t == nil || t.pub == nil {
		return
	}
	select {
	case t.ch <- event:
	default:
		// drop on full to avoid blocking
	}
}

func (t *telemetrySinkImpl) EmitWriteAccepted(bytes int) {
	t.EmitRaw(telemetry.NewWriteAccepted(bytes))
}

func (t *telemetrySinkImpl) EmitDropped(reason string, size int) {
	t.EmitRaw(telemetry.NewEnvelopeDropped(reason, size))
}

func (t *telemetrySinkImpl) EmitSent(bytes int, latency time.Duration) {
	t.EmitRaw(telemetry.NewEnvelopeSent(bytes, latency))
}

func (t *telemetrySinkImpl) EmitSendFailed(err error, latency time.Duration) {
	t.EmitRaw(telemetry.NewSendFailed(err, latency))
}

func (t *telemetrySinkImpl) EmitLifecycle(state string) {
	t.EmitRaw(telemetry.NewLifecycleChanged(state))
}

func (t *telemetrySinkImpl) EmitError(err error, where string, severity telemetry.ErrorSeverity) {
	t.EmitRaw(telemetry.NewForwarderError(err, where, severity))
}
