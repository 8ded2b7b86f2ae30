// Package forwarder turns trace lines into JSON envelopes and hands them to a
// transport without ever blocking the writer on the network.
package forwarder

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"trace-forwarder/pkg/config"
	"trace-forwarder/pkg/envelope"
	"trace-forwarder/pkg/lifecycle"
	"trace-forwarder/pkg/registry"
	"trace-forwarder/pkg/telemetry"
	"trace-forwarder/pkg/transport"
)

// ErrNoEndpoint is returned by New when no endpoint is configured anywhere.
var ErrNoEndpoint = config.ErrNoEndpoint

var _ registry.Listener = (*Forwarder)(nil)

type identity struct {
	providerName string
	providerID   uuid.UUID
	sourceName   string
}

// core is everything a Forwarder owns. It never points back at the
// Forwarder, so it can serve as the argument of a GC cleanup.
type core struct {
	logger       *log.Logger
	endpoint     string
	handle       transport.Handle
	gate         envelope.SizeGate
	builder      *envelope.Builder
	state        *lifecycle.Controller
	sink         TelemetrySink
	inflight     *inflight
	drainTimeout time.Duration

	identity     atomic.Pointer[identity]
	partitionKey atomic.Pointer[string]

	ctx       context.Context
	cancel    context.CancelFunc
	closing   atomic.Bool
	closeOnce sync.Once
}

// Forwarder is a registry listener that ships every accepted write to one
// transport endpoint. All methods are safe for concurrent use.
type Forwarder struct {
	c        *core
	registry *registry.Registry
	cleanup  runtime.Cleanup
}

// New acquires the transport for cfg's endpoint and returns an initialized
// Forwarder, registered with registry.Default unless WithRegistry says
// otherwise. It starts the forwarder when cfg.AutoStart is set.
//
// If a Forwarder that is not registered anywhere becomes unreachable without
// being closed, a GC cleanup closes it. That is a last resort; call Close.
func New(cfg Config, logger *log.Logger, opts ...Option) (*Forwarder, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	cfg = cfg.withDefaults()

	endpoint, err := config.ResolveEndpoint(cfg.Endpoint, o.sources...)
	if err != nil {
		return nil, err
	}

	topts := cfg.Transport
	if topts.Logger == nil {
		topts.Logger = logger
	}
	ctx, cancel := context.WithCancel(context.Background())
	handle, err := o.factory(ctx, endpoint, topts)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create transport for %s: %w", redact(endpoint), err)
	}

	gate := envelope.DefaultSizeGate()
	if r, ok := handle.(transport.OverheadReporter); ok {
		gate.Overhead = r.FramingOverhead()
	}
	if ws, ok := handle.(transport.WireSizer); ok {
		gate.Sizer = ws.WireSize
	}

	c := &core{
		logger:       logger,
		endpoint:     redact(endpoint),
		handle:       handle,
		gate:         gate,
		builder:      envelope.NewBuilder(o.clock),
		state:        lifecycle.New(),
		sink:         NewTelemetrySink(o.publisher),
		inflight:     newInflight(),
		drainTimeout: cfg.DrainTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}
	c.identity.Store(&identity{
		providerName: cfg.ProviderName,
		providerID:   cfg.ProviderID,
		sourceName:   cfg.SourceName,
	})
	key := cfg.PartitionKey
	c.partitionKey.Store(&key)

	c.sink.Start()
	c.state.MarkInitialized()
	c.sink.EmitLifecycle(string(lifecycle.StateStopped))
	logger.Printf("trace forwarder initialized: endpoint=%s partition=%s", c.endpoint, key)

	f := &Forwarder{c: c, registry: o.registry}
	if f.registry != nil {
		f.registry.Register(f)
	}
	f.cleanup = runtime.AddCleanup(f, func(c *core) { go c.shutdown() }, c)

	if cfg.AutoStart {
		f.Start()
	}
	return f, nil
}

// Write forwards message if the forwarder is running. It returns before any
// network activity and never reports an error.
func (f *Forwarder) Write(message string) { f.c.write(message) }

// WriteLine is identical to Write.
func (f *Forwarder) WriteLine(message string) { f.c.write(message) }

func (f *Forwarder) Start() {
	c := f.c
	if c.closing.Load() {
		return
	}
	if c.state.Start() {
		c.logger.Printf("trace forwarder started")
		c.sink.EmitLifecycle(string(lifecycle.StateRunning))
	}
}

// Stop makes later writes no-ops. Sends already handed off are not cancelled.
func (f *Forwarder) Stop() {
	c := f.c
	if c.state.Stop() {
		c.logger.Printf("trace forwarder stopped")
		c.sink.EmitLifecycle(string(lifecycle.StateStopped))
	}
}

// Wait blocks until the forwarder is started or disposed.
func (f *Forwarder) Wait() { f.c.state.Wait() }

func (f *Forwarder) WaitContext(ctx context.Context) error {
	return f.c.state.WaitContext(ctx)
}

// Flush waits for in-flight sends for at most the drain timeout and reports
// whether they all completed.
func (f *Forwarder) Flush() bool {
	ctx, cancel := context.WithTimeout(context.Background(), f.c.drainTimeout)
	defer cancel()
	return f.FlushContext(ctx) == nil
}

func (f *Forwarder) FlushContext(ctx context.Context) error {
	return f.c.inflight.wait(ctx)
}

// Close stops accepting writes, drains in-flight sends for up to the drain
// timeout, closes the transport and unregisters the forwarder. Transport
// errors are logged, not returned. Calling Close again does nothing.
func (f *Forwarder) Close() error {
	f.cleanup.Stop()
	f.c.shutdown()
	if f.registry != nil {
		f.registry.Unregister(f)
	}
	return nil
}

// Dispose is Close without the error result.
func (f *Forwarder) Dispose() { _ = f.Close() }

func (f *Forwarder) IsRunning() bool        { return f.c.state.IsRunning() }
func (f *Forwarder) IsInitialized() bool    { return f.c.state.IsInitialized() }
func (f *Forwarder) State() lifecycle.State { return f.c.state.State() }

// InFlight is the number of sends handed to the transport and not yet
// completed.
func (f *Forwarder) InFlight() int { return f.c.inflight.count() }

// Endpoint is the resolved endpoint with any password redacted.
func (f *Forwarder) Endpoint() string { return f.c.endpoint }

func (f *Forwarder) PartitionKey() string { return *f.c.partitionKey.Load() }

// SetPartitionKey applies to writes made after it returns. An empty key
// restores the default "0".
func (f *Forwarder) SetPartitionKey(key string) {
	if key == "" {
		key = config.DefaultPartitionKey
	}
	f.c.partitionKey.Store(&key)
}

// EventSourceName falls back to the provider name when unset.
func (f *Forwarder) EventSourceName() string {
	id := f.c.identity.Load()
	if id.sourceName == "" {
		return id.providerName
	}
	return id.sourceName
}

func (f *Forwarder) SetEventSourceName(name string) {
	f.c.updateIdentity(func(id *identity) { id.sourceName = name })
}

func (f *Forwarder) ProviderName() string { return f.c.identity.Load().providerName }

func (f *Forwarder) SetProviderName(name string) {
	f.c.updateIdentity(func(id *identity) { id.providerName = name })
}

func (f *Forwarder) ProviderID() uuid.UUID { return f.c.identity.Load().providerID }

func (f *Forwarder) SetProviderID(id uuid.UUID) {
	f.c.updateIdentity(func(ident *identity) { ident.providerID = id })
}

func (c *core) write(message string) {
	if !c.state.Accepting() {
		return
	}
	// Counted before the closing check: shutdown sets closing and then drains,
	// so any write that gets past the check is covered by the drain.
	c.inflight.add()
	if c.closing.Load() || !c.state.Accepting() {
		c.inflight.done()
		return
	}

	id := c.identity.Load()
	env := c.builder.Build(message, envelope.DefaultEventID, envelope.DefaultEventType,
		id.providerID, id.providerName, id.sourceName)

	adm := c.gate.Admit(env)
	if !adm.Accepted() {
		c.inflight.done()
		c.sink.EmitDropped(string(adm.Reason), adm.Size)
		return
	}
	c.send(adm.Payload, *c.partitionKey.Load())
}

// send hands payload to the transport. The caller has already counted it in
// flight; send releases it once the transport reports a result.
func (c *core) send(payload []byte, partitionKey string) {
	c.sink.EmitWriteAccepted(len(payload))

	start := time.Now()
	pending := c.handle.SendAsync(c.ctx, payload, partitionKey)
	if pending == nil {
		c.inflight.done()
		c.sink.EmitSent(len(payload), time.Since(start))
		return
	}
	go c.observe(pending, len(payload), start)
}

func (c *core) observe(pending <-chan error, size int, start time.Time) {
	defer c.inflight.done()
	if err := <-pending; err != nil {
		c.sink.EmitSendFailed(err, time.Since(start))
		return
	}
	c.sink.EmitSent(size, time.Since(start))
}

func (c *core) updateIdentity(mutate func(*identity)) {
	for {
		old := c.identity.Load()
		next := *old
		mutate(&next)
		if c.identity.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (c *core) shutdown() {
	c.closeOnce.Do(func() {
		c.closing.Store(true)
		c.state.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), c.drainTimeout)
		err := c.inflight.wait(ctx)
		cancel()
		if err != nil {
			abandoned := c.inflight.count()
			c.logger.Printf("close: %d sends still in flight after %s", abandoned, c.drainTimeout)
			c.sink.EmitError(fmt.Errorf("%d sends abandoned: %w", abandoned, err), "drain", telemetry.ErrorSeverityWarning)
		}
		c.cancel()

		if err := c.handle.Close(); err != nil {
			c.logger.Printf("close transport for %s: %v", c.endpoint, err)
			c.sink.EmitError(err, "transport_close", telemetry.ErrorSeverityWarning)
		}

		c.state.Dispose()
		c.sink.EmitLifecycle(string(lifecycle.StateDisposed))
		c.logger.Printf("trace forwarder disposed")
		c.sink.Stop()
	})
}

func redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	return u.Redacted()
}
