package forwarder

import (
	"time"

	"github.com/google/uuid"

	"trace-forwarder/pkg/config"
	"trace-forwarder/pkg/envelope"
	"trace-forwarder/pkg/registry"
	"trace-forwarder/pkg/telemetry"
	"trace-forwarder/pkg/transport"
)

const DefaultDrainTimeout = 5 * time.Second

// Config holds what a Forwarder needs at construction. Zero values fall back
// to defaults: provider name "TraceForwarder", the placeholder provider id,
// partition key "0" and a 5s drain timeout.
type Config struct {
	// Endpoint selects the transport. When empty, TRACE_ENDPOINT is read from
	// the configured sources.
	Endpoint string

	SourceName   string
	ProviderName string
	ProviderID   uuid.UUID
	PartitionKey string

	AutoStart    bool
	DrainTimeout time.Duration

	Transport transport.Options
}

func DefaultConfig() Config {
	return Config{
		ProviderName: envelope.DefaultProviderName,
		ProviderID:   envelope.DefaultProviderID,
		PartitionKey: config.DefaultPartitionKey,
		AutoStart:    true,
		DrainTimeout: DefaultDrainTimeout,
		Transport:    transport.DefaultOptions(),
	}
}

// ConfigFrom maps resolved settings onto a forwarder Config.
func ConfigFrom(c *config.Config) Config {
	opts := transport.DefaultOptions()
	opts.SecretKey = c.Transport.NostrSecretKey
	opts.PublishTimeout = c.Transport.PublishTimeout
	opts.ConnectAttempts = c.Transport.ConnectAttempts
	opts.StreamMaxLen = int64(c.Transport.RedisMaxLen)

	return Config{
		Endpoint:     c.Endpoint,
		SourceName:   c.SourceName,
		ProviderName: c.ProviderName,
		ProviderID:   c.ProviderID,
		PartitionKey: c.PartitionKey,
		AutoStart:    c.AutoStart,
		DrainTimeout: c.DrainTimeout,
		Transport:    opts,
	}
}

func (c Config) withDefaults() Config {
	if c.ProviderName == "" {
		c.ProviderName = envelope.DefaultProviderName
	}
	if c.ProviderID == uuid.Nil {
		c.ProviderID = envelope.DefaultProviderID
	}
	if c.PartitionKey == "" {
		c.PartitionKey = config.DefaultPartitionKey
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = DefaultDrainTimeout
	}
	return c
}

type options struct {
	factory   transport.Factory
	registry  *registry.Registry
	publisher telemetry.TelemetryPublisher
	clock     envelope.Clock
	sources   []config.ConfigSource
}

type Option func(*options)

func defaultOptions() options {
	return options{
		factory:  transport.Create,
		registry: registry.Default,
	}
}

// WithTransportFactory replaces transport.Create.
func WithTransportFactory(factory transport.Factory) Option {
	return func(o *options) { o.factory = factory }
}

// WithRegistry registers the forwarder with r instead of registry.Default.
// A nil registry disables registration.
func WithRegistry(r *registry.Registry) Option {
	return func(o *options) { o.registry = r }
}

func WithTelemetry(publisher telemetry.TelemetryPublisher) Option {
	return func(o *options) { o.publisher = publisher }
}

func WithClock(clock envelope.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithConfigSources sets where the endpoint is looked up when Config.Endpoint
// is empty. The default is the environment.
func WithConfigSources(sources ...config.ConfigSource) Option {
	return func(o *options) { o.sources = sources }
}
