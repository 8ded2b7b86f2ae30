// Package config resolves forwarder settings from CLI flags, environment
// variables and an optional YAML file, in that order of precedence.
package config

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNoEndpoint = errors.New("no trace endpoint configured: set " + KeyEndpoint + " or --" + FlagEndpoint)

type Config struct {
	Endpoint     string
	SourceName   string
	ProviderName string
	ProviderID   uuid.UUID
	PartitionKey string

	AutoStart    bool
	DrainTimeout time.Duration

	Transport TransportConfig

	StatusInterval time.Duration
	// MetricsEndpoint is the OTLP/HTTP metrics URL; empty leaves the choice
	// to the standard OTEL_EXPORTER_OTLP_* variables.
	MetricsEndpoint string

	// ConfigFile is the YAML file that was read, if any.
	ConfigFile string
}

type TransportConfig struct {
	PublishTimeout  time.Duration
	ConnectAttempts int
	NostrSecretKey  string
	RedisMaxLen     int
}

// Load resolves configuration from args (without the program name), the
// environment and the config file. It returns nil, nil when --help was
// requested; usage has then been written to stdout.
func Load(args []string) (*Config, error) {
	return load(args, os.Stdout)
}

func load(args []string, out io.Writer) (*Config, error) {
	parsed, err := parseCLIFlags(args)
	if err != nil {
		return nil, err
	}
	if parsed.help {
		printUsage(out, parsed.flags)
		return nil, nil
	}

	fileSource, err := NewViperSource(parsed.configFile)
	if err != nil {
		return nil, err
	}

	// CLI flags > Environment variables > config file
	resolver := NewConfigResolver(parsed.source, &EnvSource{}, fileSource)

	cfg, err := FromResolver(resolver)
	if err != nil {
		return nil, err
	}
	cfg.ConfigFile = fileSource.File()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromResolver builds a Config from resolver, applying defaults. The result
// is not validated.
func FromResolver(resolver *ConfigResolver) (*Config, error) {
	providerID, err := parseProviderID(resolver.ResolveString(KeyProviderID, DefaultProviderID))
	if err != nil {
		return nil, err
	}

	return &Config{
		Endpoint:     strings.TrimSpace(resolver.ResolveString(KeyEndpoint, "")),
		SourceName:   resolver.ResolveString(KeySourceName, ""),
		ProviderName: resolver.ResolveString(KeyProviderName, DefaultProviderName),
		ProviderID:   providerID,
		PartitionKey: resolver.ResolveString(KeyPartitionKey, DefaultPartitionKey),
		AutoStart:    resolver.ResolveBool(KeyAutoStart, DefaultAutoStart),
		DrainTimeout: resolver.ResolveSeconds(KeyDrainTimeoutSeconds, DefaultDrainTimeoutSeconds),
		Transport: TransportConfig{
			PublishTimeout:  resolver.ResolveSeconds(KeyPublishTimeoutSeconds, DefaultPublishTimeoutSeconds),
			ConnectAttempts: resolver.ResolveInt(KeyConnectAttempts, DefaultConnectAttempts),
			NostrSecretKey:  resolver.ResolveString(KeyNostrSecretKey, ""),
			RedisMaxLen:     resolver.ResolveInt(KeyRedisMaxLen, DefaultRedisMaxLen),
		},
		StatusInterval:  resolver.ResolveSeconds(KeyStatusIntervalSeconds, DefaultStatusIntervalSeconds),
		MetricsEndpoint: strings.TrimSpace(resolver.ResolveString(KeyMetricsEndpoint, "")),
	}, nil
}

// ResolveEndpoint returns explicit when it is non-blank, otherwise the
// TRACE_ENDPOINT setting from sources (the environment when none are given).
func ResolveEndpoint(explicit string, sources ...ConfigSource) (string, error) {
	if endpoint := strings.TrimSpace(explicit); endpoint != "" {
		return endpoint, nil
	}
	if len(sources) == 0 {
		sources = []ConfigSource{&EnvSource{}}
	}
	endpoint := strings.TrimSpace(NewConfigResolver(sources...).ResolveString(KeyEndpoint, ""))
	if endpoint == "" {
		return "", ErrNoEndpoint
	}
	return endpoint, nil
}
