package config

// Configuration key constants
// These double as environment variable names. In a YAML config file the same
// keys are written lower-case without the TRACE_ prefix (see fileKey).

const (
	// Identity and routing
	KeyEndpoint     = "TRACE_ENDPOINT"
	KeySourceName   = "TRACE_SOURCE_NAME"
	KeyProviderName = "TRACE_PROVIDER_NAME"
	KeyProviderID   = "TRACE_PROVIDER_ID"
	KeyPartitionKey = "TRACE_PARTITION_KEY"

	// Lifecycle
	KeyAutoStart           = "TRACE_AUTO_START"
	KeyDrainTimeoutSeconds = "TRACE_DRAIN_TIMEOUT_SECONDS"

	// Transport
	KeyPublishTimeoutSeconds = "TRACE_PUBLISH_TIMEOUT_SECONDS"
	KeyConnectAttempts       = "TRACE_CONNECT_ATTEMPTS"
	KeyNostrSecretKey        = "TRACE_NOSTR_SECKEY"
	KeyRedisMaxLen           = "TRACE_REDIS_MAXLEN"

	// Host binary
	KeyStatusIntervalSeconds = "TRACE_STATUS_INTERVAL_SECONDS"
	KeyMetricsEndpoint       = "TRACE_METRICS_ENDPOINT"
)

// Default values for configuration
const (
	DefaultProviderName          = "TraceForwarder"
	DefaultProviderID            = "00000000-1111-2222-3333-444444444444"
	DefaultPartitionKey          = "0"
	DefaultAutoStart             = true
	DefaultDrainTimeoutSeconds   = 5
	DefaultPublishTimeoutSeconds = 10
	DefaultConnectAttempts       = 3
	DefaultRedisMaxLen           = 10000
	DefaultStatusIntervalSeconds = 10
)

// CLI flag name constants
const (
	FlagEndpoint              = "endpoint"
	FlagSourceName            = "source-name"
	FlagProviderName          = "provider-name"
	FlagProviderID            = "provider-id"
	FlagPartitionKey          = "partition-key"
	FlagAutoStart             = "auto-start"
	FlagDrainTimeoutSeconds   = "drain-timeout-seconds"
	FlagPublishTimeoutSeconds = "publish-timeout-seconds"
	FlagConnectAttempts       = "connect-attempts"
	FlagNostrSecretKey        = "nostr-secret-key"
	FlagRedisMaxLen           = "redis-maxlen"
	FlagStatusIntervalSeconds = "status-interval-seconds"
	FlagMetricsEndpoint       = "metrics-endpoint"
	FlagConfigFile            = "config"
	FlagHelp                  = "help"
	FlagVersion               = "version"
)

// Help message constants
const (
	AppName        = "Trace Forwarder"
	AppDescription = "Forward trace lines to a relay or stream as JSON envelopes"
	UsageFormat    = "tracefwd [OPTIONS] < traces.log"

	HelpEndpoint              = "Endpoint URL: ws(s)://relay or redis(s)://host:port/db?stream=prefix (required)"
	HelpSourceName            = "Event source name (defaults to provider name)"
	HelpProviderName          = "Provider name"
	HelpProviderID            = "Provider id (UUID)"
	HelpPartitionKey          = "Partition key"
	HelpAutoStart             = "Start forwarding on construction"
	HelpDrainTimeoutSeconds   = "Max seconds to wait for in-flight sends on flush and close"
	HelpPublishTimeoutSeconds = "Per-send timeout in seconds"
	HelpConnectAttempts       = "Relay dial attempts"
	HelpNostrSecretKey        = "Relay signing key, hex or nsec (ephemeral when empty)"
	HelpRedisMaxLen           = "Approximate stream length cap"
	HelpStatusIntervalSeconds = "Seconds between status lines"
	HelpMetricsEndpoint       = "OTLP/HTTP metrics URL, e.g. http://collector:4318/v1/metrics (export off when empty)"
	HelpConfigFile            = "YAML config file (default: search for tracefwd.yaml)"
	HelpShowHelp              = "Show this help message"
	HelpShowVersion           = "Print version information"

	HelpOptions         = "Options:"
	HelpEnvironmentVars = "Environment Variables:"
	HelpUsage           = "Usage:"
	HelpNote            = "Note: CLI options override environment variables, which override the config file"
)

// Config file lookup
const (
	ConfigFileName = "tracefwd"
	ConfigFileType = "yaml"
)

var ConfigSearchPaths = []string{".", "./config", "$HOME/.tracefwd", "/etc/tracefwd/"}

// envKeys is the order the help text lists environment variables in.
var envKeys = []struct {
	key  string
	desc string
}{
	{KeyEndpoint, HelpEndpoint},
	{KeySourceName, HelpSourceName},
	{KeyProviderName, HelpProviderName},
	{KeyProviderID, HelpProviderID},
	{KeyPartitionKey, HelpPartitionKey},
	{KeyAutoStart, HelpAutoStart},
	{KeyDrainTimeoutSeconds, HelpDrainTimeoutSeconds},
	{KeyPublishTimeoutSeconds, HelpPublishTimeoutSeconds},
	{KeyConnectAttempts, HelpConnectAttempts},
	{KeyNostrSecretKey, HelpNostrSecretKey},
	{KeyRedisMaxLen, HelpRedisMaxLen},
	{KeyStatusIntervalSeconds, HelpStatusIntervalSeconds},
	{KeyMetricsEndpoint, HelpMetricsEndpoint},
}
