// Package transport is the narrow seam between the forwarder and whatever
// actually moves bytes: accept a bounded payload keyed by a partition key,
// deliver it asynchronously, close on request.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"time"

	"trace-forwarder/pkg/transport/nostrrelay"
	"trace-forwarder/pkg/transport/redisstream"
)

var (
	ErrNoEndpoint        = errors.New("transport: no endpoint")
	ErrUnsupportedScheme = errors.New("transport: unsupported endpoint scheme")
)

// Handle is an acquired connection to an ingestion endpoint. SendAsync must not
// block on the network; the returned channel yields exactly one result.
type Handle interface {
	SendAsync(ctx context.Context, payload []byte, partitionKey string) <-chan error
	Close() error
}

// OverheadReporter is implemented by handles whose framing adds bytes on top
// of the payload. The forwarder feeds it into its size gate.
type OverheadReporter interface {
	FramingOverhead() int
}

// WireSizer is implemented by handles whose framing depends on the payload,
// e.g. when it is escaped into an outer document. It takes precedence over
// OverheadReporter.
type WireSizer interface {
	WireSize(payload []byte) int
}

// Factory acquires a Handle for an endpoint identifier.
type Factory func(ctx context.Context, endpoint string, opts Options) (Handle, error)

type Options struct {
	Logger          *log.Logger
	SecretKey       string
	PublishTimeout  time.Duration
	ConnectAttempts int
	ConnectBackoff  time.Duration
	StreamMaxLen    int64
}

func DefaultOptions() Options {
	return Options{
		PublishTimeout:  10 * time.Second,
		ConnectAttempts: 3,
		ConnectBackoff:  2 * time.Second,
		StreamMaxLen:    redisstream.DefaultMaxLen,
	}
}

// Create picks a backend by URL scheme: ws/wss for a Nostr relay, redis/rediss
// for a Redis stream.
func Create(ctx context.Context, endpoint string, opts Options) (Handle, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, ErrNoEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	switch strings.ToLower(u.Scheme) {
	case "ws", "wss":
		return nostrrelay.Dial(ctx, endpoint, nostrrelay.Config{
			SecretKey:       opts.SecretKey,
			PublishTimeout:  opts.PublishTimeout,
			ConnectAttempts: opts.ConnectAttempts,
			ConnectBackoff:  opts.ConnectBackoff,
			Logger:          logger,
		})
	case "redis", "rediss":
		return redisstream.Open(ctx, endpoint, redisstream.Config{
			MaxLen: opts.StreamMaxLen,
			Logger: logger,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// Done returns an already-completed result channel carrying err.
func Done(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	return ch
}
