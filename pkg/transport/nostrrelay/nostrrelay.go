// Package nostrrelay ships trace envelopes to a Nostr relay as signed events,
// one event per envelope, tagged with the partition key.
package nostrrelay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"trace-forwarder/pkg/crypto"
)

const (
	// TraceEventKind sits in the regular (stored) kind range.
	TraceEventKind = 4571

	PartitionTag = "partition"
	TopicTag     = "t"
	TopicTrace   = "trace"

	// FramingOverhead is what an ["EVENT", {...}] message adds around its
	// content: id, pubkey, sig, created_at, kind and the tag arrays. About
	// 60 bytes of it are left for the partition key.
	FramingOverhead = 448
)

var ErrClosed = errors.New("nostrrelay: handle closed")

type Config struct {
	SecretKey       string
	PublishTimeout  time.Duration
	ConnectAttempts int
	ConnectBackoff  time.Duration
	Logger          *log.Logger
}

func (c Config) withDefaults() Config {
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = 10 * time.Second
	}
	if c.ConnectAttempts <= 0 {
		c.ConnectAttempts = 3
	}
	if c.ConnectBackoff < 0 {
		c.ConnectBackoff = 0
	}
	if c.Logger == nil {
		c.Logger = log.New(io.Discard, "", 0)
	}
	return c
}

// Handle publishes to a single relay connection.
type Handle struct {
	url   string
	relay Relay
	keys  *crypto.KeyPair
	cfg   Config

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

// Dial resolves the signing key and connects to url.
func Dial(ctx context.Context, url string, cfg Config) (*Handle, error) {
	return DialWith(ctx, url, cfg, dialRelay)
}

func DialWith(ctx context.Context, url string, cfg Config, dial Dialer) (*Handle, error) {
	cfg = cfg.withDefaults()
	keys, err := crypto.ResolveKeyPair(cfg.SecretKey)
	if err != nil {
		return nil, err
	}
	r, err := connect(ctx, url, cfg, dial)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Printf("connected to relay %s as %s", url, keys)
	return newHandle(url, r, keys, cfg), nil
}

// New wraps an already connected relay.
func New(r Relay, keys *crypto.KeyPair, cfg Config) *Handle {
	return newHandle("", r, keys, cfg.withDefaults())
}

func newHandle(url string, r Relay, keys *crypto.KeyPair, cfg Config) *Handle {
	return &Handle{
		url:    url,
		relay:  r,
		keys:   keys,
		cfg:    cfg,
		closed: make(chan struct{}),
	}
}

// connect retries with a linearly growing pause and gives up after
// cfg.ConnectAttempts.
func connect(ctx context.Context, url string, cfg Config, dial Dialer) (Relay, error) {
	var lastErr error
	for attempt := 1; attempt <= cfg.ConnectAttempts; attempt++ {
		r, err := dial(ctx, url)
		if err == nil {
			return r, nil
		}
		lastErr = err
		cfg.Logger.Printf("attempt %d/%d failed to connect to relay (%s): %s", attempt, cfg.ConnectAttempts, url, err)
		if attempt == cfg.ConnectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect to relay %s: %w", url, ctx.Err())
		case <-time.After(cfg.ConnectBackoff * time.Duration(attempt)):
		}
	}
	return nil, fmt.Errorf("failed to connect to relay %s after %d attempts: %w", url, cfg.ConnectAttempts, lastErr)
}

func (h *Handle) FramingOverhead() int { return FramingOverhead }

// WireSize is the size of the relay message carrying payload, with the
// content's JSON escaping counted.
func (h *Handle) WireSize(payload []byte) int {
	return escapedLen(payload) + FramingOverhead
}

// escapedLen is an upper bound on the length of b once escaped as a JSON
// string body. HTML-sensitive characters and U+2028/U+2029 are counted as
// \u escapes.
func escapedLen(b []byte) int {
	n := len(b)
	for i := 0; i < len(b); i++ {
		switch c := b[i]; {
		case c == '"' || c == '\\' || c == '\n' || c == '\r' || c == '\t' || c == '\b' || c == '\f':
			n++
		case c < 0x20 || c == '<' || c == '>' || c == '&':
			n += 5
		case c == 0xE2 && i+2 < len(b) && b[i+1] == 0x80 && (b[i+2] == 0xA8 || b[i+2] == 0xA9):
			n += 3
		}
	}
	return n
}

func (h *Handle) PublicKey() string { return h.keys.PublicKeyHex }

func (h *Handle) SendAsync(ctx context.Context, payload []byte, partitionKey string) <-chan error {
	result := make(chan error, 1)
	go func() {
		result <- h.publish(ctx, payload, partitionKey)
	}()
	return result
}

func (h *Handle) publish(ctx context.Context, payload []byte, partitionKey string) error {
	select {
	case <-h.closed:
		return ErrClosed
	default:
	}

	ev, err := h.Event(payload, partitionKey)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, h.cfg.PublishTimeout)
	defer cancel()
	if err := h.relay.Publish(ctx, ev); err != nil {
		return fmt.Errorf("publish trace event %s: %w", ev.ID, err)
	}
	return nil
}

// Event builds and signs the relay event carrying payload.
func (h *Handle) Event(payload []byte, partitionKey string) (nostr.Event, error) {
	ev := nostr.Event{
		PubKey:    h.keys.PublicKeyHex,
		CreatedAt: nostr.Now(),
		Kind:      TraceEventKind,
		Tags: nostr.Tags{
			{PartitionTag, partitionKey},
			{TopicTag, TopicTrace},
		},
		Content: string(payload),
	}
	if err := ev.Sign(h.keys.PrivateKeyHex); err != nil {
		return ev, fmt.Errorf("sign trace event: %w", err)
	}
	return ev, nil
}

// Close is idempotent; later calls return the first result.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		close(h.closed)
		h.closeErr = h.relay.Close()
	})
	return h.closeErr
}
