// Package redisstream ships trace envelopes into Redis streams, one stream
// per partition key, capped with an approximate MAXLEN.
package redisstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	DefaultStreamPrefix = "traces"
	DefaultMaxLen       = 10000
	PayloadField        = "payload"

	streamParam = "stream"
	maxLenParam = "maxlen"

	pingTimeout = 5 * time.Second
)

var ErrClosed = errors.New("redisstream: handle closed")

type Config struct {
	MaxLen int64
	Logger *log.Logger
}

type Handle struct {
	client *redis.Client
	prefix string
	maxLen int64
	closed atomic.Bool
}

// Open parses endpoint, which is a regular redis:// URL plus the optional
// query parameters stream (key prefix) and maxlen, and pings the server.
func Open(ctx context.Context, endpoint string, cfg Config) (*Handle, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid redis endpoint: %w", err)
	}
	q := u.Query()
	prefix := q.Get(streamParam)
	if prefix == "" {
		prefix = DefaultStreamPrefix
	}
	maxLen := cfg.MaxLen
	if raw := q.Get(maxLenParam); raw != "" {
		maxLen, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || maxLen < 0 {
			return nil, fmt.Errorf("invalid %s %q in redis endpoint", maxLenParam, raw)
		}
	}
	// go-redis rejects query options it does not know.
	q.Del(streamParam)
	q.Del(maxLenParam)
	u.RawQuery = q.Encode()

	opts, err := redis.ParseURL(u.String())
	if err != nil {
		return nil, fmt.Errorf("invalid redis endpoint: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed at %s (DB %d): %w", opts.Addr, opts.DB, err)
	}

	logger.Printf("connected to redis %s (DB %d), streams %s:*, maxlen ~%d", opts.Addr, opts.DB, prefix, maxLen)
	return NewWithClient(client, prefix, maxLen), nil
}

// NewWithClient takes ownership of client. A maxLen of zero leaves streams
// untrimmed.
func NewWithClient(client *redis.Client, prefix string, maxLen int64) *Handle {
	if prefix == "" {
		prefix = DefaultStreamPrefix
	}
	return &Handle{client: client, prefix: prefix, maxLen: maxLen}
}

func (h *Handle) StreamKey(partitionKey string) string {
	return h.prefix + ":" + partitionKey
}

func (h *Handle) SendAsync(ctx context.Context, payload []byte, partitionKey string) <-chan error {
	result := make(chan error, 1)
	go func() {
		result <- h.add(ctx, payload, partitionKey)
	}()
	return result
}

func (h *Handle) add(ctx context.Context, payload []byte, partitionKey string) error {
	if h.closed.Load() {
		return ErrClosed
	}
	args := &redis.XAddArgs{
		Stream: h.StreamKey(partitionKey),
		Values: map[string]interface{}{PayloadField: payload},
	}
	if h.maxLen > 0 {
		args.MaxLen = h.maxLen
		args.Approx = true
	}
	if err := h.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", args.Stream, err)
	}
	return nil
}

func (h *Handle) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	return h.client.Close()
}
