package nostrrelay

import (
	"context"

	"github.com/nbd-wtf/go-nostr"
)

// Relay is the slice of a relay connection the transport needs. *nostr.Relay
// implements it directly, which keeps tests free of network IO.
type Relay interface {
	Publish(ctx context.Context, event nostr.Event) error
	Close() error
}

var _ Relay = (*nostr.Relay)(nil)

// Dialer opens a relay connection.
type Dialer func(ctx context.Context, url string) (Relay, error)

func dialRelay(ctx context.Context, url string) (Relay, error) {
	r, err := nostr.RelayConnect(ctx, url)
	if err != nil {
		return nil, err
	}
	return r, nil
}
