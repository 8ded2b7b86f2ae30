package envelope

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// unixEpochTicks is the number of 100ns ticks between 0001-01-01 and 1970-01-01 UTC.
const unixEpochTicks int64 = 621355968000000000

// Clock allows for deterministic testing
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Ticks converts t into 100ns intervals since 0001-01-01 UTC.
func Ticks(t time.Time) int64 {
	return unixEpochTicks + t.UnixNano()/100
}

// Builder creates envelopes. It is safe for concurrent use; the only shared
// state is the last tick handed out, which keeps names strictly increasing
// even when the clock does not advance between calls.
type Builder struct {
	clock    Clock
	lastTick atomic.Int64
}

func NewBuilder(clock Clock) *Builder {
	if clock == nil {
		clock = RealClock{}
	}
	return &Builder{clock: clock}
}

// Build assembles an envelope from a raw message and identity metadata.
// An empty eventType falls back to DefaultEventType and an empty sourceName
// falls back to providerName.
func (b *Builder) Build(message, eventID, eventType string, providerID uuid.UUID, providerName, sourceName string) TraceEnvelope {
	if eventType == "" {
		eventType = DefaultEventType
	}
	if sourceName == "" {
		sourceName = providerName
	}

	now := b.now().UTC()
	return TraceEnvelope{
		Name:           eventType + "_" + strconv.FormatInt(b.nextTick(now), 10),
		ProviderName:   providerName,
		ProviderID:     providerID,
		SourceName:     sourceName,
		EventID:        eventID,
		EventType:      eventType,
		Message:        TrimMessage(message),
		EventTimestamp: now,
		SentTimestamp:  now,
	}
}

func (b *Builder) now() time.Time {
	if b.clock == nil {
		return time.Now()
	}
	return b.clock.Now()
}

func (b *Builder) nextTick(now time.Time) int64 {
	base := Ticks(now)
	for {
		last := b.lastTick.Load()
		next := base
		if next <= last {
			next = last + 1
		}
		if b.lastTick.CompareAndSwap(last, next) {
			return next
		}
	}
}
