package envelope

// Size bounds for a serialized envelope. The upper bound stays under the 256KiB
// payload limit common to event ingestion endpoints; the lower bound discards
// near-empty noise.
const (
	MinimumSize = 200
	MaximumSize = 250000
)

type Verdict int

const (
	Rejected Verdict = iota
	Accepted
)

func (v Verdict) String() string {
	if v == Accepted {
		return "accepted"
	}
	return "rejected"
}

type RejectReason string

const (
	ReasonNone           RejectReason = ""
	ReasonUndersized     RejectReason = "undersized"
	ReasonOversized      RejectReason = "oversized"
	ReasonUnserializable RejectReason = "unserializable"
)

// Admission is the outcome of running an envelope through a SizeGate.
// Payload is set whenever serialization succeeded, even on rejection.
type Admission struct {
	Verdict Verdict
	Reason  RejectReason
	Payload []byte
	Size    int
}

func (a Admission) Accepted() bool { return a.Verdict == Accepted }

// SizeGate accepts envelopes whose measured size s satisfies MinSize < s <= MaxSize.
// Overhead is the transport's per-message framing cost and is added to the
// payload length before comparing. When Sizer is set it replaces that sum.
type SizeGate struct {
	MinSize  int
	MaxSize  int
	Overhead int
	Sizer    func(payload []byte) int
}

func DefaultSizeGate() SizeGate {
	return SizeGate{MinSize: MinimumSize, MaxSize: MaximumSize}
}

// Measure returns the size the transport will see for payload.
func (g SizeGate) Measure(payload []byte) int {
	if g.Sizer != nil {
		return g.Sizer(payload)
	}
	return len(payload) + g.Overhead
}

// Admit serializes env and checks it against the bounds. It never mutates env
// and never logs; rejected envelopes are for the caller to drop.
func (g SizeGate) Admit(env TraceEnvelope) Admission {
	payload, err := Marshal(env)
	if err != nil {
		return Admission{Verdict: Rejected, Reason: ReasonUnserializable}
	}

	size := g.Measure(payload)
	switch {
	case size <= g.MinSize:
		return Admission{Verdict: Rejected, Reason: ReasonUndersized, Payload: payload, Size: size}
	case size > g.MaxSize:
		return Admission{Verdict: Rejected, Reason: ReasonOversized, Payload: payload, Size: size}
	}
	return Admission{Verdict: Accepted, Payload: payload, Size: size}
}
