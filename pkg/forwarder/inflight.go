package forwarder

import (
	"context"
	"sync"
	"sync/atomic"
)

// inflight counts sends handed to the transport that have not completed.
// Unlike a WaitGroup, add may race with wait. The counter is atomic; mu is
// taken only when the count crosses zero and by wait.
type inflight struct {
	n atomic.Int64

	mu         sync.Mutex
	idle       chan struct{} // closed while n == 0
	idleClosed bool
}

func newInflight() *inflight {
	idle := make(chan struct{})
	close(idle)
	return &inflight{idle: idle, idleClosed: true}
}

func (t *inflight) add() {
	if t.n.Add(1) == 1 {
		t.settle()
	}
}

// done ignores calls that would take the count below zero.
func (t *inflight) done() {
	for {
		cur := t.n.Load()
		if cur <= 0 {
			return
		}
		if t.n.CompareAndSwap(cur, cur-1) {
			if cur == 1 {
				t.settle()
			}
			return
		}
	}
}

func (t *inflight) count() int { return int(t.n.Load()) }

// settle makes idle agree with the current count.
func (t *inflight) settle() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.settleLocked()
}

func (t *inflight) settleLocked() {
	busy := t.n.Load() > 0
	switch {
	case busy && t.idleClosed:
		t.idle = make(chan struct{})
		t.idleClosed = false
	case !busy && !t.idleClosed:
		close(t.idle)
		t.idleClosed = true
	}
}

// wait blocks until nothing is in flight or ctx ends.
func (t *inflight) wait(ctx context.Context) error {
	t.mu.Lock()
	t.settleLocked()
	idle := t.idle
	t.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
