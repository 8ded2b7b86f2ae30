// Package lifecycle owns the initialized/running/disposed state of a forwarder
// and the start signal that Wait blocks on.
package lifecycle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrDisposed is returned by WaitContext once the controller is disposed.
var ErrDisposed = errors.New("lifecycle: disposed")

// State is the externally visible lifecycle state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateStopped       State = "stopped"
	StateRunning       State = "running"
	StateDisposed      State = "disposed"
)

// Controller gates writes. The flags are atomics so the write path can check
// them without taking the mutex; the mutex only serializes Start, Stop and
// Dispose against each other and against Wait picking up the signal.
type Controller struct {
	initialized atomic.Bool
	running     atomic.Bool
	disposed    atomic.Bool

	mu      sync.Mutex
	started chan struct{} // closed while running, replaced on Stop
	done    chan struct{} // closed on Dispose
}

// New returns an uninitialized, stopped controller.
func New() *Controller {
	return &Controller{
		started: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// MarkInitialized records that the transport handle was acquired. It has no
// effect once the controller is disposed.
func (c *Controller) MarkInitialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed.Load() {
		return false
	}
	c.initialized.Store(true)
	return true
}

// Start releases every blocked Wait and makes writes eligible. It reports
// whether this call changed the state.
func (c *Controller) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed.Load() || c.running.Load() {
		return false
	}
	c.running.Store(true)
	close(c.started)
	return true
}

// Stop re-arms the start signal so later Wait calls block again. Sends that
// were already handed off are not affected.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running.Load() {
		return false
	}
	c.running.Store(false)
	c.started = make(chan struct{})
	return true
}

// Wait blocks until Start has been called or the controller is disposed.
func (c *Controller) Wait() {
	_ = c.WaitContext(context.Background())
}

// WaitContext is Wait bounded by ctx. It returns ctx.Err() when ctx ends first
// and ErrDisposed when the controller is disposed before or while waiting.
func (c *Controller) WaitContext(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed.Load() {
		c.mu.Unlock()
		return ErrDisposed
	}
	started := c.started
	c.mu.Unlock()

	select {
	case <-started:
		return nil
	case <-c.done:
		return ErrDisposed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitTimeout reports whether the controller was started within d.
func (c *Controller) WaitTimeout(d time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return c.WaitContext(ctx) == nil
}

// Dispose is terminal: it clears both flags and releases waiters with
// ErrDisposed. Only the first call has an effect.
func (c *Controller) Dispose() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed.Load() {
		return false
	}
	c.disposed.Store(true)
	c.running.Store(false)
	c.initialized.Store(false)
	close(c.done)
	return true
}

func (c *Controller) IsInitialized() bool { return c.initialized.Load() }
func (c *Controller) IsRunning() bool     { return c.running.Load() }
func (c *Controller) IsDisposed() bool    { return c.disposed.Load() }

// Accepting reports whether writes should be processed right now.
func (c *Controller) Accepting() bool {
	return c.initialized.Load() && c.running.Load() && !c.disposed.Load()
}

// State folds the flags into one value; disposed wins over everything else.
func (c *Controller) State() State {
	switch {
	case c.disposed.Load():
		return StateDisposed
	case !c.initialized.Load():
		return StateUninitialized
	case c.running.Load():
		return StateRunning
	default:
		return StateStopped
	}
}
