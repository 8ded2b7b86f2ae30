// Package registry is the process-wide list of trace listeners. Code that wants
// its trace output forwarded writes through the registry; forwarders register
// themselves on construction.
package registry

import (
	"sync"
	"sync/atomic"
)

// Listener receives trace writes. Implementations must be comparable (pointer
// receivers in practice) since registration is keyed on identity.
type Listener interface {
	Write(message string)
	WriteLine(message string)
}

// Registry holds listeners in a copy-on-write slice so fan-out never takes a lock.
type Registry struct {
	mu        sync.Mutex
	listeners atomic.Pointer[[]Listener]
}

// Default is the process-wide registry.
var Default = New()

func New() *Registry {
	r := &Registry{}
	r.listeners.Store(&[]Listener{})
	return r
}

// Register adds l unless it is already present. It reports whether l was added.
func (r *Registry) Register(l Listener) bool {
	if l == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.load()
	if indexOf(current, l) >= 0 {
		return false
	}
	next := make([]Listener, len(current), len(current)+1)
	copy(next, current)
	next = append(next, l)
	r.listeners.Store(&next)
	return true
}

// Unregister removes l and reports whether it was present.
func (r *Registry) Unregister(l Listener) bool {
	if l == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.load()
	i := indexOf(current, l)
	if i < 0 {
		return false
	}
	next := make([]Listener, 0, len(current)-1)
	next = append(next, current[:i]...)
	next = append(next, current[i+1:]...)
	r.listeners.Store(&next)
	return true
}

func (r *Registry) Contains(l Listener) bool {
	if l == nil {
		return false
	}
	return indexOf(r.load(), l) >= 0
}

func (r *Registry) Len() int { return len(r.load()) }

// Listeners returns a copy of the registered listeners in registration order.
func (r *Registry) Listeners() []Listener {
	current := r.load()
	out := make([]Listener, len(current))
	copy(out, current)
	return out
}

// Clear removes every listener.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners.Store(&[]Listener{})
}

// Write hands message to every listener's Write.
func (r *Registry) Write(message string) {
	for _, l := range r.load() {
		l.Write(message)
	}
}

// WriteLine hands message to every listener's WriteLine.
func (r *Registry) WriteLine(message string) {
	for _, l := range r.load() {
		l.WriteLine(message)
	}
}

func (r *Registry) load() []Listener {
	if p := r.listeners.Load(); p != nil {
		return *p
	}
	return nil
}

func indexOf(listeners []Listener, l Listener) int {
	for i, existing := range listeners {
		if existing == l {
			return i
		}
	}
	return -1
}

// Register wraps Default.Register
func Register(l Listener) bool { return Default.Register(l) }

// Unregister wraps Default.Unregister
func Unregister(l Listener) bool { return Default.Unregister(l) }

// Write wraps Default.Write
func Write(message string) { Default.Write(message) }

// WriteLine wraps Default.WriteLine
func WriteLine(message string) { Default.WriteLine(message) }
