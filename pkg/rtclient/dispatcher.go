// ABOUTME: Registry of process handlers addressed by ID
// ABOUTME: The process thread reads an immutable snapshot published through an atomic pointer
package rtclient

import (
	"sync"
	"sync/atomic"
)

// ProcessHandler runs once per audio cycle on the process thread. A non-zero
// return stops the cycle and is reported back to the server.
type ProcessHandler interface {
	Process(nframes uint32) int
}

// ProcessFunc adapts a function to ProcessHandler
type ProcessFunc func(nframes uint32) int

// Process calls f
func (f ProcessFunc) Process(nframes uint32) int {
	return f(nframes)
}

// HandlerID identifies a registration. IDs are never reused by a Dispatcher.
type HandlerID uint64

// RegisterOption configures a registration
type RegisterOption func(*registration)

// WithTag labels a registration for diagnostics
func WithTag(tag string) RegisterOption {
	return func(r *registration) { r.tag = tag }
}

// OnRelease runs fn once when the registration is removed
func OnRelease(fn func()) RegisterOption {
	return func(r *registration) { r.onRelease = fn }
}

type registration struct {
	id        HandlerID
	tag       string
	handler   ProcessHandler
	onRelease func()
}

// Dispatcher fans one process callback out to registered handlers in
// registration order.
type Dispatcher struct {
	mu     sync.Mutex
	nextID HandlerID
	snap   atomic.Pointer[[]*registration]
}

// Register adds h and returns its ID
func (d *Dispatcher) Register(h ProcessHandler, opts ...RegisterOption) HandlerID {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	reg := &registration{id: d.nextID, handler: h}
	for _, opt := range opts {
		opt(reg)
	}

	old := d.load()
	next := make([]*registration, len(old), len(old)+1)
	copy(next, old)
	next = append(next, reg)
	d.snap.Store(&next)

	return reg.id
}

// Unregister removes the handler with id and runs its release hook. It
// returns false if id is not registered. A cycle already running may still
// call the handler once.
func (d *Dispatcher) Unregister(id HandlerID) bool {
	d.mu.Lock()
	old := d.load()
	var removed *registration
	next := make([]*registration, 0, len(old))
	for _, reg := range old {
		if reg.id == id {
			removed = reg
			continue
		}
		next = append(next, reg)
	}
	if removed != nil {
		d.snap.Store(&next)
	}
	d.mu.Unlock()

	if removed == nil {
		return false
	}
	if removed.onRelease != nil {
		removed.onRelease()
	}
	return true
}

// UnregisterAll removes every handler, running release hooks in
// registration order
func (d *Dispatcher) UnregisterAll() {
	d.mu.Lock()
	old := d.load()
	d.snap.Store(nil)
	d.mu.Unlock()

	for _, reg := range old {
		if reg.onRelease != nil {
			reg.onRelease()
		}
	}
}

// Process runs every handler for one cycle. It only loads the snapshot and
// never locks or allocates.
func (d *Dispatcher) Process(nframes uint32) int {
	for _, reg := range d.load() {
		if status := reg.handler.Process(nframes); status != 0 {
			return status
		}
	}
	return 0
}

// Len returns the number of registered handlers
func (d *Dispatcher) Len() int {
	return len(d.load())
}

// Tags returns registration tags in order, for diagnostics
func (d *Dispatcher) Tags() []string {
	regs := d.load()
	tags := make([]string, len(regs))
	for i, reg := range regs {
		tags[i] = reg.tag
	}
	return tags
}

func (d *Dispatcher) load() []*registration {
	if p := d.snap.Load(); p != nil {
		return *p
	}
	return nil
}
