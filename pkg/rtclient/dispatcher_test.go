// ABOUTME: Tests for the process handler registry
// ABOUTME: Covers ordering, early stop, release hooks and concurrent dispatch
package rtclient

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestDispatcherRunsHandlersInOrder(t *testing.T) {
	var d Dispatcher
	var order []string

	d.Register(ProcessFunc(func(n uint32) int { order = append(order, "a"); return 0 }), WithTag("a"))
	d.Register(ProcessFunc(func(n uint32) int { order = append(order, "b"); return 0 }), WithTag("b"))

	if status := d.Process(64); status != 0 {
		t.Fatalf("expected status 0, got %d", status)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("unexpected order %v", order)
	}

	tags := d.Tags()
	if len(tags) != 2 || tags[0] != "a" || tags[1] != "b" {
		t.Errorf("unexpected tags %v", tags)
	}
}

func TestDispatcherStopsOnNonZero(t *testing.T) {
	var d Dispatcher
	called := false

	d.Register(ProcessFunc(func(uint32) int { return 3 }))
	d.Register(ProcessFunc(func(uint32) int { called = true; return 0 }))

	if status := d.Process(64); status != 3 {
		t.Errorf("expected status 3, got %d", status)
	}
	if called {
		t.Error("handler after a failing one should not run")
	}
}

func TestDispatcherUnregister(t *testing.T) {
	var d Dispatcher
	released := 0
	ran := 0

	id := d.Register(ProcessFunc(func(uint32) int { ran++; return 0 }), OnRelease(func() { released++ }))
	other := d.Register(ProcessFunc(func(uint32) int { return 0 }))
	if id == other {
		t.Fatal("expected distinct IDs")
	}

	if !d.Unregister(id) {
		t.Fatal("expected Unregister to find the handler")
	}
	if d.Unregister(id) {
		t.Error("second Unregister of the same ID should report false")
	}
	if released != 1 {
		t.Errorf("expected release hook to run once, ran %d times", released)
	}

	d.Process(64)
	if ran != 0 {
		t.Errorf("unregistered handler ran %d times", ran)
	}
	if d.Len() != 1 {
		t.Errorf("expected 1 handler left, got %d", d.Len())
	}

	// IDs are never reused
	if next := d.Register(ProcessFunc(func(uint32) int { return 0 })); next == id || next == other {
		t.Errorf("ID %d was reused", next)
	}
}

func TestDispatcherUnregisterAll(t *testing.T) {
	var d Dispatcher
	var released []int

	for i := 0; i < 3; i++ {
		i := i
		d.Register(ProcessFunc(func(uint32) int { return 0 }), OnRelease(func() { released = append(released, i) }))
	}
	d.UnregisterAll()

	if d.Len() != 0 {
		t.Errorf("expected no handlers, got %d", d.Len())
	}
	if len(released) != 3 || released[0] != 0 || released[2] != 2 {
		t.Errorf("unexpected release order %v", released)
	}
	if status := d.Process(64); status != 0 {
		t.Errorf("empty dispatcher returned %d", status)
	}
}

func TestDispatcherConcurrentRegistration(t *testing.T) {
	var d Dispatcher
	var cycles atomic.Uint64
	stop := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				d.Process(128)
				cycles.Add(1)
			}
		}
	}()

	for i := 0; i < 1000; i++ {
		id := d.Register(ProcessFunc(func(uint32) int { return 0 }))
		if i%2 == 0 {
			d.Unregister(id)
		}
	}
	close(stop)
	wg.Wait()

	if d.Len() != 500 {
		t.Errorf("expected 500 handlers, got %d", d.Len())
	}
}
