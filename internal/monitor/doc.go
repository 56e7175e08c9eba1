// ABOUTME: Monitor package documentation
// ABOUTME: Serves a capture ring to WebSocket listeners
// Package monitor serves a capture ring to network listeners.
//
// A single engine goroutine is the ring's consumer. Every tick it drains all
// whole frames, encodes them once per client in the codec negotiated from
// client/hello, and queues binary audio chunks stamped with the frame
// position since capture start. Slow clients lose chunks instead of
// stalling the ring.
package monitor
