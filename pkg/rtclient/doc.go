// ABOUTME: Real-time client layer connecting audio server callbacks to rings
// ABOUTME: Diagnostics routing, callback dispatch, JACK client and ring bridges
// Package rtclient wires ring buffers into a real-time audio server.
//
// A Client owns the server connection and one Dispatcher. Everything the
// server calls on its process thread goes through Dispatcher.Process, which
// runs the registered handlers in order. Bridges are handlers that move audio
// or MIDI between server ports and rings using only non-blocking ring
// operations, so the process thread never waits on the Go side.
//
// Server diagnostics go through a process-wide log handler. Install one with
// InstallLogHandler at most once; the default writes through the log package.
//
// The JACK client needs cgo and libjack and is only built with -tags jack.
// Without the tag Open returns ErrJACKUnavailable and the rest of the package
// still works against any port implementation.
//
// Example:
//
//	client, err := rtclient.Open(rtclient.Config{Name: "rtbridge"})
//	out, err := client.RegisterAudioOut("out_1")
//	bridge := rtclient.NewAudioOutBridge(reader, client.BufferSize(), out)
//	client.Dispatcher().Register(bridge, rtclient.WithTag("playback"))
//	err = client.Activate()
package rtclient
