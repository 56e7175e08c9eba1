// ABOUTME: Sentinel errors for the real-time client layer
// ABOUTME: Wrapped with context by callers and matched with errors.Is
package rtclient

import "errors"

var (
	// ErrLogHandlerInstalled is returned when a log handler is already installed.
	ErrLogHandlerInstalled = errors.New("rtclient: log handler already installed")

	// ErrJACKUnavailable is returned by Open when built without JACK support.
	ErrJACKUnavailable = errors.New("rtclient: JACK support not enabled (build with -tags jack)")

	// ErrServer wraps non-zero status codes returned by the audio server.
	ErrServer = errors.New("rtclient: audio server error")

	// ErrClosed is returned when using a client after Close.
	ErrClosed = errors.New("rtclient: client closed")
)
