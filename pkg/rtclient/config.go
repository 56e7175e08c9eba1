// ABOUTME: Client configuration shared by the JACK client and its stub
// ABOUTME: Derives the server-visible client name
package rtclient

import "github.com/google/uuid"

// Config describes how to connect to the audio server
type Config struct {
	// Name is the client name shown by the server (default "rtbridge")
	Name string
	// UniqueSuffix appends a short random suffix so several instances can run
	UniqueSuffix bool
	// NoStartServer fails instead of starting a server when none is running
	NoStartServer bool
}

func (c Config) clientName() string {
	name := c.Name
	if name == "" {
		name = "rtbridge"
	}
	if c.UniqueSuffix {
		name += "-" + uuid.NewString()[:8]
	}
	return name
}
