//go:build !jack

// ABOUTME: JACK client stub when libjack is not available
// ABOUTME: Keeps the Client API compiling and reports ErrJACKUnavailable
package rtclient

// Client is a connection to a JACK server (stub)
type Client struct {
	dispatcher Dispatcher
}

// Open always fails without JACK support
func Open(config Config) (*Client, error) {
	return nil, ErrJACKUnavailable
}

func (c *Client) Name() string                                { return "" }
func (c *Client) Dispatcher() *Dispatcher                     { return &c.dispatcher }
func (c *Client) SampleRate() int                             { return 0 }
func (c *Client) BufferSize() int                             { return 0 }
func (c *Client) Shutdown() <-chan struct{}                   { return nil }
func (c *Client) RegisterAudioIn(string) (*AudioPort, error)  { return nil, ErrJACKUnavailable }
func (c *Client) RegisterAudioOut(string) (*AudioPort, error) { return nil, ErrJACKUnavailable }
func (c *Client) RegisterMidiIn(string) (*MidiPort, error)    { return nil, ErrJACKUnavailable }
func (c *Client) RegisterMidiOut(string) (*MidiPort, error)   { return nil, ErrJACKUnavailable }
func (c *Client) Activate() error                             { return ErrJACKUnavailable }
func (c *Client) Connect(src, dst string) error               { return ErrJACKUnavailable }
func (c *Client) Close() error                                { return nil }

// AudioPort is a mono JACK audio port (stub)
type AudioPort struct{}

func (p *AudioPort) Name() string                     { return "" }
func (p *AudioPort) Samples(nframes uint32) []float32 { return nil }

// MidiPort is a JACK MIDI port (stub)
type MidiPort struct{}

func (p *MidiPort) Name() string                                       { return "" }
func (p *MidiPort) Events(nframes uint32, dst []MidiEvent) []MidiEvent { return dst }
func (p *MidiPort) Clear(nframes uint32)                               {}
func (p *MidiPort) WriteEvent(ev MidiEvent, nframes uint32) bool       { return false }
