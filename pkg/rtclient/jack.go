//go:build jack

// ABOUTME: JACK client built on go-jack
// ABOUTME: Opens the client, registers ports and routes the process callback through a Dispatcher
package rtclient

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/xthexder/go-jack"
)

// Client is a connection to a JACK server
type Client struct {
	mu         sync.Mutex
	jc         *jack.Client
	name       string
	dispatcher Dispatcher
	active     bool
	closed     bool
	shutdown   chan struct{}
}

// Open connects to the JACK server. The process callback is installed
// immediately; handlers registered on Dispatcher run once Activate is called.
func Open(config Config) (*Client, error) {
	name := config.clientName()

	var jc *jack.Client
	var status int
	if config.NoStartServer {
		jc, status = jack.ClientOpen(name, jack.NoStartServer)
	} else {
		jc, status = jack.ClientOpen(name, 0)
	}
	if status != 0 || jc == nil {
		return nil, fmt.Errorf("%w: open client %q: %v", ErrServer, name, jack.StrError(status))
	}

	c := &Client{
		jc:       jc,
		name:     jc.GetName(),
		shutdown: make(chan struct{}),
	}

	if code := jc.SetProcessCallback(c.dispatcher.Process); code != 0 {
		jc.Close()
		return nil, fmt.Errorf("%w: set process callback: %v", ErrServer, jack.StrError(code))
	}
	jc.OnShutdown(func() {
		Errorf("JACK server shut down client %s", c.name)
		close(c.shutdown)
	})

	Infof("JACK client %s opened (%d Hz, %d frames)", c.name, jc.GetSampleRate(), jc.GetBufferSize())
	return c, nil
}

// Name returns the name the server assigned
func (c *Client) Name() string { return c.name }

// Dispatcher returns the handler registry driven by the process callback
func (c *Client) Dispatcher() *Dispatcher { return &c.dispatcher }

// SampleRate returns the server sample rate
func (c *Client) SampleRate() int { return int(c.jc.GetSampleRate()) }

// BufferSize returns the current frames per cycle
func (c *Client) BufferSize() int { return int(c.jc.GetBufferSize()) }

// Shutdown is closed if the server stops the client
func (c *Client) Shutdown() <-chan struct{} { return c.shutdown }

func (c *Client) register(name, portType string, input bool) (*jack.Port, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	var port *jack.Port
	if input {
		port = c.jc.PortRegister(name, portType, jack.PortIsInput, 0)
	} else {
		port = c.jc.PortRegister(name, portType, jack.PortIsOutput, 0)
	}
	if port == nil {
		return nil, fmt.Errorf("%w: register port %q", ErrServer, name)
	}
	return port, nil
}

// RegisterAudioIn registers a mono audio input port
func (c *Client) RegisterAudioIn(name string) (*AudioPort, error) {
	port, err := c.register(name, jack.DEFAULT_AUDIO_TYPE, true)
	if err != nil {
		return nil, err
	}
	return &AudioPort{port: port}, nil
}

// RegisterAudioOut registers a mono audio output port
func (c *Client) RegisterAudioOut(name string) (*AudioPort, error) {
	port, err := c.register(name, jack.DEFAULT_AUDIO_TYPE, false)
	if err != nil {
		return nil, err
	}
	return &AudioPort{port: port}, nil
}

// RegisterMidiIn registers a MIDI input port
func (c *Client) RegisterMidiIn(name string) (*MidiPort, error) {
	port, err := c.register(name, jack.DEFAULT_MIDI_TYPE, true)
	if err != nil {
		return nil, err
	}
	return &MidiPort{port: port}, nil
}

// RegisterMidiOut registers a MIDI output port
func (c *Client) RegisterMidiOut(name string) (*MidiPort, error) {
	port, err := c.register(name, jack.DEFAULT_MIDI_TYPE, false)
	if err != nil {
		return nil, err
	}
	return &MidiPort{port: port}, nil
}

// Activate starts process callbacks
func (c *Client) Activate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.active {
		return nil
	}
	if code := c.jc.Activate(); code != 0 {
		return fmt.Errorf("%w: activate: %v", ErrServer, jack.StrError(code))
	}
	c.active = true
	return nil
}

// Connect connects two ports by full name, e.g. "rtbridge:out_1" to "system:playback_1"
func (c *Client) Connect(src, dst string) error {
	if code := c.jc.Connect(src, dst); code != 0 {
		return fmt.Errorf("%w: connect %s -> %s: %v", ErrServer, src, dst, jack.StrError(code))
	}
	return nil
}

// Close deactivates the client, releases every registered handler and
// disconnects from the server
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.active {
		if code := c.jc.Deactivate(); code != 0 {
			Errorf("deactivate %s: %v", c.name, jack.StrError(code))
		}
		c.active = false
	}
	// No process callback runs after Deactivate, so handlers can release rings
	c.dispatcher.UnregisterAll()

	if code := c.jc.Close(); code != 0 {
		return fmt.Errorf("%w: close: %v", ErrServer, jack.StrError(code))
	}
	Infof("JACK client %s closed", c.name)
	return nil
}

// AudioPort is a mono JACK audio port
type AudioPort struct {
	port *jack.Port
}

// Name returns the full port name
func (p *AudioPort) Name() string { return p.port.GetName() }

// Samples returns the port buffer for this cycle. Only valid inside the
// process callback.
func (p *AudioPort) Samples(nframes uint32) []float32 {
	buf := p.port.GetBuffer(nframes)
	if len(buf) == 0 {
		return nil
	}
	// jack.AudioSample is a float32
	return unsafe.Slice((*float32)(unsafe.Pointer(&buf[0])), len(buf))
}

// MidiPort is a JACK MIDI port
type MidiPort struct {
	port *jack.Port
}

// Name returns the full port name
func (p *MidiPort) Name() string { return p.port.GetName() }

// Events appends this cycle's input events to dst
func (p *MidiPort) Events(nframes uint32, dst []MidiEvent) []MidiEvent {
	for _, ev := range p.port.GetMidiEvents(nframes) {
		dst = append(dst, MidiEvent{Time: ev.Time, Data: ev.Buffer})
	}
	return dst
}

// Clear empties the output buffer for this cycle
func (p *MidiPort) Clear(nframes uint32) {
	p.port.MidiClearBuffer(nframes)
}

// WriteEvent queues ev on the output buffer
func (p *MidiPort) WriteEvent(ev MidiEvent, nframes uint32) bool {
	return p.port.MidiEventWrite(&jack.MidiData{Time: ev.Time, Buffer: ev.Data}, nframes) == 0
}
