// ABOUTME: Capture application orchestration
// ABOUTME: Feeds an input device or generated source into a ring drained by the monitor server
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/Resonate-Protocol/rtbridge/internal/monitor"
	"github.com/Resonate-Protocol/rtbridge/pkg/audio"
	"github.com/Resonate-Protocol/rtbridge/pkg/audio/input"
	"github.com/Resonate-Protocol/rtbridge/pkg/audio/source"
)

// CaptureConfig holds capture configuration
type CaptureConfig struct {
	// Input is "malgo", "jack", "tone", or a file or URL played in real time
	Input      string
	Loop       bool
	SampleRate int
	Channels   int
	// BufferMs sizes the ring (default 500)
	BufferMs   int
	LockMemory bool
	// Device overrides Input with an already constructed input
	Device input.Input

	Monitor monitor.Config
}

// Capture streams one input to network listeners
type Capture struct {
	config CaptureConfig
	in     input.Input
	ring   *ring
	server *monitor.Server
	format audio.Format
	name   string
}

// NewCapture creates a capture application
func NewCapture(config CaptureConfig) *Capture {
	if config.BufferMs <= 0 {
		config.BufferMs = 500
	}
	if config.SampleRate <= 0 {
		config.SampleRate = source.DefaultSampleRate
	}
	if config.Channels <= 0 {
		config.Channels = source.DefaultChannels
	}
	return &Capture{config: config}
}

// openInput resolves the configured input and the format it produces
func (c *Capture) openInput() (input.Input, audio.Format, error) {
	format := audio.Format{SampleRate: c.config.SampleRate, Channels: c.config.Channels}

	if c.config.Device != nil {
		return c.deviceFormat(c.config.Device, format)
	}

	switch c.config.Input {
	case "malgo", "jack", "":
		in, err := input.New(c.config.Input)
		if err != nil {
			return nil, format, err
		}
		return c.deviceFormat(in, format)
	case "tone":
		tone := source.NewTestTone(format.SampleRate, format.Channels)
		c.name = "Test Tone (440Hz)"
		return input.NewGenerator(tone, 0), format, nil
	}

	src, err := source.Open(context.Background(), c.config.Input, c.config.Loop)
	if err != nil {
		return nil, format, err
	}
	title, artist, _ := src.Metadata()
	c.name = title
	if artist != "" {
		c.name = artist + " - " + title
	}
	format = audio.Format{SampleRate: src.SampleRate(), Channels: src.Channels()}
	return input.NewGenerator(src, 0), format, nil
}

// deviceFormat takes the sample rate from inputs that dictate one
func (c *Capture) deviceFormat(in input.Input, format audio.Format) (input.Input, audio.Format, error) {
	fixed, ok := in.(input.FixedRate)
	if !ok {
		return in, format, nil
	}
	rate, err := fixed.DeviceRate()
	if err != nil {
		in.Close()
		return nil, format, err
	}
	if rate != format.SampleRate {
		log.Printf("Capture rate %d Hz set by device (requested %d Hz)", rate, format.SampleRate)
	}
	format.SampleRate = rate
	return in, format, nil
}

// Open starts the input and prepares the monitor
func (c *Capture) Open() error {
	in, format, err := c.openInput()
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	c.in = in
	c.format = format
	if c.name == "" {
		c.name = c.config.Input
	}

	c.ring, err = newRing(format.SampleRate, format.Channels, c.config.BufferMs, c.config.LockMemory)
	if err != nil {
		return err
	}

	monitorConfig := c.config.Monitor
	monitorConfig.Format = format
	c.server = monitor.New(monitorConfig, c.ring.reader)
	if oc, ok := in.(input.OverrunCounter); ok {
		c.server.SetOverrunCounter(oc.Overruns)
	}

	if err := in.Open(format, c.ring.writer); err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}

	log.Printf("Capturing %s (%s)", c.name, format)
	return nil
}

// Run serves listeners until Stop is called
func (c *Capture) Run() error {
	if c.server == nil {
		return fmt.Errorf("capture not open")
	}
	return c.server.Start()
}

// Stop ends the monitor, which makes Run return
func (c *Capture) Stop() {
	if c.server != nil {
		c.server.Stop()
	}
}

// Name describes the input for status displays
func (c *Capture) Name() string {
	return c.name
}

// Format returns the captured format
func (c *Capture) Format() audio.Format {
	return c.format
}

// Server returns the monitor, or nil before Open
func (c *Capture) Server() *monitor.Server {
	return c.server
}

// Close releases the input and ring. Call after Run returns.
func (c *Capture) Close() error {
	var err error
	if c.in != nil {
		err = c.in.Close()
	}
	if c.ring != nil {
		c.ring.close()
		c.ring = nil
	}
	return err
}
