//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: The PortAudio stream callback fills float32 buffers from the ring
package output

import (
	"fmt"
	"log"

	"github.com/Resonate-Protocol/rtbridge/pkg/audio"
	"github.com/Resonate-Protocol/rtbridge/pkg/rtio"
	"github.com/gordonklaus/portaudio"
)

// PortAudio output implementation
type PortAudio struct {
	renderer

	stream *portaudio.Stream
}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() *PortAudio {
	p := &PortAudio{}
	p.gain.volume.Store(100)
	return p
}

// Open initializes PortAudio and starts the default output stream
func (p *PortAudio) Open(format audio.Format, r *rtio.Float32Reader) error {
	if err := format.Validate(); err != nil {
		return err
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	p.reader = r
	p.channels = format.Channels
	stream, err := portaudio.OpenDefaultStream(0, format.Channels, float64(format.SampleRate), 0, func(out []float32) {
		p.render(out)
	})
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("failed to start stream: %w", err)
	}

	p.stream = stream
	log.Printf("Audio output initialized: %s (portaudio)", format)
	return nil
}

// Close releases resources
func (p *PortAudio) Close() error {
	if p.stream != nil {
		if err := p.stream.Stop(); err != nil {
			return err
		}
		if err := p.stream.Close(); err != nil {
			return err
		}
		p.stream = nil
	}
	return portaudio.Terminate()
}
