//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package output

import (
	"fmt"

	"github.com/Resonate-Protocol/rtbridge/pkg/audio"
	"github.com/Resonate-Protocol/rtbridge/pkg/rtio"
)

// PortAudio output implementation (stub)
type PortAudio struct{}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// Open initializes PortAudio
func (p *PortAudio) Open(format audio.Format, r *rtio.Float32Reader) error {
	return fmt.Errorf("PortAudio support not enabled (build with -tags portaudio)")
}

// Close releases resources
func (p *PortAudio) Close() error {
	return nil
}
