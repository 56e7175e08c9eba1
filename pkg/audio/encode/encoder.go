// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for all audio encoders and a codec-based constructor
package encode

import (
	"fmt"

	"github.com/Resonate-Protocol/rtbridge/pkg/audio"
)

// Encoder encodes interleaved float32 samples to various formats
type Encoder interface {
	// Encode converts PCM samples to encoded audio data
	Encode(samples []float32) ([]byte, error)

	// FrameSize returns the number of samples per channel Encode expects per
	// call, or 0 if any length is accepted
	FrameSize() int

	// Close releases encoder resources
	Close() error
}

// New creates an encoder for format.Codec
func New(format audio.Format) (Encoder, error) {
	switch format.Codec {
	case "pcm":
		return NewPCM(format)
	case "opus":
		return NewOpus(format)
	default:
		return nil, fmt.Errorf("unsupported codec: %q (supported: pcm, opus)", format.Codec)
	}
}
