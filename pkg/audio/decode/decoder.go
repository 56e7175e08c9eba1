// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for all audio decoders and a codec-based constructor
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/rtbridge/pkg/audio"
)

// Decoder decodes audio in various formats to interleaved float32 samples
type Decoder interface {
	// Decode converts encoded audio data to PCM samples
	Decode(data []byte) ([]float32, error)

	// Close releases decoder resources
	Close() error
}

// New creates a decoder for format.Codec
func New(format audio.Format) (Decoder, error) {
	switch format.Codec {
	case "pcm":
		return NewPCM(format)
	case "opus":
		return NewOpus(format)
	default:
		return nil, fmt.Errorf("unsupported codec: %q (supported: pcm, opus)", format.Codec)
	}
}
