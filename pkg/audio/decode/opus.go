// ABOUTME: Opus audio decoder
// ABOUTME: Decodes Opus packets to float32 samples
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/rtbridge/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// maxOpusFrame is 120ms at 48kHz, the longest frame Opus allows
const maxOpusFrame = 5760

// OpusDecoder decodes Opus audio
type OpusDecoder struct {
	decoder *opus.Decoder
	format  audio.Format
	pcm     []int16
}

// NewOpus creates a new Opus decoder
func NewOpus(format audio.Format) (Decoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus decoder: %s", format.Codec)
	}

	dec, err := opus.NewDecoder(format.SampleRate, format.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &OpusDecoder{
		decoder: dec,
		format:  format,
		pcm:     make([]int16, maxOpusFrame*format.Channels),
	}, nil
}

// Decode converts an Opus packet to float32 samples
func (d *OpusDecoder) Decode(data []byte) ([]float32, error) {
	n, err := d.decoder.Decode(data, d.pcm)
	if err != nil {
		return nil, fmt.Errorf("opus decode failed: %w", err)
	}

	actualSamples := n * d.format.Channels
	out := make([]float32, actualSamples)
	for i := 0; i < actualSamples; i++ {
		out[i] = audio.FloatFromInt16(d.pcm[i])
	}
	return out, nil
}

// Close releases decoder resources
func (d *OpusDecoder) Close() error {
	return nil
}
