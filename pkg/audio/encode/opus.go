// ABOUTME: Opus audio encoder
// ABOUTME: Encodes 20ms frames of float32 samples to Opus packets
package encode

import (
	"fmt"
	"log"

	"github.com/Resonate-Protocol/rtbridge/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// maxOpusPacket is the largest packet libopus can produce
const maxOpusPacket = 4000

// OpusEncoder encodes Opus audio
type OpusEncoder struct {
	encoder    *opus.Encoder
	sampleRate int
	channels   int
	frameSize  int
	pcm        []int16
	packet     []byte
}

// NewOpus creates a new Opus encoder
func NewOpus(format audio.Format) (Encoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus encoder: %s", format.Codec)
	}

	encoder, err := opus.NewEncoder(format.SampleRate, format.Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	// 64 kbps per channel
	if err := encoder.SetBitrate(64000 * format.Channels); err != nil {
		log.Printf("Warning: Failed to set Opus bitrate: %v", err)
	}

	// Opus frame size depends on sample rate
	frameSize := format.SampleRate / 50 // 20ms frame

	return &OpusEncoder{
		encoder:    encoder,
		sampleRate: format.SampleRate,
		channels:   format.Channels,
		frameSize:  frameSize,
		pcm:        make([]int16, frameSize*format.Channels),
		packet:     make([]byte, maxOpusPacket),
	}, nil
}

// Encode converts exactly one frame of float32 samples to an Opus packet
func (e *OpusEncoder) Encode(samples []float32) ([]byte, error) {
	if len(samples) != len(e.pcm) {
		return nil, fmt.Errorf("opus frame must be %d samples, got %d", len(e.pcm), len(samples))
	}

	for i, sample := range samples {
		e.pcm[i] = audio.FloatToInt16(sample)
	}

	n, err := e.encoder.Encode(e.pcm, e.packet)
	if err != nil {
		return nil, fmt.Errorf("opus encode error: %w", err)
	}

	out := make([]byte, n)
	copy(out, e.packet[:n])
	return out, nil
}

// FrameSize returns samples per channel per packet
func (e *OpusEncoder) FrameSize() int {
	return e.frameSize
}

// Close releases resources
func (e *OpusEncoder) Close() error {
	// opus.Encoder doesn't have a Close method, nothing to do
	return nil
}
