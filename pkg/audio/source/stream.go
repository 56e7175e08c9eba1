// ABOUTME: Source that plays a remote monitor stream
// ABOUTME: Receives encoded chunks over the monitor protocol and decodes them to float32
package source

import (
	"context"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/rtbridge/pkg/audio"
	"github.com/Resonate-Protocol/rtbridge/pkg/audio/decode"
	"github.com/Resonate-Protocol/rtbridge/pkg/protocol"
	"github.com/google/uuid"
)

// StreamConfig selects the monitor to listen to
type StreamConfig struct {
	ServerAddr string
	Path       string
	Name       string
	// Codecs in order of preference, defaults to opus then pcm
	Codecs []string
}

// StreamSource reads audio from a monitor over websocket
type StreamSource struct {
	client  *protocol.Client
	decoder decode.Decoder
	format  audio.Format
	server  string
	pending []float32
	ended   bool
}

// NewStream connects to a monitor and waits for its stream/start
func NewStream(ctx context.Context, config StreamConfig) (*StreamSource, error) {
	codecs := config.Codecs
	if len(codecs) == 0 {
		codecs = []string{"opus", "pcm"}
	}
	formats := make([]protocol.AudioFormat, 0, len(codecs))
	for _, codec := range codecs {
		formats = append(formats, protocol.AudioFormat{Codec: codec, BitDepth: 16})
	}

	client := protocol.NewClient(protocol.Config{
		ServerAddr:       config.ServerAddr,
		Path:             config.Path,
		ClientID:         uuid.New().String(),
		Name:             config.Name,
		SupportedFormats: formats,
	})
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("monitor connect: %w", err)
	}

	var start protocol.StreamStart
	select {
	case start = <-client.StreamStart:
	case <-client.Done():
		return nil, fmt.Errorf("monitor closed before stream/start")
	case <-ctx.Done():
		client.Close()
		return nil, ctx.Err()
	}

	format := audio.Format{
		Codec:      start.Codec,
		SampleRate: start.SampleRate,
		Channels:   start.Channels,
		BitDepth:   start.BitDepth,
	}
	if err := format.Validate(); err != nil {
		client.Close()
		return nil, fmt.Errorf("monitor stream format: %w", err)
	}

	decoder, err := decode.New(format)
	if err != nil {
		client.Close()
		return nil, err
	}

	return &StreamSource{
		client:  client,
		decoder: decoder,
		format:  format,
		server:  client.Server().Name,
	}, nil
}

// Format returns the negotiated stream format
func (s *StreamSource) Format() audio.Format {
	return s.format
}

// Read blocks until at least one decoded sample is available. Chunks that
// arrived before stream/end are still played.
func (s *StreamSource) Read(samples []float32) (int, error) {
	for len(s.pending) == 0 {
		var chunk protocol.AudioChunk
		if s.ended {
			select {
			case chunk = <-s.client.AudioChunks:
			default:
				return 0, io.EOF
			}
		} else {
			select {
			case chunk = <-s.client.AudioChunks:
			case <-s.client.StreamEnd:
				s.ended = true
				continue
			case <-s.client.Done():
				s.ended = true
				continue
			}
		}

		decoded, err := s.decoder.Decode(chunk.Data)
		if err != nil {
			return 0, err
		}
		s.pending = decoded
	}

	n := copy(samples, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *StreamSource) SampleRate() int { return s.format.SampleRate }
func (s *StreamSource) Channels() int   { return s.format.Channels }
func (s *StreamSource) Metadata() (string, string, string) {
	return "Monitor Stream", s.server, ""
}

func (s *StreamSource) Close() error {
	s.client.SendGoodbye("shutdown")
	s.client.Close()
	return s.decoder.Close()
}
