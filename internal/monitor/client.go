// ABOUTME: Per-connection state for monitor clients
// ABOUTME: Negotiates a codec from client/hello and encodes ring audio for one listener
package monitor

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/rtbridge/pkg/audio"
	"github.com/Resonate-Protocol/rtbridge/pkg/audio/encode"
	"github.com/Resonate-Protocol/rtbridge/pkg/protocol"
	"github.com/gorilla/websocket"
)

// Client represents a connected listener
type Client struct {
	ID     string
	Name   string
	Conn   *websocket.Conn
	Format audio.Format

	encoder encode.Encoder
	// pending holds samples waiting for a full encoder frame; pendingFrame is
	// the ring position of pending[0]
	pending      []float32
	pendingFrame uint64
	dropped      uint64

	// streaming is set once server/hello and stream/start are queued
	streaming atomic.Bool

	sendChan chan interface{}
	mu       sync.Mutex
}

// opusRates lists the sample rates the Opus encoder accepts
var opusRates = map[int]bool{8000: true, 12000: true, 16000: true, 24000: true, 48000: true}

// negotiateFormat picks the first client format the capture stream can be
// encoded as. Zero rate or channels in an offer match anything. Anything
// unusable falls back to 16-bit PCM.
func negotiateFormat(offers []protocol.AudioFormat, capture audio.Format) audio.Format {
	format := audio.Format{
		Codec:      "pcm",
		SampleRate: capture.SampleRate,
		Channels:   capture.Channels,
		BitDepth:   16,
	}

	for _, offer := range offers {
		if offer.SampleRate != 0 && offer.SampleRate != capture.SampleRate {
			continue
		}
		if offer.Channels != 0 && offer.Channels != capture.Channels {
			continue
		}
		switch offer.Codec {
		case "opus":
			if opusRates[capture.SampleRate] && capture.Channels <= 2 {
				format.Codec = "opus"
				format.BitDepth = 16
				return format
			}
		case "pcm":
			switch offer.BitDepth {
			case 0, 16:
				return format
			case 24:
				format.BitDepth = 24
				return format
			}
		}
	}
	return format
}

// newClient negotiates a format and creates the client's encoder
func newClient(hello protocol.ClientHello, conn *websocket.Conn, capture audio.Format, sendBuffer int) (*Client, error) {
	format := negotiateFormat(hello.SupportedFormats, capture)
	encoder, err := encode.New(format)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s encoder: %w", format.Codec, err)
	}

	return &Client{
		ID:       hello.ClientID,
		Name:     hello.Name,
		Conn:     conn,
		Format:   format,
		encoder:  encoder,
		sendChan: make(chan interface{}, sendBuffer),
	}, nil
}

// encodeChunks appends samples starting at frame and returns the binary
// messages for every complete encoder frame
func (c *Client) encodeChunks(frame uint64, samples []float32) ([][]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.encoder == nil {
		return nil, nil
	}
	size := c.encoder.FrameSize() * c.Format.Channels
	if size == 0 {
		data, err := c.encoder.Encode(samples)
		if err != nil {
			return nil, err
		}
		return [][]byte{protocol.EncodeAudioChunk(frame, data)}, nil
	}

	if len(c.pending) == 0 {
		c.pendingFrame = frame
	}
	c.pending = append(c.pending, samples...)

	var msgs [][]byte
	consumed := 0
	for len(c.pending)-consumed >= size {
		data, err := c.encoder.Encode(c.pending[consumed : consumed+size])
		if err != nil {
			return msgs, err
		}
		msgs = append(msgs, protocol.EncodeAudioChunk(c.pendingFrame, data))
		c.pendingFrame += uint64(c.encoder.FrameSize())
		consumed += size
	}
	c.pending = append(c.pending[:0], c.pending[consumed:]...)
	return msgs, nil
}

// close releases the encoder
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.encoder != nil {
		c.encoder.Close()
		c.encoder = nil
	}
}
