// ABOUTME: Monitor protocol message type definitions
// ABOUTME: JSON control messages and the binary audio frame layout
package protocol

import (
	"encoding/binary"
	"errors"
)

// Version is the protocol version carried in hello messages
const Version = 1

// Message types
const (
	TypeClientHello   = "client/hello"
	TypeServerHello   = "server/hello"
	TypeStreamStart   = "stream/start"
	TypeStreamEnd     = "stream/end"
	TypeRingStats     = "monitor/stats"
	TypeClientGoodbye = "client/goodbye"
)

const (
	// BinaryMessageHeaderSize is the size of binary message header (type byte + frame position)
	BinaryMessageHeaderSize = 1 + 8

	// AudioChunkMessageType is the binary message type ID for audio chunks
	AudioChunkMessageType = 4
)

// ErrShortFrame is returned for binary messages smaller than the header
var ErrShortFrame = errors.New("protocol: binary message too short")

// ErrUnknownFrame is returned for binary messages with an unknown type byte
var ErrUnknownFrame = errors.New("protocol: unknown binary message type")

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ClientHello is sent by clients to initiate the handshake
type ClientHello struct {
	ClientID         string        `json:"client_id"`
	Name             string        `json:"name"`
	Version          int           `json:"version"`
	SupportedFormats []AudioFormat `json:"supported_formats"`
}

// AudioFormat describes a supported audio format
type AudioFormat struct {
	Codec      string `json:"codec"`
	Channels   int    `json:"channels"`
	SampleRate int    `json:"sample_rate"`
	BitDepth   int    `json:"bit_depth"`
}

// ServerHello is the server's response to client/hello
type ServerHello struct {
	ServerID  string `json:"server_id"`
	Name      string `json:"name"`
	Version   int    `json:"version"`
	SessionID string `json:"session_id"`
}

// StreamStart notifies the client of the negotiated stream format
type StreamStart struct {
	Codec      string `json:"codec"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	BitDepth   int    `json:"bit_depth"`
}

// StreamEnd tells the client no more audio follows
type StreamEnd struct {
	Reason string `json:"reason"`
}

// RingStats reports the capture ring as seen by the server
type RingStats struct {
	Capacity int    `json:"capacity"`
	Readable int    `json:"readable"`
	Written  uint64 `json:"written"`
	Read     uint64 `json:"read"`
	Overruns uint64 `json:"overruns"`
	Clients  int    `json:"clients"`
}

// ClientGoodbye is sent before graceful disconnect
type ClientGoodbye struct {
	Reason string `json:"reason"` // "shutdown", "user_request"
}

// AudioChunk is one encoded block of audio
type AudioChunk struct {
	Frame uint64 // position of the first sample frame since capture start
	Data  []byte // Encoded audio
}

// EncodeAudioChunk builds a binary audio message
func EncodeAudioChunk(frame uint64, data []byte) []byte {
	msg := make([]byte, BinaryMessageHeaderSize+len(data))
	msg[0] = AudioChunkMessageType
	binary.BigEndian.PutUint64(msg[1:BinaryMessageHeaderSize], frame)
	copy(msg[BinaryMessageHeaderSize:], data)
	return msg
}

// DecodeAudioChunk parses a binary audio message. Data aliases msg.
func DecodeAudioChunk(msg []byte) (AudioChunk, error) {
	if len(msg) < BinaryMessageHeaderSize {
		return AudioChunk{}, ErrShortFrame
	}
	if msg[0] != AudioChunkMessageType {
		return AudioChunk{}, ErrUnknownFrame
	}
	return AudioChunk{
		Frame: binary.BigEndian.Uint64(msg[1:BinaryMessageHeaderSize]),
		Data:  msg[BinaryMessageHeaderSize:],
	}, nil
}
