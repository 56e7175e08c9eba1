// ABOUTME: WebSocket client for the monitor protocol
// ABOUTME: Handles connection, handshake, and message routing
package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultPath is the monitor websocket endpoint
const DefaultPath = "/stream"

// handshakeTimeout bounds the wait for server/hello
const handshakeTimeout = 5 * time.Second

// Config holds client configuration
type Config struct {
	ServerAddr       string
	Path             string
	ClientID         string
	Name             string
	SupportedFormats []AudioFormat
}

// Client represents a WebSocket client
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex
	server ServerHello

	// Message channels
	AudioChunks chan AudioChunk
	StreamStart chan StreamStart
	StreamEnd   chan StreamEnd
	Stats       chan RingStats

	// State
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	if config.Path == "" {
		config.Path = DefaultPath
	}
	if config.Name == "" {
		config.Name = "rtbridge"
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:      config,
		AudioChunks: make(chan AudioChunk, 100),
		StreamStart: make(chan StreamStart, 1),
		StreamEnd:   make(chan StreamEnd, 1),
		Stats:       make(chan RingStats, 10),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Connect establishes WebSocket connection and performs handshake
func (c *Client) Connect(ctx context.Context) error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: c.config.Path}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake sends client/hello and waits for server/hello
func (c *Client) handshake() error {
	hello := ClientHello{
		ClientID:         c.config.ClientID,
		Name:             c.config.Name,
		Version:          Version,
		SupportedFormats: c.config.SupportedFormats,
	}

	if err := c.sendJSON(Message{Type: TypeClientHello, Payload: hello}); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{}) // Clear deadline

	var serverMsg struct {
		Type    string      `json:"type"`
		Payload ServerHello `json:"payload"`
	}
	if err := json.Unmarshal(data, &serverMsg); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}

	if serverMsg.Type != TypeServerHello {
		return fmt.Errorf("expected %s, got %s", TypeServerHello, serverMsg.Type)
	}

	c.mu.Lock()
	c.server = serverMsg.Payload
	c.mu.Unlock()

	log.Printf("Handshake complete with %s (session %s)", serverMsg.Payload.Name, serverMsg.Payload.SessionID)
	return nil
}

// Server returns the server/hello received during the handshake
func (c *Client) Server() ServerHello {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.server
}

// sendJSON sends a JSON message
func (c *Client) sendJSON(msg Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	return c.conn.WriteJSON(msg)
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer c.Close()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.IsConnected() {
				log.Printf("Read error: %v", err)
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			c.handleBinaryMessage(data)
		case websocket.TextMessage:
			c.handleJSONMessage(data)
		default:
			log.Printf("Unknown WebSocket message type: %d", messageType)
		}
	}
}

// handleBinaryMessage handles audio chunks
func (c *Client) handleBinaryMessage(data []byte) {
	chunk, err := DecodeAudioChunk(data)
	if err != nil {
		log.Printf("Invalid binary message: %v", err)
		return
	}

	select {
	case c.AudioChunks <- chunk:
	case <-c.ctx.Done():
	}
}

// handleJSONMessage routes JSON messages
func (c *Client) handleJSONMessage(data []byte) {
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Failed to parse JSON message: %v", err)
		return
	}

	switch msg.Type {
	case TypeStreamStart:
		var start StreamStart
		if err := json.Unmarshal(msg.Payload, &start); err != nil {
			log.Printf("Failed to parse stream/start: %v", err)
			return
		}
		select {
		case c.StreamStart <- start:
		case <-c.ctx.Done():
		}

	case TypeStreamEnd:
		var end StreamEnd
		if err := json.Unmarshal(msg.Payload, &end); err != nil {
			log.Printf("Failed to parse stream/end: %v", err)
			return
		}
		select {
		case c.StreamEnd <- end:
		case <-c.ctx.Done():
		}

	case TypeRingStats:
		var stats RingStats
		if err := json.Unmarshal(msg.Payload, &stats); err != nil {
			log.Printf("Failed to parse monitor/stats: %v", err)
			return
		}
		select {
		case c.Stats <- stats:
		default:
			// Stats are periodic, a newer one will follow
		}

	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

// SendGoodbye sends a client/goodbye message before disconnecting
func (c *Client) SendGoodbye(reason string) error {
	return c.sendJSON(Message{
		Type:    TypeClientGoodbye,
		Payload: ClientGoodbye{Reason: reason},
	})
}

// Done is closed once the connection is gone
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancel()
	if c.connected {
		c.connected = false
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
