// ABOUTME: Monitor server streaming a capture ring over WebSocket
// ABOUTME: Manages connections, handshakes, per-client writers and mDNS advertisement
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/rtbridge/internal/discovery"
	"github.com/Resonate-Protocol/rtbridge/pkg/audio"
	"github.com/Resonate-Protocol/rtbridge/pkg/protocol"
	"github.com/Resonate-Protocol/rtbridge/pkg/rtio"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Config holds server configuration
type Config struct {
	Port       int
	Name       string
	Path       string
	EnableMDNS bool
	Debug      bool

	// Format is the interleaved float32 layout of the capture ring
	Format audio.Format

	// ChunkDuration is the engine tick (default 20ms)
	ChunkDuration time.Duration
	// StatsInterval is how often monitor/stats is broadcast (default 1s)
	StatsInterval time.Duration
	// SendBuffer is the per-client outgoing queue length (default 100)
	SendBuffer int
}

// Server streams one capture ring to any number of listeners
type Server struct {
	config    Config
	serverID  string
	sessionID string

	upgrader   websocket.Upgrader
	httpServer *http.Server
	mux        *http.ServeMux

	clients   map[string]*Client
	clientsMu sync.RWMutex

	engine *engine

	mdnsManager *discovery.Manager

	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup

	stats atomic.Pointer[protocol.RingStats]
}

// New creates a server that drains r. The server becomes the ring's only
// consumer.
func New(config Config, r *rtio.Float32Reader) *Server {
	if config.Name == "" {
		config.Name = "rtbridge"
	}
	if config.Path == "" {
		config.Path = protocol.DefaultPath
	}
	if config.ChunkDuration <= 0 {
		config.ChunkDuration = 20 * time.Millisecond
	}
	if config.StatsInterval <= 0 {
		config.StatsInterval = time.Second
	}
	if config.SendBuffer <= 0 {
		config.SendBuffer = 100
	}

	s := &Server{
		config:    config,
		serverID:  uuid.New().String(),
		sessionID: uuid.New().String(),
		mux:       http.NewServeMux(),
		upgrader: websocket.Upgrader{
			// Monitors run on trusted local networks; browsers send an Origin
			// header and are accepted with a warning
			CheckOrigin: func(r *http.Request) bool {
				if origin := r.Header.Get("Origin"); origin != "" {
					log.Printf("Warning: accepting WebSocket from origin: %s", origin)
				}
				return true
			},
		},
		clients:  make(map[string]*Client),
		stopChan: make(chan struct{}),
	}
	s.engine = newEngine(s, r)
	s.mux.HandleFunc(config.Path, s.handleWebSocket)
	return s
}

// Handler returns the HTTP handler serving the websocket endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// SetOverrunCounter reports producer-side drops in monitor/stats
func (s *Server) SetOverrunCounter(fn func() uint64) {
	s.engine.overruns = fn
}

// Start runs the engine and HTTP server until Stop is called
func (s *Server) Start() error {
	if err := s.config.Format.Validate(); err != nil {
		return err
	}

	log.Printf("Monitor starting: %s (ID: %s, %s)", s.config.Name, s.serverID, s.config.Format)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Path:        s.config.Path,
			SampleRate:  s.config.Format.SampleRate,
			Channels:    s.config.Format.Channels,
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.engine.run(ctx)
	}()

	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("WebSocket server listening on %s%s", addr, s.config.Path)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case <-s.stopChan:
		log.Printf("Monitor shutting down...")
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		serverErr = err
	}

	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	cancel()
	s.endStreams("shutdown")

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	s.wg.Wait()
	log.Printf("Monitor stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// Stats returns the most recent ring statistics
func (s *Server) Stats() protocol.RingStats {
	if st := s.stats.Load(); st != nil {
		return *st
	}
	return protocol.RingStats{}
}

// ClientInfo describes a connected client for status displays
type ClientInfo struct {
	Name   string
	ID     string
	Codec  string
	Queued int
}

// Clients returns a snapshot of connected clients
func (s *Server) Clients() []ClientInfo {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	infos := make([]ClientInfo, 0, len(s.clients))
	for _, c := range s.clients {
		infos = append(infos, ClientInfo{
			Name:   c.Name,
			ID:     c.ID,
			Codec:  c.Format.Codec,
			Queued: len(c.sendChan),
		})
	}
	return infos
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	if s.config.Debug {
		log.Printf("[DEBUG] New WebSocket connection from %s", r.RemoteAddr)
	}
	s.handleConnection(conn)
}

// readHello waits for client/hello and validates it
func readHello(conn *websocket.Conn) (protocol.ClientHello, error) {
	var hello protocol.ClientHello

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	defer conn.SetReadDeadline(time.Time{})

	_, data, err := conn.ReadMessage()
	if err != nil {
		return hello, fmt.Errorf("error reading hello: %w", err)
	}

	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return hello, fmt.Errorf("error unmarshaling message: %w", err)
	}
	if msg.Type != protocol.TypeClientHello {
		return hello, fmt.Errorf("expected %s, got %s", protocol.TypeClientHello, msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, &hello); err != nil {
		return hello, fmt.Errorf("error unmarshaling client hello: %w", err)
	}
	if hello.ClientID == "" {
		return hello, fmt.Errorf("client hello missing client_id")
	}
	if hello.Name == "" {
		hello.Name = hello.ClientID
	}
	return hello, nil
}

func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		log.Printf("Rejecting connection during shutdown")
		return
	}
	s.shutdownMu.RUnlock()

	hello, err := readHello(conn)
	if err != nil {
		log.Printf("Handshake failed: %v", err)
		return
	}

	client, err := newClient(hello, conn, s.config.Format, s.config.SendBuffer)
	if err != nil {
		log.Printf("Client %s: %v", hello.Name, err)
		return
	}
	defer client.close()

	s.clientsMu.Lock()
	if existing, exists := s.clients[client.ID]; exists {
		s.clientsMu.Unlock()
		log.Printf("Client ID %s already connected (name: %s), rejecting duplicate", client.ID, existing.Name)
		conn.WriteJSON(protocol.Message{
			Type:    protocol.TypeStreamEnd,
			Payload: protocol.StreamEnd{Reason: "duplicate_client_id"},
		})
		return
	}
	s.clients[client.ID] = client
	s.clientsMu.Unlock()

	log.Printf("Client connected: %s (ID: %s, codec: %s)", client.Name, client.ID, client.Format.Codec)

	defer func() {
		s.removeClient(client)
		log.Printf("Client disconnected: %s", client.Name)
	}()

	s.sendMessage(client, protocol.TypeServerHello, protocol.ServerHello{
		ServerID:  s.serverID,
		Name:      s.config.Name,
		Version:   protocol.Version,
		SessionID: s.sessionID,
	})
	s.sendMessage(client, protocol.TypeStreamStart, protocol.StreamStart{
		Codec:      client.Format.Codec,
		SampleRate: client.Format.SampleRate,
		Channels:   client.Format.Channels,
		BitDepth:   client.Format.BitDepth,
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(client)
	}()

	client.streaming.Store(true)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		if s.handleClientMessage(client, data) {
			return
		}
	}
}

// removeClient unregisters a client and stops its writer
func (s *Server) removeClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if s.clients[client.ID] != client {
		return
	}
	delete(s.clients, client.ID)
	close(client.sendChan)
}

// clientWriter sends queued messages to the client
func (s *Server) clientWriter(client *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	const writeDeadline = 10 * time.Second

	for {
		select {
		case msg, ok := <-client.sendChan:
			if !ok {
				return
			}

			client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			var err error
			switch v := msg.(type) {
			case []byte:
				err = client.Conn.WriteMessage(websocket.BinaryMessage, v)
			default:
				err = client.Conn.WriteJSON(v)
			}
			if err != nil {
				log.Printf("Error writing to %s: %v", client.Name, err)
				return
			}

		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}

// handleClientMessage processes a text message and reports whether the
// client is leaving
func (s *Server) handleClientMessage(client *Client, data []byte) bool {
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		return false
	}

	switch msg.Type {
	case protocol.TypeClientGoodbye:
		var bye protocol.ClientGoodbye
		json.Unmarshal(msg.Payload, &bye)
		log.Printf("Client %s said goodbye (%s)", client.Name, bye.Reason)
		return true
	default:
		if s.config.Debug {
			log.Printf("[DEBUG] Unknown message type from %s: %s", client.Name, msg.Type)
		}
		return false
	}
}

// sendMessage queues a JSON message without blocking. Callers hold no lock
// or hold clientsMu, which keeps sendChan open.
func (s *Server) sendMessage(client *Client, msgType string, payload interface{}) bool {
	return s.enqueue(client, protocol.Message{Type: msgType, Payload: payload})
}

func (s *Server) enqueue(client *Client, msg interface{}) bool {
	select {
	case client.sendChan <- msg:
		return true
	default:
		client.mu.Lock()
		client.dropped++
		client.mu.Unlock()
		return false
	}
}

// endStreams tells every client the stream is over
func (s *Server) endStreams(reason string) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		s.sendMessage(client, protocol.TypeStreamEnd, protocol.StreamEnd{Reason: reason})
	}
}
