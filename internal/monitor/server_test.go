// ABOUTME: Tests for the monitor server
// ABOUTME: Streams a ring to protocol clients over httptest and checks negotiation
package monitor

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Resonate-Protocol/rtbridge/pkg/audio"
	"github.com/Resonate-Protocol/rtbridge/pkg/audio/decode"
	"github.com/Resonate-Protocol/rtbridge/pkg/protocol"
	"github.com/Resonate-Protocol/rtbridge/pkg/ringbuf"
	"github.com/Resonate-Protocol/rtbridge/pkg/rtio"
)

var stereo48k = audio.Format{SampleRate: 48000, Channels: 2}

func newTestServer(t *testing.T, format audio.Format) (*Server, *rtio.Float32Writer, string) {
	t.Helper()

	store, err := ringbuf.New(1 << 16)
	if err != nil {
		t.Fatalf("ringbuf.New failed: %v", err)
	}
	p, c := store.Split()
	t.Cleanup(func() {
		p.Close()
		c.Close()
	})

	s := New(Config{Name: "Test Monitor", Format: format}, rtio.NewFloat32Reader(c))
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return s, rtio.NewFloat32Writer(p), strings.TrimPrefix(srv.URL, "http://")
}

func connect(t *testing.T, addr, id string, formats ...protocol.AudioFormat) *protocol.Client {
	t.Helper()

	client := protocol.NewClient(protocol.Config{
		ServerAddr:       addr,
		ClientID:         id,
		Name:             "listener-" + id,
		SupportedFormats: formats,
	})
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	return client
}

// waitStreaming blocks until the server streams to id
func waitStreaming(t *testing.T, s *Server, id string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.clientsMu.RLock()
		c := s.clients[id]
		s.clientsMu.RUnlock()
		if c != nil && c.streaming.Load() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client %s never started streaming", id)
}

func TestNegotiateFormat(t *testing.T) {
	tests := []struct {
		name      string
		offers    []protocol.AudioFormat
		capture   audio.Format
		wantCodec string
		wantDepth int
	}{
		{"no offers", nil, stereo48k, "pcm", 16},
		{"opus first", []protocol.AudioFormat{{Codec: "opus"}, {Codec: "pcm"}}, stereo48k, "opus", 16},
		{"opus rate unsupported", []protocol.AudioFormat{{Codec: "opus"}}, audio.Format{SampleRate: 44100, Channels: 2}, "pcm", 16},
		{"pcm 24", []protocol.AudioFormat{{Codec: "pcm", BitDepth: 24}}, stereo48k, "pcm", 24},
		{"channel mismatch skipped", []protocol.AudioFormat{{Codec: "pcm", Channels: 1, BitDepth: 24}}, stereo48k, "pcm", 16},
		{"flac falls back", []protocol.AudioFormat{{Codec: "flac"}}, stereo48k, "pcm", 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := negotiateFormat(tt.offers, tt.capture)
			if got.Codec != tt.wantCodec || got.BitDepth != tt.wantDepth {
				t.Errorf("expected %s/%d, got %s/%d", tt.wantCodec, tt.wantDepth, got.Codec, got.BitDepth)
			}
			if got.SampleRate != tt.capture.SampleRate || got.Channels != tt.capture.Channels {
				t.Errorf("expected capture layout %s, got %s", tt.capture, got)
			}
		})
	}
}

func TestStreamsRingToClient(t *testing.T) {
	s, w, addr := newTestServer(t, stereo48k)
	client := connect(t, addr, "a", protocol.AudioFormat{Codec: "pcm", BitDepth: 16})
	waitStreaming(t, s, "a")

	select {
	case start := <-client.StreamStart:
		if start.Codec != "pcm" || start.SampleRate != 48000 || start.Channels != 2 {
			t.Errorf("unexpected stream/start %+v", start)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no stream/start")
	}

	w.WriteSamples([]float32{0.5, -0.5, 0.25, -0.25, 0.125})
	if frames := s.engine.pump(); frames != 2 {
		t.Fatalf("expected 2 frames pumped, got %d", frames)
	}

	dec, err := decode.New(audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16})
	if err != nil {
		t.Fatalf("decode.New failed: %v", err)
	}

	select {
	case chunk := <-client.AudioChunks:
		if chunk.Frame != 0 {
			t.Errorf("expected frame 0, got %d", chunk.Frame)
		}
		samples, err := dec.Decode(chunk.Data)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if len(samples) != 4 {
			t.Fatalf("expected 4 samples, got %d", len(samples))
		}
		if samples[0] < 0.49 || samples[0] > 0.51 {
			t.Errorf("expected ~0.5, got %v", samples[0])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no audio chunk")
	}

	// The odd sample stays in the ring until its frame completes
	w.WriteSamples([]float32{0.1})
	s.engine.pump()

	select {
	case chunk := <-client.AudioChunks:
		if chunk.Frame != 2 {
			t.Errorf("expected frame 2, got %d", chunk.Frame)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no second audio chunk")
	}
}

func TestOpusClientGetsWholeFrames(t *testing.T) {
	s, w, addr := newTestServer(t, stereo48k)
	client := connect(t, addr, "o", protocol.AudioFormat{Codec: "opus"})
	waitStreaming(t, s, "o")

	// 1.5 Opus frames: one packet now, the rest stays pending
	samples := make([]float32, 1440*2)
	w.WriteSamples(samples)
	s.engine.pump()

	select {
	case chunk := <-client.AudioChunks:
		if chunk.Frame != 0 || len(chunk.Data) == 0 {
			t.Errorf("unexpected chunk at frame %d with %d bytes", chunk.Frame, len(chunk.Data))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no opus packet")
	}

	w.WriteSamples(samples[:480*2])
	s.engine.pump()

	select {
	case chunk := <-client.AudioChunks:
		if chunk.Frame != 960 {
			t.Errorf("expected frame 960, got %d", chunk.Frame)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no second opus packet")
	}
}

func TestStatsBroadcast(t *testing.T) {
	s, w, addr := newTestServer(t, stereo48k)
	s.SetOverrunCounter(func() uint64 { return 7 })
	client := connect(t, addr, "s")
	waitStreaming(t, s, "s")

	w.WriteSamples(make([]float32, 10))
	s.engine.broadcastStats()

	select {
	case stats := <-client.Stats:
		if stats.Readable != 40 {
			t.Errorf("expected 40 readable bytes, got %d", stats.Readable)
		}
		if stats.Overruns != 7 || stats.Clients != 1 {
			t.Errorf("unexpected stats %+v", stats)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no monitor/stats")
	}

	if s.Stats().Capacity != (1<<16)-1 {
		t.Errorf("expected capacity %d, got %d", (1<<16)-1, s.Stats().Capacity)
	}
}

func TestGoodbyeRemovesClient(t *testing.T) {
	s, _, addr := newTestServer(t, stereo48k)
	client := connect(t, addr, "g")
	waitStreaming(t, s, "g")

	if err := client.SendGoodbye("user_request"); err != nil {
		t.Fatalf("SendGoodbye failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(s.Clients()) != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := len(s.Clients()); n != 0 {
		t.Errorf("expected no clients, got %d", n)
	}
}

func TestPumpWithoutListenersDrainsRing(t *testing.T) {
	s, w, _ := newTestServer(t, stereo48k)

	w.WriteSamples(make([]float32, 100))
	if frames := s.engine.pump(); frames != 50 {
		t.Errorf("expected 50 frames, got %d", frames)
	}
	if s.engine.reader.ReadableSamples() != 0 {
		t.Error("expected ring drained")
	}
}

func TestDuplicateClientIDRejected(t *testing.T) {
	s, _, addr := newTestServer(t, stereo48k)
	connect(t, addr, "dup")
	waitStreaming(t, s, "dup")

	second := protocol.NewClient(protocol.Config{ServerAddr: addr, ClientID: "dup"})
	defer second.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := second.Connect(ctx); err == nil {
		t.Fatal("expected duplicate client to fail the handshake")
	}
	if n := len(s.Clients()); n != 1 {
		t.Errorf("expected 1 client, got %d", n)
	}
}
