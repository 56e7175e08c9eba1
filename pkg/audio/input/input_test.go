// ABOUTME: Audio input tests
// ABOUTME: Covers frame-aligned capture, overrun counting and the generated input
package input

import (
	"errors"
	"testing"
	"time"

	"github.com/Resonate-Protocol/rtbridge/pkg/audio"
	"github.com/Resonate-Protocol/rtbridge/pkg/audio/source"
	"github.com/Resonate-Protocol/rtbridge/pkg/ringbuf"
	"github.com/Resonate-Protocol/rtbridge/pkg/rtclient"
	"github.com/Resonate-Protocol/rtbridge/pkg/rtio"
)

var (
	_ Input          = (*Malgo)(nil)
	_ Input          = (*JACK)(nil)
	_ Input          = (*Generator)(nil)
	_ OverrunCounter = (*Malgo)(nil)
	_ OverrunCounter = (*JACK)(nil)
	_ OverrunCounter = (*Generator)(nil)
	_ FixedRate      = (*JACK)(nil)
)

func newRing(t *testing.T, capacity int) (*rtio.Float32Writer, *rtio.Float32Reader) {
	t.Helper()

	store, err := ringbuf.New(capacity)
	if err != nil {
		t.Fatalf("ringbuf.New failed: %v", err)
	}
	p, c := store.Split()
	t.Cleanup(func() {
		p.Close()
		c.Close()
	})
	return rtio.NewFloat32Writer(p), rtio.NewFloat32Reader(c)
}

func TestNewBackend(t *testing.T) {
	for _, name := range []string{"malgo", "", "jack"} {
		if _, err := New(name); err != nil {
			t.Errorf("New(%q) failed: %v", name, err)
		}
	}
	if _, err := New("pulse"); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestCaptureWholeFrames(t *testing.T) {
	// 32 bytes hold 31 usable: 7 samples, so 3 stereo frames
	w, r := newRing(t, 32)
	c := &capturer{writer: w, channels: 2}

	c.capture([]float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})

	if c.Frames() != 3 {
		t.Errorf("expected 3 frames, got %d", c.Frames())
	}
	if c.Overruns() != 1 {
		t.Errorf("expected 1 overrun, got %d", c.Overruns())
	}

	got := make([]float32, 10)
	n := r.ReadSamples(got)
	if n != 6 {
		t.Fatalf("expected 6 samples, got %d", n)
	}
	for i := 0; i < n; i++ {
		if got[i] != float32(i+1) {
			t.Errorf("sample %d: expected %d, got %v", i, i+1, got[i])
		}
	}
}

func TestCaptureDropsPartialFrame(t *testing.T) {
	w, r := newRing(t, 256)
	c := &capturer{writer: w, channels: 2}

	c.capture([]float32{1, 2, 3})

	if r.ReadableSamples() != 2 {
		t.Errorf("expected 2 readable samples, got %d", r.ReadableSamples())
	}
	if c.Overruns() != 0 {
		t.Errorf("expected no overrun, got %d", c.Overruns())
	}
}

func TestGeneratorWritesInRealTime(t *testing.T) {
	w, r := newRing(t, 1<<16)
	tone := source.NewTestTone(8000, 1)
	g := NewGenerator(tone, 5*time.Millisecond)

	if err := g.Open(audio.Format{SampleRate: 8000, Channels: 1}, w); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for r.ReadableSamples() < 120 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if r.ReadableSamples() < 120 {
		t.Fatalf("expected at least 120 samples, got %d", r.ReadableSamples())
	}
	if r.ReadableSamples()%40 != 0 {
		t.Errorf("expected whole 5ms chunks, got %d samples", r.ReadableSamples())
	}
}

func TestGeneratorRejectsFormatMismatch(t *testing.T) {
	w, _ := newRing(t, 256)
	g := NewGenerator(source.NewTestTone(48000, 2), 0)
	defer g.Close()

	if err := g.Open(audio.Format{SampleRate: 44100, Channels: 2}, w); err == nil {
		t.Error("expected error for mismatched rate")
	}
}

func TestJACKWithoutServer(t *testing.T) {
	w, _ := newRing(t, 256)
	j := NewJACK(JACKConfig{})
	defer j.Close()

	if _, err := j.DeviceRate(); err == nil {
		t.Skip("a JACK server is running")
	}

	err := j.Open(audio.Format{SampleRate: 48000, Channels: 2}, w)
	if err == nil {
		t.Skip("a JACK server is running")
	}
	if !errors.Is(err, rtclient.ErrJACKUnavailable) && !errors.Is(err, rtclient.ErrServer) {
		t.Errorf("unexpected error %v", err)
	}

	// A failed Open leaves nothing behind, so a retry fails the same way.
	if j.client != nil || j.bridge != nil {
		t.Fatal("failed Open kept the client")
	}
	if err := j.Open(audio.Format{SampleRate: 48000, Channels: 2}, w); !errors.Is(err, rtclient.ErrJACKUnavailable) && !errors.Is(err, rtclient.ErrServer) {
		t.Errorf("unexpected error on retry %v", err)
	}
}

func TestJACKRateMismatchReleasesClient(t *testing.T) {
	w, _ := newRing(t, 1<<16)
	j := NewJACK(JACKConfig{})
	defer j.Close()

	rate, err := j.DeviceRate()
	if err != nil {
		t.Skipf("no JACK server: %v", err)
	}

	if err := j.Open(audio.Format{SampleRate: rate + 1, Channels: 2}, w); err == nil {
		t.Fatal("expected a rate mismatch error")
	}
	if j.client != nil {
		t.Fatal("rate mismatch kept the client open")
	}

	if err := j.Open(audio.Format{SampleRate: rate, Channels: 2}, w); err != nil {
		t.Fatalf("retry at the server rate failed: %v", err)
	}
}
