// ABOUTME: Tests for float32 sample framing
// ABOUTME: Verifies whole-sample writes, wrap handling and zero-fill on underrun
package rtio

import (
	"testing"

	"github.com/Resonate-Protocol/rtbridge/pkg/ringbuf"
)

func newRing(t *testing.T, capacity int) (*ringbuf.Producer, *ringbuf.Consumer) {
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
	return p, c
}

func TestFloat32RoundTrip(t *testing.T) {
	p, c := newRing(t, 64)
	w := NewFloat32Writer(p)
	r := NewFloat32Reader(c)

	// 63 usable bytes hold 15 whole samples.
	if w.WritableSamples() != 15 {
		t.Fatalf("expected 15 writable samples, got %d", w.WritableSamples())
	}

	in := []float32{0, 0.5, -0.5, 1, -1, 0.25}
	if n := w.WriteSamples(in); n != len(in) {
		t.Fatalf("expected %d samples written, got %d", len(in), n)
	}
	if r.ReadableSamples() != len(in) {
		t.Fatalf("expected %d readable samples, got %d", len(in), r.ReadableSamples())
	}

	out := make([]float32, 10)
	n := r.ReadSamples(out)
	if n != len(in) {
		t.Fatalf("expected %d samples read, got %d", len(in), n)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("sample %d: expected %v, got %v", i, in[i], out[i])
		}
	}
}

func TestFloat32WrapManyTimes(t *testing.T) {
	p, c := newRing(t, 32)
	w := NewFloat32Writer(p)
	r := NewFloat32Reader(c)

	next := float32(0)
	expect := float32(0)
	block := make([]float32, 5)
	out := make([]float32, 7)

	for round := 0; round < 200; round++ {
		for i := range block {
			block[i] = next + float32(i)
		}
		n := w.WriteSamples(block)
		next += float32(n)

		got := r.ReadSamples(out)
		for i := 0; i < got; i++ {
			if out[i] != expect {
				t.Fatalf("round %d: expected %v, got %v", round, expect, out[i])
			}
			expect++
		}
	}
}

func TestFloat32WriteLargerThanScratch(t *testing.T) {
	p, c := newRing(t, 1<<14)
	w := NewFloat32Writer(p)
	r := NewFloat32Reader(c)

	in := make([]float32, scratchSamples*3+17)
	for i := range in {
		in[i] = float32(i) / 10
	}
	if n := w.WriteSamples(in); n != len(in) {
		t.Fatalf("expected %d written, got %d", len(in), n)
	}

	out := make([]float32, len(in))
	if n := r.ReadSamples(out); n != len(in) {
		t.Fatalf("expected %d read, got %d", len(in), n)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("sample %d: expected %v, got %v", i, in[i], out[i])
		}
	}
}

func TestFillSamplesZeroesTail(t *testing.T) {
	p, c := newRing(t, 64)
	w := NewFloat32Writer(p)
	r := NewFloat32Reader(c)

	w.WriteSamples([]float32{0.1, 0.2})

	dst := []float32{9, 9, 9, 9, 9}
	if n := r.FillSamples(dst); n != 2 {
		t.Fatalf("expected 2 real samples, got %d", n)
	}
	expected := []float32{0.1, 0.2, 0, 0, 0}
	for i := range expected {
		if dst[i] != expected[i] {
			t.Errorf("index %d: expected %v, got %v", i, expected[i], dst[i])
		}
	}
}

func TestDiscard(t *testing.T) {
	p, c := newRing(t, 64)
	w := NewFloat32Writer(p)
	r := NewFloat32Reader(c)

	w.WriteSamples([]float32{1, 2, 3, 4})
	if n := r.Discard(3); n != 3 {
		t.Fatalf("expected 3 discarded, got %d", n)
	}
	if n := r.Discard(10); n != 1 {
		t.Fatalf("expected 1 discarded, got %d", n)
	}
	if r.ReadableSamples() != 0 {
		t.Errorf("expected empty ring, got %d", r.ReadableSamples())
	}
}

func TestWriteFramesStopsAtWholeFrames(t *testing.T) {
	p, c := newRing(t, 64)
	w := NewFloat32Writer(p)
	r := NewFloat32Reader(c)

	// 15 samples fit but only 7 stereo frames do.
	in := make([]float32, 16)
	if n := w.WriteFrames(in, 2); n != 14 {
		t.Fatalf("expected 14 samples written, got %d", n)
	}
	if r.ReadableSamples() != 14 {
		t.Fatalf("expected 14 readable samples, got %d", r.ReadableSamples())
	}

	// A trailing half frame is held back even when there is room.
	r.Discard(14)
	if n := w.WriteFrames([]float32{1, 2, 3}, 2); n != 2 {
		t.Fatalf("expected 2 samples written, got %d", n)
	}
}

func TestFillFramesKeepsChannelsAligned(t *testing.T) {
	p, c := newRing(t, 64)
	w := NewFloat32Writer(p)
	r := NewFloat32Reader(c)

	// An odd sample count leaves a partial frame in the ring.
	w.WriteSamples([]float32{1, -1, 1, -1, 1})

	out := []float32{9, 9, 9, 9, 9, 9}
	if n := r.FillFrames(out, 2); n != 4 {
		t.Fatalf("expected 4 samples, got %d", n)
	}
	want := []float32{1, -1, 1, -1, 0, 0}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("sample %d: expected %v, got %v", i, want[i], out[i])
		}
	}
	if r.ReadableSamples() != 1 {
		t.Fatalf("expected the half frame to stay, got %d readable", r.ReadableSamples())
	}

	w.WriteSamples([]float32{-1, 1, -1})
	if n := r.FillFrames(out, 2); n != 4 {
		t.Fatalf("expected 4 samples, got %d", n)
	}
	for i := 0; i < 4; i += 2 {
		if out[i] != 1 || out[i+1] != -1 {
			t.Fatalf("frame %d misaligned: L=%v R=%v", i/2, out[i], out[i+1])
		}
	}
}
