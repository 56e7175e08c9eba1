// ABOUTME: Tests for the silence-padding io.Reader adapter
// ABOUTME: Checks alignment, padding and underrun accounting
package rtio

import (
	"bytes"
	"testing"
)

func TestSilenceReader(t *testing.T) {
	p, c := newRing(t, 32)
	sr := NewSilenceReader(c, 4)

	p.Write([]byte{1, 2, 3, 4, 5, 6})

	buf := bytes.Repeat([]byte{0xFF}, 8)
	n, err := sr.Read(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("expected full read of %d, got %d", len(buf), n)
	}
	// Only one whole 4-byte frame is taken; the rest is silence.
	if !bytes.Equal(buf, []byte{1, 2, 3, 4, 0, 0, 0, 0}) {
		t.Errorf("unexpected content %v", buf)
	}
	if c.ReadableLen() != 2 {
		t.Errorf("expected 2 bytes left for the next read, got %d", c.ReadableLen())
	}
	if sr.Underruns() != 1 {
		t.Errorf("expected 1 underrun, got %d", sr.Underruns())
	}

	p.Write([]byte{7, 8})
	buf = make([]byte, 4)
	sr.Read(buf)
	if !bytes.Equal(buf, []byte{5, 6, 7, 8}) {
		t.Errorf("expected [5 6 7 8], got %v", buf)
	}
	if sr.Underruns() != 1 {
		t.Errorf("full read counted as underrun")
	}
}
