// ABOUTME: Tests for MIDI event framing
// ABOUTME: Verifies atomic publication, wrap handling and truncation
package rtio

import (
	"bytes"
	"testing"
)

func TestEventRoundTrip(t *testing.T) {
	p, c := newRing(t, 64)
	w := NewEventWriter(p)
	r := NewEventReader(c)

	events := []struct {
		frame uint32
		data  []byte
	}{
		{0, []byte{0x90, 60, 100}},
		{12, []byte{0x80, 60, 0}},
		{255, []byte{0xF8}},
		{1024, nil},
	}

	for _, ev := range events {
		if !w.WriteEvent(ev.frame, ev.data) {
			t.Fatalf("WriteEvent(%d) failed", ev.frame)
		}
	}

	buf := make([]byte, 16)
	for _, want := range events {
		got, ok := r.NextEvent(buf)
		if !ok {
			t.Fatalf("expected event at frame %d", want.frame)
		}
		if got.Frame != want.frame || !bytes.Equal(got.Data, want.data) || got.Truncated {
			t.Errorf("expected frame %d data %v, got %+v", want.frame, want.data, got)
		}
	}

	if _, ok := r.NextEvent(buf); ok {
		t.Error("expected no more events")
	}
}

func TestEventAllOrNothing(t *testing.T) {
	p, c := newRing(t, 16)
	w := NewEventWriter(p)

	// 15 usable bytes: one 9-byte record fits, a second does not.
	if !w.WriteEvent(1, []byte{1, 2, 3}) {
		t.Fatal("first event should fit")
	}
	if w.WriteEvent(2, []byte{4, 5, 6}) {
		t.Fatal("second event should be refused")
	}
	if c.ReadableLen() != EventHeaderSize+3 {
		t.Errorf("refused event must not leave bytes behind, readable %d", c.ReadableLen())
	}
	if w.WriteEvent(3, make([]byte, MaxEventSize+1)) {
		t.Error("oversized event should be refused")
	}
}

func TestEventWrapsAcrossBoundary(t *testing.T) {
	p, c := newRing(t, 16)
	w := NewEventWriter(p)
	r := NewEventReader(c)
	buf := make([]byte, 8)

	// Walk the write position so headers and payloads straddle the end.
	for i := 0; i < 40; i++ {
		data := []byte{byte(i), byte(i + 1), byte(i + 2), byte(i + 3)}
		if !w.WriteEvent(uint32(i), data) {
			t.Fatalf("iteration %d: WriteEvent failed", i)
		}
		ev, ok := r.NextEvent(buf)
		if !ok {
			t.Fatalf("iteration %d: no event", i)
		}
		if ev.Frame != uint32(i) || !bytes.Equal(ev.Data, data) {
			t.Fatalf("iteration %d: expected frame %d %v, got %+v", i, i, data, ev)
		}
	}
}

func TestPartialRecordIsNotConsumed(t *testing.T) {
	p, c := newRing(t, 32)
	r := NewEventReader(c)

	// A header promising 4 bytes with only 2 published.
	p.Write([]byte{7, 0, 0, 0, 4, 0, 0xAA, 0xBB})

	if _, _, ok := r.PendingEvent(); ok {
		t.Fatal("incomplete record reported as pending")
	}
	if _, ok := r.NextEvent(make([]byte, 8)); ok {
		t.Fatal("incomplete record consumed")
	}
	if c.ReadableLen() != 8 {
		t.Fatalf("incomplete record bytes must stay, readable %d", c.ReadableLen())
	}

	p.Write([]byte{0xCC, 0xDD})
	frame, size, ok := r.PendingEvent()
	if !ok || frame != 7 || size != 4 {
		t.Fatalf("expected pending frame 7 size 4, got %d %d %v", frame, size, ok)
	}
	ev, ok := r.NextEvent(make([]byte, 8))
	if !ok || !bytes.Equal(ev.Data, []byte{0xAA, 0xBB, 0xCC, 0xDD}) {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestEventTruncation(t *testing.T) {
	p, c := newRing(t, 64)
	w := NewEventWriter(p)
	r := NewEventReader(c)

	w.WriteEvent(5, []byte{0xF0, 1, 2, 3, 4, 5, 0xF7})
	w.WriteEvent(6, []byte{0x90, 1, 2})

	small := make([]byte, 3)
	ev, ok := r.NextEvent(small)
	if !ok || !ev.Truncated || !bytes.Equal(ev.Data, []byte{0xF0, 1, 2}) {
		t.Fatalf("expected truncated sysex, got %+v", ev)
	}

	ev, ok = r.NextEvent(small)
	if !ok || ev.Frame != 6 || ev.Truncated {
		t.Fatalf("truncation must skip the rest of the record, got %+v", ev)
	}
}
