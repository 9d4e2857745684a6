package guestmem

import (
	"bytes"
	"testing"
)

func TestReadWriteTranslatesBase(t *testing.T) {
	m := New(0x100000, 0x2000)
	if _, err := m.WriteAt([]byte{1, 2, 3}, 0x100ffe); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := make([]byte, 3)
	if _, err := m.ReadAt(got, 0x100ffe); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Fatalf("round trip: got %v", got)
	}
}

func TestOutOfWindow(t *testing.T) {
	m := New(0x1000, 0x1000)
	for _, off := range []int64{0, 0xfff, 0x1fff, 0x2000, -1} {
		if _, err := m.WriteAt([]byte{0, 0}, off); err == nil {
			t.Fatalf("write at %#x: expected error", off)
		}
	}
}

func TestZero(t *testing.T) {
	m := New(0, 3*zeroChunk)
	for i := range m.mem {
		m.mem[i] = 0xff
	}
	if err := Zero(m, 10, 2*zeroChunk+5); err != nil {
		t.Fatalf("zero: %v", err)
	}
	if m.mem[9] != 0xff || m.mem[10] != 0 || m.mem[10+2*zeroChunk+4] != 0 || m.mem[10+2*zeroChunk+5] != 0xff {
		t.Fatalf("zero range boundaries wrong")
	}
	if err := Zero(m, 3*zeroChunk-1, 2); err == nil {
		t.Fatalf("expected error zeroing past the window")
	}
}

func TestNewMapped(t *testing.T) {
	m, err := NewMapped(0x200000, 1<<20)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	defer m.Close()
	if m.Size() != 1<<20 || m.Base() != 0x200000 {
		t.Fatalf("window: base %#x size %#x", m.Base(), m.Size())
	}
	if _, err := m.WriteAt([]byte{0xaa}, 0x2fffff); err != nil {
		t.Fatalf("write last byte: %v", err)
	}
}
