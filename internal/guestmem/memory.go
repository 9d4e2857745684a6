// Package guestmem provides guest physical memory backed by host memory.
package guestmem

import (
	"fmt"
	"io"
)

// Memory is a contiguous window of guest physical memory.
type Memory struct {
	base    uint64
	mem     []byte
	release func() error
}

// New allocates size bytes of zeroed guest memory at base.
func New(base uint64, size int) *Memory {
	return &Memory{base: base, mem: make([]byte, size)}
}

// Base returns the first guest physical address.
func (m *Memory) Base() uint64 { return m.base }

// Size returns the window size in bytes.
func (m *Memory) Size() uint64 { return uint64(len(m.mem)) }

// ReadAt implements io.ReaderAt with guest physical offsets.
func (m *Memory) ReadAt(p []byte, off int64) (int, error) {
	idx, err := m.translate(off, len(p))
	if err != nil {
		return 0, err
	}
	return copy(p, m.mem[idx:]), nil
}

// WriteAt implements io.WriterAt with guest physical offsets.
func (m *Memory) WriteAt(p []byte, off int64) (int, error) {
	idx, err := m.translate(off, len(p))
	if err != nil {
		return 0, err
	}
	return copy(m.mem[idx:], p), nil
}

func (m *Memory) translate(off int64, n int) (int, error) {
	if off < 0 || uint64(off) < m.base {
		return 0, fmt.Errorf("guestmem: address %#x below window base %#x", off, m.base)
	}
	idx := uint64(off) - m.base
	if idx > uint64(len(m.mem)) || uint64(n) > uint64(len(m.mem))-idx {
		return 0, fmt.Errorf("guestmem: [%#x, +%#x) outside window [%#x, +%#x)", off, n, m.base, len(m.mem))
	}
	return int(idx), nil
}

// Close releases the backing memory.
func (m *Memory) Close() error {
	if m.release == nil {
		return nil
	}
	release := m.release
	m.release = nil
	m.mem = nil
	return release()
}

const zeroChunk = 1 << 20

// Zero writes n zero bytes at addr through w.
func Zero(w io.WriterAt, addr, n uint64) error {
	if n == 0 {
		return nil
	}
	buf := make([]byte, min(n, zeroChunk))
	for n > 0 {
		chunk := min(n, uint64(len(buf)))
		if _, err := w.WriteAt(buf[:chunk], int64(addr)); err != nil {
			return fmt.Errorf("guestmem: zero %#x bytes at %#x: %w", chunk, addr, err)
		}
		addr += chunk
		n -= chunk
	}
	return nil
}

var (
	_ io.ReaderAt = (*Memory)(nil)
	_ io.WriterAt = (*Memory)(nil)
	_ io.Closer   = (*Memory)(nil)
)
