//go:build linux || darwin

package guestmem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// NewMapped backs the window with an anonymous private mapping so large,
// mostly untouched guests cost no resident memory.
func NewMapped(base uint64, size int) (*Memory, error) {
	if size <= 0 {
		return nil, fmt.Errorf("guestmem: invalid size %d", size)
	}
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON|unix.MAP_NORESERVE)
	if err != nil {
		return nil, fmt.Errorf("guestmem: mmap %d bytes: %w", size, err)
	}
	return &Memory{
		base: base,
		mem:  mem,
		release: func() error {
			return unix.Munmap(mem)
		},
	}, nil
}
