//go:build !linux && !darwin

package guestmem

import "fmt"

// NewMapped falls back to a heap allocation where mmap is unavailable.
func NewMapped(base uint64, size int) (*Memory, error) {
	if size <= 0 {
		return nil, fmt.Errorf("guestmem: invalid size %d", size)
	}
	return New(base, size), nil
}
