// Package pagealloc hands out physical pages below an address ceiling and
// layers power-of-two alignment on top of any page allocator.
package pagealloc

import (
	"errors"
	"fmt"
)

const (
	PageShift = 12
	PageSize  = 1 << PageShift // 4 KiB

	// MaxAddress32 is the last byte reachable through a 32-bit address.
	MaxAddress32 = 1<<32 - 1
)

var (
	ErrInvalidParameter = errors.New("pagealloc: invalid parameter")
	ErrOutOfResources   = errors.New("pagealloc: out of resources")
	ErrNotAllocated     = errors.New("pagealloc: range not allocated")
)

// MemoryType follows the UEFI EFI_MEMORY_TYPE numbering.
type MemoryType uint32

const (
	ReservedMemoryType MemoryType = iota
	LoaderCode
	LoaderData
	BootServicesCode
	BootServicesData
	RuntimeServicesCode
	RuntimeServicesData
	ConventionalMemory
	UnusableMemory
	ACPIReclaimMemory
	ACPIMemoryNVS
	MemoryMappedIO
	MemoryMappedIOPortSpace
	PalCode
	PersistentMemory
)

var memoryTypeNames = [...]string{
	ReservedMemoryType:      "Reserved",
	LoaderCode:              "LoaderCode",
	LoaderData:              "LoaderData",
	BootServicesCode:        "BootServicesCode",
	BootServicesData:        "BootServicesData",
	RuntimeServicesCode:     "RuntimeServicesCode",
	RuntimeServicesData:     "RuntimeServicesData",
	ConventionalMemory:      "Conventional",
	UnusableMemory:          "Unusable",
	ACPIReclaimMemory:       "ACPIReclaim",
	ACPIMemoryNVS:           "ACPINVS",
	MemoryMappedIO:          "MMIO",
	MemoryMappedIOPortSpace: "MMIOPortSpace",
	PalCode:                 "PalCode",
	PersistentMemory:        "Persistent",
}

func (t MemoryType) String() string {
	if int(t) < len(memoryTypeNames) {
		return memoryTypeNames[t]
	}
	return fmt.Sprintf("MemoryType(%d)", uint32(t))
}

// Allocator is the underlying physical page allocator.
type Allocator interface {
	// AllocatePages returns the base of pages contiguous pages whose last
	// byte is at or below maxAddress.
	AllocatePages(maxAddress uint64, t MemoryType, pages uint64) (uint64, error)
	// FreePages returns pages starting at base to the allocator.
	FreePages(base, pages uint64) error
}

// SizeToPages rounds a byte count up to whole pages.
func SizeToPages(size uint64) uint64 {
	return size>>PageShift + boolToUint(size&(PageSize-1) != 0)
}

// PagesToSize converts a page count to bytes.
func PagesToSize(pages uint64) uint64 {
	return pages << PageShift
}

func boolToUint(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// alignUp aligns value up to the specified power-of-two alignment.
func alignUp(value, align uint64) uint64 {
	if align == 0 {
		return value
	}
	mask := align - 1
	return (value + mask) &^ mask
}
