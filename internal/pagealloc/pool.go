package pagealloc

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Descriptor is one entry of a memory map.
type Descriptor struct {
	Type          MemoryType
	PhysicalStart uint64
	NumberOfPages uint64
}

// PhysicalEnd returns the first address after the descriptor.
func (d Descriptor) PhysicalEnd() uint64 {
	return d.PhysicalStart + PagesToSize(d.NumberOfPages)
}

type span struct {
	start uint64
	end   uint64
}

// Pool is a page allocator over a single RAM window. It searches top-down
// so that constrained requests land as high as their ceiling allows.
type Pool struct {
	mu sync.Mutex

	base uint64
	size uint64

	// free is sorted by start and fully coalesced.
	free []span
	// used is sorted by PhysicalStart; adjacent entries of the same type
	// are merged.
	used []Descriptor
}

// NewPool manages [base, base+size). Both are truncated to whole pages.
func NewPool(base, size uint64) (*Pool, error) {
	if base+size < base {
		return nil, fmt.Errorf("pagealloc: pool window [%#x, +%#x) wraps", base, size)
	}
	start := alignUp(base, PageSize)
	end := (base + size) &^ (PageSize - 1)
	if start < base || end <= start {
		return nil, fmt.Errorf("pagealloc: pool window [%#x, +%#x) holds no pages", base, size)
	}
	return &Pool{
		base: start,
		size: end - start,
		free: []span{{start: start, end: end}},
	}, nil
}

// AllocatePages implements Allocator.
func (p *Pool) AllocatePages(maxAddress uint64, t MemoryType, pages uint64) (uint64, error) {
	if pages == 0 {
		return 0, fmt.Errorf("%w: zero page allocation", ErrInvalidParameter)
	}
	if pages > math.MaxUint64>>PageShift {
		return 0, fmt.Errorf("%w: %d pages", ErrOutOfResources, pages)
	}
	if t == ConventionalMemory {
		return 0, fmt.Errorf("%w: cannot allocate %s pages", ErrInvalidParameter, t)
	}
	size := PagesToSize(pages)

	ceiling := uint64(math.MaxUint64) &^ (PageSize - 1)
	if maxAddress != math.MaxUint64 {
		ceiling = (maxAddress + 1) &^ (PageSize - 1)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for i := len(p.free) - 1; i >= 0; i-- {
		s := p.free[i]
		end := min(s.end, ceiling)
		if end <= s.start || end-s.start < size {
			continue
		}
		base := end - size
		p.carve(i, base, base+size)
		p.markUsed(Descriptor{Type: t, PhysicalStart: base, NumberOfPages: pages})
		return base, nil
	}
	return 0, fmt.Errorf("%w: no %d-page block below %#x", ErrOutOfResources, pages, maxAddress)
}

// FreePages implements Allocator. The range must be entirely allocated.
func (p *Pool) FreePages(base, pages uint64) error {
	if pages == 0 || base&(PageSize-1) != 0 {
		return fmt.Errorf("%w: free %d pages at %#x", ErrInvalidParameter, pages, base)
	}
	if pages > math.MaxUint64>>PageShift || base+PagesToSize(pages) < base {
		return fmt.Errorf("%w: free %d pages at %#x", ErrInvalidParameter, pages, base)
	}
	end := base + PagesToSize(pages)

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.covered(base, end) {
		return fmt.Errorf("%w: [%#x, %#x)", ErrNotAllocated, base, end)
	}

	var kept []Descriptor
	for _, d := range p.used {
		dEnd := d.PhysicalEnd()
		if dEnd <= base || d.PhysicalStart >= end {
			kept = append(kept, d)
			continue
		}
		if d.PhysicalStart < base {
			kept = append(kept, Descriptor{Type: d.Type, PhysicalStart: d.PhysicalStart, NumberOfPages: (base - d.PhysicalStart) >> PageShift})
		}
		if dEnd > end {
			kept = append(kept, Descriptor{Type: d.Type, PhysicalStart: end, NumberOfPages: (dEnd - end) >> PageShift})
		}
	}
	p.used = kept
	p.release(span{start: base, end: end})
	return nil
}

// covered reports whether [start, end) lies entirely in used descriptors.
func (p *Pool) covered(start, end uint64) bool {
	cursor := start
	for _, d := range p.used {
		if d.PhysicalEnd() <= cursor {
			continue
		}
		if d.PhysicalStart > cursor {
			return false
		}
		cursor = d.PhysicalEnd()
		if cursor >= end {
			return true
		}
	}
	return false
}

// carve removes [start, end) from free span i.
func (p *Pool) carve(i int, start, end uint64) {
	s := p.free[i]
	var repl []span
	if s.start < start {
		repl = append(repl, span{start: s.start, end: start})
	}
	if end < s.end {
		repl = append(repl, span{start: end, end: s.end})
	}
	p.free = append(p.free[:i], append(repl, p.free[i+1:]...)...)
}

func (p *Pool) release(s span) {
	p.free = append(p.free, s)
	sort.Slice(p.free, func(i, j int) bool { return p.free[i].start < p.free[j].start })
	merged := p.free[:1]
	for _, cur := range p.free[1:] {
		last := &merged[len(merged)-1]
		if cur.start <= last.end {
			last.end = max(last.end, cur.end)
			continue
		}
		merged = append(merged, cur)
	}
	p.free = merged
}

func (p *Pool) markUsed(d Descriptor) {
	p.used = append(p.used, d)
	sort.Slice(p.used, func(i, j int) bool { return p.used[i].PhysicalStart < p.used[j].PhysicalStart })
	merged := p.used[:1]
	for _, cur := range p.used[1:] {
		last := &merged[len(merged)-1]
		if last.Type == cur.Type && last.PhysicalEnd() == cur.PhysicalStart {
			last.NumberOfPages += cur.NumberOfPages
			continue
		}
		merged = append(merged, cur)
	}
	p.used = merged
}

// FreePageCount returns the number of pages still available.
func (p *Pool) FreePageCount() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	var n uint64
	for _, s := range p.free {
		n += (s.end - s.start) >> PageShift
	}
	return n
}

// MemoryMap returns the window as descriptors sorted by address, with free
// space reported as ConventionalMemory.
func (p *Pool) MemoryMap() []Descriptor {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Descriptor, 0, len(p.used)+len(p.free))
	out = append(out, p.used...)
	for _, s := range p.free {
		out = append(out, Descriptor{
			Type:          ConventionalMemory,
			PhysicalStart: s.start,
			NumberOfPages: (s.end - s.start) >> PageShift,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PhysicalStart < out[j].PhysicalStart })
	return out
}

// Base returns the first address managed by the pool.
func (p *Pool) Base() uint64 {
	return p.base
}

// Size returns the number of bytes managed by the pool.
func (p *Pool) Size() uint64 {
	return p.size
}

var _ Allocator = (*Pool)(nil)
