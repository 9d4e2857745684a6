package pagealloc

import (
	"fmt"
	"log/slog"
	"math"
)

// AllocateAligned allocates pages of type t below 4 GiB whose base is a
// multiple of alignPages pages. alignPages must be a power of two.
//
// The request is padded by alignPages-1 pages; the padding on either side of
// the aligned block is handed back to a afterwards.
func AllocateAligned(a Allocator, t MemoryType, pages, alignPages uint64) (uint64, error) {
	if alignPages == 0 || alignPages&(alignPages-1) != 0 {
		return 0, fmt.Errorf("%w: alignment of %d pages is not a power of two", ErrInvalidParameter, alignPages)
	}
	if alignPages-1 > math.MaxUint64-pages {
		return 0, fmt.Errorf("%w: %d pages padded to %d-page alignment overflows", ErrOutOfResources, pages, alignPages)
	}
	if alignPages > math.MaxUint64>>PageShift {
		return 0, fmt.Errorf("%w: %d-page alignment overflows byte size", ErrOutOfResources, alignPages)
	}

	pageAligned, err := a.AllocatePages(MaxAddress32, t, pages+(alignPages-1))
	if err != nil {
		return 0, err
	}
	fullyAligned := alignUp(pageAligned, PagesToSize(alignPages))

	bottom := SizeToPages(fullyAligned - pageAligned)
	top := (alignPages - 1) - bottom
	if bottom > 0 {
		if err := a.FreePages(pageAligned, bottom); err != nil {
			slog.Warn("pagealloc: release leading padding",
				"base", fmt.Sprintf("%#x", pageAligned), "pages", bottom, "err", err)
		}
	}
	if top > 0 {
		topBase := fullyAligned + PagesToSize(pages)
		if err := a.FreePages(topBase, top); err != nil {
			slog.Warn("pagealloc: release trailing padding",
				"base", fmt.Sprintf("%#x", topBase), "pages", top, "err", err)
		}
	}

	return fullyAligned, nil
}
