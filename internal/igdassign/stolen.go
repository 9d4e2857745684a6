package igdassign

import (
	"fmt"
	"log/slog"

	"github.com/tinyrange/igd/internal/devices/pci"
	"github.com/tinyrange/igd/internal/guestmem"
	"github.com/tinyrange/igd/internal/igd"
	"github.com/tinyrange/igd/internal/pagealloc"
)

// setupStolenMemory reserves size bytes of zeroed, 1 MiB aligned memory and
// publishes its base through BDSM or BDSM64.
func (s *Scanner) setupStolenMemory(fn pci.Function, dev identity, size uint64) error {
	if size == 0 {
		return fmt.Errorf("%w: stolen memory size is zero", ErrInvalidParameter)
	}

	pages := pagealloc.SizeToPages(size)
	base, err := pagealloc.AllocateAligned(s.pages, pagealloc.ReservedMemoryType, pages, pagealloc.SizeToPages(igd.BDSMAlign))
	if err != nil {
		return fmt.Errorf("igdassign: allocate %d stolen pages: %w", pages, err)
	}

	if err := guestmem.Zero(s.memory, base, pagealloc.PagesToSize(pages)); err != nil {
		s.free(base, pages)
		return fmt.Errorf("igdassign: clear stolen memory: %w", err)
	}

	width := dev.record.Family.AddressWidth()
	switch width {
	case igd.BDSM64:
		err = pci.WriteUint64(fn, igd.BDSM64Offset, base)
	case igd.BDSM32:
		err = pci.WriteUint32(fn, igd.BDSMOffset, uint32(base))
	default:
		s.free(base, pages)
		return fmt.Errorf("%w: device %#04x family %s", ErrMisconfigured, dev.record.DeviceID, dev.record.Family)
	}
	if err != nil {
		s.free(base, pages)
		return fmt.Errorf("igdassign: write %s: %w", width, err)
	}

	s.publish(Region{
		Kind:   RegionStolen,
		Device: dev.addr,
		Base:   base,
		Size:   pagealloc.PagesToSize(pages),
		Type:   pagealloc.ReservedMemoryType,
	})
	slog.Info("igdassign: stolen memory published",
		"device", dev.addr.String(),
		"address", fmt.Sprintf("%#x", base),
		"size_mib", size>>20,
		"register", width.String())
	return nil
}
