package igdassign

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/tinyrange/igd/internal/devices/fwcfg"
	"github.com/tinyrange/igd/internal/devices/pci"
	"github.com/tinyrange/igd/internal/igd"
	"github.com/tinyrange/igd/internal/pagealloc"
)

// RegionKind names a published memory region.
type RegionKind string

const (
	RegionOpRegion RegionKind = "opregion"
	RegionStolen   RegionKind = "stolen"
)

// Region is memory handed over to a device. It belongs to the guest once
// published and is never touched again.
type Region struct {
	Kind   RegionKind
	Device pci.Address
	Base   uint64
	Size   uint64
	Type   pagealloc.MemoryType
}

// identity is what a scan learns about one function.
type identity struct {
	vendor   uint16
	deviceID uint16
	class    [3]byte
	addr     pci.Address
	record   igd.Record
}

// Scanner drains a discovery cursor and provisions every IGD it finds.
// Scans are serialized; each function is visited exactly once.
type Scanner struct {
	mu     sync.Mutex
	cursor Enumerator

	firmware fwcfg.Transport
	opRegion fwcfg.Item
	target   pci.Address
	table    igd.Table
	pages    pagealloc.Allocator
	memory   io.WriterAt

	published []Region
}

func newScanner(cfg Config, opRegion fwcfg.Item) *Scanner {
	cfg.normalize()
	return &Scanner{
		firmware: cfg.Firmware,
		opRegion: opRegion,
		target:   *cfg.Target,
		table:    cfg.Table,
		pages:    cfg.Pages,
		memory:   cfg.Memory,
	}
}

// Scan visits every function the cursor has not returned yet.
func (s *Scanner) Scan() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor == nil {
		return
	}
	for {
		fn, ok := s.cursor.Next()
		if !ok {
			return
		}
		s.scanFunction(fn)
	}
}

// Regions returns the regions published so far in publication order.
func (s *Scanner) Regions() []Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Region, len(s.published))
	copy(out, s.published)
	return out
}

func (s *Scanner) scanFunction(fn pci.Function) {
	dev, err := readIdentity(fn)
	if err != nil {
		slog.Error("igdassign: read function identity", "err", err)
		return
	}
	if !isIGD(dev) {
		return
	}

	rec, ok := s.table.Lookup(dev.deviceID)
	if !ok {
		slog.Error("igdassign: unsupported IGD",
			"device", dev.addr.String(), "id", fmt.Sprintf("%#04x", dev.deviceID),
			"generation", igd.GenerationOf(dev.deviceID))
		return
	}
	dev.record = rec

	if s.opRegion.Size > 0 {
		if err := s.setupOpRegion(fn, dev); err != nil {
			slog.Error("igdassign: OpRegion setup failed", "device", dev.addr.String(), "err", err)
		}
	}

	if !dev.addr.SameBDF(s.target) {
		slog.Debug("igdassign: not the assigned IGD, skipping stolen memory",
			"device", dev.addr.String(), "target", s.target.String())
		return
	}
	if !rec.Family.HasStolenMemory() {
		return
	}

	size, err := rec.Family.StolenSize(fn)
	if err != nil {
		slog.Error("igdassign: read stolen memory size", "device", dev.addr.String(), "err", err)
		return
	}
	if size == 0 {
		slog.Info("igdassign: no stolen memory requested", "device", dev.addr.String())
		return
	}
	if err := s.setupStolenMemory(fn, dev, size); err != nil {
		slog.Error("igdassign: stolen memory setup failed", "device", dev.addr.String(), "err", err)
	}
}

func readIdentity(fn pci.Function) (identity, error) {
	var dev identity
	var err error

	if dev.vendor, err = pci.ReadUint16(fn, pci.VendorIDOffset); err != nil {
		return dev, fmt.Errorf("vendor id: %w", err)
	}
	if dev.deviceID, err = pci.ReadUint16(fn, pci.DeviceIDOffset); err != nil {
		return dev, fmt.Errorf("device id: %w", err)
	}
	class, err := fn.ReadConfig(pci.Width8, pci.ClassCodeOffset, len(dev.class))
	if err != nil {
		return dev, fmt.Errorf("class code: %w", err)
	}
	copy(dev.class[:], class)
	if dev.addr, err = fn.Location(); err != nil {
		return dev, fmt.Errorf("location: %w", err)
	}
	return dev, nil
}

// isIGD matches an Intel VGA controller or "other display" controller.
func isIGD(dev identity) bool {
	if dev.vendor != igd.VendorID || dev.class[2] != pci.ClassDisplay {
		return false
	}
	switch dev.class[1] {
	case pci.ClassDisplayVGA:
		return dev.class[0] == pci.InterfaceVGA
	case pci.ClassDisplayOther:
		return true
	}
	return false
}

func (s *Scanner) publish(r Region) {
	s.published = append(s.published, r)
}

// free returns an unpublished region. Failure is logged only.
func (s *Scanner) free(base, pages uint64) {
	if err := s.pages.FreePages(base, pages); err != nil {
		slog.Warn("igdassign: release region",
			"base", fmt.Sprintf("%#x", base), "pages", pages, "err", err)
	}
}
