package igdassign

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/tinyrange/igd/internal/devices/pci"
	"github.com/tinyrange/igd/internal/igd"
	"github.com/tinyrange/igd/internal/pagealloc"
)

// OpRegion header layout.
const (
	OpRegionSignature = "IntelGraphicsMem"

	opRegionSizeOffset    = 0x10
	opRegionVersionOffset = 0x14
	opRegionHeaderSize    = 0x18
)

// OpRegionVersion is the OVER field of the OpRegion header.
type OpRegionVersion struct {
	Major    uint8
	Minor    uint8
	Revision uint8
}

func (v OpRegionVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Revision)
}

// OpRegionHeader is the leading part of an OpRegion.
type OpRegionHeader struct {
	Signature string
	// SizeKiB is the OpRegion size as declared by the header.
	SizeKiB uint32
	Version OpRegionVersion
}

// Valid reports whether the signature matches.
func (h OpRegionHeader) Valid() bool {
	return h.Signature == OpRegionSignature
}

// ParseOpRegionHeader decodes the header at the start of b. A wrong
// signature is reported through Valid, not as an error.
func ParseOpRegionHeader(b []byte) (OpRegionHeader, error) {
	if len(b) < opRegionHeaderSize {
		return OpRegionHeader{}, fmt.Errorf("%w: OpRegion of %d bytes is shorter than its header", ErrProtocol, len(b))
	}
	over := binary.LittleEndian.Uint32(b[opRegionVersionOffset:])
	return OpRegionHeader{
		Signature: string(b[:len(OpRegionSignature)]),
		SizeKiB:   binary.LittleEndian.Uint32(b[opRegionSizeOffset:]),
		Version: OpRegionVersion{
			Major:    uint8(over >> 24),
			Minor:    uint8(over >> 16),
			Revision: uint8(over >> 8),
		},
	}, nil
}

// setupOpRegion copies the host OpRegion into ACPI NVS pages below 4 GiB
// and points ASLS at them.
func (s *Scanner) setupOpRegion(fn pci.Function, dev identity) error {
	size := uint64(s.opRegion.Size)
	if size == 0 {
		return fmt.Errorf("%w: OpRegion size is zero", ErrInvalidParameter)
	}

	pages := pagealloc.SizeToPages(size)
	base, err := pagealloc.AllocateAligned(s.pages, pagealloc.ACPIMemoryNVS, pages, 1)
	if err != nil {
		return fmt.Errorf("igdassign: allocate %d OpRegion pages: %w", pages, err)
	}

	region := make([]byte, pagealloc.PagesToSize(pages))
	s.firmware.Select(s.opRegion.Selector)
	if err := s.firmware.ReadBytes(region[:size]); err != nil {
		s.free(base, pages)
		return fmt.Errorf("igdassign: read OpRegion: %w", err)
	}

	if _, err := s.memory.WriteAt(region, int64(base)); err != nil {
		s.free(base, pages)
		return fmt.Errorf("igdassign: write OpRegion at %#x: %w", base, err)
	}

	if err := pci.WriteUint32(fn, igd.ASLSOffset, uint32(base)); err != nil {
		s.free(base, pages)
		return fmt.Errorf("igdassign: write ASLS: %w", err)
	}

	hdr, err := ParseOpRegionHeader(region[:size])
	switch {
	case err != nil:
		slog.Warn("igdassign: OpRegion header unreadable", "device", dev.addr.String(), "err", err)
	case !hdr.Valid():
		slog.Warn("igdassign: OpRegion signature mismatch",
			"device", dev.addr.String(), "signature", fmt.Sprintf("%q", hdr.Signature))
	}

	s.publish(Region{
		Kind:   RegionOpRegion,
		Device: dev.addr,
		Base:   base,
		Size:   pagealloc.PagesToSize(pages),
		Type:   pagealloc.ACPIMemoryNVS,
	})
	slog.Info("igdassign: OpRegion published",
		"device", dev.addr.String(),
		"address", fmt.Sprintf("%#x", base),
		"size", size,
		"version", hdr.Version.String())
	return nil
}
