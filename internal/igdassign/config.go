// Package igdassign prepares the OpRegion and stolen memory an assigned
// Intel integrated graphics device expects, and publishes both through the
// device's configuration space before the guest boots.
package igdassign

import (
	"fmt"
	"io"

	"github.com/tinyrange/igd/internal/devices/fwcfg"
	"github.com/tinyrange/igd/internal/devices/pci"
	"github.com/tinyrange/igd/internal/igd"
	"github.com/tinyrange/igd/internal/pagealloc"
)

// DefaultTarget is where QEMU places the assigned IGD.
var DefaultTarget = pci.Address{Bus: 0, Device: 2, Function: 0}

// Enumerator hands out functions the caller has not seen yet.
type Enumerator interface {
	Next() (pci.Function, bool)
}

// Discovery arms notify to run whenever a function appears and returns a
// cursor that starts with the functions already present.
type Discovery func(notify func()) Enumerator

// HostDiscovery adapts a host bridge to Discovery.
func HostDiscovery(h *pci.HostBridge) Discovery {
	return func(notify func()) Enumerator {
		return h.Listen(notify)
	}
}

// Config wires the driver to its collaborators.
type Config struct {
	// Firmware reads the host-provided fw_cfg items.
	Firmware fwcfg.Transport
	// Discovery announces PCI functions.
	Discovery Discovery
	// Pages backs every region handed to the device.
	Pages pagealloc.Allocator
	// Memory is guest physical memory.
	Memory io.WriterAt

	// Target is the only location that receives stolen memory. Nil means
	// DefaultTarget. The segment is ignored.
	Target *pci.Address
	// Table classifies device ids. Nil means igd.DefaultTable.
	Table igd.Table
}

func (c *Config) normalize() {
	if c.Target == nil {
		target := DefaultTarget
		c.Target = &target
	}
	if c.Table == nil {
		c.Table = igd.DefaultTable
	}
}

func (c *Config) validate() error {
	switch {
	case c.Firmware == nil:
		return fmt.Errorf("%w: no fw_cfg transport", ErrInvalidParameter)
	case c.Discovery == nil:
		return fmt.Errorf("%w: no device discovery", ErrInvalidParameter)
	case c.Pages == nil:
		return fmt.Errorf("%w: no page allocator", ErrInvalidParameter)
	case c.Memory == nil:
		return fmt.Errorf("%w: no guest memory", ErrInvalidParameter)
	}
	return nil
}
