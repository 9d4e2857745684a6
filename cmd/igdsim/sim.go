package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/tinyrange/igd/internal/devices/fwcfg"
	"github.com/tinyrange/igd/internal/devices/pci"
	"github.com/tinyrange/igd/internal/guestmem"
	"github.com/tinyrange/igd/internal/igd"
	"github.com/tinyrange/igd/internal/igdassign"
	"github.com/tinyrange/igd/internal/pagealloc"
)

// opRegionVersion is written into synthesized OpRegion headers (2.0.0).
const opRegionVersion = 2 << 24

type simulation struct {
	mem     *guestmem.Memory
	pool    *pagealloc.Pool
	host    *pci.HostBridge
	driver  *igdassign.Driver
	devices []simDevice
}

type simDevice struct {
	cfg    DeviceConfig
	handle *pci.DeviceHandle
}

func (s *simulation) Close() error {
	if s.driver != nil {
		s.driver.Close()
	}
	return s.mem.Close()
}

// Regions returns the regions the driver published.
func (s *simulation) Regions() []igdassign.Region {
	if s.driver == nil {
		return nil
	}
	return s.driver.Scanner().Regions()
}

func simulate(sc *Scenario) (*simulation, error) {
	base := uint64(sc.Memory.Base)
	size := uint64(sc.Memory.Size)
	if size > uint64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("memory size %#x too large for this host", size)
	}

	pool, err := pagealloc.NewPool(base, size)
	if err != nil {
		return nil, err
	}
	mem, err := guestmem.NewMapped(base, int(size))
	if err != nil {
		return nil, err
	}
	sim := &simulation{
		mem:  mem,
		pool: pool,
		host: pci.NewHostBridge(pci.HostBridgeConfig{}),
	}

	fw := fwcfg.New()
	opRegion, err := loadOpRegion(sc.OpRegion)
	if err != nil {
		sim.Close()
		return nil, err
	}
	if opRegion != nil {
		fw.AddFile(igd.OpRegionFile, opRegion)
	}

	for _, d := range sc.Devices {
		if d.Late {
			continue
		}
		if err := sim.register(d); err != nil {
			sim.Close()
			return nil, err
		}
	}

	cfg := igdassign.Config{
		Firmware:  fw,
		Discovery: igdassign.HostDiscovery(sim.host),
		Pages:     pool,
		Memory:    mem,
	}
	if sc.Target != nil {
		target := pci.Address(*sc.Target)
		cfg.Target = &target
	}

	sim.driver, err = igdassign.Start(cfg)
	switch {
	case errors.Is(err, igdassign.ErrUnsupported):
		slog.Info("igdsim: host advertised no OpRegion, driver inactive")
	case err != nil:
		sim.Close()
		return nil, err
	}

	for _, d := range sc.Devices {
		if !d.Late {
			continue
		}
		if err := sim.register(d); err != nil {
			sim.Close()
			return nil, err
		}
	}
	return sim, nil
}

func (s *simulation) register(d DeviceConfig) error {
	cs := pci.NewEndpointConfig(d.VendorID(), uint16(d.Device), d.ClassCode())
	if err := cs.Poke16(igd.GMCHOffset, uint16(d.GMCH)); err != nil {
		return err
	}
	addr := pci.Address(d.Address)
	handle, err := s.host.RegisterEndpoint(addr.Bus, addr.Device, addr.Function, cs)
	if err != nil {
		return fmt.Errorf("register %s: %w", addr, err)
	}
	slog.Debug("igdsim: function registered",
		"address", addr.String(), "device", fmt.Sprintf("%#04x", uint16(d.Device)), "late", d.Late)
	s.devices = append(s.devices, simDevice{cfg: d, handle: handle})
	return nil
}

func loadOpRegion(cfg OpRegionConfig) ([]byte, error) {
	if cfg.File != "" {
		data, err := os.ReadFile(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("read OpRegion: %w", err)
		}
		return data, nil
	}
	if cfg.Size == 0 {
		return nil, nil
	}
	return synthesizeOpRegion(int(cfg.Size)), nil
}

// synthesizeOpRegion builds an OpRegion with a valid header and an empty
// body. Regions shorter than the header get a truncated signature.
func synthesizeOpRegion(size int) []byte {
	b := make([]byte, size)
	copy(b, igdassign.OpRegionSignature)
	if size >= 0x18 {
		binary.LittleEndian.PutUint32(b[0x10:], uint32((size+1023)>>10))
		binary.LittleEndian.PutUint32(b[0x14:], opRegionVersion)
	}
	return b
}
