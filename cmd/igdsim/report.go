package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"github.com/tinyrange/igd/internal/devices/pci"
	"github.com/tinyrange/igd/internal/igd"
	"github.com/tinyrange/igd/internal/igdassign"
)

// DeviceReport is the config-space state of one function after the run.
type DeviceReport struct {
	Address  pci.Address
	DeviceID uint16
	Platform string
	// Generation falls back to the id-prefix classifier for ids missing
	// from the table.
	Generation int
	ASLS       uint32
	BDSM       uint32
	BDSM64     uint64
}

func (s *simulation) report() ([]DeviceReport, error) {
	var out []DeviceReport
	for _, d := range s.devices {
		addr, err := d.handle.Location()
		if err != nil {
			return nil, err
		}
		r := DeviceReport{Address: addr, DeviceID: uint16(d.cfg.Device), Platform: "-"}
		if rec, ok := igd.DefaultTable.Lookup(r.DeviceID); ok {
			r.Platform = rec.Platform
			r.Generation = rec.Generation
		} else {
			r.Generation = igd.GenerationOf(r.DeviceID)
		}
		if r.ASLS, err = pci.ReadUint32(d.handle, igd.ASLSOffset); err != nil {
			return nil, err
		}
		if r.BDSM, err = pci.ReadUint32(d.handle, igd.BDSMOffset); err != nil {
			return nil, err
		}
		if r.BDSM64, err = pci.ReadUint64(d.handle, igd.BDSM64Offset); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func printReport(w io.Writer, s *simulation) error {
	devices, err := s.report()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%-12s  %-6s  %-8s  %-3s  %-10s  %-10s  %-18s\n", "ADDRESS", "ID", "PLATFORM", "GEN", "ASLS", "BDSM", "BDSM64")
	for _, d := range devices {
		gen := "-"
		if d.Generation > 0 {
			gen = fmt.Sprint(d.Generation)
		}
		fmt.Fprintf(w, "%-12s  %04x    %-8s  %-3s  %#010x  %#010x  %#018x\n",
			d.Address, d.DeviceID, d.Platform, gen, d.ASLS, d.BDSM, d.BDSM64)
	}

	fmt.Fprintf(w, "\nmemory map:\n")
	for _, desc := range s.pool.MemoryMap() {
		fmt.Fprintf(w, "  %#012x-%#012x  %-12s  %d pages\n",
			desc.PhysicalStart, desc.PhysicalEnd()-1, desc.Type, desc.NumberOfPages)
	}
	return nil
}

// dumpRegions writes each published region to dir.
func dumpRegions(dir string, s *simulation) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dump directory: %w", err)
	}
	for _, r := range s.Regions() {
		name := fmt.Sprintf("%s-%02x_%02x_%x.bin", r.Kind, r.Device.Bus, r.Device.Device, r.Device.Function)
		if err := dumpRegion(filepath.Join(dir, name), s, r); err != nil {
			return err
		}
	}
	return nil
}

func dumpRegion(path string, s *simulation, r igdassign.Region) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	bar := progressbar.DefaultBytes(int64(r.Size), fmt.Sprintf("dump %s %s", r.Kind, r.Device))
	defer bar.Close()

	src := io.NewSectionReader(s.mem, int64(r.Base), int64(r.Size))
	if _, err := io.Copy(io.MultiWriter(f, bar), src); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
