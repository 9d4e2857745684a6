package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tinyrange/igd/internal/devices/pci"
	"github.com/tinyrange/igd/internal/igd"
	"github.com/tinyrange/igd/internal/igdassign"
)

func TestParseSize(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Size
	}{
		{"4096", 4096},
		{"0x1000", 4096},
		{"8KiB", 8 << 10},
		{"8 KiB", 8 << 10},
		{"256MiB", 256 << 20},
		{"2GiB", 2 << 30},
		{"16M", 16 << 20},
	} {
		got, err := ParseSize(tc.in)
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: got %d want %d", tc.in, got, tc.want)
		}
	}

	for _, bad := range []string{"", "MiB", "12XB", "-1", "0xffffffffffffffffGiB"} {
		if _, err := ParseSize(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("testdata", "two-igds.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.Memory.Base != 0x40000000 || sc.Memory.Size != 256<<20 {
		t.Fatalf("memory: got %+v", sc.Memory)
	}
	if sc.OpRegion.Size != 8<<10 {
		t.Fatalf("opregion size: got %d", sc.OpRegion.Size)
	}
	if len(sc.Devices) != 3 {
		t.Fatalf("devices: got %d want 3", len(sc.Devices))
	}

	first := sc.Devices[0]
	if pci.Address(first.Address) != (pci.Address{Device: 2}) || first.Device != 0x0102 || first.GMCH != 0x20 {
		t.Fatalf("first device: got %+v", first)
	}
	if first.VendorID() != 0x8086 {
		t.Fatalf("default vendor: got %#x", first.VendorID())
	}
	if first.ClassCode() != [3]byte{0, 0, pci.ClassDisplay} {
		t.Fatalf("default class: got % x", first.ClassCode())
	}

	last := sc.Devices[2]
	if !last.Late || last.ClassCode() != [3]byte{0, pci.ClassDisplayOther, pci.ClassDisplay} {
		t.Fatalf("late device: got %+v", last)
	}
}

func TestParseScenarioRejects(t *testing.T) {
	for _, tc := range []struct {
		name string
		doc  string
	}{
		{"missing memory", "devices: []\n"},
		{"bad address", "memory: {size: 1MiB}\ndevices: [{address: \"zz\"}]\n"},
		{"duplicate address", "memory: {size: 1MiB}\ndevices: [{address: \"00:02.0\"}, {address: \"00:02.0\"}]\n"},
		{"wide device id", "memory: {size: 1MiB}\ndevices: [{address: \"00:02.0\", device: 0x10000}]\n"},
		{"other segment", "memory: {size: 1MiB}\ndevices: [{address: \"0001:00:02.0\"}]\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseScenario([]byte(tc.doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestSimulateTwoIGDs(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("testdata", "two-igds.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sim, err := simulate(sc)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	defer sim.Close()

	devices, err := sim.report()
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("devices: got %d want 3", len(devices))
	}
	primary, other, late := devices[0], devices[1], devices[2]
	if primary.ASLS == 0 || late.ASLS == 0 || primary.ASLS == late.ASLS {
		t.Fatalf("ASLS: primary %#x late %#x", primary.ASLS, late.ASLS)
	}
	if other.ASLS != 0 || other.BDSM != 0 {
		t.Fatalf("non-Intel function provisioned: %+v", other)
	}
	if primary.Generation != 6 || other.Generation != igd.Unsupported {
		t.Fatalf("generation: primary %d other %d", primary.Generation, other.Generation)
	}
	if primary.BDSM == 0 || primary.BDSM%(1<<20) != 0 {
		t.Fatalf("primary BDSM: got %#x", primary.BDSM)
	}
	if late.BDSM != 0 || primary.BDSM64 != 0 {
		t.Fatalf("unexpected stolen memory: primary %+v late %+v", primary, late)
	}

	var out bytes.Buffer
	if err := printReport(&out, sim); err != nil {
		t.Fatalf("print report: %v", err)
	}
	if !strings.Contains(out.String(), "Reserved") || !strings.Contains(out.String(), "snb") {
		t.Fatalf("report missing stolen memory or platform:\n%s", out.String())
	}

	dir := t.TempDir()
	if err := dumpRegions(dir, sim); err != nil {
		t.Fatalf("dump: %v", err)
	}
	opRegion, err := os.ReadFile(filepath.Join(dir, "opregion-00_02_0.bin"))
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	if !bytes.HasPrefix(opRegion, []byte(igdassign.OpRegionSignature)) {
		t.Fatalf("dumped OpRegion lacks signature: % x", opRegion[:16])
	}
	stolen, err := os.Stat(filepath.Join(dir, "stolen-00_02_0.bin"))
	if err != nil {
		t.Fatalf("stat stolen dump: %v", err)
	}
	if stolen.Size() != 128<<20 {
		t.Fatalf("stolen dump size: got %d want %d", stolen.Size(), 128<<20)
	}
}

func TestSimulateWithoutOpRegion(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("testdata", "no-opregion.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sim, err := simulate(sc)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	defer sim.Close()

	if regions := sim.Regions(); len(regions) != 0 {
		t.Fatalf("regions published without an OpRegion: %+v", regions)
	}
	devices, err := sim.report()
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if devices[0].ASLS != 0 || devices[0].BDSM != 0 {
		t.Fatalf("inactive driver wrote config space: %+v", devices[0])
	}
}
