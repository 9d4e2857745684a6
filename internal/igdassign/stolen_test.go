package igdassign

import (
	"errors"
	"testing"

	"github.com/tinyrange/igd/internal/igd"
	"github.com/tinyrange/igd/internal/pagealloc"
)

func TestSetupStolenMemoryWidths(t *testing.T) {
	const size = 4 << 20
	for _, tc := range []struct {
		name   string
		id     uint16
		bdsm64 bool
	}{
		{"gen9 uses BDSM", 0x5916, false},
		{"cherryview uses BDSM", 0x22b0, false},
		{"gen11 uses BDSM64", 0x8a52, true},
		{"gen12 uses BDSM64", 0x9a49, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, 16<<20, testOpRegion(8<<10))
			s := env.scanner(t)
			fn := newIGD(t, DefaultTarget, tc.id, 0)
			rec, ok := igd.Lookup(tc.id)
			if !ok {
				t.Fatalf("%#04x not in table", tc.id)
			}

			if err := s.setupStolenMemory(fn, identity{addr: fn.addr, record: rec}, size); err != nil {
				t.Fatalf("setup stolen memory: %v", err)
			}

			bdsm := uint64(readReg32(t, fn, igd.BDSMOffset))
			bdsm64 := readReg64(t, fn, igd.BDSM64Offset)
			base := bdsm
			if tc.bdsm64 {
				if bdsm != 0 {
					t.Fatalf("BDSM written for a BDSM64 device: %#x", bdsm)
				}
				base = bdsm64
			} else if bdsm64 != 0 {
				t.Fatalf("BDSM64 written for a BDSM device: %#x", bdsm64)
			}

			if base == 0 || base%igd.BDSMAlign != 0 {
				t.Fatalf("stolen base: got %#x want a 1 MiB aligned address", base)
			}
			if !allZero(env.read(t, base, size)) {
				t.Fatalf("stolen memory not zeroed")
			}
			if free := env.pages.FreePageCount(); free != env.total-size/pagealloc.PageSize {
				t.Fatalf("free pages: got %d want %d", free, env.total-size/pagealloc.PageSize)
			}
			if env.pages.types[0] != pagealloc.ReservedMemoryType {
				t.Fatalf("memory type: got %s want Reserved", env.pages.types[0])
			}
		})
	}
}

func TestSetupStolenMemoryZeroSize(t *testing.T) {
	env := newTestEnv(t, 1<<20, testOpRegion(8<<10))
	s := env.scanner(t)
	fn := newIGD(t, DefaultTarget, 0x5916, 0)
	rec, _ := igd.Lookup(0x5916)

	err := s.setupStolenMemory(fn, identity{addr: fn.addr, record: rec}, 0)
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if env.pages.allocs != 0 {
		t.Fatalf("allocator called")
	}
}

func TestSetupStolenMemoryMisconfigured(t *testing.T) {
	env := newTestEnv(t, 16<<20, testOpRegion(8<<10))
	s := env.scanner(t)
	fn := newIGD(t, DefaultTarget, 0x1234, 0)
	rec := igd.Record{DeviceID: 0x1234, Platform: "bogus", Generation: 9}

	err := s.setupStolenMemory(fn, identity{addr: fn.addr, record: rec}, 4<<20)
	if !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("expected ErrMisconfigured, got %v", err)
	}
	if free := env.pages.FreePageCount(); free != env.total {
		t.Fatalf("region leaked: free pages got %d want %d", free, env.total)
	}
	if readReg32(t, fn, igd.BDSMOffset) != 0 || readReg64(t, fn, igd.BDSM64Offset) != 0 {
		t.Fatalf("BDSM written for a misconfigured record")
	}
}

func TestSetupStolenMemoryWriteFailureFreesPages(t *testing.T) {
	env := newTestEnv(t, 16<<20, testOpRegion(8<<10))
	s := env.scanner(t)
	fn := newIGD(t, DefaultTarget, 0x5916, 0)
	fn.writeErr = errors.New("config write rejected")
	rec, _ := igd.Lookup(0x5916)

	if err := s.setupStolenMemory(fn, identity{addr: fn.addr, record: rec}, 4<<20); err == nil {
		t.Fatalf("expected error")
	}
	if free := env.pages.FreePageCount(); free != env.total {
		t.Fatalf("region leaked: free pages got %d want %d", free, env.total)
	}
}

func TestSetupStolenMemoryOutOfResources(t *testing.T) {
	env := newTestEnv(t, 2<<20, testOpRegion(8<<10))
	s := env.scanner(t)
	fn := newIGD(t, DefaultTarget, 0x5916, 0)
	rec, _ := igd.Lookup(0x5916)

	err := s.setupStolenMemory(fn, identity{addr: fn.addr, record: rec}, 4<<20)
	if !errors.Is(err, pagealloc.ErrOutOfResources) {
		t.Fatalf("expected ErrOutOfResources, got %v", err)
	}
	if free := env.pages.FreePageCount(); free != env.total {
		t.Fatalf("free pages: got %d want %d", free, env.total)
	}
}
