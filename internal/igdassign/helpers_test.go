package igdassign

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/tinyrange/igd/internal/devices/fwcfg"
	"github.com/tinyrange/igd/internal/devices/pci"
	"github.com/tinyrange/igd/internal/guestmem"
	"github.com/tinyrange/igd/internal/igd"
	"github.com/tinyrange/igd/internal/pagealloc"
)

const testMemoryBase = 0x4000_0000

type fakeFunction struct {
	*pci.ConfigBuffer
	addr     pci.Address
	readErr  error
	writeErr error
}

func (f *fakeFunction) ReadConfig(width pci.Width, offset uint16, count int) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.ConfigBuffer.ReadConfig(width, offset, count)
}

func (f *fakeFunction) WriteConfig(width pci.Width, offset uint16, data []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.ConfigBuffer.WriteConfig(width, offset, data)
}

func (f *fakeFunction) Location() (pci.Address, error) {
	return f.addr, nil
}

func igdConfig(t *testing.T, id, gmch uint16) *pci.ConfigBuffer {
	t.Helper()
	cs := pci.NewEndpointConfig(igd.VendorID, id, [3]byte{pci.InterfaceVGA, pci.ClassDisplayVGA, pci.ClassDisplay})
	if err := cs.Poke16(igd.GMCHOffset, gmch); err != nil {
		t.Fatalf("set GMCH: %v", err)
	}
	return cs
}

func newIGD(t *testing.T, addr pci.Address, id, gmch uint16) *fakeFunction {
	t.Helper()
	return &fakeFunction{ConfigBuffer: igdConfig(t, id, gmch), addr: addr}
}

type sliceEnumerator struct {
	fns []pci.Function
}

func (e *sliceEnumerator) Next() (pci.Function, bool) {
	if len(e.fns) == 0 {
		return nil, false
	}
	fn := e.fns[0]
	e.fns = e.fns[1:]
	return fn, true
}

type countingAllocator struct {
	*pagealloc.Pool
	allocs int
	types  []pagealloc.MemoryType
}

func (c *countingAllocator) AllocatePages(maxAddress uint64, t pagealloc.MemoryType, pages uint64) (uint64, error) {
	c.allocs++
	c.types = append(c.types, t)
	return c.Pool.AllocatePages(maxAddress, t, pages)
}

type testEnv struct {
	fw    *fwcfg.FwCfg
	pages *countingAllocator
	mem   *guestmem.Memory
	total uint64
}

// newTestEnv builds a RAM window filled with 0xff so that zeroing is
// observable. A nil opRegion leaves the fw_cfg file out.
func newTestEnv(t *testing.T, memSize int, opRegion []byte) *testEnv {
	t.Helper()
	pool, err := pagealloc.NewPool(testMemoryBase, uint64(memSize))
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	mem := guestmem.New(testMemoryBase, memSize)
	if _, err := mem.WriteAt(bytes.Repeat([]byte{0xff}, memSize), testMemoryBase); err != nil {
		t.Fatalf("fill memory: %v", err)
	}
	fw := fwcfg.New()
	if opRegion != nil {
		fw.AddFile(igd.OpRegionFile, opRegion)
	}
	return &testEnv{
		fw:    fw,
		pages: &countingAllocator{Pool: pool},
		mem:   mem,
		total: pool.FreePageCount(),
	}
}

func (e *testEnv) config(d Discovery) Config {
	return Config{
		Firmware:  e.fw,
		Discovery: d,
		Pages:     e.pages,
		Memory:    e.mem,
	}
}

func (e *testEnv) scanner(t *testing.T) *Scanner {
	t.Helper()
	item, err := fwcfg.FindFile(e.fw, igd.OpRegionFile)
	if err != nil {
		t.Fatalf("find OpRegion: %v", err)
	}
	return newScanner(e.config(nil), item)
}

func (e *testEnv) read(t *testing.T, addr uint64, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	if _, err := e.mem.ReadAt(buf, int64(addr)); err != nil {
		t.Fatalf("read guest memory at %#x: %v", addr, err)
	}
	return buf
}

func testOpRegion(size int) []byte {
	b := make([]byte, size)
	copy(b, OpRegionSignature)
	binary.LittleEndian.PutUint32(b[opRegionSizeOffset:], uint32(size>>10))
	binary.LittleEndian.PutUint32(b[opRegionVersionOffset:], 2<<24|1<<16)
	for i := opRegionHeaderSize; i < size; i++ {
		b[i] = byte(i)
	}
	return b
}

func readReg32(t *testing.T, r pci.ConfigReader, offset uint16) uint32 {
	t.Helper()
	v, err := pci.ReadUint32(r, offset)
	if err != nil {
		t.Fatalf("read %#x: %v", offset, err)
	}
	return v
}

func readReg64(t *testing.T, r pci.ConfigReader, offset uint16) uint64 {
	t.Helper()
	v, err := pci.ReadUint64(r, offset)
	if err != nil {
		t.Fatalf("read %#x: %v", offset, err)
	}
	return v
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
