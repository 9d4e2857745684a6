// Package fwcfg implements the QEMU fw_cfg item store and the sequential
// select-then-read transport firmware uses to pull host-provided files.
package fwcfg

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// fw_cfg selectors
const (
	FW_CFG_SIGNATURE  = 0x0000
	FW_CFG_ID         = 0x0001
	FW_CFG_FILE_DIR   = 0x0019
	FW_CFG_FILE_FIRST = 0x0020
)

// FW_CFG_VERSION is the only feature bit reported in the id item; the
// store has no DMA interface.
const FW_CFG_VERSION = 1 << 0

var signature = []byte("QEMU")

// ErrFileNotFound is returned by FindFile when no directory entry matches.
var ErrFileNotFound = errors.New("fwcfg: file not found")

// Transport is the guest-visible side of fw_cfg: select an item, then
// stream its bytes in order.
type Transport interface {
	Select(selector uint16)
	ReadBytes(p []byte) error
}

type file struct {
	name     string
	selector uint16
	data     []byte
}

// FwCfg is a host-side item store that also serves as its own Transport.
type FwCfg struct {
	mu sync.Mutex

	selector uint16
	offset   int

	// files is indexed by selector - FW_CFG_FILE_FIRST.
	files  []*file
	byName map[string]*file
	dir    []byte
}

// New creates an empty fw_cfg store.
func New() *FwCfg {
	f := &FwCfg{byName: make(map[string]*file)}
	f.dir = f.directory()
	return f
}

// AddFile publishes data under name and returns its selector. Publishing
// an existing name replaces the contents in place.
func (f *FwCfg) AddFile(name string, data []byte) uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()

	fl, ok := f.byName[name]
	if !ok {
		fl = &file{name: name, selector: FW_CFG_FILE_FIRST + uint16(len(f.files))}
		f.files = append(f.files, fl)
		f.byName[name] = fl
	}
	fl.data = data
	f.dir = f.directory()

	slog.Debug("fwcfg: file published",
		"name", name, "selector", fmt.Sprintf("%#x", fl.selector), "size", len(data))
	return fl.selector
}

// directory must be called with the lock held.
func (f *FwCfg) directory() []byte {
	dir := make([]byte, dirHeaderSize+len(f.files)*dirEntrySize)
	binary.BigEndian.PutUint32(dir, uint32(len(f.files)))
	for i, fl := range f.files {
		encodeEntry(dir[dirHeaderSize+i*dirEntrySize:], entry{
			name: fl.name,
			item: Item{Selector: fl.selector, Size: uint32(len(fl.data))},
		})
	}
	return dir
}

// Select implements Transport.
func (f *FwCfg) Select(selector uint16) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selector = selector
	f.offset = 0
	slog.Debug("fwcfg: selector set", "selector", fmt.Sprintf("%#x", selector))
}

// ReadBytes implements Transport. Reads past the end of the item return
// zeros.
func (f *FwCfg) ReadBytes(p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data := f.selected()
	n := 0
	if f.offset < len(data) {
		n = copy(p, data[f.offset:])
	}
	clear(p[n:])
	f.offset += len(p)
	return nil
}

// selected must be called with the lock held.
func (f *FwCfg) selected() []byte {
	switch f.selector {
	case FW_CFG_SIGNATURE:
		return signature
	case FW_CFG_ID:
		return binary.LittleEndian.AppendUint32(nil, FW_CFG_VERSION)
	case FW_CFG_FILE_DIR:
		return f.dir
	}
	if i := int(f.selector) - FW_CFG_FILE_FIRST; i >= 0 && i < len(f.files) {
		return f.files[i].data
	}
	return nil
}
