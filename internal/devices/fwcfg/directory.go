package fwcfg

import (
	"bytes"
	"encoding/binary"
)

// The file directory item is a big-endian entry count followed by one
// fixed-size entry per file:
//
//	u32be size | u16be select | u16 reserved | name[56], NUL terminated
const (
	dirHeaderSize = 4
	dirEntrySize  = 64
	dirNameOffset = 8
)

type entry struct {
	name string
	item Item
}

// encodeEntry fills dst[:dirEntrySize]. Names longer than 55 bytes are
// truncated to keep the terminator.
func encodeEntry(dst []byte, e entry) {
	dst = dst[:dirEntrySize]
	clear(dst)
	binary.BigEndian.PutUint32(dst[0:4], e.item.Size)
	binary.BigEndian.PutUint16(dst[4:6], e.item.Selector)
	copy(dst[dirNameOffset:dirEntrySize-1], e.name)
}

func decodeEntry(src []byte) entry {
	name := src[dirNameOffset:dirEntrySize]
	if n := bytes.IndexByte(name, 0); n >= 0 {
		name = name[:n]
	}
	return entry{
		name: string(name),
		item: Item{
			Selector: binary.BigEndian.Uint16(src[4:6]),
			Size:     binary.BigEndian.Uint32(src[0:4]),
		},
	}
}
