package fwcfg

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Item locates a fw_cfg file.
type Item struct {
	Selector uint16
	Size     uint32
}

// Present checks the "QEMU" signature on t.
func Present(t Transport) (bool, error) {
	var sig [4]byte
	t.Select(FW_CFG_SIGNATURE)
	if err := t.ReadBytes(sig[:]); err != nil {
		return false, fmt.Errorf("fwcfg: read signature: %w", err)
	}
	return bytes.Equal(sig[:], signature), nil
}

// FindFile walks the file directory through t looking for name.
func FindFile(t Transport, name string) (Item, error) {
	var hdr [dirHeaderSize]byte
	t.Select(FW_CFG_FILE_DIR)
	if err := t.ReadBytes(hdr[:]); err != nil {
		return Item{}, fmt.Errorf("fwcfg: read directory count: %w", err)
	}
	count := binary.BigEndian.Uint32(hdr[:])

	var raw [dirEntrySize]byte
	for i := uint32(0); i < count; i++ {
		if err := t.ReadBytes(raw[:]); err != nil {
			return Item{}, fmt.Errorf("fwcfg: read directory entry %d: %w", i, err)
		}
		if e := decodeEntry(raw[:]); e.name == name {
			return e.item, nil
		}
	}
	return Item{}, fmt.Errorf("%w: %q", ErrFileNotFound, name)
}
