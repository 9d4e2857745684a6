package pci

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// ConfigBuffer is a byte-backed configuration space. Writes to read-only
// bytes are dropped the way hardware ignores them.
type ConfigBuffer struct {
	mu       sync.Mutex
	data     []byte
	readOnly map[uint16]struct{}
}

// NewConfigBuffer returns a zeroed config space of the given size. Sizes
// other than ConfigSpaceSize and ExtendedConfigSpace are rounded up to one
// of them.
func NewConfigBuffer(size int) *ConfigBuffer {
	if size <= ConfigSpaceSize {
		size = ConfigSpaceSize
	} else {
		size = ExtendedConfigSpace
	}
	return &ConfigBuffer{
		data:     make([]byte, size),
		readOnly: make(map[uint16]struct{}),
	}
}

// NewEndpointConfig returns a config space with a type 0 header holding the
// supplied identity. The identity bytes are read-only.
func NewEndpointConfig(vendor, device uint16, class [3]byte) *ConfigBuffer {
	c := NewConfigBuffer(ConfigSpaceSize)
	binary.LittleEndian.PutUint16(c.data[VendorIDOffset:], vendor)
	binary.LittleEndian.PutUint16(c.data[DeviceIDOffset:], device)
	copy(c.data[ClassCodeOffset:], class[:])
	c.SetReadOnlyRange(VendorIDOffset, DeviceIDOffset+1)
	c.SetReadOnlyRange(RevisionOffset, ClassCodeOffset+2)
	c.SetReadOnlyRange(HeaderTypeOffset, HeaderTypeOffset)
	return c
}

// SetReadOnlyRange marks [start, end] as read-only.
func (c *ConfigBuffer) SetReadOnlyRange(start, end uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for offset := uint32(start); offset <= uint32(end); offset++ {
		c.readOnly[uint16(offset)] = struct{}{}
	}
}

// Poke stores raw bytes at offset regardless of read-only marks. It is the
// device-side view of its own registers.
func (c *ConfigBuffer) Poke(offset uint16, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if int(offset)+len(data) > len(c.data) {
		return fmt.Errorf("%w: poke %d bytes at %#x", ErrInvalidAccess, len(data), offset)
	}
	copy(c.data[offset:], data)
	return nil
}

// Poke16 stores a 16-bit register regardless of read-only marks.
func (c *ConfigBuffer) Poke16(offset uint16, value uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], value)
	return c.Poke(offset, buf[:])
}

// Size returns the size of the config space in bytes.
func (c *ConfigBuffer) Size() int {
	return len(c.data)
}

// ReadConfig implements ConfigReader.
func (c *ConfigBuffer) ReadConfig(width Width, offset uint16, count int) ([]byte, error) {
	n, err := c.span(width, offset, count)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]byte, n)
	copy(out, c.data[offset:int(offset)+n])
	return out, nil
}

// WriteConfig implements ConfigWriter.
func (c *ConfigBuffer) WriteConfig(width Width, offset uint16, data []byte) error {
	if !width.valid() || len(data)%int(width) != 0 {
		return fmt.Errorf("%w: %d bytes with width %s", ErrInvalidAccess, len(data), width)
	}
	if _, err := c.span(width, offset, len(data)/int(width)); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, b := range data {
		reg := offset + uint16(i)
		if _, ro := c.readOnly[reg]; ro {
			continue
		}
		c.data[reg] = b
	}
	return nil
}

func (c *ConfigBuffer) span(width Width, offset uint16, count int) (int, error) {
	if !width.valid() || count <= 0 {
		return 0, fmt.Errorf("%w: width %d count %d", ErrInvalidAccess, width, count)
	}
	if offset%uint16(width) != 0 {
		return 0, fmt.Errorf("%w: %s access at unaligned offset %#x", ErrInvalidAccess, width, offset)
	}
	n := int(width) * count
	if int(offset)+n > len(c.data) {
		return 0, fmt.Errorf("%w: %d bytes at %#x exceed %d byte config space", ErrInvalidAccess, n, offset, len(c.data))
	}
	return n, nil
}

var _ ConfigSpace = (*ConfigBuffer)(nil)
