// Package pci models the parts of PCI configuration space that firmware
// drivers touch: width-typed register access, bus addresses and a host bridge
// that announces functions as they are registered.
package pci

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Standard type 0 header offsets.
const (
	VendorIDOffset   = 0x00
	DeviceIDOffset   = 0x02
	RevisionOffset   = 0x08
	ClassCodeOffset  = 0x09
	HeaderTypeOffset = 0x0e
)

// Class code bytes, in config-space order: interface, sub-class, base class.
const (
	ClassDisplay      = 0x03
	ClassDisplayVGA   = 0x00
	ClassDisplayOther = 0x80
	InterfaceVGA      = 0x00
	ClassBridge       = 0x06
	ClassBridgeHost   = 0x00
)

const VendorIntel = 0x8086

// Configuration space sizes for conventional and extended functions.
const (
	ConfigSpaceSize     = 256
	ExtendedConfigSpace = 4096
)

// Width is the size in bytes of a single configuration access.
type Width uint8

const (
	Width8  Width = 1
	Width16 Width = 2
	Width32 Width = 4
	Width64 Width = 8
)

func (w Width) valid() bool {
	switch w {
	case Width8, Width16, Width32, Width64:
		return true
	default:
		return false
	}
}

func (w Width) String() string {
	return fmt.Sprintf("uint%d", int(w)*8)
}

// ErrInvalidAccess is returned for accesses with a bad width, count or range.
var ErrInvalidAccess = errors.New("pci: invalid config access")

// ConfigReader reads count consecutive values of the given width starting
// at offset. The returned slice holds count*width bytes, little endian.
type ConfigReader interface {
	ReadConfig(width Width, offset uint16, count int) ([]byte, error)
}

// ConfigWriter writes len(data)/width consecutive values starting at offset.
type ConfigWriter interface {
	WriteConfig(width Width, offset uint16, data []byte) error
}

// ConfigSpace is the per-function configuration access capability.
type ConfigSpace interface {
	ConfigReader
	ConfigWriter
}

// Function is a discovered PCI function: config access plus its location.
type Function interface {
	ConfigSpace
	Location() (Address, error)
}

// ReadUint16 reads a 16-bit register.
func ReadUint16(r ConfigReader, offset uint16) (uint16, error) {
	b, err := r.ReadConfig(Width16, offset, 1)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadUint32 reads a 32-bit register.
func ReadUint32(r ConfigReader, offset uint16) (uint32, error) {
	b, err := r.ReadConfig(Width32, offset, 1)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadUint64 reads a 64-bit register.
func ReadUint64(r ConfigReader, offset uint16) (uint64, error) {
	b, err := r.ReadConfig(Width64, offset, 1)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// WriteUint16 writes a 16-bit register.
func WriteUint16(w ConfigWriter, offset uint16, value uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], value)
	return w.WriteConfig(Width16, offset, buf[:])
}

// WriteUint32 writes a 32-bit register.
func WriteUint32(w ConfigWriter, offset uint16, value uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	return w.WriteConfig(Width32, offset, buf[:])
}

// WriteUint64 writes a 64-bit register.
func WriteUint64(w ConfigWriter, offset uint16, value uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)
	return w.WriteConfig(Width64, offset, buf[:])
}

// Address is a segment:bus:device.function tuple.
type Address struct {
	Segment  uint16
	Bus      uint8
	Device   uint8
	Function uint8
}

func (a Address) String() string {
	return fmt.Sprintf("%04x:%02x:%02x.%x", a.Segment, a.Bus, a.Device, a.Function&0xf)
}

// SameBDF reports whether a and b share bus, device and function. The
// segment is not compared.
func (a Address) SameBDF(b Address) bool {
	return a.Bus == b.Bus && a.Device == b.Device && a.Function == b.Function
}

// ParseAddress accepts "ssss:bb:dd.f" or "bb:dd.f" with hexadecimal fields.
func ParseAddress(s string) (Address, error) {
	parts := strings.Split(s, ":")
	var addr Address
	switch len(parts) {
	case 3:
		seg, err := strconv.ParseUint(parts[0], 16, 16)
		if err != nil {
			return Address{}, fmt.Errorf("pci: bad segment in %q: %w", s, err)
		}
		addr.Segment = uint16(seg)
		parts = parts[1:]
	case 2:
	default:
		return Address{}, fmt.Errorf("pci: malformed address %q", s)
	}

	bus, err := strconv.ParseUint(parts[0], 16, 8)
	if err != nil {
		return Address{}, fmt.Errorf("pci: bad bus in %q: %w", s, err)
	}
	devFn := strings.Split(parts[1], ".")
	if len(devFn) != 2 {
		return Address{}, fmt.Errorf("pci: malformed address %q", s)
	}
	dev, err := strconv.ParseUint(devFn[0], 16, 8)
	if err != nil || dev > 0x1f {
		return Address{}, fmt.Errorf("pci: bad device in %q", s)
	}
	fn, err := strconv.ParseUint(devFn[1], 16, 8)
	if err != nil || fn > 0x7 {
		return Address{}, fmt.Errorf("pci: bad function in %q", s)
	}
	addr.Bus = uint8(bus)
	addr.Device = uint8(dev)
	addr.Function = uint8(fn)
	return addr, nil
}
