package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tinyrange/igd/internal/devices/pci"
	"github.com/tinyrange/igd/internal/igd"
)

// Scenario describes a simulated boot.
type Scenario struct {
	Name     string         `yaml:"name"`
	Memory   MemoryConfig   `yaml:"memory"`
	OpRegion OpRegionConfig `yaml:"opregion"`
	// Target overrides the location that receives stolen memory.
	Target  *Address       `yaml:"target,omitempty"`
	Devices []DeviceConfig `yaml:"devices"`
}

// MemoryConfig is the guest RAM window pages are carved from.
type MemoryConfig struct {
	Base Hex  `yaml:"base"`
	Size Size `yaml:"size"`
}

// OpRegionConfig selects the host OpRegion. File wins over Size; with
// neither the fw_cfg file is left out.
type OpRegionConfig struct {
	File string `yaml:"file"`
	Size Size   `yaml:"size"`
}

// DeviceConfig is one PCI function on the simulated bus.
type DeviceConfig struct {
	Address Address `yaml:"address"`
	Vendor  Hex     `yaml:"vendor"`
	Device  Hex     `yaml:"device"`
	// Class is base<<16 | sub<<8 | interface.
	Class *Hex `yaml:"class,omitempty"`
	GMCH  Hex  `yaml:"gmch"`
	// Late registers the function after the driver has started.
	Late bool `yaml:"late"`
}

// ClassCode returns the class bytes in config-space order.
func (d DeviceConfig) ClassCode() [3]byte {
	class := uint64(pci.ClassDisplay) << 16
	if d.Class != nil {
		class = uint64(*d.Class)
	}
	return [3]byte{byte(class), byte(class >> 8), byte(class >> 16)}
}

// VendorID returns the vendor, defaulting to Intel.
func (d DeviceConfig) VendorID() uint16 {
	if d.Vendor == 0 {
		return igd.VendorID
	}
	return uint16(d.Vendor)
}

// Hex is an unsigned integer written in any base strconv accepts.
type Hex uint64

// UnmarshalYAML implements yaml.Unmarshaler for Hex.
func (h *Hex) UnmarshalYAML(value *yaml.Node) error {
	s, err := scalar(value)
	if err != nil || s == "" {
		return err
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", s, err)
	}
	*h = Hex(v)
	return nil
}

// scalar returns the literal text of a scalar node. Numbers keep the base
// they were written in.
func scalar(value *yaml.Node) (string, error) {
	if value.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("line %d: expected a scalar", value.Line)
	}
	return strings.TrimSpace(value.Value), nil
}

// Size is a byte count with an optional KiB, MiB or GiB suffix.
type Size uint64

var sizeSuffixes = []struct {
	suffix string
	shift  uint
}{
	{"KiB", 10},
	{"MiB", 20},
	{"GiB", 30},
	{"K", 10},
	{"M", 20},
	{"G", 30},
}

// ParseSize parses strings such as "4096", "0x1000", "8KiB" and "256MiB".
func ParseSize(s string) (Size, error) {
	s = strings.TrimSpace(s)
	shift := uint(0)
	for _, sfx := range sizeSuffixes {
		if strings.HasSuffix(s, sfx.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, sfx.suffix))
			shift = sfx.shift
			break
		}
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if v > (^uint64(0))>>shift {
		return 0, fmt.Errorf("size %q overflows", s)
	}
	return Size(v << shift), nil
}

// UnmarshalYAML implements yaml.Unmarshaler for Size.
func (sz *Size) UnmarshalYAML(value *yaml.Node) error {
	s, err := scalar(value)
	if err != nil || s == "" {
		return err
	}
	parsed, err := ParseSize(s)
	if err != nil {
		return err
	}
	*sz = parsed
	return nil
}

// Address is a PCI location written as "bb:dd.f" or "ssss:bb:dd.f".
type Address pci.Address

// UnmarshalYAML implements yaml.Unmarshaler for Address.
func (a *Address) UnmarshalYAML(value *yaml.Node) error {
	s, err := scalar(value)
	if err != nil {
		return err
	}
	parsed, err := pci.ParseAddress(s)
	if err != nil {
		return err
	}
	*a = Address(parsed)
	return nil
}

func (a Address) String() string {
	return pci.Address(a).String()
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) validate() error {
	if sc.Memory.Size == 0 {
		return fmt.Errorf("scenario: memory.size is required")
	}
	end := uint64(sc.Memory.Base) + uint64(sc.Memory.Size)
	if end < uint64(sc.Memory.Base) {
		return fmt.Errorf("scenario: memory window wraps")
	}
	seen := make(map[pci.Address]bool)
	for i, d := range sc.Devices {
		addr := pci.Address(d.Address)
		if addr.Segment != 0 {
			return fmt.Errorf("scenario: device %d: segment %04x not simulated", i, addr.Segment)
		}
		if seen[addr] {
			return fmt.Errorf("scenario: device %d: %s listed twice", i, addr)
		}
		seen[addr] = true
		if d.Device > 0xffff || d.Vendor > 0xffff || d.GMCH > 0xffff {
			return fmt.Errorf("scenario: device %d: id, vendor and gmch are 16-bit", i)
		}
		if d.Class != nil && *d.Class > 0xffffff {
			return fmt.Errorf("scenario: device %d: class is 24-bit", i)
		}
	}
	return nil
}
