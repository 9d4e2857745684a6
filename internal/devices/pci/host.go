package pci

import (
	"fmt"
	"sync"
)

// HostBridgeConfig describes the root complex.
type HostBridgeConfig struct {
	Segment      uint16
	RootVendorID uint16
	RootDeviceID uint16
	MaxBus       uint8
}

// HostBridge tracks the functions behind a root complex and tells listeners
// when new ones appear. Bus 0 device 0 function 0 is the bridge itself and
// is registered on construction.
type HostBridge struct {
	segment uint16
	maxBus  uint8

	mu        sync.Mutex
	devices   map[deviceKey]*DeviceHandle
	order     []*DeviceHandle
	listeners []*Registration
}

type deviceKey struct {
	bus uint8
	dev uint8
	fn  uint8
}

// NewHostBridge constructs a host bridge using the supplied config.
func NewHostBridge(cfg HostBridgeConfig) *HostBridge {
	h := &HostBridge{
		segment: cfg.Segment,
		maxBus:  cfg.MaxBus,
		devices: make(map[deviceKey]*DeviceHandle),
	}

	vendor := cfg.RootVendorID
	if vendor == 0 {
		vendor = VendorIntel
	}
	device := cfg.RootDeviceID
	if device == 0 {
		device = 0x1237 // 82441FX
	}
	root := NewEndpointConfig(vendor, device, [3]byte{0x00, ClassBridgeHost, ClassBridge})
	h.add(deviceKey{}, root)
	return h
}

// DeviceHandle is a registered function. It implements Function.
type DeviceHandle struct {
	host  *HostBridge
	key   deviceKey
	space ConfigSpace
}

// ReadConfig implements ConfigReader.
func (d *DeviceHandle) ReadConfig(width Width, offset uint16, count int) ([]byte, error) {
	return d.space.ReadConfig(width, offset, count)
}

// WriteConfig implements ConfigWriter.
func (d *DeviceHandle) WriteConfig(width Width, offset uint16, data []byte) error {
	return d.space.WriteConfig(width, offset, data)
}

// Location implements Function.
func (d *DeviceHandle) Location() (Address, error) {
	if d == nil || d.host == nil {
		return Address{}, fmt.Errorf("pci device handle is nil")
	}
	return Address{
		Segment:  d.host.segment,
		Bus:      d.key.bus,
		Device:   d.key.dev,
		Function: d.key.fn,
	}, nil
}

// RegisterEndpoint places space at bus:device.function and notifies every
// armed listener once the function is visible.
func (h *HostBridge) RegisterEndpoint(bus, device, function uint8, space ConfigSpace) (*DeviceHandle, error) {
	if space == nil {
		return nil, fmt.Errorf("pci endpoint must expose config space")
	}
	if bus > h.maxBus {
		return nil, fmt.Errorf("bus %d beyond max bus %d", bus, h.maxBus)
	}
	if device > 0x1f || function > 0x7 {
		return nil, fmt.Errorf("invalid device/function %02x.%x", device, function)
	}

	key := deviceKey{bus: bus, dev: device, fn: function}
	h.mu.Lock()
	if _, exists := h.devices[key]; exists {
		h.mu.Unlock()
		return nil, fmt.Errorf("device already registered at %02x:%02x.%x", bus, device, function)
	}
	handle := h.add(key, space)
	listeners := append([]*Registration(nil), h.listeners...)
	h.mu.Unlock()

	for _, l := range listeners {
		l.notify()
	}
	return handle, nil
}

// add must be called with the lock held, or before the bridge is shared.
func (h *HostBridge) add(key deviceKey, space ConfigSpace) *DeviceHandle {
	handle := &DeviceHandle{host: h, key: key, space: space}
	h.devices[key] = handle
	h.order = append(h.order, handle)
	return handle
}

// Lookup returns the function registered at bus:device.function.
func (h *HostBridge) Lookup(bus, device, function uint8) (*DeviceHandle, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.devices[deviceKey{bus: bus, dev: device, fn: function}]
	return d, ok
}

// Listen arms fn to run after every future RegisterEndpoint. The returned
// registration enumerates functions this listener has not seen yet,
// beginning with those registered before Listen was called.
func (h *HostBridge) Listen(fn func()) *Registration {
	r := &Registration{host: h, fn: fn}
	h.mu.Lock()
	h.listeners = append(h.listeners, r)
	h.mu.Unlock()
	return r
}

// Registration is a per-listener cursor over registered functions.
type Registration struct {
	host *HostBridge
	fn   func()

	mu     sync.Mutex
	cursor int
	closed bool
}

// Next returns the next function not yet returned by this registration.
func (r *Registration) Next() (Function, bool) {
	r.host.mu.Lock()
	defer r.host.mu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursor >= len(r.host.order) {
		return nil, false
	}
	d := r.host.order[r.cursor]
	r.cursor++
	return d, true
}

// Close disarms the listener. The cursor stays usable.
func (r *Registration) Close() {
	r.host.mu.Lock()
	defer r.host.mu.Unlock()
	for i, l := range r.host.listeners {
		if l == r {
			r.host.listeners = append(r.host.listeners[:i], r.host.listeners[i+1:]...)
			break
		}
	}
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func (r *Registration) notify() {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed || r.fn == nil {
		return
	}
	r.fn()
}

var _ Function = (*DeviceHandle)(nil)
