package igdassign

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tinyrange/igd/internal/devices/fwcfg"
	"github.com/tinyrange/igd/internal/igd"
)

// Driver is a running IGD assignment subsystem.
type Driver struct {
	scanner *Scanner
}

// Start locates the host OpRegion, arms discovery and provisions every IGD
// already present. Functions that appear later are provisioned as they are
// announced.
//
// Start returns ErrUnsupported when the host did not advertise an
// OpRegion; callers should treat that as "nothing to do".
func Start(cfg Config) (*Driver, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	present, err := fwcfg.Present(cfg.Firmware)
	if err != nil {
		slog.Warn("igdassign: fw_cfg signature read failed", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	if !present {
		slog.Info("igdassign: no fw_cfg interface")
		return nil, fmt.Errorf("%w: fw_cfg signature missing", ErrUnsupported)
	}

	item, err := fwcfg.FindFile(cfg.Firmware, igd.OpRegionFile)
	if err != nil {
		if !errors.Is(err, fwcfg.ErrFileNotFound) {
			slog.Warn("igdassign: fw_cfg lookup failed", "file", igd.OpRegionFile, "err", err)
		}
		return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	if item.Size == 0 {
		slog.Error("igdassign: OpRegion advertised with zero size", "file", igd.OpRegionFile)
		return nil, fmt.Errorf("%w: %s is empty", ErrProtocol, igd.OpRegionFile)
	}

	s := newScanner(cfg, item)

	// Discovery may notify before it returns. Those scans see no cursor
	// and return; the catch-up scan below covers them.
	cursor := cfg.Discovery(s.Scan)
	s.mu.Lock()
	s.cursor = cursor
	s.mu.Unlock()

	slog.Info("igdassign: started",
		"opregion_size", item.Size,
		"selector", fmt.Sprintf("%#x", item.Selector),
		"target", s.target.String())

	// Catch up with functions registered before discovery was armed.
	s.Scan()

	return &Driver{scanner: s}, nil
}

// Scanner returns the driver's scanner.
func (d *Driver) Scanner() *Scanner {
	return d.scanner
}

// Close stops listening for new functions. Published regions stay with
// the guest.
func (d *Driver) Close() {
	d.scanner.mu.Lock()
	cursor := d.scanner.cursor
	d.scanner.mu.Unlock()
	if c, ok := cursor.(interface{ Close() }); ok {
		c.Close()
	}
}
