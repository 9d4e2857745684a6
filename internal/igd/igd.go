// Package igd classifies Intel integrated graphics devices by generation and
// decodes how much stolen memory each one asks for.
package igd

import (
	"fmt"

	"github.com/tinyrange/igd/internal/devices/pci"
)

// Config-space layout of an assigned IGD, per QEMU's igd-assign contract.
const (
	VendorID = pci.VendorIntel

	// ASLSOffset holds the 32-bit OpRegion address.
	ASLSOffset = 0xfc
	// BDSMOffset holds the 32-bit stolen memory base (up to Gen9).
	BDSMOffset = 0x5c
	// BDSM64Offset holds the 64-bit stolen memory base (Gen11 and later).
	BDSM64Offset = 0xc0
	// GMCHOffset is the 16-bit graphics control register carrying GMS.
	GMCHOffset = 0x50

	// BDSMAlign is the required stolen memory alignment in bytes.
	BDSMAlign = 1 << 20

	// OpRegionFile names the fw_cfg file carrying the host OpRegion.
	OpRegionFile = "etc/igd-opregion"
)

// Unsupported is the generation reported for unknown device ids.
const Unsupported = -1

// AddressWidth selects which BDSM register receives the stolen base.
type AddressWidth uint8

const (
	WidthNone AddressWidth = iota
	BDSM32
	BDSM64
)

func (w AddressWidth) String() string {
	switch w {
	case BDSM32:
		return "bdsm32"
	case BDSM64:
		return "bdsm64"
	default:
		return "none"
	}
}

// Family groups device ids that share a GMCH layout, a stolen-size
// formula and a BDSM register width.
type Family uint8

const (
	FamilyUnknown Family = iota
	FamilyGen6
	FamilyGen8
	FamilyCherryview
	FamilyGen9
	FamilyGen11
)

func (f Family) String() string {
	switch f {
	case FamilyGen6:
		return "gen6"
	case FamilyGen8:
		return "gen8"
	case FamilyCherryview:
		return "chv"
	case FamilyGen9:
		return "gen9"
	case FamilyGen11:
		return "gen11"
	default:
		return fmt.Sprintf("Family(%d)", uint8(f))
	}
}

// AddressWidth returns the BDSM register the family publishes through.
func (f Family) AddressWidth() AddressWidth {
	switch f {
	case FamilyGen6, FamilyGen8, FamilyCherryview, FamilyGen9:
		return BDSM32
	case FamilyGen11:
		return BDSM64
	default:
		return WidthNone
	}
}

// HasStolenMemory reports whether the family has a stolen-size formula.
func (f Family) HasStolenMemory() bool {
	return f.formula() != formulaNone
}
