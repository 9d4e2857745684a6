package igd

import (
	"fmt"

	"github.com/tinyrange/igd/internal/devices/pci"
)

const (
	mib = 1 << 20

	snbGMSShift = 3
	snbGMSMask  = 0x1f
	bdwGMSShift = 8
	bdwGMSMask  = 0xff
)

type formula uint8

const (
	formulaNone formula = iota
	formulaGen6
	formulaGen8
	formulaCherryview
	formulaGen9
)

func (f Family) formula() formula {
	switch f {
	case FamilyGen6:
		return formulaGen6
	case FamilyGen8:
		return formulaGen8
	case FamilyCherryview:
		return formulaCherryview
	case FamilyGen9, FamilyGen11:
		return formulaGen9
	default:
		return formulaNone
	}
}

// GMS extracts the graphics mode select field from a GMCH value.
func (f Family) GMS(gmch uint16) uint16 {
	switch f.formula() {
	case formulaGen6, formulaCherryview:
		return (gmch >> snbGMSShift) & snbGMSMask
	case formulaGen8, formulaGen9:
		return (gmch >> bdwGMSShift) & bdwGMSMask
	default:
		return 0
	}
}

// StolenBytes decodes the stolen memory size encoded in a GMCH value.
func (f Family) StolenBytes(gmch uint16) uint64 {
	gms := uint64(f.GMS(gmch))

	switch f.formula() {
	case formulaGen6, formulaGen8:
		return gms * 32 * mib

	case formulaCherryview:
		// 0x00-0x10: 32MB steps from 0
		// 0x11-0x16: 4MB steps from 8MB
		// 0x17-0x1d: 4MB steps from 36MB
		switch {
		case gms < 0x11:
			return gms * 32 * mib
		case gms < 0x17:
			return 8*mib + (gms-0x11)*4*mib
		default:
			return 36*mib + (gms-0x17)*4*mib
		}

	case formulaGen9:
		// 0x00-0xef: 32MB steps from 0
		// 0xf0-0xfe: 4MB steps from 4MB
		if gms < 0xf0 {
			return gms * 32 * mib
		}
		return 4*mib + (gms-0xf0)*4*mib

	default:
		return 0
	}
}

// StolenSize reads GMCH through r and decodes it. A failed read yields zero
// and the error; callers treat zero as no stolen memory requested.
func (f Family) StolenSize(r pci.ConfigReader) (uint64, error) {
	gmch, err := pci.ReadUint16(r, GMCHOffset)
	if err != nil {
		return 0, fmt.Errorf("igd: read GMCH: %w", err)
	}
	return f.StolenBytes(gmch), nil
}
