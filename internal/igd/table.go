package igd

import (
	"fmt"
	"log/slog"
)

// Record is one generation table entry.
type Record struct {
	DeviceID   uint16
	Platform   string
	Generation int
	Family     Family
}

// Supported reports whether the record describes a known device.
func (r Record) Supported() bool {
	return r.Generation > 0
}

// Table maps device ids to records. Order matters: Lookup lets later
// entries override earlier ones with the same id.
type Table []Record

// Lookup scans the whole table and returns the last record for id. A
// later record with Generation Unsupported masks earlier ones, and ok is
// false for it.
func (t Table) Lookup(id uint16) (Record, bool) {
	found := Record{DeviceID: id, Generation: Unsupported}
	matched := false
	for _, r := range t {
		if r.DeviceID == id {
			found = r
			matched = true
		}
	}
	ok := matched && found.Supported()
	if ok {
		slog.Debug("igd: device matched",
			"device", fmt.Sprintf("%#04x", id),
			"platform", found.Platform,
			"generation", found.Generation,
			"family", found.Family.String(),
			"width", found.Family.AddressWidth().String())
	} else if matched {
		slog.Debug("igd: device masked as unsupported",
			"device", fmt.Sprintf("%#04x", id), "platform", found.Platform)
	}
	return found, ok
}

type platform struct {
	name       string
	generation int
	family     Family
	ids        []uint16
}

func (p platform) records() []Record {
	out := make([]Record, 0, len(p.ids))
	for _, id := range p.ids {
		out = append(out, Record{
			DeviceID:   id,
			Platform:   p.name,
			Generation: p.generation,
			Family:     p.family,
		})
	}
	return out
}

var platforms = []platform{
	{"snb", 6, FamilyGen6, snbIDs},
	{"ivb", 7, FamilyGen6, ivbIDs},
	{"hsw", 7, FamilyGen6, hswIDs},
	{"vlv", 7, FamilyGen6, vlvIDs},
	{"bdw", 8, FamilyGen8, bdwIDs},
	{"chv", 8, FamilyCherryview, chvIDs},
	{"skl", 9, FamilyGen9, sklIDs},
	{"bxt", 9, FamilyGen9, bxtIDs},
	{"kbl", 9, FamilyGen9, kblIDs},
	{"cfl", 9, FamilyGen9, cflIDs},
	{"whl", 9, FamilyGen9, whlIDs},
	{"cml", 9, FamilyGen9, cmlIDs},
	{"glk", 9, FamilyGen9, glkIDs},
	{"icl", 11, FamilyGen11, iclIDs},
	{"ehl", 11, FamilyGen11, ehlIDs},
	{"jsl", 11, FamilyGen11, jslIDs},
	{"tgl", 12, FamilyGen11, tglIDs},
	{"rkl", 12, FamilyGen11, rklIDs},
	{"adl-s", 12, FamilyGen11, adlsIDs},
	{"adl-p", 12, FamilyGen11, adlpIDs},
	{"adl-n", 12, FamilyGen11, adlnIDs},
	{"rpl-s", 12, FamilyGen11, rplsIDs},
	{"rpl-u", 12, FamilyGen11, rpluIDs},
	{"rpl-p", 12, FamilyGen11, rplpIDs},
}

// DefaultTable lists every supported IGD.
var DefaultTable = buildTable(platforms)

func buildTable(ps []platform) Table {
	var t Table
	for _, p := range ps {
		t = append(t, p.records()...)
	}
	return t
}

// Lookup searches DefaultTable.
func Lookup(id uint16) (Record, bool) {
	return DefaultTable.Lookup(id)
}
