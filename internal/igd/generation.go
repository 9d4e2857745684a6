package igd

// GenerationOf classifies id by its high byte without consulting the table.
// It covers ids newer than the table as long as Intel keeps the prefix.
func GenerationOf(id uint16) int {
	// Broxton/Apollo Lake uses 0x0a84, 0x1a84, 0x1a85, 0x5a84 and 0x5a85.
	// The 0x0a prefix belongs to Haswell, so match bits 11:1 first.
	if id&0xffe == 0xa84 {
		return 9
	}

	switch id & 0xff00 {
	case 0x0100: // Sandy Bridge, Ivy Bridge
		return 6
	case 0x0400, 0x0a00, 0x0c00, 0x0d00: // Haswell
		return 7
	case 0x0f00: // Valleyview/Bay Trail
		return 7
	case 0x1600, 0x2200: // Broadwell, Cherryview
		return 8
	case 0x1900, 0x3100, 0x5900, 0x3e00, 0x9b00: // Skylake, Gemini Lake, Kaby Lake, Coffee Lake, Comet Lake
		return 9
	case 0x8a00, 0x4500, 0x4e00: // Ice Lake, Elkhart Lake, Jasper Lake
		return 11
	case 0x9a00, 0x4c00, 0x4600, 0xa700: // Tiger Lake, Rocket Lake, Alder Lake, Raptor Lake
		return 12
	}
	return Unsupported
}
