package igd

// PCI device ids of Intel integrated graphics, grouped by platform in the
// order the default table lists them.

var snbIDs = []uint16{
	0x0102, 0x0112, 0x0122, 0x010a, // desktop
	0x0106, 0x0116, 0x0126, // mobile
}

var ivbIDs = []uint16{
	0x0156, 0x0166, // mobile
	0x0152, 0x0162, 0x015a, 0x016a, // desktop
}

var hswIDs = []uint16{
	0x0402, 0x0412, 0x0422, 0x040a, 0x041a, 0x042a,
	0x040b, 0x041b, 0x042b, 0x040e, 0x041e, 0x042e,
	0x0c02, 0x0c12, 0x0c22, 0x0c0a, 0x0c1a, 0x0c2a,
	0x0c0b, 0x0c1b, 0x0c2b, 0x0c0e, 0x0c1e, 0x0c2e,
	0x0a02, 0x0a12, 0x0a22, 0x0a0a, 0x0a1a, 0x0a2a,
	0x0a0b, 0x0a1b, 0x0a2b, 0x0d02, 0x0d12, 0x0d22,
	0x0d0a, 0x0d1a, 0x0d2a, 0x0d0b, 0x0d1b, 0x0d2b,
	0x0d0e, 0x0d1e, 0x0d2e, 0x0406, 0x0416, 0x0426,
	0x0c06, 0x0c16, 0x0c26, 0x0a06, 0x0a16, 0x0a26,
	0x0a0e, 0x0a1e, 0x0a2e, 0x0d06, 0x0d16, 0x0d26,
}

var vlvIDs = []uint16{
	0x0f30, 0x0f31, 0x0f32, 0x0f33,
}

var bdwIDs = []uint16{
	0x1602, 0x1606, 0x160b, 0x160e, // GT1
	0x1612, 0x1616, 0x161b, 0x161e, // GT2
	0x160a, 0x160d, 0x161a, 0x161d, // server
	0x1622, 0x1626, 0x162b, 0x162e, // GT3
	0x162a, 0x162d, // GT3 server
	0x1632, 0x1636, 0x163b, 0x163e, // RSVD
	0x163a, 0x163d,
}

var chvIDs = []uint16{
	0x22b0, 0x22b1, 0x22b2, 0x22b3,
}

var sklIDs = []uint16{
	0x1906, 0x190e, 0x1902, 0x190b, 0x190a, // GT1
	0x1916, 0x1921, 0x191e, 0x1912, 0x191b, 0x191a, 0x191d, // GT2
	0x1923, 0x1926, 0x1927, 0x192b, 0x192d, 0x192a, // GT3
	0x1932, 0x193b, 0x193d, 0x193a, // GT4
}

var bxtIDs = []uint16{
	0x0a84, 0x1a84, 0x1a85, 0x5a84, 0x5a85,
}

var kblIDs = []uint16{
	0x5906, 0x5913, 0x5915, 0x5902, 0x5908, 0x590a, 0x590b, // GT1
	0x5916, 0x5921, 0x591e, 0x5912, 0x5917, 0x591b, 0x591a, 0x591d, // GT2
	0x5926, 0x5923, 0x5927, // GT3
	0x593b,         // GT4
	0x591c, 0x87c0, // AML GT2
}

var cflIDs = []uint16{
	0x3e90, 0x3e93, 0x3e99, // S GT1
	0x3e91, 0x3e92, 0x3e96, 0x3e98, 0x3e9a, // S GT2
	0x3e9c,         // H GT1
	0x3e94, 0x3e9b, // H GT2
	0x3ea9,                         // U GT2
	0x3ea5, 0x3ea6, 0x3ea7, 0x3ea8, // U GT3
	0x87ca, // AML GT2
}

var whlIDs = []uint16{
	0x3ea1, 0x3ea4, // U GT1
	0x3ea0, 0x3ea3, // U GT2
	0x3ea2, // U GT3
}

var cmlIDs = []uint16{
	0x9ba5, 0x9ba8, 0x9ba4, 0x9ba2, 0x9b21, 0x9baa, 0x9bac, 0x9ba0, 0x9bab, // GT1
	0x9bc5, 0x9bc8, 0x9bc4, 0x9bc2, 0x9b41, 0x9bca, 0x9bcc, 0x9bc0, 0x9bcb, // GT2
	0x9be6, 0x9bf6, 0x9bc6, // workstation/server GT2
}

var glkIDs = []uint16{
	0x3184, 0x3185,
}

var iclIDs = []uint16{
	0x8a50, 0x8a52, 0x8a53, 0x8a54, 0x8a56, 0x8a57,
	0x8a58, 0x8a59, 0x8a5a, 0x8a5b, 0x8a5c, 0x8a70,
	0x8a71, 0x8a51, 0x8a5d,
}

var ehlIDs = []uint16{
	0x4541, 0x4551, 0x4555, 0x4557, 0x4570, 0x4571,
}

var jslIDs = []uint16{
	0x4e51, 0x4e55, 0x4e57, 0x4e61, 0x4e71,
}

var tglIDs = []uint16{
	0x9a60, 0x9a68, 0x9a70, 0x9a40, 0x9a49, 0x9a59,
	0x9a78, 0x9ac0, 0x9ac9, 0x9ad9, 0x9af8,
}

var rklIDs = []uint16{
	0x4c80, 0x4c8a, 0x4c8b, 0x4c8c, 0x4c90, 0x4c9a,
}

var adlsIDs = []uint16{
	0x4680, 0x4682, 0x4688, 0x468a, 0x468b, 0x4690, 0x4692, 0x4693,
}

var adlpIDs = []uint16{
	0x46a0, 0x46a1, 0x46a2, 0x46a3, 0x46a6, 0x46a8, 0x46aa,
	0x462a, 0x4626, 0x4628, 0x46b0, 0x46b1, 0x46b2, 0x46b3,
	0x46c0, 0x46c1, 0x46c2, 0x46c3,
}

var adlnIDs = []uint16{
	0x46d0, 0x46d1, 0x46d2, 0x46d3, 0x46d4,
}

var rplsIDs = []uint16{
	0xa780, 0xa781, 0xa782, 0xa783, 0xa788, 0xa789, 0xa78a, 0xa78b,
}

var rpluIDs = []uint16{
	0xa721, 0xa7a1, 0xa7a9, 0xa7ac, 0xa7ad,
}

var rplpIDs = []uint16{
	0xa720, 0xa7a0, 0xa7a8, 0xa7aa, 0xa7ab,
}
