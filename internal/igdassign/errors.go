package igdassign

import "errors"

var (
	// ErrUnsupported means the host advertised no OpRegion. The platform
	// is not doing IGD assignment and the driver has nothing to do.
	ErrUnsupported = errors.New("igdassign: IGD assignment not advertised")
	// ErrProtocol reports a host contract violation, such as an empty
	// OpRegion file.
	ErrProtocol = errors.New("igdassign: protocol error")
	// ErrInvalidParameter reports a caller error.
	ErrInvalidParameter = errors.New("igdassign: invalid parameter")
	// ErrMisconfigured reports a generation record with no BDSM width.
	ErrMisconfigured = errors.New("igdassign: misconfigured generation record")
)
