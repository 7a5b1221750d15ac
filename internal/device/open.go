package device

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Backend kinds accepted by Open.
const (
	KindOpenCL   = "opencl"
	KindEmulated = "emulated"
)

// Open resolves a device context of the given kind. For OpenCL, negative
// indices select the default device of the first platform.
// A missing device surfaces as *Error with code DeviceNotFound.
func Open(kind string, platformIndex, deviceIndex int) (Backend, error) {
	switch kind {
	case KindOpenCL:
		b, err := openOpenCL(platformIndex, deviceIndex)
		if err != nil {
			return nil, err
		}
		logOpened(b)
		return b, nil
	case KindEmulated:
		b := NewEmulatedBackend()
		logOpened(b)
		return b, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want %s or %s)", kind, KindOpenCL, KindEmulated)
	}
}

func logOpened(b Backend) {
	info := b.Info()
	ev := log.Debug().
		Str("backend", b.Name()).
		Str("device", info.Name).
		Str("vendor", info.Vendor).
		Str("version", info.Version).
		Int("compute_units", info.ComputeUnits)
	if info.GlobalMem > 0 {
		ev = ev.Uint64("global_mem", info.GlobalMem)
	}
	ev.Msg("Device resolved")
}
