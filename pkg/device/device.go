// Package device implements the Chip64 device protocol: four operations
// (write, read, set-pointer, get-pointer) over heterogeneous backing state,
// and the 16-slot bus that routes them.
package device

import "errors"

// Device is one attachable peripheral. The meaning of the pointer is
// device-specific: a format code for the console, an address for memory-like
// devices, an operation selector for the FPU.
//
// Errors returned here are device faults. The executor converts them into
// the machine alert flag; they never abort execution.
type Device interface {
	Write(p []byte) error
	Read(n int) ([]byte, error)
	SetPointer(v uint16)
	Pointer() uint16
}

// ErrNoDevice reports an operation routed to an empty bus slot.
var ErrNoDevice = errors.New("no device bound to slot")

// fitBytes resizes a big-endian byte string to exactly n bytes, truncating
// high-order bytes or zero-extending on the left.
func fitBytes(b []byte, n int) []byte {
	if len(b) == n {
		return b
	}
	if len(b) > n {
		return b[len(b)-n:]
	}
	out := make([]byte, n)
	copy(out[n-len(b):], b)
	return out
}
