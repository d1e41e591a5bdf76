package device

import (
	"encoding/binary"
	"math"

	"github.com/m-mizutani/goerr"
)

// FPU micro-operation selectors, held in bits 7:4 of the device pointer.
// Bits 3:0 select the operand slot in the register bank.
const (
	FpuPass  = 0x0 // read bank[i] unchanged
	FpuAdd   = 0x1 // bank[i] + bank[i+1]
	FpuSub   = 0x2 // bank[i] - bank[i+1]
	FpuMul   = 0x3 // bank[i] * bank[i+1]
	FpuDiv   = 0x4 // bank[i] / bank[i+1]
	FpuMod   = 0x5 // fmod(bank[i], bank[i+1])
	FpuSqrt  = 0x6 // sqrt(bank[i])
	FpuAbs   = 0x7 // |bank[i]|
	FpuNeg   = 0x8 // -bank[i]
	FpuPow   = 0x9 // bank[i] ** bank[i+1]
	FpuTrunc = 0xA // trunc(bank[i])
)

// FPU is the floating-point coprocessor: a bank of 16 IEEE-754 single
// floats plus a pointer packing the selected micro-operation and operand
// slot. Writes latch big-endian operands into the bank starting at the
// selected slot; reads evaluate the selected operation, store the result in
// the selected slot, and return its big-endian encoding.
type FPU struct {
	bank [16]float32
	ptr  uint16
}

func NewFPU() *FPU {
	return &FPU{}
}

// Write stores each complete 4-byte group into the bank, advancing the slot
// nibble of the pointer. A trailing partial group is a fault and is dropped.
func (f *FPU) Write(p []byte) error {
	idx := f.ptr & 0xF
	for len(p) >= 4 {
		f.bank[idx] = math.Float32frombits(binary.BigEndian.Uint32(p))
		idx = (idx + 1) & 0xF
		p = p[4:]
	}
	f.ptr = f.ptr&^0xF | idx
	if len(p) != 0 {
		return goerr.New("fpu operand not a whole float").With("trailing", len(p))
	}
	return nil
}

// Read evaluates the selected micro-operation and returns the result fitted
// to n bytes. Binary operations consume the selected slot and its successor.
func (f *FPU) Read(n int) ([]byte, error) {
	idx := f.ptr & 0xF
	a := f.bank[idx]
	b := f.bank[(idx+1)&0xF]

	var res float32
	switch (f.ptr >> 4) & 0xF {
	case FpuPass:
		res = a
	case FpuAdd:
		res = a + b
	case FpuSub:
		res = a - b
	case FpuMul:
		res = a * b
	case FpuDiv:
		res = a / b
	case FpuMod:
		res = float32(math.Mod(float64(a), float64(b)))
	case FpuSqrt:
		res = float32(math.Sqrt(float64(a)))
	case FpuAbs:
		res = float32(math.Abs(float64(a)))
	case FpuNeg:
		res = -a
	case FpuPow:
		res = float32(math.Pow(float64(a), float64(b)))
	case FpuTrunc:
		res = float32(math.Trunc(float64(a)))
	default:
		return nil, goerr.New("fpu unknown operation").With("op", (f.ptr>>4)&0xF)
	}

	f.bank[idx] = res
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, math.Float32bits(res))
	return fitBytes(out, n), nil
}

func (f *FPU) SetPointer(v uint16) {
	f.ptr = v
}

func (f *FPU) Pointer() uint16 {
	return f.ptr
}
