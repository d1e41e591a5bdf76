// Package chip64 executes Chip64 bytecode: a 4096-byte address space, 16
// 16-bit registers, a call stack, a memory pointer, and up to 16 devices on
// a bus. The execution engine is strictly single-threaded; one instruction
// runs to completion before the next begins.
package chip64

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/oisee/chip64/pkg/device"
)

const (
	// NumRegisters is the register file size; register 0xF doubles as the
	// carry/borrow/shift-capture flag.
	NumRegisters = 16
	// MemorySize is the linear address space, code and data alike.
	MemorySize = 4096
	// StackDepth is the call stack capacity in return addresses.
	StackDepth = 16
	// FlagRegister is the register receiving carry/borrow/shift captures.
	FlagRegister = 0xF
	// AddrMask keeps PC/MP arithmetic inside 12 bits.
	AddrMask = 0xFFF
)

// Status is the terminal state of a run.
type Status uint8

const (
	StatusRunning Status = iota
	// StatusHalted: HALT executed, or a stack fault forced a stop.
	StatusHalted
	// StatusOutOfBounds: the next fetch would fall outside the address space.
	StatusOutOfBounds
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusHalted:
		return "halted"
	case StatusOutOfBounds:
		return "out-of-bounds"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Config carries the optional pieces of a machine. The zero value works:
// console on slot 0, deterministic randomness, no tracing.
type Config struct {
	// Devices maps slot indices to devices. Slot 0 defaults to a console
	// over os.Stdin/os.Stdout unless overridden here.
	Devices map[uint8]device.Device
	// Seed feeds the BAR random source.
	Seed int64
	// Trace, when set, logs every executed instruction and device fault.
	Trace *slog.Logger
}

// Machine is one VM instance. It exclusively owns its registers, memory,
// stack, pointers, and device slots.
type Machine struct {
	regs  [NumRegisters]uint16
	mem   [MemorySize]byte
	stack []uint16
	pc    uint16
	mp    uint16

	alert  bool
	status Status

	bus   *device.Bus
	rng   *rand.Rand
	trace *slog.Logger
}

// New loads a program image at address 0 and wires the device bus.
// Execution starts at PC=0 with MP=0.
func New(program []byte, cfg Config) (*Machine, error) {
	if len(program) > MemorySize {
		return nil, fmt.Errorf("program image is %d bytes, limit %d", len(program), MemorySize)
	}
	m := &Machine{
		stack: make([]uint16, 0, StackDepth),
		bus:   device.NewBus(),
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		trace: cfg.Trace,
	}
	copy(m.mem[:], program)
	m.bus.Attach(0, device.NewConsole(os.Stdin, os.Stdout))
	for slot, d := range cfg.Devices {
		m.bus.Attach(slot, d)
	}
	return m, nil
}

// Reg returns register i.
func (m *Machine) Reg(i uint8) uint16 {
	return m.regs[i&0xF]
}

// SetReg sets register i. Exposed for the host inspection surface.
func (m *Machine) SetReg(i uint8, v uint16) {
	m.regs[i&0xF] = v
}

// PC returns the program counter.
func (m *Machine) PC() uint16 {
	return m.pc
}

// MP returns the memory pointer.
func (m *Machine) MP() uint16 {
	return m.mp
}

// SetMP sets the memory pointer, masked to 12 bits.
func (m *Machine) SetMP(v uint16) {
	m.mp = v & AddrMask
}

// Mem exposes the address space for host inspection.
func (m *Machine) Mem() []byte {
	return m.mem[:]
}

// Stack returns the current call stack, bottom first.
func (m *Machine) Stack() []uint16 {
	return m.stack
}

// Alert reports whether any illegal opcode or device fault was raised.
// The flag is sticky; nothing clears it.
func (m *Machine) Alert() bool {
	return m.alert
}

// Status returns the current run status.
func (m *Machine) Status() Status {
	return m.status
}

// Bus exposes the device bus, e.g. to inspect device pointers after a run.
func (m *Machine) Bus() *device.Bus {
	return m.bus
}
