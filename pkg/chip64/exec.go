package chip64

import (
	"github.com/oisee/chip64/pkg/isa"
)

// Step runs one fetch/decode/dispatch cycle. Each handler decides the next
// PC: +2 by default, +4 for a taken skip, explicit for jumps, calls and
// returns. Illegal words raise the alert and fall through to PC+2.
func (m *Machine) Step() {
	if m.status != StatusRunning {
		return
	}
	if m.pc >= MemorySize-1 {
		m.status = StatusOutOfBounds
		return
	}

	in := isa.Decode(m.mem[m.pc], m.mem[m.pc+1])
	if m.trace != nil {
		m.trace.Debug("exec", "pc", m.pc, "instr", isa.Disassemble(in))
	}
	next := m.pc + 2

	switch in.Op {
	case isa.HALT:
		m.status = StatusHalted
		return
	case isa.RET:
		if len(m.stack) == 0 {
			m.stackFault()
			return
		}
		next = m.stack[len(m.stack)-1]
		m.stack = m.stack[:len(m.stack)-1]
	case isa.GOTO:
		next = in.NNN
	case isa.CALL:
		if !m.push(m.pc + 2) {
			return
		}
		next = in.NNN
	case isa.SNEC:
		if m.regs[in.X] == uint16(in.NN) {
			next += 2
		}
	case isa.SNUEC:
		if m.regs[in.X] != uint16(in.NN) {
			next += 2
		}
	case isa.SNE:
		if m.regs[in.X] == m.regs[in.Y] {
			next += 2
		}
	case isa.SNUE:
		if m.regs[in.X] != m.regs[in.Y] {
			next += 2
		}
	case isa.ACR:
		m.regs[in.X] = uint16(in.NN)
	case isa.ADC:
		// plain wrap-around add, flag untouched
		m.regs[in.X] += uint16(in.NN)
	case isa.AR:
		m.regs[in.X] = m.regs[in.Y]
	case isa.OR:
		m.regs[in.X] |= m.regs[in.Y]
	case isa.AND:
		m.regs[in.X] &= m.regs[in.Y]
	case isa.XOR:
		m.regs[in.X] ^= m.regs[in.Y]
	case isa.ADD:
		sum := uint32(m.regs[in.X]) + uint32(m.regs[in.Y])
		m.setWithFlag(in.X, uint16(sum), flag(sum > 0xFFFF))
	case isa.SUB:
		x, y := m.regs[in.X], m.regs[in.Y]
		m.setWithFlag(in.X, x-y, flag(x >= y))
	case isa.RSUB:
		x, y := m.regs[in.X], m.regs[in.Y]
		m.setWithFlag(in.X, y-x, flag(y >= x))
	case isa.SHR:
		x := m.regs[in.X]
		m.setWithFlag(in.X, x>>in.Y, x>>in.Y&1)
	case isa.SHL:
		x := m.regs[in.X]
		var captured uint16
		if in.Y > 0 {
			// bit (16-Y) of the pre-shift value; Y=0 names bit 16,
			// which does not exist, so the capture is 0
			captured = x >> (16 - in.Y) & 1
		}
		m.setWithFlag(in.X, x<<in.Y, captured)
	case isa.SMP:
		m.mp = in.NNN
	case isa.CPAC:
		next = (m.regs[0] + in.NNN) & AddrMask
	case isa.BAR:
		m.regs[in.X] = uint16(uint8(m.rng.Intn(256)) & in.NN)
	case isa.WRITE:
		m.deviceWrite(in.X, in.NN)
	case isa.DPS:
		m.alertOn(m.bus.SetPointer(in.X, m.regs[FlagRegister]))
	case isa.DPG:
		v, err := m.bus.GetPointer(in.X)
		if err != nil {
			m.alertOn(err)
		} else {
			m.regs[FlagRegister] = v
		}
	case isa.CALLR:
		if !m.push(m.pc + 2) {
			return
		}
		next = m.regs[in.X] & AddrMask
	case isa.RMP:
		m.regs[in.X] = m.mp
	case isa.MPAR:
		m.mp = (m.mp + m.regs[in.X]) & AddrMask
	case isa.SPL:
		m.storeRegister(in.X)
	case isa.LD:
		m.loadRegisters(in.X)
	case isa.READ:
		m.deviceRead(in.X, in.NN)
	case isa.ILLEGAL:
		m.alert = true
	}

	m.pc = next
}

// flag converts a carry/borrow condition to its register encoding.
func flag(cond bool) uint16 {
	if cond {
		return 1
	}
	return 0
}

// setWithFlag stores the result, then the flag. The order matters: a
// destination of 0xF ends up holding the flag, not the result.
func (m *Machine) setWithFlag(x uint8, v, fl uint16) {
	m.regs[x] = v
	m.regs[FlagRegister] = fl
}

// push appends a return address. A full stack is a fault: alert and halt.
func (m *Machine) push(addr uint16) bool {
	if len(m.stack) == StackDepth {
		m.stackFault()
		return false
	}
	m.stack = append(m.stack, addr&AddrMask)
	return true
}

func (m *Machine) stackFault() {
	m.alert = true
	m.status = StatusHalted
}

// alertOn folds a device fault into the alert flag. Faults never escalate
// past the flag; execution continues.
func (m *Machine) alertOn(err error) {
	if err == nil {
		return
	}
	m.alert = true
	if m.trace != nil {
		m.trace.Warn("device fault", "err", err)
	}
}

// window clamps [MP, MP+n) to the address space, raising the alert when the
// range had to be truncated.
func (m *Machine) window(n uint8) []byte {
	end := int(m.mp) + int(n)
	if end > MemorySize {
		end = MemorySize
		m.alert = true
	}
	return m.mem[m.mp:end]
}

func (m *Machine) deviceWrite(slot, n uint8) {
	m.alertOn(m.bus.Write(slot, m.window(n)))
}

func (m *Machine) deviceRead(slot, n uint8) {
	dst := m.window(n)
	got, err := m.bus.Read(slot, len(dst))
	if err != nil {
		m.alertOn(err)
		return
	}
	copy(dst, got)
}

// storeRegister implements SPL: two bytes, big-endian, MP unchanged.
func (m *Machine) storeRegister(x uint8) {
	v := m.regs[x]
	m.mem[m.mp] = byte(v >> 8)
	if int(m.mp)+1 >= MemorySize {
		m.alert = true
		return
	}
	m.mem[m.mp+1] = byte(v)
}

// loadRegisters implements LD: registers 0 through x inclusive, one
// big-endian word each, MP unchanged. Words that would cross the end of the
// address space are skipped with an alert.
func (m *Machine) loadRegisters(x uint8) {
	for k := uint8(0); k <= x; k++ {
		off := int(m.mp) + 2*int(k)
		if off+1 >= MemorySize {
			m.alert = true
			return
		}
		m.regs[k] = uint16(m.mem[off])<<8 | uint16(m.mem[off+1])
	}
}
