package device

import "github.com/m-mizutani/goerr"

// NumSlots is the size of the bus slot table.
const NumSlots = 16

// Bus routes the four device operations by slot index. It holds no state
// beyond the slot table; empty slots stay nil.
type Bus struct {
	slots [NumSlots]Device
}

func NewBus() *Bus {
	return &Bus{}
}

// Attach binds a device to a slot, replacing whatever was there.
func (b *Bus) Attach(slot uint8, d Device) {
	b.slots[slot&0xF] = d
}

// At returns the device in a slot, or nil if the slot is empty.
func (b *Bus) At(slot uint8) Device {
	return b.slots[slot&0xF]
}

func (b *Bus) Write(slot uint8, p []byte) error {
	d := b.At(slot)
	if d == nil {
		return goerr.Wrap(ErrNoDevice, "device write").With("slot", slot)
	}
	if err := d.Write(p); err != nil {
		return goerr.Wrap(err, "device write").With("slot", slot)
	}
	return nil
}

func (b *Bus) Read(slot uint8, n int) ([]byte, error) {
	d := b.At(slot)
	if d == nil {
		return nil, goerr.Wrap(ErrNoDevice, "device read").With("slot", slot)
	}
	p, err := d.Read(n)
	if err != nil {
		return nil, goerr.Wrap(err, "device read").With("slot", slot)
	}
	return p, nil
}

func (b *Bus) SetPointer(slot uint8, v uint16) error {
	d := b.At(slot)
	if d == nil {
		return goerr.Wrap(ErrNoDevice, "device pointer set").With("slot", slot)
	}
	d.SetPointer(v)
	return nil
}

func (b *Bus) GetPointer(slot uint8) (uint16, error) {
	d := b.At(slot)
	if d == nil {
		return 0, goerr.Wrap(ErrNoDevice, "device pointer get").With("slot", slot)
	}
	return d.Pointer(), nil
}
