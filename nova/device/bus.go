package device

import (
	"fmt"
	"sync"
)

// NumSlots is the fixed size of the device table: a 6-bit device
// number space, slot 63 reserved for the CPU pseudo-device.
const NumSlots = 64

// CPUSlot is the device number the CPU pseudo-device always occupies.
const CPUSlot = 63

// sentinel is the shared placeholder occupying every unused slot; its
// StdIO path always answers with zeroed registers and never asserts
// Busy/Done, satisfying the "unmapped device I/O is logged and the
// instruction's effects are those of std_io with zeroed ireg_*"
// program-fault behavior without per-access allocation.
var sentinel = newSentinel()

func newSentinel() *Device {
	d := &Device{Name: "none", DevNo: 0xff}
	d.cond = sync.NewCond(&d.mu)
	d.sleepCond = sync.NewCond(&d.sleepMu)
	return d
}

// Bus is one machine's device table.
type Bus struct {
	slots [NumSlots]*Device
}

// NewBus returns a bus with every slot holding the sentinel.
func NewBus() *Bus {
	b := &Bus{}
	for i := range b.slots {
		b.slots[i] = sentinel
	}
	return b
}

// Install places d at its DevNo slot. It is an error (duplicate
// device install is a fatal-internal condition per the error
// taxonomy) to install onto an occupied slot or with a zero priority.
func (b *Bus) Install(d *Device) error {
	if d.DevNo >= NumSlots {
		return fmt.Errorf("device %s: device number %#o out of range", d.Name, d.DevNo)
	}
	if b.slots[d.DevNo] != sentinel {
		return fmt.Errorf("device %s: slot %#o already occupied by %s", d.Name, d.DevNo, b.slots[d.DevNo].Name)
	}
	if d.Prio == 0 && d.DevNo != CPUSlot {
		return fmt.Errorf("device %s: interrupt priority must be nonzero", d.Name)
	}
	b.slots[d.DevNo] = d
	return nil
}

// At returns the device installed at devno, or the sentinel if none.
func (b *Bus) At(devno uint16) *Device {
	if devno >= NumSlots {
		return sentinel
	}
	return b.slots[devno]
}

// IsInstalled reports whether a real device occupies devno.
func (b *Bus) IsInstalled(devno uint16) bool {
	return devno < NumSlots && b.slots[devno] != sentinel
}

// Each calls fn for every installed (non-sentinel) device, in slot
// order, including the CPU pseudo-device if installed.
func (b *Bus) Each(fn func(d *Device)) {
	for _, d := range b.slots {
		if d != sentinel {
			fn(d)
		}
	}
}

// IORSTAll forces every installed device idle, as the CPU
// pseudo-device's IORST instruction does.
func (b *Bus) IORSTAll() {
	b.Each(func(d *Device) {
		if d.DevNo != CPUSlot {
			d.IORST()
		}
	})
}
