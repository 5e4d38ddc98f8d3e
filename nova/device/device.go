// Package device implements the Nova/RC3600 I/O device framework: a
// 64-slot device table addressed by a 6-bit device number, per-device
// Busy/Done/Pulse state, the standard I/O register transfer/action
// semantics, and the default NIO/SKP handlers most drivers build on.
package device

import (
	"sync"

	"github.com/rcornwell/novasim/nova/callout"
	"github.com/rcornwell/novasim/nova/interrupt"
)

// Op selects the I/O instruction's register-transfer operation.
type Op int

const (
	NIO Op = iota
	DIA
	DOA
	DIB
	DOB
	DIC
	DOC
	SKP
)

// Action selects the I/O instruction's device-control side effect.
type Action int

const (
	ActionNone Action = iota
	ActionStart
	ActionClear
	ActionPulse
)

// SkipTest selects which device flag combination SKP tests.
type SkipTest int

const (
	BusyZero SkipTest = iota
	BusyNonzero
	DoneZero
	DoneNonzero
)

// NoDev is the sentinel device number meaning "no device", used by
// config-file options that take an optional address.
const NoDev uint16 = 0xffff

// Device holds one I/O device's architectural state. Drivers embed or
// reference a Device and install IOExec/SkipExec to implement their
// specific register semantics on top of the standard transitions
// StdIO and StdSkip provide.
type Device struct {
	mu        sync.Mutex
	cond      *sync.Cond
	sleepMu   sync.Mutex
	sleepCond *sync.Cond

	Name     string
	DevNo    uint16
	Prio     uint8 // 4-bit interrupt priority / mask bit position
	Busy     bool
	Done     bool
	Pulse    bool
	IregA    uint16
	IregB    uint16
	IregC    uint16
	OregA    uint16
	OregB    uint16
	OregC    uint16

	IRQ      *interrupt.Controller
	Callouts *callout.List

	// IOExec, if set, is called instead of StdIO for every non-SKP
	// I/O instruction addressed to this device. Most drivers call
	// StdIO themselves and then inspect action.
	IOExec func(d *Device, op Op, action Action, acIn uint16) (acOut uint16)
	// SkipExec, if set, overrides StdSkip.
	SkipExec func(d *Device, test SkipTest) bool

	// Driver is an opaque back-reference for the concrete driver's
	// own private state; the framework never inspects it.
	Driver any

	onWake     func()
	onComplete func()
}

// New constructs a Device at devno with the given interrupt priority,
// wired to controller and callout list. The wake and completion hooks
// start unset; drivers attach them afterwards with OnWake/OnComplete.
func New(name string, devno uint16, prio uint8, irq *interrupt.Controller, callouts *callout.List) *Device {
	d := &Device{
		Name:     name,
		DevNo:    devno,
		Prio:     prio,
		IRQ:      irq,
		Callouts: callouts,
	}
	d.cond = sync.NewCond(&d.mu)
	d.sleepCond = sync.NewCond(&d.sleepMu)
	return d
}

// DevNum and Priority implement interrupt.Source.
func (d *Device) DevNum() uint16  { return d.DevNo }
func (d *Device) Priority() uint8 { return d.Prio }

// OnWake/OnComplete let the concrete driver hook the two callout
// kinds the scheduler can deliver against this device.
func (d *Device) OnWake(fn func())     { d.onWake = fn }
func (d *Device) OnComplete(fn func()) { d.onComplete = fn }

// Wake and Complete implement callout.Target.
func (d *Device) Wake() {
	d.sleepMu.Lock()
	d.sleepCond.Signal()
	d.sleepMu.Unlock()
	if d.onWake != nil {
		d.onWake()
	}
}

func (d *Device) Complete() {
	d.mu.Lock()
	wasBusy := d.Busy
	if wasBusy {
		d.Busy = false
		d.Done = true
	}
	d.mu.Unlock()
	if wasBusy {
		if d.IRQ != nil {
			d.IRQ.Raise(d)
		}
		if d.onComplete != nil {
			d.onComplete()
		}
	}
}

// Lock/Unlock expose the device mutex to drivers that need to hold it
// across a register transfer plus private-state update.
func (d *Device) Lock()   { d.mu.Lock() }
func (d *Device) Unlock() { d.mu.Unlock() }

// WaitBusy blocks until Busy is true, for drivers with a dedicated
// worker goroutine consuming Busy-triggered work.
func (d *Device) WaitBusy() {
	d.mu.Lock()
	for !d.Busy {
		d.cond.Wait()
	}
	d.mu.Unlock()
}

// SleepUntil schedules a WakeDevice callout at Callouts-relative time
// sim+relNanos and blocks on the device's sleep condition until fired.
func (d *Device) SleepUntil(sim uint64, relNanos uint64) {
	d.sleepMu.Lock()
	d.Callouts.Add(sim+relNanos, callout.WakeDevice, d)
	d.sleepCond.Wait()
	d.sleepMu.Unlock()
}

// DoneIn schedules a DeviceCompletes callout at sim+relNanos.
func (d *Device) DoneIn(sim uint64, relNanos uint64) {
	d.Callouts.Add(sim+relNanos, callout.DeviceCompletes, d)
}

// applyAction performs the Busy/Done/Pulse state transition for
// action, signalling the worker condvar and lowering the interrupt
// where the spec requires it. Caller must hold d.mu.
func (d *Device) applyAction(action Action) {
	switch action {
	case ActionStart:
		d.Busy = true
		d.Done = false
		if d.IRQ != nil {
			d.IRQ.Lower(d)
		}
		d.cond.Signal()
	case ActionClear:
		d.Busy = false
		d.Done = false
		if d.IRQ != nil {
			d.IRQ.Lower(d)
		}
	case ActionPulse:
		d.Pulse = true
		d.cond.Signal()
	}
}

// StdIO is the default non-SKP I/O handler: it transfers register
// contents per op, then applies action, in that order, per the
// spec's side-effect ordering.
func StdIO(d *Device, op Op, action Action, acIn uint16) uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()

	var acOut uint16
	switch op {
	case DIA:
		acOut = d.IregA
	case DIB:
		acOut = d.IregB
	case DIC:
		acOut = d.IregC
	case DOA:
		d.OregA = acIn
	case DOB:
		d.OregB = acIn
	case DOC:
		d.OregC = acIn
	case NIO:
		// no register transfer
	}
	d.applyAction(action)
	return acOut
}

// StdSkip is the default SKP handler.
func StdSkip(d *Device, test SkipTest) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch test {
	case BusyZero:
		return !d.Busy
	case BusyNonzero:
		return d.Busy
	case DoneZero:
		return !d.Done
	case DoneNonzero:
		return d.Done
	}
	return false
}

// IORST forces the device idle and lowers its interrupt, as the CPU
// pseudo-device's IORST (DIC on device 63) does to every device.
func (d *Device) IORST() {
	d.mu.Lock()
	d.Busy = false
	d.Done = false
	d.Pulse = false
	d.mu.Unlock()
	if d.IRQ != nil {
		d.IRQ.Lower(d)
	}
}
