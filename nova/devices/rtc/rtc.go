// Package rtc implements the real-time clock device: a periodic
// callout-driven interrupt source exercising the callout scheduler's
// device-completes path (Device.DoneIn) without any elastic buffer.
package rtc

import (
	"github.com/rcornwell/novasim/nova/callout"
	"github.com/rcornwell/novasim/nova/device"
	"github.com/rcornwell/novasim/nova/interrupt"
)

// DefaultDevNo and DefaultPrio are the fixed default device number
// and priority from the machine's default assignment table.
const (
	DefaultDevNo = 0o14
	DefaultPrio  = 13

	// defaultTickNsec is the classic 50Hz line-frequency tick.
	defaultTickNsec = 20_000_000
)

// RTC is a periodically-ticking interrupt source.
type RTC struct {
	Dev      *device.Device
	sim      func() uint64
	tickNsec uint64
	running  bool
}

// New builds an RTC for devno with the given priority (the caller
// installs r.Dev on the bus), using simTime
// to read the machine's current simulated clock for scheduling.
func New(devno uint16, prio uint8, irq *interrupt.Controller, callouts *callout.List, simTime func() uint64) *RTC {
	r := &RTC{
		sim:      simTime,
		tickNsec: defaultTickNsec,
	}
	r.Dev = device.New("RTC", devno, prio, irq, callouts)
	r.Dev.IOExec = r.exec
	r.Dev.OnComplete(r.onTick)
	return r
}

func (r *RTC) exec(d *device.Device, op device.Op, action device.Action, acIn uint16) uint16 {
	acOut := device.StdIO(d, op, action, acIn)
	switch action {
	case device.ActionStart:
		r.running = true
		d.DoneIn(r.sim(), r.tickNsec)
	case device.ActionClear:
		r.running = false
	}
	return acOut
}

// onTick reschedules the next tick as long as the clock is still
// running, so a single START produces a free-running periodic
// interrupt until CLEAR. Complete() only re-raises when it finds the
// device Busy, so the next cycle's Busy has to be re-armed here.
func (r *RTC) onTick() {
	if !r.running {
		return
	}
	r.Dev.Lock()
	r.Dev.Busy = true
	r.Dev.Unlock()
	r.Dev.DoneIn(r.sim(), r.tickNsec)
}
