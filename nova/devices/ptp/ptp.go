// Package ptp implements the paper tape punch: a write-only,
// elastic-buffer-backed device that emits one byte per START, paced
// at the buffer's configured character rate.
package ptp

import (
	"github.com/rcornwell/novasim/elastic"
	"github.com/rcornwell/novasim/nova/callout"
	"github.com/rcornwell/novasim/nova/device"
	"github.com/rcornwell/novasim/nova/interrupt"
)

// DefaultDevNo and DefaultPrio are the fixed default device number
// and priority from the machine's default assignment table.
const (
	DefaultDevNo = 0o13
	DefaultPrio  = 13

	defaultBitsPerSec = 8000
	bitsPerChar       = 8
)

// PTP is the paper tape punch device.
type PTP struct {
	Dev *device.Device
	Buf *elastic.Buffer
	sim func() uint64
}

// New builds a punch for devno (the caller installs p.Dev on the
// bus), writing bytes to sink (an elastic
// buffer whose output side is drained externally, e.g. to a tape
// image file).
func New(devno uint16, prio uint8, sink *elastic.Buffer, irq *interrupt.Controller, callouts *callout.List, simTime func() uint64) *PTP {
	if sink == nil {
		sink = elastic.New(elastic.WriteOnly, bitsPerChar, defaultBitsPerSec)
	}
	p := &PTP{
		Dev: device.New("PTP", devno, prio, irq, callouts),
		Buf: sink,
		sim: simTime,
	}
	p.Dev.IOExec = p.exec
	return p
}

// exec implements DOA/NIOS: START punches the latched byte and
// schedules completion after one character time of simulated feed
// delay.
func (p *PTP) exec(d *device.Device, op device.Op, action device.Action, acIn uint16) uint16 {
	acOut := device.StdIO(d, op, action, acIn)
	if action == device.ActionStart {
		d.Lock()
		ch := byte(d.OregA)
		d.Unlock()
		p.Buf.Put([]byte{ch})
		d.DoneIn(p.sim(), uint64(p.Buf.NsecPerChar()))
	}
	return acOut
}
