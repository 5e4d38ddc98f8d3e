// Package ptr implements the paper tape reader: a read-only,
// elastic-buffer-backed device that delivers one byte per START,
// paced at the buffer's configured character rate.
package ptr

import (
	"github.com/rcornwell/novasim/elastic"
	"github.com/rcornwell/novasim/nova/callout"
	"github.com/rcornwell/novasim/nova/device"
	"github.com/rcornwell/novasim/nova/interrupt"
)

// DefaultDevNo and DefaultPrio are the fixed default device number
// and priority from the machine's default assignment table.
const (
	DefaultDevNo = 0o12
	DefaultPrio  = 11

	// defaultBitsPerSec at bitsPerChar paces the reader at 1000
	// characters per second.
	defaultBitsPerSec = 8000
	bitsPerChar       = 8
)

// PTR is the paper tape reader device.
type PTR struct {
	Dev *device.Device
	Buf *elastic.Buffer
	sim func() uint64
}

// New builds a reader for devno (the caller installs p.Dev on the
// bus), sourcing bytes from feed (an
// elastic buffer whose input side is fed externally, e.g. from a
// tape image file).
func New(devno uint16, prio uint8, feed *elastic.Buffer, irq *interrupt.Controller, callouts *callout.List, simTime func() uint64) *PTR {
	if feed == nil {
		feed = elastic.New(elastic.ReadOnly, bitsPerChar, defaultBitsPerSec)
	}
	p := &PTR{
		Dev: device.New("PTR", devno, prio, irq, callouts),
		Buf: feed,
		sim: simTime,
	}
	p.Dev.IOExec = p.exec
	return p
}

// exec implements DIA/NIOS: START blocks until the next tape byte is
// available, latches it into IregA, and schedules completion after
// one character time so Busy/Done mirrors the mechanical read cycle.
func (p *PTR) exec(d *device.Device, op device.Op, action device.Action, acIn uint16) uint16 {
	acOut := device.StdIO(d, op, action, acIn)
	if action == device.ActionStart {
		b := make([]byte, 1)
		n := p.Buf.Get(b)
		if n > 0 {
			d.Lock()
			d.IregA = uint16(b[0])
			d.Unlock()
		}
		d.DoneIn(p.sim(), uint64(p.Buf.NsecPerChar()))
	}
	return acOut
}
