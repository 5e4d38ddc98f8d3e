// Package stub provides a minimal installable device for driver
// kinds whose body is out of scope (disk, floppy, multiplexor, card
// reader): it answers NIO/DIx/DOx/SKP with the standard transitions,
// so START sets Busy and nothing ever sets Done; programs probing it
// see a permanently busy device rather than a missing one.
package stub

import (
	"github.com/rcornwell/novasim/nova/callout"
	"github.com/rcornwell/novasim/nova/device"
	"github.com/rcornwell/novasim/nova/interrupt"
)

// Stub is a present-but-inert device.
type Stub struct {
	Dev *device.Device
}

// New builds a stub device for devno/prio under name; the caller
// installs s.Dev on the bus.
func New(name string, devno uint16, prio uint8, irq *interrupt.Controller, callouts *callout.List) *Stub {
	s := &Stub{
		Dev: device.New(name, devno, prio, irq, callouts),
	}
	return s
}
