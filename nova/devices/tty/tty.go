// Package tty implements the console TTY device pair (TTI input,
// TTO output), the ASR-33-style default console, backed by an
// elastic buffer whose ends are the host's stdin/stdout.
package tty

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/rcornwell/novasim/elastic"
	"github.com/rcornwell/novasim/nova/callout"
	"github.com/rcornwell/novasim/nova/device"
	"github.com/rcornwell/novasim/nova/interrupt"
)

// DefaultDevNoTTI and DefaultDevNoTTO are the fixed default device
// numbers and priorities from the machine's default assignment table.
const (
	DefaultDevNoTTI  = 0o10
	DefaultPrioTTI   = 14
	DefaultDevNoTTO  = 0o11
	DefaultPrioTTO   = 15
	bitsPerChar      = 10
	defaultBaudCPS   = 10 // ASR-33 default: 10 characters/second
)

// TTY bundles the console's input and output devices and the
// elastic buffer connecting them to the host terminal.
type TTY struct {
	In  *device.Device
	Out *device.Device
	Buf *elastic.Buffer

	restoreFn func()
	sim       func() uint64
}

// New builds a TTY pair at devnoTTI/devnoTTO (the caller installs
// t.In and t.Out on the bus), reading from r and writing to w. If r is an *os.File attached to a
// real terminal, the host terminal is placed in raw mode via
// golang.org/x/term for the lifetime of the TTY.
func New(devnoTTI, prioTTI, devnoTTO, prioTTO uint16, r io.Reader, w io.Writer,
	irq *interrupt.Controller, callouts *callout.List, simTime func() uint64) *TTY {

	buf := elastic.New(elastic.Bidirectional, bitsPerChar, bitsPerChar*defaultBaudCPS)

	t := &TTY{
		In:  device.New("TTI", devnoTTI, uint8(prioTTI), irq, callouts),
		Out: device.New("TTO", devnoTTO, uint8(prioTTO), irq, callouts),
		Buf: buf,
		sim: simTime,
	}

	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if old, err := term.MakeRaw(int(f.Fd())); err == nil {
			t.restoreFn = func() { _ = term.Restore(int(f.Fd()), old) }
		}
	}

	go t.readLoop(r)
	t.Out.IOExec = t.execOut
	t.In.IOExec = t.execIn
	return t
}

// Close restores the host terminal's mode, if it was changed.
func (t *TTY) Close() {
	if t.restoreFn != nil {
		t.restoreFn()
	}
}

func (t *TTY) readLoop(r io.Reader) {
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			t.Buf.Inject(buf[:n])
		}
		if err != nil {
			if err != io.EOF {
				slog.Error("tty read error", "err", err)
			}
			return
		}
	}
}

// execIn implements TTI: DIA returns the last received character;
// START schedules device-completes at one character time so Busy/Done
// mirrors real per-character handshaking.
func (t *TTY) execIn(d *device.Device, op device.Op, action device.Action, acIn uint16) uint16 {
	acOut := device.StdIO(d, op, action, acIn)
	if action == device.ActionStart {
		b := make([]byte, 1)
		n := t.Buf.Get(b)
		if n > 0 {
			d.Lock()
			d.IregA = uint16(b[0])
			d.Unlock()
		}
		d.DoneIn(t.sim(), uint64(t.Buf.NsecPerChar()))
	}
	return acOut
}

// execOut implements TTO: DOA latches the character to send; START
// writes it to the host and schedules completion after one character
// time of simulated baud delay.
func (t *TTY) execOut(d *device.Device, op device.Op, action device.Action, acIn uint16) uint16 {
	acOut := device.StdIO(d, op, action, acIn)
	if action == device.ActionStart {
		d.Lock()
		ch := byte(d.OregA)
		d.Unlock()
		t.Buf.Put([]byte{ch})
		d.DoneIn(t.sim(), uint64(t.Buf.NsecPerChar()))
	}
	return acOut
}
