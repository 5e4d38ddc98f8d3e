package machine

import (
	"log/slog"

	"github.com/rcornwell/novasim/nova/device"
)

// I/O opcode selectors, bits 10..8 of class-3 words.
const (
	ioNIO = iota
	ioDIA
	ioDOA
	ioDIB
	ioDOB
	ioDIC
	ioDOC
	ioSKP
)

// I/O action selectors, bits 7..6.
const (
	ioActionNone = iota
	ioActionStart
	ioActionClear
	ioActionPulse
)

// SKP test selectors, bits 7..6 when op == ioSKP. Bit pattern 0 is
// BusyNonzero, 1 is BusyZero, 2 is DoneNonzero, 3 is DoneZero
// (IO_SKPBN=0x6700/IO_SKPBZ=0x6740/IO_SKPDN=0x6780/IO_SKPDZ=0x67c0).
const (
	skpBusyNonzero = iota
	skpBusyZero
	skpDoneNonzero
	skpDoneZero
)

var opToDeviceOp = [8]device.Op{
	ioNIO: device.NIO, ioDIA: device.DIA, ioDOA: device.DOA,
	ioDIB: device.DIB, ioDOB: device.DOB, ioDIC: device.DIC, ioDOC: device.DOC,
}

var actionMap = [4]device.Action{
	ioActionNone: device.ActionNone, ioActionStart: device.ActionStart,
	ioActionClear: device.ActionClear, ioActionPulse: device.ActionPulse,
}

var skpTestMap = [4]device.SkipTest{
	skpBusyNonzero: device.BusyNonzero, skpBusyZero: device.BusyZero,
	skpDoneNonzero: device.DoneNonzero, skpDoneZero: device.DoneZero,
}

// execIO implements the I/O instruction class: low 6 bits select the
// device number, bits 7..6 the action, bits 10..8 the operation.
func execIO(m *Machine) uint64 {
	word := m.ins
	ac := (word >> 11) & 0x3
	op := (word >> 8) & 0x7
	actSel := (word >> 6) & 0x3
	devno := word & 0x3f
	mapped := m.Bus.IsInstalled(devno)
	if !mapped {
		slog.Debug("I/O to unmapped device", "devno", devno, "ins", word)
	}

	if op == ioSKP {
		d := m.Bus.At(devno)
		test := skpTestMap[actSel]
		var taken bool
		if d.SkipExec != nil {
			taken = d.SkipExec(d, test)
		} else {
			taken = device.StdSkip(d, test)
		}
		if devno == device.CPUSlot {
			taken = m.cpuSkip(test)
		}
		if taken {
			m.nextPC++
		}
		if taken {
			return m.Timing.IOSkpSkip
		}
		return m.Timing.IOSkp
	}

	d := m.Bus.At(devno)
	devOp := opToDeviceOp[op]
	action := actionMap[actSel]
	if !mapped {
		// The shared sentinel must never latch Busy/Done.
		action = device.ActionNone
	}

	var acOut uint16
	if d.IOExec != nil {
		acOut = d.IOExec(d, devOp, action, m.AC[ac])
	} else {
		acOut = device.StdIO(d, devOp, action, m.AC[ac])
	}
	switch devOp {
	case device.DIA, device.DIB, device.DIC:
		m.AC[ac] = acOut
	}

	if devno == device.CPUSlot {
		return m.Timing.IOScp
	}
	switch devOp {
	case device.DIA, device.DIB, device.DIC:
		return m.Timing.IOInput
	case device.DOA, device.DOB, device.DOC:
		return m.Timing.IOOutput
	default:
		return m.Timing.IONIO
	}
}

// installCPUPseudoDevice installs the CPU pseudo-device at slot 63:
// NIO (INTEN/INTDS via action), DIA (READS), DIB (INTA), DIC (IORST),
// DOB (MSKO), DOC (HALT).
func installCPUPseudoDevice(m *Machine) {
	d := device.New("CPU", device.CPUSlot, 0, m.IRQ, m.Callouts)
	d.Prio = 0 // the pseudo-device never itself raises an interrupt
	d.IOExec = func(_ *device.Device, op device.Op, action device.Action, acIn uint16) uint16 {
		switch op {
		case device.NIO:
			switch action {
			case device.ActionStart: // INTEN
				m.mu.Lock()
				m.inten[2] = true
				m.mu.Unlock()
			case device.ActionClear: // INTDS
				m.mu.Lock()
				m.inten = [3]bool{}
				m.mu.Unlock()
			}
			return 0
		case device.DIA: // READS
			return m.Switches
		case device.DIB: // INTA
			return m.IRQ.INTA()
		case device.DIC: // IORST
			m.Bus.IORSTAll()
			m.mu.Lock()
			m.inten = [3]bool{}
			m.mu.Unlock()
			return 0
		case device.DOB: // MSKO
			m.IRQ.SetMask(acIn)
			return 0
		case device.DOC: // HALT
			m.mu.Lock()
			m.running = false
			m.mu.Unlock()
			return 0
		}
		return 0
	}
	m.Bus.Install(d)
}

// cpuSkip implements SKP on device 63: tests inten[0] (SKPINTN/Z
// class) or the stubbed power-fail line (always clear).
func (m *Machine) cpuSkip(test device.SkipTest) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch test {
	case device.BusyNonzero:
		return m.inten[0]
	case device.BusyZero:
		return !m.inten[0]
	case device.DoneZero: // power-fail line is never set
		return true
	}
	return false
}
