package machine_test

import (
	"testing"

	"github.com/rcornwell/novasim/nova/cpumodel"
	"github.com/rcornwell/novasim/nova/device"
	"github.com/rcornwell/novasim/nova/machine"
)

// encodeALU builds an ALU-class instruction word from its fields,
// using the same bit layout production code decodes: class bit15=1,
// src bits14-13, dst bits12-11, op bits10-8, shift bits7-6,
// carry bits5-4, noload bit3, skip bits2-0.
func encodeALU(src, dst, op, shift, carry int, noLoad bool, skip int) uint16 {
	w := uint16(1) << 15
	w |= uint16(src&0x3) << 13
	w |= uint16(dst&0x3) << 11
	w |= uint16(op&0x7) << 8
	w |= uint16(shift&0x3) << 6
	w |= uint16(carry&0x3) << 4
	if noLoad {
		w |= 1 << 3
	}
	w |= uint16(skip & 0x7)
	return w
}

const (
	opCOM = iota
	opNEG
	opMOV
	opINC
	opADC
	opSUB
	opADD
	opAND
)

func newTestMachine(t *testing.T) *machine.Machine {
	t.Helper()
	return machine.New(4096, cpumodel.Nova1200)
}

// S1 — ADD with overflow.
func TestScenarioADDOverflow(t *testing.T) {
	m := newTestMachine(t)
	m.AC[0] = 0x8000
	m.AC[1] = 0x8000
	m.Carry = false
	m.PC = 0o200
	m.Core.Write(0o200, encodeALU(0, 1, opADD, 0, 0, false, 0), 0)

	before := m.SimTime
	m.Step()

	if m.AC[1] != 0 {
		t.Fatalf("AC1 = %#x, want 0", m.AC[1])
	}
	if !m.Carry {
		t.Fatalf("carry = false, want true (17-bit overflow)")
	}
	if m.PC != 0o201 {
		t.Fatalf("PC = %#o, want no skip (0o201)", m.PC)
	}
	if m.SimTime-before != m.Timing.Alu2 {
		t.Fatalf("SimTime delta = %d, want time_alu_2 = %d", m.SimTime-before, m.Timing.Alu2)
	}
}

// S2 — JSR indirect via auto-increment.
func TestScenarioJSRIndirectAutoIncrement(t *testing.T) {
	m := newTestMachine(t)
	m.Core.Write(0o20, 0o0400, 0)
	m.Core.Write(0o0400, 0x3456, 0)
	m.PC = 0o200
	// JMP/JSR class 0, op=JSR(1), indirect bit10 set, mode=0 absolute, disp=0o20.
	word := uint16(0) // class 0
	word |= uint16(1) << 11 // JSR
	word |= 1 << 10         // indirect
	word |= 0o20            // displacement
	m.Core.Write(0o200, word, 0)

	oldPC := m.PC
	m.Step()

	if m.AC[3] != oldPC+1 {
		t.Fatalf("AC3 = %#o, want old PC+1 = %#o", m.AC[3], oldPC+1)
	}
	if m.PC != 0x3456 {
		t.Fatalf("PC = %#x, want 0x3456", m.PC)
	}
	if got := m.Core.Read(0o20, 0); got != 0o0401 {
		t.Fatalf("core[0o20] = %#o, want auto-incremented 0o0401", got)
	}
}

// S3 — Interrupt vectoring.
func TestScenarioInterruptVectoring(t *testing.T) {
	m := newTestMachine(t)
	m.PC = 0o1000
	m.Core.Write(0o1000, encodeALU(0, 0, opCOM, 0, 0, true, 0), 0) // a NOP-ish ALU word
	m.Core.Write(1, 0o2000, 0)
	m.Core.Write(0o2000, encodeALU(0, 0, opCOM, 0, 0, true, 0), 0) // first word of the handler

	d := device.New("tti", 0o10, 14, m.IRQ, m.Callouts)
	if err := m.Bus.Install(d); err != nil {
		t.Fatalf("Install: %v", err)
	}
	m.EnableInterrupts()
	m.IRQ.Raise(d)

	// Step takes the interrupt and then executes the handler's first
	// word at 0o2000, so PC ends one past it.
	m.Step()

	if m.PC != 0o2001 {
		t.Fatalf("PC after interrupt entry and first handler word = %#o, want 0o2001", m.PC)
	}
	if got := m.Core.Read(0, 0); got != 0o1000 {
		t.Fatalf("core[0] = %#o, want saved PC 0o1000", got)
	}
	if _, ok := m.IRQ.Pending(); ok {
		t.Fatalf("Pending() should be false immediately after interrupt entry")
	}
}
