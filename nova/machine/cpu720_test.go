package machine_test

import (
	"testing"

	"github.com/rcornwell/novasim/nova/cpumodel"
	"github.com/rcornwell/novasim/nova/machine"
)

func newCPU720TestMachine(t *testing.T) *machine.Machine {
	t.Helper()
	return machine.New(8192, cpumodel.RC3703)
}

// IDFY returns the CPU identity byte in the AC the instruction's own
// AC-select field names.
func TestCPU720IDFY(t *testing.T) {
	m := newCPU720TestMachine(t)
	m.PC = 0o200
	m.Core.Write(0o200, 0x6102, 0) // IDFY, AC-select field 0

	m.Step()

	if m.AC[0] != m.Ident {
		t.Fatalf("AC0 = %#x, want ident %#x", m.AC[0], m.Ident)
	}
}

// LDB/STB round-trip a byte through the high half of a word.
func TestCPU720LDBSTB(t *testing.T) {
	m := newCPU720TestMachine(t)
	m.Core.Write(0o300, 0xab00, 0)
	m.AC[1] = 0o600 // byte address 0o600 -> word 0o300, high byte (even)

	m.PC = 0o200
	m.Core.Write(0o200, 0x6581, 0) // LDB 0
	m.Step()

	if m.AC[0] != 0xab {
		t.Fatalf("AC0 = %#x, want 0xab", m.AC[0])
	}

	m.AC[0] = 0xcd
	m.AC[1] = 0o601 // same word, low byte (odd)
	m.PC = 0o202
	m.Core.Write(0o202, 0x6681, 0) // STB 0
	m.Step()

	if got := m.Core.Read(0o300, 0); got != 0xabcd {
		t.Fatalf("core[0o300] = %#x, want 0xabcd", got)
	}
}

// BMOVE moves one byte per dispatch, re-executing itself (PC held)
// until the AC3 count is exhausted, then lets PC advance on the call
// that finds count already zero.
func TestCPU720BMOVE(t *testing.T) {
	m := newCPU720TestMachine(t)
	m.Core.Write(0o300, 0xab00, 0) // src byte at 0o600 (even -> high byte)
	m.AC[0] = 0                    // no translate table
	m.AC[1] = 0o600
	m.AC[2] = 0o620 // dst byte at 0o620 (even -> high byte of 0o310)
	m.AC[3] = 1

	m.PC = 0o200
	m.Core.Write(0o200, 0x6502, 0) // BMOVE

	m.Step()
	if m.PC != 0o200 {
		t.Fatalf("PC after move with count remaining = %#o, want unchanged 0o200 (self-re-execute)", m.PC)
	}
	if got := m.Core.Read(0o310, 0); got != 0xab00 {
		t.Fatalf("core[0o310] = %#x, want 0xab00", got)
	}
	if m.AC[1] != 0o601 || m.AC[2] != 0o621 || m.AC[3] != 0 {
		t.Fatalf("AC1/AC2/AC3 = %#o/%#o/%#o, want 0o601/0o621/0", m.AC[1], m.AC[2], m.AC[3])
	}

	m.Step() // AC3 now 0: terminal call, PC advances
	if m.PC != 0o201 {
		t.Fatalf("PC after terminal call = %#o, want 0o201", m.PC)
	}
}

// WMOVE moves one word per dispatch under the same self-re-execution
// idiom as BMOVE, keyed off AC0 (not AC3 — count and dst are in
// different ACs than BMOVE).
func TestCPU720WMOVE(t *testing.T) {
	m := newCPU720TestMachine(t)
	m.Core.Write(0o600, 0x1234, 0)
	m.AC[0] = 1
	m.AC[1] = 0o600
	m.AC[2] = 0o700

	m.PC = 0o200
	m.Core.Write(0o200, 0x6542, 0) // WMOVE

	m.Step()
	if m.PC != 0o200 {
		t.Fatalf("PC = %#o, want unchanged (self-re-execute)", m.PC)
	}
	if got := m.Core.Read(0o700, 0); got != 0x1234 {
		t.Fatalf("core[0o700] = %#x, want 0x1234", got)
	}
	if m.AC[0] != 0 || m.AC[1] != 0o601 || m.AC[2] != 0o701 {
		t.Fatalf("AC0/AC1/AC2 = %#o/%#o/%#o, want 0/0o601/0o701", m.AC[0], m.AC[1], m.AC[2])
	}

	m.Step()
	if m.PC != 0o201 {
		t.Fatalf("PC after terminal call = %#o, want 0o201", m.PC)
	}
}

// COMP stops at the first mismatch, storing the byte difference (not
// a count) in AC0 and letting PC advance immediately rather than
// looping.
func TestCPU720COMPMismatch(t *testing.T) {
	m := newCPU720TestMachine(t)
	m.Core.Write(0o300, 0x1000, 0) // byte 0o600 (even) = 0x10
	m.Core.Write(0o310, 0x0500, 0) // byte 0o620 (even) = 0x05
	m.AC[0] = 5                    // count, irrelevant to the mismatch exit
	m.AC[1] = 0o600
	m.AC[2] = 0o620

	m.PC = 0o200
	m.Core.Write(0o200, 0x6782, 0) // COMP
	m.Step()

	if m.AC[0] != 0x10-0x05 {
		t.Fatalf("AC0 = %#x, want byte difference %#x", m.AC[0], 0x10-0x05)
	}
	if m.PC != 0o201 {
		t.Fatalf("PC = %#o, want advanced 0o201 (mismatch does not loop)", m.PC)
	}
}

// COMP on a match decrements the count and re-executes.
func TestCPU720COMPMatch(t *testing.T) {
	m := newCPU720TestMachine(t)
	m.Core.Write(0o300, 0x1000, 0) // byte 0o600 = 0x10
	m.Core.Write(0o310, 0x1000, 0) // byte 0o620 = 0x10 (match)
	m.AC[0] = 2
	m.AC[1] = 0o600
	m.AC[2] = 0o620

	m.PC = 0o200
	m.Core.Write(0o200, 0x6782, 0) // COMP
	m.Step()

	if m.AC[0] != 1 {
		t.Fatalf("AC0 = %d, want decremented count 1", m.AC[0])
	}
	if m.PC != 0o200 {
		t.Fatalf("PC = %#o, want unchanged (self-re-execute on match)", m.PC)
	}
}

// LINK appends an embedded node to a circular self-referential list,
// and REMEL unlinks it cleanly back to an empty list.
func TestCPU720LinkRemel(t *testing.T) {
	m := newCPU720TestMachine(t)
	const head = 0o1000
	const elem = 0o1100
	m.Core.Write(head, head, 0)   // empty list: head.forward = self
	m.Core.Write(head+1, head, 0) // head.tail = self

	m.AC[1] = head
	m.AC[2] = elem
	m.PC = 0o200
	m.Core.Write(0o200, 0x6602, 0) // LINK
	m.Step()

	if got := m.Core.Read(head, 0); got != elem {
		t.Fatalf("core[head] = %#o, want elem %#o", got, uint16(elem))
	}
	if got := m.Core.Read(head+1, 0); got != elem {
		t.Fatalf("core[head+1] = %#o, want elem %#o", got, uint16(elem))
	}
	if got := m.Core.Read(elem, 0); got != head {
		t.Fatalf("core[elem] = %#o, want head %#o", got, uint16(head))
	}
	if got := m.Core.Read(elem+1, 0); got != head {
		t.Fatalf("core[elem+1] = %#o, want head %#o", got, uint16(head))
	}

	m.AC[2] = elem
	m.PC = 0o201
	m.Core.Write(0o201, 0x6642, 0) // REMEL
	m.Step()

	if got := m.Core.Read(head, 0); got != head {
		t.Fatalf("core[head] after REMEL = %#o, want head (empty again)", got)
	}
	if got := m.Core.Read(head+1, 0); got != head {
		t.Fatalf("core[head+1] after REMEL = %#o, want head (empty again)", got)
	}
	if got := m.Core.Read(elem, 0); got != elem {
		t.Fatalf("core[elem] after REMEL = %#o, want self (detached)", got)
	}
	if got := m.Core.Read(elem+1, 0); got != elem {
		t.Fatalf("core[elem+1] after REMEL = %#o, want self (detached)", got)
	}
}

// SCHEL matches a 3-word key held at the address in AC2 against the
// +4/+5/+6 fields of a candidate node chained off AC1+2, returning the
// node via AC2/AC1 and the fixed control block via AC3.
func TestCPU720SCHELFound(t *testing.T) {
	m := newCPU720TestMachine(t)
	const node = 0o1000
	const candidate = 0o1100
	const keyAddr = 0o1200
	const controlBlock = 0o5000

	m.Core.Write(node+2, candidate, 0)
	m.Core.Write(keyAddr, 0o11, 0)
	m.Core.Write(keyAddr+1, 0o22, 0)
	m.Core.Write(keyAddr+2, 0o33, 0)
	m.Core.Write(candidate+4, 0o11, 0)
	m.Core.Write(candidate+5, 0o22, 0)
	m.Core.Write(candidate+6, 0o33, 0)
	m.Core.Write(0x20, controlBlock, 0)

	m.AC[1] = node
	m.AC[2] = keyAddr
	m.PC = 0o200
	m.Core.Write(0o200, 0x6582, 0) // SCHEL
	m.Step()

	if m.AC[2] != candidate {
		t.Fatalf("AC2 = %#o, want candidate node %#o", m.AC[2], uint16(candidate))
	}
	if m.AC[1] != candidate+6 {
		t.Fatalf("AC1 = %#o, want candidate+6 = %#o", m.AC[1], uint16(candidate+6))
	}
	if m.AC[3] != controlBlock {
		t.Fatalf("AC3 = %#o, want control block %#o", m.AC[3], uint16(controlBlock))
	}
	if m.PC != 0o201 {
		t.Fatalf("PC = %#o, want advanced 0o201 (found does not loop)", m.PC)
	}
}

// FETCH loads the control block from the fixed core[0x20] cell,
// advances its index field, and uses the fetched word's high byte as
// a PC-relative skip-table offset.
func TestCPU720FETCH(t *testing.T) {
	m := newCPU720TestMachine(t)
	const controlBlock = 0o6000
	const idxCell = 0o700

	m.Core.Write(0x20, controlBlock, 0)
	m.Core.Write(controlBlock+0o33, idxCell, 0)
	m.Core.Write(idxCell, 0x345, 0) // high byte 3, low byte 0x45

	m.PC = 0o200
	m.Core.Write(0o200, 0x66c2, 0) // FETCH
	// Step()'s default nextPC is PC+1 = 0o201; FETCH adds the high
	// byte (3) as a PC-relative offset: the skip table lives at 0o204.
	m.Core.Write(0o204, 0o4000, 0)

	m.Step()

	if m.AC[2] != controlBlock {
		t.Fatalf("AC2 = %#o, want control block %#o", m.AC[2], uint16(controlBlock))
	}
	if got := m.Core.Read(controlBlock+0o33, 0); got != idxCell+1 {
		t.Fatalf("core[cb+033] = %#o, want advanced index %#o", got, uint16(idxCell+1))
	}
	if m.AC[0] != 0x45 {
		t.Fatalf("AC0 = %#x, want low byte 0x45", m.AC[0])
	}
	if m.AC[1] != 3 {
		t.Fatalf("AC1 = %#x, want high byte 3", m.AC[1])
	}
	if m.PC != 0o4000 {
		t.Fatalf("PC = %#o, want skip-table target 0o4000", m.PC)
	}
}
