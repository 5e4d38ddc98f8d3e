package machine

import (
	"github.com/rcornwell/novasim/nova/cpumodel"
	"github.com/rcornwell/novasim/nova/memory"
)

// controlBlockPtr is the fixed core cell (0x20) the CPU720 list/fetch
// primitives load their active control block from.
const controlBlockPtr = 0x20

// CPU720 fixed opcode words, transcribed from cpu_720.c's dispatch
// table installer. IDFY is the only one of these instructions whose
// execution depends on the AC field, so it is installed under all
// four AC encodings; every other mnemonic is installed only under its
// AC-field-zero encoding, the other three being behaviorally identical
// duplicates the original also never distinguishes.
const (
	opIDFY  uint16 = 0x6102
	opLDB   uint16 = 0x6581
	opSTB   uint16 = 0x6681
	opBMOVE uint16 = 0x6502
	opWMOVE uint16 = 0x6542
	opCOMP  uint16 = 0x6782
	opSCHEL uint16 = 0x6582
	opSFREE uint16 = 0x65c2
	opLINK  uint16 = 0x6602
	opREMEL uint16 = 0x6642
	opPLINK uint16 = 0x6682
	opFETCH uint16 = 0x66c2
	opTAKEA uint16 = 0x6702
	opTAKEV uint16 = 0x6742
)

// InstallCPU720 overrides the dispatch table and disassembly
// overrides with the RC3703/RC3803 list/byte extensions.
func InstallCPU720(m *Machine, model cpumodel.Model) {
	install := func(word uint16, name string, fn Executor) {
		m.dispatch[word] = fn
		m.Overrides.Set(word, name)
	}

	for ac := uint16(0); ac < 4; ac++ {
		install(opIDFY|ac<<11, "IDFY", execIDFY)
	}
	install(opLDB, "LDB 0", execLDB)
	install(opSTB, "STB 0", execSTB)
	install(opBMOVE, "BMOVE", execBMOVE)
	install(opWMOVE, "WMOVE", execWMOVE)
	install(opCOMP, "COMP", execCOMP)
	install(opSCHEL, "SCHEL", execSCHEL)
	install(opSFREE, "SFREE", execSFREE)
	install(opLINK, "LINK", execLINK)
	install(opREMEL, "REMEL", execREMEL)
	install(opPLINK, "PLINK", execPLINK)
	install(opFETCH, "FETCH", execFETCH)
	install(opTAKEA, "TAKEA", execTAKEA)
	install(opTAKEV, "TAKEV", execTAKEV)
}

// execIDFY returns the CPU identity byte in the AC the instruction's
// own AC-select field names, not always AC0.
func execIDFY(m *Machine) uint64 {
	ac := (m.ins >> 11) & 0x3
	m.AC[ac] = m.Ident
	return 1500
}

// byteAddr splits a CPU720 byte address (word address in bits 15..1,
// byte select in bit 0) into a core word address and a high/low
// selector; bit 0 clear selects the high byte.
func byteAddr(v uint16) (word uint16, high bool) {
	return v >> 1, v&1 == 0
}

func getbyte(m *Machine, baddr uint16) uint16 {
	word, high := byteAddr(baddr)
	v := m.Core.Read(word, memory.Read|memory.DMA)
	if high {
		return v >> 8
	}
	return v & 0xff
}

func putbyte(m *Machine, baddr uint16, data uint16) {
	word, high := byteAddr(baddr)
	v := m.Core.Read(word, memory.Read|memory.Modify)
	if high {
		v = (v & 0x00ff) | ((data & 0xff) << 8)
	} else {
		v = (v & 0xff00) | (data & 0xff)
	}
	m.Core.Write(word, v, memory.Write|memory.DMA)
}

// execLDB loads AC0 with the byte addressed by AC1.
func execLDB(m *Machine) uint64 {
	m.AC[0] = getbyte(m, m.AC[1])
	if m.AC[1]&1 != 0 {
		return 3100
	}
	return 3700
}

// execSTB stores the low byte of AC0 into the byte addressed by AC1.
func execSTB(m *Machine) uint64 {
	putbyte(m, m.AC[1], m.AC[0])
	if m.AC[1]&1 != 0 {
		return 4400
	}
	return 5000
}

// execBMOVE moves one byte per dispatch from the byte address in AC1
// to the byte address in AC2, counting down AC3, re-executing itself
// (via nextPC = PC) until AC3 reaches zero. When AC0 is nonzero it is
// a translate-table byte-address base added to the source byte before
// the move.
func execBMOVE(m *Machine) uint64 {
	if m.AC[3] == 0 {
		return 1500
	}
	var dur uint64
	switch {
	case m.AC[1]&1 == 0 && m.AC[2]&1 == 0:
		dur = 7900
	case m.AC[1]&1 != 0 && m.AC[2]&1 == 0:
		dur = 6700
	default:
		dur = 7300
	}
	u := getbyte(m, m.AC[1])
	if m.AC[0] != 0 {
		baddr := m.AC[0] + u
		if baddr&1 != 0 {
			dur += 3100
		} else {
			dur += 2500
		}
		u = getbyte(m, baddr)
	}
	putbyte(m, m.AC[2], u)
	m.AC[1]++
	m.AC[2]++
	m.AC[3]--
	m.nextPC = m.PC
	return dur
}

// execWMOVE moves one word per dispatch from the word address in AC1
// to AC2, counting down AC0, re-executing itself until AC0 reaches
// zero.
func execWMOVE(m *Machine) uint64 {
	if m.AC[0] == 0 {
		return 1500
	}
	v := m.Core.Read(m.AC[1], memory.Read|memory.DMA)
	m.Core.Write(m.AC[2], v, memory.Write|memory.DMA)
	m.AC[1]++
	m.AC[2]++
	m.AC[0]--
	m.nextPC = m.PC
	return 2700
}

// execCOMP compares one byte per dispatch at the byte addresses in
// AC1/AC2, counting down AC0. On a mismatch it stops immediately and
// leaves the byte difference (not the remaining count) in AC0; on a
// run-out match it re-executes itself until AC0 reaches zero.
func execCOMP(m *Machine) uint64 {
	if m.AC[0] == 0 {
		return 1200
	}
	var dur uint64
	switch {
	case m.AC[1]&1 == 0 && m.AC[2]&1 == 0:
		dur = 7500
	case m.AC[1]&1 != 0 && m.AC[2]&1 == 0:
		dur = 6200
	default:
		dur = 6800
	}
	u := getbyte(m, m.AC[1])
	v := getbyte(m, m.AC[2])
	m.AC[1]++
	m.AC[2]++
	if u != v {
		m.AC[0] = u - v
		return dur
	}
	m.AC[0]--
	m.nextPC = m.PC
	return dur
}

// execSCHEL walks the list whose first node is AC1+2, matching the
// 3-word key at AC2/AC2+1/AC2+2 against the key held at each node's
// +4/+5/+6 offsets. A match loads the control block at
// controlBlockPtr into AC3 and returns the node (AC2) and AC1 = node+6;
// exhausting the list (AC1+2 reads zero) does the same with AC2 left
// zero; anything else advances AC1 to the next node and re-executes.
func execSCHEL(m *Machine) uint64 {
	u := m.Core.Read(m.AC[1]+2, memory.Read)
	if u == 0 {
		m.AC[2] = 0
		m.AC[3] = m.Core.Read(controlBlockPtr, memory.Read)
		return 8700
	}
	if m.Core.Read(m.AC[2], memory.Read) == m.Core.Read(u+4, memory.Read) &&
		m.Core.Read(m.AC[2]+1, memory.Read) == m.Core.Read(u+5, memory.Read) &&
		m.Core.Read(m.AC[2]+2, memory.Read) == m.Core.Read(u+6, memory.Read) {
		m.AC[1] = u + 6 // RCSL 52-AA-899, 017234
		m.AC[2] = u
		m.AC[3] = m.Core.Read(controlBlockPtr, memory.Read)
		return 8700
	}
	m.AC[1] = u
	m.nextPC = m.PC
	return 1700
}

// execSFREE walks the list rooted at AC2 looking for a node whose +5
// field is zero (free), advancing AC2 to the next node (+2 field) and
// re-executing while +5 is nonzero.
func execSFREE(m *Machine) uint64 {
	if m.AC[2] == 0 {
		return 2600
	}
	u := m.Core.Read(m.AC[2]+5, memory.Read)
	if u != 0 {
		m.AC[2] = m.Core.Read(m.AC[2]+2, memory.Read)
		m.nextPC = m.PC
	}
	return 2300
}

// execLINK appends the embedded node AC2 to the tail of the
// self-referential list headed at AC1, whose own +1 field holds the
// current tail address; next/prev pointers live at the node's own +0
// and +1 offsets.
func execLINK(m *Machine) uint64 {
	head := m.AC[1]
	elem := m.AC[2]
	oldTail := m.Core.Read(head+1, memory.Read)
	m.AC[3] = head
	m.AC[0] = oldTail // RCSL 52-AA-899, 017606
	m.Core.Write(head+1, elem, memory.Write|memory.Modify)
	m.Core.Write(elem, head, memory.Write|memory.Modify)
	m.Core.Write(elem+1, oldTail, memory.Write|memory.Modify)
	m.Core.Write(oldTail, elem, memory.Write|memory.Modify)
	return 7200
}

// execREMEL unlinks the embedded node AC2 from its list, leaving it
// pointing to itself (detached) afterward.
func execREMEL(m *Machine) uint64 {
	elem := m.AC[2]
	next := m.Core.Read(elem, memory.Read)
	prev := m.Core.Read(elem+1, memory.Read)
	m.AC[3] = next
	m.AC[0] = prev
	m.Core.Write(prev, next, memory.Write|memory.Modify)
	m.Core.Write(next+1, prev, memory.Write|memory.Modify)
	m.Core.Write(elem, elem, memory.Write|memory.Modify)
	m.Core.Write(elem+1, elem, memory.Write|memory.Modify)
	return 8100
}

// execPLINK implements the two-call priority-link protocol: the first
// call (AC1 nonzero) primes AC3/AC0 from the control block at AC2 and
// a fixed cell, clears AC1, and re-executes; the second call walks the
// priority list from AC0 until it finds an element whose +015 priority
// is below AC3, then inserts AC2 just before it.
func execPLINK(m *Machine) uint64 {
	if m.AC[1] != 0 {
		m.Core.Write(m.AC[2]+0o13, 0, memory.Write|memory.Modify)
		m.AC[3] = m.Core.Read(m.AC[2]+0o15, memory.Read)
		m.AC[0] = m.Core.Read(0o54, memory.Read)
		m.AC[1] = 0
		m.nextPC = m.PC
		return 5400
	}

	elem := m.Core.Read(m.AC[0], memory.Read)
	q := m.Core.Read(elem+0o15, memory.Read)
	if q >= m.AC[3] {
		m.AC[0] = elem // RCSL 52-AA-899, 020060
		m.nextPC = m.PC
		return 2300
	}

	pre := m.Core.Read(elem+1, memory.Read)
	m.Core.Write(elem+1, m.AC[2], memory.Write|memory.Modify)
	m.Core.Write(m.AC[2], elem, memory.Write|memory.Modify)
	m.Core.Write(m.AC[2]+1, pre, memory.Write|memory.Modify)
	m.Core.Write(pre, m.AC[2], memory.Write|memory.Modify)
	m.AC[3] = elem // RCSL 52-AA-899, 020064
	m.AC[1] = elem // RCSL 52-AA-899, 020067
	return 7200
}

// execFETCH loads the control block at controlBlockPtr into AC2,
// fetches and advances its +033 index cell, and uses the fetched
// word's low byte as AC0, high byte as AC1, and high byte again as a
// PC-relative skip-table index into the following word.
func execFETCH(m *Machine) uint64 {
	m.AC[2] = m.Core.Read(controlBlockPtr, memory.Read)
	idx := m.Core.Read(m.AC[2]+0o33, memory.Read)
	m.Core.Write(m.AC[2]+0o33, idx+1, memory.Write|memory.Modify)
	q := m.Core.Read(idx, memory.Read)
	m.nextPC = m.Core.Read(m.nextPC+(q>>8), memory.Read)
	m.AC[0] = q & 0xff
	m.AC[1] = q >> 8 // by hand, required
	return 6700
}

// execTAKEA resolves an address-typed argument from the control block
// in AC2 per the AC0&3 case selector; case 3 additionally chases a
// double-indirect lookup to add a bias into AC1.
func execTAKEA(m *Machine) uint64 {
	idx := m.Core.Read(m.AC[2]+0o33, memory.Read)
	m.Core.Write(m.AC[2]+0o33, idx+1, memory.Write|memory.Modify)
	m.AC[1] = m.Core.Read(idx, memory.Read)

	var dur uint64
	switch m.AC[0] & 0x3 {
	case 0:
		dur = 4700
	case 1:
		dur = 4900
	case 2:
		dur = 4700
	case 3:
		dur = 7000
		q := m.AC[1] & 0xff
		m.AC[1] >>= 8
		q1 := m.AC[1] + m.AC[2]
		q1 = m.Core.Read(q1+0o41, memory.Read)
		q1 = m.Core.Read(q1+0o17, memory.Read)
		m.AC[1] = q + q1
	}
	m.AC[0] >>= 2
	m.AC[2] = m.Core.Read(controlBlockPtr, memory.Read) // RCSL 52-AA-899, 020576
	m.Carry = false
	return dur
}

// execTAKEV resolves a value-typed argument from the control block in
// AC2; AC0 bit 0 selects a fixed +032 cell, otherwise it advances the
// +033 index cell as FETCH/TAKEA do, with an optional extra
// indirection when AC0 bit 1 is also set.
func execTAKEV(m *Machine) uint64 {
	var dur uint64
	if m.AC[0]&1 != 0 {
		m.AC[1] = m.Core.Read(m.AC[2]+0o32, memory.Read)
		dur = 2900
	} else {
		dur = 5100
		idx := m.Core.Read(m.AC[2]+0o33, memory.Read)
		m.Core.Write(m.AC[2]+0o33, idx+1, memory.Write|memory.Modify)
		m.AC[1] = m.Core.Read(idx, memory.Read)
		if m.AC[0]&2 != 0 {
			dur += 2600
			m.AC[1] = m.Core.Read(m.AC[1], memory.Read)
		}
	}
	m.AC[0] >>= 2
	return dur
}
