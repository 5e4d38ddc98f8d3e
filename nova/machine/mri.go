package machine

import "github.com/rcornwell/novasim/nova/memory"

// Effective-address mode selectors, bits 9..8 of the instruction word.
const (
	modeAbsolute = iota
	modePCRelative
	modeAC2Indexed
	modeAC3Indexed
)

// autoIncLow/autoIncHigh and autoDecLow/autoDecHigh bound the
// auto-increment/auto-decrement indirect address ranges.
const (
	autoIncLow  = 0o20
	autoIncHigh = 0o27
	autoDecLow  = 0o30
	autoDecHigh = 0o37
)

// effectiveAddress computes the address word selects, per §4.3.1:
// displacement is the low 8 bits; mode bits 9..8 choose page-zero
// absolute, PC-relative, or AC2/AC3-indexed addressing; bit 10
// requests one or more indirection levels (chained while the
// indirect bit remains set, only in non-extended-core mode); and
// addresses 0o20..0o27 / 0o30..0o37 auto-increment/decrement on
// indirect reference. It returns the resolved address and the
// additional timing surcharge accrued from indirection levels and any
// auto-increment/decrement references along the way (time_indir_adr /
// time_auto_idx), on top of the instruction's own base cost.
func (m *Machine) effectiveAddress(word uint16) (uint16, uint64) {
	disp := uint16(word & 0xff)
	mode := (word >> 8) & 0x3
	indirect := word&0x0400 != 0

	var addr uint16
	switch mode {
	case modeAbsolute:
		addr = disp
	case modePCRelative:
		addr = m.PC + signExtend8(disp)
	case modeAC2Indexed:
		addr = m.AC[2] + signExtend8(disp)
	case modeAC3Indexed:
		addr = m.AC[3] + signExtend8(disp)
	}
	addr = m.maskPC(addr)

	if !indirect {
		return addr, 0
	}

	var extra uint64
	for {
		extra += m.Timing.IndirAdr
		cell := m.Core.Read(addr, memory.Read|memory.Indir)
		// Auto-increment/decrement mutates the stored pointer for next
		// time, but this reference resolves through its pre-mutation
		// value.
		switch {
		case addr >= autoIncLow && addr <= autoIncHigh:
			m.Core.Write(addr, cell+1, memory.Write|memory.Indir)
			extra += m.Timing.AutoIdx
		case addr >= autoDecLow && addr <= autoDecHigh:
			m.Core.Write(addr, cell-1, memory.Write|memory.Indir)
			extra += m.Timing.AutoIdx
		}
		if m.ExtCore || cell&0x8000 == 0 {
			return m.maskPC(cell), extra
		}
		// Non-extended-core mode chains through further indirect
		// words while bit 15 remains set.
		addr = cell & 0x7fff
	}
}

func signExtend8(v uint16) uint16 {
	if v&0x80 != 0 {
		return v | 0xff00
	}
	return v
}

// Memory-reference opcode selectors, bits 12..11 of class-0 words.
const (
	mriJMP = iota
	mriJSR
	mriISZ
	mriDSZ
)

func execMemRef(m *Machine) uint64 {
	word := m.ins
	op := (word >> 11) & 0x3
	ea, extra := m.effectiveAddress(word)

	switch op {
	case mriJMP:
		m.nextPC = ea
		return m.Timing.Jmp + extra
	case mriJSR:
		m.AC[3] = m.nextPC
		m.nextPC = ea
		return m.Timing.Jsr + extra
	case mriISZ:
		v := m.Core.Read(ea, memory.Read|memory.Modify) + 1
		m.Core.Write(ea, v, memory.Write)
		cost := m.Timing.Isz + extra
		if v == 0 {
			m.nextPC++
			cost += m.Timing.IszSkp
		}
		return cost
	case mriDSZ:
		v := m.Core.Read(ea, memory.Read|memory.Modify) - 1
		m.Core.Write(ea, v, memory.Write)
		cost := m.Timing.Isz + extra
		if v == 0 {
			m.nextPC++
			cost += m.Timing.IszSkp
		}
		return cost
	}
	return m.Timing.Isz + extra
}

func execLDA(m *Machine) uint64 {
	word := m.ins
	ac := (word >> 11) & 0x3
	ea, extra := m.effectiveAddress(word)
	m.AC[ac] = m.Core.Read(ea, memory.Read|memory.Data)
	return m.Timing.Lda + extra
}

func execSTA(m *Machine) uint64 {
	word := m.ins
	ac := (word >> 11) & 0x3
	ea, extra := m.effectiveAddress(word)
	m.Core.Write(ea, m.AC[ac], memory.Write)
	return m.Timing.Sta + extra
}
