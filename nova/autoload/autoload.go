// Package autoload implements the front-panel autoload ROM: a set of
// fixed 32-word programs that a real Nova/RC3600 copies into the
// bottom of core and starts from address 0, selected by the low 6
// bits of the front-panel switch register. The payloads are the
// console-init, echo/chargen, generic device bootstrap, card-reader,
// floppy-disc, and disc program loads from RCSL 52-AA894, appendixes
// A/C/D/E/F/G.
package autoload

import (
	"github.com/rcornwell/novasim/nova/machine"
	"github.com/rcornwell/novasim/nova/memory"
)

// appendixA: console init + memory reset (switches & 0x3f == 0).
var appendixA = [32]uint16{
	0o060477, 0o101220, 0o024033, 0o107000, 0o066011, 0o101300, 0o024034, 0o107620,
	0o030035, 0o133000, 0o025000, 0o030033, 0o125002, 0o125300, 0o147300, 0o066011,
	0o024036, 0o067011, 0o030035, 0o051000, 0o151404, 0o000023, 0o062677, 0o007402,
	0o002406, 0o004012, 0o006016, 0o030116, 0o000017, 0o000027, 0o000047, 0o000035,
}

// appendixC: console echo / character generator test (switches == 2).
var appendixC = [32]uint16{
	0o060477, 0o101102, 0o000011, 0o060110, 0o063610, 0o000004, 0o060610, 0o004025,
	0o000003, 0o020031, 0o040000, 0o020034, 0o004025, 0o101400, 0o014000, 0o000014,
	0o020033, 0o004025, 0o020032, 0o004025, 0o000011, 0o061111, 0o063611, 0o000026,
	0o001400, 0o000120, 0o000012, 0o000015, 0o000040, 0, 0, 0,
}

// appendixD: generic device bootstrap, the fallback for any device
// code not given its own appendix.
var appendixD = [32]uint16{
	0o060477, 0o105120, 0o124240, 0o010011, 0o010031, 0o010033, 0o010014, 0o125404,
	0o000003, 0o060077, 0o030017, 0o050377, 0o063377, 0o000011, 0o101102, 0o000377,
	0o004031, 0o101065, 0o000020, 0o004030, 0o046027, 0o010100, 0o000023, 0o000077,
	0o126420, 0o063577, 0o000031, 0o060477, 0o107363, 0o000031, 0o125300, 0o001400,
}

// appendixE: card-reader program load (switches == 0o16 or 0o56).
var appendixE = [32]uint16{
	0o020006, 0o004007, 0o004022, 0o020110, 0o142004, 0o063077, 0o000041, 0o062016,
	0o061116, 0o063516, 0o000010, 0o063516, 0o000013, 0o001400, 0, 0o177730,
	0o000040, 0o000040, 0o152400, 0o020017, 0o040016, 0o022020, 0o101300, 0o026020,
	0o107000, 0o046021, 0o133000, 0o010016, 0o000025, 0o151004, 0o063077, 0o001400,
}

// appendixF: flexible-disc program load (switches == 0o61).
var appendixF = [32]uint16{
	0o070477, 0o150122, 0o000026, 0o151240, 0o010010, 0o010013, 0o151404, 0o000004,
	0o071077, 0o024015, 0o044377, 0o063377, 0o000010, 0o000377, 0o126420, 0o061461,
	0o107363, 0o000017, 0o046025, 0o010100, 0o000016, 0o000077, 0o030037, 0o071161,
	0o063461, 0o000027, 0o063661, 0o000032, 0o151102, 0o000027, 0o000016, 0o101000,
}

// appendixG: disc program load, disc/magtape/high-speed devices
// (switches == 0o73).
var appendixG = [32]uint16{
	0o064477, 0o020037, 0o123400, 0o100404, 0o010031, 0o010032, 0o010022, 0o010025,
	0o101404, 0o000004, 0o125102, 0o000022, 0o004030, 0o175000, 0o004030, 0o175400,
	0o004030, 0o175000, 0o061100, 0o030027, 0o050377, 0o063400, 0o000022, 0o000377,
	0o025400, 0o065300, 0o064400, 0o131300, 0o133405, 0o000032, 0o001401, 0o000077,
}

// selectTable maps switches&0x3f to the appendix it runs, per the
// original AutoRom dispatch; codes 1 and 0o20 have no ROM (memory
// test and disc-storage-module load are out of scope) and are
// treated as absent.
func selectTable(switches uint16) *[32]uint16 {
	switch switches & 0x3f {
	case 0:
		return &appendixA
	case 1, 0o20:
		return nil
	case 2:
		return &appendixC
	case 0o16, 0o56:
		return &appendixE
	case 0o61:
		return &appendixF
	case 0o73:
		return &appendixG
	default:
		return &appendixD
	}
}

// Load copies the ROM selected by m's current switch register into
// the bottom 32 words of core and points PC at address 0, mirroring
// the front panel's LOAD button. It reports false if the selected
// switch setting has no corresponding ROM.
func Load(m *machine.Machine) bool {
	tbl := selectTable(m.Switches)
	if tbl == nil {
		return false
	}
	for addr, word := range tbl {
		m.Core.Write(uint16(addr), word, memory.Null)
	}
	m.SetPC(0)
	return true
}
