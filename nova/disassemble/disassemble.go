// Package disassemble renders a raw Nova instruction word as a short
// textual mnemonic. It is a pure function plus an optional override
// table CPU-model setup populates for the CPU720 mnemonics.
package disassemble

import "fmt"

const maxLen = 20

// Overrides maps an exact instruction word to a fixed mnemonic. Only
// the CPU720 setup populates it (IDFY, LDB, STB, BMOVE, WMOVE, COMP,
// SCHEL, SFREE, LINK, REMEL, PLINK, FETCH, TAKEA, TAKEV); the CPU
// pseudo-device forms (IORST, INTEN/INTDS, SKPINTN/Z, SKPPWRN/Z,
// EXMEM) have no entries and render through Generic.
type Overrides struct {
	table map[uint16]string
}

// NewOverrides returns an empty override table.
func NewOverrides() *Overrides {
	return &Overrides{table: make(map[uint16]string)}
}

// Set installs a fixed mnemonic for an exact instruction word.
func (o *Overrides) Set(word uint16, mnemonic string) {
	o.table[word] = mnemonic
}

// Text returns the mnemonic for word, consulting the override table
// first, falling back to the generic decoder. The result is always
// at most maxLen characters.
func (o *Overrides) Text(word uint16) string {
	if o != nil {
		if m, ok := o.table[word]; ok {
			return truncate(m)
		}
	}
	return truncate(Generic(word))
}

func truncate(s string) string {
	if len(s) > maxLen {
		return s[:maxLen]
	}
	return s
}

// regNames are the four accumulator names, indexed by the 2-bit AC
// field used throughout the instruction formats.
var regNames = [4]string{"0", "1", "2", "3"}

// Generic decodes word using only the fixed Nova opcode classes: the
// top three bits select {memory-reference, LDA, STA, I/O, ALU}.
func Generic(word uint16) string {
	class := (word >> 13) & 0x7
	switch class {
	case 0:
		return memRefText(word)
	case 1:
		return fmt.Sprintf("LDA %s,%s", regNames[(word>>11)&0x3], eaText(word))
	case 2:
		return fmt.Sprintf("STA %s,%s", regNames[(word>>11)&0x3], eaText(word))
	case 3:
		return ioText(word)
	default:
		return aluText(word)
	}
}

func memRefText(word uint16) string {
	op := (word >> 11) & 0x3
	names := [4]string{"JMP", "JSR", "ISZ", "DSZ"}
	return fmt.Sprintf("%s %s", names[op], eaText(word))
}

func eaText(word uint16) string {
	disp := word & 0xff
	mode := (word >> 8) & 0x3
	indir := ""
	if word&0x0400 != 0 {
		indir = "@"
	}
	switch mode {
	case 0:
		return fmt.Sprintf("%s%#o", indir, disp)
	case 1:
		return fmt.Sprintf("%s.+%#o", indir, int8(disp))
	case 2:
		return fmt.Sprintf("%s%#o,2", indir, int8(disp))
	default:
		return fmt.Sprintf("%s%#o,3", indir, int8(disp))
	}
}

func ioText(word uint16) string {
	op := (word >> 8) & 0x7
	act := (word >> 6) & 0x3
	dev := word & 0x3f
	ops := [8]string{"NIO", "DIA", "DOA", "DIB", "DOB", "DIC", "DOC", "SKP"}
	acts := [4]string{"", "S", "C", "P"}
	ac := regNames[(word>>11)&0x3]
	if op == 7 {
		tests := [4]string{"BN", "BZ", "DN", "DZ"}
		return fmt.Sprintf("SKP%s %#o", tests[act], dev)
	}
	return fmt.Sprintf("%s%s %s,%#o", ops[op], acts[act], ac, dev)
}

func aluText(word uint16) string {
	src := regNames[(word>>13)&0x3]
	dst := regNames[(word>>11)&0x3]
	op := (word >> 8) & 0x7
	shift := (word >> 6) & 0x3
	carry := (word >> 4) & 0x3
	noLoad := (word >> 3) & 0x1
	skip := word & 0x7

	ops := [8]string{"COM", "NEG", "MOV", "INC", "ADC", "SUB", "ADD", "AND"}
	carries := [4]string{"", "Z", "O", "C"}
	shifts := [4]string{"", "L", "R", "S"}
	skips := [8]string{"", "SKP", "SZC", "SNC", "SZR", "SNR", "SEZ", "SBN"}

	mnem := ops[op] + carries[carry] + shifts[shift]
	if noLoad != 0 {
		mnem += "#"
	}
	text := fmt.Sprintf("%s %s,%s", mnem, src, dst)
	if skips[skip] != "" {
		text += "," + skips[skip]
	}
	return text
}
