package machine

import "github.com/rcornwell/novasim/nova/memory"

// InstallGeneric fills every dispatch-table entry with the generic
// decoder; CPU-model setup (InstallCPU720) later overwrites the
// specific opcode words it recognizes.
func InstallGeneric(m *Machine) {
	for w := 0; w < memory.MaxWords; w++ {
		m.dispatch[w] = genericDecode
	}
}

// genericDecode selects an executor by the top 3 bits of the
// instruction word: {memory-reference, LDA, STA, I/O, ALU}.
func genericDecode(m *Machine) uint64 {
	class := (m.ins >> 13) & 0x7
	switch class {
	case 0:
		return execMemRef(m)
	case 1:
		return execLDA(m)
	case 2:
		return execSTA(m)
	case 3:
		return execIO(m)
	default:
		return execALU(m)
	}
}
