// Package cpumodel enumerates the Nova/RC3600 CPU model identities the
// emulator can impersonate and their IDFY identification bytes.
package cpumodel

// Model identifies a CPU variant.
type Model int

const (
	Nova Model = iota
	Nova1200
	Nova800
	Nova2
	RC7000
	RC3603
	RC3703
	RC3803
)

var names = map[Model]string{
	Nova:     "Nova",
	Nova1200: "Nova1200",
	Nova800:  "Nova800",
	Nova2:    "Nova2",
	RC7000:   "RC7000",
	RC3603:   "RC3603",
	RC3703:   "RC3703",
	RC3803:   "RC3803",
}

func (m Model) String() string {
	if n, ok := names[m]; ok {
		return n
	}
	return "unknown"
}

// ByName resolves a case-sensitive model name as used in config files
// and the front-panel "cpu model" verb.
func ByName(name string) (Model, bool) {
	for m, n := range names {
		if n == name {
			return m, true
		}
	}
	return 0, false
}

// HasCPU720 reports whether m implements the CPU720 list/byte
// instruction extensions (IDFY, LDB/STB, BMOVE/WMOVE/COMP,
// SCHEL/SFREE/LINK/REMEL/PLINK, FETCH/TAKEA/TAKEV).
func (m Model) HasCPU720() bool {
	return m == RC3703 || m == RC3803
}

// IdentByte is the value the IDFY instruction returns for m, indexed
// 0..4 by the front-panel "cpu ident <n>" override (default derived
// from the model itself when no override is set).
func (m Model) IdentByte() uint16 {
	switch m {
	case RC3803:
		return 4
	case RC3703:
		return 3
	case RC3603:
		return 2
	case RC7000:
		return 1
	default:
		return 0
	}
}
