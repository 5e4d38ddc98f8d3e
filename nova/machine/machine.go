// Package machine implements the Nova/RC3600 CPU: the instruction
// dispatch table, effective-address computation, ALU/memory-
// reference/I/O/skip executors, the CPU720 extensions, interrupt
// vectoring, and the fetch/execute/pace loop that drives simulated
// time against wall-clock time.
package machine

import (
	"sync"
	"time"

	"github.com/rcornwell/novasim/nova/callout"
	"github.com/rcornwell/novasim/nova/cpumodel"
	"github.com/rcornwell/novasim/nova/device"
	"github.com/rcornwell/novasim/nova/disassemble"
	"github.com/rcornwell/novasim/nova/interrupt"
	"github.com/rcornwell/novasim/nova/memory"
	"github.com/rcornwell/novasim/nova/timing"
)

// haltSpinThreshold is the magic three-iteration threshold from the
// original implementation's "JMP self" halt-pace heuristic: once the
// fetched word at PC equals PC itself (a single-instruction infinite
// loop below address 0x100) for more than this many consecutive
// steps, the pacer treats the CPU as parked and paces at 100ms.
const haltSpinThreshold = 3

// haltSpinPace is the pace applied once haltSpinThreshold is exceeded.
const haltSpinPace = 100 * time.Millisecond

// Machine is one Nova/RC3600 CPU instance plus its attached core
// memory, device table, interrupt controller, and callout scheduler.
type Machine struct {
	mu sync.Mutex // guards AC/Carry/PC/ExtCore/Ident/running and inten

	AC       [4]uint16
	Carry    bool
	PC       uint16
	nextPC   uint16
	ins      uint16
	Switches uint16
	ExtCore  bool
	Ident    uint16
	Break    int32 // breakpoint address, or -1 for none

	inten [3]bool // one-instruction interrupt-enable delay register

	InsCount  uint64
	PaceN     uint64
	PaceNsec  uint64
	SimTime   uint64
	RealTime  uint64

	model  cpumodel.Model
	Timing timing.Table

	Core      *memory.Core
	Bus       *device.Bus
	IRQ       *interrupt.Controller
	Callouts  *callout.List
	Overrides *disassemble.Overrides

	dispatch [memory.MaxWords]Executor

	running   bool
	runCond   *sync.Cond
	waitCond  *sync.Cond
	done      chan struct{}
	wg        sync.WaitGroup

	haltSpins int
}

// Executor implements one instruction word's microcode against m. It
// returns the nanosecond cost to charge to SimTime.
type Executor func(m *Machine) uint64

// New constructs a Machine with coreWords of core memory and the
// given CPU model's timing table and dispatch overrides installed.
func New(coreWords int, model cpumodel.Model) *Machine {
	m := &Machine{
		model:     model,
		Timing:    timing.For(model),
		Ident:     model.IdentByte(),
		Break:     -1,
		Overrides: disassemble.NewOverrides(),
		IRQ:       interrupt.New(),
		Callouts:  callout.New(),
	}
	m.Core = memory.New(coreWords, m.Overrides.Text)
	m.Bus = device.NewBus()
	m.runCond = sync.NewCond(&m.mu)
	m.waitCond = sync.NewCond(&m.mu)
	m.done = make(chan struct{})

	InstallGeneric(m)
	if model.HasCPU720() {
		InstallCPU720(m, model)
	}
	installCPUPseudoDevice(m)
	return m
}

// Model returns the CPU model this machine was built with.
func (m *Machine) Model() cpumodel.Model { return m.model }

// SetModel re-targets the machine at a different CPU model, as the
// front panel's "cpu model <name>" verb does before any program is
// loaded. It reinstalls the dispatch table and timing.
func (m *Machine) SetModel(model cpumodel.Model) {
	m.model = model
	m.Timing = timing.For(model)
	m.Ident = model.IdentByte()
	for i := range m.dispatch {
		m.dispatch[i] = nil
	}
	m.Overrides = disassemble.NewOverrides()
	InstallGeneric(m)
	if model.HasCPU720() {
		InstallCPU720(m, model)
	}
}

// EnableInterrupts forces the inten shift register fully on, as three
// consecutive INTEN instructions would after their one-instruction
// delays drain. Intended for tests and the front panel's boot-time
// setup, not for use mid-program.
func (m *Machine) EnableInterrupts() {
	m.mu.Lock()
	m.inten = [3]bool{true, true, true}
	m.mu.Unlock()
}

// SetPC forces the program counter, as the front panel's LOAD and
// deposit-PC verbs do. Intended for use only while the machine is
// stopped.
func (m *Machine) SetPC(pc uint16) {
	m.mu.Lock()
	m.PC = pc
	m.mu.Unlock()
}

// Dispatch returns the executor currently installed for word, so an
// optional tracing layer (e.g. DOMUS call tracing) can wrap it
// without needing its own copy of the dispatch table.
func (m *Machine) Dispatch(word uint16) Executor {
	return m.dispatch[word]
}

// SetDispatch overrides the executor installed for word.
func (m *Machine) SetDispatch(word uint16, fn Executor) {
	m.dispatch[word] = fn
}

// maskPC masks v to 15 bits unless extended-core addressing is on.
func (m *Machine) maskPC(v uint16) uint16 {
	if m.ExtCore {
		return v
	}
	return v & 0x7fff
}
