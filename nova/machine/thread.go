package machine

import (
	"sync/atomic"
	"time"

	"github.com/rcornwell/novasim/nova/memory"
)

// wallNow returns the current wall-clock time in nanoseconds since an
// arbitrary but fixed epoch, suitable for comparison against SimTime.
func wallNow() uint64 {
	return uint64(time.Now().UnixNano())
}

// interruptVector fetches the jump target for interrupt entry: an
// indirect reference through core address 1, chaining through
// further indirect words while bit 15 remains set and extended-core
// addressing is off (the open question on multi-level interrupt
// entry indirection is resolved by following the same
// extended-core-off loop the instruction-indirection path uses).
func (m *Machine) interruptVector() uint16 {
	addr := uint16(1)
	for {
		cell := m.Core.Read(addr, memory.Read|memory.Indir)
		if m.ExtCore || cell&0x8000 == 0 {
			return cell
		}
		addr = cell & 0x7fff
	}
}

// Step executes exactly one instruction: interrupt check/vector,
// fetch, dispatch, PC update, and inten shift. It is the unit the
// fetch/execute loop and the front-panel single-step command share.
func (m *Machine) Step() {
	m.mu.Lock()
	m.IRQ.SetInten(m.inten[0])
	m.mu.Unlock()

	if src, ok := m.IRQ.Pending(); ok {
		_ = src
		m.mu.Lock()
		m.Core.Write(0, m.PC, memory.Write)
		target := m.interruptVector()
		m.PC = m.maskPC(target)
		m.inten = [3]bool{}
		m.IRQ.SetInten(false)
		m.mu.Unlock()
	}

	m.mu.Lock()
	atomic.AddUint64(&m.InsCount, 1)
	m.Core.Tick(m.InsCount)
	ins := m.Core.Read(m.PC, memory.Read|memory.Ins)
	m.ins = ins
	m.nextPC = m.PC + 1

	exec := m.dispatch[ins]
	if exec == nil {
		exec = genericDecode
	}
	dur := exec(m)

	m.PC = m.maskPC(m.nextPC)
	m.inten[0] = m.inten[1]
	m.inten[1] = m.inten[2]
	m.SimTime += dur
	m.mu.Unlock()

	m.Callouts.Poll(m.SimTime)
}

// Run is the CPU goroutine's body: wait for running, fetch/execute,
// poll callouts, pace against wall-clock time. It returns when Stop
// closes m.done.
func (m *Machine) Run() {
	m.wg.Add(1)
	defer m.wg.Done()

	for {
		select {
		case <-m.done:
			return
		default:
		}

		m.mu.Lock()
		for !m.running {
			select {
			case <-m.done:
				m.mu.Unlock()
				return
			default:
			}
			m.waitRunningLocked()
		}
		m.mu.Unlock()

		m.mu.Lock()
		atBreak := m.Break >= 0 && m.PC == uint16(m.Break)
		if atBreak {
			m.running = false
		}
		m.mu.Unlock()
		if atBreak {
			continue
		}

		m.RealTime = wallNow()
		m.Step()

		pace := m.computePace()
		if pace > 0 {
			if _, ok := m.IRQ.Pending(); !ok {
				time.Sleep(pace)
				m.mu.Lock()
				m.SimTime += uint64(pace)
				m.PaceN++
				m.PaceNsec += uint64(pace)
				m.mu.Unlock()
			}
		}
	}
}

// waitRunningLocked blocks on runCond until running changes or the
// machine is told to shut down; caller holds m.mu.
func (m *Machine) waitRunningLocked() {
	m.runCond.Wait()
}

// computePace implements the §4.6 pacing heuristic: the "JMP self"
// halt-spin detector, clamping to the next callout, and catching up
// to real time when the simulation has run ahead of it.
func (m *Machine) computePace() time.Duration {
	m.mu.Lock()
	pc := m.PC
	word := m.Core.Read(pc, memory.Read)
	simTime := m.SimTime
	realTime := m.RealTime
	m.mu.Unlock()

	if pc < 0x100 && word == pc {
		m.haltSpins++
	} else {
		m.haltSpins = 0
	}
	var pace time.Duration
	if m.haltSpins > haltSpinThreshold {
		pace = haltSpinPace
	}

	next := m.Callouts.Poll(simTime) // no-op if nothing is due yet; just peeks ordering
	if next != 0 {
		untilNext := time.Duration(0)
		if next > simTime {
			untilNext = time.Duration(next - simTime)
		}
		if pace > untilNext {
			pace = untilNext
		}
		return pace
	}

	if pace == 0 && simTime > realTime+uint64(time.Millisecond) {
		return time.Duration(simTime - realTime)
	}
	return pace
}

// Start begins running the CPU goroutine and marks the machine
// running.
func (m *Machine) Start() {
	go m.Run()
	m.mu.Lock()
	m.running = true
	m.runCond.Broadcast()
	m.mu.Unlock()
}

// Stop halts the CPU goroutine and waits (with a one-second timeout)
// for it to finish the instruction it may be mid-executing.
func (m *Machine) Stop() {
	m.mu.Lock()
	m.running = false
	select {
	case <-m.done:
	default:
		close(m.done)
	}
	m.runCond.Broadcast()
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
	}
}

// SingleStep clears running, executes exactly one instruction, and
// leaves running false: the front panel's "step" command.
func (m *Machine) SingleStep() {
	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
	m.Step()
}
