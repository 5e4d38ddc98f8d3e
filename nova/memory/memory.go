// Package memory implements Nova/RC3600 core memory: a flat array of
// 16-bit words with read/write observer hooks and a per-cell lazily
// computed disassembly cache.
package memory

import "sync"

// How describes the reason a core access is being made. It is a
// bitset; callers OR together the flags that apply.
type How uint16

const (
	Null   How = 0
	Read   How = 1 << iota
	Modify
	Write
	DMA
	Ins
	Indir
	Data
)

// MaxWords is the size of the address space the dispatch table and
// effective-address logic assume; a Core may be configured smaller.
const MaxWords = 1 << 16

// Observer intercepts core reads and writes. A Read or Write call
// returns handled=true to short-circuit the stored-value path.
type Observer interface {
	Read(addr uint16, how How) (value uint16, handled bool)
	Write(addr uint16, val uint16, how How) (handled bool)
}

type cell struct {
	value uint16
	disas string
	valid bool
}

// Core is the machine's main memory.
type Core struct {
	mu        sync.Mutex
	cells     []cell
	observers []Observer
	disasmFn  func(word uint16) string

	// LastCore is updated on every access whose How does not consist
	// solely of Null/Ins, so the CPU pacer can distinguish a tight
	// fetch-only spin from useful memory traffic.
	LastCore uint64
	insCount uint64
}

// New creates a Core of the given size in words (at most MaxWords).
func New(words int, disasmFn func(uint16) string) *Core {
	if words <= 0 || words > MaxWords {
		words = MaxWords
	}
	return &Core{
		cells:    make([]cell, words),
		disasmFn: disasmFn,
	}
}

// Size returns the number of addressable words.
func (c *Core) Size() int {
	return len(c.cells)
}

// AddObserver registers an observer; observers are consulted in
// insertion order and the first to return handled=true wins.
func (c *Core) AddObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

func (c *Core) wrap(addr uint16) int {
	n := len(c.cells)
	return int(addr) % n
}

// Read returns the word at addr. Observers are consulted first; if
// none handles the access the stored value is returned. An address
// outside the configured size wraps modulo the core size.
func (c *Core) Read(addr uint16, how How) uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if how&(Null|Ins) != how {
		c.LastCore = c.insCountUnsafe()
	}

	for _, o := range c.observers {
		if v, handled := o.Read(addr, how); handled {
			return v
		}
	}
	idx := c.wrap(addr)
	return c.cells[idx].value
}

// insCountUnsafe returns the last instruction count published via
// Tick. Caller must hold c.mu.
func (c *Core) insCountUnsafe() uint64 {
	return c.insCount
}

// Tick lets the CPU thread publish its current instruction count so
// LastCore accesses are comparable to it. Called once per step.
func (c *Core) Tick(insCount uint64) {
	c.mu.Lock()
	c.insCount = insCount
	c.mu.Unlock()
}

// Write stores val at addr through the observer chain, then
// invalidates the cell's disassembly cache.
func (c *Core) Write(addr uint16, val uint16, how How) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.LastCore = c.insCount

	for _, o := range c.observers {
		if o.Write(addr, val, how) {
			return
		}
	}
	idx := c.wrap(addr)
	c.cells[idx].value = val
	c.cells[idx].valid = false
	c.cells[idx].disas = ""
}

// Disass returns the cached mnemonic for addr, computing and caching
// it lazily via the configured disassembler function.
func (c *Core) Disass(addr uint16) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.wrap(addr)
	if c.cells[idx].valid {
		return c.cells[idx].disas
	}
	text := ""
	if c.disasmFn != nil {
		text = c.disasmFn(c.cells[idx].value)
	}
	c.cells[idx].disas = text
	c.cells[idx].valid = true
	return text
}

// Ptr returns a stable pointer-like reference to addr for front-panel
// deposit, and invalidates its disassembly cache.
func (c *Core) Ptr(addr uint16) *uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.wrap(addr)
	c.cells[idx].valid = false
	c.cells[idx].disas = ""
	return &c.cells[idx].value
}
