// Package interrupt implements the machine's priority-masked interrupt
// controller: a queued-IRQ list, a masked-IRQ list devices migrate
// into when their priority bit is masked out, and INTA arbitration.
package interrupt

import "sync"

// Source is anything that can raise an interrupt: a device number and
// a fixed 4-bit priority. Among queued sources Pending returns the one
// with the numerically highest priority.
type Source interface {
	DevNum() uint16
	Priority() uint8
}

// Pending describes where a source currently sits.
type Pending int

const (
	NotPending Pending = iota
	Queued
	Masked
)

type Controller struct {
	mu     sync.Mutex
	mask   uint16
	inten0 bool // gates acceptance at the current instruction boundary

	queued []Source
	masked []Source
}

// New returns a controller with interrupts disabled and no mask.
func New() *Controller {
	return &Controller{}
}

// SetMask installs a new mask (MSKO) and migrates every masked source
// whose priority bit is now clear in the new mask back onto the
// queued list.
func (c *Controller) SetMask(mask uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mask = mask

	var stillMasked []Source
	for _, s := range c.masked {
		if c.mask&(1<<s.Priority()) != 0 {
			stillMasked = append(stillMasked, s)
		} else {
			c.queued = append(c.queued, s)
		}
	}
	c.masked = stillMasked
}

// Mask returns the current mask word.
func (c *Controller) Mask() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mask
}

// SetInten sets inten[0], the acceptance gate evaluated at the next
// Pending() call; the CPU thread updates this once per instruction
// from its 3-stage inten shift register.
func (c *Controller) SetInten(enabled bool) {
	c.mu.Lock()
	c.inten0 = enabled
	c.mu.Unlock()
}

// Raise appends src to the queued list if it is not already pending
// anywhere. A source whose priority bit is currently masked is parked
// directly on the masked list instead.
func (c *Controller) Raise(src Source) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stateLocked(src) != NotPending {
		return
	}
	if c.mask&(1<<src.Priority()) != 0 {
		c.masked = append(c.masked, src)
		return
	}
	c.queued = append(c.queued, src)
}

// Lower removes src from whichever list currently holds it.
func (c *Controller) Lower(src Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queued = removeSource(c.queued, src)
	c.masked = removeSource(c.masked, src)
}

func removeSource(list []Source, src Source) []Source {
	for i, s := range list {
		if s == src {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// State reports where src currently sits.
func (c *Controller) State(src Source) Pending {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked(src)
}

func (c *Controller) stateLocked(src Source) Pending {
	for _, s := range c.queued {
		if s == src {
			return Queued
		}
	}
	for _, s := range c.masked {
		if s == src {
			return Masked
		}
	}
	return NotPending
}

// Pending returns the highest-priority queued source eligible to
// interrupt right now, migrating any newly-masked source out of the
// queue along the way. If inten[0] is false, it always returns
// (nil, false) without side effects. On returning a source, the
// caller (the CPU thread) is responsible for zeroing its inten shift
// register: interrupt entry inhibits further interrupts until
// re-enabled.
func (c *Controller) Pending() (Source, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.inten0 {
		return nil, false
	}

	var stillQueued []Source
	var best Source
	bestPrio := -1
	for _, s := range c.queued {
		if c.mask&(1<<s.Priority()) != 0 {
			c.masked = append(c.masked, s)
			continue
		}
		stillQueued = append(stillQueued, s)
		if int(s.Priority()) > bestPrio {
			bestPrio = int(s.Priority())
			best = s
		}
	}
	c.queued = stillQueued
	if bestPrio < 0 {
		return nil, false
	}
	return best, true
}

// INTA returns the device number of the first queued source, or zero
// if none is queued (the CPU pseudo-device's own device number never
// collides with zero in practice since slot 63 is reserved for it).
func (c *Controller) INTA() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queued) == 0 {
		return 0
	}
	return c.queued[0].DevNum()
}
