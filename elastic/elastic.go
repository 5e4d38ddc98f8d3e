// Package elastic implements the bidirectional, concurrency-safe byte
// pipeline connecting emulated device threads to external sinks and
// sources (files, sockets, terminals). It is the sole concurrency
// boundary between device goroutines and the outside world.
package elastic

import (
	"sync"
	"time"
)

// Mode describes which directions a Buffer supports.
type Mode int

const (
	ReadOnly Mode = iota
	WriteOnly
	Bidirectional
)

// Matcher is consulted inline on injected bytes; if it returns true
// the buffer may special-case the match (e.g. a break sequence).
// Buffers with no matcher configured never call it.
type Matcher func(b byte) bool

// Buffer is one elastic byte pipe.
type Buffer struct {
	mu sync.Mutex

	mode Mode

	in  [][]byte // pending bytes injected from outside, awaiting Get
	out [][]byte // pending bytes Put from a device, awaiting delivery

	condIn   *sync.Cond // signalled when in becomes non-empty
	subCond  *sync.Cond // signalled when any subscriber has new work

	subs map[*subscriber]struct{}

	BitsPerChar int
	BitsPerSec  int

	carrier bool
	match   Matcher
}

type subscriber struct {
	buf     *Buffer
	queue   [][]byte
	deliver func(user any, data []byte)
	user    any
	die     bool
	wg      sync.WaitGroup
}

// New returns an empty buffer in the given mode.
func New(mode Mode, bitsPerChar, bitsPerSec int) *Buffer {
	b := &Buffer{
		mode:        mode,
		subs:        make(map[*subscriber]struct{}),
		BitsPerChar: bitsPerChar,
		BitsPerSec:  bitsPerSec,
		carrier:     true,
	}
	b.condIn = sync.NewCond(&b.mu)
	b.subCond = sync.NewCond(&b.mu)
	return b
}

// SetMatcher installs an inline byte matcher, or clears it if fn is
// nil.
func (b *Buffer) SetMatcher(fn Matcher) {
	b.mu.Lock()
	b.match = fn
	b.mu.Unlock()
}

// NsecPerChar returns the simulated wire-speed delivery pacing a
// subscriber may consult: bits_per_char * 1e9 / bits_per_sec.
func (b *Buffer) NsecPerChar() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.BitsPerSec <= 0 {
		return 0
	}
	return time.Duration(int64(b.BitsPerChar) * int64(time.Second) / int64(b.BitsPerSec))
}

// Put appends bytes to the output queue (device -> outside world) and
// wakes one queued chunk for each subscriber.
func (b *Buffer) Put(data []byte) {
	b.mu.Lock()
	cp := append([]byte(nil), data...)
	b.out = append(b.out, cp)
	for s := range b.subs {
		s.queue = append(s.queue, cp)
	}
	b.subCond.Broadcast()
	b.mu.Unlock()
}

// Inject appends bytes to the input queue (outside world -> device)
// and wakes a blocked Get.
func (b *Buffer) Inject(data []byte) {
	b.mu.Lock()
	b.in = append(b.in, append([]byte(nil), data...))
	if b.match != nil {
		for _, by := range data {
			b.match(by)
		}
	}
	b.condIn.Signal()
	b.mu.Unlock()
}

// Get blocks until at least one byte is available on the input
// queue, then copies up to len(buf) bytes into buf and returns the
// count actually copied.
func (b *Buffer) Get(buf []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.in) == 0 {
		b.condIn.Wait()
	}
	n := 0
	for n < len(buf) && len(b.in) > 0 {
		chunk := b.in[0]
		take := len(chunk)
		if take > len(buf)-n {
			take = len(buf) - n
		}
		copy(buf[n:], chunk[:take])
		n += take
		if take == len(chunk) {
			b.in = b.in[1:]
		} else {
			b.in[0] = chunk[take:]
		}
	}
	return n
}

// Empty reports whether the input queue is empty.
func (b *Buffer) Empty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.in) == 0
}

// SetCarrier sets the carrier-detect state (used by TTY-like devices
// to model DCD/connection presence).
func (b *Buffer) SetCarrier(up bool) {
	b.mu.Lock()
	b.carrier = up
	b.mu.Unlock()
}

// Carrier reports the current carrier state.
func (b *Buffer) Carrier() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.carrier
}

// Subscribe starts a worker goroutine that pops chunks destined for
// it and calls deliver(user, chunk). The returned handle is passed to
// Unsubscribe to tear it down.
func (b *Buffer) Subscribe(deliver func(user any, data []byte), user any) *subscriber {
	s := &subscriber{buf: b, deliver: deliver, user: user}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	s.wg.Add(1)
	go s.run()
	return s
}

func (s *subscriber) run() {
	defer s.wg.Done()
	b := s.buf
	for {
		b.mu.Lock()
		for len(s.queue) == 0 && !s.die {
			b.subCond.Wait()
		}
		if s.die {
			b.mu.Unlock()
			return
		}
		chunk := s.queue[0]
		s.queue = s.queue[1:]
		b.mu.Unlock()

		s.deliver(s.user, chunk)
	}
}

// Unsubscribe terminates sub's worker and detaches it from b,
// discarding any chunks still queued for it.
func (b *Buffer) Unsubscribe(sub *subscriber) {
	b.mu.Lock()
	sub.die = true
	delete(b.subs, sub)
	b.subCond.Broadcast()
	b.mu.Unlock()
	sub.wg.Wait()
}
