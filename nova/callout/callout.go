// Package callout implements the machine's virtual-time event
// scheduler: an ascending-by-when list of future events polled once
// per instruction from the CPU thread.
package callout

import "sync"

// Kind distinguishes the two callout behaviors the machine needs.
type Kind int

const (
	// WakeDevice signals a device's sleep condition variable.
	WakeDevice Kind = iota
	// DeviceCompletes marks a device Busy->Done and raises its
	// interrupt, if it is still Busy when the callout fires.
	DeviceCompletes
)

// Target is anything a callout can be scheduled against. Devices
// implement this to receive WakeDevice/DeviceCompletes callbacks.
type Target interface {
	Wake()
	Complete()
}

type entry struct {
	when   uint64
	kind   Kind
	target Target
	next   *entry
}

// List is one machine's ordered callout list.
type List struct {
	mu   sync.Mutex
	head *entry
}

// New returns an empty callout list.
func New() *List {
	return &List{}
}

// Add schedules target to receive kind at the absolute simulated-time
// nanosecond when, inserting in ascending-when order.
func (l *List) Add(when uint64, kind Kind, target Target) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := &entry{when: when, kind: kind, target: target}
	if l.head == nil || when < l.head.when {
		e.next = l.head
		l.head = e
		return
	}
	cur := l.head
	for cur.next != nil && cur.next.when <= when {
		cur = cur.next
	}
	e.next = cur.next
	cur.next = e
}

// Cancel removes every pending callout scheduled against target.
func (l *List) Cancel(target Target) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var prev *entry
	cur := l.head
	for cur != nil {
		if cur.target == target {
			if prev == nil {
				l.head = cur.next
			} else {
				prev.next = cur.next
			}
			cur = cur.next
			continue
		}
		prev = cur
		cur = cur.next
	}
}

// Poll pops and fires every callout whose when is strictly less than
// simTime, in order, releasing the list mutex while invoking the
// target callback so a callback may itself schedule new callouts. It
// returns the when of the next still-future callout, or zero if the
// list is empty.
func (l *List) Poll(simTime uint64) uint64 {
	for {
		l.mu.Lock()
		if l.head == nil || l.head.when >= simTime {
			var next uint64
			if l.head != nil {
				next = l.head.when
			}
			l.mu.Unlock()
			return next
		}
		e := l.head
		l.head = l.head.next
		l.mu.Unlock()

		switch e.kind {
		case WakeDevice:
			e.target.Wake()
		case DeviceCompletes:
			e.target.Complete()
		}
	}
}

// Empty reports whether the list currently holds no callouts.
func (l *List) Empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.head == nil
}
