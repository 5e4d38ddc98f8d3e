package ptp_test

import (
	"sync"
	"testing"
	"time"

	"github.com/rcornwell/novasim/elastic"
	"github.com/rcornwell/novasim/nova/callout"
	"github.com/rcornwell/novasim/nova/device"
	"github.com/rcornwell/novasim/nova/devices/ptp"
	"github.com/rcornwell/novasim/nova/interrupt"
)

func TestStartPunchesLatchedByteAndCompletesRaisesInterrupt(t *testing.T) {
	irq := interrupt.New()
	irq.SetInten(true)
	co := callout.New()
	sim := uint64(0)
	buf := elastic.New(elastic.WriteOnly, 8, 8000)

	var mu sync.Mutex
	var got []byte
	done := make(chan struct{}, 1)
	sub := buf.Subscribe(func(_ any, data []byte) {
		mu.Lock()
		got = append(got, data...)
		mu.Unlock()
		done <- struct{}{}
	}, nil)
	defer buf.Unsubscribe(sub)

	p := ptp.New(ptp.DefaultDevNo, ptp.DefaultPrio, buf, irq, co, func() uint64 { return sim })

	device.StdIO(p.Dev, device.DOA, device.ActionNone, 0x37)
	p.Dev.IOExec(p.Dev, device.NIO, device.ActionStart, 0)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("punched byte was never delivered")
	}
	mu.Lock()
	if len(got) != 1 || got[0] != 0x37 {
		t.Fatalf("punched byte = %v, want [0x37]", got)
	}
	mu.Unlock()
	if !device.StdSkip(p.Dev, device.BusyNonzero) {
		t.Fatalf("expected Busy immediately after START")
	}

	sim += uint64(buf.NsecPerChar()) + 1
	co.Poll(sim)

	if !device.StdSkip(p.Dev, device.DoneNonzero) {
		t.Fatalf("expected Done after completion callout fires")
	}
	if irq.State(p.Dev) != interrupt.Queued {
		t.Fatalf("expected interrupt raised after punch completes")
	}
}
