package device_test

import (
	"testing"

	"github.com/rcornwell/novasim/nova/callout"
	"github.com/rcornwell/novasim/nova/device"
	"github.com/rcornwell/novasim/nova/interrupt"
)

func newTestDevice(devno uint16, prio uint8) (*device.Device, *interrupt.Controller) {
	irq := interrupt.New()
	irq.SetInten(true)
	co := callout.New()
	return device.New("test", devno, prio, irq, co), irq
}

func TestStdIOStartClearTransitions(t *testing.T) {
	d, irq := newTestDevice(0o10, 14)

	device.StdIO(d, device.NIO, device.ActionStart, 0)
	if !device.StdSkip(d, device.BusyNonzero) {
		t.Fatalf("expected Busy after START")
	}
	if irq.State(d) != interrupt.NotPending {
		t.Fatalf("interrupt should be lowered by START")
	}

	d.Complete()
	if !device.StdSkip(d, device.DoneNonzero) {
		t.Fatalf("expected Done after Complete()")
	}
	if irq.State(d) != interrupt.Queued {
		t.Fatalf("Complete() should raise the interrupt")
	}

	device.StdIO(d, device.NIO, device.ActionClear, 0)
	if device.StdSkip(d, device.BusyNonzero) || device.StdSkip(d, device.DoneNonzero) {
		t.Fatalf("CLEAR should leave Busy and Done both false")
	}
	if irq.State(d) != interrupt.NotPending {
		t.Fatalf("CLEAR should lower the interrupt")
	}
}

func TestStdIORegisterTransfer(t *testing.T) {
	d, _ := newTestDevice(0o11, 15)
	d.Lock()
	d.IregA = 0x1234
	d.Unlock()

	got := device.StdIO(d, device.DIA, device.ActionNone, 0)
	if got != 0x1234 {
		t.Fatalf("DIA = %#x, want 0x1234", got)
	}

	device.StdIO(d, device.DOA, device.ActionNone, 0x5678)
	d.Lock()
	oreg := d.OregA
	d.Unlock()
	if oreg != 0x5678 {
		t.Fatalf("DOA OregA = %#x, want 0x5678", oreg)
	}
}

func TestBusSentinelAndInstall(t *testing.T) {
	b := device.NewBus()
	if b.IsInstalled(0o10) {
		t.Fatalf("slot should start unoccupied")
	}

	d, _ := newTestDevice(0o10, 14)
	if err := b.Install(d); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if !b.IsInstalled(0o10) {
		t.Fatalf("slot should be occupied after Install")
	}

	dup, _ := newTestDevice(0o10, 13)
	if err := b.Install(dup); err == nil {
		t.Fatalf("expected error installing onto occupied slot")
	}
}

func TestBusCompleteRaisesInterruptObservedByPending(t *testing.T) {
	irq := interrupt.New()
	irq.SetInten(true)
	co := callout.New()
	d := device.New("tti", 0o10, 14, irq, co)

	device.StdIO(d, device.NIO, device.ActionStart, 0)
	co.Add(1000, callout.DeviceCompletes, d)
	co.Poll(2000)

	src, ok := irq.Pending()
	if !ok || src != d {
		t.Fatalf("Pending() after scheduled completion = %v,%v want %v,true", src, ok, d)
	}
}
