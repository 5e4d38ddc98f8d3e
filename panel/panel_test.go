package panel

import (
	"log/slog"
	"testing"

	"github.com/rcornwell/novasim/nova/cpumodel"
	"github.com/rcornwell/novasim/nova/machine"
	"github.com/rcornwell/novasim/nova/memory"
)

func newTestPanel() *Panel {
	m := machine.New(4096, cpumodel.Nova1200)
	return &Panel{m: m, log: slog.Default()}
}

func TestExamineAndDepositRoundTrip(t *testing.T) {
	p := newTestPanel()

	if stop, _, err := p.dispatch("dep 0100 012345"); err != nil || stop {
		t.Fatalf("deposit: stop=%v err=%v", stop, err)
	}
	got := p.m.Core.Read(0o100, memory.Null)
	if got != 0o12345 {
		t.Fatalf("core[0100] = %#o, want 012345", got)
	}

	if stop, _, err := p.dispatch("exam 0100"); err != nil || stop {
		t.Fatalf("examine: stop=%v err=%v", stop, err)
	}
}

func TestAbbreviationBelowMinimumErrors(t *testing.T) {
	p := newTestPanel()

	// "s" alone is short of step's 2-char minimum and stop's 2-char
	// minimum, so it should resolve to neither unambiguously.
	if _, _, err := p.dispatch("s"); err == nil {
		t.Fatalf("expected an error for an abbreviation shorter than any verb's minimum")
	}
}

func TestUnknownCommandErrors(t *testing.T) {
	p := newTestPanel()
	if _, _, err := p.dispatch("frobnicate"); err == nil {
		t.Fatalf("expected an error for an unknown command")
	}
}

func TestBreakAndUnbreak(t *testing.T) {
	p := newTestPanel()

	if _, _, err := p.dispatch("break 0200"); err != nil {
		t.Fatal(err)
	}
	if p.m.Break != 0o200 {
		t.Fatalf("Break = %#o, want 0200", p.m.Break)
	}

	if _, _, err := p.dispatch("unbreak"); err != nil {
		t.Fatal(err)
	}
	if p.m.Break != -1 {
		t.Fatalf("Break = %d, want -1 after unbreak", p.m.Break)
	}
}

func TestExitSetsCodeAndStops(t *testing.T) {
	p := newTestPanel()

	stop, code, err := p.dispatch("exit 7")
	if err != nil || !stop {
		t.Fatalf("exit: stop=%v err=%v", stop, err)
	}
	if code != 7 {
		t.Fatalf("code = %d, want 7", code)
	}
}
