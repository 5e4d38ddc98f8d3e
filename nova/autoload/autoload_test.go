package autoload_test

import (
	"testing"

	"github.com/rcornwell/novasim/nova/autoload"
	"github.com/rcornwell/novasim/nova/cpumodel"
	"github.com/rcornwell/novasim/nova/machine"
)

// S4 — autoload ROM selection.
func TestLoadConsoleInitSelectedBySwitchZero(t *testing.T) {
	m := machine.New(4096, cpumodel.Nova1200)
	m.Switches = 0
	if !autoload.Load(m) {
		t.Fatalf("Load returned false for switches=0")
	}
	if got := m.Core.Read(0, 0); got != 0o060477 {
		t.Fatalf("core[0] = %#o, want 0o060477 (READS 0)", got)
	}
	if m.PC != 0 {
		t.Fatalf("PC = %#o, want 0", m.PC)
	}
}

func TestLoadReportsAbsentROMForMemoryTest(t *testing.T) {
	m := machine.New(4096, cpumodel.Nova1200)
	m.Switches = 1
	if autoload.Load(m) {
		t.Fatalf("Load should report false: switches=1 has no ROM")
	}
}

func TestLoadDiscProgramSelectedBySwitches73(t *testing.T) {
	m := machine.New(4096, cpumodel.Nova1200)
	m.Switches = 0o73
	if !autoload.Load(m) {
		t.Fatalf("Load returned false for switches=0o73")
	}
	if got := m.Core.Read(0, 0); got != 0o064477 {
		t.Fatalf("core[0] = %#o, want 0o064477 (READS 1)", got)
	}
}

func TestLoadFallsBackToGenericDeviceBootstrap(t *testing.T) {
	m := machine.New(4096, cpumodel.Nova1200)
	m.Switches = 0o17 // no dedicated appendix
	if !autoload.Load(m) {
		t.Fatalf("Load returned false for switches=0o17")
	}
	if got := m.Core.Read(0, 0); got != 0o060477 {
		t.Fatalf("core[0] = %#o, want 0o060477 (appendix D READS)", got)
	}
}
