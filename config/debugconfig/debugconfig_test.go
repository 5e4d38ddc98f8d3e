package debugconfig_test

import (
	"testing"

	"github.com/rcornwell/novasim/config/debugconfig"
)

func TestEnableIsAdditive(t *testing.T) {
	debugconfig.Reset()
	defer debugconfig.Reset()

	cpu, err := debugconfig.Parse("cpu")
	if err != nil {
		t.Fatal(err)
	}
	io, err := debugconfig.Parse("IO")
	if err != nil {
		t.Fatal(err)
	}

	debugconfig.Enable(cpu)
	if !debugconfig.Enabled(cpu) {
		t.Fatalf("expected cpu enabled")
	}
	if debugconfig.Enabled(io) {
		t.Fatalf("expected io not yet enabled")
	}

	debugconfig.Enable(io)
	if !debugconfig.Enabled(cpu) || !debugconfig.Enabled(io) {
		t.Fatalf("expected both cpu and io enabled after additive Enable calls")
	}
}

func TestParseUnknownCategoryErrors(t *testing.T) {
	if _, err := debugconfig.Parse("bogus"); err == nil {
		t.Fatalf("expected an error for an unknown category")
	}
}
