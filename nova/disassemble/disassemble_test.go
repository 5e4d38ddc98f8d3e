package disassemble_test

import (
	"strings"
	"testing"

	"github.com/rcornwell/novasim/nova/disassemble"
)

func TestGenericClassification(t *testing.T) {
	cases := []struct {
		word uint16
		want string
	}{
		{0x0000, "JMP"},
		{0x2000, "LDA"},
		{0x4000, "STA"},
		{0x6000, "NIO"},
	}
	for _, c := range cases {
		got := disassemble.Generic(c.word)
		if !strings.HasPrefix(got, c.want) {
			t.Errorf("Generic(%#04x) = %q, want prefix %q", c.word, got, c.want)
		}
	}
}

func TestOverrideWins(t *testing.T) {
	ov := disassemble.NewOverrides()
	ov.Set(0x6581, "LDB 0")
	if got := ov.Text(0x6581); got != "LDB 0" {
		t.Fatalf("Text(override) = %q, want %q", got, "LDB 0")
	}
}

func TestTextNeverExceedsTwentyChars(t *testing.T) {
	for w := 0; w < 0x10000; w += 0x137 {
		got := disassemble.Generic(uint16(w))
		if len(got) > 20 {
			t.Fatalf("Generic(%#04x) = %q exceeds 20 chars", w, got)
		}
	}
}
