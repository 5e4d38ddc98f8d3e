package configparser_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rcornwell/novasim/config/configparser"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.cfg")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParsesCPUCoreLogAndDeviceLines(t *testing.T) {
	var gotModel string
	var gotExtMem bool
	var gotIdent uint16
	var gotCore int
	var gotLog string
	var gotDevno uint16
	var gotHasDevno bool
	var gotImask uint16
	var gotHasImask bool

	configparser.RegisterDevice("TTY", func(devno uint16, hasDevno bool, imask uint16, hasImask bool) error {
		gotDevno, gotHasDevno = devno, hasDevno
		gotImask, gotHasImask = imask, hasImask
		return nil
	})

	var gotDebug []string

	path := writeConfig(t, "# comment\ncpu Nova1200\ncpu extmem\ncpu ident 0x20\ncore 65536\nlog \"/tmp/out.log\"\ndebug cpu,io\ntty 0o10,0o17\n")

	err := configparser.LoadConfigFile(path, configparser.Handlers{
		SetModel:   func(name string) error { gotModel = name; return nil },
		SetExtMem:  func(on bool) { gotExtMem = on },
		SetIdent:   func(n uint16) error { gotIdent = n; return nil },
		SetCore:    func(words int) error { gotCore = words; return nil },
		SetLogFile: func(path string) error { gotLog = path; return nil },
		SetDebug:   func(category string) error { gotDebug = append(gotDebug, category); return nil },
	})
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}

	if gotModel != "Nova1200" {
		t.Errorf("model = %q, want Nova1200", gotModel)
	}
	if !gotExtMem {
		t.Errorf("extmem not set")
	}
	if gotIdent != 0x20 {
		t.Errorf("ident = %#x, want 0x20", gotIdent)
	}
	if gotCore != 65536 {
		t.Errorf("core = %d, want 65536", gotCore)
	}
	if gotLog != "/tmp/out.log" {
		t.Errorf("log = %q, want /tmp/out.log", gotLog)
	}
	if !gotHasDevno || gotDevno != 0o10 {
		t.Errorf("devno = %#o (has=%v), want 0o10", gotDevno, gotHasDevno)
	}
	if !gotHasImask || gotImask != 0o17 {
		t.Errorf("imask = %#o (has=%v), want 0o17", gotImask, gotHasImask)
	}
	if len(gotDebug) != 2 || gotDebug[0] != "cpu" || gotDebug[1] != "io" {
		t.Errorf("debug categories = %v, want [cpu io]", gotDebug)
	}
}

func TestDeviceLineWithNoArgumentsUsesDefaults(t *testing.T) {
	var hasDevno, hasImask bool
	configparser.RegisterDevice("RTC", func(_ uint16, hd bool, _ uint16, hi bool) error {
		hasDevno, hasImask = hd, hi
		return nil
	})

	path := writeConfig(t, "rtc\n")
	if err := configparser.LoadConfigFile(path, configparser.Handlers{}); err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if hasDevno || hasImask {
		t.Errorf("expected no explicit devno/imask for a bare device line")
	}
}

func TestUnknownDeviceKeywordErrors(t *testing.T) {
	path := writeConfig(t, "nonexistentdevice 0o10\n")
	if err := configparser.LoadConfigFile(path, configparser.Handlers{}); err == nil {
		t.Fatalf("expected an error for an unregistered device keyword")
	}
}

func TestParsesConsoleLine(t *testing.T) {
	var gotAddr string
	path := writeConfig(t, "console :2323\n")
	err := configparser.LoadConfigFile(path, configparser.Handlers{
		SetConsole: func(addr string) error { gotAddr = addr; return nil },
	})
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if gotAddr != ":2323" {
		t.Errorf("console addr = %q, want :2323", gotAddr)
	}
}
