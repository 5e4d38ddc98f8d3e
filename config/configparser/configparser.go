// Package configparser reads the Nova/RC3600 configuration file: one
// directive per line, selecting the CPU model and core size, the log
// file, and which devices to install at which device numbers.
//
// Device kinds register with RegisterDevice before LoadConfigFile
// runs. Because installing a device needs the machine's interrupt
// controller, callout list, and bus, registration happens in main()
// once those exist, rather than from a device package's own init()
// the way the teacher's model registry does it.
package configparser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/rcornwell/novasim/nova/device"
)

// DeviceFunc installs a device kind (e.g. "tty", "rtc") at devno with
// an optional interrupt mask word. hasDevno/hasImask report whether
// the config line supplied that field; the handler should fall back
// to its own architectural default when false.
type DeviceFunc func(devno uint16, hasDevno bool, imask uint16, hasImask bool) error

// Handlers bundles the callbacks LoadConfigFile drives as it parses
// the fixed top-level keywords.
type Handlers struct {
	SetModel   func(name string) error
	SetExtMem  func(on bool)
	SetIdent   func(n uint16) error
	SetCore    func(words int) error
	SetLogFile func(path string) error
	SetDebug   func(category string) error
	SetConsole func(addr string) error
}

var deviceKinds = map[string]DeviceFunc{}

// RegisterDevice associates a config-file device keyword (upper-cased
// on lookup) with its install function. main calls it for every kind
// before LoadConfigFile runs (see the package comment).
func RegisterDevice(kind string, fn DeviceFunc) {
	deviceKinds[strings.ToUpper(kind)] = fn
}

var lineNumber int

// LoadConfigFile reads name line by line, dispatching each
// recognized directive to h or to a registered device kind.
func LoadConfigFile(name string, h Handlers) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()

	lineNumber = 0
	reader := bufio.NewReader(file)
	for {
		line := optionLine{}
		var err error
		line.line, err = reader.ReadString('\n')
		lineNumber++
		if len(line.line) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if perr := line.parseLine(h); perr != nil {
			return perr
		}
	}
	return nil
}

type optionLine struct {
	line string
	pos  int
}

func lineErrorf(format string, args ...any) error {
	args = append(args, lineNumber)
	return fmt.Errorf(format+", line %d", args...)
}

// parseLine recognizes the fixed keyword grammar:
//
//	cpu <model>
//	cpu extmem
//	cpu ident <n>
//	core <nwords>
//	log <path>
//	<device-kind> [<devno>[,<imask>]]
func (line *optionLine) parseLine(h Handlers) error {
	kw := line.parseWord()
	if kw == "" {
		return nil
	}
	switch strings.ToUpper(kw) {
	case "CPU":
		return line.parseCPU(h)
	case "CORE":
		return line.parseCore(h)
	case "LOG":
		return line.parseLog(h)
	case "DEBUG":
		return line.parseDebug(h)
	case "CONSOLE":
		return line.parseConsole(h)
	default:
		return line.parseDevice(kw)
	}
}

func (line *optionLine) parseCPU(h Handlers) error {
	sub := line.parseWord()
	if sub == "" {
		return lineErrorf("cpu requires model, extmem, or ident")
	}
	switch strings.ToUpper(sub) {
	case "EXTMEM":
		if h.SetExtMem != nil {
			h.SetExtMem(true)
		}
		return nil
	case "IDENT":
		n, err := line.parseNumber()
		if err != nil {
			return lineErrorf("cpu ident requires a numeric argument: %v", err)
		}
		if h.SetIdent != nil {
			return h.SetIdent(uint16(n))
		}
		return nil
	default:
		if h.SetModel != nil {
			return h.SetModel(sub)
		}
		return nil
	}
}

func (line *optionLine) parseCore(h Handlers) error {
	// A word count may exceed 16 bits (e.g. 65536), unlike devno/ident.
	n, err := strconv.ParseUint(line.parseWord(), 0, 32)
	if err != nil {
		return lineErrorf("core requires a numeric word count: %v", err)
	}
	if h.SetCore != nil {
		return h.SetCore(int(n))
	}
	return nil
}

func (line *optionLine) parseLog(h Handlers) error {
	path, ok := line.parseQuoteString()
	if !ok || path == "" {
		return lineErrorf("log requires a file path")
	}
	if h.SetLogFile != nil {
		return h.SetLogFile(path)
	}
	return nil
}

// parseDebug accepts one or more comma-separated category names:
// "debug cpu,io".
func (line *optionLine) parseDebug(h Handlers) error {
	for {
		name := line.parseWord()
		if name == "" {
			return lineErrorf("debug requires at least one category name")
		}
		if h.SetDebug != nil {
			if err := h.SetDebug(name); err != nil {
				return lineErrorf("debug: %v", err)
			}
		}
		line.skipSpace()
		if line.isEOL() || line.line[line.pos] != ',' {
			return nil
		}
		line.pos++
		line.skipSpace()
	}
}

// parseConsole accepts a single listen address: "console :2323".
func (line *optionLine) parseConsole(h Handlers) error {
	addr, ok := line.parseQuoteString()
	if !ok || addr == "" {
		return lineErrorf("console requires a listen address")
	}
	if h.SetConsole != nil {
		return h.SetConsole(addr)
	}
	return nil
}

func (line *optionLine) parseDevice(kind string) error {
	fn, ok := deviceKinds[strings.ToUpper(kind)]
	if !ok {
		return lineErrorf("unknown config keyword %q", kind)
	}

	line.skipSpace()
	if line.isEOL() {
		return fn(0, false, 0, false)
	}

	devno, err := line.parseNumber()
	if err != nil {
		return lineErrorf("%s: invalid device number: %v", kind, err)
	}

	line.skipSpace()
	if line.isEOL() || line.line[line.pos] != ',' {
		return fn(uint16(devno), true, 0, false)
	}
	line.pos++ // skip comma
	line.skipSpace()
	imask, err := line.parseNumber()
	if err != nil {
		return lineErrorf("%s: invalid interrupt mask: %v", kind, err)
	}
	return fn(uint16(devno), true, uint16(imask), true)
}

// NoDev is the canonical "not supplied" device number, re-exported
// for callers that want to distinguish an explicit number from the
// default.
const NoDev = device.NoDev

// skipSpace advances past any run of whitespace.
func (line *optionLine) skipSpace() {
	for line.pos < len(line.line) && unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
}

// isEOL reports end of line or the start of a comment.
func (line *optionLine) isEOL() bool {
	if line.pos >= len(line.line) {
		return true
	}
	return line.line[line.pos] == '#'
}

// parseWord reads a run of letters/digits after skipping leading
// space, or "" at end of line.
func (line *optionLine) parseWord() string {
	line.skipSpace()
	if line.isEOL() {
		return ""
	}
	start := line.pos
	for !line.isEOL() {
		by := line.line[line.pos]
		if unicode.IsLetter(rune(by)) || unicode.IsNumber(rune(by)) {
			line.pos++
			continue
		}
		break
	}
	return line.line[start:line.pos]
}

// parseNumber reads a numeric word and parses it with base 0 (so
// 0x1f, 017, and 23 are all accepted, matching the front panel's
// octal-first convention for device numbers).
func (line *optionLine) parseNumber() (uint64, error) {
	word := line.parseWord()
	if word == "" {
		return 0, errors.New("expected a number")
	}
	return strconv.ParseUint(word, 0, 16)
}

// parseQuoteString reads the remainder of the line, or a
// double-quoted string if one starts immediately.
func (line *optionLine) parseQuoteString() (string, bool) {
	line.skipSpace()
	if line.isEOL() {
		return "", false
	}
	if line.line[line.pos] == '"' {
		line.pos++
		start := line.pos
		for line.pos < len(line.line) && line.line[line.pos] != '"' {
			line.pos++
		}
		if line.pos >= len(line.line) {
			return "", false
		}
		value := line.line[start:line.pos]
		line.pos++
		return value, true
	}
	start := line.pos
	for !line.isEOL() && !unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
	return line.line[start:line.pos], true
}
