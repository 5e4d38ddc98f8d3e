// Package domus implements optional tracing of DOMUS operating
// system calls: a fixed table of opcode words used as DOMUS's
// supervisor-call vector, each logged by name (and, for a couple of
// calls, by argument) as they execute. Tracing never changes
// semantics — it wraps the already-installed executor and calls
// through to it unchanged.
package domus

import (
	"log/slog"

	"github.com/rcornwell/novasim/nova/machine"
	"github.com/rcornwell/novasim/nova/memory"
)

// callNames maps a DOMUS supervisor-call opcode word to its name,
// from RCSL-43-GL-7538 MUPAR.01.
var callNames = map[uint16]string{
	0o006002: "WAIT", 0o006003: "WAITINTERRUPT", 0o006004: "SENDMESSAGE",
	0o006005: "WAITANSWER", 0o006006: "WAITEVENT", 0o006007: "SENDANSWER",
	0o006010: "SEARCHITEM", 0o006011: "CLEANPROCESS", 0o006012: "BREAKPROCESS",
	0o006013: "STOPPROCESS", 0o006014: "STARTPROCESS", 0o006015: "RECHAIN",

	0o006164: "NEXTOPERATION", 0o006167: "WAITOPERATION", 0o006165: "RETURNANSWER",
	0o006170: "SETINTERRUPT", 0o006171: "SETRESERVATION", 0o006172: "SETCONVERSION",
	0o006173: "CONBYTE", 0o006174: "GETBYTE", 0o006175: "PUTBYTE",
	0o006176: "MULTIPLY", 0o006177: "DIVIDE",

	0o002164: ".NEXTOPERATION", 0o002165: ".RETURNANSWER", 0o002166: ".CLEARDEVICE",
	0o100166: "CLEAR", 0o002170: ".SETINTERRUPT", 0o002171: ".SETRESERVATION",
	0o002172: ".SETCONVERSION", 0o002173: ".CONBYTE", 0o002174: ".GETBYTE",
	0o002175: ".PUTBYTE", 0o002176: ".MULTIPLY", 0o002177: ".DIVIDE",

	0o006232: "BINDEC", 0o006233: "DECBIN", 0o006200: "GETREC", 0o006201: "PUTREC",
	0o006202: "WAITTRANSFER", 0o006204: "TRANSFER", 0o006205: "INBLOCK",
	0o006206: "OUTBLOCK", 0o006207: "INCHAR", 0o006210: "FREESHARE",
	0o006211: "OUTSPACE", 0o006212: "OUTCHAR", 0o006213: "OUTNL", 0o006214: "OUTEND",
	0o006215: "OUTTEXT", 0o006216: "OUTOCTAL", 0o006217: "SETPOSITION",
	0o006220: "CLOSE", 0o006221: "OPEN", 0o006223: "INNAME", 0o006222: "WAITZONE",
	0o006224: "MOVE", 0o006225: "INTERPRETE",

	0o002200: ".GETREC", 0o002201: ".PUTREC", 0o002202: ".WAITTRANSFER",
	0o002203: ".REPEATSHARE", 0o002204: ".TRANSFER", 0o002205: ".INBLOCK",
	0o002206: ".OUTBLOCK", 0o002210: ".FREESHARE", 0o002207: ".INCHAR",
	0o002211: ".OUTSPACE", 0o002212: ".OUTCHAR", 0o002213: ".OUTNL",
	0o002214: ".OUTEND", 0o002215: ".OUTTEXT", 0o002216: ".OUTOCTAL",
	0o002217: ".SETPOSITION", 0o002220: ".CLOSE", 0o002221: ".OPEN",

	0o000226: "INTGIVEUP", 0o000230: "INTBREAK",

	0o006332: "NEWCAT", 0o006333: "FREECAT",

	0o006334: "CDELAY", 0o006335: "WAITSEM", 0o006336: "WAITCHAINED",
	0o006337: "CWANSWER", 0o006340: "CTEST", 0o006341: "CPRINT", 0o006342: "CTOUT",
	0o006343: "SIGNAL", 0o006344: "SIGCHAINED", 0o006345: "CPASS",

	0o006346: "CREATEENTRY", 0o006347: "LOOKUPENTRY", 0o006350: "CHANGEENTRY",
	0o006351: "REMOVEENTRY", 0o006352: "INITCATALOG", 0o006353: "SETENTRY",

	0o006254: "COMON", 0o006255: "CALL", 0o006256: "GOTO", 0o006257: "GETADR",
	0o006260: "GETPOINT", 0o006264: "CSENDM", 0o006265: "SIGGEN", 0o006266: "WAITGE",
	0o006267: "CTOP",
}

const (
	opSENDMESSAGE uint16 = 0o006004
	opINCHAR      uint16 = 0o006207

	// processBlockPtr is the same control-block pointer cell the
	// CPU720 list primitives use; DOMUS keeps the running process's
	// name 4 words into the block it points at.
	processBlockPtr = 0x0020
	nameOffset      = 4
)

// Install wraps every DOMUS call opcode's currently-installed
// executor with a tracer that logs the call name (and, for
// SENDMESSAGE/INCHAR, its arguments) before calling through
// unchanged. It is idempotent only in the sense that calling it
// twice double-wraps; callers should install once per machine.
func Install(m *machine.Machine, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	for word, name := range callNames {
		inner := m.Dispatch(word)
		if inner == nil {
			continue
		}
		switch word {
		case opSENDMESSAGE:
			m.SetDispatch(word, traceSendMessage(inner, log))
		case opINCHAR:
			m.SetDispatch(word, traceInChar(inner, log))
		default:
			m.SetDispatch(word, traceCall(inner, name, log))
		}
	}
}

func processName(m *machine.Machine) string {
	na := m.Core.Read(processBlockPtr, memory.Null) + nameOffset
	b := make([]byte, 0, 6)
	for i := uint16(0); i < 3; i++ {
		w := m.Core.Read(na+i, memory.Null)
		b = append(b, byte(w>>8), byte(w&0xff))
	}
	return string(b)
}

func traceCall(inner machine.Executor, name string, log *slog.Logger) machine.Executor {
	return func(m *machine.Machine) uint64 {
		log.Debug("domus call", "process", processName(m), "call", name)
		return inner(m)
	}
}

func traceSendMessage(inner machine.Executor, log *slog.Logger) machine.Executor {
	return func(m *machine.Machine) uint64 {
		proc := processName(m)
		ac1, ac2 := m.AC[1], m.AC[2]
		cost := inner(m)
		log.Debug("domus call", "process", proc, "call", "SENDMESSAGE",
			"msg0", m.Core.Read(ac1+0, memory.Null),
			"msg1", m.Core.Read(ac1+1, memory.Null),
			"msg2", m.Core.Read(ac1+2, memory.Null),
			"msg3", m.Core.Read(ac1+3, memory.Null),
			"dest", domusName(m, ac2),
			"result", m.AC[2],
		)
		return cost
	}
}

func traceInChar(inner machine.Executor, log *slog.Logger) machine.Executor {
	return func(m *machine.Machine) uint64 {
		proc := processName(m)
		cost := inner(m)
		ch := m.AC[1] & 0xff
		glyph := "☐"
		if ch >= 0x20 && ch <= 0x7e {
			glyph = string(rune(ch))
		}
		log.Debug("domus call", "process", proc, "call", "INCHAR",
			"zero", m.AC[2], "char", ch, "glyph", glyph)
		return cost
	}
}

// domusName reads a 3-word packed-ASCII name cell, used for
// SENDMESSAGE's destination operand.
func domusName(m *machine.Machine, addr uint16) string {
	b := make([]byte, 0, 6)
	for i := uint16(0); i < 3; i++ {
		w := m.Core.Read(addr+i, memory.Null)
		b = append(b, byte(w>>8), byte(w&0xff))
	}
	return string(b)
}
