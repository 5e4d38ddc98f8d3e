/*
 * novasim - Main process.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/novasim/config/configparser"
	"github.com/rcornwell/novasim/config/debugconfig"
	"github.com/rcornwell/novasim/elastic"
	"github.com/rcornwell/novasim/nova/console"
	"github.com/rcornwell/novasim/nova/cpumodel"
	"github.com/rcornwell/novasim/nova/devices/ptp"
	"github.com/rcornwell/novasim/nova/devices/ptr"
	"github.com/rcornwell/novasim/nova/devices/rtc"
	"github.com/rcornwell/novasim/nova/devices/stub"
	"github.com/rcornwell/novasim/nova/devices/tty"
	"github.com/rcornwell/novasim/nova/machine"
	"github.com/rcornwell/novasim/panel"
	"github.com/rcornwell/novasim/util/logger"
)

var Logger *slog.Logger

func main() {
	optConfig := getopt.StringLong("config", 'c', "nova.cfg", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		var err error
		file, err = os.Create(*optLogFile)
		if err != nil {
			slog.Error("can't create log file", "path", *optLogFile, "err", err)
			os.Exit(1)
		}
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	handler := logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel})
	Logger = slog.New(handler)
	slog.SetDefault(Logger)

	Logger.Info("novasim started")

	m := machine.New(memoryWords, cpumodel.Nova1200)

	var consoleBuf *elastic.Buffer
	registerDevices(m, &consoleBuf)

	var consoleAddr string
	handlers := configHandlers(m)
	handlers.SetConsole = func(addr string) error {
		consoleAddr = addr
		return nil
	}

	if *optConfig != "" {
		if _, err := os.Stat(*optConfig); err == nil {
			if err := configparser.LoadConfigFile(*optConfig, handlers); err != nil {
				Logger.Error(err.Error())
				os.Exit(1)
			}
		} else {
			Logger.Warn("configuration file not found, using defaults", "path", *optConfig)
		}
	}

	if consoleAddr != "" {
		if consoleBuf == nil {
			Logger.Error("console requested but no tty device installed")
			os.Exit(1)
		}
		srv, err := console.Listen(consoleAddr, consoleBuf, Logger)
		if err != nil {
			Logger.Error("console listen failed", "addr", consoleAddr, "err", err)
			os.Exit(1)
		}
		defer srv.Stop()
	}

	m.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	p := panel.New(m, Logger)
	defer p.Close()

	done := make(chan int, 1)
	go func() {
		done <- p.Run()
	}()

	var code int
	select {
	case <-sigChan:
		Logger.Info("got quit signal")
	case code = <-done:
	}

	Logger.Info("shutting down CPU")
	m.Stop()
	os.Exit(code)
}

// memoryWords is the core size Machine.New allocates. A "core <n>"
// config line never resizes it: the handler below logs a warning when
// n exceeds the allocation and otherwise ignores the line.
const memoryWords = 32768

func configHandlers(m *machine.Machine) configparser.Handlers {
	return configparser.Handlers{
		SetModel: func(name string) error {
			model, ok := cpumodel.ByName(name)
			if !ok {
				return fmt.Errorf("unknown cpu model %q", name)
			}
			m.SetModel(model)
			return nil
		},
		SetExtMem: func(on bool) { m.ExtCore = on },
		SetIdent: func(n uint16) error {
			m.Ident = n
			return nil
		},
		SetCore: func(words int) error {
			if words > m.Core.Size() {
				Logger.Warn("requested core size exceeds allocation, ignoring", "words", words)
			}
			return nil
		},
		SetLogFile: func(path string) error {
			Logger.Info("log redirect requested mid-config, ignoring", "path", path)
			return nil
		},
		SetDebug: func(category string) error {
			cat, err := debugconfig.Parse(category)
			if err != nil {
				return err
			}
			debugconfig.Enable(cat)
			return nil
		},
	}
}

// registerDevices wires every concrete device kind into the config
// parser's registry, closing over the machine's interrupt controller,
// callout list, and simulated-clock reader. Devices actually get
// installed only when the config file names them; defaults apply
// when a line supplies no device number or mask.
func registerDevices(m *machine.Machine, consoleBuf **elastic.Buffer) {
	simTime := func() uint64 { return m.SimTime }

	configparser.RegisterDevice("TTY", func(devno uint16, hasDevno bool, _ uint16, _ bool) error {
		ttiNo, ttoNo := tty.DefaultDevNoTTI, tty.DefaultDevNoTTO
		if hasDevno {
			ttiNo = devno
			ttoNo = devno + 1
		}
		t := tty.New(ttiNo, tty.DefaultPrioTTI, ttoNo, tty.DefaultPrioTTO, os.Stdin, os.Stdout,
			m.IRQ, m.Callouts, simTime)
		if err := m.Bus.Install(t.In); err != nil {
			return err
		}
		*consoleBuf = t.Buf
		return m.Bus.Install(t.Out)
	})

	configparser.RegisterDevice("RTC", func(devno uint16, hasDevno bool, _ uint16, _ bool) error {
		if !hasDevno {
			devno = rtc.DefaultDevNo
		}
		r := rtc.New(devno, rtc.DefaultPrio, m.IRQ, m.Callouts, simTime)
		return m.Bus.Install(r.Dev)
	})

	configparser.RegisterDevice("PTR", func(devno uint16, hasDevno bool, _ uint16, _ bool) error {
		if !hasDevno {
			devno = ptr.DefaultDevNo
		}
		p := ptr.New(devno, ptr.DefaultPrio, nil, m.IRQ, m.Callouts, simTime)
		return m.Bus.Install(p.Dev)
	})

	configparser.RegisterDevice("PTP", func(devno uint16, hasDevno bool, _ uint16, _ bool) error {
		if !hasDevno {
			devno = ptp.DefaultDevNo
		}
		p := ptp.New(devno, ptp.DefaultPrio, nil, m.IRQ, m.Callouts, simTime)
		return m.Bus.Install(p.Dev)
	})

	for _, e := range stubDevices {
		kind, devno, prio := e.name, e.devno, e.prio
		configparser.RegisterDevice(kind, func(d uint16, hasDevno bool, _ uint16, _ bool) error {
			if !hasDevno {
				d = devno
			}
			s := stub.New(kind, d, prio, m.IRQ, m.Callouts)
			return m.Bus.Install(s.Dev)
		})
	}
}

type stubDevice struct {
	name  string
	devno uint16
	prio  uint8
}

// stubDevices lists the peripheral kinds §1's Non-goals leave out of
// scope for a driver body: disc, floppy disc, async multiplexor, and
// card reader, at their reserved default device numbers/priorities.
var stubDevices = []stubDevice{
	{"DKP", 0o73, 7},
	{"FDD", 0o61, 7},
	{"AMX", 0o52, 2},
	{"CDR", 0o17, 6},
}
