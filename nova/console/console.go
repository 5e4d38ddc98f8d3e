// Package console implements a remote-console telnet listener
// bridging a single TCP connection to an elastic.Buffer, the
// "sockets" leg of the elastic buffer's documented sinks alongside
// files and terminals. The IAC option-negotiation state machine is
// adapted from the teacher's telnet package, trimmed to the options
// a line-mode byte console needs (echo/SGA/binary) and stripped of
// the teacher's 3270 terminal-type detection and multi-device
// multiplexing, which have no Nova analog.
package console

import (
	"log/slog"
	"net"
	"sync"

	"github.com/rcornwell/novasim/elastic"
)

const (
	iac  byte = 255
	dont byte = 254
	do   byte = 253
	wont byte = 252
	will byte = 251
	sb   byte = 250
	se   byte = 240

	optBinary byte = 0
	optEcho   byte = 1
	optSGA    byte = 3
	optTerm   byte = 24
)

// initNegotiation is sent immediately on connect: refuse line mode,
// offer to echo and suppress go-ahead ourselves, and switch to
// binary so no byte the simulated device sends is mistaken for a
// line terminator.
var initNegotiation = []byte{
	iac, wont, 34, // line mode
	iac, will, optEcho,
	iac, will, optSGA,
	iac, will, optBinary,
}

type lineState int

const (
	stData lineState = iota
	stIAC
	stWILL
	stWONT
	stDO
	stDONT
	stSB
	stSBData
	stSBIAC
)

// Server listens for a single remote console connection at a time and
// bridges its bytes to buf.
type Server struct {
	listener net.Listener
	buf      *elastic.Buffer
	log      *slog.Logger

	mu    sync.Mutex
	busy  bool
	close chan struct{}
}

// Listen starts accepting connections on addr (e.g. ":2323"),
// bridging each to buf. Only one connection is served at a time;
// a second connection is told the console is busy and closed.
func Listen(addr string, buf *elastic.Buffer, log *slog.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{listener: ln, buf: buf, log: log, close: make(chan struct{})}
	go s.acceptLoop()
	return s, nil
}

// Stop closes the listener and any active connection.
func (s *Server) Stop() {
	close(s.close)
	_ = s.listener.Close()
}

// Addr returns the listener's bound address, useful when Listen was
// given port 0.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.close:
				return
			default:
				s.log.Warn("console accept error", "err", err)
				return
			}
		}

		s.mu.Lock()
		if s.busy {
			s.mu.Unlock()
			_, _ = conn.Write([]byte("console already in use\r\n"))
			conn.Close()
			continue
		}
		s.busy = true
		s.mu.Unlock()

		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
		conn.Close()
	}()

	if _, err := conn.Write(initNegotiation); err != nil {
		return
	}

	sub := s.buf.Subscribe(func(_ any, data []byte) {
		_, _ = conn.Write(escapeIAC(data))
	}, nil)
	defer s.buf.Unsubscribe(sub)

	state := stData
	var sbOption byte
	in := make([]byte, 1024)
	for {
		n, err := conn.Read(in)
		if err != nil {
			return
		}
		out := make([]byte, 0, n)
		for _, b := range in[:n] {
			switch state {
			case stData:
				if b == iac {
					state = stIAC
				} else {
					out = append(out, b)
				}
			case stIAC:
				switch b {
				case iac:
					out = append(out, iac)
					state = stData
				case will:
					state = stWILL
				case wont:
					state = stWONT
				case do:
					state = stDO
				case dont:
					state = stDONT
				case sb:
					state = stSB
				default:
					state = stData
				}
			case stWILL, stWONT:
				// Nothing we offered above requires a reply to the
				// client's WILL/WONT; just resume the data stream.
				state = stData
			case stDO:
				s.handleDO(conn, b)
				state = stData
			case stDONT:
				state = stData
			case stSB:
				sbOption = b
				state = stSBBody(sbOption)
			case stSBData:
				if b == iac {
					state = stSBIAC
				}
			case stSBIAC:
				if b == se {
					state = stData
				} else {
					state = stSBData
				}
			}
		}
		if len(out) > 0 {
			s.buf.Inject(out)
		}
	}
}

// stSBBody always resolves to stSBData: sub-negotiation bodies (e.g.
// terminal-type replies) are of no use to a line-mode console, so
// they are consumed up to IAC SE and discarded rather than parsed.
func stSBBody(byte) lineState { return stSBData }

// handleDO answers the client's DO for an option we already offered
// WILL for with silence (we are already in that state); anything
// else we refuse.
func (s *Server) handleDO(conn net.Conn, opt byte) {
	switch opt {
	case optEcho, optSGA, optBinary:
		// already WILL, nothing to do
	default:
		_, _ = conn.Write([]byte{iac, wont, opt})
	}
}

// escapeIAC doubles any literal 0xFF byte in outgoing data so the
// client's telnet parser never mistakes simulated device output for
// an IAC command.
func escapeIAC(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		out = append(out, b)
		if b == iac {
			out = append(out, iac)
		}
	}
	return out
}
