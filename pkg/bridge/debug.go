// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bridge

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	"github.com/tarm/serial"

	"github.com/u-root/culvert/pkg/ahb"
)

// The debug UART exposes a line-oriented monitor on UART5 once debug
// mode is strapped in. One word moves per command, which makes this the
// slowest transport and the last resort of the negotiation order.
const (
	debugDefaultTTY  = "/dev/ttyUSB0"
	debugDefaultBaud = 115200
	debugPrompt      = "$ "

	loginPrompt    = "login:"
	passwordPrompt = "Password:"
)

// debugDriver reaches the monitor either on a local tty or through a
// serial concentrator that fronts it with a login on a TCP port. The
// five-field connection form selects the latter.
type debugDriver struct {
	// TTY overrides the local serial device; empty means the default.
	TTY string
}

func (d *debugDriver) Name() string  { return "debug" }
func (d *debugDriver) Priority() int { return 10 }

func (d *debugDriver) Open(opts Opts) (ahb.Accessor, error) {
	if opts.Host != "" {
		return d.openConsoleServer(opts)
	}
	tty := d.TTY
	if tty == "" {
		tty = debugDefaultTTY
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        tty,
		Baud:        debugDefaultBaud,
		ReadTimeout: 3 * time.Second,
	})
	if err != nil {
		return nil, openErr(d.Name(), tty, err)
	}
	m := newDebugMonitor(port, port)
	m.closer = port
	if err := m.enter(); err != nil {
		port.Close()
		return nil, openErr(d.Name(), "monitor handshake", err)
	}
	return m, nil
}

// openConsoleServer dials the concentrator and scripts the login
// exchange. Prompt matching is retried with backoff because console
// servers tend to drop the first bytes after connect.
func (d *debugDriver) openConsoleServer(opts Opts) (ahb.Accessor, error) {
	addr := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return nil, openErr(d.Name(), addr, err)
	}
	m := newDebugMonitor(conn, conn)
	m.closer = conn

	b := &backoff.Backoff{Min: 250 * time.Millisecond, Max: 2 * time.Second, Factor: 2}
	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		if lastErr = m.login(opts.Username, opts.Password); lastErr == nil {
			break
		}
		time.Sleep(b.Duration())
	}
	if lastErr != nil {
		conn.Close()
		return nil, openErr(d.Name(), "console login", lastErr)
	}
	if err := m.enter(); err != nil {
		conn.Close()
		return nil, openErr(d.Name(), "monitor handshake", err)
	}
	return m, nil
}

// debugMonitor drives the monitor's r/w command set over any byte
// stream.
type debugMonitor struct {
	r      *bufio.Reader
	w      io.Writer
	closer io.Closer
}

func newDebugMonitor(r io.Reader, w io.Writer) *debugMonitor {
	return &debugMonitor{r: bufio.NewReader(r), w: w}
}

func (m *debugMonitor) Name() string { return "debug" }

func (m *debugMonitor) Window() ahb.Region {
	return ahb.Region{Start: 0, Length: 0xffffffff}
}

// expect consumes input until the wanted marker goes past, returning
// everything read before it.
func (m *debugMonitor) expect(marker string) (string, error) {
	var sb strings.Builder
	for {
		b, err := m.r.ReadByte()
		if err != nil {
			return sb.String(), &ahb.TransportError{Interface: "debug", Op: "expect " + strconv.Quote(marker), Err: err}
		}
		sb.WriteByte(b)
		if strings.HasSuffix(sb.String(), marker) {
			return strings.TrimSuffix(sb.String(), marker), nil
		}
	}
}

func (m *debugMonitor) send(line string) error {
	if _, err := io.WriteString(m.w, line+"\r"); err != nil {
		return &ahb.TransportError{Interface: "debug", Op: "send", Err: err}
	}
	return nil
}

func (m *debugMonitor) login(user, pass string) error {
	if err := m.send(""); err != nil {
		return err
	}
	if _, err := m.expect(loginPrompt); err != nil {
		return err
	}
	if err := m.send(user); err != nil {
		return err
	}
	if _, err := m.expect(passwordPrompt); err != nil {
		return err
	}
	return m.send(pass)
}

// enter nudges the monitor until it answers with its prompt.
func (m *debugMonitor) enter() error {
	if err := m.send(""); err != nil {
		return err
	}
	_, err := m.expect(debugPrompt)
	return err
}

func (m *debugMonitor) Read32(addr uint32) (uint32, error) {
	if err := m.send(fmt.Sprintf("r %08x", addr)); err != nil {
		return 0, err
	}
	out, err := m.expect(debugPrompt)
	if err != nil {
		return 0, err
	}
	// The reply echoes the command; the value is the last token.
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return 0, &ahb.TransportError{Interface: "debug", Op: "read", Err: fmt.Errorf("empty reply for %08x", addr)}
	}
	v, err := strconv.ParseUint(fields[len(fields)-1], 16, 32)
	if err != nil {
		return 0, &ahb.TransportError{Interface: "debug", Op: "read", Err: fmt.Errorf("bad reply %q", fields[len(fields)-1])}
	}
	return uint32(v), nil
}

func (m *debugMonitor) Write32(addr uint32, val uint32) error {
	if err := m.send(fmt.Sprintf("w %08x %08x", addr, val)); err != nil {
		return err
	}
	_, err := m.expect(debugPrompt)
	return err
}

func (m *debugMonitor) Read(addr uint32, buf []byte) (int, error) {
	return ahb.ReadWords(m, addr, buf)
}

func (m *debugMonitor) Write(addr uint32, buf []byte) (int, error) {
	return ahb.WriteWords(m, addr, buf)
}

func (m *debugMonitor) Release() error {
	// Drop out of the monitor so a human on the console gets their
	// getty back.
	if err := m.send("q"); err != nil {
		return err
	}
	if m.closer != nil {
		return m.closer.Close()
	}
	return nil
}
