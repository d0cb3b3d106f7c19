// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bridge

import (
	"fmt"
	"os"

	"github.com/u-root/culvert/pkg/ahb"
)

// SuperIO register protocol for the iLPC2AHB logical device. The SIO is
// reached through an index/data port pair on the host LPC bus; logical
// device 0xd exposes the AHB address in F0-F3, data in F4-F7, transfer
// width in F8 and a trigger at 0xfe.
const (
	sioDefaultPort = 0x2e

	sioUnlock = 0xa5
	sioLock   = 0xaa

	sioSelectLDN  = 0x07
	sioLDNiLPC    = 0x0d
	sioActivate   = 0x30
	sioAddr0      = 0xf0
	sioData0      = 0xf4
	sioWidth      = 0xf8
	sioTrigger    = 0xfe
	sioWidth32    = 0x02
	sioWriteMagic = 0xcf
)

// ilpcDriver reaches the BMC's AHB from the host over the LPC bus using
// the SuperIO iLPC2AHB backdoor. Needs raw port I/O, so root only.
type ilpcDriver struct{}

func (d *ilpcDriver) Name() string  { return "ilpc" }
func (d *ilpcDriver) Priority() int { return 30 }

func (d *ilpcDriver) Open(_ Opts) (ahb.Accessor, error) {
	p, err := os.OpenFile("/dev/port", os.O_RDWR, 0o600)
	if err != nil {
		return nil, openErr(d.Name(), "/dev/port", err)
	}
	l := &ilpc{p: p, off: sioDefaultPort}
	if err := l.unlock(); err != nil {
		p.Close()
		return nil, openErr(d.Name(), "superio unlock", err)
	}
	if err := l.enable(); err != nil {
		p.Close()
		return nil, openErr(d.Name(), "ilpc2ahb enable", err)
	}
	return l, nil
}

type ilpc struct {
	p   *os.File
	off int64
}

func (l *ilpc) Name() string { return "ilpc" }

func (l *ilpc) Window() ahb.Region {
	return ahb.Region{Start: 0, Length: 0xffffffff}
}

// ctrl writes to the SIO index port, w/r move data through the data
// port one byte at a time.
func (l *ilpc) ctrl(d byte) error {
	if _, err := l.p.WriteAt([]byte{d}, l.off); err != nil {
		return &ahb.TransportError{Interface: "ilpc", Op: "port write", Err: err}
	}
	return nil
}

func (l *ilpc) w(d byte) error {
	if _, err := l.p.WriteAt([]byte{d}, l.off+1); err != nil {
		return &ahb.TransportError{Interface: "ilpc", Op: "port write", Err: err}
	}
	return nil
}

func (l *ilpc) r() (byte, error) {
	b := make([]byte, 1)
	if _, err := l.p.ReadAt(b, l.off+1); err != nil {
		return 0, &ahb.TransportError{Interface: "ilpc", Op: "port read", Err: err}
	}
	return b[0], nil
}

func (l *ilpc) wf(f byte, d byte) error {
	if err := l.ctrl(f); err != nil {
		return err
	}
	return l.w(d)
}

func (l *ilpc) rf(f byte) (byte, error) {
	if err := l.ctrl(f); err != nil {
		return 0, err
	}
	return l.r()
}

func (l *ilpc) unlock() error {
	if err := l.ctrl(sioUnlock); err != nil {
		return err
	}
	return l.ctrl(sioUnlock)
}

func (l *ilpc) enable() error {
	if err := l.wf(sioSelectLDN, sioLDNiLPC); err != nil {
		return err
	}
	return l.wf(sioActivate, 0x01)
}

func (l *ilpc) addr(a uint32) error {
	for i := 0; i < 4; i++ {
		if err := l.wf(sioAddr0+byte(i), byte(a>>(24-8*i))); err != nil {
			return err
		}
	}
	return nil
}

func (l *ilpc) trigger() error {
	if err := l.ctrl(sioTrigger); err != nil {
		return err
	}
	// A read of the trigger register fires the AHB cycle.
	_, err := l.r()
	return err
}

func (l *ilpc) Read32(a uint32) (uint32, error) {
	if err := l.addr(a); err != nil {
		return 0, err
	}
	if err := l.wf(sioWidth, sioWidth32); err != nil {
		return 0, err
	}
	if err := l.trigger(); err != nil {
		return 0, err
	}
	var v uint32
	for i := 0; i < 4; i++ {
		b, err := l.rf(sioData0 + byte(i))
		if err != nil {
			return 0, err
		}
		v = v<<8 | uint32(b)
	}
	return v, nil
}

func (l *ilpc) Write32(a uint32, d uint32) error {
	if err := l.addr(a); err != nil {
		return err
	}
	if err := l.wf(sioWidth, sioWidth32); err != nil {
		return err
	}
	for i := 0; i < 4; i++ {
		if err := l.wf(sioData0+byte(i), byte(d>>(24-8*i))); err != nil {
			return err
		}
	}
	if err := l.ctrl(sioTrigger); err != nil {
		return err
	}
	return l.w(sioWriteMagic)
}

func (l *ilpc) Read(addr uint32, buf []byte) (int, error) {
	return ahb.ReadWords(l, addr, buf)
}

func (l *ilpc) Write(addr uint32, buf []byte) (int, error) {
	return ahb.WriteWords(l, addr, buf)
}

func (l *ilpc) Release() error {
	// Leave the SIO locked behind us.
	if err := l.ctrl(sioLock); err != nil {
		return err
	}
	if err := l.p.Close(); err != nil {
		return fmt.Errorf("ilpc: close: %w", err)
	}
	return nil
}
