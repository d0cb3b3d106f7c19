// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bridge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/u-root/culvert/pkg/ahb"
)

// The ASPEED VGA function exposes a movable 64 KiB AHB window in BAR1:
// control registers live at +0xf000 and the window data at +0x10000.
// Repointing the window costs one register write, so bulk transfers walk
// the address space 64 KiB at a time.
const (
	aspeedVendor = "0x1a03"
	aspeedDevice = "0x2000"

	p2aCtrlEnable = 0xf000
	p2aCtrlBase   = 0xf004
	p2aWindowOff  = 0x10000
	p2aWindowLen  = 0x10000
	p2aMapLen     = p2aWindowOff + p2aWindowLen
)

// p2aDriver finds the ASPEED VGA function on the host PCI bus and maps
// its BAR1.
type p2aDriver struct{}

func (d *p2aDriver) Name() string  { return "p2a" }
func (d *p2aDriver) Priority() int { return 40 }

func (d *p2aDriver) Open(_ Opts) (ahb.Accessor, error) {
	dev, err := findAspeedVGA()
	if err != nil {
		return nil, openErr(d.Name(), "pci scan", err)
	}
	f, err := os.OpenFile(filepath.Join(dev, "resource1"), os.O_RDWR|os.O_SYNC, 0o600)
	if err != nil {
		return nil, openErr(d.Name(), "bar1", err)
	}
	mem, err := unix.Mmap(int(f.Fd()), 0, p2aMapLen, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, openErr(d.Name(), "bar1 mmap", err)
	}
	p := &p2a{f: f, bar: mem}
	p.reg(p2aCtrlEnable, 1)
	return p, nil
}

// findAspeedVGA scans sysfs for the first ASPEED VGA function.
func findAspeedVGA() (string, error) {
	devs, err := filepath.Glob("/sys/bus/pci/devices/*")
	if err != nil {
		return "", err
	}
	for _, dev := range devs {
		v, err := os.ReadFile(filepath.Join(dev, "vendor"))
		if err != nil {
			continue
		}
		d, err := os.ReadFile(filepath.Join(dev, "device"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(v)) == aspeedVendor && strings.TrimSpace(string(d)) == aspeedDevice {
			return dev, nil
		}
	}
	return "", fmt.Errorf("no ASPEED VGA function: %w", ErrNotPresent)
}

type p2a struct {
	f    *os.File
	bar  []byte
	base uint32 // current window base, 64 KiB aligned
}

func (p *p2a) Name() string { return "p2a" }

func (p *p2a) Window() ahb.Region {
	return ahb.Region{Start: 0, Length: 0xffffffff}
}

func (p *p2a) reg(off uint32, v uint32) {
	*(*uint32)(unsafe.Pointer(&p.bar[off])) = v
}

// aim repoints the bridge window at the 64 KiB span containing addr and
// returns the offset of addr inside the mapped window.
func (p *p2a) aim(addr uint32) uint32 {
	base := addr &^ (p2aWindowLen - 1)
	if base != p.base {
		p.reg(p2aCtrlBase, base)
		p.base = base
	}
	return p2aWindowOff + (addr - base)
}

func (p *p2a) Read32(addr uint32) (uint32, error) {
	off := p.aim(addr)
	return *(*uint32)(unsafe.Pointer(&p.bar[off])), nil
}

func (p *p2a) Write32(addr uint32, val uint32) error {
	off := p.aim(addr)
	*(*uint32)(unsafe.Pointer(&p.bar[off])) = val
	return nil
}

func (p *p2a) Read(addr uint32, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		off := p.aim(addr + uint32(n))
		c := copy(buf[n:], p.bar[off:p2aMapLen])
		n += c
	}
	return n, nil
}

func (p *p2a) Write(addr uint32, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		off := p.aim(addr + uint32(n))
		c := copy(p.bar[off:p2aMapLen], buf[n:])
		n += c
	}
	return n, nil
}

func (p *p2a) Release() error {
	p.reg(p2aCtrlEnable, 0)
	if err := unix.Munmap(p.bar); err != nil {
		return fmt.Errorf("p2a: munmap: %w", err)
	}
	if err := p.f.Close(); err != nil {
		return fmt.Errorf("p2a: close: %w", err)
	}
	return nil
}
