// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bridge

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/u-root/culvert/pkg/ahb"
)

// devmemDriver maps the AHB through /dev/mem. It only does anything
// useful when the process runs on the BMC itself, which also makes it
// the cheapest and safest transport, hence the top priority.
type devmemDriver struct{}

func (d *devmemDriver) Name() string  { return "devmem" }
func (d *devmemDriver) Priority() int { return 50 }

func (d *devmemDriver) Open(_ Opts) (ahb.Accessor, error) {
	f, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0o600)
	if err != nil {
		return nil, openErr(d.Name(), "/dev/mem", err)
	}
	return &devmem{f: f}, nil
}

type devmem struct {
	f *os.File
}

func (m *devmem) Name() string { return "devmem" }

func (m *devmem) Window() ahb.Region {
	return ahb.Region{Start: 0, Length: 0xffffffff}
}

// mapRange maps the pages covering [addr, addr+length). The caller must
// unmap the returned slice; off is addr's offset into it.
func (m *devmem) mapRange(addr, length uint32, prot int) (mem []byte, off uint32, err error) {
	ps := uint32(unix.Getpagesize())
	page := addr &^ (ps - 1)
	span := (addr - page + length + ps - 1) &^ (ps - 1)
	mem, err = unix.Mmap(int(m.f.Fd()), int64(page), int(span), prot, unix.MAP_SHARED)
	if err != nil {
		return nil, 0, &ahb.TransportError{Interface: "devmem", Op: "mmap", Err: err}
	}
	return mem, addr - page, nil
}

func (m *devmem) Read32(addr uint32) (uint32, error) {
	mem, off, err := m.mapRange(addr, 4, unix.PROT_READ)
	if err != nil {
		return 0, err
	}
	v := *(*uint32)(unsafe.Pointer(&mem[off]))
	if err := unix.Munmap(mem); err != nil {
		return 0, &ahb.TransportError{Interface: "devmem", Op: "munmap", Err: err}
	}
	return v, nil
}

func (m *devmem) Write32(addr uint32, val uint32) error {
	mem, off, err := m.mapRange(addr, 4, unix.PROT_WRITE)
	if err != nil {
		return err
	}
	*(*uint32)(unsafe.Pointer(&mem[off])) = val
	if err := unix.Munmap(mem); err != nil {
		return &ahb.TransportError{Interface: "devmem", Op: "munmap", Err: err}
	}
	return nil
}

func (m *devmem) Read(addr uint32, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	mem, off, err := m.mapRange(addr, uint32(len(buf)), unix.PROT_READ)
	if err != nil {
		return 0, err
	}
	n := copy(buf, mem[off:])
	if err := unix.Munmap(mem); err != nil {
		return n, &ahb.TransportError{Interface: "devmem", Op: "munmap", Err: err}
	}
	return n, nil
}

func (m *devmem) Write(addr uint32, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	mem, off, err := m.mapRange(addr, uint32(len(buf)), unix.PROT_WRITE)
	if err != nil {
		return 0, err
	}
	n := copy(mem[off:], buf)
	if err := unix.Munmap(mem); err != nil {
		return n, &ahb.TransportError{Interface: "devmem", Op: "munmap", Err: err}
	}
	return n, nil
}

func (m *devmem) Release() error {
	if err := m.f.Close(); err != nil {
		return fmt.Errorf("devmem: close: %w", err)
	}
	return nil
}
