// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ahb

import (
	"errors"
)

// fakeAccessor backs a window of the address space with a byte slice.
// failAfter, when non-negative, makes every bulk access past that many
// bytes fail so partial-transfer reporting can be exercised.
type fakeAccessor struct {
	window    Region
	mem       []byte
	failAfter int
	moved     int
	released  bool
}

var errInjected = errors.New("injected fault")

func newFakeAccessor(window Region) *fakeAccessor {
	return &fakeAccessor{
		window:    window,
		mem:       make([]byte, window.Length),
		failAfter: -1,
	}
}

func (f *fakeAccessor) Name() string   { return "fake" }
func (f *fakeAccessor) Window() Region { return f.window }

func (f *fakeAccessor) Read32(addr uint32) (uint32, error) {
	if !f.window.ContainsRange(addr, 4) {
		return 0, ErrOutOfRange
	}
	o := addr - f.window.Start
	return uint32(f.mem[o]) | uint32(f.mem[o+1])<<8 | uint32(f.mem[o+2])<<16 | uint32(f.mem[o+3])<<24, nil
}

func (f *fakeAccessor) Write32(addr uint32, val uint32) error {
	if !f.window.ContainsRange(addr, 4) {
		return ErrOutOfRange
	}
	o := addr - f.window.Start
	f.mem[o] = byte(val)
	f.mem[o+1] = byte(val >> 8)
	f.mem[o+2] = byte(val >> 16)
	f.mem[o+3] = byte(val >> 24)
	return nil
}

func (f *fakeAccessor) Read(addr uint32, buf []byte) (int, error) {
	n := len(buf)
	if f.failAfter >= 0 && f.moved+n > f.failAfter {
		n = f.failAfter - f.moved
		copy(buf[:n], f.mem[addr-f.window.Start:])
		f.moved += n
		return n, &TransportError{Interface: "fake", Op: "read", Err: errInjected}
	}
	copy(buf, f.mem[addr-f.window.Start:])
	f.moved += n
	return n, nil
}

func (f *fakeAccessor) Write(addr uint32, buf []byte) (int, error) {
	n := len(buf)
	if f.failAfter >= 0 && f.moved+n > f.failAfter {
		n = f.failAfter - f.moved
		copy(f.mem[addr-f.window.Start:], buf[:n])
		f.moved += n
		return n, &TransportError{Interface: "fake", Op: "write", Err: errInjected}
	}
	copy(f.mem[addr-f.window.Start:], buf)
	f.moved += n
	return n, nil
}

func (f *fakeAccessor) Release() error {
	f.released = true
	return nil
}
