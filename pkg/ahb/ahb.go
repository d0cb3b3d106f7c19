// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ahb defines the uniform access contract for the BMC's internal
// AHB interconnect. Every bridge transport (local /dev/mem, iLPC2AHB,
// P2A, JTAG, debug UART) satisfies the Accessor interface, and everything
// above the bridge layer talks to the chip exclusively through it.
//
// An Accessor is owned by exactly one command session at a time. Nothing
// in this package is safe for concurrent use on the same Accessor; a
// transfer blocks its caller until it completes or fails.
package ahb

// Accessor is a live handle on the AHB of one target chip.
//
// Read and Write move whole byte ranges and are the building blocks for
// the siphon helpers; drivers without a native bulk path implement them
// with ReadWords/WriteWords. Release closes the underlying transport and
// invalidates the handle. No operation is retried on failure.
type Accessor interface {
	// Name identifies the bridge driver backing this handle, for
	// diagnostics ("devmem", "ilpc", ...).
	Name() string

	// Window is the range of bus addresses this transport can reach.
	Window() Region

	Read32(addr uint32) (uint32, error)
	Write32(addr uint32, val uint32) error

	Read(addr uint32, buf []byte) (int, error)
	Write(addr uint32, buf []byte) (int, error)

	Release() error
}

// ReadWords implements a bulk read as a sequence of 32 bit accesses, for
// transports that only move one word per transaction. A trailing partial
// word is read in full and truncated; the AHB is little-endian.
func ReadWords(a Accessor, addr uint32, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		v, err := a.Read32(addr + uint32(n))
		if err != nil {
			return n, err
		}
		for i := 0; i < 4 && n < len(buf); i++ {
			buf[n] = byte(v >> (8 * i))
			n++
		}
	}
	return n, nil
}

// WriteWords is the write counterpart of ReadWords. A trailing partial
// word is completed with a read-modify-write of the containing word.
func WriteWords(a Accessor, addr uint32, buf []byte) (int, error) {
	n := 0
	for len(buf)-n >= 4 {
		v := uint32(buf[n]) | uint32(buf[n+1])<<8 | uint32(buf[n+2])<<16 | uint32(buf[n+3])<<24
		if err := a.Write32(addr+uint32(n), v); err != nil {
			return n, err
		}
		n += 4
	}
	if rem := len(buf) - n; rem > 0 {
		v, err := a.Read32(addr + uint32(n))
		if err != nil {
			return n, err
		}
		for i := 0; i < rem; i++ {
			v &^= 0xff << (8 * i)
			v |= uint32(buf[n+i]) << (8 * i)
		}
		if err := a.Write32(addr+uint32(n), v); err != nil {
			return n, err
		}
		n += rem
	}
	return n, nil
}
