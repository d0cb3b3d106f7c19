// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package soc identifies the chip behind an open AHB accessor and hands
// out typed handles on its controllers. A Chip borrows the accessor for
// its whole life and never closes it; device handles in turn are only
// valid while their Chip is. Closing the Chip invalidates every handle
// it issued, so a retained handle fails loudly instead of dangling.
package soc

import (
	"errors"
	"fmt"
	"io"

	"github.com/u-root/culvert/pkg/ahb"
	"github.com/u-root/culvert/pkg/logger"
)

// DeviceKind names one controller class on the chip.
type DeviceKind int

const (
	DeviceSCU DeviceKind = iota
	DeviceSDMC
	DeviceCLK
	DeviceWDT
	DeviceUARTMux
	DeviceFMC
)

func (k DeviceKind) String() string {
	switch k {
	case DeviceSCU:
		return "scu"
	case DeviceSDMC:
		return "sdmc"
	case DeviceCLK:
		return "clk"
	case DeviceWDT:
		return "wdt"
	case DeviceUARTMux:
		return "uart-mux"
	case DeviceFMC:
		return "fmc"
	}
	return fmt.Sprintf("DeviceKind(%d)", int(k))
}

var (
	// ErrDeviceNotPresent means the probed generation does not
	// implement the requested controller kind.
	ErrDeviceNotPresent = errors.New("device not present on this chip")

	// ErrChipReleased means a device lookup or access happened after
	// the owning Chip was closed.
	ErrChipReleased = errors.New("chip has been released")
)

// Per-generation controller sets. Base addresses are stable within a
// family; kinds missing from a map yield ErrDeviceNotPresent.
var deviceTables = map[Generation]map[DeviceKind]uint32{
	AST2400: {
		DeviceSCU:  0x1e6e2000,
		DeviceSDMC: 0x1e6e0000,
		DeviceCLK:  0x1e6e2000,
		DeviceWDT:  0x1e785000,
		DeviceFMC:  0x1e620000,
		// No uart-mux: route control arrived with the AST2500.
	},
	AST2500: {
		DeviceSCU:     0x1e6e2000,
		DeviceSDMC:    0x1e6e0000,
		DeviceCLK:     0x1e6e2000,
		DeviceWDT:     0x1e785000,
		DeviceUARTMux: 0x1e789000,
		DeviceFMC:     0x1e620000,
	},
	AST2600: {
		DeviceSCU:     0x1e6e2000,
		DeviceSDMC:    0x1e6e0000,
		DeviceCLK:     0x1e6e2000,
		DeviceWDT:     0x1e785000,
		DeviceUARTMux: 0x1e789000,
		DeviceFMC:     0x1e620000,
	},
}

// Chip is one identified BMC with its memory layout and controller
// registry.
type Chip struct {
	ab ahb.Accessor

	gen  Generation
	name string

	dram  ahb.Region
	vram  ahb.Region
	flash ahb.Region

	devices map[DeviceKind]uint32
	closed  bool
}

// Probe identifies the chip behind the accessor and builds its region
// set and device registry. An unknown revision yields
// UnrecognizedChipError and no registry.
func Probe(ab ahb.Accessor) (*Chip, error) {
	rev, err := ab.Read32(scuRevOld)
	if err != nil {
		return nil, err
	}
	r, ok := revisions[rev]
	if !ok {
		// The AST2600 answers in a different register.
		rev2600, err := ab.Read32(scuRev2600)
		if err != nil {
			return nil, err
		}
		if r, ok = revisions[rev2600]; !ok {
			return nil, &UnrecognizedChipError{Rev: rev}
		}
		// SCU14 holds the stepping once it diverges from SCU04.
		step, err := ab.Read32(scuRevStep)
		if err != nil {
			return nil, err
		}
		if rs, ok := revisions[step]; ok {
			r = rs
		}
	}

	c := &Chip{
		ab:      ab,
		gen:     r.gen,
		name:    r.name,
		devices: deviceTables[r.gen],
	}
	if err := c.probeRegions(); err != nil {
		return nil, err
	}
	logger.Sugar().Infof("probed %s via %s: dram %v, vram %v", c.name, ab.Name(), c.dram, c.vram)
	return c, nil
}

// Generation reports the identified controller family.
func (c *Chip) Generation() Generation { return c.gen }

// Name is the family plus stepping, e.g. "AST2500-A1".
func (c *Chip) Name() string { return c.name }

// DRAM is the full DRAM region, VRAM the reservation carved out of its
// tail, Flash the FMC's mapped flash window.
func (c *Chip) DRAM() ahb.Region  { return c.dram }
func (c *Chip) VRAM() ahb.Region  { return c.vram }
func (c *Chip) Flash() ahb.Region { return c.flash }

// Device checks that the chip implements kind and returns its register
// base. Typed getters below wrap this for the controllers commands use.
func (c *Chip) Device(kind DeviceKind) (uint32, error) {
	if c.closed {
		return 0, fmt.Errorf("%s: %w", kind, ErrChipReleased)
	}
	base, ok := c.devices[kind]
	if !ok {
		return 0, fmt.Errorf("%s on %s: %w", kind, c.name, ErrDeviceNotPresent)
	}
	return base, nil
}

// read32/write32 funnel every device access through the liveness check.
func (c *Chip) read32(addr uint32) (uint32, error) {
	if c.closed {
		return 0, ErrChipReleased
	}
	return c.ab.Read32(addr)
}

func (c *Chip) write32(addr uint32, val uint32) error {
	if c.closed {
		return ErrChipReleased
	}
	return c.ab.Write32(addr, val)
}

// SiphonOut streams a range that must sit inside one of the chip's
// known regions out to w.
func (c *Chip) SiphonOut(addr, length uint32, w io.Writer) (int64, error) {
	if c.closed {
		return 0, ErrChipReleased
	}
	if err := c.checkRegion(addr, length); err != nil {
		return 0, err
	}
	return ahb.SiphonOut(c.ab, addr, length, w)
}

// SiphonIn is the inverse; flash is deliberately excluded since writing
// the flash window does not program the chip.
func (c *Chip) SiphonIn(addr, length uint32, r io.Reader) (int64, error) {
	if c.closed {
		return 0, ErrChipReleased
	}
	if !c.dram.ContainsRange(addr, length) {
		return 0, fmt.Errorf("%#08x+%#x outside dram %v: %w", addr, length, c.dram, ahb.ErrOutOfRange)
	}
	return ahb.SiphonIn(c.ab, addr, length, r)
}

func (c *Chip) checkRegion(addr, length uint32) error {
	for _, r := range []ahb.Region{c.dram, c.flash} {
		if r.ContainsRange(addr, length) {
			return nil
		}
	}
	return fmt.Errorf("%#08x+%#x outside dram %v and flash %v: %w", addr, length, c.dram, c.flash, ahb.ErrOutOfRange)
}

// Close tears down the device registry. The borrowed accessor is left
// untouched for whoever negotiated it.
func (c *Chip) Close() {
	c.devices = nil
	c.closed = true
}

// DumpRAMWindow computes the range a RAM dump covers when the user gave
// no explicit one: all of DRAM minus the VRAM reservation at its tail.
func DumpRAMWindow(dram, vram ahb.Region) ahb.Region {
	return ahb.Region{Start: dram.Start, Length: dram.Length - vram.Length}
}
