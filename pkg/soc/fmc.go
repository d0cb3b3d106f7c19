// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package soc

import "github.com/u-root/culvert/pkg/ahb"

// FMC is the firmware flash controller. This tool only ever reads the
// chip through the controller's memory-mapped window; programming a
// flash part is a different tool's business.
type FMC struct {
	chip *Chip
	base uint32
}

const (
	fmcCE0Ctrl = 0x10

	// Command mode field in the chip-select control register: normal
	// read puts the window in straight fast-read mode.
	fmcModeMask = 0x3
	fmcModeRead = 0x0
)

// FMC returns the flash controller handle.
func (c *Chip) FMC() (*FMC, error) {
	base, err := c.Device(DeviceFMC)
	if err != nil {
		return nil, err
	}
	return &FMC{chip: c, base: base}, nil
}

// Window is the AHB region where chip-select 0 is mapped.
func (f *FMC) Window() ahb.Region {
	return f.chip.flash
}

// EnableRead forces chip-select 0 into read command mode so the window
// reflects the flash contents.
func (f *FMC) EnableRead() error {
	v, err := f.chip.read32(f.base + fmcCE0Ctrl)
	if err != nil {
		return err
	}
	v &^= fmcModeMask
	v |= fmcModeRead
	return f.chip.write32(f.base+fmcCE0Ctrl, v)
}
