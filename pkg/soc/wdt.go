// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package soc

// WDT is the first watchdog timer, used here only to yank the SoC
// through a full reset.
type WDT struct {
	chip *Chip
	base uint32
}

const (
	wdtReloadValue  = 0x04
	wdtRestart      = 0x08
	wdtCtrl         = 0x0c
	wdtResetMask    = 0x1c

	// Writing the magic to the restart register loads the counter.
	wdtRestartMagic = 0x4755

	// Enable + full chip reset on timeout.
	wdtCtrlEnable     = 1 << 0
	wdtCtrlResetSoC   = 1 << 1
	wdtCtrlResetField = 0x3 << 5
)

// WDT returns the watchdog handle.
func (c *Chip) WDT() (*WDT, error) {
	base, err := c.Device(DeviceWDT)
	if err != nil {
		return nil, err
	}
	return &WDT{chip: c, base: base}, nil
}

// ResetSoC programs the shortest timeout and lets the watchdog expire,
// taking the whole SoC through reset. The AHB connection generally does
// not survive this.
func (w *WDT) ResetSoC() error {
	if err := w.chip.write32(w.base+wdtReloadValue, 0x10); err != nil {
		return err
	}
	if err := w.chip.write32(w.base+wdtRestart, wdtRestartMagic); err != nil {
		return err
	}
	return w.chip.write32(w.base+wdtCtrl, wdtCtrlEnable|wdtCtrlResetSoC|wdtCtrlResetField)
}
