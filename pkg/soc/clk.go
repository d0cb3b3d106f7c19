// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package soc

// CLK is the clock controller view of the SCU: stop-control gates for
// the UARTs that console takeover needs running.
type CLK struct {
	chip *Chip
	base uint32
}

const (
	clkStopCtrl = 0x0c

	// Stop gates for UART2 and UART3 in the clock stop control
	// register; a set bit holds the clock off.
	clkStopUART2 = 1 << 16
	clkStopUART3 = 1 << 25
)

// CLK returns the clock controller handle.
func (c *Chip) CLK() (*CLK, error) {
	base, err := c.Device(DeviceCLK)
	if err != nil {
		return nil, err
	}
	return &CLK{chip: c, base: base}, nil
}

// EnableUART ungates the clock of the numbered UART (2 or 3).
func (k *CLK) EnableUART(n int) error {
	return k.gateUART(n, false)
}

// DisableUART gates it off again.
func (k *CLK) DisableUART(n int) error {
	return k.gateUART(n, true)
}

func (k *CLK) gateUART(n int, stop bool) error {
	var bit uint32
	switch n {
	case 2:
		bit = clkStopUART2
	case 3:
		bit = clkStopUART3
	default:
		return ErrDeviceNotPresent
	}
	v, err := k.chip.read32(k.base + clkStopCtrl)
	if err != nil {
		return err
	}
	if stop {
		v |= bit
	} else {
		v &^= bit
	}
	return k.chip.write32(k.base+clkStopCtrl, v)
}
