// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package soc

import (
	"fmt"
)

// SecurityLevel classifies how much AHB access one chip-side bridge
// controller currently grants to the outside. The order runs from most
// to least exposed.
type SecurityLevel int

const (
	// Permissive: arbitrary read and write of the whole address
	// space.
	Permissive SecurityLevel = iota
	// Restricted: reachable, but filtered or read-only.
	Restricted
	// Disabled: the controller is switched off from the chip side.
	Disabled
)

func (l SecurityLevel) String() string {
	switch l {
	case Permissive:
		return "permissive"
	case Restricted:
		return "restricted"
	case Disabled:
		return "disabled"
	}
	return fmt.Sprintf("SecurityLevel(%d)", int(l))
}

// BridgeStatus is one controller with its discovered level.
type BridgeStatus struct {
	Name  string
	Level SecurityLevel
}

// Chip-side enable and filter bits. These describe the chip's own
// bridge controllers, independent of however this tool got in.
const (
	// SCU strap: SuperIO (and with it iLPC2AHB) decode disable, plus
	// the write-filter strap that leaves it read-only.
	scuStrapSIODisable  = 1 << 20
	scuStrapSIOReadOnly = 1 << 21

	// PCIe device control: VGA function MMIO decode feeds the P2A
	// window.
	scuPCIeCtrl      = 0x180
	scuPCIeVGAMMIOEn = 1 << 1

	// P2A write filters carve protected ranges out of the window.
	scuP2AFilter     = 0x1a8
	scuP2AFilterMask = 0xf

	// Misc control: debug UART disable bit (the AST2600 moved it).
	scuMisc             = 0x2c
	scuMiscDebugDisable = 1 << 10
	scuDbgCtrl2600      = 0x0c8
	scuDbg2600Disable   = 1 << 1
)

type bridgeCtrl struct {
	name  string
	probe func(c *Chip, scu *SCU) (SecurityLevel, error)
}

var bridgeCtrls = []bridgeCtrl{
	{"ilpc", probeILPC},
	{"p2a", probeP2A},
	{"debug", probeDebugUART},
}

func probeILPC(c *Chip, scu *SCU) (SecurityLevel, error) {
	strap, err := scu.Strap()
	if err != nil {
		return 0, err
	}
	switch {
	case strap&scuStrapSIODisable != 0:
		return Disabled, nil
	case strap&scuStrapSIOReadOnly != 0:
		return Restricted, nil
	}
	return Permissive, nil
}

func probeP2A(c *Chip, scu *SCU) (SecurityLevel, error) {
	ctrl, err := c.read32(scu.base + scuPCIeCtrl)
	if err != nil {
		return 0, err
	}
	if ctrl&scuPCIeVGAMMIOEn == 0 {
		return Disabled, nil
	}
	filter, err := c.read32(scu.base + scuP2AFilter)
	if err != nil {
		return 0, err
	}
	if filter&scuP2AFilterMask != 0 {
		return Restricted, nil
	}
	return Permissive, nil
}

func probeDebugUART(c *Chip, scu *SCU) (SecurityLevel, error) {
	off, bit := uint32(scuMisc), uint32(scuMiscDebugDisable)
	if c.gen == AST2600 {
		off, bit = scuDbgCtrl2600, scuDbg2600Disable
	}
	v, err := c.read32(scu.base + off)
	if err != nil {
		return 0, err
	}
	if v&bit != 0 {
		return Disabled, nil
	}
	// The debug UART has no read-only mode: it is all or nothing.
	return Permissive, nil
}

// ListBridgeControllers enumerates every chip-side bridge controller
// with its level, for human inspection. Read-only.
func (c *Chip) ListBridgeControllers() ([]BridgeStatus, error) {
	scu, err := c.SCU()
	if err != nil {
		return nil, err
	}
	var out []BridgeStatus
	for _, bc := range bridgeCtrls {
		l, err := bc.probe(c, scu)
		if err != nil {
			return nil, err
		}
		out = append(out, BridgeStatus{Name: bc.name, Level: l})
	}
	return out, nil
}

// ProbeBridgeControllers reports the most exposed level across the
// chip's bridge controllers, or the level of the one named controller.
func (c *Chip) ProbeBridgeControllers(iface string) (SecurityLevel, error) {
	scu, err := c.SCU()
	if err != nil {
		return 0, err
	}
	if iface != "" {
		for _, bc := range bridgeCtrls {
			if bc.name == iface {
				return bc.probe(c, scu)
			}
		}
		return 0, fmt.Errorf("bridge controller %q: %w", iface, ErrDeviceNotPresent)
	}
	worst := Disabled
	for _, bc := range bridgeCtrls {
		l, err := bc.probe(c, scu)
		if err != nil {
			return 0, err
		}
		if l < worst {
			worst = l
		}
	}
	return worst, nil
}
