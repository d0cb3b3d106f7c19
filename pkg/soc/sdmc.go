// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package soc

import (
	"fmt"

	"github.com/u-root/culvert/pkg/ahb"
)

// SDMC is the SDRAM memory controller. Its configuration register holds
// the populated DRAM size and the video RAM reservation taken from the
// top of it.
type SDMC struct {
	chip *Chip
	base uint32
}

const sdmcConf = 0x04

// DRAM base and the size decode differ per family; VRAM uses the same
// four-step decode everywhere.
var (
	dramBase = map[Generation]uint32{
		AST2400: 0x40000000,
		AST2500: 0x80000000,
		AST2600: 0x80000000,
	}
	dramSizes = map[Generation][4]uint32{
		AST2400: {64 << 20, 128 << 20, 256 << 20, 512 << 20},
		AST2500: {128 << 20, 256 << 20, 512 << 20, 1024 << 20},
		AST2600: {256 << 20, 512 << 20, 1024 << 20, 2048 << 20},
	}
	vramSizes = [4]uint32{8 << 20, 16 << 20, 32 << 20, 64 << 20}
)

// SDMC returns the memory controller handle.
func (c *Chip) SDMC() (*SDMC, error) {
	base, err := c.Device(DeviceSDMC)
	if err != nil {
		return nil, err
	}
	return &SDMC{chip: c, base: base}, nil
}

// DRAM reads the configuration register and decodes the populated DRAM
// region.
func (s *SDMC) DRAM() (ahb.Region, error) {
	conf, err := s.chip.read32(s.base + sdmcConf)
	if err != nil {
		return ahb.Region{}, err
	}
	return ahb.NewRegion(dramBase[s.chip.gen], dramSizes[s.chip.gen][conf&0x3])
}

// VRAM decodes the video RAM reservation, which sits at the top of
// DRAM.
func (s *SDMC) VRAM() (ahb.Region, error) {
	dram, err := s.DRAM()
	if err != nil {
		return ahb.Region{}, err
	}
	conf, err := s.chip.read32(s.base + sdmcConf)
	if err != nil {
		return ahb.Region{}, err
	}
	size := vramSizes[(conf>>2)&0x3]
	if size > dram.Length {
		return ahb.Region{}, fmt.Errorf("vram %#x larger than dram %v", size, dram)
	}
	return ahb.NewRegion(dram.Start+dram.Length-size, size)
}

// probeRegions fills the Chip's region set right after identification.
func (c *Chip) probeRegions() error {
	s, err := c.SDMC()
	if err != nil {
		return err
	}
	if c.dram, err = s.DRAM(); err != nil {
		return err
	}
	if c.vram, err = s.VRAM(); err != nil {
		return err
	}
	c.flash, err = ahb.NewRegion(0x20000000, 0x10000000)
	return err
}
