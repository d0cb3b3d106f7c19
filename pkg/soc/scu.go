// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package soc

import "fmt"

// SCU is the system control unit: protection key, hardware strapping
// and, on the AST2600, the coprocessor bring-up registers.
type SCU struct {
	chip *Chip
	base uint32
}

const (
	// Writing the password to SCU00 unlocks register writes, anything
	// else locks them again. See the datasheet's Protection Key
	// Register.
	scuPassword uint32 = 0x1688a8a8

	scuProtKey = 0x00
	scuStrap   = 0x70

	// AST2600 coprocessor (SSP) control block.
	scuCoprocCtrl      = 0xa00
	scuCoprocMemBase   = 0xa04
	scuCoprocIMemLimit = 0xa08
	scuCoprocDMemLimit = 0xa0c
	scuCoprocCacheRng  = 0xa40
	scuCoprocCacheFunc = 0xa48

	scuCoprocEn          = 1 << 0
	scuCoprocResetAssert = 1 << 1
	scuCoprocCacheEn     = 1 << 0
	scuCoprocCache16MEn  = 1 << 0
)

// SCU returns the system control unit handle.
func (c *Chip) SCU() (*SCU, error) {
	base, err := c.Device(DeviceSCU)
	if err != nil {
		return nil, err
	}
	return &SCU{chip: c, base: base}, nil
}

func (s *SCU) unlock() error {
	return s.chip.write32(s.base+scuProtKey, scuPassword)
}

func (s *SCU) lock() error {
	return s.chip.write32(s.base+scuProtKey, 0)
}

// Strap reads the hardware strapping register.
func (s *SCU) Strap() (uint32, error) {
	return s.chip.read32(s.base + scuStrap)
}

// writeUnlocked performs one register write under the protection key.
func (s *SCU) writeUnlocked(off uint32, val uint32) error {
	if err := s.unlock(); err != nil {
		return err
	}
	if err := s.chip.write32(s.base+off, val); err != nil {
		return err
	}
	return s.lock()
}

// StartCoprocessor points the SSP at its reserved memory and releases
// its reset. Only the AST2600 has the SSP block.
func (s *SCU) StartCoprocessor(memBase, memSize, cachedSize uint32) error {
	if s.chip.gen != AST2600 {
		return fmt.Errorf("coprocessor on %s: %w", s.chip.name, ErrDeviceNotPresent)
	}
	steps := []struct {
		off uint32
		val uint32
	}{
		{scuCoprocCtrl, scuCoprocResetAssert},
		{scuCoprocMemBase, memBase},
		{scuCoprocIMemLimit, memBase + cachedSize},
		{scuCoprocDMemLimit, memBase + memSize},
		{scuCoprocCacheRng, scuCoprocCache16MEn},
		{scuCoprocCacheFunc, scuCoprocCacheEn},
		{scuCoprocCtrl, scuCoprocResetAssert | scuCoprocEn},
		{scuCoprocCtrl, scuCoprocEn},
	}
	for _, st := range steps {
		if err := s.writeUnlocked(st.off, st.val); err != nil {
			return err
		}
	}
	return nil
}

// StopCoprocessor holds the SSP in reset.
func (s *SCU) StopCoprocessor() error {
	if s.chip.gen != AST2600 {
		return fmt.Errorf("coprocessor on %s: %w", s.chip.name, ErrDeviceNotPresent)
	}
	if err := s.writeUnlocked(scuCoprocCtrl, scuCoprocResetAssert); err != nil {
		return err
	}
	return s.writeUnlocked(scuCoprocCtrl, 0)
}
