// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package soc

import (
	"bytes"
	"errors"
	"testing"

	"github.com/u-root/culvert/pkg/ahb"
)

// regAccessor backs the AHB with a sparse register map; unbacked words
// read as zero. Writes land in the map so register sequences can be
// inspected afterwards.
type regAccessor struct {
	regs map[uint32]uint32
}

func newRegAccessor(regs map[uint32]uint32) *regAccessor {
	if regs == nil {
		regs = make(map[uint32]uint32)
	}
	return &regAccessor{regs: regs}
}

func (r *regAccessor) Name() string { return "fake" }
func (r *regAccessor) Window() ahb.Region {
	return ahb.Region{Start: 0, Length: 0xffffffff}
}

func (r *regAccessor) Read32(addr uint32) (uint32, error) {
	return r.regs[addr], nil
}

func (r *regAccessor) Write32(addr uint32, val uint32) error {
	r.regs[addr] = val
	return nil
}

func (r *regAccessor) Read(addr uint32, buf []byte) (int, error) {
	return ahb.ReadWords(r, addr, buf)
}

func (r *regAccessor) Write(addr uint32, buf []byte) (int, error) {
	return ahb.WriteWords(r, addr, buf)
}

func (r *regAccessor) Release() error { return nil }

// ast2500 fakes an AST2500-A1 with 1 GiB DRAM and a 32 MiB VRAM
// reservation.
func ast2500() *regAccessor {
	return newRegAccessor(map[uint32]uint32{
		0x1e6e207c: 0x04010303,
		0x1e6e0004: 0xb, // dram size code 3 (1 GiB), vram code 2 (32 MiB)
	})
}

func TestProbeAST2500Regions(t *testing.T) {
	c, err := Probe(ast2500())
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if c.Generation() != AST2500 || c.Name() != "AST2500-A1" {
		t.Errorf("identified %s (%v)", c.Name(), c.Generation())
	}
	if want := (ahb.Region{Start: 0x80000000, Length: 0x40000000}); c.DRAM() != want {
		t.Errorf("dram %v, want %v", c.DRAM(), want)
	}
	if want := (ahb.Region{Start: 0xbe000000, Length: 0x02000000}); c.VRAM() != want {
		t.Errorf("vram %v, want %v", c.VRAM(), want)
	}
}

func TestDumpRAMWindow(t *testing.T) {
	c, err := Probe(ast2500())
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	w := DumpRAMWindow(c.DRAM(), c.VRAM())
	if w.Start != 0x80000000 || w.Length != 0x3e000000 {
		t.Errorf("dump window %v, want [0x80000000 +0x3e000000]", w)
	}
}

func TestProbeAST2600Stepping(t *testing.T) {
	c, err := Probe(newRegAccessor(map[uint32]uint32{
		// SCU7C reads as junk on the AST2600.
		0x1e6e207c: 0xdeadbeef,
		0x1e6e2004: 0x05000303,
		0x1e6e2014: 0x05010303,
		0x1e6e0004: 0x3, // 2 GiB, 8 MiB vram
	}))
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if c.Name() != "AST2600-A1" {
		t.Errorf("identified %s, want AST2600-A1", c.Name())
	}
}

func TestProbeUnrecognized(t *testing.T) {
	_, err := Probe(newRegAccessor(map[uint32]uint32{
		0x1e6e207c: 0x12345678,
	}))
	var uc *UnrecognizedChipError
	if !errors.As(err, &uc) {
		t.Fatalf("got %v, want UnrecognizedChipError", err)
	}
	if uc.Rev != 0x12345678 {
		t.Errorf("error carries rev %#08x, want 0x12345678", uc.Rev)
	}
}

func TestDeviceNotPresent(t *testing.T) {
	c, err := Probe(newRegAccessor(map[uint32]uint32{
		0x1e6e207c: 0x02010303, // AST2400-A1
		0x1e6e0004: 0x0,
	}))
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if _, err := c.UARTMux(); !errors.Is(err, ErrDeviceNotPresent) {
		t.Errorf("UARTMux on AST2400: got %v, want ErrDeviceNotPresent", err)
	}
	if _, err := c.SDMC(); err != nil {
		t.Errorf("SDMC should be present: %v", err)
	}
}

func TestDeviceLookupAfterClose(t *testing.T) {
	c, err := Probe(ast2500())
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	s, err := c.SDMC()
	if err != nil {
		t.Fatalf("SDMC: %v", err)
	}

	c.Close()

	if _, err := c.SDMC(); !errors.Is(err, ErrChipReleased) {
		t.Errorf("lookup after close: got %v, want ErrChipReleased", err)
	}
	// A handle issued before the close must fail too, not dangle.
	if _, err := s.DRAM(); !errors.Is(err, ErrChipReleased) {
		t.Errorf("retained handle after close: got %v, want ErrChipReleased", err)
	}
}

func TestChipSiphonRegionCheck(t *testing.T) {
	c, err := Probe(ast2500())
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}

	var sink bytes.Buffer
	if _, err := c.SiphonOut(0x80000000, 64, &sink); err != nil {
		t.Errorf("in-dram siphon failed: %v", err)
	}
	if _, err := c.SiphonOut(0x1e6e2000, 64, &sink); !errors.Is(err, ahb.ErrOutOfRange) {
		t.Errorf("register space siphon: got %v, want ErrOutOfRange", err)
	}
	if _, err := c.SiphonOut(0xbfffffc0, 0x80, &sink); !errors.Is(err, ahb.ErrOutOfRange) {
		t.Errorf("range past dram end: got %v, want ErrOutOfRange", err)
	}
	if _, err := c.SiphonIn(0x20000000, 64, bytes.NewReader(make([]byte, 64))); !errors.Is(err, ahb.ErrOutOfRange) {
		t.Errorf("siphon-in to flash window: got %v, want ErrOutOfRange", err)
	}
}

func TestCoprocessorOnlyOn2600(t *testing.T) {
	c, err := Probe(ast2500())
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	scu, err := c.SCU()
	if err != nil {
		t.Fatalf("SCU: %v", err)
	}
	if err := scu.StartCoprocessor(0x98000000, 32<<20, 16<<20); !errors.Is(err, ErrDeviceNotPresent) {
		t.Errorf("coprocessor on AST2500: got %v, want ErrDeviceNotPresent", err)
	}
}

func TestWatchdogReset(t *testing.T) {
	ab := ast2500()
	c, err := Probe(ab)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	w, err := c.WDT()
	if err != nil {
		t.Fatalf("WDT: %v", err)
	}
	if err := w.ResetSoC(); err != nil {
		t.Fatalf("ResetSoC: %v", err)
	}
	if got := ab.regs[0x1e785008]; got != wdtRestartMagic {
		t.Errorf("restart register = %#x, want the reload magic %#x", got, wdtRestartMagic)
	}
	ctrl := ab.regs[0x1e78500c]
	if ctrl&wdtCtrlEnable == 0 || ctrl&wdtCtrlResetSoC == 0 {
		t.Errorf("ctrl = %#x, want enable and full-reset bits set", ctrl)
	}
}
