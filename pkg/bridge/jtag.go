// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bridge

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/u-root/culvert/pkg/ahb"
)

// jtagDriver bit-bangs the ARM debug port of the BMC over four GPIO
// lines and reaches the AHB through the MEM-AP. One word costs several
// full DR shifts, so like the debug UART this is a transport of last
// resort, but unlike the UART it works while the BMC firmware is wedged.
type jtagDriver struct {
	// Pins overrides the GPIO line numbers for TCK, TMS, TDI, TDO.
	Pins [4]int
}

func (d *jtagDriver) Name() string  { return "jtag" }
func (d *jtagDriver) Priority() int { return 20 }

var defaultJtagPins = [4]int{480, 481, 482, 483}

func (d *jtagDriver) Open(_ Opts) (ahb.Accessor, error) {
	pins := d.Pins
	if pins == [4]int{} {
		pins = defaultJtagPins
	}
	pb, err := openSysfsPins(pins)
	if err != nil {
		return nil, openErr(d.Name(), "gpio", err)
	}
	j := &jtag{pins: pb}
	if err := j.connect(); err != nil {
		pb.Close()
		return nil, openErr(d.Name(), "dap", err)
	}
	return j, nil
}

// jtagPins abstracts the four TAP lines so the state machine can be
// exercised against a software TAP in tests.
type jtagPins interface {
	Clock(tms, tdi bool) bool // pulse TCK, sample TDO
	Close() error
}

// sysfsPins drives the lines through the legacy GPIO sysfs files, which
// is what the adapters this tool gets pointed at tend to expose.
type sysfsPins struct {
	tck, tms, tdi *os.File
	tdo           *os.File
}

func openSysfsPins(nums [4]int) (*sysfsPins, error) {
	open := func(n int, flags int) (*os.File, error) {
		p := filepath.Join("/sys/class/gpio", "gpio"+strconv.Itoa(n), "value")
		return os.OpenFile(p, flags, 0o600)
	}
	var (
		p   sysfsPins
		err error
	)
	if p.tck, err = open(nums[0], os.O_WRONLY); err != nil {
		return nil, fmt.Errorf("tck: %w", err)
	}
	if p.tms, err = open(nums[1], os.O_WRONLY); err != nil {
		p.tck.Close()
		return nil, fmt.Errorf("tms: %w", err)
	}
	if p.tdi, err = open(nums[2], os.O_WRONLY); err != nil {
		p.tck.Close()
		p.tms.Close()
		return nil, fmt.Errorf("tdi: %w", err)
	}
	if p.tdo, err = open(nums[3], os.O_RDONLY); err != nil {
		p.tck.Close()
		p.tms.Close()
		p.tdi.Close()
		return nil, fmt.Errorf("tdo: %w", err)
	}
	return &p, nil
}

func (p *sysfsPins) set(f *os.File, v bool) {
	b := []byte{'0'}
	if v {
		b[0] = '1'
	}
	f.WriteAt(b, 0)
}

func (p *sysfsPins) Clock(tms, tdi bool) bool {
	p.set(p.tms, tms)
	p.set(p.tdi, tdi)
	p.set(p.tck, false)
	p.set(p.tck, true)
	b := []byte{0}
	p.tdo.ReadAt(b, 0)
	return b[0] == '1'
}

func (p *sysfsPins) Close() error {
	p.tck.Close()
	p.tms.Close()
	p.tdi.Close()
	return p.tdo.Close()
}

// ADIv5 constants. The DP/AP registers are addressed by 35 bit scan
// chain values: 32 data bits, 2 address bits, RnW.
const (
	jtagIRLen = 4
	irDPACC   = 0xa
	irAPACC   = 0xb

	dpSelect = 0x8 >> 2
	dpRdbuff = 0xc >> 2

	apCSW = 0x00 >> 2
	apTAR = 0x04 >> 2
	apDRW = 0x0c >> 2

	// 32 bit transfer size, no auto increment, debug enable.
	apCSWWord = 0x23000002

	dapAckOK = 0x2
)

type jtag struct {
	pins jtagPins
	ir   uint32 // cached IR to skip redundant IR scans
}

func (j *jtag) Name() string { return "jtag" }

func (j *jtag) Window() ahb.Region {
	return ahb.Region{Start: 0, Length: 0xffffffff}
}

// tms runs a TMS sequence with TDI held low, LSB first.
func (j *jtag) tms(bits uint, n int) {
	for i := 0; i < n; i++ {
		j.pins.Clock(bits&(1<<i) != 0, false)
	}
}

// shiftIR loads the instruction register. Entry from Run-Test/Idle:
// 1100 reaches Shift-IR; exit through Update-IR back to idle.
func (j *jtag) shiftIR(ir uint32) {
	if j.ir == ir {
		return
	}
	j.tms(0b0011, 4)
	for i := 0; i < jtagIRLen; i++ {
		last := i == jtagIRLen-1
		j.pins.Clock(last, ir&(1<<i) != 0)
	}
	j.tms(0b01, 2)
	j.ir = ir
}

// shiftDR moves a 35 bit DPACC/APACC scan through the DR and returns
// the 35 bits captured, ack in the low 3 bits.
func (j *jtag) shiftDR(out uint64) uint64 {
	j.tms(0b001, 3)
	var in uint64
	for i := 0; i < 35; i++ {
		last := i == 34
		if j.pins.Clock(last, out&(1<<i) != 0) {
			in |= 1 << i
		}
	}
	j.tms(0b01, 2)
	return in
}

func dapScan(reg uint32, val uint32, read bool) uint64 {
	v := uint64(val)<<3 | uint64(reg&0x3)<<1
	if read {
		v |= 1
	}
	return v
}

// transact retires one DP/AP access and returns the value captured by
// the following scan.
func (j *jtag) transact(ir, reg, val uint32, read bool) (uint32, error) {
	j.shiftIR(ir)
	j.shiftDR(dapScan(reg, val, read))
	// The result and ack surface on the next scan; read RDBUFF so no
	// AP access is repeated by the capture.
	j.shiftIR(irDPACC)
	in := j.shiftDR(dapScan(dpRdbuff, 0, true))
	if ack := uint32(in & 0x7); ack != dapAckOK {
		return 0, &ahb.TransportError{Interface: "jtag", Op: "dap", Err: fmt.Errorf("ack %#x", ack)}
	}
	return uint32(in >> 3), nil
}

// connect resets the TAP, selects AP0 and programs word transfers.
func (j *jtag) connect() error {
	// Five TMS ones reach Test-Logic-Reset from anywhere, a zero drops
	// to Run-Test/Idle.
	j.tms(0b011111, 6)
	j.ir = ^uint32(0)
	if _, err := j.transact(irDPACC, dpSelect, 0, false); err != nil {
		return err
	}
	_, err := j.transact(irAPACC, apCSW, apCSWWord, false)
	return err
}

func (j *jtag) Read32(addr uint32) (uint32, error) {
	if _, err := j.transact(irAPACC, apTAR, addr, false); err != nil {
		return 0, err
	}
	return j.transact(irAPACC, apDRW, 0, true)
}

func (j *jtag) Write32(addr uint32, val uint32) error {
	if _, err := j.transact(irAPACC, apTAR, addr, false); err != nil {
		return err
	}
	_, err := j.transact(irAPACC, apDRW, val, false)
	return err
}

func (j *jtag) Read(addr uint32, buf []byte) (int, error) {
	return ahb.ReadWords(j, addr, buf)
}

func (j *jtag) Write(addr uint32, buf []byte) (int, error) {
	return ahb.WriteWords(j, addr, buf)
}

func (j *jtag) Release() error {
	// Park the TAP in Test-Logic-Reset so the debug port releases the
	// bus.
	j.tms(0b11111, 5)
	return j.pins.Close()
}
