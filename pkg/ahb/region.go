// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ahb

import "fmt"

// Region is a contiguous range of AHB addresses, e.g. DRAM, the VRAM
// reservation carved out of its tail, or the flash controller window.
// A Region never wraps the 32 bit address space.
type Region struct {
	Start  uint32
	Length uint32
}

// NewRegion validates that start+length stays inside the 32 bit
// address space before constructing the Region.
func NewRegion(start, length uint32) (Region, error) {
	if uint64(start)+uint64(length) > 1<<32 {
		return Region{}, fmt.Errorf("region %#08x+%#x wraps the address space", start, length)
	}
	return Region{Start: start, Length: length}, nil
}

// End is one past the last address in the region.
func (r Region) End() uint64 {
	return uint64(r.Start) + uint64(r.Length)
}

// Contains reports whether addr falls inside the region.
func (r Region) Contains(addr uint32) bool {
	return addr >= r.Start && uint64(addr) < r.End()
}

// ContainsRange reports whether [addr, addr+length) is fully inside
// the region.
func (r Region) ContainsRange(addr, length uint32) bool {
	if length == 0 {
		return r.Contains(addr) || uint64(addr) == r.End()
	}
	return addr >= r.Start && uint64(addr)+uint64(length) <= r.End()
}

func (r Region) String() string {
	return fmt.Sprintf("[%#08x-%#08x]", r.Start, r.End()-1)
}
