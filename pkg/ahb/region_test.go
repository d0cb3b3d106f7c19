// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ahb

import (
	"testing"
)

func TestNewRegionRejectsWrap(t *testing.T) {
	if _, err := NewRegion(0xffffff00, 0x200); err == nil {
		t.Errorf("expected wrap rejection for 0xffffff00+0x200")
	}
	if _, err := NewRegion(0xffffff00, 0x100); err != nil {
		t.Errorf("region ending exactly at 2^32 should be valid: %v", err)
	}
	if _, err := NewRegion(0x80000000, 0x40000000); err != nil {
		t.Errorf("1GiB DRAM region should be valid: %v", err)
	}
}

func TestRegionContains(t *testing.T) {
	r := Region{Start: 0x80000000, Length: 0x1000}
	for _, tc := range []struct {
		addr uint32
		want bool
	}{
		{0x7fffffff, false},
		{0x80000000, true},
		{0x80000fff, true},
		{0x80001000, false},
		{0x00000000, false},
	} {
		if got := r.Contains(tc.addr); got != tc.want {
			t.Errorf("Contains(%#08x) = %v, want %v", tc.addr, got, tc.want)
		}
	}
}

func TestRegionContainsRange(t *testing.T) {
	r := Region{Start: 0x80000000, Length: 0x1000}
	if !r.ContainsRange(0x80000000, 0x1000) {
		t.Errorf("full region should be contained")
	}
	if r.ContainsRange(0x80000ffc, 8) {
		t.Errorf("range crossing the end should not be contained")
	}
	if r.ContainsRange(0x7ffffffc, 4) {
		t.Errorf("range before the start should not be contained")
	}
}
