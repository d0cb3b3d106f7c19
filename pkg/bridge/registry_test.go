// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bridge

import (
	"errors"
	"testing"

	"github.com/u-root/culvert/pkg/ahb"
)

type stubDriver struct {
	name     string
	priority int
	opened   int
	err      error
}

func (s *stubDriver) Name() string  { return s.name }
func (s *stubDriver) Priority() int { return s.priority }

func (s *stubDriver) Open(_ Opts) (ahb.Accessor, error) {
	s.opened++
	if s.err != nil {
		return nil, s.err
	}
	return nil, errors.New("stub cannot open")
}

func TestRegistryListPriorityOrder(t *testing.T) {
	r := NewRegistry(
		&stubDriver{name: "low", priority: 1},
		&stubDriver{name: "high", priority: 10},
		&stubDriver{name: "mid", priority: 5},
	)
	ds := r.List()
	want := []string{"high", "mid", "low"}
	if len(ds) != len(want) {
		t.Fatalf("List returned %d drivers, want %d", len(ds), len(want))
	}
	for i, name := range want {
		if ds[i].Name != name {
			t.Errorf("List[%d] = %q, want %q", i, ds[i].Name, name)
		}
		if !ds[i].Enabled {
			t.Errorf("List[%d] (%s) should start enabled", i, name)
		}
	}
}

func TestRegistryDisable(t *testing.T) {
	r := NewRegistry(
		&stubDriver{name: "jtag", priority: 20},
		&stubDriver{name: "debug", priority: 10},
	)
	if err := r.Disable("jtag"); err != nil {
		t.Fatalf("Disable(jtag): %v", err)
	}

	// Still listed, but marked disabled.
	var found bool
	for _, d := range r.List() {
		if d.Name == "jtag" {
			found = true
			if d.Enabled {
				t.Errorf("jtag should be listed as disabled")
			}
		}
	}
	if !found {
		t.Errorf("disabled driver must stay listed")
	}

	for _, d := range r.Enabled() {
		if d.Name() == "jtag" {
			t.Errorf("Enabled() must not include a disabled driver")
		}
	}
}

func TestRegistryDisableUnknown(t *testing.T) {
	r := NewRegistry(&stubDriver{name: "devmem", priority: 50})
	if err := r.Disable("xdma"); !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("Disable(xdma) = %v, want ErrUnknownDriver", err)
	}
}

func TestDefaultRegistryOrder(t *testing.T) {
	want := []string{"devmem", "p2a", "ilpc", "jtag", "debug"}
	ds := DefaultRegistry().List()
	if len(ds) != len(want) {
		t.Fatalf("default registry has %d drivers, want %d", len(ds), len(want))
	}
	for i, name := range want {
		if ds[i].Name != name {
			t.Errorf("default registry[%d] = %q, want %q", i, ds[i].Name, name)
		}
	}
}
