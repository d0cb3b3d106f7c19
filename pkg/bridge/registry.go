// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bridge

import (
	"fmt"
	"sort"
)

// Descriptor is the user-visible view of one registered driver.
type Descriptor struct {
	Name     string
	Priority int
	Enabled  bool
}

// Registry is the ordered set of bridge drivers a negotiation may walk.
// It is built once at process start from the compiled-in driver set and
// mutated only by Disable before negotiation begins; there is no
// re-enable and no re-ordering. It is an explicit value handed to the
// negotiator, not package state.
type Registry struct {
	entries []*entry
	byName  map[string]*entry
}

type entry struct {
	drv     Driver
	enabled bool
}

// NewRegistry builds a registry over the given drivers, ordered by
// descending priority. Insertion order breaks priority ties.
func NewRegistry(drivers ...Driver) *Registry {
	r := &Registry{byName: make(map[string]*entry)}
	for _, d := range drivers {
		e := &entry{drv: d, enabled: true}
		r.entries = append(r.entries, e)
		r.byName[d.Name()] = e
	}
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].drv.Priority() > r.entries[j].drv.Priority()
	})
	return r
}

// DriverConfig tunes the compiled-in drivers where the defaults do not
// fit the adapter wiring at hand. Zero values mean the defaults.
type DriverConfig struct {
	// DebugTTY is the serial device the debug bridge opens locally.
	DebugTTY string
	// JTAGPins are the GPIO lines for TCK, TMS, TDI, TDO.
	JTAGPins [4]int
}

// DefaultRegistry returns the compiled-in driver set.
func DefaultRegistry() *Registry {
	return ConfiguredRegistry(DriverConfig{})
}

// ConfiguredRegistry returns the compiled-in driver set with the given
// tuning applied.
func ConfiguredRegistry(dc DriverConfig) *Registry {
	return NewRegistry(
		&devmemDriver{},
		&p2aDriver{},
		&ilpcDriver{},
		&jtagDriver{Pins: dc.JTAGPins},
		&debugDriver{TTY: dc.DebugTTY},
	)
}

// List enumerates every driver in negotiation order, disabled ones
// included.
func (r *Registry) List() []Descriptor {
	ds := make([]Descriptor, 0, len(r.entries))
	for _, e := range r.entries {
		ds = append(ds, Descriptor{
			Name:     e.drv.Name(),
			Priority: e.drv.Priority(),
			Enabled:  e.enabled,
		})
	}
	return ds
}

// Disable removes a driver from consideration for every subsequent
// negotiation against this registry. Disabling is one-way.
func (r *Registry) Disable(name string) error {
	e, ok := r.byName[name]
	if !ok {
		return fmt.Errorf("%q: %w", name, ErrUnknownDriver)
	}
	e.enabled = false
	return nil
}

// Enabled returns the drivers a negotiation may attempt, in order.
func (r *Registry) Enabled() []Driver {
	var ds []Driver
	for _, e := range r.entries {
		if e.enabled {
			ds = append(ds, e.drv)
		}
	}
	return ds
}

// Lookup finds a driver by name regardless of its enabled state, for
// explicit-interface opens.
func (r *Registry) Lookup(name string) (Driver, error) {
	e, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownDriver)
	}
	return e.drv, nil
}
