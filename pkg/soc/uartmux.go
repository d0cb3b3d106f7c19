// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package soc

import "fmt"

// UARTMux is the LPC controller's UART routing matrix (HICRA). Console
// takeover reroutes the BMC console UART out to a spare physical port
// and back.
type UARTMux struct {
	chip *Chip
	base uint32
}

const (
	hicra = 0x9c

	// Routing fields in HICRA. Each selects the source feeding one
	// UART or I/O port.
	hicraUART3Shift = 22
	hicraIO3Shift   = 16
	hicraRouteMask  = 0x7
)

// Routes the matrix understands for this tool's purposes.
type UARTRoute int

const (
	// RouteLocal is the power-on wiring: each UART drives its own
	// I/O port.
	RouteLocal UARTRoute = iota
	// RouteCrossover feeds UART3 from the BMC console UART and vice
	// versa, giving whoever drives UART3 the console.
	RouteCrossover
)

var routeEncodings = map[UARTRoute]uint32{
	RouteLocal:     0x0,
	RouteCrossover: 0x5,
}

// UARTMux returns the routing matrix handle.
func (c *Chip) UARTMux() (*UARTMux, error) {
	base, err := c.Device(DeviceUARTMux)
	if err != nil {
		return nil, err
	}
	return &UARTMux{chip: c, base: base}, nil
}

// Route programs the matrix.
func (m *UARTMux) Route(r UARTRoute) error {
	enc, ok := routeEncodings[r]
	if !ok {
		return fmt.Errorf("unknown uart route %d", int(r))
	}
	v, err := m.chip.read32(m.base + hicra)
	if err != nil {
		return err
	}
	v &^= uint32(hicraRouteMask) << hicraUART3Shift
	v &^= uint32(hicraRouteMask) << hicraIO3Shift
	v |= enc << hicraUART3Shift
	v |= enc << hicraIO3Shift
	return m.chip.write32(m.base+hicra, v)
}

// Restore puts the power-on routing back.
func (m *UARTMux) Restore() error {
	return m.Route(RouteLocal)
}
