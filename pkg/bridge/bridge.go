// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bridge implements the transport drivers that reach a BMC's AHB
// from the outside, and the registry the host negotiator walks to pick
// one. A driver either opens a live ahb.Accessor or reports why it could
// not; the negotiation policy itself lives in pkg/host.
//
// The compiled-in drivers, from most to least preferred:
//
//	devmem  local /dev/mem mapping, only works on the BMC itself
//	p2a     PCIe-to-AHB window in the ASPEED VGA function's BAR1
//	ilpc    SuperIO iLPC2AHB over the host LPC bus
//	jtag    bit-banged ARM debug port on GPIO lines
//	debug   the ASPEED debug UART monitor, local tty or console server
package bridge

import (
	"errors"
	"fmt"

	"github.com/u-root/culvert/pkg/ahb"
)

// Opts carries user-supplied connection parameters down to a driver's
// Open. Local transports only look at Interface; the debug driver's
// console-server mode consumes all five fields. Validation of field
// combinations happens in pkg/host before any driver sees them.
type Opts struct {
	Interface string
	Host      string
	Port      int
	Username  string
	Password  string
}

// Driver is one transport implementation. Open probes the local
// environment (or the remote end named in opts) and hands back an
// exclusive accessor, or a typed failure. A failed Open must leave no
// resource behind.
type Driver interface {
	Name() string
	Priority() int
	Open(opts Opts) (ahb.Accessor, error)
}

// ErrUnknownDriver is returned when a disable request names a driver
// that was never registered.
var ErrUnknownDriver = errors.New("unknown bridge driver")

// ErrNotPresent is the generic "this transport is not reachable from
// here" open failure, as opposed to a permission or protocol problem.
var ErrNotPresent = errors.New("transport not present")

func openErr(name, detail string, err error) error {
	return fmt.Errorf("%s: %s: %w", name, detail, err)
}
