// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host negotiates a live AHB accessor from user-supplied
// connection parameters. With no parameters it walks the enabled bridge
// registry in priority order and takes the first transport that opens;
// with an explicit interface it opens exactly that transport and nothing
// else. One negotiation yields at most one accessor, and a failed
// attempt never leaves a transport half-open.
package host

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"

	"github.com/u-root/culvert/pkg/ahb"
	"github.com/u-root/culvert/pkg/bridge"
	"github.com/u-root/culvert/pkg/logger"
)

// NoBridgeError means implicit negotiation exhausted the enabled
// registry. Reasons collects why each driver was discarded, for the
// trailing diagnostic. PrivilegeDenied is set when at least one driver
// failed on permissions rather than absence, so the caller can suggest
// escalating instead of rewiring.
type NoBridgeError struct {
	Reasons         error
	PrivilegeDenied bool
}

func (e *NoBridgeError) Error() string {
	if e.Reasons == nil {
		return "no bridge driver available"
	}
	return fmt.Sprintf("no bridge driver available: %v", e.Reasons)
}

func (e *NoBridgeError) Unwrap() error {
	return e.Reasons
}

// Negotiate turns connection parameters into exactly one open accessor.
// opts must already be in one of the two legal shapes; Validate is
// re-run here so callers that skip the CLI boundary stay safe.
func Negotiate(reg *bridge.Registry, opts bridge.Opts) (ahb.Accessor, error) {
	if err := Validate(opts); err != nil {
		return nil, err
	}
	if opts.Interface != "" {
		return explicit(reg, opts)
	}
	return implicit(reg)
}

// explicit opens the one named transport, enabled or not; naming a
// driver overrides the registry walk entirely.
func explicit(reg *bridge.Registry, opts bridge.Opts) (ahb.Accessor, error) {
	drv, err := reg.Lookup(opts.Interface)
	if err != nil {
		return nil, err
	}
	a, err := drv.Open(opts)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func implicit(reg *bridge.Registry) (ahb.Accessor, error) {
	log := logger.Sugar()
	var (
		reasons *multierror.Error
		priv    bool
	)
	for _, drv := range reg.Enabled() {
		log.Debugf("probing %s bridge", drv.Name())
		a, err := drv.Open(bridge.Opts{})
		if err == nil {
			log.Debugf("%s bridge opened", drv.Name())
			return a, nil
		}
		if errors.Is(err, os.ErrPermission) {
			priv = true
		}
		reasons = multierror.Append(reasons, err)
	}
	return nil, &NoBridgeError{Reasons: reasons.ErrorOrNil(), PrivilegeDenied: priv}
}
