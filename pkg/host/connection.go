// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/u-root/culvert/pkg/bridge"
)

// ErrMalformedConnection means the connection parameters were supplied
// in an invalid combination. It is raised before any I/O is attempted.
var ErrMalformedConnection = errors.New("malformed connection parameters")

// Validate enforces the two legal parameter shapes: an interface alone,
// or an interface plus all four console-server fields. A blank field
// counts as absent.
func Validate(opts bridge.Opts) error {
	if opts.Interface == "" {
		if opts.Host != "" || opts.Port != 0 || opts.Username != "" || opts.Password != "" {
			return fmt.Errorf("connection fields without an interface: %w", ErrMalformedConnection)
		}
		return nil
	}
	local := opts.Host == "" && opts.Port == 0 && opts.Username == "" && opts.Password == ""
	remote := opts.Host != "" && opts.Port != 0 && opts.Username != "" && opts.Password != ""
	if !local && !remote {
		return fmt.Errorf("want INTERFACE alone or INTERFACE HOST PORT USERNAME PASSWORD: %w", ErrMalformedConnection)
	}
	return nil
}

// ParseVia consumes the positional `via INTERFACE [HOST PORT USERNAME
// PASSWORD]` clause commands accept, returning the validated options.
// args starts at the token after "via".
func ParseVia(args []string) (bridge.Opts, error) {
	var opts bridge.Opts
	switch len(args) {
	case 1:
		opts.Interface = args[0]
	case 5:
		port, err := strconv.Atoi(args[2])
		if err != nil {
			return bridge.Opts{}, fmt.Errorf("port %q: %w", args[2], ErrMalformedConnection)
		}
		opts = bridge.Opts{
			Interface: args[0],
			Host:      args[1],
			Port:      port,
			Username:  args[3],
			Password:  args[4],
		}
	default:
		return bridge.Opts{}, fmt.Errorf("via clause takes 1 or 5 arguments, got %d: %w", len(args), ErrMalformedConnection)
	}
	if err := Validate(opts); err != nil {
		return bridge.Opts{}, err
	}
	return opts, nil
}
